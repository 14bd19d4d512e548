// Package aegobserve file: internal/aegobserve/logging.go
package aegobserve

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// logLevel 由全局 logger 共享，配置热加载时通过 SetLevel 修改
var logLevel = new(slog.LevelVar)

// ParseLevel 把配置字符串转为日志级别，无法识别时为 INFO
func ParseLevel(levelStr string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// InitLogger 初始化全局的结构化日志记录器。
// 它应该在 main 函数的早期被调用。
func InitLogger(levelStr string) {
	initLogger(os.Stdout, levelStr)
}

func initLogger(w io.Writer, levelStr string) {
	logLevel.Set(ParseLevel(levelStr))
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: true,
	})
	slog.SetDefault(slog.New(handler))
}

// SetLevel 在运行时调整日志级别
func SetLevel(levelStr string) {
	lv := ParseLevel(levelStr)
	if logLevel.Level() != lv {
		slog.Info("日志级别已变更", "from", logLevel.Level().String(), "to", lv.String())
		logLevel.Set(lv)
	}
}

// Level 返回当前日志级别
func Level() slog.Level { return logLevel.Level() }
