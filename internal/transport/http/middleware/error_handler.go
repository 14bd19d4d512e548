// Package middleware file: internal/transport/http/middleware/error_handler.go
package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"ShopAegis/internal/core/port"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// RequestIDHeader 是请求 ID 所在的请求/响应头
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

// RequestID 为每个请求分配 ID，客户端已提供合法 UUID 时沿用
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestLogger 以结构化日志记录每个请求
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		slog.Info("HTTP 请求",
			"request_id", c.GetString(requestIDKey),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"ip", c.ClientIP(),
		)
	}
}

// StatusFor 把错误种类映射为 HTTP 状态码
func StatusFor(err error) int {
	switch {
	case errors.Is(err, port.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, port.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, port.ErrInvalidFilter),
		errors.Is(err, port.ErrInvalidPagination),
		errors.Is(err, port.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, port.ErrInvalidState):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandlingMiddleware 是一个Gin中间件，用于集中处理错误。
// 处理器通过 c.Error(err) 附加错误，这里只写出可以公开的消息。
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		// 只处理最后一个错误，它通常是根本原因
		err := c.Errors.Last().Err

		// 参数绑定或验证错误
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			msg := "Invalid input"
			if len(ve) > 0 {
				msg = "Field '" + ve[0].Field() + "' failed on the '" + ve[0].Tag() + "' rule"
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": msg})
			return
		}
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed JSON body"})
			return
		}
		if errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Request body is required"})
			return
		}

		code := StatusFor(err)
		if code == http.StatusInternalServerError {
			slog.Error("请求处理失败", "request_id", c.GetString(requestIDKey), "path", c.FullPath(), "error", err)
		}
		c.JSON(code, gin.H{"error": port.PublicMessage(err)})
	}
}
