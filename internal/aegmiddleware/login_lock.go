// file: internal/aegmiddleware/login_lock.go
package aegmiddleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"ShopAegis/internal/aegobserve"
	"ShopAegis/internal/core/port"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// maxLoginBody 限制登录请求体大小
const maxLoginBody = 16 << 10

// LoginFailureLock 按 (IP, 用户名) 统计登录失败次数，超过阈值后临时锁定
type LoginFailureLock struct {
	failureCache    *cache.Cache
	maxFailures     int
	lockoutDuration time.Duration
}

// NewLoginFailureLock 创建一个新的登录失败锁定器
func NewLoginFailureLock(maxFailures int, lockoutDuration time.Duration) *LoginFailureLock {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	if lockoutDuration <= 0 {
		lockoutDuration = 15 * time.Minute
	}
	return &LoginFailureLock{
		failureCache:    cache.New(lockoutDuration, 10*time.Minute),
		maxFailures:     maxFailures,
		lockoutDuration: lockoutDuration,
	}
}

// Middleware 包裹登录处理器。处理器返回 401 时计数，返回 200 时清零。
func (l *LoginFailureLock) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxLoginBody))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		_ = c.Request.Body.Close()
		// 读取过的内容重新放回 Body，供后续处理器绑定
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		var probe struct {
			Username string `json:"username"`
		}
		_ = json.Unmarshal(body, &probe)
		username := strings.TrimSpace(probe.Username)
		ip := c.ClientIP()
		lockKey := "lock:" + ip + ":" + username
		failureKey := "failures:" + ip + ":" + username

		if _, found := l.failureCache.Get(lockKey); found {
			aegobserve.RateLimited.WithLabelValues("login").Inc()
			slog.Warn("已锁定的账户再次尝试登录", "username", username, "ip", ip)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
			return
		}

		c.Next()

		switch loginOutcome(c) {
		case http.StatusUnauthorized:
			// Increment 在 key 不存在时返回错误，此时是第一次失败
			if err := l.failureCache.Increment(failureKey, 1); err != nil {
				l.failureCache.Set(failureKey, int64(1), cache.DefaultExpiration)
			}
			var failures int64
			if x, found := l.failureCache.Get(failureKey); found {
				failures, _ = x.(int64)
			}
			slog.Info("登录失败", "username", username, "ip", ip, "failures", failures)

			if failures >= int64(l.maxFailures) {
				l.failureCache.Set(lockKey, true, l.lockoutDuration)
				l.failureCache.Delete(failureKey)
				slog.Warn("账户已被临时锁定", "username", username, "ip", ip, "duration", l.lockoutDuration)
			}
		case http.StatusOK:
			l.failureCache.Delete(failureKey)
		}
	}
}

// loginOutcome 返回登录处理器的结果状态。
// 处理器通过 c.Error 报错时响应尚未写出，此时依据错误种类判断。
func loginOutcome(c *gin.Context) int {
	if c.Writer.Written() || len(c.Errors) == 0 {
		return c.Writer.Status()
	}
	if errors.Is(c.Errors.Last().Err, port.ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	return http.StatusBadRequest
}
