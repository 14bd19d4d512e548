// file: internal/aegmiddleware/auth.go
package aegmiddleware

import (
	"log/slog"
	"net/http"
	"strings"

	"ShopAegis/internal/aegobserve"
	"ShopAegis/internal/service"

	"github.com/gin-gonic/gin"
)

// TokenParser 校验访问令牌，由 *service.TokenManager 实现
type TokenParser interface {
	ParseToken(token string) (*service.Claim, error)
}

// Authenticate 解析 Authorization: Bearer 令牌并把 Claim 放入请求 context。
// 没有令牌的请求继续向下执行，由各操作自行决定是否需要令牌；
// 令牌存在但无效时直接返回 401。
func Authenticate(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			unauthorized(c, "malformed_header")
			return
		}
		claim, err := tokens.ParseToken(strings.TrimSpace(raw))
		if err != nil {
			slog.Debug("访问令牌校验失败", "path", c.FullPath(), "ip", c.ClientIP(), "error", err)
			unauthorized(c, "invalid_token")
			return
		}
		if claim.Type != service.TokenTypeAccess {
			unauthorized(c, "wrong_token_type")
			return
		}
		c.Request = c.Request.WithContext(service.ContextWithClaim(c.Request.Context(), claim))
		c.Next()
	}
}

func unauthorized(c *gin.Context, reason string) {
	aegobserve.AccessDenied.WithLabelValues(reason).Inc()
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": service.UnauthorizedMessage})
}
