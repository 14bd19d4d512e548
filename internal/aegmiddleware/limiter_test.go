// file: internal/aegmiddleware/limiter_test.go

package aegmiddleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ShopAegis/internal/aegmiddleware" // 导入被测试的包
	"ShopAegis/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() { gin.SetMode(gin.TestMode) }

// ============================================================================
//  测试辅助函数 (Test Helpers)
// ============================================================================

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "OK") })
	return r
}

func serve(h http.Handler, remoteAddr string, claim *service.Claim) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	if claim != nil {
		req = req.WithContext(service.ContextWithClaim(req.Context(), claim))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr.Code
}

func generous() aegmiddleware.RateSettings {
	return aegmiddleware.RateSettings{
		GlobalRPS: 100, GlobalBurst: 100,
		IPRPS: 100, IPBurst: 100,
		SubjectRPS: 100, SubjectBurst: 100,
	}
}

// ============================================================================
//  测试用例 (Test Cases)
// ============================================================================

func TestRateLimiter_Global(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := generous()
	s.GlobalRPS, s.GlobalBurst = 2, 2
	limiter := aegmiddleware.NewRateLimiter(ctx, s)
	h := newEngine(limiter.Global())

	t.Run("should allow initial requests", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			assert.Equal(t, http.StatusOK, serve(h, "", nil))
		}
	})

	t.Run("should block subsequent requests", func(t *testing.T) {
		assert.Equal(t, http.StatusTooManyRequests, serve(h, "", nil))
	})

	t.Run("should allow requests again after delay", func(t *testing.T) {
		time.Sleep(1 * time.Second)
		assert.Equal(t, http.StatusOK, serve(h, "", nil))
	})
}

func TestRateLimiter_PerIP(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := generous()
	s.IPRPS, s.IPBurst = 1, 1
	limiter := aegmiddleware.NewRateLimiter(ctx, s)
	h := newEngine(limiter.PerIP())

	t.Run("should limit requests from the same IP", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, serve(h, "192.0.2.1:12345", nil))
		assert.Equal(t, http.StatusTooManyRequests, serve(h, "192.0.2.1:12345", nil))
	})

	t.Run("should not affect requests from a different IP", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, serve(h, "192.0.2.2:54321", nil))
	})
}

func TestRateLimiter_PerSubject(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := generous()
	s.SubjectRPS, s.SubjectBurst = 1, 1
	limiter := aegmiddleware.NewRateLimiter(ctx, s)
	h := newEngine(limiter.PerSubject())

	customer := &service.Claim{ID: 1, Type: service.TokenTypeAccess}
	staff := &service.Claim{ID: 1, Roles: []string{"admin"}, Type: service.TokenTypeAccess}

	assert.Equal(t, http.StatusOK, serve(h, "", customer))
	assert.Equal(t, http.StatusTooManyRequests, serve(h, "", customer))

	// 相同 ID 的员工令牌使用独立的令牌桶
	assert.Equal(t, http.StatusOK, serve(h, "", staff))

	t.Run("should not limit unauthenticated requests", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			assert.Equal(t, http.StatusOK, serve(h, "", nil))
		}
	})
}

func TestRateLimiter_Apply(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := generous()
	s.IPRPS, s.IPBurst = 1, 1
	limiter := aegmiddleware.NewRateLimiter(ctx, s)
	h := newEngine(limiter.PerIP())

	assert.Equal(t, http.StatusOK, serve(h, "192.0.2.9:1", nil))
	assert.Equal(t, http.StatusTooManyRequests, serve(h, "192.0.2.9:1", nil))

	limiter.Apply(generous())
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, serve(h, "192.0.2.9:1", nil))
	}
}
