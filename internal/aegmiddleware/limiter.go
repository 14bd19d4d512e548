// file: internal/aegmiddleware/limiter.go
package aegmiddleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"ShopAegis/internal/aegobserve"
	"ShopAegis/internal/service"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	cleanupInterval = 10 * time.Minute
	idleTTL         = 15 * time.Minute
)

// RateSettings 是三层限流的速率与峰值，速率单位为 req/s
type RateSettings struct {
	GlobalRPS    float64
	GlobalBurst  int
	IPRPS        float64
	IPBurst      int
	SubjectRPS   float64
	SubjectBurst int
}

// limiterEntry 存储限制器和最后访问时间，用于清理
type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// keyedLimiters 按键(IP 或令牌主体)维护独立的令牌桶
type keyedLimiters struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	rate    rate.Limit
	burst   int
}

func newKeyedLimiters(r float64, b int) *keyedLimiters {
	return &keyedLimiters{entries: make(map[string]*limiterEntry), rate: rate.Limit(r), burst: b}
}

func (k *keyedLimiters) allow(key string) bool {
	k.mu.Lock()
	entry, ok := k.entries[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(k.rate, k.burst)}
		k.entries[key] = entry
	}
	entry.lastSeen = time.Now()
	k.mu.Unlock()
	return entry.limiter.Allow()
}

// reset 修改默认速率，已有的令牌桶全部丢弃
func (k *keyedLimiters) reset(r float64, b int) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.rate, k.burst = rate.Limit(r), b
	k.entries = make(map[string]*limiterEntry)
}

func (k *keyedLimiters) evictIdle(now time.Time) {
	k.mu.Lock()
	defer k.mu.Unlock()
	for key, entry := range k.entries {
		if now.Sub(entry.lastSeen) > idleTTL {
			delete(k.entries, key)
		}
	}
}

func (k *keyedLimiters) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}

// RateLimiter 管理全局、按 IP、按令牌主体三层限流
type RateLimiter struct {
	global     *rate.Limiter
	perIP      *keyedLimiters
	perSubject *keyedLimiters
}

// NewRateLimiter 创建限流器。后台清理协程在 ctx 结束时退出。
func NewRateLimiter(ctx context.Context, s RateSettings) *RateLimiter {
	rl := &RateLimiter{
		global:     rate.NewLimiter(rate.Limit(s.GlobalRPS), s.GlobalBurst),
		perIP:      newKeyedLimiters(s.IPRPS, s.IPBurst),
		perSubject: newKeyedLimiters(s.SubjectRPS, s.SubjectBurst),
	}
	go rl.cleanup(ctx)

	slog.Info("限流器初始化完成",
		"global_rps", s.GlobalRPS, "global_burst", s.GlobalBurst,
		"ip_rps", s.IPRPS, "ip_burst", s.IPBurst,
		"subject_rps", s.SubjectRPS, "subject_burst", s.SubjectBurst)
	return rl
}

// Apply 在配置热加载后更新速率
func (rl *RateLimiter) Apply(s RateSettings) {
	rl.global.SetLimit(rate.Limit(s.GlobalRPS))
	rl.global.SetBurst(s.GlobalBurst)
	rl.perIP.reset(s.IPRPS, s.IPBurst)
	rl.perSubject.reset(s.SubjectRPS, s.SubjectBurst)
	slog.Info("限流配置已更新", "global_rps", s.GlobalRPS, "ip_rps", s.IPRPS, "subject_rps", s.SubjectRPS)
}

func (rl *RateLimiter) cleanup(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			rl.perIP.evictIdle(now)
			rl.perSubject.evictIdle(now)
		}
	}
}

// Global 返回全局限制中间件
func (rl *RateLimiter) Global() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.global.Allow() {
			reject(c, "global", "系统繁忙，请稍后再试")
			return
		}
		c.Next()
	}
}

// PerIP 返回按客户端 IP 限制的中间件
func (rl *RateLimiter) PerIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.perIP.allow(c.ClientIP()) {
			reject(c, "ip", "您的请求过于频繁，请稍后再试")
			return
		}
		c.Next()
	}
}

// PerSubject 按令牌主体限制，必须放在 Authenticate 之后。匿名请求直接放行。
func (rl *RateLimiter) PerSubject() gin.HandlerFunc {
	return func(c *gin.Context) {
		claim := service.ClaimFrom(c.Request.Context())
		if claim == nil {
			c.Next()
			return
		}
		// 员工与客户的 ID 空间不同，键中区分
		key := "c:" + strconv.FormatInt(claim.ID, 10)
		if claim.Elevated() {
			key = "s:" + strconv.FormatInt(claim.ID, 10)
		}
		if !rl.perSubject.allow(key) {
			reject(c, "subject", "您的账户请求过于频繁，请稍后再试")
			return
		}
		c.Next()
	}
}

func reject(c *gin.Context, scope, msg string) {
	aegobserve.RateLimited.WithLabelValues(scope).Inc()
	c.Header("Retry-After", "1")
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": msg})
}
