// file: internal/aegmiddleware/keyed_limiter_test.go
package aegmiddleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyedLimiters_EvictIdle(t *testing.T) {
	k := newKeyedLimiters(1, 1)
	assert.True(t, k.allow("a"))
	assert.True(t, k.allow("b"))
	assert.False(t, k.allow("a"))
	assert.Equal(t, 2, k.size())

	k.evictIdle(time.Now())
	assert.Equal(t, 2, k.size(), "活跃条目不应被清理")

	k.evictIdle(time.Now().Add(idleTTL + time.Minute))
	assert.Zero(t, k.size())
	assert.True(t, k.allow("a"), "清理后重新获得完整的令牌桶")
}
