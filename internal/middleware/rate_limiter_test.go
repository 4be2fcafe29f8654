package middleware

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(1, 3)
	defer rl.Stop()

	t.Run("突发容量内放行", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			require.True(t, rl.Allow("1.2.3.4"), "第 %d 次请求", i+1)
		}
	})

	t.Run("超出容量被限流", func(t *testing.T) {
		require.False(t, rl.Allow("1.2.3.4"))
	})

	t.Run("不同客户端互不影响", func(t *testing.T) {
		require.True(t, rl.Allow("5.6.7.8"))
	})
}
