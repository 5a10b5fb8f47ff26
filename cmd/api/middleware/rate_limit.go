package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"blog-system/cmd/api/dto"
)

// ClientRateLimiter 는 클라이언트 키(사용자 id 또는 IP)별 토큰 버킷을 보관한다.
type ClientRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewClientRateLimiter 는 분당 요청 수와 burst 로 limiter 를 만든다.
func NewClientRateLimiter(perMinute, burst int) *ClientRateLimiter {
	if perMinute <= 0 {
		perMinute = 20
	}
	if burst <= 0 {
		burst = 1
	}
	return &ClientRateLimiter{
		visitors: make(map[string]*rate.Limiter),
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
	}
}

func (rl *ClientRateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	l, ok := rl.visitors[key]
	if !ok {
		l = rate.NewLimiter(rl.limit, rl.burst)
		rl.visitors[key] = l
	}
	return l
}

// Allow 는 key 에 대한 요청 하나를 소비할 수 있는지 확인한다.
func (rl *ClientRateLimiter) Allow(key string) bool {
	return rl.limiter(key).Allow()
}

// RateLimit 은 인증된 사용자는 사용자 id, 아니면 클라이언트 IP 로 요청을 제한한다.
// 초과 시 채팅 API 와 같은 {"error"} 본문으로 429 를 반환한다.
func RateLimit(rl *ClientRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := UserID(c)
		if !ok {
			key = c.ClientIP()
		}
		if !rl.Allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.ErrorResponseDTO{Error: "Rate limit exceeded"})
			return
		}
		c.Next()
	}
}
