package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"blog-system/metrics"
)

// RequestMetrics 는 요청 처리 시간을 라우트 템플릿 단위로 기록한다.
// 매칭되지 않은 경로는 "unmatched" 로 묶어 라벨 폭증을 막는다.
func RequestMetrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
