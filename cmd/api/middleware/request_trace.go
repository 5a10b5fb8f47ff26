package middleware

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"blog-system/cmd/api/trace"
	"blog-system/internal/logger"
)

const (
	HeaderRequestID = "X-Request-Id"
	headerSpanID    = "X-Span-Id"

	maxBodyLog = 1024
)

// RequestTrace 는 요청마다 Request ID 를 보장하고 응답 헤더에 실어 보낸 뒤,
// 처리가 끝나면 completed request 로그를 남긴다.
func RequestTrace(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		req := c.Request

		requestID := req.Header.Get(HeaderRequestID)
		if requestID == "" {
			requestID = trace.GenerateID()
		}

		ctxWithTrace := trace.WithRequestAndSpan(req.Context(), requestID, 0)
		c.Request = req.WithContext(ctxWithTrace)

		currentSpan := trace.CurrentSpanID(ctxWithTrace)
		c.Request.Header.Set(HeaderRequestID, requestID)
		c.Writer.Header().Set(HeaderRequestID, requestID)
		c.Writer.Header().Set(headerSpanID, currentSpan)

		// multipart 본문(첨부파일)은 로그에 남기지 않는다.
		bodySnippet := readBodySnippet(c)

		c.Next()

		fields := logger.Fields{
			"method":     req.Method,
			"path":       req.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).String(),
			"request_id": requestID,
			"span_id":    trace.CurrentSpanID(c.Request.Context()),
		}
		if q := req.URL.RawQuery; q != "" {
			fields["query"] = q
		}
		if userID, ok := UserID(c); ok {
			fields["user_id"] = userID
		}
		if bodySnippet != "" {
			fields["body"] = bodySnippet
		}
		logger.InfoWithFields(log, "completed request", fields)
	}
}

func readBodySnippet(c *gin.Context) string {
	req := c.Request
	if req.Body == nil || req.ContentLength == 0 {
		return ""
	}
	switch req.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return ""
	}
	if strings.HasPrefix(req.Header.Get("Content-Type"), "multipart/") {
		return ""
	}

	// 로그에 필요한 만큼만 읽고, 핸들러가 전체 본문을 다시 읽을 수 있도록 이어 붙인다.
	head, err := io.ReadAll(io.LimitReader(req.Body, maxBodyLog+1))
	c.Request.Body = readCloser{
		Reader: io.MultiReader(bytes.NewReader(head), req.Body),
		Closer: req.Body,
	}
	if err != nil {
		return ""
	}
	if len(head) > maxBodyLog {
		head = head[:maxBodyLog]
	}
	return string(head)
}

type readCloser struct {
	io.Reader
	io.Closer
}
