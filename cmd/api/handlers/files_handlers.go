package handlers

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"blog-system/cmd/api/dto"
	"blog-system/internal/logger"
)

const presignTTL = 15 * time.Minute

// Presigner 는 저장 파일명에 대한 임시 URL 을 만든다. *storage.S3Store 가 만족한다.
type Presigner interface {
	PresignGet(ctx context.Context, name string, ttl time.Duration) (*url.URL, error)
}

// PresignedFileHandler 는 S3 백엔드에서 /<uploadDir>/:name 요청을 presigned URL 로 리다이렉트한다.
func PresignedFileHandler(p Presigner, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
			c.JSON(http.StatusNotFound, dto.MessageDTO{Msg: "File not found"})
			return
		}
		u, err := p.PresignGet(c.Request.Context(), name, presignTTL)
		if err != nil {
			log.Errorf("presign %s: %v", name, err)
			c.JSON(http.StatusInternalServerError, dto.MessageDTO{Msg: serverErrorMsg})
			return
		}
		c.Redirect(http.StatusFound, u.String())
	}
}
