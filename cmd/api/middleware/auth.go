package middleware

import (
	"github.com/gin-gonic/gin"

	"blog-system/cmd/api/auth"
	"blog-system/internal/logger"
)

// ContextKeyUserID 는 인증된 사용자 id 를 gin 컨텍스트에 저장할 때 쓰는 키다.
const ContextKeyUserID = "user_id"

// TokenParser 는 토큰 문자열을 사용자 id 로 바꾼다. *auth.JWTManager 가 만족한다.
type TokenParser interface {
	Parse(token string) (string, error)
}

// RequireUser 는 x-auth-token 또는 Authorization: Bearer 토큰을 검증하고
// 사용자 id 를 컨텍스트에 저장한다. 실패하면 401 로 중단한다.
func RequireUser(parser TokenParser, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractToken(c)
		if err != nil {
			auth.AbortWithUnauthorized(c, err)
			return
		}

		userID, err := parser.Parse(token)
		if err != nil {
			log.Debugf("token parse error: %v", err)
			auth.AbortWithUnauthorized(c, auth.ErrInvalidToken)
			return
		}

		c.Set(ContextKeyUserID, userID)
		c.Next()
	}
}

// UserID 는 RequireUser 가 저장한 사용자 id 를 꺼낸다.
func UserID(c *gin.Context) (string, bool) {
	v, ok := c.Get(ContextKeyUserID)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
