package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// HeaderAuthToken 은 기존 프론트엔드가 토큰을 싣는 헤더다.
const HeaderAuthToken = "x-auth-token"

var (
	ErrMissingHeader = errors.New("missing_authorization_header")
	ErrInvalidFormat = errors.New("invalid_authorization_header")
	ErrEmptyToken    = errors.New("empty_token")
	ErrInvalidToken  = errors.New("invalid_token")
)

// ExtractToken 은 x-auth-token 헤더를 우선 보고, 없으면 Authorization Bearer 토큰을 꺼낸다.
func ExtractToken(c *gin.Context) (string, error) {
	if raw, ok := c.Request.Header[http.CanonicalHeaderKey(HeaderAuthToken)]; ok {
		token := ""
		if len(raw) > 0 {
			token = strings.TrimSpace(raw[0])
		}
		if token == "" {
			return "", ErrEmptyToken
		}
		return token, nil
	}
	return ExtractBearerToken(c)
}

// ExtractBearerToken extracts the Bearer token from the Authorization header.
func ExtractBearerToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", ErrMissingHeader
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrInvalidFormat
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", ErrEmptyToken
	}

	return token, nil
}

// AbortWithUnauthorized aborts the request with 401 status and a msg JSON body.
func AbortWithUnauthorized(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": err.Error()})
}
