package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMissingSecret 는 서명 시크릿이 비어 있을 때 반환된다.
var ErrMissingSecret = errors.New("JWT_SECRET is required")

// JWTManager 는 HS256 단일 시크릿 문자열을 사용해 JWT 를 발급/검증한다.
type JWTManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewJWTManager 는 시크릿/issuer 로 JWTManager 를 생성한다.
// issuer 가 비어 있으면 "blog-system" 을 사용한다.
func NewJWTManager(secret, issuer string) (*JWTManager, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if issuer == "" {
		issuer = "blog-system"
	}
	return &JWTManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    24 * time.Hour,
	}, nil
}

// Sign 은 userID 를 sub 클레임으로 담은 토큰을 발급한다.
func (m *JWTManager) Sign(userID string) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,
		"iss": m.issuer,
		"exp": time.Now().Add(m.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Parse 는 토큰을 검증하고 사용자 ID 를 돌려준다.
// sub 클레임이 없으면 기존 프론트엔드가 쓰던 {"user": {"id": ...}} 형태를 본다.
func (m *JWTManager) Parse(tokenString string) (string, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return "", fmt.Errorf("invalid token claims")
	}

	if sub, _ := claims["sub"].(string); sub != "" {
		return sub, nil
	}
	if user, ok := claims["user"].(map[string]interface{}); ok {
		if id, _ := user["id"].(string); id != "" {
			return id, nil
		}
	}
	return "", fmt.Errorf("token missing user identity")
}
