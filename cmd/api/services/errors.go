package services

import "errors"

// 핸들러는 errors.Is 로 아래 sentinel 을 HTTP 상태 코드에 매핑한다.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("Post not found")
	ErrUnauthorized = errors.New("User not authorized")
	ErrStorage      = errors.New("attachment storage failed")
	ErrNoFiles      = errors.New("No files uploaded")
	ErrTooManyFiles = errors.New("Too many files")

	ErrInvalidModel     = errors.New("Invalid model specified")
	ErrChatAuth         = errors.New("Authentication error")
	ErrChatRateLimited  = errors.New("Rate limit exceeded")
	ErrChatFailed       = errors.New("An error occurred while processing your request.")
	ErrChatEmptyMessage = errors.New("Message is required")
)
