package dto

// MessageDTO 는 {"msg": "..."} 형태의 공통 응답이다. 포스트 API 의 오류 응답도 이 형식을 쓴다.
type MessageDTO struct {
	Msg string `json:"msg" example:"Post removed"`
}

// ErrorResponseDTO 는 채팅 API 의 오류 응답 형식이다.
type ErrorResponseDTO struct {
	Error string `json:"error" example:"Invalid model specified"`
}
