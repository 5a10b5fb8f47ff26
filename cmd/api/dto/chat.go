package dto

type ChatRequestDTO struct {
	Message string `json:"message" example:"고루틴과 스레드의 차이는?"`
	Model   string `json:"model" example:"gemini-2.5-flash"`
}

type ChatResponseDTO struct {
	Reply string `json:"reply"`
}
