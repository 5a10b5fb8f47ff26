package dto

import "time"

// PostDTO 는 포스트 응답 형식이다. 필드명은 프론트엔드 계약(camelCase, _id)을 따른다.
// Excerpt 는 본문에서 파생된 미리보기 텍스트로 저장되지 않는다.
type PostDTO struct {
	ID          string          `json:"_id" example:"665f1c2e9b1d4a3f8c2e1a7b"`
	Title       string          `json:"title" example:"첫 번째 글"`
	Content     string          `json:"content"`
	Author      string          `json:"author" example:"64b7f0c2a1e4d2b3c4d5e6f7"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	IsMarkdown  bool            `json:"isMarkdown"`
	OnlyMe      bool            `json:"onlyMe"`
	Attachments []AttachmentDTO `json:"attachments"`
	Excerpt     string          `json:"excerpt"`
}

type AttachmentDTO struct {
	Filename string `json:"filename" example:"diagram.png"`
	Path     string `json:"path" example:"uploads/1715590000123-3f2a9c1d.png"`
}
