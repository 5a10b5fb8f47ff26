package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"blog-system/models"
)

// EventType 이벤트 타입 정의
type EventType string

const (
	PostCreated                EventType = "post.created"
	PostUpdated                EventType = "post.updated"
	PostDeleted                EventType = "post.deleted"
	AttachmentCleanupRequested EventType = "attachment.cleanup_requested"
)

const (
	eventSource  = "blog-api"
	eventVersion = "1"
)

// BaseEvent 모든 이벤트의 기본 구조
type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Version   string    `json:"version"`
}

func newBase(t EventType) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      t,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
	}
}

// PostEvent 는 포스트 생성/수정/삭제 이벤트다. 본문(content)은 싣지 않는다.
type PostEvent struct {
	BaseEvent
	PostID          primitive.ObjectID `json:"post_id"`
	Author          string             `json:"author"`
	Title           string             `json:"title"`
	AttachmentCount int                `json:"attachment_count"`
}

func NewPostEvent(t EventType, p *models.Post) PostEvent {
	return PostEvent{
		BaseEvent:       newBase(t),
		PostID:          p.ID,
		Author:          p.Author,
		Title:           p.Title,
		AttachmentCount: len(p.Attachments),
	}
}

// AttachmentCleanupRequestedEvent 는 포스트 삭제 중 지우지 못한 첨부파일 정리 요청이다.
type AttachmentCleanupRequestedEvent struct {
	BaseEvent
	PostID     primitive.ObjectID `json:"post_id"`
	Attachment models.Attachment  `json:"attachment"`
	Reason     string             `json:"reason"`
}

func NewAttachmentCleanupRequested(postID primitive.ObjectID, att models.Attachment, cause error) AttachmentCleanupRequestedEvent {
	reason := ""
	if cause != nil {
		reason = cause.Error()
	}
	return AttachmentCleanupRequestedEvent{
		BaseEvent:  newBase(AttachmentCleanupRequested),
		PostID:     postID,
		Attachment: att,
		Reason:     reason,
	}
}

// PeekType 은 페이로드의 top-level type 필드만 읽는다.
func PeekType(payload []byte) (EventType, error) {
	var peek struct {
		Type EventType `json:"type"`
	}
	if err := json.Unmarshal(payload, &peek); err != nil {
		return "", fmt.Errorf("peek event type: %w", err)
	}
	return peek.Type, nil
}
