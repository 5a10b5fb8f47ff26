package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post represents a blog entry owned by a single author
// Collection: posts
type Post struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title       string             `bson:"title" json:"title"`
	Content     string             `bson:"content" json:"content"`
	Author      string             `bson:"author" json:"author"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updatedAt"`
	IsMarkdown  bool               `bson:"is_markdown" json:"isMarkdown"`
	OnlyMe      bool               `bson:"only_me" json:"onlyMe"`
	Attachments []Attachment       `bson:"attachments" json:"attachments"`
}

// Attachment is a stored file referenced by a post.
// Path is a weak reference; the file itself is owned by the attachment store.
type Attachment struct {
	Filename string `bson:"filename" json:"filename"`
	Path     string `bson:"path" json:"path"`
}

// PostUpdate holds the fields overwritten by an update.
// NewAttachments are appended to the existing list, never replacing it.
type PostUpdate struct {
	Title          string
	Content        string
	IsMarkdown     bool
	OnlyMe         bool
	NewAttachments []Attachment
}
