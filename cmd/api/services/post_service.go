package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"blog-system/cmd/api/dto"
	"blog-system/eventbus"
	"blog-system/events"
	"blog-system/internal/logger"
	"blog-system/metrics"
	"blog-system/models"
	"blog-system/parser"
	"blog-system/repositories"
	"blog-system/storage"
)

// DefaultMaxFiles 는 요청 하나에 허용되는 첨부파일 수다.
const DefaultMaxFiles = 5

const publishTimeout = 3 * time.Second

// PostRepository 는 PostService 가 사용하는 저장소 연산이다.
// *repositories.PostRepository 가 만족한다.
type PostRepository interface {
	Insert(ctx context.Context, p *models.Post) (*models.Post, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	FindByAuthor(ctx context.Context, author string) ([]models.Post, error)
	Update(ctx context.Context, id primitive.ObjectID, u models.PostUpdate) (*models.Post, error)
	DeleteByID(ctx context.Context, id primitive.ObjectID) error
}

// AttachmentStore 는 첨부파일 저장소다. *storage.DiskStore, *storage.S3Store 가 만족한다.
type AttachmentStore interface {
	Store(ctx context.Context, up storage.Upload) (models.Attachment, error)
	Delete(ctx context.Context, att models.Attachment) error
}

// PostInput 은 생성/수정 요청의 스칼라 필드다.
type PostInput struct {
	Title      string
	Content    string
	IsMarkdown bool
	OnlyMe     bool
}

// PostServiceDeps 는 PostService 생성에 필요한 의존성이다.
// Events, Logger 가 nil 이면 아무 것도 하지 않는 구현을 쓴다.
type PostServiceDeps struct {
	Repo     PostRepository
	Store    AttachmentStore
	Events   eventbus.Publisher
	Logger   logger.Logger
	Metrics  *metrics.Metrics
	MaxFiles int
}

// PostService 는 포스트 CRUD 와 첨부파일 수명주기를 담당한다.
// 모든 연산은 호출자(identity) 소유의 포스트로 범위가 제한된다.
type PostService struct {
	repo     PostRepository
	store    AttachmentStore
	events   eventbus.Publisher
	log      logger.Logger
	metrics  *metrics.Metrics
	maxFiles int
}

func NewPostService(d PostServiceDeps) *PostService {
	s := &PostService{
		repo:     d.Repo,
		store:    d.Store,
		events:   d.Events,
		log:      d.Logger,
		metrics:  d.Metrics,
		maxFiles: d.MaxFiles,
	}
	if s.events == nil {
		s.events = eventbus.NopPublisher{}
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if s.maxFiles <= 0 {
		s.maxFiles = DefaultMaxFiles
	}
	return s
}

// Create 는 업로드를 먼저 저장한 뒤 포스트를 삽입한다.
// 일부 파일만 저장된 뒤 실패해도 이미 저장된 파일은 되돌리지 않는다.
func (s *PostService) Create(ctx context.Context, identity string, in PostInput, uploads []storage.Upload) (*dto.PostDTO, error) {
	if err := s.checkFileCount(uploads); err != nil {
		return nil, err
	}
	if err := validate(in); err != nil {
		return nil, err
	}

	atts, err := s.storeAll(ctx, uploads)
	if err != nil {
		return nil, err
	}

	p, err := s.repo.Insert(ctx, &models.Post{
		Title:       in.Title,
		Content:     in.Content,
		Author:      identity,
		IsMarkdown:  in.IsMarkdown,
		OnlyMe:      in.OnlyMe,
		Attachments: atts,
	})
	if err != nil {
		s.logOrphans("insert failed", atts, err)
		return nil, fmt.Errorf("insert post: %w", err)
	}

	s.metrics.IncPostsCreated()
	s.publish(ctx, eventbus.TopicPostEvents, events.NewPostEvent(events.PostCreated, p))
	logger.InfoWithFields(s.log, "post created", logger.Fields{
		"post_id":     p.ID.Hex(),
		"author":      identity,
		"attachments": len(p.Attachments),
	})

	d := toPostDTO(p)
	return &d, nil
}

// List 는 identity 의 모든 포스트를 최신순으로 반환한다.
func (s *PostService) List(ctx context.Context, identity string) ([]dto.PostDTO, error) {
	posts, err := s.repo.FindByAuthor(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	out := make([]dto.PostDTO, 0, len(posts))
	for i := range posts {
		out = append(out, toPostDTO(&posts[i]))
	}
	return out, nil
}

// Get 은 존재하지 않는 포스트와 다른 사용자의 포스트를 구분하지 않고 ErrNotFound 를 반환한다.
func (s *PostService) Get(ctx context.Context, identity, postID string) (*dto.PostDTO, error) {
	p, err := s.load(ctx, postID)
	if err != nil {
		return nil, err
	}
	if p.Author != identity {
		return nil, ErrNotFound
	}
	d := toPostDTO(p)
	return &d, nil
}

// Update 는 스칼라 필드를 모두 덮어쓰고 새 업로드를 기존 첨부파일 뒤에 붙인다.
func (s *PostService) Update(ctx context.Context, identity, postID string, in PostInput, uploads []storage.Upload) (*dto.PostDTO, error) {
	current, err := s.load(ctx, postID)
	if err != nil {
		return nil, err
	}
	if current.Author != identity {
		return nil, ErrUnauthorized
	}
	if err := s.checkFileCount(uploads); err != nil {
		return nil, err
	}
	if err := validate(in); err != nil {
		return nil, err
	}

	atts, err := s.storeAll(ctx, uploads)
	if err != nil {
		return nil, err
	}

	p, err := s.repo.Update(ctx, current.ID, models.PostUpdate{
		Title:          in.Title,
		Content:        in.Content,
		IsMarkdown:     in.IsMarkdown,
		OnlyMe:         in.OnlyMe,
		NewAttachments: atts,
	})
	if err != nil {
		s.logOrphans("update failed", atts, err)
		if errors.Is(err, repositories.ErrPostNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update post: %w", err)
	}

	s.metrics.IncPostsUpdated()
	s.publish(ctx, eventbus.TopicPostEvents, events.NewPostEvent(events.PostUpdated, p))

	d := toPostDTO(p)
	return &d, nil
}

// Delete 는 첨부파일을 하나씩 지우고(실패는 기록만 한다) 포스트를 삭제한다.
func (s *PostService) Delete(ctx context.Context, identity, postID string) (*dto.MessageDTO, error) {
	p, err := s.load(ctx, postID)
	if err != nil {
		return nil, err
	}
	if p.Author != identity {
		return nil, ErrUnauthorized
	}

	for _, att := range p.Attachments {
		if err := s.store.Delete(ctx, att); err != nil {
			s.metrics.IncAttachmentDeleteFailures()
			logger.WarnWithFields(s.log, "attachment delete failed", logger.Fields{
				"post_id": p.ID.Hex(),
				"path":    att.Path,
				"error":   err.Error(),
			})
			s.publish(ctx, eventbus.TopicAttachmentCleanup, events.NewAttachmentCleanupRequested(p.ID, att, err))
		}
	}

	if err := s.repo.DeleteByID(ctx, p.ID); err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("delete post: %w", err)
	}

	s.metrics.IncPostsDeleted()
	s.publish(ctx, eventbus.TopicPostEvents, events.NewPostEvent(events.PostDeleted, p))
	logger.InfoWithFields(s.log, "post deleted", logger.Fields{"post_id": p.ID.Hex(), "author": identity})

	return &dto.MessageDTO{Msg: "Post removed"}, nil
}

// UploadStandalone 은 포스트와 무관하게 파일을 저장하고 핸들을 돌려준다.
func (s *PostService) UploadStandalone(ctx context.Context, identity string, uploads []storage.Upload) ([]dto.AttachmentDTO, error) {
	if len(uploads) == 0 {
		return nil, ErrNoFiles
	}
	if err := s.checkFileCount(uploads); err != nil {
		return nil, err
	}

	atts, err := s.storeAll(ctx, uploads)
	if err != nil {
		return nil, err
	}
	s.log.Debugf("standalone upload by %s: %d files", identity, len(atts))
	return toAttachmentDTOs(atts), nil
}

// load 는 잘못된 형식의 id 도 ErrNotFound 로 취급한다.
func (s *PostService) load(ctx context.Context, postID string) (*models.Post, error) {
	oid, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return nil, ErrNotFound
	}
	p, err := s.repo.FindByID(ctx, oid)
	if err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find post: %w", err)
	}
	return p, nil
}

func (s *PostService) checkFileCount(uploads []storage.Upload) error {
	if len(uploads) > s.maxFiles {
		return fmt.Errorf("%w: at most %d files allowed", ErrTooManyFiles, s.maxFiles)
	}
	return nil
}

// storeAll 은 업로드 순서대로 저장한다. 첫 실패에서 멈춘다.
func (s *PostService) storeAll(ctx context.Context, uploads []storage.Upload) ([]models.Attachment, error) {
	atts := make([]models.Attachment, 0, len(uploads))
	for _, up := range uploads {
		att, err := s.store.Store(ctx, up)
		if err != nil {
			s.logOrphans("store failed", atts, err)
			return nil, fmt.Errorf("%w: %s: %v", ErrStorage, up.Filename, err)
		}
		atts = append(atts, att)
	}
	s.metrics.AddAttachmentsStored(len(atts))
	return atts, nil
}

func (s *PostService) logOrphans(reason string, atts []models.Attachment, cause error) {
	if len(atts) == 0 {
		return
	}
	paths := make([]string, 0, len(atts))
	for _, a := range atts {
		paths = append(paths, a.Path)
	}
	logger.WarnWithFields(s.log, "stored attachments left unreferenced", logger.Fields{
		"reason": reason,
		"paths":  paths,
		"error":  cause.Error(),
	})
}

// publish 는 best-effort 다. 실패해도 요청 결과에 영향을 주지 않는다.
func (s *PostService) publish(ctx context.Context, topic eventbus.Topic, payload any) {
	var id string
	switch e := payload.(type) {
	case events.PostEvent:
		id = e.ID
	case events.AttachmentCleanupRequestedEvent:
		id = e.ID
	}
	evt, err := eventbus.NewJSONEvent(id, payload, 0)
	if err != nil {
		s.log.Errorf("failed to encode event for %s: %v", topic.Base(), err)
		return
	}
	pctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := s.events.Publish(pctx, topic.Base(), evt); err != nil {
		s.log.Errorf("failed to publish event to %s: %v", topic.Base(), err)
	}
}

func validate(in PostInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: Title is required", ErrValidation)
	}
	return nil
}

func toPostDTO(p *models.Post) dto.PostDTO {
	return dto.PostDTO{
		ID:          p.ID.Hex(),
		Title:       p.Title,
		Content:     p.Content,
		Author:      p.Author,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		IsMarkdown:  p.IsMarkdown,
		OnlyMe:      p.OnlyMe,
		Attachments: toAttachmentDTOs(p.Attachments),
		Excerpt:     parser.Excerpt(p.Content, p.IsMarkdown, parser.DefaultExcerptRunes),
	}
}

func toAttachmentDTOs(atts []models.Attachment) []dto.AttachmentDTO {
	out := make([]dto.AttachmentDTO, 0, len(atts))
	for _, a := range atts {
		out = append(out, dto.AttachmentDTO{Filename: a.Filename, Path: a.Path})
	}
	return out
}
