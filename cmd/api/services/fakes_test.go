package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"blog-system/chatbot"
	"blog-system/eventbus"
	"blog-system/models"
	"blog-system/repositories"
	"blog-system/storage"
)

// memRepo 는 PostRepository 의 메모리 구현이다.
type memRepo struct {
	mu    sync.Mutex
	posts map[primitive.ObjectID]models.Post
	clock time.Time
	err   error
}

func newMemRepo() *memRepo {
	return &memRepo{
		posts: map[primitive.ObjectID]models.Post{},
		clock: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (r *memRepo) tick() time.Time {
	r.clock = r.clock.Add(time.Minute)
	return r.clock
}

func (r *memRepo) Insert(_ context.Context, p *models.Post) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	p.ID = primitive.NewObjectID()
	p.CreatedAt = r.tick()
	p.UpdatedAt = p.CreatedAt
	if p.Attachments == nil {
		p.Attachments = []models.Attachment{}
	}
	r.posts[p.ID] = clonePost(*p)
	return p, nil
}

func (r *memRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	p, ok := r.posts[id]
	if !ok {
		return nil, repositories.ErrPostNotFound
	}
	c := clonePost(p)
	return &c, nil
}

func (r *memRepo) FindByAuthor(_ context.Context, author string) ([]models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := []models.Post{}
	for _, p := range r.posts {
		if p.Author == author {
			out = append(out, clonePost(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memRepo) Update(_ context.Context, id primitive.ObjectID, u models.PostUpdate) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	p, ok := r.posts[id]
	if !ok {
		return nil, repositories.ErrPostNotFound
	}
	p.Title = u.Title
	p.Content = u.Content
	p.IsMarkdown = u.IsMarkdown
	p.OnlyMe = u.OnlyMe
	p.UpdatedAt = r.tick()
	p.Attachments = append(append([]models.Attachment{}, p.Attachments...), u.NewAttachments...)
	r.posts[id] = p
	c := clonePost(p)
	return &c, nil
}

func (r *memRepo) DeleteByID(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if _, ok := r.posts[id]; !ok {
		return repositories.ErrPostNotFound
	}
	delete(r.posts, id)
	return nil
}

func (r *memRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.posts)
}

func clonePost(p models.Post) models.Post {
	p.Attachments = append([]models.Attachment{}, p.Attachments...)
	return p
}

// memStore 는 저장된 파일 내용을 경로별로 보관한다.
type memStore struct {
	mu    sync.Mutex
	seq   int
	files map[string]string
}

func newMemStore() *memStore { return &memStore{files: map[string]string{}} }

func (s *memStore) Store(_ context.Context, up storage.Upload) (models.Attachment, error) {
	b, err := io.ReadAll(up.Reader)
	if err != nil {
		return models.Attachment{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	p := fmt.Sprintf("uploads/%d-%s", s.seq, up.Filename)
	s.files[p] = string(b)
	return models.Attachment{Filename: up.Filename, Path: p}, nil
}

func (s *memStore) Delete(_ context.Context, att models.Attachment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, att.Path)
	return nil
}

func (s *memStore) has(p string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files[p]
	return ok
}

// mockStore 는 실패 경로 검증용 testify mock 이다.
type mockStore struct {
	mock.Mock
}

func (m *mockStore) Store(ctx context.Context, up storage.Upload) (models.Attachment, error) {
	args := m.Called(ctx, up.Filename)
	return args.Get(0).(models.Attachment), args.Error(1)
}

func (m *mockStore) Delete(ctx context.Context, att models.Attachment) error {
	args := m.Called(ctx, att)
	return args.Error(0)
}

type publishedEvent struct {
	topic string
	event eventbus.Event
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, evt eventbus.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{topic: topic, event: evt})
	return p.err
}

func (p *recordingPublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.topic)
	}
	return out
}

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, model, message string) (chatbot.Reply, error) {
	args := m.Called(ctx, model, message)
	return args.Get(0).(chatbot.Reply), args.Error(1)
}

func upload(name, body string) storage.Upload {
	return storage.Upload{Filename: name, Size: int64(len(body)), Reader: strings.NewReader(body)}
}
