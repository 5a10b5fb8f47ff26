package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"blog-system/eventbus"
	"blog-system/events"
	"blog-system/models"
	"blog-system/storage"
)

type fixture struct {
	repo   *memRepo
	store  *memStore
	events *recordingPublisher
	svc    *PostService
}

func newFixture() *fixture {
	f := &fixture{repo: newMemRepo(), store: newMemStore(), events: &recordingPublisher{}}
	f.svc = NewPostService(PostServiceDeps{Repo: f.repo, Store: f.store, Events: f.events})
	return f
}

func (f *fixture) create(t *testing.T, author, title string, uploads ...storage.Upload) string {
	t.Helper()
	p, err := f.svc.Create(context.Background(), author, PostInput{Title: title, Content: "body"}, uploads)
	require.NoError(t, err)
	return p.ID
}

func TestPostServiceCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("stores uploads in order and sets author", func(t *testing.T) {
		f := newFixture()
		p, err := f.svc.Create(ctx, "user-a", PostInput{Title: "Hello", Content: "# Hi", IsMarkdown: true, OnlyMe: true},
			[]storage.Upload{upload("a.png", "A"), upload("b.txt", "B")})
		require.NoError(t, err)

		assert.NotEmpty(t, p.ID)
		assert.Equal(t, "user-a", p.Author)
		assert.True(t, p.IsMarkdown)
		assert.True(t, p.OnlyMe)
		assert.Equal(t, "Hi", p.Excerpt)
		require.Len(t, p.Attachments, 2)
		assert.Equal(t, "a.png", p.Attachments[0].Filename)
		assert.Equal(t, "b.txt", p.Attachments[1].Filename)
		assert.True(t, f.store.has(p.Attachments[0].Path))
		assert.Equal(t, []string{eventbus.TopicPostEvents.Base()}, f.events.topics())
	})

	t.Run("without uploads gives empty attachment list", func(t *testing.T) {
		f := newFixture()
		p, err := f.svc.Create(ctx, "user-a", PostInput{Title: "T"}, nil)
		require.NoError(t, err)
		assert.NotNil(t, p.Attachments)
		assert.Empty(t, p.Attachments)
	})

	t.Run("empty title is rejected", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Create(ctx, "user-a", PostInput{Title: "   ", Content: "x"}, nil)
		assert.ErrorIs(t, err, ErrValidation)
		assert.Zero(t, f.repo.count())
	})

	t.Run("more than five files is rejected before storing", func(t *testing.T) {
		f := newFixture()
		uploads := make([]storage.Upload, 6)
		for i := range uploads {
			uploads[i] = upload("f.txt", "x")
		}
		_, err := f.svc.Create(ctx, "user-a", PostInput{Title: "T"}, uploads)
		assert.ErrorIs(t, err, ErrTooManyFiles)
		assert.Empty(t, f.store.files)
	})

	t.Run("storage failure aborts without inserting", func(t *testing.T) {
		repo := newMemRepo()
		store := &mockStore{}
		store.On("Store", mock.Anything, "a.png").Return(models.Attachment{Filename: "a.png", Path: "uploads/1-a.png"}, nil)
		store.On("Store", mock.Anything, "b.png").Return(models.Attachment{}, errors.New("disk full"))
		svc := NewPostService(PostServiceDeps{Repo: repo, Store: store})

		_, err := svc.Create(ctx, "user-a", PostInput{Title: "T"}, []storage.Upload{upload("a.png", "A"), upload("b.png", "B")})
		assert.ErrorIs(t, err, ErrStorage)
		assert.Zero(t, repo.count())
		store.AssertExpectations(t)
	})

	t.Run("publish failure does not fail the request", func(t *testing.T) {
		f := newFixture()
		f.events.err = errors.New("broker down")
		_, err := f.svc.Create(ctx, "user-a", PostInput{Title: "T"}, nil)
		assert.NoError(t, err)
		assert.Equal(t, 1, f.repo.count())
	})
}

func TestPostServiceList(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.create(t, "user-a", "first")
	f.create(t, "user-b", "foreign")
	f.create(t, "user-a", "second")

	posts, err := f.svc.List(ctx, "user-a")
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "second", posts[0].Title)
	assert.Equal(t, "first", posts[1].Title)

	none, err := f.svc.List(ctx, "user-c")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestPostServiceGet(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	id := f.create(t, "user-a", "mine")

	p, err := f.svc.Get(ctx, "user-a", id)
	require.NoError(t, err)
	assert.Equal(t, "mine", p.Title)

	_, err = f.svc.Get(ctx, "user-b", id)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.Get(ctx, "user-a", primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.Get(ctx, "user-a", "not-an-object-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostServiceUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("overwrites fields and appends attachments", func(t *testing.T) {
		f := newFixture()
		id := f.create(t, "user-a", "old", upload("old.txt", "o"))

		p, err := f.svc.Update(ctx, "user-a", id, PostInput{Title: "new", Content: "", IsMarkdown: false, OnlyMe: true},
			[]storage.Upload{upload("new.txt", "n")})
		require.NoError(t, err)
		assert.Equal(t, "new", p.Title)
		assert.Empty(t, p.Content)
		assert.True(t, p.OnlyMe)
		require.Len(t, p.Attachments, 2)
		assert.Equal(t, "old.txt", p.Attachments[0].Filename)
		assert.Equal(t, "new.txt", p.Attachments[1].Filename)
		assert.True(t, p.UpdatedAt.After(p.CreatedAt))
		assert.Equal(t, "user-a", p.Author)
	})

	t.Run("two attachments plus one gives three in upload order", func(t *testing.T) {
		f := newFixture()
		id := f.create(t, "user-a", "old", upload("a.png", "A"), upload("b.png", "B"))

		p, err := f.svc.Update(ctx, "user-a", id, PostInput{Title: "old"}, []storage.Upload{upload("c.png", "C")})
		require.NoError(t, err)
		require.Len(t, p.Attachments, 3)
		assert.Equal(t, "a.png", p.Attachments[0].Filename)
		assert.Equal(t, "b.png", p.Attachments[1].Filename)
		assert.Equal(t, "c.png", p.Attachments[2].Filename)
		assert.Empty(t, p.Content)
		for _, att := range p.Attachments {
			assert.True(t, f.store.has(att.Path))
		}
	})

	t.Run("foreign post with too many files is unauthorized", func(t *testing.T) {
		f := newFixture()
		id := f.create(t, "user-a", "mine")
		uploads := make([]storage.Upload, 6)
		for i := range uploads {
			uploads[i] = upload("f.txt", "x")
		}

		_, err := f.svc.Update(ctx, "user-b", id, PostInput{Title: "hijack"}, uploads)
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.Empty(t, f.store.files)

		_, err = f.svc.Update(ctx, "user-a", id, PostInput{Title: "mine"}, uploads)
		assert.ErrorIs(t, err, ErrTooManyFiles)
		assert.Empty(t, f.store.files)
	})

	t.Run("foreign post is unauthorized", func(t *testing.T) {
		f := newFixture()
		id := f.create(t, "user-a", "mine")
		_, err := f.svc.Update(ctx, "user-b", id, PostInput{Title: "hijack"}, nil)
		assert.ErrorIs(t, err, ErrUnauthorized)

		p, err := f.svc.Get(ctx, "user-a", id)
		require.NoError(t, err)
		assert.Equal(t, "mine", p.Title)
	})

	t.Run("missing and malformed ids are not found", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Update(ctx, "user-a", primitive.NewObjectID().Hex(), PostInput{Title: "x"}, nil)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = f.svc.Update(ctx, "user-a", "zzz", PostInput{Title: "x"}, nil)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("empty title is rejected for owner", func(t *testing.T) {
		f := newFixture()
		id := f.create(t, "user-a", "mine")
		_, err := f.svc.Update(ctx, "user-a", id, PostInput{Title: ""}, nil)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("publishes post.updated", func(t *testing.T) {
		f := newFixture()
		id := f.create(t, "user-a", "mine")
		_, err := f.svc.Update(ctx, "user-a", id, PostInput{Title: "x"}, nil)
		require.NoError(t, err)

		require.Len(t, f.events.events, 2)
		evt, err := eventbus.DecodeJSON[events.PostEvent](f.events.events[1].event)
		require.NoError(t, err)
		assert.Equal(t, events.PostUpdated, evt.Type)
		assert.Equal(t, id, evt.PostID.Hex())
	})
}

func TestPostServiceDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("removes attachments and record", func(t *testing.T) {
		f := newFixture()
		id := f.create(t, "user-a", "bye", upload("a.txt", "a"), upload("b.txt", "b"))

		msg, err := f.svc.Delete(ctx, "user-a", id)
		require.NoError(t, err)
		assert.Equal(t, "Post removed", msg.Msg)
		assert.Empty(t, f.store.files)
		assert.Zero(t, f.repo.count())

		_, err = f.svc.Delete(ctx, "user-a", id)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("foreign post is unauthorized and kept", func(t *testing.T) {
		f := newFixture()
		id := f.create(t, "user-a", "mine")
		_, err := f.svc.Delete(ctx, "user-b", id)
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.Equal(t, 1, f.repo.count())
	})

	t.Run("attachment delete failure is reported but not fatal", func(t *testing.T) {
		repo := newMemRepo()
		pub := &recordingPublisher{}
		good := models.Attachment{Filename: "a.txt", Path: "uploads/1-a.txt"}
		bad := models.Attachment{Filename: "b.txt", Path: "uploads/2-b.txt"}
		p, err := repo.Insert(ctx, &models.Post{Title: "t", Author: "user-a", Attachments: []models.Attachment{good, bad}})
		require.NoError(t, err)

		store := &mockStore{}
		store.On("Delete", mock.Anything, good).Return(nil)
		store.On("Delete", mock.Anything, bad).Return(errors.New("permission denied"))
		svc := NewPostService(PostServiceDeps{Repo: repo, Store: store, Events: pub})

		msg, err := svc.Delete(ctx, "user-a", p.ID.Hex())
		require.NoError(t, err)
		assert.Equal(t, "Post removed", msg.Msg)
		assert.Zero(t, repo.count())
		store.AssertExpectations(t)

		assert.Equal(t, []string{eventbus.TopicAttachmentCleanup.Base(), eventbus.TopicPostEvents.Base()}, pub.topics())
		cleanup, err := eventbus.DecodeJSON[events.AttachmentCleanupRequestedEvent](pub.events[0].event)
		require.NoError(t, err)
		assert.Equal(t, bad, cleanup.Attachment)
		assert.Equal(t, "permission denied", cleanup.Reason)
	})
}

func TestPostServiceUploadStandalone(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	atts, err := f.svc.UploadStandalone(ctx, "user-a", []storage.Upload{upload("x.png", "x")})
	require.NoError(t, err)
	require.Len(t, atts, 1)
	assert.Equal(t, "x.png", atts[0].Filename)
	assert.True(t, f.store.has(atts[0].Path))
	assert.Zero(t, f.repo.count())

	_, err = f.svc.UploadStandalone(ctx, "user-a", nil)
	assert.ErrorIs(t, err, ErrNoFiles)

	six := make([]storage.Upload, 6)
	for i := range six {
		six[i] = upload("f", "x")
	}
	_, err = f.svc.UploadStandalone(ctx, "user-a", six)
	assert.ErrorIs(t, err, ErrTooManyFiles)
}
