package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"blog-system/models"
)

// ErrPostNotFound 는 조건에 맞는 포스트 문서가 없을 때 반환된다.
var ErrPostNotFound = errors.New("post not found")

type PostRepository struct {
	col *mongo.Collection
}

func NewPostRepository(db *mongo.Database) *PostRepository {
	return &PostRepository{col: db.Collection("posts")}
}

// Insert inserts a new post and fills in its generated ID and timestamps.
func (r *PostRepository) Insert(ctx context.Context, p *models.Post) (*models.Post, error) {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = p.CreatedAt
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.Attachments == nil {
		p.Attachments = []models.Attachment{}
	}
	if _, err := r.col.InsertOne(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// FindByID returns a post by its ObjectID
func (r *PostRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var p models.Post
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindByAuthor returns every post of the author, newest first.
func (r *PostRepository) FindByAuthor(ctx context.Context, author string) ([]models.Post, error) {
	findOpts := options.Find().SetSort(bson.D{
		{Key: "created_at", Value: -1},
		{Key: "_id", Value: -1},
	})
	cur, err := r.col.Find(ctx, bson.M{"author": author}, findOpts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	results := []models.Post{}
	for cur.Next(ctx) {
		var p models.Post
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// Update overwrites the scalar fields and appends new attachments in a single
// document operation, returning the post as it is after the update.
func (r *PostRepository) Update(ctx context.Context, id primitive.ObjectID, u models.PostUpdate) (*models.Post, error) {
	update := bson.M{
		"$set": bson.M{
			"title":       u.Title,
			"content":     u.Content,
			"is_markdown": u.IsMarkdown,
			"only_me":     u.OnlyMe,
			"updated_at":  time.Now().UTC(),
		},
	}
	if len(u.NewAttachments) > 0 {
		update["$push"] = bson.M{
			"attachments": bson.M{"$each": u.NewAttachments},
		}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.Post
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &p, nil
}

// DeleteByID removes a post document.
func (r *PostRepository) DeleteByID(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrPostNotFound
	}
	return nil
}
