package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"blog-system/config"
)

// Connect 는 Mongo 클라이언트를 생성하고 ping 으로 연결을 확인한 뒤 인덱스를 보장한다.
// 반환된 클라이언트의 Disconnect 는 호출자가 책임진다.
func Connect(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cl, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, err
	}
	if err := cl.Ping(ctx, readpref.Primary()); err != nil {
		_ = cl.Disconnect(context.Background())
		return nil, nil, err
	}

	d := cl.Database(cfg.Database)
	if err := ensureIndexes(ctx, d); err != nil {
		_ = cl.Disconnect(context.Background())
		return nil, nil, err
	}
	return cl, d, nil
}

func ensureIndexes(ctx context.Context, d *mongo.Database) error {
	// posts: 작성자별 최신순 목록 조회
	if _, err := d.Collection("posts").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "author", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("idx_author_created_at_desc"),
	}); err != nil {
		return err
	}
	return nil
}
