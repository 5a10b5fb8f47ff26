package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"blog-system/config"
	"blog-system/models"
)

// S3Store 는 첨부파일을 S3 호환 버킷(MinIO 등)에 저장한다.
// Attachment.Path 는 디스크 저장소와 같은 "<PathPrefix(dir)>/<name>" 형태를 유지하고,
// 오브젝트 키는 name 이다.
type S3Store struct {
	dir    string
	bucket string
	client *minio.Client
	now    func() time.Time
}

func NewS3Store(dir string, cfg config.S3Config) (*S3Store, error) {
	cl, err := minio.New(strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "http://"), "https://"), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	return &S3Store{dir: dir, bucket: cfg.Bucket, client: cl, now: time.Now}, nil
}

func (s *S3Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !exists {
		return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	}
	return nil
}

func (s *S3Store) Store(ctx context.Context, up Upload) (models.Attachment, error) {
	name := GenerateName(up.Filename, s.now())
	size := up.Size
	if size <= 0 {
		size = -1
	}
	_, err := s.client.PutObject(ctx, s.bucket, name, up.Reader, size, minio.PutObjectOptions{
		ContentType: up.ContentType,
	})
	if err != nil {
		return models.Attachment{}, fmt.Errorf("put %s: %w", name, err)
	}
	return models.Attachment{
		Filename: up.Filename,
		Path:     attachmentPath(s.dir, name),
	}, nil
}

func (s *S3Store) Delete(ctx context.Context, att models.Attachment) error {
	name, err := storedName(s.dir, att.Path)
	if err != nil {
		return err
	}
	return s.client.RemoveObject(ctx, s.bucket, name, minio.RemoveObjectOptions{})
}

// PresignGet 은 저장 파일명에 대한 임시 다운로드 URL 을 만든다.
func (s *S3Store) PresignGet(ctx context.Context, name string, ttl time.Duration) (*url.URL, error) {
	return s.client.PresignedGetObject(ctx, s.bucket, name, ttl, nil)
}
