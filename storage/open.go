package storage

import (
	"context"
	"fmt"

	"blog-system/config"
	"blog-system/models"
)

// Backend 는 DiskStore 와 S3Store 의 공통 연산이다.
type Backend interface {
	Store(ctx context.Context, up Upload) (models.Attachment, error)
	Delete(ctx context.Context, att models.Attachment) error
}

// Open 은 설정된 백엔드("disk" 또는 "s3")의 저장소를 만든다.
// s3 일 때는 버킷이 없으면 생성한다.
func Open(ctx context.Context, cfg config.UploadsConfig) (Backend, error) {
	switch cfg.Backend {
	case "", "disk":
		return NewDiskStore(cfg.Dir), nil
	case "s3":
		s, err := NewS3Store(cfg.Dir, cfg.S3)
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("ensure bucket %s: %w", cfg.S3.Bucket, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown uploads backend %q", cfg.Backend)
	}
}
