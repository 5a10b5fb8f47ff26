package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"blog-system/models"
)

// DiskStore 는 첨부파일을 로컬 디렉터리에 저장한다.
type DiskStore struct {
	dir string
	now func() time.Time
}

func NewDiskStore(dir string) *DiskStore {
	return &DiskStore{dir: dir, now: time.Now}
}

func (s *DiskStore) Dir() string { return s.dir }

// Store 는 업로드 내용을 새 파일명으로 기록한다. 디렉터리가 없으면 만든다.
// O_EXCL 로 생성하므로 이름이 겹치면 덮어쓰지 않고 실패한다.
func (s *DiskStore) Store(ctx context.Context, up Upload) (models.Attachment, error) {
	if err := ctx.Err(); err != nil {
		return models.Attachment{}, err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return models.Attachment{}, fmt.Errorf("create upload dir: %w", err)
	}

	name := GenerateName(up.Filename, s.now())
	full := filepath.Join(s.dir, name)
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return models.Attachment{}, fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := io.Copy(f, up.Reader); err != nil {
		f.Close()
		os.Remove(full)
		return models.Attachment{}, fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(full)
		return models.Attachment{}, fmt.Errorf("close %s: %w", name, err)
	}

	return models.Attachment{
		Filename: up.Filename,
		Path:     attachmentPath(s.dir, name),
	}, nil
}

// Delete 는 첨부파일을 삭제한다. 이미 없는 파일은 성공으로 본다.
func (s *DiskStore) Delete(ctx context.Context, att models.Attachment) error {
	name, err := storedName(s.dir, att.Path)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
