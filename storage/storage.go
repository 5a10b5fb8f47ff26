package storage

import (
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidPath 는 첨부파일 경로가 업로드 디렉터리 밖을 가리킬 때 반환된다.
var ErrInvalidPath = errors.New("attachment path outside upload directory")

// Upload 는 저장할 업로드 파일 하나를 나타낸다.
// Reader 는 호출자가 닫는다.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// GenerateName 은 현재 시각(ms)과 짧은 uuid 로 저장 파일명을 만들고 원본 확장자를 붙인다.
// 예: 1715590000123-3f2a9c1d.png
func GenerateName(original string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(original)))
	if len(ext) > 16 {
		ext = ""
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%d-%s%s", now.UnixMilli(), suffix, ext)
}

// PathPrefix 는 Attachment.Path 와 정적 라우트에 쓰는 공개 경로 접두사다.
// 업로드 디렉터리의 마지막 요소만 쓰므로 절대 경로로 설정해도 서버 경로가 노출되지 않는다.
// 예: "/var/data/uploads" -> "uploads"
func PathPrefix(dir string) string {
	base := path.Base(path.Clean(filepath.ToSlash(dir)))
	if base == "." || base == "/" || base == ".." {
		return "uploads"
	}
	return base
}

// attachmentPath 는 저장 파일명을 Attachment.Path("<prefix>/<name>") 로 만든다.
func attachmentPath(dir, name string) string {
	return PathPrefix(dir) + "/" + name
}

// storedName 은 Attachment.Path("<prefix>/<name>") 에서 저장 파일명을 꺼낸다.
func storedName(dir, p string) (string, error) {
	clean := path.Clean(filepath.ToSlash(p))
	prefix := PathPrefix(dir) + "/"
	if !strings.HasPrefix(clean, prefix) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, p)
	}
	name := strings.TrimPrefix(clean, prefix)
	if name == "" || strings.Contains(name, "/") || name == ".." {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, p)
	}
	return name, nil
}
