package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog-system/config"
	"blog-system/models"
)

var generatedName = regexp.MustCompile(`^\d+-[0-9a-f]{8}(\.[a-z0-9]+)?$`)

func TestGenerateName(t *testing.T) {
	now := time.UnixMilli(1715590000123)

	name := GenerateName("Report.PDF", now)
	assert.True(t, strings.HasPrefix(name, "1715590000123-"))
	assert.True(t, strings.HasSuffix(name, ".pdf"))
	assert.Regexp(t, generatedName, name)

	assert.Regexp(t, generatedName, GenerateName("noext", now))
	assert.NotEqual(t, GenerateName("a.txt", now), GenerateName("a.txt", now))
}

func TestStoredName(t *testing.T) {
	testCases := []struct {
		name    string
		dir     string
		path    string
		want    string
		wantErr bool
	}{
		{name: "relative dir", dir: "uploads", path: "uploads/1-abc.png", want: "1-abc.png"},
		{name: "dir with trailing slash", dir: "uploads/", path: "uploads/1-abc.png", want: "1-abc.png"},
		{name: "other dir", dir: "uploads", path: "etc/passwd", wantErr: true},
		{name: "traversal", dir: "uploads", path: "uploads/../secret", wantErr: true},
		{name: "nested", dir: "uploads", path: "uploads/a/b", wantErr: true},
		{name: "dir only", dir: "uploads", path: "uploads/", wantErr: true},
		{name: "absolute dir uses last element", dir: "/var/data/uploads", path: "uploads/1-abc.png", want: "1-abc.png"},
		{name: "absolute server path", dir: "/var/data/uploads", path: "/var/data/uploads/1-abc.png", wantErr: true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			got, err := storedName(testCase.dir, testCase.path)
			if testCase.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPath)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testCase.want, got)
		})
	}
}

func TestPathPrefix(t *testing.T) {
	assert.Equal(t, "uploads", PathPrefix("uploads"))
	assert.Equal(t, "uploads", PathPrefix("uploads/"))
	assert.Equal(t, "files", PathPrefix("/var/data/files"))
	assert.Equal(t, "uploads", PathPrefix("."))
	assert.Equal(t, "uploads", PathPrefix("/"))
}

func TestDiskStoreAbsoluteDirKeepsPublicPath(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "media")
	store := NewDiskStore(dir)

	att, err := store.Store(context.Background(), Upload{Filename: "a.png", Reader: strings.NewReader("png")})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(att.Path, "media/"), att.Path)
	assert.NotContains(t, att.Path, filepath.ToSlash(t.TempDir()))

	name := strings.TrimPrefix(att.Path, "media/")
	_, err = os.Stat(filepath.Join(dir, name))
	require.NoError(t, err)

	require.NoError(t, store.Delete(context.Background(), att))
	_, err = os.Stat(filepath.Join(dir, name))
	assert.True(t, os.IsNotExist(err))
}

func TestDiskStoreStoreAndDelete(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	store := NewDiskStore(dir)

	att, err := store.Store(context.Background(), Upload{Filename: "hello.txt", Reader: strings.NewReader("hello world")})
	require.NoError(t, err)
	assert.Equal(t, "hello.txt", att.Filename)

	name, err := storedName(dir, att.Path)
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))

	require.NoError(t, store.Delete(context.Background(), att))
	_, err = os.Stat(filepath.Join(dir, name))
	assert.True(t, os.IsNotExist(err))

	// 이미 삭제된 파일은 다시 지워도 성공한다.
	assert.NoError(t, store.Delete(context.Background(), att))
}

func TestDiskStoreKeepsDistinctFilesForSameInstant(t *testing.T) {
	dir := t.TempDir()
	store := NewDiskStore(dir)
	fixed := time.UnixMilli(1700000000000)
	store.now = func() time.Time { return fixed }

	a, err := store.Store(context.Background(), Upload{Filename: "x.bin", Reader: bytes.NewReader([]byte{1})})
	require.NoError(t, err)
	b, err := store.Store(context.Background(), Upload{Filename: "x.bin", Reader: bytes.NewReader([]byte{2})})
	require.NoError(t, err)
	assert.NotEqual(t, a.Path, b.Path)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestDiskStoreDeleteRejectsForeignPath(t *testing.T) {
	store := NewDiskStore(t.TempDir())

	err := store.Delete(context.Background(), models.Attachment{Filename: "x", Path: "/etc/hosts"})
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestDiskStoreHonorsCancelledContext(t *testing.T) {
	store := NewDiskStore(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Store(ctx, Upload{Filename: "x.txt", Reader: strings.NewReader("x")})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpenSelectsBackend(t *testing.T) {
	dir := t.TempDir()

	b, err := Open(context.Background(), config.UploadsConfig{Dir: dir, Backend: "disk"})
	require.NoError(t, err)
	ds, ok := b.(*DiskStore)
	require.True(t, ok)
	assert.Equal(t, dir, ds.Dir())

	_, err = Open(context.Background(), config.UploadsConfig{Dir: dir, Backend: "ftp"})
	assert.Error(t, err)
}
