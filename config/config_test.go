package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaultsWithoutConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("MONGO_URI", "")
	t.Setenv("KAFKA_BOOTSTRAP_SERVERS", "")
	t.Setenv("PORT", "")
	t.Setenv("LOG_LEVEL", "")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":3000", c.Server.Addr)
	assert.Equal(t, "/api", c.Server.BasePath)
	assert.Equal(t, "uploads", c.Uploads.Dir)
	assert.Equal(t, 5, c.Uploads.MaxFiles)
	assert.Equal(t, "disk", c.Uploads.Backend)
	assert.Equal(t, "info", c.Logging.Level)
	assert.Equal(t, "s3cret", c.Auth.Secret)
	assert.Equal(t, "Respond concisely.", c.Chat.SystemInstruction)
	assert.EqualValues(t, 1024, c.Chat.MaxOutputTokens)
	assert.False(t, c.EventBus.Enabled())
}

func TestLoadReadsYamlAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	yml := `
logging:
  level: debug
server:
  addr: ":8080"
  base_path: /blog-system/api
uploads:
  dir: files
  max_files: 3
chat:
  models: [gemini-2.5-flash]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, CONFIG_FILE), []byte(yml), 0o644))
	sub := filepath.Join(dir, "nested", "deeper")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	t.Chdir(sub)

	t.Setenv("LOG_LEVEL", "")
	t.Setenv("PORT", "9999")
	t.Setenv("MONGO_URI", "mongodb://mongo:27017")
	t.Setenv("KAFKA_BOOTSTRAP_SERVERS", "kafka:9092")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", c.Logging.Level)
	assert.Equal(t, ":9999", c.Server.Addr)
	assert.Equal(t, "/blog-system/api", c.Server.BasePath)
	assert.Equal(t, "files", c.Uploads.Dir)
	assert.Equal(t, 3, c.Uploads.MaxFiles)
	assert.Equal(t, "mongodb://mongo:27017", c.Mongo.URI)
	assert.Equal(t, []string{"gemini-2.5-flash"}, c.Chat.Models)
	assert.True(t, c.EventBus.Enabled())
}

func TestLoadRejectsMalformedYaml(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, CONFIG_FILE), []byte("server: [unclosed"), 0o644))
	t.Chdir(dir)

	_, err := Load()
	assert.Error(t, err)
}
