package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const ENV_FILE = ".env"
const CONFIG_FILE = "config.yaml"

type AppConfig struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Server   ServerConfig   `yaml:"server"`
	Mongo    MongoConfig    `yaml:"mongo"`
	Uploads  UploadsConfig  `yaml:"uploads"`
	Auth     AuthConfig     `yaml:"auth"`
	EventBus EventBusConfig `yaml:"eventbus"`
	Chat     ChatConfig     `yaml:"chat"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ServerConfig 는 API 서버의 listen 주소와 라우팅 관련 설정이다.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	BasePath       string   `yaml:"base_path"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

// UploadsConfig 는 첨부파일 저장소 설정이다.
// Backend 가 "s3" 이면 S3 설정을 사용하고, 그 외에는 로컬 디스크(Dir)에 저장한다.
type UploadsConfig struct {
	Dir      string   `yaml:"dir"`
	MaxFiles int      `yaml:"max_files"`
	Backend  string   `yaml:"backend"`
	S3       S3Config `yaml:"s3"`
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
	AccessKey string `yaml:"-"`
	SecretKey string `yaml:"-"`
}

// AuthConfig 의 Secret 은 yaml 에 두지 않고 JWT_SECRET 환경변수에서만 읽는다.
type AuthConfig struct {
	Issuer string `yaml:"issuer"`
	Secret string `yaml:"-"`
}

// EventBusConfig 는 Kafka 연동 설정이다. Brokers 가 비어 있으면 이벤트 발행을 하지 않는다.
type EventBusConfig struct {
	Brokers    string `yaml:"brokers"`
	GroupID    string `yaml:"group_id"`
	Partitions int    `yaml:"partitions"`
}

func (c EventBusConfig) Enabled() bool {
	return strings.TrimSpace(c.Brokers) != ""
}

// ChatConfig 는 채팅 프록시 설정이다.
type ChatConfig struct {
	Models            []string `yaml:"models"`
	SystemInstruction string   `yaml:"system_instruction"`
	MaxOutputTokens   int32    `yaml:"max_output_tokens"`
	RequestsPerMinute int      `yaml:"requests_per_minute"`
	Burst             int      `yaml:"burst"`
	APIKey            string   `yaml:"-"`
}

// Load 는 .env 와 config.yaml 을 읽어 AppConfig 를 만든다.
// 환경변수 값이 있으면 yaml 값을 덮어쓴다.
func Load() (AppConfig, error) {
	base := GetBasePath()

	// .env 는 선택 사항이다.
	_ = godotenv.Load(filepath.Join(base, ENV_FILE))

	var c AppConfig
	data, err := os.ReadFile(filepath.Join(base, CONFIG_FILE))
	if err == nil {
		if err := yaml.Unmarshal(data, &c); err != nil {
			return AppConfig{}, fmt.Errorf("parse %s: %w", CONFIG_FILE, err)
		}
	} else if !os.IsNotExist(err) {
		return AppConfig{}, fmt.Errorf("read %s: %w", CONFIG_FILE, err)
	}

	applyEnv(&c)
	applyDefaults(&c)
	return c, nil
}

func applyEnv(c *AppConfig) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		c.Mongo.URI = v
	}
	if v := os.Getenv("MONGO_DB_NAME"); v != "" {
		c.Mongo.Database = v
	}
	if v := os.Getenv("KAFKA_BOOTSTRAP_SERVERS"); v != "" {
		c.EventBus.Brokers = v
	}
	if v := os.Getenv("KAFKA_GROUP_ID"); v != "" {
		c.EventBus.GroupID = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Addr = ":" + v
	}
	c.Auth.Secret = os.Getenv("JWT_SECRET")
	if v := os.Getenv("JWT_ISSUER"); v != "" {
		c.Auth.Issuer = v
	}
	c.Uploads.S3.AccessKey = os.Getenv("S3_ACCESS_KEY")
	c.Uploads.S3.SecretKey = os.Getenv("S3_SECRET_KEY")
	c.Chat.APIKey = os.Getenv("GEMINI_API_KEY")
}

func applyDefaults(c *AppConfig) {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":3000"
	}
	if c.Server.BasePath == "" {
		c.Server.BasePath = "/api"
	}
	if c.Mongo.URI == "" {
		// local docker-compose 기본값
		c.Mongo.URI = "mongodb://localhost:27017"
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = "blog"
	}
	if c.Uploads.Dir == "" {
		c.Uploads.Dir = "uploads"
	}
	if c.Uploads.MaxFiles <= 0 {
		c.Uploads.MaxFiles = 5
	}
	if c.Uploads.Backend == "" {
		c.Uploads.Backend = "disk"
	}
	if c.EventBus.GroupID == "" {
		c.EventBus.GroupID = "blog-system"
	}
	if c.EventBus.Partitions <= 0 {
		c.EventBus.Partitions = 3
	}
	if c.Chat.SystemInstruction == "" {
		c.Chat.SystemInstruction = "Respond concisely."
	}
	if c.Chat.MaxOutputTokens <= 0 {
		c.Chat.MaxOutputTokens = 1024
	}
	if c.Chat.RequestsPerMinute <= 0 {
		c.Chat.RequestsPerMinute = 20
	}
	if c.Chat.Burst <= 0 {
		c.Chat.Burst = 5
	}
}

func GetBasePath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		cfgPath := filepath.Join(dir, CONFIG_FILE)
		if info, err := os.Stat(cfgPath); err == nil && !info.IsDir() {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
