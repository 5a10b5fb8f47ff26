package chatbot

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/genai"
)

var (
	// ErrUpstreamAuth 는 LLM 제공자가 API 키를 거부했을 때 반환된다.
	ErrUpstreamAuth = errors.New("upstream authentication error")
	// ErrUpstreamRateLimited 는 LLM 제공자가 429 를 돌려줬을 때 반환된다.
	ErrUpstreamRateLimited = errors.New("upstream rate limit exceeded")
	// ErrEmptyReply 는 후보 응답이 비어 있을 때 반환된다.
	ErrEmptyReply = errors.New("empty reply from model")
)

// Reply 는 단일 질의에 대한 모델 응답과 토큰 사용량이다.
type Reply struct {
	Text         string
	InputTokens  int32
	OutputTokens int32
	ResponseID   string
	ModelVersion string
}

// Generator 는 모델 이름과 사용자 메시지로 응답을 생성한다.
type Generator interface {
	Generate(ctx context.Context, model, message string) (Reply, error)
}

// Options 는 모든 요청에 공통으로 적용되는 생성 설정이다.
type Options struct {
	SystemInstruction string
	MaxOutputTokens   int32
	Temperature       float32
}

// GeminiGenerator 는 google.golang.org/genai 클라이언트로 Generator 를 구현한다.
type GeminiGenerator struct {
	client *genai.Client
	opts   Options
}

func NewGeminiGenerator(ctx context.Context, apiKey string, opts Options) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiGenerator{client: client, opts: opts}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, model, message string) (Reply, error) {
	result, err := g.client.Models.GenerateContent(ctx, model, genai.Text(message), g.contentConfig())
	if err != nil {
		return Reply{}, classify(err)
	}

	text := result.Text()
	if text == "" {
		return Reply{}, ErrEmptyReply
	}

	reply := Reply{
		Text:         text,
		ResponseID:   result.ResponseID,
		ModelVersion: result.ModelVersion,
	}
	if result.UsageMetadata != nil {
		reply.InputTokens = result.UsageMetadata.PromptTokenCount
		reply.OutputTokens = result.UsageMetadata.CandidatesTokenCount
	}
	return reply, nil
}

func (g *GeminiGenerator) contentConfig() *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.opts.Temperature),
		MaxOutputTokens: g.opts.MaxOutputTokens,
	}
	if g.opts.SystemInstruction != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: g.opts.SystemInstruction}}}
	}
	return cfg
}

// classify 는 제공자 오류 코드를 패키지 sentinel 로 감싼다.
func classify(err error) error {
	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	}
	return classifyStatus(code, err)
}

func classifyStatus(code int, err error) error {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.Join(ErrUpstreamAuth, err)
	case http.StatusTooManyRequests:
		return errors.Join(ErrUpstreamRateLimited, err)
	default:
		return err
	}
}
