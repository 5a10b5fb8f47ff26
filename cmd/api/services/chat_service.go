package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"blog-system/chatbot"
	"blog-system/cmd/api/trace"
	"blog-system/internal/logger"
	"blog-system/metrics"
)

// ChatInput 은 채팅 요청 하나다.
type ChatInput struct {
	Message string
	Model   string
}

// ChatResult 는 응답 본문과 응답 헤더로 내보낼 토큰 사용량이다.
type ChatResult struct {
	Reply        string
	InputTokens  int32
	OutputTokens int32
	RequestID    string
}

// ChatService 는 허용된 모델에 한해 LLM 질의를 중계한다.
type ChatService struct {
	gen     chatbot.Generator
	models  map[string]struct{}
	log     logger.Logger
	metrics *metrics.Metrics
}

func NewChatService(gen chatbot.Generator, allowedModels []string, log logger.Logger, m *metrics.Metrics) *ChatService {
	set := make(map[string]struct{}, len(allowedModels))
	for _, name := range allowedModels {
		if name = strings.TrimSpace(name); name != "" {
			set[name] = struct{}{}
		}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ChatService{gen: gen, models: set, log: log, metrics: m}
}

func (s *ChatService) Chat(ctx context.Context, in ChatInput) (ChatResult, error) {
	if _, ok := s.models[in.Model]; !ok {
		return ChatResult{}, ErrInvalidModel
	}
	if strings.TrimSpace(in.Message) == "" {
		return ChatResult{}, ErrChatEmptyMessage
	}

	requestID, spanID := trace.NextSpanID(ctx)
	start := time.Now()
	reply, err := s.gen.Generate(ctx, in.Model, in.Message)
	fields := logger.Fields{
		"request_id": requestID,
		"span_id":    spanID,
		"model":      in.Model,
		"latency_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		fields["error"] = err.Error()
		logger.ErrorWithFields(s.log, "chat request failed", fields)
		switch {
		case errors.Is(err, chatbot.ErrUpstreamAuth):
			return ChatResult{}, ErrChatAuth
		case errors.Is(err, chatbot.ErrUpstreamRateLimited):
			return ChatResult{}, ErrChatRateLimited
		default:
			return ChatResult{}, ErrChatFailed
		}
	}

	fields["input_tokens"] = reply.InputTokens
	fields["output_tokens"] = reply.OutputTokens
	logger.InfoWithFields(s.log, "chat request completed", fields)
	s.metrics.AddChatTokens(in.Model, reply.InputTokens, reply.OutputTokens)

	id := reply.ResponseID
	if id == "" {
		id = requestID
	}
	return ChatResult{
		Reply:        reply.Text,
		InputTokens:  reply.InputTokens,
		OutputTokens: reply.OutputTokens,
		RequestID:    id,
	}, nil
}
