package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const providerOpenAI = "openai"

// OpenAIConfig defines configuration options for the OpenAI scorer.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
	Logger      zerolog.Logger
}

// OpenAIScorer implements Scorer against the OpenAI chat completion API using strict JSON Schema output.
type OpenAIScorer struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIScorer builds a new scorer using the provided configuration.
func NewOpenAIScorer(cfg OpenAIConfig) (*OpenAIScorer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: openai api key is required", ErrNotConfigured)
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1500
	}

	cfg.Timeout = resolveTimeout(cfg.Timeout)

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	return &OpenAIScorer{
		client: openai.NewClientWithConfig(config),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/melhorenem-api/pkg/ai/openai"),
		logger: resolveLogger(cfg.Logger).With().Str("component", "openai_scorer").Logger(),
	}, nil
}

// Score sends the grading request to OpenAI and validates the reply.
func (s *OpenAIScorer) Score(parent context.Context, input ScoreInput) (ScoreResult, error) {
	spanCtx, span := s.tracer.Start(parent, "openai.score", trace.WithAttributes(
		attribute.String("model", s.cfg.Model),
		attribute.Int("essay.length", len([]rune(input.Text))),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(spanCtx, s.cfg.Timeout)
	defer cancel()

	result, err := s.score(ctx, input)
	if err != nil {
		recordFailure(providerOpenAI, s.cfg.Model, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn().Err(err).Str("model", s.cfg.Model).Msg("essay scoring failed")
		return ScoreResult{}, err
	}

	return result, nil
}

func (s *OpenAIScorer) score(ctx context.Context, input ScoreInput) (ScoreResult, error) {
	request := openai.ChatCompletionRequest{
		Model:       s.cfg.Model,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: graderSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildUserPrompt(input),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "enem_essay_grade",
				Schema: providerSchema,
				Strict: true,
			},
		},
	}

	start := time.Now()
	resp, err := s.client.CreateChatCompletion(ctx, request)
	scoringDuration.WithLabelValues(providerOpenAI, s.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		return ScoreResult{}, classifyCallError(ctx, err)
	}

	if len(resp.Choices) == 0 {
		return ScoreResult{}, fmt.Errorf("%w: no choices returned from openai", ErrUpstreamFailure)
	}

	result, err := parseScoreResponse(resp.Choices[0].Message.Content)
	if err != nil {
		return ScoreResult{}, err
	}

	result.Provider = providerOpenAI
	result.Model = s.cfg.Model
	result.Usage = map[string]interface{}{
		"prompt_tokens":     resp.Usage.PromptTokens,
		"completion_tokens": resp.Usage.CompletionTokens,
		"total_tokens":      resp.Usage.TotalTokens,
	}

	return result, nil
}
