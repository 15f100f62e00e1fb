package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"
)

const providerGemini = "gemini"

// GeminiConfig defines configuration options for the Gemini scorer.
type GeminiConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
	Logger      zerolog.Logger
}

// GeminiScorer implements Scorer with Google's Gemini API in JSON response mode.
type GeminiScorer struct {
	client *genai.Client
	cfg    GeminiConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewGeminiScorer creates a scorer backed by the Gemini API.
func NewGeminiScorer(ctx context.Context, cfg GeminiConfig) (*GeminiScorer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: gemini api key is required", ErrNotConfigured)
	}

	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}

	cfg.Timeout = resolveTimeout(cfg.Timeout)

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: create gemini client: %v", ErrNotConfigured, err)
	}

	return &GeminiScorer{
		client: client,
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/melhorenem-api/pkg/ai/gemini"),
		logger: resolveLogger(cfg.Logger).With().Str("component", "gemini_scorer").Logger(),
	}, nil
}

// Score asks Gemini for a grade constrained by the response schema and validates the reply.
func (s *GeminiScorer) Score(parent context.Context, input ScoreInput) (ScoreResult, error) {
	spanCtx, span := s.tracer.Start(parent, "gemini.score", trace.WithAttributes(
		attribute.String("model", s.cfg.Model),
		attribute.Int("essay.length", len([]rune(input.Text))),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(spanCtx, s.cfg.Timeout)
	defer cancel()

	result, err := s.score(ctx, input)
	if err != nil {
		recordFailure(providerGemini, s.cfg.Model, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn().Err(err).Str("model", s.cfg.Model).Msg("essay scoring failed")
		return ScoreResult{}, err
	}

	return result, nil
}

func (s *GeminiScorer) score(ctx context.Context, input ScoreInput) (ScoreResult, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(graderSystemPrompt(), genai.RoleUser),
		Temperature:       genai.Ptr(s.cfg.Temperature),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    geminiResponseSchema(),
	}

	start := time.Now()
	resp, err := s.client.Models.GenerateContent(ctx, s.cfg.Model, genai.Text(buildUserPrompt(input)), config)
	scoringDuration.WithLabelValues(providerGemini, s.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		return ScoreResult{}, classifyCallError(ctx, err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return ScoreResult{}, fmt.Errorf("%w: no candidates returned from gemini", ErrUpstreamFailure)
	}

	result, err := parseScoreResponse(resp.Text())
	if err != nil {
		return ScoreResult{}, err
	}

	result.Provider = providerGemini
	result.Model = s.cfg.Model
	if usage := resp.UsageMetadata; usage != nil {
		result.Usage = map[string]interface{}{
			"prompt_tokens":     usage.PromptTokenCount,
			"completion_tokens": usage.CandidatesTokenCount,
			"total_tokens":      usage.TotalTokenCount,
		}
	}

	return result, nil
}

func geminiResponseSchema() *genai.Schema {
	properties := make(map[string]*genai.Schema, len(fieldNames))
	for _, name := range fieldNames {
		properties[name] = &genai.Schema{Type: genai.TypeInteger}
	}
	properties["feedback_detalhado"] = &genai.Schema{Type: genai.TypeString}

	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: properties,
		Required:   append([]string(nil), fieldNames...),
	}
}
