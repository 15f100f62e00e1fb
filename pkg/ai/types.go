package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrNotConfigured indicates the scorer is missing credentials or a known provider.
	ErrNotConfigured = errors.New("scoring oracle not configured")
	// ErrUpstreamFailure indicates the provider call failed or returned nothing usable.
	ErrUpstreamFailure = errors.New("scoring oracle request failed")
	// ErrMalformedResponse indicates the reply is not a valid score record.
	ErrMalformedResponse = errors.New("scoring oracle returned a malformed response")
	// ErrTimeout indicates the provider did not answer within the configured bound.
	ErrTimeout = errors.New("scoring oracle timed out")
)

// DefaultTimeout bounds a single scoring call when the configuration leaves it unset.
const DefaultTimeout = 30 * time.Second

// ScoreInput contains the essay to be graded.
type ScoreInput struct {
	Text  string
	Topic string
}

// ScoreResult is the validated grade returned by a provider.
type ScoreResult struct {
	FinalScore int                    `json:"nota_final"`
	C1         int                    `json:"c1_score"`
	C2         int                    `json:"c2_score"`
	C3         int                    `json:"c3_score"`
	C4         int                    `json:"c4_score"`
	C5         int                    `json:"c5_score"`
	Feedback   string                 `json:"feedback_detalhado"`
	Provider   string                 `json:"-"`
	Model      string                 `json:"-"`
	Usage      map[string]interface{} `json:"-"`
}

// Scorer grades essays against the ENEM competencies.
type Scorer interface {
	Score(ctx context.Context, input ScoreInput) (ScoreResult, error)
}

// Config selects and configures a scoring provider.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	Temperature float32
	Logger      zerolog.Logger
}

// NewScorer builds the scorer for cfg.Provider ("gemini" or "openai").
func NewScorer(ctx context.Context, cfg Config) (Scorer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "gemini", "":
		return NewGeminiScorer(ctx, GeminiConfig{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			BaseURL:     cfg.BaseURL,
			Timeout:     cfg.Timeout,
			Temperature: cfg.Temperature,
			Logger:      cfg.Logger,
		})
	case "openai":
		return NewOpenAIScorer(OpenAIConfig{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			BaseURL:     cfg.BaseURL,
			Timeout:     cfg.Timeout,
			Temperature: cfg.Temperature,
			Logger:      cfg.Logger,
		})
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrNotConfigured, cfg.Provider)
	}
}

// classifyCallError maps a provider transport error to the scoring taxonomy.
func classifyCallError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUpstreamFailure, err)
}

func resolveTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return DefaultTimeout
	}
	return timeout
}

func resolveLogger(logger zerolog.Logger) zerolog.Logger {
	if logger.GetLevel() == zerolog.Disabled {
		return zerolog.Nop()
	}
	return logger
}
