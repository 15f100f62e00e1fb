package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/melhorenem-api/internal/dto"
	"github.com/noah-isme/melhorenem-api/internal/models"
	"github.com/noah-isme/melhorenem-api/internal/observability"
	"github.com/noah-isme/melhorenem-api/internal/repository"
	"github.com/noah-isme/melhorenem-api/pkg/ai"
)

var (
	// ErrMissingOwner indicates the request did not identify the essay owner.
	ErrMissingOwner = errors.New("user id is required")
	// ErrTextTooShort indicates the essay is below the grading minimum.
	ErrTextTooShort = errors.New("essay text is too short")
	// ErrEmptyText indicates a draft without any non-whitespace content.
	ErrEmptyText = errors.New("essay text is empty")
	// ErrEssayNotFound indicates the essay does not exist or is not visible to the caller.
	ErrEssayNotFound = errors.New("essay not found")
	// ErrPersistence indicates the essay store failed; a grade obtained before the failure is discarded.
	ErrPersistence = errors.New("failed to persist essay")
)

// DefaultMinGradingLength is the minimum number of characters accepted for grading.
const DefaultMinGradingLength = 50

// EssayService drives the draft and grading lifecycle of essays.
type EssayService interface {
	SubmitForGrading(ctx context.Context, payload dto.GradeEssayRequest) (dto.GradeEssayResponse, error)
	SaveDraft(ctx context.Context, payload dto.SaveDraftRequest) (dto.SaveDraftResponse, error)
	Get(ctx context.Context, id uint, ownerID string) (dto.EssayDetailResponse, error)
}

// EssayServiceConfig tunes validation and read scoping.
type EssayServiceConfig struct {
	MinGradingLength int
	// PublicRead lets Get return any essay by id regardless of owner.
	PublicRead bool
}

type essayService struct {
	essays    repository.EssayRepository
	scorer    ai.Scorer
	cache     *DashboardCache
	events    EssayEventPublisher
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	tracer    trace.Tracer
	logger    zerolog.Logger
	config    EssayServiceConfig
	now       func() time.Time
}

// NewEssayService constructs the essay lifecycle service.
func NewEssayService(essays repository.EssayRepository, scorer ai.Scorer, cache *DashboardCache, events EssayEventPublisher, validate *validator.Validate, logger zerolog.Logger, cfg EssayServiceConfig) EssayService {
	if cfg.MinGradingLength <= 0 {
		cfg.MinGradingLength = DefaultMinGradingLength
	}
	if events == nil {
		events = noopEssayPublisher{}
	}
	if validate == nil {
		validate = validator.New(validator.WithRequiredStructEnabled())
	}

	return &essayService{
		essays:    essays,
		scorer:    scorer,
		cache:     cache,
		events:    events,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		tracer:    otel.Tracer("github.com/noah-isme/melhorenem-api/internal/service/essay"),
		logger:    logger.With().Str("component", "essay_service").Logger(),
		config:    cfg,
		now:       time.Now,
	}
}

func (s *essayService) SubmitForGrading(ctx context.Context, payload dto.GradeEssayRequest) (dto.GradeEssayResponse, error) {
	ownerID := strings.TrimSpace(payload.UserID)
	if ownerID == "" {
		return dto.GradeEssayResponse{}, ErrMissingOwner
	}
	if length := utf8.RuneCountInString(strings.TrimSpace(payload.Text)); length < s.config.MinGradingLength {
		return dto.GradeEssayResponse{}, fmt.Errorf("%w: %d characters, minimum is %d", ErrTextTooShort, length, s.config.MinGradingLength)
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.GradeEssayResponse{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "essays.submit_for_grading", trace.WithAttributes(
		attribute.Bool("essay.promotes_draft", payload.DraftID != nil),
	))
	defer span.End()

	if payload.DraftID != nil {
		if _, err := s.ownedDraft(spanCtx, *payload.DraftID, ownerID); err != nil {
			span.RecordError(err)
			return dto.GradeEssayResponse{}, err
		}
	}

	topic := s.cleanTopic(payload.Topic)
	input := ai.ScoreInput{Text: payload.Text}
	if topic != nil {
		input.Topic = *topic
	}

	if s.scorer == nil {
		return dto.GradeEssayResponse{}, ai.ErrNotConfigured
	}

	result, err := s.scorer.Score(spanCtx, input)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return dto.GradeEssayResponse{}, err
	}

	grade := models.Grade{
		FinalScore: result.FinalScore,
		C1:         result.C1,
		C2:         result.C2,
		C3:         result.C3,
		C4:         result.C4,
		C5:         result.C5,
		Feedback:   s.sanitizer.Sanitize(result.Feedback),
	}
	meta := datatypes.JSONMap{
		"provider": result.Provider,
		"model":    result.Model,
	}
	if result.Usage != nil {
		meta["usage"] = result.Usage
	}

	var essay models.Essay
	if payload.DraftID != nil {
		essay, err = s.essays.PromoteDraft(spanCtx, *payload.DraftID, ownerID, payload.Text, topic, grade, meta)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GradeEssayResponse{}, ErrEssayNotFound
		}
	} else {
		essay = models.NewGraded(ownerID, topic, payload.Text, grade)
		essay.ScoringMeta = meta
		err = s.essays.Create(spanCtx, &essay)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error().Err(err).Str("owner_id", ownerID).Msg("graded essay could not be stored")
		return dto.GradeEssayResponse{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	observability.EssaysStored().WithLabelValues(models.EssayStatusGraded).Inc()
	s.afterWrite(spanCtx, EssayEventGraded, essay)

	s.logger.Info().
		Uint("essay_id", essay.ID).
		Str("owner_id", ownerID).
		Int("final_score", grade.FinalScore).
		Msg("essay graded")

	return dto.NewGradeEssayResponse(essay), nil
}

func (s *essayService) SaveDraft(ctx context.Context, payload dto.SaveDraftRequest) (dto.SaveDraftResponse, error) {
	ownerID := strings.TrimSpace(payload.UserID)
	if ownerID == "" {
		return dto.SaveDraftResponse{}, ErrMissingOwner
	}
	if strings.TrimSpace(payload.Text) == "" {
		return dto.SaveDraftResponse{}, ErrEmptyText
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.SaveDraftResponse{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "essays.save_draft")
	defer span.End()

	draft := models.NewDraft(ownerID, payload.Text)
	if err := s.essays.Create(spanCtx, &draft); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error().Err(err).Str("owner_id", ownerID).Msg("draft could not be stored")
		return dto.SaveDraftResponse{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	observability.EssaysStored().WithLabelValues(models.EssayStatusDraft).Inc()
	s.afterWrite(spanCtx, EssayEventDraftSaved, draft)

	return dto.SaveDraftResponse{Success: true, Message: "Rascunho salvo.", ID: draft.ID}, nil
}

func (s *essayService) Get(ctx context.Context, id uint, ownerID string) (dto.EssayDetailResponse, error) {
	ownerID = strings.TrimSpace(ownerID)

	var (
		essay models.Essay
		err   error
	)
	switch {
	case s.config.PublicRead:
		essay, err = s.essays.GetByID(ctx, id)
	case ownerID == "":
		return dto.EssayDetailResponse{}, ErrMissingOwner
	default:
		essay, err = s.essays.GetByIDForOwner(ctx, id, ownerID)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EssayDetailResponse{}, ErrEssayNotFound
		}
		return dto.EssayDetailResponse{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	return dto.NewEssayDetailResponse(essay), nil
}

// ownedDraft checks a promotion target before the oracle is called.
func (s *essayService) ownedDraft(ctx context.Context, id uint, ownerID string) (models.Essay, error) {
	essay, err := s.essays.GetByIDForOwner(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Essay{}, ErrEssayNotFound
		}
		return models.Essay{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if essay.IsGraded() {
		return models.Essay{}, ErrEssayNotFound
	}
	return essay, nil
}

func (s *essayService) cleanTopic(topic string) *string {
	cleaned := strings.TrimSpace(s.sanitizer.Sanitize(topic))
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

func (s *essayService) afterWrite(ctx context.Context, eventType string, essay models.Essay) {
	s.cache.Invalidate(ctx, essay.OwnerID)

	event := EssayEvent{
		Type:       eventType,
		EssayID:    essay.ID,
		OwnerID:    essay.OwnerID,
		Status:     essay.Status,
		FinalScore: essay.FinalScore,
		OccurredAt: s.now().UTC(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Uint("essay_id", essay.ID).Msg("failed to publish essay event")
	}
}
