package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/melhorenem-api/internal/dto"
	"github.com/noah-isme/melhorenem-api/internal/repository"
)

// DashboardService produces the per-owner summary, history and draft listings.
type DashboardService interface {
	BuildDashboard(ctx context.Context, ownerID string) (dto.DashboardResponse, bool, error)
}

type dashboardService struct {
	essays repository.EssayRepository
	cache  *DashboardCache
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewDashboardService builds the dashboard aggregator.
func NewDashboardService(essays repository.EssayRepository, cache *DashboardCache, logger zerolog.Logger) DashboardService {
	return &dashboardService{
		essays: essays,
		cache:  cache,
		tracer: otel.Tracer("github.com/noah-isme/melhorenem-api/internal/service/dashboard"),
		logger: logger.With().Str("component", "dashboard_service").Logger(),
	}
}

// BuildDashboard returns the owner's dashboard and whether it was served from cache. An owner
// without essays gets zeroed averages and empty lists.
func (s *dashboardService) BuildDashboard(ctx context.Context, ownerID string) (dto.DashboardResponse, bool, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return dto.DashboardResponse{}, false, ErrMissingOwner
	}

	if cached, ok := s.cache.Get(ctx, ownerID); ok {
		s.logger.Debug().Str("owner_id", ownerID).Msg("dashboard cache hit")
		return cached, true, nil
	}

	ctx, span := s.tracer.Start(ctx, "dashboard.build")
	defer span.End()

	summary, err := s.essays.SummarizeByOwner(ctx, ownerID)
	if err != nil {
		span.RecordError(err)
		return dto.DashboardResponse{}, false, fmt.Errorf("%w: summarize: %v", ErrPersistence, err)
	}

	history, err := s.essays.ListGradedByOwner(ctx, ownerID)
	if err != nil {
		span.RecordError(err)
		return dto.DashboardResponse{}, false, fmt.Errorf("%w: list graded: %v", ErrPersistence, err)
	}

	drafts, err := s.essays.ListDraftsByOwner(ctx, ownerID)
	if err != nil {
		span.RecordError(err)
		return dto.DashboardResponse{}, false, fmt.Errorf("%w: list drafts: %v", ErrPersistence, err)
	}

	response := dto.DashboardResponse{
		Summary: dto.DashboardSummary{
			Total:    summary.Count,
			AvgFinal: roundAverage(summary.AvgFinal),
			AvgC1:    roundAverage(summary.AvgC1),
			AvgC2:    roundAverage(summary.AvgC2),
			AvgC3:    roundAverage(summary.AvgC3),
			AvgC4:    roundAverage(summary.AvgC4),
			AvgC5:    roundAverage(summary.AvgC5),
		},
		History: make([]dto.EssayHistoryItem, 0, len(history)),
		Drafts:  make([]dto.DraftItem, 0, len(drafts)),
	}

	for _, row := range history {
		topic := dto.DefaultTopicLabel
		if row.Topic != nil && *row.Topic != "" {
			topic = *row.Topic
		}
		response.History = append(response.History, dto.EssayHistoryItem{
			ID:          row.ID,
			Topic:       topic,
			FinalScore:  row.FinalScore,
			Date:        row.SubmittedAt.UTC().Format(dto.DashboardDateLayout),
			SubmittedAt: row.SubmittedAt,
		})
	}

	for _, draft := range drafts {
		response.Drafts = append(response.Drafts, dto.DraftItem{
			ID:          draft.ID,
			Preview:     preview(draft.OriginalText, dto.DraftPreviewLength),
			Date:        draft.SubmittedAt.UTC().Format(dto.DashboardDateLayout),
			SubmittedAt: draft.SubmittedAt,
		})
	}

	s.cache.Set(ctx, ownerID, response)

	return response, false, nil
}

func roundAverage(value float64) int {
	if math.IsNaN(value) {
		return 0
	}
	return int(math.Round(value))
}

// preview returns the first limit characters of text, never splitting a multi-byte rune.
func preview(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
