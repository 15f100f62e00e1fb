package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/melhorenem-api/internal/dto"
	"github.com/noah-isme/melhorenem-api/internal/models"
	"github.com/noah-isme/melhorenem-api/internal/repository"
)

type failingSummaryRepo struct {
	repository.EssayRepository
}

func (failingSummaryRepo) SummarizeByOwner(context.Context, string) (repository.EssaySummaryRow, error) {
	return repository.EssaySummaryRow{}, errors.New("connection reset")
}

func seedGraded(t *testing.T, repo repository.EssayRepository, owner string, topic *string, scores [5]int, at time.Time) models.Essay {
	t.Helper()
	grade := models.Grade{C1: scores[0], C2: scores[1], C3: scores[2], C4: scores[3], C5: scores[4], Feedback: "feedback"}
	grade.FinalScore = grade.Sum()
	essay := models.NewGraded(owner, topic, strings.Repeat("texto ", 20), grade)
	essay.SubmittedAt = at
	require.NoError(t, repo.Create(context.Background(), &essay))
	return essay
}

func TestBuildDashboardForOwnerWithoutEssays(t *testing.T) {
	repo := repository.NewEssayRepository(setupServiceDB(t))
	svc := NewDashboardService(repo, nil, zerolog.Nop())

	response, hit, err := svc.BuildDashboard(context.Background(), "ninguem")
	require.NoError(t, err)
	require.False(t, hit)
	require.Equal(t, dto.DashboardSummary{}, response.Summary)
	require.NotNil(t, response.History)
	require.NotNil(t, response.Drafts)
	require.Empty(t, response.History)
	require.Empty(t, response.Drafts)
}

func TestBuildDashboardAggregatesGradedEssaysOnly(t *testing.T) {
	repo := repository.NewEssayRepository(setupServiceDB(t))
	svc := NewDashboardService(repo, nil, zerolog.Nop())
	ctx := context.Background()

	topic := "Educação"
	older := seedGraded(t, repo, "U1", &topic, [5]int{120, 120, 120, 120, 120}, time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC))
	newer := seedGraded(t, repo, "U1", nil, [5]int{160, 140, 120, 100, 80}, time.Date(2024, 3, 7, 23, 30, 0, 0, time.UTC))
	seedGraded(t, repo, "U2", nil, [5]int{0, 0, 0, 0, 0}, time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC))

	draft := models.NewDraft("U1", "rascunho")
	require.NoError(t, repo.Create(ctx, &draft))

	response, _, err := svc.BuildDashboard(ctx, "U1")
	require.NoError(t, err)

	require.Equal(t, dto.DashboardSummary{
		Total:    2,
		AvgFinal: 600,
		AvgC1:    140,
		AvgC2:    130,
		AvgC3:    120,
		AvgC4:    110,
		AvgC5:    100,
	}, response.Summary)

	require.Len(t, response.History, 2)
	require.Equal(t, newer.ID, response.History[0].ID)
	require.Equal(t, dto.DefaultTopicLabel, response.History[0].Topic)
	require.Equal(t, "07/03/2024", response.History[0].Date)
	require.Equal(t, older.ID, response.History[1].ID)
	require.Equal(t, "Educação", response.History[1].Topic)
	require.Equal(t, "05/03/2024", response.History[1].Date)

	require.Len(t, response.Drafts, 1)
	require.Equal(t, draft.ID, response.Drafts[0].ID)
}

func TestBuildDashboardRoundsAveragesHalfAwayFromZero(t *testing.T) {
	repo := repository.NewEssayRepository(setupServiceDB(t))
	svc := NewDashboardService(repo, nil, zerolog.Nop())
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	seedGraded(t, repo, "U1", nil, [5]int{120, 121, 100, 40, 0}, at)
	seedGraded(t, repo, "U1", nil, [5]int{121, 120, 100, 40, 0}, at.Add(time.Hour))
	seedGraded(t, repo, "U1", nil, [5]int{120, 120, 101, 41, 1}, at.Add(2*time.Hour))

	response, _, err := svc.BuildDashboard(context.Background(), "U1")
	require.NoError(t, err)
	require.Equal(t, int64(3), response.Summary.Total)
	// c1: 361/3 = 120.33, c3: 301/3 = 100.33, c4: 121/3 = 40.33, c5: 1/3 = 0.33
	require.Equal(t, 120, response.Summary.AvgC1)
	require.Equal(t, 100, response.Summary.AvgC3)
	require.Equal(t, 40, response.Summary.AvgC4)
	require.Equal(t, 0, response.Summary.AvgC5)
	// final: (381 + 381 + 383) / 3 = 381.67
	require.Equal(t, 382, response.Summary.AvgFinal)
}

func TestBuildDashboardTruncatesDraftPreviewByCharacter(t *testing.T) {
	repo := repository.NewEssayRepository(setupServiceDB(t))
	svc := NewDashboardService(repo, nil, zerolog.Nop())
	ctx := context.Background()

	long := strings.Repeat("ã", 80)
	draft := models.NewDraft("U1", long)
	require.NoError(t, repo.Create(ctx, &draft))

	response, _, err := svc.BuildDashboard(ctx, "U1")
	require.NoError(t, err)
	require.Len(t, response.Drafts, 1)
	require.Equal(t, strings.Repeat("ã", dto.DraftPreviewLength), response.Drafts[0].Preview)

	stored, err := repo.GetByID(ctx, draft.ID)
	require.NoError(t, err)
	require.Equal(t, long, stored.OriginalText)
}

func TestBuildDashboardRequiresOwner(t *testing.T) {
	svc := NewDashboardService(repository.NewEssayRepository(setupServiceDB(t)), nil, zerolog.Nop())

	_, _, err := svc.BuildDashboard(context.Background(), " ")
	require.ErrorIs(t, err, ErrMissingOwner)
}

func TestBuildDashboardWrapsStoreFailures(t *testing.T) {
	repo := failingSummaryRepo{EssayRepository: repository.NewEssayRepository(setupServiceDB(t))}
	svc := NewDashboardService(repo, nil, zerolog.Nop())

	_, _, err := svc.BuildDashboard(context.Background(), "U1")
	require.ErrorIs(t, err, ErrPersistence)
}

func TestPreviewKeepsShortTextIntact(t *testing.T) {
	require.Equal(t, "curto", preview("curto", 50))
	require.Equal(t, "ab", preview("abc", 2))
	require.Equal(t, "", preview("", 50))
}

func TestNATSPublisherWithoutConnectionDropsEvents(t *testing.T) {
	publisher := NewNATSEssayPublisher(nil, "melhorenem.essays")
	require.NoError(t, publisher.Publish(context.Background(), EssayEvent{Type: EssayEventGraded, EssayID: 1}))
}
