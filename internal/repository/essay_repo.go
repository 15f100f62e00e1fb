package repository

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/melhorenem-api/internal/models"
)

// EssayHistoryRow is a graded essay as listed on the dashboard.
type EssayHistoryRow struct {
	ID          uint
	Topic       *string
	FinalScore  int
	SubmittedAt time.Time
}

// EssaySummaryRow holds raw (unrounded) aggregates over an owner's graded essays.
type EssaySummaryRow struct {
	Count    int64   `gorm:"column:count"`
	AvgFinal float64 `gorm:"column:avg_final"`
	AvgC1    float64 `gorm:"column:avg_c1"`
	AvgC2    float64 `gorm:"column:avg_c2"`
	AvgC3    float64 `gorm:"column:avg_c3"`
	AvgC4    float64 `gorm:"column:avg_c4"`
	AvgC5    float64 `gorm:"column:avg_c5"`
}

// EssayRepository persists essays and answers the dashboard queries.
type EssayRepository interface {
	Create(ctx context.Context, essay *models.Essay) error
	GetByID(ctx context.Context, id uint) (models.Essay, error)
	GetByIDForOwner(ctx context.Context, id uint, ownerID string) (models.Essay, error)
	PromoteDraft(ctx context.Context, id uint, ownerID string, text string, topic *string, grade models.Grade, meta datatypes.JSONMap) (models.Essay, error)
	ListGradedByOwner(ctx context.Context, ownerID string) ([]EssayHistoryRow, error)
	ListDraftsByOwner(ctx context.Context, ownerID string) ([]models.Essay, error)
	SummarizeByOwner(ctx context.Context, ownerID string) (EssaySummaryRow, error)
	Count(ctx context.Context) (int64, error)
}

type essayRepository struct {
	db *gorm.DB
}

// NewEssayRepository instantiates the repository for either supported dialect.
func NewEssayRepository(db *gorm.DB) EssayRepository {
	return &essayRepository{db: db}
}

func (r *essayRepository) Create(ctx context.Context, essay *models.Essay) error {
	return r.db.WithContext(ctx).Create(essay).Error
}

func (r *essayRepository) GetByID(ctx context.Context, id uint) (models.Essay, error) {
	var essay models.Essay
	if err := r.db.WithContext(ctx).First(&essay, id).Error; err != nil {
		return models.Essay{}, err
	}
	return essay, nil
}

func (r *essayRepository) GetByIDForOwner(ctx context.Context, id uint, ownerID string) (models.Essay, error) {
	var essay models.Essay
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		First(&essay, id).Error; err != nil {
		return models.Essay{}, err
	}
	return essay, nil
}

// PromoteDraft grades an owner's draft in place. The update is guarded on the draft status so a
// concurrent promotion of the same draft affects at most one request.
func (r *essayRepository) PromoteDraft(ctx context.Context, id uint, ownerID string, text string, topic *string, grade models.Grade, meta datatypes.JSONMap) (models.Essay, error) {
	var promoted models.Essay
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var essay models.Essay
		if err := tx.Where("owner_id = ? AND status = ?", ownerID, models.EssayStatusDraft).
			First(&essay, id).Error; err != nil {
			return err
		}

		essay.OriginalText = text
		essay.Topic = topic
		essay.ScoringMeta = meta
		essay.ApplyGrade(grade)

		result := tx.Model(&essay).
			Where("status = ?", models.EssayStatusDraft).
			Select("status", "topic", "original_text", "final_score", "c1_score", "c2_score", "c3_score", "c4_score", "c5_score", "feedback", "scoring_meta").
			Updates(&essay)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		promoted = essay
		return nil
	})
	if err != nil {
		return models.Essay{}, err
	}
	return promoted, nil
}

func (r *essayRepository) ListGradedByOwner(ctx context.Context, ownerID string) ([]EssayHistoryRow, error) {
	rows := make([]EssayHistoryRow, 0)
	err := r.db.WithContext(ctx).
		Model(&models.Essay{}).
		Select("id", "topic", "final_score", "submitted_at").
		Where("owner_id = ? AND status = ?", ownerID, models.EssayStatusGraded).
		Order("submitted_at DESC").
		Order("id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *essayRepository) ListDraftsByOwner(ctx context.Context, ownerID string) ([]models.Essay, error) {
	drafts := make([]models.Essay, 0)
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND status = ?", ownerID, models.EssayStatusDraft).
		Order("submitted_at DESC").
		Order("id DESC").
		Find(&drafts).Error
	if err != nil {
		return nil, err
	}
	return drafts, nil
}

func (r *essayRepository) SummarizeByOwner(ctx context.Context, ownerID string) (EssaySummaryRow, error) {
	var summary EssaySummaryRow
	err := r.db.WithContext(ctx).
		Model(&models.Essay{}).
		Select(`COUNT(*) AS count,
			COALESCE(AVG(final_score), 0) AS avg_final,
			COALESCE(AVG(c1_score), 0) AS avg_c1,
			COALESCE(AVG(c2_score), 0) AS avg_c2,
			COALESCE(AVG(c3_score), 0) AS avg_c3,
			COALESCE(AVG(c4_score), 0) AS avg_c4,
			COALESCE(AVG(c5_score), 0) AS avg_c5`).
		Where("owner_id = ? AND status = ?", ownerID, models.EssayStatusGraded).
		Scan(&summary).Error
	if err != nil {
		return EssaySummaryRow{}, err
	}
	return summary, nil
}

func (r *essayRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Essay{}).Count(&count).Error
	return count, err
}
