package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	// EssayStatusDraft marks an essay saved without scores.
	EssayStatusDraft = "draft"
	// EssayStatusGraded marks an essay carrying a complete score set and feedback.
	EssayStatusGraded = "graded"
)

const (
	// MinCompetencyScore is the lowest score a single competency may receive.
	MinCompetencyScore = 0
	// MaxCompetencyScore is the highest score a single competency may receive.
	MaxCompetencyScore = 200
)

// ErrInconsistentEssay is returned when an essay row violates the draft/graded invariants.
var ErrInconsistentEssay = errors.New("inconsistent essay record")

// Grade is the score set of a graded essay.
type Grade struct {
	FinalScore int
	C1         int
	C2         int
	C3         int
	C4         int
	C5         int
	Feedback   string
}

// Competencies returns the five competency scores in order.
func (g Grade) Competencies() [5]int {
	return [5]int{g.C1, g.C2, g.C3, g.C4, g.C5}
}

// Sum adds the five competency scores.
func (g Grade) Sum() int {
	total := 0
	for _, score := range g.Competencies() {
		total += score
	}
	return total
}

// Validate checks competency bounds and that the final score equals their sum.
func (g Grade) Validate() error {
	for idx, score := range g.Competencies() {
		if score < MinCompetencyScore || score > MaxCompetencyScore {
			return fmt.Errorf("c%d score %d outside %d-%d", idx+1, score, MinCompetencyScore, MaxCompetencyScore)
		}
	}
	if g.FinalScore != g.Sum() {
		return fmt.Errorf("final score %d does not match competency sum %d", g.FinalScore, g.Sum())
	}
	return nil
}

// Essay is a persisted essay, either a draft or a graded submission.
type Essay struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	OwnerID      string            `gorm:"size:128;not null;index:idx_essays_owner_status" json:"owner_id"`
	Status       string            `gorm:"size:16;not null;index:idx_essays_owner_status" json:"status"`
	Topic        *string           `gorm:"size:255" json:"topic"`
	OriginalText string            `gorm:"type:text;not null" json:"original_text"`
	FinalScore   *int              `json:"final_score"`
	C1Score      *int              `gorm:"column:c1_score" json:"c1_score"`
	C2Score      *int              `gorm:"column:c2_score" json:"c2_score"`
	C3Score      *int              `gorm:"column:c3_score" json:"c3_score"`
	C4Score      *int              `gorm:"column:c4_score" json:"c4_score"`
	C5Score      *int              `gorm:"column:c5_score" json:"c5_score"`
	Feedback     *string           `gorm:"type:text" json:"feedback"`
	ScoringMeta  datatypes.JSONMap `json:"scoring_meta"`
	SubmittedAt  time.Time         `gorm:"autoCreateTime;not null;index" json:"submitted_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// NewDraft builds an unscored essay for the owner.
func NewDraft(ownerID, text string) Essay {
	return Essay{
		OwnerID:      ownerID,
		Status:       EssayStatusDraft,
		OriginalText: text,
	}
}

// NewGraded builds an essay carrying the given grade. The grade is not validated here; saving
// an inconsistent grade fails in BeforeSave.
func NewGraded(ownerID string, topic *string, text string, grade Grade) Essay {
	essay := Essay{
		OwnerID:      ownerID,
		Topic:        topic,
		OriginalText: text,
	}
	essay.ApplyGrade(grade)
	return essay
}

// ApplyGrade moves the essay into the graded state.
func (e *Essay) ApplyGrade(grade Grade) {
	e.Status = EssayStatusGraded
	e.FinalScore = intPtr(grade.FinalScore)
	e.C1Score = intPtr(grade.C1)
	e.C2Score = intPtr(grade.C2)
	e.C3Score = intPtr(grade.C3)
	e.C4Score = intPtr(grade.C4)
	e.C5Score = intPtr(grade.C5)
	feedback := grade.Feedback
	e.Feedback = &feedback
}

// IsGraded reports whether the essay has a final grade.
func (e Essay) IsGraded() bool {
	return e.Status == EssayStatusGraded
}

// Grade returns the score set of a graded essay. The boolean is false for drafts.
func (e Essay) Grade() (Grade, bool) {
	if !e.IsGraded() || !e.scoresComplete() {
		return Grade{}, false
	}
	return Grade{
		FinalScore: *e.FinalScore,
		C1:         *e.C1Score,
		C2:         *e.C2Score,
		C3:         *e.C3Score,
		C4:         *e.C4Score,
		C5:         *e.C5Score,
		Feedback:   *e.Feedback,
	}, true
}

// Validate enforces the draft/graded invariants of the row.
func (e Essay) Validate() error {
	if strings.TrimSpace(e.OwnerID) == "" {
		return fmt.Errorf("%w: owner is required", ErrInconsistentEssay)
	}

	switch e.Status {
	case EssayStatusDraft:
		if e.anyScorePresent() {
			return fmt.Errorf("%w: draft carries scores", ErrInconsistentEssay)
		}
	case EssayStatusGraded:
		grade, ok := e.Grade()
		if !ok {
			return fmt.Errorf("%w: graded essay missing scores or feedback", ErrInconsistentEssay)
		}
		if err := grade.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInconsistentEssay, err)
		}
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInconsistentEssay, e.Status)
	}

	return nil
}

// BeforeSave rejects rows that would break the draft/graded invariants.
func (e *Essay) BeforeSave(*gorm.DB) error {
	return e.Validate()
}

func (e Essay) scoresComplete() bool {
	return e.FinalScore != nil && e.C1Score != nil && e.C2Score != nil && e.C3Score != nil &&
		e.C4Score != nil && e.C5Score != nil && e.Feedback != nil
}

func (e Essay) anyScorePresent() bool {
	return e.FinalScore != nil || e.C1Score != nil || e.C2Score != nil || e.C3Score != nil ||
		e.C4Score != nil || e.C5Score != nil || e.Feedback != nil
}

func intPtr(v int) *int {
	return &v
}
