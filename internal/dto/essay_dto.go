package dto

import (
	"time"

	"github.com/noah-isme/melhorenem-api/internal/models"
)

// DefaultTopicLabel is shown for graded essays submitted without a topic.
const DefaultTopicLabel = "Tema não especificado"

// GradeEssayRequest is the payload accepted by the grading endpoint.
type GradeEssayRequest struct {
	Text    string `json:"redacao"`
	Topic   string `json:"tema" validate:"max=255"`
	UserID  string `json:"userId" validate:"max=128"`
	DraftID *uint  `json:"rascunhoId,omitempty" validate:"omitempty,gt=0"`
}

// GradeEssayResponse mirrors the fields the frontend renders after grading.
type GradeEssayResponse struct {
	ID         uint   `json:"id"`
	FinalScore int    `json:"nota_final"`
	C1Score    int    `json:"c1_score"`
	C2Score    int    `json:"c2_score"`
	C3Score    int    `json:"c3_score"`
	C4Score    int    `json:"c4_score"`
	C5Score    int    `json:"c5_score"`
	Feedback   string `json:"feedback_detalhado"`
}

// SaveDraftRequest is the payload accepted by the draft endpoint.
type SaveDraftRequest struct {
	Text   string `json:"redacao"`
	UserID string `json:"userId" validate:"max=128"`
}

// SaveDraftResponse acknowledges a stored draft.
type SaveDraftResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      uint   `json:"id"`
}

// EssayDetailResponse is the full essay record, keyed like the REDACOES columns the frontend reads.
type EssayDetailResponse struct {
	ID          uint      `json:"redacao_id"`
	OwnerID     string    `json:"usuario_id"`
	Status      string    `json:"status"`
	IsDraft     bool      `json:"is_rascunho"`
	Topic       *string   `json:"tema"`
	Text        string    `json:"texto_original"`
	FinalScore  *int      `json:"nota_final"`
	C1Score     *int      `json:"c1_score"`
	C2Score     *int      `json:"c2_score"`
	C3Score     *int      `json:"c3_score"`
	C4Score     *int      `json:"c4_score"`
	C5Score     *int      `json:"c5_score"`
	Feedback    *string   `json:"feedback_detalhado"`
	SubmittedAt time.Time `json:"data_submissao"`
}

// NewGradeEssayResponse converts a graded essay into the grading response.
func NewGradeEssayResponse(essay models.Essay) GradeEssayResponse {
	grade, _ := essay.Grade()
	return GradeEssayResponse{
		ID:         essay.ID,
		FinalScore: grade.FinalScore,
		C1Score:    grade.C1,
		C2Score:    grade.C2,
		C3Score:    grade.C3,
		C4Score:    grade.C4,
		C5Score:    grade.C5,
		Feedback:   grade.Feedback,
	}
}

// NewEssayDetailResponse converts a stored essay into its detail representation.
func NewEssayDetailResponse(essay models.Essay) EssayDetailResponse {
	return EssayDetailResponse{
		ID:          essay.ID,
		OwnerID:     essay.OwnerID,
		Status:      essay.Status,
		IsDraft:     !essay.IsGraded(),
		Topic:       essay.Topic,
		Text:        essay.OriginalText,
		FinalScore:  essay.FinalScore,
		C1Score:     essay.C1Score,
		C2Score:     essay.C2Score,
		C3Score:     essay.C3Score,
		C4Score:     essay.C4Score,
		C5Score:     essay.C5Score,
		Feedback:    essay.Feedback,
		SubmittedAt: essay.SubmittedAt,
	}
}
