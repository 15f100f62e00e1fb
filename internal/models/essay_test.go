package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleGrade() Grade {
	return Grade{FinalScore: 600, C1: 120, C2: 120, C3: 120, C4: 120, C5: 120, Feedback: "ok"}
}

func TestNewDraftIsValidAndUngraded(t *testing.T) {
	draft := NewDraft("U1", "rascunho")

	require.NoError(t, draft.Validate())
	require.False(t, draft.IsGraded())
	_, ok := draft.Grade()
	require.False(t, ok)
}

func TestNewGradedRoundTripsGrade(t *testing.T) {
	topic := "Educação"
	essay := NewGraded("U1", &topic, "texto", sampleGrade())

	require.NoError(t, essay.Validate())
	require.True(t, essay.IsGraded())

	grade, ok := essay.Grade()
	require.True(t, ok)
	require.Equal(t, sampleGrade(), grade)
}

func TestValidateRejectsMismatchedFinalScore(t *testing.T) {
	grade := sampleGrade()
	grade.FinalScore = 999

	essay := NewGraded("U1", nil, "texto", grade)
	err := essay.Validate()
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInconsistentEssay))
}

func TestValidateRejectsOutOfRangeCompetency(t *testing.T) {
	grade := Grade{FinalScore: 840, C1: 240, C2: 200, C3: 200, C4: 200, C5: 0, Feedback: "x"}

	essay := NewGraded("U1", nil, "texto", grade)
	require.ErrorIs(t, essay.Validate(), ErrInconsistentEssay)
}

func TestValidateRejectsDraftWithScores(t *testing.T) {
	draft := NewDraft("U1", "texto")
	draft.FinalScore = intPtr(0)

	require.ErrorIs(t, draft.Validate(), ErrInconsistentEssay)
}

func TestValidateRejectsGradedWithoutFeedback(t *testing.T) {
	essay := NewGraded("U1", nil, "texto", sampleGrade())
	essay.Feedback = nil

	require.ErrorIs(t, essay.Validate(), ErrInconsistentEssay)
}

func TestValidateRequiresOwner(t *testing.T) {
	draft := NewDraft("  ", "texto")
	require.ErrorIs(t, draft.Validate(), ErrInconsistentEssay)
}
