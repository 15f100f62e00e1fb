package dto

import "time"

// DashboardDateLayout formats submission dates as dd/mm/yyyy.
const DashboardDateLayout = "02/01/2006"

// DraftPreviewLength is the number of characters of a draft shown on the dashboard.
const DraftPreviewLength = 50

// DashboardResponse aggregates an owner's essays for the dashboard page.
type DashboardResponse struct {
	Summary DashboardSummary   `json:"sumario"`
	History []EssayHistoryItem `json:"historico"`
	Drafts  []DraftItem        `json:"rascunhos"`
}

// DashboardSummary holds the count and rounded averages over graded essays.
type DashboardSummary struct {
	Total    int64 `json:"total"`
	AvgFinal int   `json:"nota_media"`
	AvgC1    int   `json:"c1_media"`
	AvgC2    int   `json:"c2_media"`
	AvgC3    int   `json:"c3_media"`
	AvgC4    int   `json:"c4_media"`
	AvgC5    int   `json:"c5_media"`
}

// EssayHistoryItem is one graded essay in the dashboard history.
type EssayHistoryItem struct {
	ID          uint      `json:"redacao_id"`
	Topic       string    `json:"tema"`
	FinalScore  int       `json:"nota_final"`
	Date        string    `json:"data"`
	SubmittedAt time.Time `json:"data_submissao"`
}

// DraftItem is one draft in the dashboard listing.
type DraftItem struct {
	ID          uint      `json:"redacao_id"`
	Preview     string    `json:"texto"`
	Date        string    `json:"data"`
	SubmittedAt time.Time `json:"data_submissao"`
}
