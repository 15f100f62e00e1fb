package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	// EssayEventGraded is emitted after a graded essay is persisted.
	EssayEventGraded = "graded"
	// EssayEventDraftSaved is emitted after a draft is persisted.
	EssayEventDraftSaved = "draft_saved"
)

// EssayEvent describes a completed essay write.
type EssayEvent struct {
	Type       string    `json:"type"`
	EssayID    uint      `json:"essay_id"`
	OwnerID    string    `json:"owner_id"`
	Status     string    `json:"status"`
	FinalScore *int      `json:"final_score,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EssayEventPublisher fans essay writes out to other consumers.
type EssayEventPublisher interface {
	Publish(ctx context.Context, event EssayEvent) error
}

type natsEssayPublisher struct {
	conn    *nats.Conn
	subject string
}

type noopEssayPublisher struct{}

// NewNATSEssayPublisher publishes events on "<subject>.<type>". A nil connection or empty subject
// yields a publisher that drops events.
func NewNATSEssayPublisher(conn *nats.Conn, subject string) EssayEventPublisher {
	if conn == nil || subject == "" {
		return noopEssayPublisher{}
	}
	return &natsEssayPublisher{conn: conn, subject: subject}
}

func (p *natsEssayPublisher) Publish(_ context.Context, event EssayEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.conn.Publish(p.subject+"."+event.Type, payload)
}

func (noopEssayPublisher) Publish(context.Context, EssayEvent) error {
	return nil
}
