// Package events publishes catalog change notifications to NATS.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Event is the envelope sent on every catalog.* subject.
type Event struct {
	EventID    string    `json:"event_id"`
	Kind       string    `json:"kind"`
	Entity     string    `json:"entity"`
	Action     string    `json:"action"`
	EntityID   string    `json:"entity_id"`
	Actor      string    `json:"actor,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Subject returns catalog.<kind>.<entity>.<action>.
func (e Event) Subject() string {
	return fmt.Sprintf("catalog.%s.%s.%s", e.Kind, e.Entity, e.Action)
}

// Conn is the subset of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subj string, data []byte) error
}

var _ Conn = (*nats.Conn)(nil)

// Publisher publishes events after a mutation has been committed.
// A nil pointer or a nil connection is a no-op.
type Publisher struct {
	conn Conn
	log  *zap.Logger
	now  func() time.Time
}

func New(conn Conn, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{conn: conn, log: log, now: time.Now}
}

// Publish never fails the caller; problems are logged as warnings.
func (p *Publisher) Publish(kind, entity, action, entityID, actor string) {
	if p == nil || p.conn == nil {
		return
	}
	ev := Event{
		EventID:    uuid.NewString(),
		Kind:       kind,
		Entity:     entity,
		Action:     action,
		EntityID:   entityID,
		Actor:      actor,
		OccurredAt: p.now().UTC(),
	}
	data, err := json.Marshal(ev)
	if err != nil {
		p.log.Warn("events: marshal failed", zap.String("subject", ev.Subject()), zap.Error(err))
		return
	}
	if err := p.conn.Publish(ev.Subject(), data); err != nil {
		p.log.Warn("events: publish failed", zap.String("subject", ev.Subject()), zap.Error(err))
	}
}
