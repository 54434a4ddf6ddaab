// Package events turns ledger mutations into messages for downstream
// consumers (AMQP, Kafka).
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"budget/internal/core"
	"budget/internal/ledger"
	"budget/internal/log"
)

const (
	TypeEntryAdded   = "entry.added"
	TypeEntryRemoved = "entry.removed"
)

// EntryPayload is the wire shape of an entry inside an Event.
type EntryPayload struct {
	ID       int64           `json:"id"`
	Label    string          `json:"label"`
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category"`
}

type Event struct {
	Type       string          `json:"type"`
	SessionID  string          `json:"session_id,omitempty"`
	Entry      EntryPayload    `json:"entry"`
	Balance    decimal.Decimal `json:"balance"`
	Saved      bool            `json:"saved"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Publisher delivers events to a broker.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func FromJSON(data []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(data, &e)
	return e, err
}

// FromChange builds the event describing c.
func FromChange(sessionID string, c ledger.Change, now time.Time) Event {
	typ := TypeEntryAdded
	if c.Kind == ledger.Removed {
		typ = TypeEntryRemoved
	}
	return Event{
		Type:       typ,
		SessionID:  sessionID,
		Entry:      payload(c.Entry),
		Balance:    c.Summary.Balance,
		Saved:      c.Saved,
		OccurredAt: now.UTC(),
	}
}

func payload(e core.Entry) EntryPayload {
	return EntryPayload{ID: e.ID, Label: e.Label, Amount: e.Amount, Category: e.Category.String()}
}

// Notifier returns a ledger observer publishing every change through pub.
// Publish failures are logged and otherwise ignored: the mutation has
// already happened.
func Notifier(pub Publisher, sessionID string, logger *log.Logger) ledger.Observer {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentEvents)
	return func(ctx context.Context, c ledger.Change) {
		ev := FromChange(sessionID, c, time.Now())
		if err := pub.Publish(ctx, ev); err != nil {
			logger.WarnContext(ctx, "Failed to publish ledger event",
				log.NewFields().WithOperation(log.OpPublish).WithSessionID(sessionID).
					WithError(err, log.ErrorTypeNetwork).ToSlice()...)
			return
		}
		logger.DebugContext(ctx, "Published ledger event", "type", ev.Type, log.FieldEntryID, ev.Entry.ID)
	}
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                          { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	Events []Event
	Err    error
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	if r.Err != nil {
		return r.Err
	}
	r.Events = append(r.Events, e)
	return nil
}

func (r *Recorder) Close() error { return nil }
