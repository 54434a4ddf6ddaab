package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"budget/internal/events"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublish(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{writer: w}
	ev := events.Event{
		Type:       events.TypeEntryRemoved,
		SessionID:  "s-1",
		Entry:      events.EntryPayload{ID: 3, Label: "Rent"},
		OccurredAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}

	if err := p.Publish(context.Background(), ev); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(w.msgs))
	}
	msg := w.msgs[0]
	if string(msg.Key) != "s-1" {
		t.Errorf("key = %q, want s-1", msg.Key)
	}
	if len(msg.Headers) != 1 || string(msg.Headers[0].Value) != events.TypeEntryRemoved {
		t.Errorf("unexpected headers %+v", msg.Headers)
	}
	back, err := events.FromJSON(msg.Value)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if back.Entry.ID != 3 || back.Type != events.TypeEntryRemoved {
		t.Errorf("unexpected payload %+v", back)
	}

	if err := p.Close(); err != nil || !w.closed {
		t.Errorf("Close() = %v, closed = %v", err, w.closed)
	}
}

func TestPublishError(t *testing.T) {
	boom := errors.New("leader not available")
	p := &Publisher{writer: &fakeWriter{err: boom}}
	err := p.Publish(context.Background(), events.Event{Type: events.TypeEntryAdded})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped writer error, got %v", err)
	}
}

func TestNewPublisherDefaultsTopic(t *testing.T) {
	p := NewPublisher([]string{"localhost:9092"}, "")
	w, ok := p.writer.(*kafka.Writer)
	if !ok || w.Topic != DefaultTopic {
		t.Fatalf("expected default topic %q", DefaultTopic)
	}
}
