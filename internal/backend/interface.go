// Package backend builds the storage and event adapters selected by
// configuration.
package backend

import (
	"context"

	"budget/internal/events"
	"budget/internal/store"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult holds the adapters and the function releasing them.
type BackendResult struct {
	Store     store.KV
	Publisher events.Publisher
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type (
	StoreType  string
	EventsType string
)

const (
	MemoryStore   StoreType = "memory"
	FileStore     StoreType = "file"
	SQLiteStore   StoreType = "sqlite"
	PostgresStore StoreType = "postgres"
	SheetsStore   StoreType = "sheets"

	NoEvents    EventsType = "none"
	AMQPEvents  EventsType = "amqp"
	KafkaEvents EventsType = "kafka"
)

func (t StoreType) String() string  { return string(t) }
func (t EventsType) String() string { return string(t) }

func (t StoreType) IsValid() bool {
	switch t {
	case MemoryStore, FileStore, SQLiteStore, PostgresStore, SheetsStore:
		return true
	default:
		return false
	}
}

func (t EventsType) IsValid() bool {
	switch t {
	case NoEvents, AMQPEvents, KafkaEvents:
		return true
	default:
		return false
	}
}
