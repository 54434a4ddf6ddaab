package backend

import (
	"context"
	"errors"
	"fmt"

	"budget/internal/amqp"
	"budget/internal/events"
	"budget/internal/kafka"
	"budget/internal/log"
	"budget/internal/store"
	"budget/internal/store/file"
	"budget/internal/store/memory"
	"budget/internal/store/postgres"
	"budget/internal/store/sheets"
	"budget/internal/store/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend implements Factory.CreateBackend. A store that cannot be
// opened is an error; an event broker that cannot be reached is logged and
// replaced by a no-op publisher.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	kv, err := f.createStore(ctx, config)
	if err != nil {
		return nil, err
	}
	pub := f.createPublisher(config)

	return &BackendResult{
		Store:     kv,
		Publisher: pub,
		Cleanup: func() error {
			return errors.Join(pub.Close(), kv.Close())
		},
	}, nil
}

func (f *DefaultFactory) createStore(ctx context.Context, config Config) (store.KV, error) {
	switch config.Store {
	case MemoryStore:
		f.logger.Warn("Using memory store, entries are lost on restart")
		return memory.New(), nil

	case FileStore:
		dir := config.DataDirectory
		if dir == "" {
			dir = "data"
		}
		s, err := file.New(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize file store: %w", err)
		}
		f.logger.Info("Initialized file store", "data_directory", dir)
		return s, nil

	case SQLiteStore:
		repo, err := sqlite.NewRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite store", "db_path", config.SQLiteDBPath)
		return repo, nil

	case PostgresStore:
		s, err := postgres.Open(ctx, config.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres store: %w", err)
		}
		f.logger.Info("Initialized postgres store")
		return s, nil

	case SheetsStore:
		cli, err := sheets.New(ctx, sheets.Config{
			SpreadsheetID:   config.GoogleSpreadsheetID,
			SheetName:       config.GoogleSheetName,
			CredentialsJSON: config.GoogleServiceAccountJSON,
			CredentialsFile: config.GoogleServiceAccountFile,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		f.logger.Info("Initialized Google Sheets store", "sheet", config.GoogleSheetName)
		return cli, nil

	default:
		return nil, fmt.Errorf("unsupported store backend: %s", config.Store)
	}
}

func (f *DefaultFactory) createPublisher(config Config) events.Publisher {
	switch config.Events {
	case AMQPEvents:
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events",
				log.FieldError, err.Error())
			return events.Nop{}
		}
		f.logger.Info("Initialized AMQP client",
			"exchange", config.AMQPExchange,
			"queue", config.AMQPQueue)
		return client

	case KafkaEvents:
		f.logger.Info("Initialized Kafka publisher", "brokers", config.KafkaBrokers, "topic", config.KafkaTopic)
		return kafka.NewPublisher(config.KafkaBrokers, config.KafkaTopic)

	default:
		return events.Nop{}
	}
}
