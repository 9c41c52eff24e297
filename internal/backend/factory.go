package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"kharcha/internal/amqp"
	"kharcha/internal/metrics"
	"kharcha/internal/services"
	"kharcha/internal/store"
	"kharcha/internal/store/firestore"
	"kharcha/internal/store/memory"
	"kharcha/internal/store/sqlite"
)

type DefaultFactory struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewFactory returns the standard factory. Both arguments may be nil.
func NewFactory(logger *slog.Logger, m *metrics.Metrics) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger, metrics: m}
}

// CreateBackend opens the store for config and wraps it in a
// services.TransactionService. A broker that cannot be reached is logged
// and the backend runs without change events.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Location == nil {
		config.Location = time.Local
	}

	raw, err := f.openStore(ctx, config)
	if err != nil {
		return nil, err
	}

	var publisher services.Publisher
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without change events", "error", err)
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			publisher = client
		}
	}

	svc := services.NewTransactionService(raw, publisher, f.metrics)
	f.logger.Info("Initialized backend",
		"type", config.Type,
		"location", config.Location.String(),
		"amqp_enabled", publisher != nil)

	return &BackendResult{Store: svc, Cleanup: svc.Close}, nil
}

func (f *DefaultFactory) openStore(ctx context.Context, config Config) (store.Store, error) {
	switch config.Type {
	case SQLiteBackend:
		s, err := sqlite.Open(config.SQLiteDBPath, config.Location)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.Info("Opened SQLite store", "db_path", config.SQLiteDBPath)
		return s, nil

	case FirestoreBackend:
		s, err := firestore.Open(ctx, config.FirestoreProjectID, config.GoogleCredentialsFile, config.Location)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Firestore store: %w", err)
		}
		return s, nil

	case MemoryBackend:
		dataDir := config.DataDirectory
		if dataDir == "" {
			dataDir = "data"
		}
		f.logger.Info("Initialized memory store", "data_directory", dataDir)
		return memory.NewFromFiles(dataDir), nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
