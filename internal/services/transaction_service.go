// Package services layers change events and metrics over a store.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"kharcha/internal/amqp"
	"kharcha/internal/core"
	"kharcha/internal/metrics"
	"kharcha/internal/store"
)

// Publisher hands change events to the broker.
type Publisher interface {
	Publish(ctx context.Context, msg *amqp.ChangeMessage) error
	Close() error
}

var _ store.Store = (*TransactionService)(nil)

// TransactionService writes to the store first and then publishes a change
// event. A failed publish is logged and never fails the write.
type TransactionService struct {
	store     store.Store
	publisher Publisher
	metrics   *metrics.Metrics
}

// NewTransactionService wraps s. publisher and m may be nil.
func NewTransactionService(s store.Store, publisher Publisher, m *metrics.Metrics) *TransactionService {
	return &TransactionService{store: s, publisher: publisher, metrics: m}
}

func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (string, error) {
	start := time.Now()
	id, err := s.store.Create(ctx, t)
	s.metrics.ObserveStore("create", err, time.Since(start))
	if err != nil {
		return "", err
	}
	s.publish(ctx, id, amqp.OpCreate)
	return id, nil
}

func (s *TransactionService) Update(ctx context.Context, id string, patch core.TransactionPatch) error {
	start := time.Now()
	err := s.store.Update(ctx, id, patch)
	s.metrics.ObserveStore("update", err, time.Since(start))
	if err != nil {
		return err
	}
	s.publish(ctx, id, amqp.OpUpdate)
	return nil
}

func (s *TransactionService) Delete(ctx context.Context, id string) error {
	start := time.Now()
	err := s.store.Delete(ctx, id)
	s.metrics.ObserveStore("delete", err, time.Since(start))
	if err != nil {
		return err
	}
	s.publish(ctx, id, amqp.OpDelete)
	return nil
}

func (s *TransactionService) BatchCreate(ctx context.Context, ts []core.Transaction) error {
	start := time.Now()
	err := s.store.BatchCreate(ctx, ts)
	s.metrics.ObserveStore("batchCreate", err, time.Since(start))
	if err != nil {
		return err
	}
	if len(ts) > 0 {
		s.publish(ctx, "", amqp.OpResync)
	}
	return nil
}

func (s *TransactionService) Get(ctx context.Context, id string) (core.Transaction, error) {
	start := time.Now()
	t, err := s.store.Get(ctx, id)
	s.metrics.ObserveStore("get", err, time.Since(start))
	return t, err
}

func (s *TransactionService) GetAll(ctx context.Context) ([]core.Transaction, error) {
	return observeList(s, "getAll", func() ([]core.Transaction, error) { return s.store.GetAll(ctx) })
}

func (s *TransactionService) GetByPayer(ctx context.Context, payer core.Payer) ([]core.Transaction, error) {
	return observeList(s, "getByUser", func() ([]core.Transaction, error) { return s.store.GetByPayer(ctx, payer) })
}

func (s *TransactionService) GetByCategory(ctx context.Context, category string) ([]core.Transaction, error) {
	return observeList(s, "getByCategory", func() ([]core.Transaction, error) { return s.store.GetByCategory(ctx, category) })
}

func (s *TransactionService) GetByDateRange(ctx context.Context, start, end time.Time) ([]core.Transaction, error) {
	return observeList(s, "getByDateRange", func() ([]core.Transaction, error) { return s.store.GetByDateRange(ctx, start, end) })
}

func (s *TransactionService) InitializeCategories(ctx context.Context, names []string) error {
	start := time.Now()
	err := s.store.InitializeCategories(ctx, names)
	s.metrics.ObserveStore("initializeCategories", err, time.Since(start))
	return err
}

func (s *TransactionService) ListCategories(ctx context.Context) ([]string, error) {
	start := time.Now()
	names, err := s.store.ListCategories(ctx)
	s.metrics.ObserveStore("listCategories", err, time.Since(start))
	return names, err
}

func (s *TransactionService) publish(ctx context.Context, id string, op amqp.Op) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not configured, skipping change message", "id", id, "op", op)
		return
	}
	err := s.publisher.Publish(ctx, amqp.NewChangeMessage(id, op))
	s.metrics.ObservePublish(string(op), err)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to publish change message",
			"id", id,
			"op", op,
			"error", err)
	}
}

// Close closes the store and the publisher, reporting every failure.
func (s *TransactionService) Close() error {
	var errs []error
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close transaction service: %w", err)
	}
	return nil
}

func observeList(s *TransactionService, op string, read func() ([]core.Transaction, error)) ([]core.Transaction, error) {
	start := time.Now()
	list, err := read()
	s.metrics.ObserveStore(op, err, time.Since(start))
	return list, err
}
