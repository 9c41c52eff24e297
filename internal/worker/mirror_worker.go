// Package worker applies transaction change events to the spreadsheet
// mirror.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"kharcha/internal/amqp"
	"kharcha/internal/core"
	"kharcha/internal/metrics"
	"kharcha/internal/sheets"
	"kharcha/internal/store"
)

type MirrorWorker struct {
	store   store.TransactionReader
	mirror  sheets.Mirror
	metrics *metrics.Metrics
}

// NewMirrorWorker reads current records from s and writes them to mirror.
// m may be nil.
func NewMirrorWorker(s store.TransactionReader, mirror sheets.Mirror, m *metrics.Metrics) *MirrorWorker {
	return &MirrorWorker{store: s, mirror: mirror, metrics: m}
}

// HandleChange is an amqp.Handler. A returned error requeues the message.
func (w *MirrorWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	slog.InfoContext(ctx, "Processing change message", "id", msg.ID, "op", msg.Op)

	var err error
	switch msg.Op {
	case amqp.OpCreate, amqp.OpUpdate:
		err = w.syncOne(ctx, msg.ID)
	case amqp.OpDelete:
		err = w.mirror.Remove(ctx, msg.ID)
		if err != nil {
			err = fmt.Errorf("remove %s from mirror: %w", msg.ID, err)
		}
	case amqp.OpResync:
		err = w.Resync(ctx)
	default:
		err = fmt.Errorf("unknown op %q", msg.Op)
	}

	w.metrics.ObserveMirror(string(msg.Op), err)
	return err
}

// syncOne copies the current state of id. A record deleted since the event
// was published is cleared from the mirror instead.
func (w *MirrorWorker) syncOne(ctx context.Context, id string) error {
	t, err := w.store.Get(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		slog.WarnContext(ctx, "Transaction gone before mirroring, clearing row", "id", id)
		return w.mirror.Remove(ctx, id)
	}
	if err != nil {
		return fmt.Errorf("get transaction %s: %w", id, err)
	}
	if err := w.mirror.Upsert(ctx, t); err != nil {
		return fmt.Errorf("mirror transaction %s: %w", id, err)
	}
	return nil
}

// Resync rewrites the mirror from the full collection. The worker runs it
// at startup to recover from events missed while it was down.
func (w *MirrorWorker) Resync(ctx context.Context) error {
	list, err := w.store.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("get transactions: %w", err)
	}
	if err := w.mirror.ReplaceAll(ctx, list); err != nil {
		return fmt.Errorf("replace mirror: %w", err)
	}
	slog.InfoContext(ctx, "Mirror resynced", "count", len(list))
	return nil
}
