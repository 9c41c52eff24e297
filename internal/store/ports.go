// Package store defines the persistence ports the ledger talks to. Each
// adapter translates between core.Transaction and its own representation
// of dates and amounts, and reports failures as core.StoreReadError or
// core.StoreWriteError.
package store

import (
	"context"
	"time"

	"kharcha/internal/core"
)

// Ports for outbound adapters.
type (
	TransactionReader interface {
		// Get returns one transaction; a missing id is a StoreReadError
		// wrapping core.ErrNotFound.
		Get(ctx context.Context, id string) (core.Transaction, error)

		// GetAll returns every transaction, most recent first.
		GetAll(ctx context.Context) ([]core.Transaction, error)

		GetByPayer(ctx context.Context, payer core.Payer) ([]core.Transaction, error)
		GetByCategory(ctx context.Context, category string) ([]core.Transaction, error)

		// GetByDateRange is inclusive on both ends.
		GetByDateRange(ctx context.Context, start, end time.Time) ([]core.Transaction, error)
	}

	TransactionWriter interface {
		// Create stores t, stamping its creation time, and returns the
		// id assigned by the store.
		Create(ctx context.Context, t core.Transaction) (string, error)

		// Update merges patch into the stored transaction and stamps its
		// modification time. A missing id fails with core.ErrNotFound.
		Update(ctx context.Context, id string, patch core.TransactionPatch) error

		// Delete removes id. Deleting an id that does not exist succeeds.
		Delete(ctx context.Context, id string) error

		// BatchCreate stores all of ts or none of them.
		BatchCreate(ctx context.Context, ts []core.Transaction) error
	}

	TransactionStore interface {
		TransactionReader
		TransactionWriter
	}

	CategoryStore interface {
		// InitializeCategories stores the given names in one batch.
		InitializeCategories(ctx context.Context, names []string) error
		ListCategories(ctx context.Context) ([]string, error)
	}

	// Store is what a backend provides.
	Store interface {
		TransactionStore
		CategoryStore
		Close() error
	}
)

// Filter selects transactions for a read-through search. Zero fields do
// not filter.
type Filter struct {
	Payer    core.Payer
	Category string
	From     time.Time
	To       time.Time
}

func (f Filter) IsZero() bool {
	return f.Payer == "" && f.Category == "" && f.From.IsZero() && f.To.IsZero()
}

// Matches reports whether t satisfies every set field of f.
func (f Filter) Matches(t core.Transaction) bool {
	if f.Payer != "" && t.Payer != f.Payer {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if !f.From.IsZero() && t.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && t.Date.After(f.To) {
		return false
	}
	return true
}

// Search runs f against r, using the most selective filtered read the
// port offers and applying the remaining fields in memory.
func Search(ctx context.Context, r TransactionReader, f Filter) ([]core.Transaction, error) {
	var (
		list []core.Transaction
		err  error
	)
	switch {
	case !f.From.IsZero() || !f.To.IsZero():
		from, to := f.From, f.To
		if to.IsZero() {
			to = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)
		}
		list, err = r.GetByDateRange(ctx, from, to)
	case f.Category != "":
		list, err = r.GetByCategory(ctx, f.Category)
	case f.Payer != "":
		list, err = r.GetByPayer(ctx, f.Payer)
	default:
		list, err = r.GetAll(ctx)
	}
	if err != nil {
		return nil, err
	}

	out := make([]core.Transaction, 0, len(list))
	for _, t := range list {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	return out, nil
}
