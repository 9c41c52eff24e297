// Package ledger keeps one session's read cache of transactions in sync with
// the store. Every ledger belongs to exactly one session; nothing is shared
// between sessions.
package ledger

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"kharcha/internal/core"
	"kharcha/internal/report"
	"kharcha/internal/store"
)

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateFailed
)

const (
	msgFetchFailed  = "Failed to fetch transactions"
	msgAddFailed    = "Failed to add transaction"
	msgUpdateFailed = "Failed to update transaction"
	msgDeleteFailed = "Failed to delete transaction"
)

type (
	State int

	// Snapshot is the view handed to presentation code.
	Snapshot struct {
		State        State              `json:"state"`
		Transactions []core.Transaction `json:"transactions"`
		Loading      bool               `json:"loading"`
		Error        string             `json:"error,omitempty"`
	}

	Ledger struct {
		store store.Store

		// op serializes operations; mu guards the fields below so Snapshot
		// stays available while a fetch is in flight.
		op sync.Mutex

		mu        sync.RWMutex
		state     State
		loaded    bool
		items     []core.Transaction
		errMsg    string
		persisted []string
		custom    core.CategorySet
	}
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "error"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func New(s store.Store) *Ledger {
	return &Ledger{store: s}
}

// Load fetches every transaction and replaces the cache. On failure the
// ledger moves to StateFailed and keeps whatever it held before, which is
// nothing on first mount.
func (l *Ledger) Load(ctx context.Context) error {
	l.op.Lock()
	defer l.op.Unlock()
	return l.fetch(ctx)
}

// Refresh re-runs the full fetch to reconcile with writes made elsewhere.
func (l *Ledger) Refresh(ctx context.Context) error {
	return l.Load(ctx)
}

func (l *Ledger) fetch(ctx context.Context) error {
	l.mu.Lock()
	l.state = StateLoading
	l.errMsg = ""
	l.mu.Unlock()

	list, err := l.store.GetAll(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Error fetching transactions", "error", err)
		l.fail(msgFetchFailed)
		return err
	}

	cats, err := l.store.ListCategories(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Error fetching categories, using built-in list", "error", err)
		cats = nil
	}

	l.mu.Lock()
	l.items = list
	l.persisted = cats
	l.loaded = true
	l.state = StateReady
	l.mu.Unlock()
	return nil
}

// Add creates t in the store and prepends it to the cache with the id the
// store assigned. Validation failures are returned without touching state.
func (l *Ledger) Add(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.Normalize()
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	l.op.Lock()
	defer l.op.Unlock()
	l.clearError()

	id, err := l.store.Create(ctx, t)
	if err != nil {
		slog.ErrorContext(ctx, "Error adding transaction", "error", err)
		l.fail(msgAddFailed)
		return core.Transaction{}, err
	}
	t.ID = id

	l.mu.Lock()
	l.items = append([]core.Transaction{t}, l.items...)
	l.mu.Unlock()
	return t, nil
}

// AddBatch stores ts all-or-nothing and then reloads the cache so the ids
// the store assigned are visible. Only a failed store write is returned; a
// failed reload is left in the ledger state.
func (l *Ledger) AddBatch(ctx context.Context, ts []core.Transaction) error {
	batch := make([]core.Transaction, 0, len(ts))
	for _, t := range ts {
		t.Normalize()
		if err := t.Validate(); err != nil {
			return err
		}
		batch = append(batch, t)
	}

	l.op.Lock()
	defer l.op.Unlock()
	l.clearError()

	if err := l.store.BatchCreate(ctx, batch); err != nil {
		slog.ErrorContext(ctx, "Error adding transactions batch", "count", len(batch), "error", err)
		l.fail(msgAddFailed)
		return err
	}
	_ = l.fetch(ctx)
	return nil
}

// Get returns the cached copy of id, reading through to the store when the
// cache does not hold it. The cache is not modified.
func (l *Ledger) Get(ctx context.Context, id string) (core.Transaction, error) {
	l.mu.RLock()
	for _, t := range l.items {
		if t.ID == id {
			l.mu.RUnlock()
			return t, nil
		}
	}
	l.mu.RUnlock()
	return l.store.Get(ctx, id)
}

// Update merges patch into the stored record and then into the cached copy,
// if the ledger holds one.
func (l *Ledger) Update(ctx context.Context, id string, patch core.TransactionPatch) error {
	patch.Normalize()
	if err := patch.Validate(); err != nil {
		return err
	}

	l.op.Lock()
	defer l.op.Unlock()
	l.clearError()

	if err := l.store.Update(ctx, id, patch); err != nil {
		slog.ErrorContext(ctx, "Error updating transaction", "id", id, "error", err)
		l.fail(msgUpdateFailed)
		return err
	}

	l.mu.Lock()
	for i := range l.items {
		if l.items[i].ID == id {
			l.items[i] = patch.Apply(l.items[i])
		}
	}
	l.mu.Unlock()
	return nil
}

// Remove deletes id from the store and drops it from the cache. Removing an
// id the cache does not hold leaves the cache unchanged.
func (l *Ledger) Remove(ctx context.Context, id string) error {
	l.op.Lock()
	defer l.op.Unlock()
	l.clearError()

	if err := l.store.Delete(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Error deleting transaction", "id", id, "error", err)
		l.fail(msgDeleteFailed)
		return err
	}

	l.mu.Lock()
	l.items = slices.DeleteFunc(l.items, func(t core.Transaction) bool { return t.ID == id })
	l.mu.Unlock()
	return nil
}

func (l *Ledger) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return Snapshot{
		State:        l.state,
		Transactions: append(make([]core.Transaction, 0, len(l.items)), l.items...),
		Loading:      l.state == StateLoading,
		Error:        l.errMsg,
	}
}

// Transactions returns a copy of the cache.
func (l *Ledger) Transactions() []core.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.items)
}

// ByPayer filters the cache; "all" or an empty payer keeps everything.
func (l *Ledger) ByPayer(payer string) ([]core.Transaction, error) {
	return report.FilterByPayer(l.Transactions(), payer)
}

// Search reads straight from the store and leaves the cache alone.
func (l *Ledger) Search(ctx context.Context, f store.Filter) ([]core.Transaction, error) {
	return store.Search(ctx, l.store, f)
}

// AddCategory records user-defined categories for this session only. It
// reports how many were not already known.
func (l *Ledger) AddCategory(names ...string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	known := l.categories()
	added := 0
	for _, n := range names {
		if known.Add(n) == 1 {
			l.custom.Add(n)
			added++
		}
	}
	return added
}

// Categories lists the built-ins, then persisted categories, then session
// additions, then any other category found on cached transactions.
func (l *Ledger) Categories() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.categories().Names()
}

func (l *Ledger) categories() *core.CategorySet {
	set := core.NewCategorySet(core.BuiltinCategories...)
	set.Add(l.persisted...)
	set.Add(l.custom.Names()...)
	for _, t := range l.items {
		set.Add(t.Category)
	}
	return set
}

func (l *Ledger) clearError() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateFailed {
		return
	}
	l.errMsg = ""
	if l.loaded {
		l.state = StateReady
	} else {
		l.state = StateIdle
	}
}

func (l *Ledger) fail(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = StateFailed
	l.errMsg = msg
}
