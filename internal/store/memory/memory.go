package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"kharcha/internal/core"
	"kharcha/internal/store"
)

var _ store.Store = (*Store)(nil)

// Store keeps transactions and categories in process memory.
type Store struct {
	mu    sync.Mutex
	cats  []string
	items []core.Transaction
	now   func() time.Time
}

func New(cats ...string) *Store {
	return &Store{cats: dedupe(cats), now: time.Now}
}

// NewFromFiles seeds the category collection from base/seed_categories.txt,
// one name per line, falling back to the built-in list.
func NewFromFiles(base string) *Store {
	cats := readLines(filepath.Join(base, "seed_categories.txt"))
	if len(cats) == 0 {
		cats = core.BuiltinCategories
	}
	return New(cats...)
}

func (s *Store) Create(_ context.Context, t core.Transaction) (string, error) {
	t.Normalize()
	if err := t.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = uuid.NewString()
	t.CreatedAt = s.now()
	t.UpdatedAt = time.Time{}
	s.items = append(s.items, t)
	return t.ID, nil
}

func (s *Store) Get(_ context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.items[i], nil
	}
	return core.Transaction{}, &core.StoreReadError{Op: "get", Err: core.ErrNotFound}
}

func (s *Store) GetAll(_ context.Context) ([]core.Transaction, error) {
	return s.selectWhere(func(core.Transaction) bool { return true }), nil
}

func (s *Store) GetByPayer(_ context.Context, payer core.Payer) ([]core.Transaction, error) {
	return s.selectWhere(func(t core.Transaction) bool { return t.Payer == payer }), nil
}

func (s *Store) GetByCategory(_ context.Context, category string) ([]core.Transaction, error) {
	return s.selectWhere(func(t core.Transaction) bool { return t.Category == category }), nil
}

func (s *Store) GetByDateRange(_ context.Context, start, end time.Time) ([]core.Transaction, error) {
	return s.selectWhere(func(t core.Transaction) bool {
		return !t.Date.Before(start) && !t.Date.After(end)
	}), nil
}

func (s *Store) Update(_ context.Context, id string, patch core.TransactionPatch) error {
	patch.Normalize()
	if err := patch.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return &core.StoreWriteError{Op: "update", ID: id, Err: core.ErrNotFound}
	}
	t := patch.Apply(s.items[i])
	t.UpdatedAt = s.now()
	s.items[i] = t
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
	}
	return nil
}

func (s *Store) BatchCreate(_ context.Context, ts []core.Transaction) error {
	batch := make([]core.Transaction, 0, len(ts))
	for _, t := range ts {
		t.Normalize()
		if err := t.Validate(); err != nil {
			return err
		}
		batch = append(batch, t)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for i := range batch {
		batch[i].ID = uuid.NewString()
		batch[i].CreatedAt = now
		batch[i].UpdatedAt = time.Time{}
	}
	s.items = append(s.items, batch...)
	return nil
}

func (s *Store) InitializeCategories(_ context.Context, names []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cats = dedupe(append(s.cats, names...))
	return nil
}

func (s *Store) ListCategories(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.cats...), nil
}

func (s *Store) Close() error { return nil }

func (s *Store) indexOf(id string) int {
	for i, t := range s.items {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// selectWhere copies the matching items, most recent first.
func (s *Store) selectWhere(keep func(core.Transaction) bool) []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0, len(s.items))
	for _, t := range s.items {
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Date.After(out[b].Date) })
	return out
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return dedupe(out)
}

// dedupe drops blanks and repeats, preserving input order.
func dedupe(in []string) []string {
	set := core.NewCategorySet(in...)
	return set.Names()
}
