// Package memory is an in-process sheets.Mirror used when no spreadsheet is
// configured and in tests.
package memory

import (
	"context"
	"slices"
	"sync"

	"kharcha/internal/core"
	"kharcha/internal/sheets"
)

var _ sheets.Mirror = (*Mirror)(nil)

type Mirror struct {
	mu   sync.Mutex
	rows [][]string
}

func New() *Mirror {
	return &Mirror{}
}

func (m *Mirror) Upsert(_ context.Context, t core.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := sheets.RowFor(t)
	if i := m.indexOf(t.ID); i >= 0 {
		m.rows[i] = row
		return nil
	}
	m.rows = append(m.rows, row)
	return nil
}

func (m *Mirror) Remove(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.indexOf(id); i >= 0 {
		m.rows = slices.Delete(m.rows, i, i+1)
	}
	return nil
}

func (m *Mirror) ReplaceAll(_ context.Context, list []core.Transaction) error {
	rows := make([][]string, 0, len(list))
	for _, t := range list {
		rows = append(rows, sheets.RowFor(t))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = rows
	return nil
}

// Rows returns a copy of the mirrored rows, without the header.
func (m *Mirror) Rows() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]string, len(m.rows))
	for i, r := range m.rows {
		out[i] = slices.Clone(r)
	}
	return out
}

func (m *Mirror) indexOf(id string) int {
	return slices.IndexFunc(m.rows, func(r []string) bool { return len(r) > 0 && r[0] == id })
}
