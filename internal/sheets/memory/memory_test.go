package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kharcha/internal/core"
)

func tx(id, cat string) core.Transaction {
	return core.Transaction{
		ID:       id,
		Date:     time.Date(2024, 9, 8, 12, 0, 0, 0, time.UTC),
		Category: cat,
		Amount:   decimal.NewFromInt(45),
		Payer:    core.PayerYou,
	}
}

func TestUpsertReplacesByID(t *testing.T) {
	m := New()
	ctx := context.Background()

	require.NoError(t, m.Upsert(ctx, tx("a", "Food")))
	require.NoError(t, m.Upsert(ctx, tx("b", "Gift")))
	require.NoError(t, m.Upsert(ctx, tx("a", "Snacks")))

	rows := m.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"a", "2024-09-08", "Snacks", "45.00", "", "You"}, rows[0])
}

func TestRemove(t *testing.T) {
	m := New()
	ctx := context.Background()
	require.NoError(t, m.Upsert(ctx, tx("a", "Food")))

	require.NoError(t, m.Remove(ctx, "missing"))
	require.NoError(t, m.Remove(ctx, "a"))
	assert.Empty(t, m.Rows())
}

func TestReplaceAll(t *testing.T) {
	m := New()
	ctx := context.Background()
	require.NoError(t, m.Upsert(ctx, tx("old", "Food")))

	require.NoError(t, m.ReplaceAll(ctx, []core.Transaction{tx("a", "Food"), tx("b", "Pet")}))
	rows := m.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0][0])
	assert.Equal(t, "b", rows[1][0])
}
