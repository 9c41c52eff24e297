package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kharcha/internal/core"
	"kharcha/internal/store"
	"kharcha/internal/store/storetest"
)

func openTestStore(t *testing.T, loc *time.Location) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "kharcha.db"), loc)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return openTestStore(t, time.UTC) })
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kharcha.db")

	s, err := Open(path, time.UTC)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path, time.UTC)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestDatesAreReportedInConfiguredLocation(t *testing.T) {
	kolkata := time.FixedZone("IST", 5*60*60+30*60)
	s := openTestStore(t, kolkata)
	ctx := context.Background()

	// 00:30 on Oct 1 in Kolkata is still Sep 30 in UTC.
	date := time.Date(2024, 10, 1, 0, 30, 0, 0, kolkata)
	id, err := s.Create(ctx, core.Transaction{
		Date:     date,
		Category: "Food",
		Amount:   decimal.NewFromInt(5),
		Payer:    core.PayerYou,
	})
	require.NoError(t, err)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, time.October, got.Date.Month())
	assert.Equal(t, 1, got.Date.Day())
	assert.Equal(t, kolkata, got.Date.Location())
}

func TestAmountsStayExact(t *testing.T) {
	s := openTestStore(t, time.UTC)
	ctx := context.Background()

	amounts := []string{"0.1", "0.2", "19.99"}
	for _, a := range amounts {
		_, err := s.Create(ctx, core.Transaction{
			Date:     time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
			Category: "Food",
			Amount:   decimal.RequireFromString(a),
			Payer:    core.PayerWife,
		})
		require.NoError(t, err)
	}

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	sum := decimal.Zero
	for _, tx := range all {
		sum = sum.Add(tx.Amount)
	}
	assert.Equal(t, "20.29", sum.String())
}

func TestUpdateWithoutFieldsIsRejected(t *testing.T) {
	s := openTestStore(t, time.UTC)
	err := s.Update(context.Background(), "any", core.TransactionPatch{})
	var ve *core.ValidationError
	assert.ErrorAs(t, err, &ve)
}
