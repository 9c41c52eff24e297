// Package storetest holds the behavioural checks every store adapter must
// pass. Adapter packages call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kharcha/internal/core"
	"kharcha/internal/store"
)

// Factory returns an empty store. It is called once per subtest.
type Factory func(t *testing.T) store.Store

func sample(date time.Time, cat, amount string, payer core.Payer, desc string) core.Transaction {
	return core.Transaction{
		Date:        date,
		Category:    cat,
		Amount:      decimal.RequireFromString(amount),
		Description: desc,
		Payer:       payer,
	}
}

// Run exercises s through the store ports.
func Run(t *testing.T, newStore Factory) {
	ctx := context.Background()
	sept := func(d int) time.Time { return time.Date(2024, 9, d, 12, 0, 0, 0, time.UTC) }

	t.Run("create then read back", func(t *testing.T) {
		s := newStore(t)
		id, err := s.Create(ctx, sample(sept(8), "Food", "-42.5", core.PayerYou, "Restaurant"))
		require.NoError(t, err)
		require.NotEmpty(t, id)

		got, err := s.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, got.ID)
		assert.True(t, got.Amount.Equal(decimal.RequireFromString("42.5")), "amount = %s", got.Amount)
		assert.Equal(t, "Food", got.Category)
		assert.Equal(t, core.PayerYou, got.Payer)
		assert.Equal(t, "Restaurant", got.Description)
		assert.True(t, got.Date.Equal(sept(8)), "date = %s", got.Date)
		assert.False(t, got.CreatedAt.IsZero())
		assert.True(t, got.UpdatedAt.IsZero())
	})

	t.Run("create rejects invalid input", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Create(ctx, sample(sept(1), "", "1", core.PayerYou, ""))
		var ve *core.ValidationError
		assert.True(t, errors.As(err, &ve), "err = %v", err)
	})

	t.Run("get missing id", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, "does-not-exist")
		assert.ErrorIs(t, err, core.ErrNotFound)
		var re *core.StoreReadError
		assert.True(t, errors.As(err, &re))
	})

	t.Run("reads are ordered by date descending", func(t *testing.T) {
		s := newStore(t)
		seed(t, s)

		all, err := s.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 4)
		for i := 1; i < len(all); i++ {
			assert.False(t, all[i].Date.After(all[i-1].Date), "item %d out of order", i)
		}
		assert.Equal(t, "Restaurant", all[0].Description)
	})

	t.Run("filtered reads", func(t *testing.T) {
		s := newStore(t)
		seed(t, s)

		wife, err := s.GetByPayer(ctx, core.PayerWife)
		require.NoError(t, err)
		require.Len(t, wife, 2)
		for _, tx := range wife {
			assert.Equal(t, core.PayerWife, tx.Payer)
		}

		food, err := s.GetByCategory(ctx, "Food")
		require.NoError(t, err)
		require.Len(t, food, 2)
		assert.Equal(t, "Restaurant", food[0].Description)
		assert.Equal(t, "Coffee", food[1].Description)

		rng, err := s.GetByDateRange(ctx, sept(2), sept(7))
		require.NoError(t, err)
		require.Len(t, rng, 2, "range is inclusive on both ends")
		assert.Equal(t, "Pharmacy", rng[0].Description)
		assert.Equal(t, "Coffee", rng[1].Description)

		none, err := s.GetByCategory(ctx, "Culture")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("search combines filters", func(t *testing.T) {
		s := newStore(t)
		seed(t, s)

		got, err := store.Search(ctx, s, store.Filter{Payer: core.PayerYou, Category: "Food"})
		require.NoError(t, err)
		assert.Len(t, got, 2)

		got, err = store.Search(ctx, s, store.Filter{Payer: core.PayerWife, From: sept(2)})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Pharmacy", got[0].Description)
	})

	t.Run("update merges fields and stamps modification", func(t *testing.T) {
		s := newStore(t)
		id, err := s.Create(ctx, sample(sept(1), "Gift", "10", core.PayerWife, "Birthday gift"))
		require.NoError(t, err)

		amount := decimal.RequireFromString("-12.25")
		cat := "Culture"
		require.NoError(t, s.Update(ctx, id, core.TransactionPatch{Amount: &amount, Category: &cat}))

		got, err := s.Get(ctx, id)
		require.NoError(t, err)
		assert.True(t, got.Amount.Equal(decimal.RequireFromString("12.25")))
		assert.Equal(t, "Culture", got.Category)
		assert.Equal(t, "Birthday gift", got.Description)
		assert.Equal(t, core.PayerWife, got.Payer)
		assert.False(t, got.UpdatedAt.IsZero())
	})

	t.Run("update missing id", func(t *testing.T) {
		s := newStore(t)
		desc := "x"
		err := s.Update(ctx, "missing", core.TransactionPatch{Description: &desc})
		assert.ErrorIs(t, err, core.ErrNotFound)
		var we *core.StoreWriteError
		assert.True(t, errors.As(err, &we))
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		s := newStore(t)
		id, err := s.Create(ctx, sample(sept(1), "Pet", "20", core.PayerYou, "Pet food"))
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, id))
		require.NoError(t, s.Delete(ctx, id))
		require.NoError(t, s.Delete(ctx, "never-existed"))

		all, err := s.GetAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("batch create is all or nothing", func(t *testing.T) {
		s := newStore(t)
		good := []core.Transaction{
			sample(sept(1), "Gift", "10", core.PayerWife, "Birthday gift"),
			sample(sept(1), "Pet", "20", core.PayerYou, "Pet food"),
		}
		require.NoError(t, s.BatchCreate(ctx, good))

		bad := []core.Transaction{
			sample(sept(3), "Snacks", "5", core.PayerYou, "Snacks"),
			sample(sept(3), "Home", "63", "Neighbour", "Home supplies"),
		}
		assert.Error(t, s.BatchCreate(ctx, bad))

		all, err := s.GetAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("large batch create", func(t *testing.T) {
		s := newStore(t)
		const n = 5000
		batch := make([]core.Transaction, 0, n)
		for i := range n {
			batch = append(batch, sample(sept(1+i%28), "Food", "1.5", core.PayerYou, "Groceries"))
		}
		require.NoError(t, s.BatchCreate(ctx, batch))

		all, err := s.GetAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, n)
		assert.Equal(t, "7500", sumAmounts(all).String())
	})

	t.Run("categories", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.InitializeCategories(ctx, []string{"Food", "Gift"}))

		got, err := s.ListCategories(ctx)
		require.NoError(t, err)
		assert.Subset(t, got, []string{"Food", "Gift"})
	})
}

func seed(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()
	sept := func(d int) time.Time { return time.Date(2024, 9, d, 12, 0, 0, 0, time.UTC) }
	for _, tx := range []core.Transaction{
		sample(sept(2), "Food", "5", core.PayerYou, "Coffee"),
		sample(sept(8), "Food", "45", core.PayerYou, "Restaurant"),
		sample(sept(1), "Gift", "10", core.PayerWife, "Birthday gift"),
		sample(sept(7), "Health", "85", core.PayerWife, "Pharmacy"),
	} {
		_, err := s.Create(ctx, tx)
		require.NoError(t, err)
	}
}

func sumAmounts(list []core.Transaction) decimal.Decimal {
	sum := decimal.Zero
	for _, tx := range list {
		sum = sum.Add(tx.Amount)
	}
	return sum
}
