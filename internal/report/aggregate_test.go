package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kharcha/internal/core"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func tx(id, cat, amount string, payer core.Payer, date time.Time) core.Transaction {
	return core.Transaction{
		ID:       id,
		Date:     date,
		Category: cat,
		Amount:   decimal.RequireFromString(amount),
		Payer:    payer,
	}
}

func scenario() []core.Transaction {
	return []core.Transaction{
		tx("1", "Food", "45", core.PayerYou, day(2024, 9, 8)),
		tx("2", "Food", "5", core.PayerYou, day(2024, 9, 2)),
		tx("3", "Gift", "10", core.PayerWife, day(2024, 9, 1)),
	}
}

func TestScenarioTotals(t *testing.T) {
	list := scenario()

	assert.True(t, TotalOf(list).Equal(decimal.NewFromInt(60)))

	cats := TotalsByCategory(list)
	require.Len(t, cats, 2)
	assert.Equal(t, "Food", cats[0].Category)
	assert.True(t, cats[0].Amount.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, "Gift", cats[1].Category)
	assert.True(t, cats[1].Amount.Equal(decimal.NewFromInt(10)))

	payers := TotalsByPayer(list)
	assert.True(t, payers[core.PayerYou].Equal(decimal.NewFromInt(50)))
	assert.True(t, payers[core.PayerWife].Equal(decimal.NewFromInt(10)))
}

func TestTotalsReconstructGrandTotal(t *testing.T) {
	list := []core.Transaction{
		tx("1", "Food", "0.1", core.PayerYou, day(2024, 9, 1)),
		tx("2", "Food", "0.2", core.PayerWife, day(2024, 9, 2)),
		tx("3", "Pet", "19.99", core.PayerWife, day(2024, 9, 3)),
		tx("4", "Home", "63", core.PayerYou, day(2024, 10, 3)),
	}
	total := TotalOf(list)

	assert.True(t, TotalsByPayer(list).Sum().Equal(total))

	sum := decimal.Zero
	for _, c := range TotalsByCategory(list) {
		sum = sum.Add(c.Amount)
	}
	assert.True(t, sum.Equal(total))
}

func TestTotalsByPayerAlwaysHasBothPayers(t *testing.T) {
	got := TotalsByPayer(nil)
	require.Len(t, got, 2)
	assert.True(t, got[core.PayerYou].IsZero())
	assert.True(t, got[core.PayerWife].IsZero())
}

func TestTotalsByCategoryTieKeepsFirstAppearance(t *testing.T) {
	list := []core.Transaction{
		tx("1", "Pet", "20", core.PayerYou, day(2024, 9, 1)),
		tx("2", "Donate", "20", core.PayerYou, day(2024, 9, 1)),
		tx("3", "Shopping", "236", core.PayerWife, day(2024, 9, 1)),
	}
	cats := TotalsByCategory(list)
	require.Len(t, cats, 3)
	assert.Equal(t, []string{"Shopping", "Pet", "Donate"}, []string{cats[0].Category, cats[1].Category, cats[2].Category})
}

func TestPercentageOf(t *testing.T) {
	assert.True(t, PercentageOf(decimal.NewFromInt(42), decimal.Zero).IsZero())
	assert.True(t, PercentageOf(decimal.Zero, decimal.Zero).IsZero())
	assert.Equal(t, "83.3", FormatPercentage(PercentageOf(decimal.NewFromInt(50), decimal.NewFromInt(60))))
	assert.Equal(t, "100.0", FormatPercentage(PercentageOf(decimal.NewFromInt(7), decimal.NewFromInt(7))))
}

func TestFilterByMonth(t *testing.T) {
	list := []core.Transaction{
		tx("a", "Food", "1", core.PayerYou, time.Date(2024, 8, 31, 23, 59, 59, 0, time.UTC)),
		tx("b", "Food", "2", core.PayerYou, time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)),
		tx("c", "Food", "3", core.PayerYou, time.Date(2024, 9, 30, 23, 59, 59, 0, time.UTC)),
		tx("d", "Food", "4", core.PayerYou, time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)),
		tx("e", "Food", "5", core.PayerYou, time.Date(2023, 9, 15, 0, 0, 0, 0, time.UTC)),
	}

	sept := FilterByMonth(list, day(2024, 9, 17))
	require.Len(t, sept, 2)
	assert.Equal(t, "b", sept[0].ID)
	assert.Equal(t, "c", sept[1].ID)

	assert.Equal(t, sept, FilterByMonth(sept, day(2024, 9, 1)), "filtering twice changes nothing")
}

func TestFilterByPayer(t *testing.T) {
	list := scenario()

	all, err := FilterByPayer(list, "all")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	wife, err := FilterByPayer(list, "Wife")
	require.NoError(t, err)
	require.Len(t, wife, 1)
	assert.Equal(t, "3", wife[0].ID)

	_, err = FilterByPayer(list, "neighbour")
	assert.ErrorIs(t, err, core.ErrInvalidPayer)
}

func TestSortByDateDescendingIsStable(t *testing.T) {
	list := []core.Transaction{
		tx("old", "Food", "1", core.PayerYou, day(2024, 9, 1)),
		tx("same-1", "Food", "1", core.PayerYou, day(2024, 9, 3)),
		tx("new", "Food", "1", core.PayerYou, day(2024, 9, 8)),
		tx("same-2", "Food", "1", core.PayerYou, day(2024, 9, 3)),
	}
	got := SortByDateDescending(list)

	ids := make([]string, 0, len(got))
	for _, t := range got {
		ids = append(ids, t.ID)
	}
	assert.Equal(t, []string{"new", "same-1", "same-2", "old"}, ids)
	assert.Equal(t, "old", list[0].ID, "input is not modified")
}

func TestGroupByDateLabel(t *testing.T) {
	list := SortByDateDescending(scenario()[:2])
	groups := GroupByDateLabel(list)

	require.Len(t, groups, 2)
	assert.Equal(t, "Sep 8, 2024", groups[0].Label)
	assert.Equal(t, "Sep 2, 2024", groups[1].Label)
	require.Len(t, groups[0].Transactions, 1)
	assert.Equal(t, "1", groups[0].Transactions[0].ID)
	require.Len(t, groups[1].Transactions, 1)
	assert.Equal(t, "2", groups[1].Transactions[0].ID)
	assert.True(t, groups[0].Total.Equal(decimal.NewFromInt(45)))
}

func TestGroupByDateLabelSameDayDifferentTimes(t *testing.T) {
	list := []core.Transaction{
		tx("1", "Food", "1", core.PayerYou, time.Date(2024, 9, 8, 20, 0, 0, 0, time.UTC)),
		tx("2", "Food", "2", core.PayerYou, time.Date(2024, 9, 8, 8, 0, 0, 0, time.UTC)),
	}
	groups := GroupByDateLabel(list)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Transactions, 2)
}
