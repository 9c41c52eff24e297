package report

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kharcha/internal/core"
)

func TestMonthShift(t *testing.T) {
	m := Month{Year: 2024, Month: time.January}
	assert.Equal(t, Month{Year: 2023, Month: time.December}, m.Shift(-1))
	assert.Equal(t, Month{Year: 2024, Month: time.February}, m.Shift(1))
	assert.Equal(t, Month{Year: 2025, Month: time.January}, m.Shift(12))
}

func TestShiftMonthPinsDayToFirst(t *testing.T) {
	ref := time.Date(2024, 1, 31, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), ShiftMonth(ref, 1))
	assert.Equal(t, time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC), ShiftMonth(ref, -1))
}

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2024-09")
	require.NoError(t, err)
	assert.Equal(t, Month{Year: 2024, Month: time.September}, m)
	assert.Equal(t, "2024-09", m.String())
	assert.Equal(t, "September 2024", m.Label())

	_, err = ParseMonth("09/2024")
	var ve *core.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestMonthRange(t *testing.T) {
	start, end := Month{Year: 2024, Month: time.February}.Range(time.UTC)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 2, 29, 23, 59, 59, 999999999, time.UTC), end)
}

func TestMonthJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		M Month `json:"m"`
	}{Month{Year: 2024, Month: time.September}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"m":"2024-09"}`, string(b))

	var out struct {
		M Month `json:"m"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"m":"2023-12"}`), &out))
	assert.Equal(t, Month{Year: 2023, Month: time.December}, out.M)
}

func TestRecentMonths(t *testing.T) {
	got := RecentMonths(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), 3)
	assert.Equal(t, []Month{
		{Year: 2024, Month: time.February},
		{Year: 2024, Month: time.January},
		{Year: 2023, Month: time.December},
	}, got)
	assert.Nil(t, RecentMonths(time.Now(), 0))
}

func TestBuildMonthOverview(t *testing.T) {
	list := append(scenario(),
		tx("4", "Pet", "20", core.PayerYou, day(2024, 8, 20)),
		tx("5", "Home", "63", core.PayerWife, day(2024, 10, 3)),
	)

	ov := BuildMonthOverview(list, Month{Year: 2024, Month: time.September}, 1)

	assert.Equal(t, 3, ov.Count)
	assert.True(t, ov.Total.Equal(decimal.NewFromInt(60)))
	assert.True(t, ov.ByPayer[core.PayerYou].Equal(decimal.NewFromInt(50)))
	require.Len(t, ov.ByCategory, 2)
	assert.Equal(t, "83.3", ov.ByCategory[0].Percentage)
	assert.Equal(t, "16.7", ov.ByCategory[1].Percentage)
	assert.Equal(t, "#FDE047", ov.ByCategory[0].Color)
	require.Len(t, ov.TopCategories, 1)
	assert.Equal(t, "Food", ov.TopCategories[0].Category)
	assert.True(t, ov.PreviousTotal.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, "200.0", ov.Change)
	assert.Equal(t, Month{Year: 2024, Month: time.August}, ov.Previous)
	assert.Equal(t, Month{Year: 2024, Month: time.October}, ov.Next)
}

func TestBuildMonthOverviewEmptyMonth(t *testing.T) {
	ov := BuildMonthOverview(scenario(), Month{Year: 2030, Month: time.March}, 0)
	assert.Zero(t, ov.Count)
	assert.True(t, ov.Total.IsZero())
	assert.Empty(t, ov.ByCategory)
	assert.Equal(t, "0.0", ov.Change)
}
