package report

import (
	"github.com/shopspring/decimal"

	"kharcha/internal/core"
)

// DefaultTopCategories is how many categories the dashboard highlights.
const DefaultTopCategories = 5

type (
	// CategoryShare is a category's spend together with its share of the
	// month's total.
	CategoryShare struct {
		Category   string          `json:"category"`
		Amount     decimal.Decimal `json:"amount"`
		Percentage string          `json:"percentage"`
		Color      string          `json:"color"`
	}

	// MonthOverview is the compact summary of one calendar month.
	MonthOverview struct {
		Month         Month           `json:"month"`
		Label         string          `json:"label"`
		Count         int             `json:"count"`
		Total         decimal.Decimal `json:"total"`
		ByPayer       PayerTotals     `json:"byPayer"`
		ByCategory    []CategoryShare `json:"byCategory"`
		TopCategories []CategoryShare `json:"topCategories"`
		PreviousTotal decimal.Decimal `json:"previousTotal"`
		Change        string          `json:"change"`
		Previous      Month           `json:"previous"`
		Next          Month           `json:"next"`
	}
)

// BuildMonthOverview summarises the transactions of m. list may span any
// range; only m and the month before it are considered. topN <= 0 selects
// DefaultTopCategories.
func BuildMonthOverview(list []core.Transaction, m Month, topN int) MonthOverview {
	if topN <= 0 {
		topN = DefaultTopCategories
	}

	inMonth := m.Filter(list)
	total := TotalOf(inMonth)
	prev := m.Shift(-1)
	prevTotal := TotalOf(prev.Filter(list))

	cats := TotalsByCategory(inMonth)
	shares := make([]CategoryShare, 0, len(cats))
	for _, c := range cats {
		shares = append(shares, CategoryShare{
			Category:   c.Category,
			Amount:     c.Amount,
			Percentage: FormatPercentage(PercentageOf(c.Amount, total)),
			Color:      core.CategoryColor(c.Category),
		})
	}
	top := shares
	if len(top) > topN {
		top = top[:topN]
	}

	return MonthOverview{
		Month:         m,
		Label:         m.Label(),
		Count:         len(inMonth),
		Total:         total,
		ByPayer:       TotalsByPayer(inMonth),
		ByCategory:    shares,
		TopCategories: top,
		PreviousTotal: prevTotal,
		Change:        FormatPercentage(changeOf(total, prevTotal)),
		Previous:      prev,
		Next:          m.Shift(1),
	}
}

// changeOf is the relative change from prev to cur in percent; zero when
// there is nothing to compare against.
func changeOf(cur, prev decimal.Decimal) decimal.Decimal {
	if prev.IsZero() {
		return decimal.Zero
	}
	return PercentageOf(cur.Sub(prev), prev)
}
