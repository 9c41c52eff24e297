// Package report turns a flat list of transactions into the totals, splits
// and breakdowns shown on the dashboard, insights and history views.
//
// Every function is pure: inputs are never modified and results only depend
// on the arguments.
package report

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"kharcha/internal/core"
)

// DateLabelLayout renders a day as "Sep 8, 2024".
const DateLabelLayout = "Jan 2, 2006"

// PayerAll selects every payer in FilterByPayer.
const PayerAll = "all"

var hundred = decimal.NewFromInt(100)

type (
	// CategoryAmount is the spend aggregated under one category name.
	CategoryAmount struct {
		Category string          `json:"category"`
		Amount   decimal.Decimal `json:"amount"`
	}

	// PayerTotals maps each payer to its spend. Both payers are always present.
	PayerTotals map[core.Payer]decimal.Decimal

	// DateGroup is one day's bucket of transactions.
	DateGroup struct {
		Label        string             `json:"label"`
		Total        decimal.Decimal    `json:"total"`
		Transactions []core.Transaction `json:"transactions"`
	}
)

func TotalOf(list []core.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range list {
		total = total.Add(t.Amount)
	}
	return total
}

func TotalsByPayer(list []core.Transaction) PayerTotals {
	out := make(PayerTotals, len(core.Payers))
	for _, p := range core.Payers {
		out[p] = decimal.Zero
	}
	for _, t := range list {
		out[t.Payer] = out[t.Payer].Add(t.Amount)
	}
	return out
}

// Sum adds up every payer's total.
func (p PayerTotals) Sum() decimal.Decimal {
	sum := decimal.Zero
	for _, v := range p {
		sum = sum.Add(v)
	}
	return sum
}

// TotalsByCategory sums spend per category, largest first. Categories with
// equal amounts keep the order in which they first appear in list.
func TotalsByCategory(list []core.Transaction) []CategoryAmount {
	index := make(map[string]int)
	out := make([]CategoryAmount, 0)
	for _, t := range list {
		i, ok := index[t.Category]
		if !ok {
			i = len(out)
			index[t.Category] = i
			out = append(out, CategoryAmount{Category: t.Category, Amount: decimal.Zero})
		}
		out[i].Amount = out[i].Amount.Add(t.Amount)
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Amount.GreaterThan(out[b].Amount)
	})
	return out
}

// PercentageOf returns amount as a percentage of total, or zero when total
// is zero.
func PercentageOf(amount, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return amount.Div(total).Mul(hundred)
}

// FormatPercentage renders a percentage with one decimal, e.g. "83.3".
func FormatPercentage(p decimal.Decimal) string {
	return p.StringFixed(1)
}

// FilterByMonth keeps the transactions dated in the same calendar month and
// year as ref.
func FilterByMonth(list []core.Transaction, ref time.Time) []core.Transaction {
	return MonthOf(ref).Filter(list)
}

// FilterByPayer keeps the transactions of one payer; PayerAll keeps everything.
func FilterByPayer(list []core.Transaction, payer string) ([]core.Transaction, error) {
	payer = strings.TrimSpace(payer)
	if payer == "" || strings.EqualFold(payer, PayerAll) {
		return append([]core.Transaction(nil), list...), nil
	}
	p, err := core.ParsePayer(payer)
	if err != nil {
		return nil, err
	}
	out := make([]core.Transaction, 0, len(list))
	for _, t := range list {
		if t.Payer == p {
			out = append(out, t)
		}
	}
	return out, nil
}

// SortByDateDescending returns a copy of list, most recent first. Equal
// dates keep their relative order.
func SortByDateDescending(list []core.Transaction) []core.Transaction {
	out := append([]core.Transaction(nil), list...)
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Date.After(out[b].Date)
	})
	return out
}

// DateLabel is the human readable day label used to bucket transactions.
func DateLabel(t time.Time) string {
	return t.Format(DateLabelLayout)
}

// GroupByDateLabel buckets list by day label. Groups come out in the order
// their label first appears, so a date-sorted input gives date-sorted groups.
func GroupByDateLabel(list []core.Transaction) []DateGroup {
	index := make(map[string]int)
	groups := make([]DateGroup, 0)
	for _, t := range list {
		label := DateLabel(t.Date)
		i, ok := index[label]
		if !ok {
			i = len(groups)
			index[label] = i
			groups = append(groups, DateGroup{Label: label, Total: decimal.Zero})
		}
		groups[i].Transactions = append(groups[i].Transactions, t)
		groups[i].Total = groups[i].Total.Add(t.Amount)
	}
	return groups
}
