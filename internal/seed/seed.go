// Package seed loads the built-in categories and the sample month of
// transactions into an empty store.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"kharcha/internal/core"
	"kharcha/internal/log"
	"kharcha/internal/store"
)

type sampleRow struct {
	date        string
	category    string
	amount      int64
	description string
	payer       core.Payer
}

var sampleRows = []sampleRow{
	{"2024-09-01", "Gift", 10, "Birthday gift", core.PayerWife},
	{"2024-09-01", "Pet", 20, "Pet food", core.PayerYou},
	{"2024-09-01", "Shopping", 236, "Grocery shopping", core.PayerWife},
	{"2024-09-01", "Donate", 20, "Charity donation", core.PayerYou},
	{"2024-09-02", "Food", 5, "Coffee", core.PayerYou},
	{"2024-09-02", "Pet", 56, "Vet visit", core.PayerWife},
	{"2024-09-03", "Snacks", 5, "Snacks", core.PayerYou},
	{"2024-09-03", "Home", 63, "Home supplies", core.PayerWife},
	{"2024-09-04", "Beauty", 136, "Beauty products", core.PayerWife},
	{"2024-09-05", "Entertainment", 71, "Movie tickets", core.PayerYou},
	{"2024-09-06", "Transportation", 45, "Gas", core.PayerYou},
	{"2024-09-07", "Health", 85, "Pharmacy", core.PayerWife},
	{"2024-09-08", "Food", 45, "Restaurant", core.PayerYou},
}

// SampleTransactions returns the September 2024 sample, dated in loc.
func SampleTransactions(loc *time.Location) ([]core.Transaction, error) {
	if loc == nil {
		loc = time.Local
	}
	out := make([]core.Transaction, 0, len(sampleRows))
	for _, r := range sampleRows {
		date, err := time.ParseInLocation("2006-01-02", r.date, loc)
		if err != nil {
			return nil, fmt.Errorf("sample date %q: %w", r.date, err)
		}
		t, err := core.NewTransaction(date, r.category, decimal.NewFromInt(r.amount), r.description, r.payer)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

type Options struct {
	Location *time.Location
	// SkipTransactions seeds categories only.
	SkipTransactions bool
	// Force seeds even when the store already holds transactions.
	Force bool
}

type Result struct {
	Categories   int
	Transactions int
	Skipped      bool
}

// Run stores the built-in categories, then the sample transactions in one
// batch. A store that already holds transactions is left alone unless
// opts.Force is set.
func Run(ctx context.Context, st store.Store, opts Options, logger *log.Logger) (Result, error) {
	if logger == nil {
		logger = log.FromContext(ctx)
	}
	logger = logger.WithComponent(log.ComponentSeed)

	if !opts.Force {
		existing, err := st.GetAll(ctx)
		if err != nil {
			return Result{}, err
		}
		if len(existing) > 0 {
			logger.InfoContext(ctx, "Store already holds transactions, nothing to seed", "count", len(existing))
			return Result{Skipped: true}, nil
		}
	}

	logger.InfoContext(ctx, "Seeding categories", "count", len(core.BuiltinCategories))
	if err := st.InitializeCategories(ctx, core.BuiltinCategories); err != nil {
		return Result{}, fmt.Errorf("seed categories: %w", err)
	}
	res := Result{Categories: len(core.BuiltinCategories)}
	if opts.SkipTransactions {
		return res, nil
	}

	sample, err := SampleTransactions(opts.Location)
	if err != nil {
		return res, err
	}
	logger.InfoContext(ctx, "Seeding transactions", "count", len(sample))
	if err := st.BatchCreate(ctx, sample); err != nil {
		return res, fmt.Errorf("seed transactions: %w", err)
	}
	res.Transactions = len(sample)
	return res, nil
}
