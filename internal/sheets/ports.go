// Package sheets defines the spreadsheet mirror that the worker keeps in
// step with the transaction store.
package sheets

import (
	"context"

	"kharcha/internal/core"
)

// Header is the first row of the mirror sheet. Column A holds the
// transaction id and is how rows are found again.
var Header = []string{"ID", "Date", "Category", "Amount", "Description", "User"}

type (
	// Mirror is a write-only copy of the transactions collection.
	Mirror interface {
		// Upsert writes t over the row carrying t.ID, or appends it.
		Upsert(ctx context.Context, t core.Transaction) error
		// Remove clears the row carrying id. A missing row is not an error.
		Remove(ctx context.Context, id string) error
		// ReplaceAll rewrites the whole sheet from list.
		ReplaceAll(ctx context.Context, list []core.Transaction) error
	}
)

// RowFor renders t as a mirror row in Header order.
func RowFor(t core.Transaction) []string {
	return []string{
		t.ID,
		t.Date.Format("2006-01-02"),
		t.Category,
		t.Amount.StringFixed(2),
		t.Description,
		string(t.Payer),
	}
}
