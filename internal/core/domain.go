package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	PayerYou  Payer = "You"
	PayerWife Payer = "Wife"
)

type (
	// Payer is the household member who incurred a transaction.
	Payer string

	Transaction struct {
		ID          string          `json:"id"`
		Date        time.Time       `json:"date"`
		Category    string          `json:"category"`
		Amount      decimal.Decimal `json:"amount"`
		Description string          `json:"description"`
		Payer       Payer           `json:"user"`
		CreatedAt   time.Time       `json:"createdAt,omitzero"`
		UpdatedAt   time.Time       `json:"updatedAt,omitzero"`
	}

	// TransactionPatch carries the fields of a partial update. Nil fields are
	// left untouched.
	TransactionPatch struct {
		Date        *time.Time       `json:"date,omitempty"`
		Category    *string          `json:"category,omitempty"`
		Amount      *decimal.Decimal `json:"amount,omitempty"`
		Description *string          `json:"description,omitempty"`
		Payer       *Payer           `json:"user,omitempty"`
	}
)

// Payers lists the two household identities in display order.
var Payers = []Payer{PayerYou, PayerWife}

func (p Payer) IsValid() bool {
	return p == PayerYou || p == PayerWife
}

func (p Payer) String() string { return string(p) }

// ParsePayer matches s case-insensitively against the known payers.
func ParsePayer(s string) (Payer, error) {
	s = strings.TrimSpace(s)
	for _, p := range Payers {
		if strings.EqualFold(s, string(p)) {
			return p, nil
		}
	}
	return "", &ValidationError{Field: "user", Reason: "must be one of You, Wife", Err: ErrInvalidPayer}
}

// NewTransaction builds a transaction ready to be stored: text fields are
// trimmed and the amount is coerced to its absolute value.
func NewTransaction(date time.Time, category string, amount decimal.Decimal, description string, payer Payer) (Transaction, error) {
	t := Transaction{
		Date:        date,
		Category:    category,
		Amount:      amount,
		Description: description,
		Payer:       payer,
	}
	t.Normalize()
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// Normalize trims text fields and coerces the amount to be non-negative.
func (t *Transaction) Normalize() {
	t.Category = strings.TrimSpace(t.Category)
	t.Description = strings.TrimSpace(t.Description)
	t.Amount = t.Amount.Abs()
}

func (t Transaction) Validate() error {
	if t.Date.IsZero() {
		return &ValidationError{Field: "date", Reason: "is required", Err: ErrInvalidDate}
	}
	if strings.TrimSpace(t.Category) == "" {
		return &ValidationError{Field: "category", Reason: "is required", Err: ErrEmptyCategory}
	}
	if t.Amount.IsNegative() {
		return &ValidationError{Field: "amount", Reason: "must not be negative", Err: ErrInvalidAmount}
	}
	if !t.Payer.IsValid() {
		return &ValidationError{Field: "user", Reason: "must be one of You, Wife", Err: ErrInvalidPayer}
	}
	return nil
}

// IsEmpty reports whether the patch would change nothing.
func (p TransactionPatch) IsEmpty() bool {
	return p.Date == nil && p.Category == nil && p.Amount == nil && p.Description == nil && p.Payer == nil
}

// Normalize applies the same coercions as Transaction.Normalize to the
// fields present in the patch.
func (p *TransactionPatch) Normalize() {
	if p.Category != nil {
		c := strings.TrimSpace(*p.Category)
		p.Category = &c
	}
	if p.Description != nil {
		d := strings.TrimSpace(*p.Description)
		p.Description = &d
	}
	if p.Amount != nil {
		a := p.Amount.Abs()
		p.Amount = &a
	}
}

func (p TransactionPatch) Validate() error {
	if p.IsEmpty() {
		return &ValidationError{Field: "patch", Reason: "no fields to update"}
	}
	if p.Date != nil && p.Date.IsZero() {
		return &ValidationError{Field: "date", Reason: "is required", Err: ErrInvalidDate}
	}
	if p.Category != nil && strings.TrimSpace(*p.Category) == "" {
		return &ValidationError{Field: "category", Reason: "is required", Err: ErrEmptyCategory}
	}
	if p.Amount != nil && p.Amount.IsNegative() {
		return &ValidationError{Field: "amount", Reason: "must not be negative", Err: ErrInvalidAmount}
	}
	if p.Payer != nil && !p.Payer.IsValid() {
		return &ValidationError{Field: "user", Reason: "must be one of You, Wife", Err: ErrInvalidPayer}
	}
	return nil
}

// Apply merges the patch into t and returns the result.
func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Payer != nil {
		t.Payer = *p.Payer
	}
	return t
}
