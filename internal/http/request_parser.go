package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"kharcha/internal/core"
	"kharcha/internal/report"
	"kharcha/internal/store"
)

const (
	maxBodyBytes = 1 << 20
	dateLayout   = "2006-01-02"
)

// badRequest marks input the server could not even decode.
type badRequest struct{ msg string }

func (e *badRequest) Error() string { return e.msg }

func badRequestf(format string, args ...any) error {
	return &badRequest{msg: fmt.Sprintf(format, args...)}
}

// amountField accepts a JSON number or a string using either decimal
// separator.
type amountField struct {
	value decimal.Decimal
	set   bool
}

func (a *amountField) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	raw := string(b)
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = unquoted
	}
	d, err := core.ParseAmount(raw)
	if err != nil {
		return err
	}
	a.value, a.set = d, true
	return nil
}

type transactionRequest struct {
	Date        string      `json:"date"`
	Category    string      `json:"category"`
	Amount      amountField `json:"amount"`
	Description string      `json:"description"`
	User        string      `json:"user"`
}

// toTransaction validates the request. A missing date means today in loc.
func (req transactionRequest) toTransaction(now time.Time, loc *time.Location) (core.Transaction, error) {
	date := startOfDay(now.In(loc))
	if strings.TrimSpace(req.Date) != "" {
		d, err := parseDate(req.Date, loc)
		if err != nil {
			return core.Transaction{}, err
		}
		date = d
	}
	if !req.Amount.set {
		return core.Transaction{}, &core.ValidationError{Field: "amount", Reason: "is required", Err: core.ErrInvalidAmount}
	}
	payer, err := core.ParsePayer(req.User)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.NewTransaction(date, sanitizeInput(req.Category), req.Amount.value, sanitizeInput(req.Description), payer)
}

type patchRequest struct {
	Date        *string      `json:"date"`
	Category    *string      `json:"category"`
	Amount      *amountField `json:"amount"`
	Description *string      `json:"description"`
	User        *string      `json:"user"`
}

func (req patchRequest) toPatch(loc *time.Location) (core.TransactionPatch, error) {
	var p core.TransactionPatch
	if req.Date != nil {
		d, err := parseDate(*req.Date, loc)
		if err != nil {
			return p, err
		}
		p.Date = &d
	}
	if req.Category != nil {
		c := sanitizeInput(*req.Category)
		p.Category = &c
	}
	if req.Amount != nil && req.Amount.set {
		a := req.Amount.value
		p.Amount = &a
	}
	if req.Description != nil {
		d := sanitizeInput(*req.Description)
		p.Description = &d
	}
	if req.User != nil {
		payer, err := core.ParsePayer(*req.User)
		if err != nil {
			return p, err
		}
		p.Payer = &payer
	}
	return p, nil
}

type categoriesRequest struct {
	Name  string   `json:"name"`
	Names []string `json:"names"`
}

func (req categoriesRequest) all() []string {
	names := append([]string{req.Name}, req.Names...)
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = sanitizeInput(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// decodeJSON reads one JSON document from r into v, rejecting unknown
// fields and trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var ve *core.ValidationError
		if errors.As(err, &ve) {
			return ve
		}
		if errors.Is(err, io.EOF) {
			return badRequestf("request body is empty")
		}
		return badRequestf("malformed JSON: %v", err)
	}
	if dec.More() {
		return badRequestf("request body must hold a single JSON value")
	}
	return nil
}

// parseDate accepts YYYY-MM-DD (a calendar day in loc) or RFC 3339.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(dateLayout, s, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	return time.Time{}, &core.ValidationError{Field: "date", Reason: fmt.Sprintf("%q is not YYYY-MM-DD", s), Err: core.ErrInvalidDate}
}

func isCalendarDay(s string) bool {
	_, err := time.Parse(dateLayout, strings.TrimSpace(s))
	return err == nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// parseMonthParam reads ?month=YYYY-MM, defaulting to now's month.
func parseMonthParam(query url.Values, now time.Time) (report.Month, error) {
	v := strings.TrimSpace(query.Get("month"))
	if v == "" {
		return report.MonthOf(now), nil
	}
	return report.ParseMonth(v)
}

// parseIntParam reads a positive integer, clamped to [1, maxValue].
func parseIntParam(query url.Values, key string, def, maxValue int) (int, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, &core.ValidationError{Field: key, Reason: "must be a positive integer"}
	}
	return min(n, maxValue), nil
}

// parseFilter builds a store.Filter from ?payer=&category=&from=&to=. A
// date-only upper bound covers the whole of its day; an RFC 3339 one is
// taken as the exact instant.
func parseFilter(query url.Values, loc *time.Location) (store.Filter, error) {
	var f store.Filter
	if v := strings.TrimSpace(query.Get("payer")); v != "" && !strings.EqualFold(v, report.PayerAll) {
		p, err := core.ParsePayer(v)
		if err != nil {
			return f, err
		}
		f.Payer = p
	}
	f.Category = sanitizeInput(query.Get("category"))
	if v := query.Get("from"); strings.TrimSpace(v) != "" {
		from, err := parseDate(v, loc)
		if err != nil {
			return f, err
		}
		f.From = from
	}
	if v := query.Get("to"); strings.TrimSpace(v) != "" {
		to, err := parseDate(v, loc)
		if err != nil {
			return f, err
		}
		f.To = to
		if isCalendarDay(v) {
			f.To = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return f, &core.ValidationError{Field: "to", Reason: "must not be before from"}
	}
	return f, nil
}

// sanitizeInput trims s and strips control characters other than tab and
// newlines.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
