// Package google mirrors transactions into a Google Sheets tab, one row per
// transaction keyed by id in column A.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"kharcha/internal/core"
	"kharcha/internal/sheets"
)

const (
	DefaultSheetName = "Ledger"
	lastColumn       = "F"
	valueInputOption = "USER_ENTERED"
)

var _ sheets.Mirror = (*Client)(nil)

type (
	Config struct {
		SpreadsheetID string
		SheetName     string
		// CredentialsJSON takes precedence over CredentialsFile.
		CredentialsJSON string
		CredentialsFile string
	}

	Client struct {
		svc           *gsheet.Service
		spreadsheetID string
		sheet         string
	}
)

// New builds a client for cfg. Extra options replace the credential lookup,
// which lets callers point the client at another endpoint.
func New(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheet := strings.TrimSpace(cfg.SheetName)
	if sheet == "" {
		sheet = DefaultSheetName
	}

	if len(opts) == 0 {
		creds, err := credentials(ctx, cfg)
		if err != nil {
			return nil, err
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created", "sheet", sheet)

	return &Client{svc: svc, spreadsheetID: cfg.SpreadsheetID, sheet: sheet}, nil
}

func credentials(ctx context.Context, cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		return []byte(cfg.CredentialsJSON), nil
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.InfoContext(ctx, "Read credentials file", "path", cfg.CredentialsFile, "size", len(b))
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

func (c *Client) Upsert(ctx context.Context, t core.Transaction) error {
	ids, err := c.readIDs(ctx)
	if err != nil {
		return err
	}

	row := findRow(ids, t.ID)
	if row == 0 {
		if len(ids) == 0 {
			if err := c.write(ctx, 1, [][]string{sheets.Header}); err != nil {
				return err
			}
			ids = [][]any{{sheets.Header[0]}}
		}
		row = len(ids) + 1
	}

	if err := c.write(ctx, row, [][]string{sheets.RowFor(t)}); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Transaction mirrored to sheet", "id", t.ID, "row", row)
	return nil
}

func (c *Client) Remove(ctx context.Context, id string) error {
	ids, err := c.readIDs(ctx)
	if err != nil {
		return err
	}
	row := findRow(ids, id)
	if row == 0 {
		slog.DebugContext(ctx, "Transaction not in sheet, nothing to clear", "id", id)
		return nil
	}

	rng := c.rowRange(row, row)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}
	slog.InfoContext(ctx, "Transaction cleared from sheet", "id", id, "row", row)
	return nil
}

func (c *Client) ReplaceAll(ctx context.Context, list []core.Transaction) error {
	rng := fmt.Sprintf("%s!A:%s", c.sheet, lastColumn)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}

	rows := make([][]string, 0, len(list)+1)
	rows = append(rows, sheets.Header)
	for _, t := range list {
		rows = append(rows, sheets.RowFor(t))
	}
	if err := c.write(ctx, 1, rows); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Sheet rebuilt from store", "rows", len(list))
	return nil
}

func (c *Client) readIDs(ctx context.Context) ([][]any, error) {
	rng := fmt.Sprintf("%s!A:A", c.sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

// write puts rows starting at the 1-based row first.
func (c *Client) write(ctx context.Context, first int, rows [][]string) error {
	rng := c.rowRange(first, first+len(rows)-1)
	vr := &gsheet.ValueRange{Values: toValues(rows)}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption(valueInputOption).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

func (c *Client) rowRange(first, last int) string {
	return fmt.Sprintf("%s!A%d:%s%d", c.sheet, first, lastColumn, last)
}

// findRow returns the 1-based row whose first cell is id, or 0. The header
// row never matches.
func findRow(values [][]any, id string) int {
	id = strings.TrimSpace(id)
	if id == "" {
		return 0
	}
	for i, row := range values {
		if i == 0 || len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i + 1
		}
	}
	return 0
}

func toValues(rows [][]string) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		vals := make([]any, len(r))
		for j, v := range r {
			vals[j] = v
		}
		out[i] = vals
	}
	return out
}
