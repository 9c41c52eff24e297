// Package sqlite stores transactions in a local SQLite file. Dates are kept
// as unix milliseconds and amounts as decimal text so sums stay exact.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"kharcha/internal/core"
	"kharcha/internal/store"

	_ "modernc.org/sqlite"
)

const (
	transactionsTable = "transactions"
	categoriesTable   = "categories"
)

var transactionColumns = []string{
	"id", "date", "category", "amount", "description", "payer", "created_at", "updated_at",
}

var _ store.Store = (*Store)(nil)

type Store struct {
	db  *sql.DB
	loc *time.Location
	now func() time.Time
}

// Open creates the database file if needed, applies migrations and returns
// a store that reports dates in loc (time.Local when nil).
func Open(dbPath string, loc *time.Location) (*Store, error) {
	if loc == nil {
		loc = time.Local
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db, loc: loc, now: time.Now}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) Create(ctx context.Context, t core.Transaction) (string, error) {
	t.Normalize()
	if err := t.Validate(); err != nil {
		return "", err
	}
	t.ID = uuid.NewString()

	query, args, err := insertTransactions(s.now(), t).ToSql()
	if err != nil {
		return "", core.WriteError("create", "", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return "", core.WriteError("create", "", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"category", t.Category,
		"amount", t.Amount.String(),
		"user", t.Payer)
	return t.ID, nil
}

func (s *Store) Get(ctx context.Context, id string) (core.Transaction, error) {
	list, err := s.query(ctx, "get", selectTransactions().Where(sq.Eq{"id": id}))
	if err != nil {
		return core.Transaction{}, err
	}
	if len(list) == 0 {
		return core.Transaction{}, &core.StoreReadError{Op: "get", Err: core.ErrNotFound}
	}
	return list[0], nil
}

func (s *Store) GetAll(ctx context.Context) ([]core.Transaction, error) {
	return s.query(ctx, "getAll", selectTransactions())
}

func (s *Store) GetByPayer(ctx context.Context, payer core.Payer) ([]core.Transaction, error) {
	return s.query(ctx, "getByUser", selectTransactions().Where(sq.Eq{"payer": string(payer)}))
}

func (s *Store) GetByCategory(ctx context.Context, category string) ([]core.Transaction, error) {
	return s.query(ctx, "getByCategory", selectTransactions().Where(sq.Eq{"category": category}))
}

func (s *Store) GetByDateRange(ctx context.Context, start, end time.Time) ([]core.Transaction, error) {
	return s.query(ctx, "getByDateRange", selectTransactions().Where(sq.And{
		sq.GtOrEq{"date": start.UnixMilli()},
		sq.LtOrEq{"date": end.UnixMilli()},
	}))
}

func (s *Store) Update(ctx context.Context, id string, patch core.TransactionPatch) error {
	patch.Normalize()
	if err := patch.Validate(); err != nil {
		return err
	}

	b := sq.Update(transactionsTable).Where(sq.Eq{"id": id})
	if patch.Date != nil {
		b = b.Set("date", patch.Date.UnixMilli())
	}
	if patch.Category != nil {
		b = b.Set("category", *patch.Category)
	}
	if patch.Amount != nil {
		b = b.Set("amount", patch.Amount.String())
	}
	if patch.Description != nil {
		b = b.Set("description", *patch.Description)
	}
	if patch.Payer != nil {
		b = b.Set("payer", string(*patch.Payer))
	}
	b = b.Set("updated_at", s.now().UnixMilli())

	query, args, err := b.ToSql()
	if err != nil {
		return core.WriteError("update", id, err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return core.WriteError("update", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.WriteError("update", id, err)
	}
	if n == 0 {
		return &core.StoreWriteError{Op: "update", ID: id, Err: core.ErrNotFound}
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	query, args, err := sq.Delete(transactionsTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return core.WriteError("delete", id, err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return core.WriteError("delete", id, err)
	}
	return nil
}

func (s *Store) BatchCreate(ctx context.Context, ts []core.Transaction) error {
	if len(ts) == 0 {
		return nil
	}
	batch := make([]core.Transaction, 0, len(ts))
	for _, t := range ts {
		t.Normalize()
		if err := t.Validate(); err != nil {
			return err
		}
		t.ID = uuid.NewString()
		batch = append(batch, t)
	}

	// One insert per row: a multi-row insert of a large batch overflows
	// SQLite's bound variable limit.
	query, _, err := insertTransactions(s.now(), core.Transaction{}).ToSql()
	if err != nil {
		return core.WriteError("batchCreate", "", err)
	}
	now := s.now()
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()
		for _, t := range batch {
			if _, err := stmt.ExecContext(ctx, rowValues(now, t)...); err != nil {
				return fmt.Errorf("insert %s: %w", t.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return core.WriteError("batchCreate", "", err)
	}

	slog.InfoContext(ctx, "Transactions batch saved to SQLite", "count", len(batch))
	return nil
}

func (s *Store) InitializeCategories(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	now := s.now().UnixMilli()
	b := sq.Insert(categoriesTable).Columns("id", "name", "created_at")
	for _, n := range names {
		b = b.Values(uuid.NewString(), n, now)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return core.WriteError("initializeCategories", "", err)
	}
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, query, args...)
		return err
	})
	return core.WriteError("initializeCategories", "", err)
}

func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	query, args, err := sq.Select("name").From(categoriesTable).OrderBy("created_at", "rowid").ToSql()
	if err != nil {
		return nil, core.ReadError("listCategories", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, core.ReadError("listCategories", err)
	}
	defer rows.Close()

	set := core.NewCategorySet()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, core.ReadError("listCategories", err)
		}
		set.Add(name)
	}
	if err := rows.Err(); err != nil {
		return nil, core.ReadError("listCategories", err)
	}
	return set.Names(), nil
}

// inTx runs fn inside one SQL transaction, committing only when fn succeeds.
func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) query(ctx context.Context, op string, b sq.SelectBuilder) ([]core.Transaction, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, core.ReadError(op, err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, core.ReadError(op, err)
	}
	defer rows.Close()

	out := make([]core.Transaction, 0)
	for rows.Next() {
		t, err := s.scan(rows)
		if err != nil {
			return nil, core.ReadError(op, err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, core.ReadError(op, err)
	}
	return out, nil
}

func (s *Store) scan(rows *sql.Rows) (core.Transaction, error) {
	var (
		t               core.Transaction
		date, createdAt int64
		amount, payer   string
		updatedAt       sql.NullInt64
	)
	if err := rows.Scan(&t.ID, &date, &t.Category, &amount, &t.Description, &payer, &createdAt, &updatedAt); err != nil {
		return core.Transaction{}, err
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("decode amount of %s: %w", t.ID, err)
	}
	if !core.Payer(payer).IsValid() {
		return core.Transaction{}, fmt.Errorf("unknown payer %q on %s", payer, t.ID)
	}
	t.Amount = d
	t.Payer = core.Payer(payer)
	t.Date = s.fromMillis(date)
	t.CreatedAt = s.fromMillis(createdAt)
	if updatedAt.Valid {
		t.UpdatedAt = s.fromMillis(updatedAt.Int64)
	}
	return t, nil
}

func (s *Store) fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).In(s.loc)
}

func selectTransactions() sq.SelectBuilder {
	return sq.Select(transactionColumns...).From(transactionsTable).OrderBy("date DESC", "created_at ASC", "rowid ASC")
}

func insertTransactions(now time.Time, ts ...core.Transaction) sq.InsertBuilder {
	b := sq.Insert(transactionsTable).Columns(transactionColumns...)
	for _, t := range ts {
		b = b.Values(rowValues(now, t)...)
	}
	return b
}

func rowValues(now time.Time, t core.Transaction) []any {
	return []any{t.ID, t.Date.UnixMilli(), t.Category, t.Amount.String(), t.Description, string(t.Payer), now.UnixMilli(), nil}
}
