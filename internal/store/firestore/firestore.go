// Package firestore stores transactions in the "transactions" and
// "categories" collections of a Cloud Firestore database. Documents use
// native timestamps for dates; amounts are numbers.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/shopspring/decimal"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"kharcha/internal/core"
	"kharcha/internal/store"
)

const (
	TransactionsCollection = "transactions"
	CategoriesCollection   = "categories"
)

var _ store.Store = (*Store)(nil)

type (
	Store struct {
		client *firestore.Client
		loc    *time.Location
	}

	transactionDoc struct {
		Date        time.Time  `firestore:"date"`
		Category    string     `firestore:"category"`
		Amount      float64    `firestore:"amount"`
		Description string     `firestore:"description"`
		User        string     `firestore:"user"`
		CreatedAt   time.Time  `firestore:"createdAt,serverTimestamp"`
		UpdatedAt   *time.Time `firestore:"updatedAt,omitempty"`
	}

	categoryDoc struct {
		Name      string    `firestore:"name"`
		CreatedAt time.Time `firestore:"createdAt,serverTimestamp"`
	}
)

// Open connects to projectID. When credentialsFile is empty the client
// falls back to application default credentials (or the emulator when
// FIRESTORE_EMULATOR_HOST is set).
func Open(ctx context.Context, projectID, credentialsFile string, loc *time.Location) (*Store, error) {
	if projectID == "" {
		return nil, errors.New("missing firestore project id")
	}
	if loc == nil {
		loc = time.Local
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	slog.InfoContext(ctx, "Firestore client created", "project_id", projectID)
	return &Store{client: client, loc: loc}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) transactions() *firestore.CollectionRef {
	return s.client.Collection(TransactionsCollection)
}

func (s *Store) Create(ctx context.Context, t core.Transaction) (string, error) {
	t.Normalize()
	if err := t.Validate(); err != nil {
		return "", err
	}
	ref, _, err := s.transactions().Add(ctx, toDoc(t))
	if err != nil {
		return "", core.WriteError("create", "", err)
	}
	return ref.ID, nil
}

func (s *Store) Get(ctx context.Context, id string) (core.Transaction, error) {
	snap, err := s.transactions().Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return core.Transaction{}, &core.StoreReadError{Op: "get", Err: core.ErrNotFound}
		}
		return core.Transaction{}, core.ReadError("get", err)
	}
	return s.decode(snap)
}

func (s *Store) GetAll(ctx context.Context) ([]core.Transaction, error) {
	return s.query(ctx, "getAll", s.transactions().OrderBy("date", firestore.Desc))
}

func (s *Store) GetByPayer(ctx context.Context, payer core.Payer) ([]core.Transaction, error) {
	q := s.transactions().Where("user", "==", string(payer)).OrderBy("date", firestore.Desc)
	return s.query(ctx, "getByUser", q)
}

func (s *Store) GetByCategory(ctx context.Context, category string) ([]core.Transaction, error) {
	q := s.transactions().Where("category", "==", category).OrderBy("date", firestore.Desc)
	return s.query(ctx, "getByCategory", q)
}

func (s *Store) GetByDateRange(ctx context.Context, start, end time.Time) ([]core.Transaction, error) {
	q := s.transactions().
		Where("date", ">=", start).
		Where("date", "<=", end).
		OrderBy("date", firestore.Desc)
	return s.query(ctx, "getByDateRange", q)
}

func (s *Store) Update(ctx context.Context, id string, patch core.TransactionPatch) error {
	patch.Normalize()
	if err := patch.Validate(); err != nil {
		return err
	}
	_, err := s.transactions().Doc(id).Update(ctx, toUpdates(patch))
	if err != nil {
		if isNotFound(err) {
			return &core.StoreWriteError{Op: "update", ID: id, Err: core.ErrNotFound}
		}
		return core.WriteError("update", id, err)
	}
	return nil
}

// Delete does not check for existence; Firestore treats deleting a missing
// document as success.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.transactions().Doc(id).Delete(ctx); err != nil {
		return core.WriteError("delete", id, err)
	}
	return nil
}

func (s *Store) BatchCreate(ctx context.Context, ts []core.Transaction) error {
	docs := make([]transactionDoc, 0, len(ts))
	for _, t := range ts {
		t.Normalize()
		if err := t.Validate(); err != nil {
			return err
		}
		docs = append(docs, toDoc(t))
	}
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, d := range docs {
			if err := tx.Create(s.transactions().NewDoc(), d); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return core.WriteError("batchCreate", "", err)
	}
	slog.InfoContext(ctx, "Transactions batch saved to Firestore", "count", len(docs))
	return nil
}

func (s *Store) InitializeCategories(ctx context.Context, names []string) error {
	col := s.client.Collection(CategoriesCollection)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, n := range names {
			if err := tx.Create(col.NewDoc(), categoryDoc{Name: n}); err != nil {
				return err
			}
		}
		return nil
	})
	return core.WriteError("initializeCategories", "", err)
}

func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	iter := s.client.Collection(CategoriesCollection).OrderBy("createdAt", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	set := core.NewCategorySet()
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, core.ReadError("listCategories", err)
		}
		var d categoryDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, core.ReadError("listCategories", err)
		}
		set.Add(d.Name)
	}
	return set.Names(), nil
}

func (s *Store) query(ctx context.Context, op string, q firestore.Query) ([]core.Transaction, error) {
	snaps, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, core.ReadError(op, err)
	}
	out := make([]core.Transaction, 0, len(snaps))
	for _, snap := range snaps {
		t, err := s.decode(snap)
		if err != nil {
			return nil, core.ReadError(op, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *Store) decode(snap *firestore.DocumentSnapshot) (core.Transaction, error) {
	var d transactionDoc
	if err := snap.DataTo(&d); err != nil {
		return core.Transaction{}, core.ReadError("decode", fmt.Errorf("document %s: %w", snap.Ref.ID, err))
	}
	t, err := fromDoc(snap.Ref.ID, d, s.loc)
	if err != nil {
		return core.Transaction{}, core.ReadError("decode", err)
	}
	return t, nil
}

func toDoc(t core.Transaction) transactionDoc {
	return transactionDoc{
		Date:        t.Date,
		Category:    t.Category,
		Amount:      t.Amount.InexactFloat64(),
		Description: t.Description,
		User:        string(t.Payer),
	}
}

func fromDoc(id string, d transactionDoc, loc *time.Location) (core.Transaction, error) {
	if !core.Payer(d.User).IsValid() {
		return core.Transaction{}, fmt.Errorf("unknown user %q on %s", d.User, id)
	}
	t := core.Transaction{
		ID:          id,
		Date:        d.Date.In(loc),
		Category:    d.Category,
		Amount:      decimal.NewFromFloat(d.Amount),
		Description: d.Description,
		Payer:       core.Payer(d.User),
		CreatedAt:   d.CreatedAt.In(loc),
	}
	if d.UpdatedAt != nil {
		t.UpdatedAt = d.UpdatedAt.In(loc)
	}
	return t, nil
}

// toUpdates lists the document paths the patch touches, always stamping
// updatedAt with the server time.
func toUpdates(p core.TransactionPatch) []firestore.Update {
	var ups []firestore.Update
	if p.Date != nil {
		ups = append(ups, firestore.Update{Path: "date", Value: *p.Date})
	}
	if p.Category != nil {
		ups = append(ups, firestore.Update{Path: "category", Value: *p.Category})
	}
	if p.Amount != nil {
		ups = append(ups, firestore.Update{Path: "amount", Value: p.Amount.InexactFloat64()})
	}
	if p.Description != nil {
		ups = append(ups, firestore.Update{Path: "description", Value: *p.Description})
	}
	if p.Payer != nil {
		ups = append(ups, firestore.Update{Path: "user", Value: string(*p.Payer)})
	}
	return append(ups, firestore.Update{Path: "updatedAt", Value: firestore.ServerTimestamp})
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}
