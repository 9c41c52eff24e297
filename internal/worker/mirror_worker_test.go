package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kharcha/internal/amqp"
	"kharcha/internal/core"
	mirrormem "kharcha/internal/sheets/memory"
	"kharcha/internal/store/memory"
)

type failingMirror struct{ *mirrormem.Mirror }

func (failingMirror) Upsert(context.Context, core.Transaction) error {
	return errors.New("quota exceeded")
}

func setup(t *testing.T) (*memory.Store, *mirrormem.Mirror, *MirrorWorker) {
	t.Helper()
	s := memory.New()
	m := mirrormem.New()
	return s, m, NewMirrorWorker(s, m, nil)
}

func create(t *testing.T, s *memory.Store, cat string) string {
	t.Helper()
	id, err := s.Create(context.Background(), core.Transaction{
		Date:     time.Date(2024, 9, 2, 12, 0, 0, 0, time.UTC),
		Category: cat,
		Amount:   decimal.NewFromInt(5),
		Payer:    core.PayerYou,
	})
	require.NoError(t, err)
	return id
}

func TestCreateAndUpdateUpsert(t *testing.T) {
	s, m, w := setup(t)
	ctx := context.Background()
	id := create(t, s, "Food")

	require.NoError(t, w.HandleChange(ctx, amqp.NewChangeMessage(id, amqp.OpCreate)))
	require.Len(t, m.Rows(), 1)
	assert.Equal(t, "Food", m.Rows()[0][2])

	cat := "Snacks"
	require.NoError(t, s.Update(ctx, id, core.TransactionPatch{Category: &cat}))
	require.NoError(t, w.HandleChange(ctx, amqp.NewChangeMessage(id, amqp.OpUpdate)))
	require.Len(t, m.Rows(), 1)
	assert.Equal(t, "Snacks", m.Rows()[0][2])
}

func TestDeleteRemovesRow(t *testing.T) {
	s, m, w := setup(t)
	ctx := context.Background()
	id := create(t, s, "Food")
	require.NoError(t, w.HandleChange(ctx, amqp.NewChangeMessage(id, amqp.OpCreate)))

	require.NoError(t, w.HandleChange(ctx, amqp.NewChangeMessage(id, amqp.OpDelete)))
	assert.Empty(t, m.Rows())
}

func TestCreateOfVanishedRecordClearsRow(t *testing.T) {
	s, m, w := setup(t)
	ctx := context.Background()
	id := create(t, s, "Food")
	require.NoError(t, w.HandleChange(ctx, amqp.NewChangeMessage(id, amqp.OpCreate)))
	require.NoError(t, s.Delete(ctx, id))

	require.NoError(t, w.HandleChange(ctx, amqp.NewChangeMessage(id, amqp.OpUpdate)))
	assert.Empty(t, m.Rows())
}

func TestResync(t *testing.T) {
	s, m, w := setup(t)
	create(t, s, "Food")
	create(t, s, "Gift")

	require.NoError(t, w.HandleChange(context.Background(), amqp.NewChangeMessage("", amqp.OpResync)))
	assert.Len(t, m.Rows(), 2)
}

func TestMirrorFailureIsReturned(t *testing.T) {
	s := memory.New()
	w := NewMirrorWorker(s, failingMirror{mirrormem.New()}, nil)
	id := create(t, s, "Food")

	err := w.HandleChange(context.Background(), amqp.NewChangeMessage(id, amqp.OpCreate))
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestUnknownOp(t *testing.T) {
	_, _, w := setup(t)
	err := w.HandleChange(context.Background(), &amqp.ChangeMessage{ID: "x", Op: "rename"})
	assert.Error(t, err)
}
