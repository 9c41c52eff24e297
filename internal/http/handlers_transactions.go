package http

import (
	"errors"
	"net/http"
	"strconv"

	"kharcha/internal/core"
	"kharcha/internal/ledger"
	"kharcha/internal/log"
)

type snapshotResponse struct {
	State        ledger.State       `json:"state"`
	Transactions []core.Transaction `json:"transactions"`
	Loading      bool               `json:"loading"`
	Error        string             `json:"error,omitempty"`
}

func newSnapshotResponse(snap ledger.Snapshot, list []core.Transaction) snapshotResponse {
	return snapshotResponse{
		State:        snap.State,
		Transactions: list,
		Loading:      snap.Loading,
		Error:        snap.Error,
	}
}

type listResponse struct {
	Transactions []core.Transaction `json:"transactions"`
	Count        int                `json:"count"`
}

// handleListTransactions returns the session snapshot, optionally narrowed
// to one payer.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	l, ok := s.ledgerFor(w, r)
	if !ok {
		return
	}
	snap := l.Snapshot()
	list := snap.Transactions
	if payer := r.URL.Query().Get("payer"); payer != "" {
		filtered, err := l.ByPayer(payer)
		if err != nil {
			writeError(w, r, err)
			return
		}
		list = filtered
	}
	NewJSONResponse().Data(newSnapshotResponse(snap, list)).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	l, ok := s.ledgerFor(w, r)
	if !ok {
		return
	}
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := req.toTransaction(s.now(), s.loc)
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := l.Add(r.Context(), t)
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Transaction created",
		log.FieldTransactionID, created.ID,
		log.FieldCategory, created.Category,
		log.FieldAmount, created.Amount.String(),
		log.FieldPayer, created.Payer)
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/transactions/"+created.ID).
		Data(created).
		Write(w)
}

// handleBatchCreate stores every transaction in the body or none of them,
// then reloads the session so the new ids are visible.
func (s *Server) handleBatchCreate(w http.ResponseWriter, r *http.Request) {
	l, ok := s.ledgerFor(w, r)
	if !ok {
		return
	}
	var reqs []transactionRequest
	if err := decodeJSON(w, r, &reqs); err != nil {
		writeError(w, r, err)
		return
	}
	if len(reqs) == 0 {
		writeError(w, r, &core.ValidationError{Field: "transactions", Reason: "must not be empty"})
		return
	}

	now := s.now()
	batch := make([]core.Transaction, 0, len(reqs))
	for i, req := range reqs {
		t, err := req.toTransaction(now, s.loc)
		if err != nil {
			var ve *core.ValidationError
			if errors.As(err, &ve) {
				err = &core.ValidationError{Field: indexedField(i, ve.Field), Reason: ve.Reason, Err: ve.Err}
			}
			writeError(w, r, err)
			return
		}
		batch = append(batch, t)
	}

	if err := l.AddBatch(r.Context(), batch); err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Transactions batch created", "count", len(batch))

	snap := l.Snapshot()
	NewJSONResponse().Status(http.StatusCreated).Data(newSnapshotResponse(snap, snap.Transactions)).Write(w)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	l, ok := s.ledgerFor(w, r)
	if !ok {
		return
	}
	if err := l.Refresh(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	snap := l.Snapshot()
	NewJSONResponse().Data(newSnapshotResponse(snap, snap.Transactions)).Write(w)
}

// handleSearch reads through to the store; the session cache is untouched.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	l, ok := s.ledgerFor(w, r)
	if !ok {
		return
	}
	f, err := parseFilter(r.URL.Query(), s.loc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := l.Search(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(listResponse{Transactions: list, Count: len(list)}).Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	l, ok := s.ledgerFor(w, r)
	if !ok {
		return
	}
	t, err := l.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(t).Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	l, ok := s.ledgerFor(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	var req patchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	patch, err := req.toPatch(s.loc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := l.Update(r.Context(), id, patch); err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Transaction updated", log.FieldTransactionID, id)

	t, err := l.Get(r.Context(), id)
	if err != nil {
		NewJSONResponse().Status(http.StatusNoContent).Write(w)
		return
	}
	NewJSONResponse().Data(t).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	l, ok := s.ledgerFor(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	if err := l.Remove(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Transaction deleted", log.FieldTransactionID, id)
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func indexedField(i int, field string) string {
	return "transactions[" + strconv.Itoa(i) + "]." + field
}
