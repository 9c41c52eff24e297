package http

import (
	"net/http"

	"kharcha/internal/report"
)

const (
	maxTopCategories = 17
	defaultMonths    = 12
	maxMonths        = 120
)

type dayGroupsResponse struct {
	Month  report.Month       `json:"month"`
	Label  string             `json:"label"`
	Payer  string             `json:"payer"`
	Groups []report.DateGroup `json:"groups"`
}

type monthEntry struct {
	Month report.Month `json:"month"`
	Label string       `json:"label"`
}

// handleMonthReport summarises one month of the session cache.
func (s *Server) handleMonthReport(w http.ResponseWriter, r *http.Request) {
	l, ok := s.ledgerFor(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	m, err := parseMonthParam(q, s.now().In(s.loc))
	if err != nil {
		writeError(w, r, err)
		return
	}
	top, err := parseIntParam(q, "top", report.DefaultTopCategories, maxTopCategories)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(report.BuildMonthOverview(l.Transactions(), m, top)).Write(w)
}

// handleDayGroups lists one month's transactions bucketed by day, most
// recent day first.
func (s *Server) handleDayGroups(w http.ResponseWriter, r *http.Request) {
	l, ok := s.ledgerFor(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	m, err := parseMonthParam(q, s.now().In(s.loc))
	if err != nil {
		writeError(w, r, err)
		return
	}
	payer := q.Get("payer")
	list, err := l.ByPayer(payer)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if payer == "" {
		payer = report.PayerAll
	}
	groups := report.GroupByDateLabel(report.SortByDateDescending(m.Filter(list)))
	NewJSONResponse().Data(dayGroupsResponse{
		Month:  m,
		Label:  m.Label(),
		Payer:  payer,
		Groups: groups,
	}).Write(w)
}

func (s *Server) handleMonths(w http.ResponseWriter, r *http.Request) {
	n, err := parseIntParam(r.URL.Query(), "n", defaultMonths, maxMonths)
	if err != nil {
		writeError(w, r, err)
		return
	}
	months := report.RecentMonths(s.now().In(s.loc), n)
	out := make([]monthEntry, 0, len(months))
	for _, m := range months {
		out = append(out, monthEntry{Month: m, Label: m.Label()})
	}
	NewJSONResponse().Data(out).Write(w)
}

type categoriesResponse struct {
	Categories []string `json:"categories"`
	Added      int      `json:"added,omitempty"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	l, ok := s.ledgerFor(w, r)
	if !ok {
		return
	}
	NewJSONResponse().Data(categoriesResponse{Categories: l.Categories()}).Write(w)
}

// handleAddCategories records session-only categories.
func (s *Server) handleAddCategories(w http.ResponseWriter, r *http.Request) {
	l, ok := s.ledgerFor(w, r)
	if !ok {
		return
	}
	var req categoriesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	names := req.all()
	if len(names) == 0 {
		writeError(w, r, badRequestf("name or names is required"))
		return
	}
	added := l.AddCategory(names...)
	status := http.StatusOK
	if added > 0 {
		status = http.StatusCreated
	}
	NewJSONResponse().Status(status).Data(categoriesResponse{Categories: l.Categories(), Added: added}).Write(w)
}
