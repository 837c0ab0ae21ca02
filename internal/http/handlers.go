package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"tally/internal/core"
	"tally/internal/log"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to status codes: conflicts to 409, missing
// rows to 404, validation failures to 422.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case core.IsConflict(err):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, core.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case isValidationError(err):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	default:
		s.logger.ErrorContext(r.Context(), "Request failed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func isValidationError(err error) bool {
	for _, sentinel := range []error{
		core.ErrEmptyTitle,
		core.ErrEmptyAccount,
		core.ErrEmptyCategory,
		core.ErrInvalidAmount,
		core.ErrInvalidType,
		core.ErrInvalidPeriod,
		core.ErrInvalidFrequency,
		core.ErrZeroDate,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id %q", r.PathValue("id"))
	}
	return id, nil
}

// --- transactions ---

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	key := filterKey(f)
	if cached, ok := s.listCache.Get(key); ok {
		writeJSON(w, http.StatusOK, transactionsToDTO(cached))
		return
	}

	txs, err := s.svc.ListTransactions(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.listCache.Set(key, txs)
	writeJSON(w, http.StatusOK, transactionsToDTO(txs))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	tx, err := s.svc.GetTransaction(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transactionToDTO(tx))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var dto transactionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	tx, err := dto.toCore()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	tx.ID = 0

	created, err := s.svc.CreateTransaction(r.Context(), tx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.purgeCaches()
	writeJSON(w, http.StatusCreated, transactionToDTO(created))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	var dto transactionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	tx, err := dto.toCore()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	tx.ID = id

	if err := s.svc.UpdateTransaction(r.Context(), tx); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.purgeCaches()
	writeJSON(w, http.StatusOK, transactionToDTO(tx))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if err := s.svc.DeleteTransaction(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.purgeCaches()
	w.WriteHeader(http.StatusNoContent)
}

// handleWatchTransactions streams filtered snapshots as server-sent events.
// Every event carries the complete result set for the filter.
func (s *Server) handleWatchTransactions(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "streaming unsupported"})
		return
	}

	f, err := parseFilter(r.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	snapshots, err := s.svc.WatchTransactions(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for snapshot := range snapshots {
		payload, err := json.Marshal(transactionsToDTO(snapshot))
		if err != nil {
			s.logger.ErrorContext(r.Context(), "Failed to encode snapshot", log.FieldError, err)
			continue
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			return
		}
		flusher.Flush()
	}
}

// --- totals ---

func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	key := filterKey(f)
	if cached, ok := s.totalsCache.Get(key); ok {
		writeJSON(w, http.StatusOK, totalsToDTO(cached))
		return
	}

	totals, err := s.svc.CategoryTotals(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.totalsCache.Set(key, totals)
	writeJSON(w, http.StatusOK, totalsToDTO(totals))
}

// handleSummary serves the dashboard view: net income minus expenses plus the
// per-category breakdown, for the same filter grammar as /api/totals.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	key := filterKey(f)
	if cached, ok := s.totalsCache.Get(key); ok {
		writeJSON(w, http.StatusOK, summaryFromTotals(cached))
		return
	}

	totals, err := s.svc.CategoryTotals(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.totalsCache.Set(key, totals)
	writeJSON(w, http.StatusOK, summaryFromTotals(totals))
}

// --- accounts ---

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.svc.ListAccounts(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]accountDTO, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, accountDTO{ID: a.ID, Name: a.Name})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var dto accountDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	created, err := s.svc.CreateAccount(r.Context(), core.Account{Name: dto.Name})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.purgeCaches()
	writeJSON(w, http.StatusCreated, accountDTO{ID: created.ID, Name: created.Name})
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := s.svc.DeleteAccount(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.purgeCaches()
	w.WriteHeader(http.StatusNoContent)
}

// --- categories ---

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	var txType core.TxType
	if v := r.URL.Query().Get("type"); v != "" {
		txType = core.TxType(v)
		if !txType.Valid() {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid type %q", v)})
			return
		}
	}

	categories, err := s.svc.ListCategories(r.Context(), txType)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]categoryDTO, 0, len(categories))
	for _, c := range categories {
		out = append(out, categoryDTO{ID: c.ID, Name: c.Name, Type: string(c.Type)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var dto categoryDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	created, err := s.svc.CreateCategory(r.Context(), core.Category{
		Name: dto.Name,
		Type: core.TxType(dto.Type),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.purgeCaches()
	writeJSON(w, http.StatusCreated, categoryDTO{ID: created.ID, Name: created.Name, Type: string(created.Type)})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := s.svc.DeleteCategory(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.purgeCaches()
	w.WriteHeader(http.StatusNoContent)
}
