package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/export"
)

type transactionRequest struct {
	Title      string  `json:"title"`
	Cash       float64 `json:"cash"`
	Type       string  `json:"type"`
	CategoryID int64   `json:"category_id"`
}

type transactionPatchRequest struct {
	Title      *string  `json:"title"`
	Cash       *float64 `json:"cash"`
	Type       *string  `json:"type"`
	CategoryID *int64   `json:"category_id"`
}

type transactionResponse struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Cash       float64   `json:"cash"`
	Type       string    `json:"type"`
	CategoryID int64     `json:"category_id"`
	UserID     int64     `json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
}

type monthSummaryResponse struct {
	Month   string  `json:"month"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

type categorySummaryResponse struct {
	Income     float64 `json:"income"`
	Expense    float64 `json:"expense"`
	CategoryID *int64  `json:"category_id"`
}

func newTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:         t.ID,
		Title:      t.Title,
		Cash:       t.Cash,
		Type:       string(t.Type),
		CategoryID: t.CategoryID,
		UserID:     t.UserID,
		CreatedAt:  t.CreatedAt,
	}
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, core.ErrMalformedBody)
		return
	}

	transaction, err := s.transactions.Create(r.Context(), currentUser(r.Context()).ID, core.NewTransactionInput{
		Title:      req.Title,
		Cash:       req.Cash,
		Type:       core.TransactionType(req.Type),
		CategoryID: req.CategoryID,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, newTransactionResponse(transaction))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	transaction, err := s.transactions.Get(r.Context(), currentUser(r.Context()).ID, id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newTransactionResponse(transaction))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req transactionPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, core.ErrMalformedBody)
		return
	}

	patch := core.TransactionPatch{
		Title:      req.Title,
		Cash:       req.Cash,
		CategoryID: req.CategoryID,
	}
	if req.Type != nil {
		t := core.TransactionType(*req.Type)
		patch.Type = &t
	}

	transaction, err := s.transactions.Update(r.Context(), currentUser(r.Context()).ID, id, patch)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newTransactionResponse(transaction))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.transactions.Delete(r.Context(), currentUser(r.Context()).ID, id); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	page := core.Page{
		Limit:  queryInt(r, "limit", 0),
		Offset: queryInt(r, "offset", 0),
		SortBy: core.SortField(strings.TrimSpace(r.URL.Query().Get("sort_by"))),
		Order:  strings.TrimSpace(r.URL.Query().Get("order")),
	}

	transactions, err := s.transactions.List(r.Context(), currentUser(r.Context()).ID, filter, page)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	resp := make([]transactionResponse, 0, len(transactions))
	for _, t := range transactions {
		resp = append(resp, newTransactionResponse(t))
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	asOf, err := queryDate(r, "current_date")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var t time.Time
	if asOf != nil {
		t = *asOf
	}
	balance, err := s.transactions.Balance(r.Context(), currentUser(r.Context()).ID, t)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, balance)
}

func (s *Server) handleMonthAnalytics(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	year := queryInt(r, "year", now.Year())
	month := queryInt(r, "month", int(now.Month()))

	summary, err := s.transactions.MonthSummary(r.Context(), currentUser(r.Context()).ID, year, month)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, monthSummaryResponse(summary))
}

func (s *Server) handleCategoryAnalytics(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	summary, err := s.transactions.CategorySummary(r.Context(), currentUser(r.Context()).ID, filter)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, categorySummaryResponse{
		Income:     summary.Income,
		Expense:    summary.Expense,
		CategoryID: summary.CategoryID,
	})
}

// handleSyncExport streams the caller's full history as CSV.
func (s *Server) handleSyncExport(w http.ResponseWriter, r *http.Request) {
	transactions, err := s.transactions.All(r.Context(), currentUser(r.Context()).ID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	filename := export.SyncFilename(time.Now())
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := export.WriteSync(w, transactions); err != nil {
		s.logger.ErrorContext(r.Context(), "csv stream failed", "error", err)
	}
}

func parseFilter(r *http.Request) (core.TransactionFilter, error) {
	var filter core.TransactionFilter

	if v := strings.TrimSpace(r.URL.Query().Get("type")); v != "" {
		t := core.TransactionType(v)
		if !t.Valid() {
			return core.TransactionFilter{}, core.ErrInvalidType
		}
		filter.Type = &t
	}

	start, err := queryDate(r, "start_date")
	if err != nil {
		return core.TransactionFilter{}, err
	}
	filter.StartDate = start

	end, err := queryDate(r, "end_date")
	if err != nil {
		return core.TransactionFilter{}, err
	}
	filter.EndDate = end

	categoryID, err := queryInt64(r, "category_id")
	if err != nil {
		return core.TransactionFilter{}, err
	}
	filter.CategoryID = categoryID

	return filter, nil
}
