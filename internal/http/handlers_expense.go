package http

import (
	"net/http"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Amount == nil {
		writeError(w, http.StatusBadRequest, "invalid expense", core.ErrInvalidAmount.Error())
		return
	}

	date, err := parseEntryDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid expense", err.Error())
		return
	}

	e := core.Expense{
		Amount:      *req.Amount,
		Category:    sanitizeInput(req.Category),
		Description: sanitizeInput(req.Description),
		Date:        date,
	}

	id, err := s.ledger.AddExpense(r.Context(), e)
	if err != nil {
		writeServiceError(w, r, "failed to add expense", err)
		return
	}

	applog.FromContext(r.Context()).
		EntryCreated(r.Context(), "expense", id, core.FormatAmount(e.Amount), e.Category, e.Date.String())

	writeJSON(w, http.StatusCreated, createdResponse{Message: "Expense added successfully", ID: id})
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	period, err := optionalPeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid period", err.Error())
		return
	}

	expenses, err := s.ledger.ListExpenses(r.Context(), period)
	if err != nil {
		writeServiceError(w, r, "failed to list expenses", err)
		return
	}

	writeJSON(w, http.StatusOK, expensesFromDomain(expenses))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid expense id", err.Error())
		return
	}

	removed, err := s.ledger.DeleteExpense(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, "failed to delete expense", err)
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "expense not found", core.ErrNotFound.Error())
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Expense deleted successfully"})
}
