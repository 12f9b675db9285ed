package http

import (
	"net/http"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	var req createIncomeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Amount == nil {
		writeError(w, http.StatusBadRequest, "invalid income", core.ErrInvalidAmount.Error())
		return
	}

	date, err := parseEntryDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid income", err.Error())
		return
	}

	inc := core.Income{
		Amount:      *req.Amount,
		Source:      sanitizeInput(req.Source),
		Description: sanitizeInput(req.Description),
		Date:        date,
	}

	id, err := s.ledger.AddIncome(r.Context(), inc)
	if err != nil {
		writeServiceError(w, r, "failed to add income", err)
		return
	}

	applog.FromContext(r.Context()).
		EntryCreated(r.Context(), "income", id, core.FormatAmount(inc.Amount), inc.Source, inc.Date.String())

	writeJSON(w, http.StatusCreated, createdResponse{Message: "Income added successfully", ID: id})
}

func (s *Server) handleListIncome(w http.ResponseWriter, r *http.Request) {
	period, err := optionalPeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid period", err.Error())
		return
	}

	income, err := s.ledger.ListIncome(r.Context(), period)
	if err != nil {
		writeServiceError(w, r, "failed to list income", err)
		return
	}

	writeJSON(w, http.StatusOK, incomesFromDomain(income))
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid income id", err.Error())
		return
	}

	removed, err := s.ledger.DeleteIncome(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, "failed to delete income", err)
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "income not found", core.ErrNotFound.Error())
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Income deleted successfully"})
}
