package http

import (
	"context"
	"net/http"
	"time"

	"fintrack/internal/core"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady reports ready only when the ledger store answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.ledger.Ping(ctx); err != nil {
		writeError(w, http.StatusServiceUnavailable, "store unavailable", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"store":  "ok",
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, categoriesResponse{
		ExpenseCategories: core.ExpenseCategories,
		IncomeSources:     core.IncomeSources,
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	period, err := requiredPeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid period", err.Error())
		return
	}

	summary, err := s.ledger.FinancialSummary(r.Context(), period)
	if err != nil {
		writeServiceError(w, r, "failed to compute summary", err)
		return
	}

	writeJSON(w, http.StatusOK, summaryFromDomain(summary))
}

// handleCategorySummary returns only the per-category expense totals.
func (s *Server) handleCategorySummary(w http.ResponseWriter, r *http.Request) {
	period, err := requiredPeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid period", err.Error())
		return
	}

	totals, err := s.ledger.CategorySummary(r.Context(), period)
	if err != nil {
		writeServiceError(w, r, "failed to compute category summary", err)
		return
	}

	out := make([]categoryTotalResponse, len(totals))
	for i, t := range totals {
		out[i] = categoryTotalResponse{Category: t.Category, Total: number(t.Total)}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.static == nil {
		writeError(w, http.StatusNotFound, "frontend not available", "")
		return
	}
	http.ServeFileFS(w, r, s.static, "index.html")
}
