package handlers

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"shuttle-router/internal/models"
)

// RunListResponse represents the list response
type RunListResponse struct {
	Runs   []models.RunSummary `json:"runs"`
	Total  int                 `json:"total"`
	Limit  int                 `json:"limit"`
	Offset int                 `json:"offset"`
}

// HandleListRuns handles GET /api/v1/runs
func (h *Handler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	offset := 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	log.Printf("[HTTP] GET /api/v1/runs: limit=%d offset=%d", limit, offset)
	runs, total, err := h.DB.Runs().List(r.Context(), limit, offset)
	if err != nil {
		log.Printf("[ERROR] Failed to list runs: limit=%d offset=%d err=%v", limit, offset, err)
		h.handleInternalError(w, err)
		return
	}
	if runs == nil {
		runs = []models.RunSummary{}
	}

	h.writeJSON(w, http.StatusOK, RunListResponse{
		Runs:   runs,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// HandleGetRun handles GET /api/v1/runs/{id}
func (h *Handler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	id, ok := h.runID(w, r)
	if !ok {
		return
	}

	log.Printf("[HTTP] GET /api/v1/runs/{id}: id=%s", id)
	result, err := h.DB.Runs().GetByID(r.Context(), id)
	if h.checkNotFound(err) {
		log.Printf("[HTTP] Run not found: id=%s", id)
		h.handleNotFound(w, "Run not found")
		return
	}
	if err != nil {
		log.Printf("[ERROR] Failed to get run: id=%s err=%v", id, err)
		h.handleInternalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleDeleteRun handles DELETE /api/v1/runs/{id}
func (h *Handler) HandleDeleteRun(w http.ResponseWriter, r *http.Request) {
	id, ok := h.runID(w, r)
	if !ok {
		return
	}

	log.Printf("[HTTP] DELETE /api/v1/runs/{id}: id=%s", id)
	err := h.DB.Runs().Delete(r.Context(), id)
	if h.checkNotFound(err) {
		log.Printf("[HTTP] Run not found for delete: id=%s", id)
		h.handleNotFound(w, "Run not found")
		return
	}
	if err != nil {
		log.Printf("[ERROR] Failed to delete run: id=%s err=%v", id, err)
		h.handleInternalError(w, err)
		return
	}

	log.Printf("[HTTP] Deleted run: id=%s", id)
	w.WriteHeader(http.StatusNoContent)
}

// HandleHealthCheck handles GET /api/v1/health
func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	dbStatus := "connected"

	if h.DB == nil {
		dbStatus = "disabled"
	} else if err := h.DB.HealthCheck(r.Context()); err != nil {
		log.Printf("[HTTP] Health check: database error err=%v", err)
		status = "degraded"
		dbStatus = "error"
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":   status,
		"version":  "1.0.0",
		"database": dbStatus,
	})
}

func (h *Handler) runID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/runs/")
	if id == "" || strings.Contains(id, "/") {
		log.Printf("[HTTP] %s /api/v1/runs/{id}: invalid_id=%q", r.Method, id)
		h.handleValidationError(w, "Invalid run ID")
		return "", false
	}
	return id, true
}
