package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"shuttle-router/internal/config"
	"shuttle-router/internal/database"
	"shuttle-router/internal/problem"
	"shuttle-router/internal/routing"
)

// Handler provides common handler utilities and dependencies
type Handler struct {
	DB  database.DataStore
	Env config.Env

	// NewRouter builds a router per request from the request's solver settings.
	// Defaults to routing.NewRouter.
	NewRouter func(routing.Options) routing.Router
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (h *Handler) router(opts routing.Options) routing.Router {
	if h.NewRouter != nil {
		return h.NewRouter(opts)
	}
	return routing.NewRouter(opts)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response
func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	h.writeJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// handleNotFound handles 404 errors
func (h *Handler) handleNotFound(w http.ResponseWriter, message string) {
	h.writeError(w, http.StatusNotFound, "NOT_FOUND", message, nil)
}

// handleValidationError handles 400 errors
func (h *Handler) handleValidationError(w http.ResponseWriter, message string) {
	h.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", message, nil)
}

// handleProblemError maps malformed and infeasible problems to 400 and 422, anything else to 500
func (h *Handler) handleProblemError(w http.ResponseWriter, err error) {
	var merr *problem.MalformedInputError
	if errors.As(err, &merr) {
		h.writeError(w, http.StatusBadRequest, "MALFORMED_INPUT", err.Error(), map[string]interface{}{
			"field": merr.Field,
		})
		return
	}

	var ierr *problem.InfeasibleError
	if errors.As(err, &ierr) {
		h.writeError(w, http.StatusUnprocessableEntity, "INFEASIBLE_PROBLEM", ierr.Reason, map[string]interface{}{
			"total_demand":   ierr.TotalDemand,
			"total_capacity": ierr.TotalCapacity,
			"unassigned":     ierr.Unassigned,
		})
		return
	}

	h.handleInternalError(w, err)
}

// handleInternalError handles 500 errors
func (h *Handler) handleInternalError(w http.ResponseWriter, err error) {
	log.Printf("[ERROR] Internal error: %v", err)
	h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An error occurred. Please try again.", nil)
}

// checkNotFound checks if an error is a not found error
func (h *Handler) checkNotFound(err error) bool {
	return errors.Is(err, database.ErrNotFound)
}
