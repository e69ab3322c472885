package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"shuttle-router/internal/config"
	"shuttle-router/internal/problem"
)

const maxSolveBody = 4 << 20

// SolveRequest is an instance plus request-level flags
type SolveRequest struct {
	config.Instance

	// Save stores the result in run history
	Save bool `json:"save,omitempty"`
}

// HandleSolve handles POST /api/v1/solve
func (h *Handler) HandleSolve(w http.ResponseWriter, r *http.Request) {
	var req SolveRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSolveBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		log.Printf("[HTTP] POST /api/v1/solve: invalid_json err=%v", err)
		h.handleProblemError(w, &problem.MalformedInputError{Field: "body", Reason: "invalid JSON", Err: err})
		return
	}

	solver := req.Solver.WithDefaults(h.Env)
	solver.TimeLimit = h.clampTimeLimit(solver.TimeLimit)
	opts, err := solver.RoutingOptions()
	if err != nil {
		log.Printf("[HTTP] POST /api/v1/solve: invalid_options err=%v", err)
		h.handleProblemError(w, err)
		return
	}

	in, err := req.ProblemInput()
	if err != nil {
		log.Printf("[HTTP] POST /api/v1/solve: invalid_instance err=%v", err)
		h.handleProblemError(w, err)
		return
	}

	log.Printf("[HTTP] POST /api/v1/solve: staff=%d vehicles=%d strategy=%s save=%v",
		len(in.Staff), len(in.Vehicles), opts.Strategy, req.Save)

	p, err := problem.New(r.Context(), in, solver.ProblemOptions())
	if err != nil {
		log.Printf("[HTTP] POST /api/v1/solve: problem_error err=%v", err)
		h.handleProblemError(w, err)
		return
	}

	result, err := h.router(opts).CalculateRoutes(r.Context(), p)
	if err != nil {
		log.Printf("[ERROR] Route calculation failed: err=%v", err)
		h.handleProblemError(w, err)
		return
	}

	if req.Save {
		if h.DB == nil {
			h.handleValidationError(w, "Run history is not configured")
			return
		}
		if err := h.DB.Runs().Create(r.Context(), result, req.Notes); err != nil {
			log.Printf("[ERROR] Failed to save run: id=%s err=%v", result.RunID, err)
			h.handleInternalError(w, err)
			return
		}
		log.Printf("[HTTP] Saved run: id=%s", result.RunID)
	}

	log.Printf("[HTTP] POST /api/v1/solve: run=%s distance=%.4f stop=%s",
		result.RunID, result.Summary.TotalDistance, result.Summary.StopReason)
	h.writeJSON(w, http.StatusOK, result)
}

// clampTimeLimit keeps a request's search within the server's time limit, which
// also sizes the write timeout. A negative limit means unlimited and is clamped too.
func (h *Handler) clampTimeLimit(limit config.Duration) config.Duration {
	ceiling := config.Duration(h.Env.TimeLimit)
	if ceiling <= 0 {
		return limit
	}
	if limit <= 0 || limit > ceiling {
		log.Printf("[HTTP] POST /api/v1/solve: time_limit=%v clamped to %v", time.Duration(limit), h.Env.TimeLimit)
		return ceiling
	}
	return limit
}
