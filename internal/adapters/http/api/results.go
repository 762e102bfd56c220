package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/okian/ahcview/pkg/logger"
)

// ResultsHandler serves participant lookups.
type ResultsHandler struct {
	deps    Dependencies
	timeout time.Duration
	log     logger.Logger
}

// NewResultsHandler creates a new results handler.
func NewResultsHandler(deps Dependencies, timeout time.Duration) *ResultsHandler {
	return &ResultsHandler{deps: deps, timeout: timeout, log: logger.Get().Named("api")}
}

// HandleGetResults handles GET /api/ahc?user=<handle>. The legacy start and
// end parameters are accepted and ignored.
func (h *ResultsHandler) HandleGetResults(w http.ResponseWriter, r *http.Request) {
	const op = "api.results"

	user := strings.TrimSpace(r.URL.Query().Get("user"))
	if user == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrMissingUser))
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	results, err := h.deps.Results(ctx, user)
	if err != nil {
		err = WrapKind(op, ErrFetchResults, err)
		h.log.Error(r.Context(), "lookup failed", logger.String("user", user), logger.Error(err))
		if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
			// client went away; nobody is listening for the body
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	if results == nil {
		results = []Result{}
	}
	writeJSON(w, http.StatusOK, resultsResponse{Results: results})
}
