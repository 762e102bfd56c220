package api

import (
	"net/http"
)

// ContestsHandler serves the resolved catalog.
type ContestsHandler struct {
	deps Dependencies
}

// NewContestsHandler creates a new contests handler.
func NewContestsHandler(deps Dependencies) *ContestsHandler {
	return &ContestsHandler{deps: deps}
}

// HandleGetContests handles GET /api/contests.
func (h *ContestsHandler) HandleGetContests(w http.ResponseWriter, r *http.Request) {
	ids := h.deps.Contests(r.Context())
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.Display()
	}
	writeJSON(w, http.StatusOK, contestsResponse{Contests: out})
}
