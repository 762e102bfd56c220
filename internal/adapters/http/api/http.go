// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/okian/ahcview/internal/domain/model"
	"github.com/okian/ahcview/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Results returns one record per catalog contest, in catalog order.
	Results(ctx context.Context, user string) ([]types.Result, error)
	// Contests returns the catalog in display order.
	Contests(ctx context.Context) []model.ContestID
}

// Result mirrors the record returned by participant lookups.
type Result = types.Result

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	resultsHandler  *ResultsHandler
	contestsHandler *ContestsHandler
}

// NewServer creates a new API server with all handlers. A zero timeout
// leaves lookups bounded only by the client connection.
func NewServer(deps Dependencies, statsProvider StatsProvider, timeout time.Duration) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		resultsHandler:  NewResultsHandler(deps, timeout),
		contestsHandler: NewContestsHandler(deps),
	}
}

// Register attaches all API routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.With(Metrics("healthz")).Get("/healthz", s.healthHandler.HandleHealth)
	r.With(Metrics("stats")).Get("/stats", s.statsHandler.HandleStats)
	r.With(Metrics("ahc")).Get("/api/ahc", s.resultsHandler.HandleGetResults)
	r.With(Metrics("contests")).Get("/api/contests", s.contestsHandler.HandleGetContests)
}

type resultsResponse struct {
	Results []Result `json:"results"`
}

type contestsResponse struct {
	Contests []string `json:"contests"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	writeJSON(w, status, errorResponse{Code: code, Message: publicMessage(err, http.StatusText(status))})
}
