// Package api exposes the audit service over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"voteaudit/domain/anomaly"
	"voteaudit/domain/core"
	"voteaudit/domain/election"
	"voteaudit/internal"
	"voteaudit/ports"
)

// Auditor is the service surface the handlers need.
type Auditor interface {
	AnalyzeAndStore(ctx context.Context, source string, units []election.UnitRecord) (*anomaly.AnomalyReport, error)
	GetReport(ctx context.Context, id core.RunID) (*anomaly.AnomalyReport, error)
	ListReports(ctx context.Context, filters ports.ReportFilters) ([]ports.ReportSummary, error)
}

// Handlers groups all HTTP handler methods and their dependencies.
type Handlers struct {
	auditor Auditor
	logger  *internal.Logger
}

// NewRouter creates the chi router with all API routes mounted. hub may be nil.
func NewRouter(auditor Auditor, hub *SSEHub, logger *internal.Logger) http.Handler {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	h := &Handlers{auditor: auditor, logger: logger}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/analyze", h.Analyze)

		r.Get("/reports", h.ListReports)
		r.Get("/reports/{id}", h.GetReport)
		r.Get("/reports/{id}/summary", h.GetSummary)

		if hub != nil {
			r.Get("/events", hub.HandleSSE)
		}
	})

	return r
}
