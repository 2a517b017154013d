package api

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"voteaudit/app"
	"voteaudit/domain/anomaly"
	"voteaudit/domain/core"
	"voteaudit/domain/election"
	"voteaudit/internal"
	apperrors "voteaudit/internal/errors"
	"voteaudit/ports"
)

const maxBodyBytes = 32 << 20

// AnalyzeRequest is the POST /api/analyze body.
type AnalyzeRequest struct {
	Source string                `json:"source,omitempty"`
	Units  []election.UnitRecord `json:"units"`
}

// analyzeBody is AnalyzeRequest with units left raw for per-unit decoding.
type analyzeBody struct {
	Source string            `json:"source"`
	Units  []json.RawMessage `json:"units"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		internal.DefaultLogger.Warn("[api] encode error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps error codes to HTTP status.
func statusFor(err error) int {
	switch apperrors.GetCode(err) {
	case apperrors.CodeInvalidInput:
		return http.StatusBadRequest
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeSourceError:
		return http.StatusBadGateway
	}
	switch {
	case core.IsNotFoundError(err):
		return http.StatusNotFound
	case stderrors.Is(err, core.ErrInvalidUnit), stderrors.Is(err, core.ErrDuplicateKey):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("[api] %s %s: %v", r.Method, r.URL.Path, err)
		writeError(w, status, "internal error")
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error(), "code": apperrors.GetCode(err)})
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Analyze runs the engine over the posted units and returns the report.
func (h *Handlers) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Source == "" {
		req.Source = "api"
	}
	units, err := election.DecodeUnits(req.Units, election.DecodeUnit)
	if err != nil {
		h.fail(w, r, apperrors.InvalidInputCause(err))
		return
	}

	report, err := h.auditor.AnalyzeAndStore(r.Context(), req.Source, units)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return def
	}
	return v
}

// ListReports lists stored reports, newest first.
func (h *Handlers) ListReports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := ports.ReportFilters{
		Limit:  parseIntDefault(q.Get("limit"), 50),
		Offset: parseIntDefault(q.Get("offset"), 0),
	}
	if lvl := q.Get("risk_level"); lvl != "" {
		level := anomaly.RiskLevel(strings.ToUpper(lvl))
		switch level {
		case anomaly.RiskLow, anomaly.RiskMedium, anomaly.RiskHigh, anomaly.RiskCritical:
			filters.RiskLevel = &level
		default:
			writeError(w, http.StatusBadRequest, "unknown risk_level "+lvl)
			return
		}
	}

	reports, err := h.auditor.ListReports(r.Context(), filters)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"reports": reports, "count": len(reports)})
}

func (h *Handlers) loadReport(w http.ResponseWriter, r *http.Request) (*anomaly.AnomalyReport, bool) {
	id, err := core.ParseRunID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	report, err := h.auditor.GetReport(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	return report, true
}

// GetReport returns one stored report.
func (h *Handlers) GetReport(w http.ResponseWriter, r *http.Request) {
	if report, ok := h.loadReport(w, r); ok {
		writeJSON(w, http.StatusOK, report)
	}
}

// GetSummary renders a stored report as Markdown, or HTML with ?format=html.
func (h *Handlers) GetSummary(w http.ResponseWriter, r *http.Request) {
	report, ok := h.loadReport(w, r)
	if !ok {
		return
	}
	if r.URL.Query().Get("format") == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(app.RenderSummaryHTML(report))
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write([]byte(app.RenderSummary(report)))
}
