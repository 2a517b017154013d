package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"voteaudit/domain/anomaly"
	"voteaudit/domain/core"
	"voteaudit/domain/election"
	"voteaudit/internal"
	apperrors "voteaudit/internal/errors"
	"voteaudit/ports"
)

type mockAuditor struct {
	mock.Mock
}

func (m *mockAuditor) AnalyzeAndStore(ctx context.Context, source string, units []election.UnitRecord) (*anomaly.AnomalyReport, error) {
	args := m.Called(ctx, source, units)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anomaly.AnomalyReport), args.Error(1)
}

func (m *mockAuditor) GetReport(ctx context.Context, id core.RunID) (*anomaly.AnomalyReport, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anomaly.AnomalyReport), args.Error(1)
}

func (m *mockAuditor) ListReports(ctx context.Context, filters ports.ReportFilters) ([]ports.ReportSummary, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]ports.ReportSummary), args.Error(1)
}

func quietLogger() *internal.Logger {
	return internal.NewLoggerTo(internal.LogLevelError, "json", &bytes.Buffer{})
}

func newServer(t *testing.T, auditor Auditor, hub *SSEHub) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewRouter(auditor, hub, quietLogger()))
	t.Cleanup(srv.Close)
	return srv
}

func sampleReport() *anomaly.AnomalyReport {
	r := &anomaly.AnomalyReport{}
	r.Metadata.RunID = core.NewRunID()
	r.Metadata.TotalUnits = 3
	r.Risk.Level = anomaly.RiskMedium
	return r
}

func TestHealth(t *testing.T) {
	srv := newServer(t, new(mockAuditor), nil)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAnalyze(t *testing.T) {
	units := []election.UnitRecord{{UnitID: "u1", TurnoutCount: 10}}
	body, _ := json.Marshal(AnalyzeRequest{Units: units})

	t.Run("returns the report", func(t *testing.T) {
		auditor := new(mockAuditor)
		report := sampleReport()
		auditor.On("AnalyzeAndStore", mock.Anything, "api", units).Return(report, nil)
		srv := newServer(t, auditor, nil)

		resp, err := http.Post(srv.URL+"/api/analyze", "application/json", bytes.NewReader(body))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got anomaly.AnomalyReport
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(t, report.Metadata.RunID, got.Metadata.RunID)
		auditor.AssertExpectations(t)
	})

	t.Run("invalid input is a 400", func(t *testing.T) {
		auditor := new(mockAuditor)
		auditor.On("AnalyzeAndStore", mock.Anything, "api", units).
			Return(nil, apperrors.InvalidInput("no unit records supplied"))
		srv := newServer(t, auditor, nil)

		resp, err := http.Post(srv.URL+"/api/analyze", "application/json", bytes.NewReader(body))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var payload map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
		assert.Equal(t, apperrors.CodeInvalidInput, payload["code"])
	})

	t.Run("non-numeric count names the unit", func(t *testing.T) {
		auditor := new(mockAuditor)
		srv := newServer(t, auditor, nil)
		raw := `{"units": [{"unit_id": "u1"}, {"unit_id": "BAD-42", "valid_votes": "abc"}]}`

		resp, err := http.Post(srv.URL+"/api/analyze", "application/json", strings.NewReader(raw))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var payload map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
		assert.Equal(t, apperrors.CodeInvalidInput, payload["code"])
		assert.Contains(t, payload["error"], "BAD-42")
		assert.Contains(t, payload["error"], "valid_votes")
		auditor.AssertNotCalled(t, "AnalyzeAndStore", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := newServer(t, new(mockAuditor), nil)
		resp, err := http.Post(srv.URL+"/api/analyze", "application/json", strings.NewReader("{"))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("internal failure hides details", func(t *testing.T) {
		auditor := new(mockAuditor)
		auditor.On("AnalyzeAndStore", mock.Anything, "api", units).
			Return(nil, apperrors.DatabaseError("insert report", errors.New("connection refused")))
		srv := newServer(t, auditor, nil)

		resp, err := http.Post(srv.URL+"/api/analyze", "application/json", bytes.NewReader(body))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

func TestReports(t *testing.T) {
	report := sampleReport()
	auditor := new(mockAuditor)
	auditor.On("GetReport", mock.Anything, report.Metadata.RunID).Return(report, nil)
	missing := core.NewRunID()
	auditor.On("GetReport", mock.Anything, missing).
		Return(nil, apperrors.WithCode(apperrors.CodeNotFound, core.NewNotFoundError("report", missing.String())))
	level := anomaly.RiskHigh
	auditor.On("ListReports", mock.Anything, ports.ReportFilters{RiskLevel: &level, Limit: 5}).
		Return([]ports.ReportSummary{{RunID: report.Metadata.RunID, RiskLevel: anomaly.RiskHigh}}, nil)
	srv := newServer(t, auditor, nil)

	t.Run("get", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/reports/" + report.Metadata.RunID.String())
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("not found", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/reports/" + missing.String())
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("bad id", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/reports/not-a-uuid")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("list with filter", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/reports?risk_level=high&limit=5")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var payload struct {
			Reports []ports.ReportSummary `json:"reports"`
			Count   int                   `json:"count"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
		assert.Equal(t, 1, payload.Count)
	})

	t.Run("unknown risk level", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/reports?risk_level=severe")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("summary as html", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/reports/" + report.Metadata.RunID.String() + "/summary?format=html")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	})
}

func TestSSEHub_StreamsRunEvents(t *testing.T) {
	hub := NewSSEHub(quietLogger())
	defer hub.Close()
	srv := newServer(t, new(mockAuditor), hub)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return hub.ClientCount(AllRuns) == 1 }, 2*time.Second, 10*time.Millisecond)

	runID := core.NewRunID()
	hub.Publish(ports.RunEvent{RunID: runID, EventType: ports.EventRunCompleted})

	scanner := bufio.NewScanner(resp.Body)
	var lines []string
	for scanner.Scan() {
		line := scanner.Text()
		lines = append(lines, line)
		if strings.HasPrefix(line, "data:") {
			break
		}
	}
	require.Len(t, lines, 2)
	assert.Equal(t, "event: "+ports.EventRunCompleted, lines[0])
	assert.Contains(t, lines[1], runID.String())
}
