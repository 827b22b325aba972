package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/signalsfoundry/spectrum-deconfliction/internal/service"
	"github.com/signalsfoundry/spectrum-deconfliction/model"
)

var windowStart = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type seqIDs struct{ n int64 }

func (g *seqIDs) NewID() string {
	return fmt.Sprintf("id-%04d", atomic.AddInt64(&g.n, 1))
}

func newTestHandler(t *testing.T) (http.Handler, *service.Service) {
	t.Helper()
	svc := service.New(service.Options{
		Clock: fixedClock{now: windowStart},
		IDs:   &seqIDs{},
	})
	h, err := New(Config{Service: svc})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return h, svc
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func requestBody(assetID string, freqMHz float64, priority string) map[string]any {
	return map[string]any{
		"asset_id":         assetID,
		"frequency_mhz":    freqMHz,
		"bandwidth_khz":    25.0,
		"power_dbm":        30.0,
		"location":         map[string]any{"lat": 40.0, "lon": 45.0},
		"start_time":       windowStart.Format(time.RFC3339),
		"duration_minutes": 60,
		"priority":         priority,
		"purpose":          "tactical comms",
	}
}

func TestHealth(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := doJSON(t, h, http.MethodGet, "/api/v1/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decode[map[string]string](t, rec)
	if body["status"] != "ok" {
		t.Fatalf("body = %v, want status ok", body)
	}
}

func TestRequestDeconfliction_Approved(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := doJSON(t, h, http.MethodPost, "/api/v1/deconfliction/requests",
		requestBody("alpha-1", 2400, "PRIORITY"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	decision := decode[model.Decision](t, rec)
	if decision.Status != model.StatusApproved {
		t.Fatalf("status = %s, want APPROVED (%s)", decision.Status, decision.Justification)
	}
	if decision.AuthorizationID == "" {
		t.Fatal("approved decision carries no authorization id")
	}
}

func TestRequestDeconfliction_BadPriority(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := doJSON(t, h, http.MethodPost, "/api/v1/deconfliction/requests",
		requestBody("alpha-1", 2400, "URGENT"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	envelope := decode[struct {
		Error struct {
			Code    string         `json:"code"`
			Message string         `json:"message"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}](t, rec)
	if envelope.Error.Code != "bad_request" {
		t.Fatalf("code = %q, want bad_request", envelope.Error.Code)
	}
	if envelope.Error.Details["field"] != "priority" {
		t.Fatalf("details = %v, want field priority", envelope.Error.Details)
	}
}

func TestRequestDeconfliction_DeniedIsOK(t *testing.T) {
	h, _ := newTestHandler(t)
	// Guard band: denial is a domain outcome, not a transport error.
	rec := doJSON(t, h, http.MethodPost, "/api/v1/deconfliction/requests",
		requestBody("alpha-1", 121.5, "ROUTINE"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	decision := decode[model.Decision](t, rec)
	if decision.Status != model.StatusDenied {
		t.Fatalf("status = %s, want DENIED", decision.Status)
	}
	if !strings.Contains(decision.Justification, "Policy violations") {
		t.Fatalf("justification = %q", decision.Justification)
	}
}

func TestAllocateFrequency_RoundTrip(t *testing.T) {
	h, svc := newTestHandler(t)
	rec := doJSON(t, h, http.MethodPost, "/api/v1/deconfliction/requests",
		requestBody("alpha-1", 2400, "PRIORITY"))
	decision := decode[model.Decision](t, rec)
	if !decision.Approved() {
		t.Fatalf("setup: decision not approved: %s", decision.Justification)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/v1/allocations", map[string]any{
		"asset_id":         "alpha-1",
		"frequency_mhz":    2400.0,
		"bandwidth_khz":    25.0,
		"power_dbm":        30.0,
		"location":         map[string]any{"lat": 40.0, "lon": 45.0},
		"duration_minutes": 60,
		"authorization_id": decision.AuthorizationID,
		"priority":         "PRIORITY",
		"purpose":          "tactical comms",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	result := decode[model.AllocationResult](t, rec)
	if result.Status != model.AllocationSuccess {
		t.Fatalf("status = %s, message %q", result.Status, result.Message)
	}
	if result.ExpiresAt == nil || !result.ExpiresAt.Equal(windowStart.Add(time.Hour)) {
		t.Fatalf("expires_at = %v, want %v", result.ExpiresAt, windowStart.Add(time.Hour))
	}
	if svc.Allocations().Len() != 1 {
		t.Fatalf("store holds %d allocations, want 1", svc.Allocations().Len())
	}
}

func TestAllocateFrequency_BadAuthorizationIsOK(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := doJSON(t, h, http.MethodPost, "/api/v1/allocations", map[string]any{
		"asset_id":         "alpha-1",
		"frequency_mhz":    2400.0,
		"bandwidth_khz":    25.0,
		"power_dbm":        30.0,
		"location":         map[string]any{"lat": 40.0, "lon": 45.0},
		"duration_minutes": 60,
		"authorization_id": "bogus",
		"priority":         "PRIORITY",
		"purpose":          "tactical comms",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	result := decode[model.AllocationResult](t, rec)
	if result.Status != model.AllocationFailed {
		t.Fatalf("status = %s, want FAILED", result.Status)
	}
	if !strings.Contains(result.Message, "bogus") {
		t.Fatalf("message = %q", result.Message)
	}
}

func TestInterferenceReport(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := doJSON(t, h, http.MethodPost, "/api/v1/interference/reports", map[string]any{
		"location":            map[string]any{"lat": 40.0, "lon": 45.0},
		"frequency_range_mhz": map[string]any{"min": 2300.0, "max": 2500.0},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	report := decode[model.InterferenceReport](t, rec)
	if len(report.Sources) != 0 {
		t.Fatalf("sources = %d, want 0", len(report.Sources))
	}
	if report.TotalNoiseFloorDBm != -120 {
		t.Fatalf("noise floor = %v, want thermal floor", report.TotalNoiseFloorDBm)
	}
}

func TestSpectrumPlan(t *testing.T) {
	h, svc := newTestHandler(t)
	alloc, err := model.NewAllocation("alloc-1", "alpha-1", 2400, 25, 30,
		model.Location{Lat: 40, Lon: 45}, windowStart, windowStart.Add(time.Hour),
		model.PriorityRoutine, "tactical comms")
	if err != nil {
		t.Fatalf("NewAllocation: %v", err)
	}
	if err := svc.Allocations().Add(alloc); err != nil {
		t.Fatalf("Add: %v", err)
	}

	path := fmt.Sprintf("/api/v1/spectrum/plan?start_time=%s&end_time=%s",
		windowStart.Format(time.RFC3339), windowStart.Add(30*time.Minute).Format(time.RFC3339))
	rec := doJSON(t, h, http.MethodGet, path, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	plan := decode[model.SpectrumPlan](t, rec)
	if len(plan.Allocations) != 1 {
		t.Fatalf("allocations = %d, want 1", len(plan.Allocations))
	}

	// Inverted window is a request error.
	path = fmt.Sprintf("/api/v1/spectrum/plan?start_time=%s&end_time=%s",
		windowStart.Add(time.Hour).Format(time.RFC3339), windowStart.Format(time.RFC3339))
	rec = doJSON(t, h, http.MethodGet, path, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestReportEmitter(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := doJSON(t, h, http.MethodPost, "/api/v1/emitters", map[string]any{
		"location":       map[string]any{"lat": 40.0, "lon": 45.0},
		"frequency_mhz":  9400.0,
		"bandwidth_khz":  2000.0,
		"signal_characteristics": map[string]any{
			"waveform":   "pulsed",
			"prf_hz":     1000.0,
			"modulation": "pulse",
		},
		"detection_time": windowStart.Format(time.RFC3339),
		"confidence":     0.9,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decode[EmitterReportResponse](t, rec)
	if resp.EmitterID == "" {
		t.Fatal("no emitter id returned")
	}
	if resp.ThreatAssessment == nil || resp.ThreatAssessment.Type != model.ThreatRadar {
		t.Fatalf("assessment = %+v, want RADAR", resp.ThreatAssessment)
	}
	if resp.ThreatAssessment.Level != model.ThreatHigh {
		t.Fatalf("level = %s, want HIGH", resp.ThreatAssessment.Level)
	}
	if resp.ThreatAssessment.MatchesKnownSystem == "" {
		t.Fatal("x-band pulsed emitter matched no cataloged system")
	}
}

func TestCOAImpact(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := doJSON(t, h, http.MethodPost, "/api/v1/coa/impact", map[string]any{
		"coa_id": "coa-7",
		"friendly_actions": []map[string]any{{
			"action_type":      "JAMMING",
			"asset_id":         "ew-1",
			"frequency_mhz":    500.0,
			"power_dbm":        60.0,
			"location":         map[string]any{"lat": 40.0, "lon": 45.0},
			"duration_minutes": 30,
		}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	analysis := decode[model.COAImpactAnalysis](t, rec)
	if analysis.COAID != "coa-7" {
		t.Fatalf("coa_id = %q", analysis.COAID)
	}
	if analysis.RiskSummary == "" {
		t.Fatal("empty risk summary")
	}

	rec = doJSON(t, h, http.MethodPost, "/api/v1/coa/impact", map[string]any{
		"coa_id":           "",
		"friendly_actions": []map[string]any{},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for missing coa id", rec.Code)
	}
}
