// Package spectrumsdk is a minimal client for the spectrum deconfliction
// HTTP API.
package spectrumsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/signalsfoundry/spectrum-deconfliction/model"
)

// Client talks to a deconfliction server.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// DeconflictionParams describe a requested transmission window.
type DeconflictionParams struct {
	AssetID         string         `json:"asset_id"`
	FrequencyMHz    float64        `json:"frequency_mhz"`
	BandwidthKHz    float64        `json:"bandwidth_khz"`
	PowerDBm        float64        `json:"power_dbm"`
	Location        model.Location `json:"location"`
	StartTime       time.Time      `json:"start_time"`
	DurationMinutes int            `json:"duration_minutes"`
	Priority        string         `json:"priority"`
	Purpose         string         `json:"purpose"`
}

// AllocationParams describe a commit of an approved request.
type AllocationParams struct {
	AssetID         string         `json:"asset_id"`
	FrequencyMHz    float64        `json:"frequency_mhz"`
	BandwidthKHz    float64        `json:"bandwidth_khz"`
	PowerDBm        float64        `json:"power_dbm"`
	Location        model.Location `json:"location"`
	DurationMinutes int            `json:"duration_minutes"`
	AuthorizationID string         `json:"authorization_id"`
	Priority        string         `json:"priority"`
	Purpose         string         `json:"purpose"`
}

// EmitterParams describe a detected emitter.
type EmitterParams struct {
	Location      model.Location              `json:"location"`
	FrequencyMHz  float64                     `json:"frequency_mhz"`
	BandwidthKHz  float64                     `json:"bandwidth_khz"`
	Signal        model.SignalCharacteristics `json:"signal_characteristics"`
	DetectionTime time.Time                   `json:"detection_time"`
	Confidence    float64                     `json:"confidence"`
}

// EmitterReport is the server's acknowledgment of a reported emitter.
type EmitterReport struct {
	EmitterID        string                  `json:"emitter_id"`
	ThreatAssessment *model.ThreatAssessment `json:"threat_assessment"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error: status=%d code=%s message=%s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// RequestDeconfliction submits a transmission request for a decision.
func (c *Client) RequestDeconfliction(ctx context.Context, params DeconflictionParams) (model.Decision, error) {
	var resp model.Decision
	err := c.do(ctx, http.MethodPost, "deconfliction/requests", params, &resp)
	return resp, err
}

// AllocateFrequency commits an approved request using its authorization id.
func (c *Client) AllocateFrequency(ctx context.Context, params AllocationParams) (model.AllocationResult, error) {
	var resp model.AllocationResult
	err := c.do(ctx, http.MethodPost, "allocations", params, &resp)
	return resp, err
}

// InterferenceReport computes aggregate interference at a location.
func (c *Client) InterferenceReport(ctx context.Context, loc model.Location, fr model.FrequencyRange) (model.InterferenceReport, error) {
	body := map[string]any{
		"location":            loc,
		"frequency_range_mhz": fr,
	}
	var resp model.InterferenceReport
	err := c.do(ctx, http.MethodPost, "interference/reports", body, &resp)
	return resp, err
}

// SpectrumPlan lists the allocations active in a window.
func (c *Client) SpectrumPlan(ctx context.Context, areaGeoJSON string, start, end time.Time) (model.SpectrumPlan, error) {
	endpoint := fmt.Sprintf("spectrum/plan?start_time=%s&end_time=%s",
		url.QueryEscape(start.Format(time.RFC3339)), url.QueryEscape(end.Format(time.RFC3339)))
	if areaGeoJSON != "" {
		endpoint += "&area=" + url.QueryEscape(areaGeoJSON)
	}
	var resp model.SpectrumPlan
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// ReportEmitter registers a detected emitter and returns its assessment.
func (c *Client) ReportEmitter(ctx context.Context, params EmitterParams) (EmitterReport, error) {
	var resp EmitterReport
	err := c.do(ctx, http.MethodPost, "emitters", params, &resp)
	return resp, err
}

// AnalyzeCOAImpact scores a course of action against the current picture.
func (c *Client) AnalyzeCOAImpact(ctx context.Context, coaID string, actions []model.FriendlyAction) (model.COAImpactAnalysis, error) {
	body := map[string]any{
		"coa_id":           coaID,
		"friendly_actions": actions,
	}
	var resp model.COAImpactAnalysis
	err := c.do(ctx, http.MethodPost, "coa/impact", body, &resp)
	return resp, err
}

// Health checks server liveness.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "health", nil, nil)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/api/v1/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(b)}
		var envelope struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(b, &envelope) == nil {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		}
		return apiErr
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
