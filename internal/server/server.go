package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/signalsfoundry/spectrum-deconfliction/internal/observability"
	"github.com/signalsfoundry/spectrum-deconfliction/internal/service"
	"github.com/signalsfoundry/spectrum-deconfliction/model"
)

// Config for the HTTP API handler.
type Config struct {
	Service  *service.Service
	Metrics  *observability.Collector
	BasePath string
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"bad_request"`
	Message string         `json:"message" example:"invalid frequency_mhz: must be positive"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the deconfliction API.
func New(cfg Config) (http.Handler, error) {
	if cfg.Service == nil {
		return nil, errors.New("server: Service is required")
	}
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/api/v1"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	huma.DefaultArrayNullable = false
	// Override Huma errors to use the envelope above.
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			// Schema/request validation errors map to 400 bad_request.
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.Middleware())
	}
	hcfg := huma.DefaultConfig("Spectrum Deconfliction API", "0.1.0")
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerHealth(group)
	registerDeconfliction(group, cfg.Service)
	registerAllocations(group, cfg.Service)
	registerInterference(group, cfg.Service)
	registerSpectrumPlan(group, cfg.Service)
	registerEmitters(group, cfg.Service)
	registerCOA(group, cfg.Service)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// handleError maps domain validation failures to the error envelope.
// Domain outcomes (DENIED, CONFLICT, FAILED) never reach this path; they
// are returned as 200 responses the caller branches on.
func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var fe *model.FieldError
	if errors.As(err, &fe) {
		return newAPIError(http.StatusBadRequest, "bad_request", err.Error(), map[string]any{"field": fe.Field})
	}
	return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": err.Error()})
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

// DeconflictionRequestBody is the wire form of a deconfliction request.
type DeconflictionRequestBody struct {
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

func registerDeconfliction(api huma.API, svc *service.Service) {
	huma.Register(api, huma.Operation{
		OperationID: "request-deconfliction",
		Method:      http.MethodPost,
		Path:        "/deconfliction/requests",
		Summary:     "Request spectrum deconfliction",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body DeconflictionRequestBody `json:"body"`
	}) (*struct {
		Body model.Decision `json:"body"`
	}, error) {
		priority, err := model.ParsePriority(input.Body.Priority)
		if err != nil {
			return nil, handleError(err)
		}
		req, err := model.NewDeconflictionRequest(
			uuid.NewString(), input.Body.AssetID,
			input.Body.FrequencyMHz, input.Body.BandwidthKHz, input.Body.PowerDBm,
			input.Body.Location, input.Body.StartTime.UTC(), input.Body.DurationMinutes,
			priority, input.Body.Purpose, time.Now().UTC())
		if err != nil {
			return nil, handleError(err)
		}
		decision, err := svc.RequestDeconfliction(ctx, req)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body model.Decision `json:"body"`
		}{Body: *decision}, nil
	})
}

// AllocationRequestBody is the wire form of the commit step.
type AllocationRequestBody struct {
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

func registerAllocations(api huma.API, svc *service.Service) {
	huma.Register(api, huma.Operation{
		OperationID: "allocate-frequency",
		Method:      http.MethodPost,
		Path:        "/allocations",
		Summary:     "Commit an approved allocation",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body AllocationRequestBody `json:"body"`
	}) (*struct {
		Body model.AllocationResult `json:"body"`
	}, error) {
		priority, err := model.ParsePriority(input.Body.Priority)
		if err != nil {
			return nil, handleError(err)
		}
		result, err := svc.AllocateFrequency(ctx, service.CommitParams{
			AssetID:         input.Body.AssetID,
			FrequencyMHz:    input.Body.FrequencyMHz,
			BandwidthKHz:    input.Body.BandwidthKHz,
			PowerDBm:        input.Body.PowerDBm,
			Location:        input.Body.Location,
			DurationMinutes: input.Body.DurationMinutes,
			AuthorizationID: input.Body.AuthorizationID,
			Priority:        priority,
			Purpose:         input.Body.Purpose,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body model.AllocationResult `json:"body"`
		}{Body: *result}, nil
	})
}

func registerInterference(api huma.API, svc *service.Service) {
	huma.Register(api, huma.Operation{
		OperationID: "interference-report",
		Method:      http.MethodPost,
		Path:        "/interference/reports",
		Summary:     "Generate an interference report",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body struct {
			Location       model.Location       `json:"location"`
			FrequencyRange model.FrequencyRange `json:"frequency_range_mhz"`
		} `json:"body"`
	}) (*struct {
		Body model.InterferenceReport `json:"body"`
	}, error) {
		report, err := svc.GetInterferenceReport(ctx, input.Body.Location, input.Body.FrequencyRange)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body model.InterferenceReport `json:"body"`
		}{Body: *report}, nil
	})
}

func registerSpectrumPlan(api huma.API, svc *service.Service) {
	huma.Register(api, huma.Operation{
		OperationID: "spectrum-plan",
		Method:      http.MethodGet,
		Path:        "/spectrum/plan",
		Summary:     "Retrieve the allocation plan for a window",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Area      string    `query:"area" doc:"Area of operations as a GeoJSON polygon. Recorded on the plan but not used for filtering."`
		StartTime time.Time `query:"start_time"`
		EndTime   time.Time `query:"end_time"`
	}) (*struct {
		Body model.SpectrumPlan `json:"body"`
	}, error) {
		plan, err := svc.GetSpectrumPlan(ctx, input.Area, input.StartTime.UTC(), input.EndTime.UTC())
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body model.SpectrumPlan `json:"body"`
		}{Body: *plan}, nil
	})
}

// EmitterReportBody is the wire form of an emitter detection.
type EmitterReportBody struct {
	Location      model.Location              `json:"location"`
	FrequencyMHz  float64                     `json:"frequency_mhz"`
	BandwidthKHz  float64                     `json:"bandwidth_khz"`
	Signal        model.SignalCharacteristics `json:"signal_characteristics"`
	DetectionTime time.Time                   `json:"detection_time"`
	Confidence    float64                     `json:"confidence"`
}

// EmitterReportResponse echoes the stored emitter id and its assessment.
type EmitterReportResponse struct {
	EmitterID        string                  `json:"emitter_id"`
	ThreatAssessment *model.ThreatAssessment `json:"threat_assessment"`
}

func registerEmitters(api huma.API, svc *service.Service) {
	huma.Register(api, huma.Operation{
		OperationID: "report-emitter",
		Method:      http.MethodPost,
		Path:        "/emitters",
		Summary:     "Report a detected emitter",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body EmitterReportBody `json:"body"`
	}) (*struct {
		Body EmitterReportResponse `json:"body"`
	}, error) {
		emitter, err := svc.ReportEmitter(ctx, input.Body.Location,
			input.Body.FrequencyMHz, input.Body.BandwidthKHz, input.Body.Signal,
			input.Body.DetectionTime.UTC(), input.Body.Confidence)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body EmitterReportResponse `json:"body"`
		}{Body: EmitterReportResponse{
			EmitterID:        emitter.EmitterID,
			ThreatAssessment: emitter.ThreatAssessment,
		}}, nil
	})
}

func registerCOA(api huma.API, svc *service.Service) {
	huma.Register(api, huma.Operation{
		OperationID: "analyze-coa-impact",
		Method:      http.MethodPost,
		Path:        "/coa/impact",
		Summary:     "Analyze the electromagnetic impact of a course of action",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body struct {
			COAID   string                 `json:"coa_id"`
			Actions []model.FriendlyAction `json:"friendly_actions"`
		} `json:"body"`
	}) (*struct {
		Body model.COAImpactAnalysis `json:"body"`
	}, error) {
		analysis, err := svc.AnalyzeCOAImpact(ctx, input.Body.COAID, input.Body.Actions)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body model.COAImpactAnalysis `json:"body"`
		}{Body: *analysis}, nil
	})
}
