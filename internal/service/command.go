package service

import (
	"context"
	"time"

	"github.com/signalsfoundry/spectrum-deconfliction/model"
)

// Command is the closed set of operations the service executes. The
// sealed marker keeps the union enumerable: adding an operation means
// adding a type here and a branch to Execute, and an unhandled branch is
// caught at compile time by the exhaustive switch below.
type Command interface {
	isCommand()
}

type RequestDeconflictionCommand struct {
	Request *model.DeconflictionRequest
}

type AllocateFrequencyCommand struct {
	Params CommitParams
}

type InterferenceReportCommand struct {
	Location       model.Location
	FrequencyRange model.FrequencyRange
}

type SpectrumPlanCommand struct {
	AreaGeoJSON string
	StartTime   time.Time
	EndTime     time.Time
}

type ReportEmitterCommand struct {
	Location      model.Location
	FrequencyMHz  float64
	BandwidthKHz  float64
	Signal        model.SignalCharacteristics
	DetectionTime time.Time
	Confidence    float64
}

type AnalyzeCOAImpactCommand struct {
	COAID   string
	Actions []model.FriendlyAction
}

func (RequestDeconflictionCommand) isCommand() {}
func (AllocateFrequencyCommand) isCommand()    {}
func (InterferenceReportCommand) isCommand()   {}
func (SpectrumPlanCommand) isCommand()         {}
func (ReportEmitterCommand) isCommand()        {}
func (AnalyzeCOAImpactCommand) isCommand()     {}

// Execute dispatches a command to its operation and returns the domain
// result. Callers that know the concrete command should prefer the typed
// methods; this entry point exists for callers that queue or replay
// operations generically.
func (s *Service) Execute(ctx context.Context, cmd Command) (any, error) {
	switch c := cmd.(type) {
	case RequestDeconflictionCommand:
		return s.RequestDeconfliction(ctx, c.Request)
	case AllocateFrequencyCommand:
		return s.AllocateFrequency(ctx, c.Params)
	case InterferenceReportCommand:
		return s.GetInterferenceReport(ctx, c.Location, c.FrequencyRange)
	case SpectrumPlanCommand:
		return s.GetSpectrumPlan(ctx, c.AreaGeoJSON, c.StartTime, c.EndTime)
	case ReportEmitterCommand:
		return s.ReportEmitter(ctx, c.Location, c.FrequencyMHz, c.BandwidthKHz, c.Signal, c.DetectionTime, c.Confidence)
	case AnalyzeCOAImpactCommand:
		return s.AnalyzeCOAImpact(ctx, c.COAID, c.Actions)
	default:
		// Unreachable for commands defined in this package.
		return nil, &model.FieldError{Field: "command", Reason: "unknown command type"}
	}
}
