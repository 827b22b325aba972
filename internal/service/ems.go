package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/signalsfoundry/spectrum-deconfliction/core"
	"github.com/signalsfoundry/spectrum-deconfliction/internal/logging"
	"github.com/signalsfoundry/spectrum-deconfliction/model"
)

// Assumptions used when modelling hostile links, for lack of measured
// values: transmitter power and receiver standoff of an enemy system.
const (
	assumedEnemyPowerDBm      = 30.0
	assumedEnemyReceiverKm    = 50.0
	significantImpactSeverity = 0.1
)

// ReportEmitter records a detected emitter and attaches a threat
// assessment derived from its waveform and frequency.
func (s *Service) ReportEmitter(ctx context.Context, loc model.Location, freqMHz, bandwidthKHz float64, sig model.SignalCharacteristics, detected time.Time, confidence float64) (*model.Emitter, error) {
	ctx, span := s.tracer.Start(ctx, "ReportEmitter")
	defer span.End()

	emitter, err := model.NewEmitter(s.ids.NewID(), loc, freqMHz, bandwidthKHz, sig, detected, confidence)
	if err != nil {
		return nil, err
	}
	assessment := assessThreat(emitter)
	if sig, ok := s.known.Match(emitter); ok {
		assessment.MatchesKnownSystem = sig.Name
	}
	emitter.ThreatAssessment = &assessment

	if err := s.emits.Add(emitter); err != nil {
		return nil, err
	}

	s.log.Info(ctx, "emitter reported",
		logging.String("emitter_id", emitter.EmitterID),
		logging.Float64("frequency_mhz", freqMHz),
		logging.String("threat_level", string(assessment.Level)),
	)
	return emitter, nil
}

// AnalyzeCOAImpact scores a proposed course of action against the current
// electromagnetic picture: policy compliance, interference onto friendly
// allocations, and expected degradation of known hostile emitters.
func (s *Service) AnalyzeCOAImpact(ctx context.Context, coaID string, actions []model.FriendlyAction) (*model.COAImpactAnalysis, error) {
	ctx, span := s.tracer.Start(ctx, "AnalyzeCOAImpact")
	defer span.End()

	if coaID == "" {
		return nil, &model.FieldError{Field: "coa_id", Reason: "must not be empty"}
	}
	for i, action := range actions {
		if err := action.Validate(); err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
	}

	violations := s.policy.ValidateActions(actions)
	affected := s.friendlyImpact(actions)
	enemy := s.enemyImpact(actions)

	analysis := &model.COAImpactAnalysis{
		AnalysisID:       s.ids.NewID(),
		COAID:            coaID,
		ImpactScore:      impactScore(affected, enemy, violations),
		RiskSummary:      riskSummary(affected, enemy, violations),
		AffectedAssets:   affected,
		EnemyEffects:     enemy,
		PolicyViolations: violations,
	}

	s.log.Info(ctx, "coa analysis complete",
		logging.String("coa_id", coaID),
		logging.Float64("impact_score", analysis.ImpactScore),
	)
	return analysis, nil
}

// friendlyImpact estimates interference from each action onto every
// currently active friendly allocation, reporting only significant hits.
func (s *Service) friendlyImpact(actions []model.FriendlyAction) []model.AffectedAsset {
	allocations := s.allocs.ActiveAt(s.clock.Now())

	var affected []model.AffectedAsset
	for _, action := range actions {
		for _, alloc := range allocations {
			distanceKm := core.DistanceKm(action.Location, alloc.Location)
			powerDBm, severity := core.InterferenceLevel(action.PowerDBm, action.FrequencyMHz, alloc.FrequencyMHz, distanceKm)
			if severity <= significantImpactSeverity {
				continue
			}
			affected = append(affected, model.AffectedAsset{
				AssetID:    alloc.AssetID,
				ImpactType: "INTERFERENCE",
				Severity:   severity,
				Description: fmt.Sprintf("Interference from %s: %.1f dBm at %.1f km",
					action.ActionType, powerDBm, distanceKm),
			})
		}
	}
	return affected
}

// enemyImpact estimates jamming effectiveness against every known
// emitter. Only JAMMING actions contribute; the enemy link is modelled
// with assumed transmitter power and receiver standoff.
func (s *Service) enemyImpact(actions []model.FriendlyAction) model.EnemyEffects {
	emitters := s.emits.All()

	degraded := make(map[string]struct{})
	maxDegradation := 0.0
	for _, action := range actions {
		if action.ActionType != model.ActionJamming {
			continue
		}
		for _, emitter := range emitters {
			distanceKm := core.DistanceKm(action.Location, emitter.Location)
			jsRatio := core.JammingEffectiveness(action.PowerDBm, action.FrequencyMHz,
				assumedEnemyPowerDBm, emitter.FrequencyMHz, assumedEnemyReceiverKm, distanceKm)
			if jsRatio <= 0 {
				continue
			}
			prob := jsRatio / 20
			if prob > 1 {
				prob = 1
			}
			if prob > maxDegradation {
				maxDegradation = prob
			}
			degraded[systemName(emitter)] = struct{}{}
		}
	}

	systems := make([]string, 0, len(degraded))
	for name := range degraded {
		systems = append(systems, name)
	}
	sort.Strings(systems)

	return model.EnemyEffects{
		ProbabilityOfDegradation: maxDegradation,
		AffectedSystems:          systems,
	}
}

func systemName(e *model.Emitter) string {
	if e.ThreatAssessment != nil && e.ThreatAssessment.MatchesKnownSystem != "" {
		return e.ThreatAssessment.MatchesKnownSystem
	}
	id := e.EmitterID
	if len(id) > 8 {
		id = id[:8]
	}
	return "Emitter-" + id
}

// impactScore folds effects into a 0-1 score; higher is better. Enemy
// degradation contributes, friendly interference and policy violations
// subtract.
func impactScore(affected []model.AffectedAsset, enemy model.EnemyEffects, violations []string) float64 {
	score := enemy.ProbabilityOfDegradation * 0.6

	if len(affected) > 0 {
		sum := 0.0
		for _, a := range affected {
			sum += a.Severity
		}
		score -= (sum / float64(len(affected))) * 0.3
	}
	if len(violations) > 0 {
		score -= 0.5
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func riskSummary(affected []model.AffectedAsset, enemy model.EnemyEffects, violations []string) string {
	var parts []string

	if len(violations) > 0 {
		parts = append(parts, fmt.Sprintf("ROE VIOLATIONS: %d violation(s)", len(violations)))
	}
	if len(affected) > 0 {
		high := 0
		for _, a := range affected {
			if a.Severity > 0.7 {
				high++
			}
		}
		if high > 0 {
			parts = append(parts, fmt.Sprintf("HIGH RISK: %d friendly asset(s) severely impacted", high))
		} else {
			parts = append(parts, fmt.Sprintf("MODERATE RISK: %d friendly asset(s) impacted", len(affected)))
		}
	}
	if len(enemy.AffectedSystems) > 0 {
		parts = append(parts, fmt.Sprintf("EFFECTIVENESS: %d enemy system(s) degraded (%.0f%% probability)",
			len(enemy.AffectedSystems), enemy.ProbabilityOfDegradation*100))
	}

	if len(parts) == 0 {
		return "LOW RISK: Minimal impact on friendly assets, limited enemy effects"
	}
	return strings.Join(parts, "; ")
}

// assessThreat classifies an emitter from waveform hints and frequency
// band. X-band and above reads as fire-control radar, S-band as search
// radar. Low-confidence detections are pinned to LOW.
func assessThreat(e *model.Emitter) model.ThreatAssessment {
	waveform := strings.ToUpper(e.Signal.Waveform)

	var threatType model.ThreatType
	switch {
	case strings.Contains(waveform, "RADAR") || e.Signal.PRFHz != nil:
		threatType = model.ThreatRadar
	case strings.Contains(waveform, "JAM"):
		threatType = model.ThreatJammer
	case strings.Contains(waveform, "COMM") || strings.Contains(waveform, "FM") || strings.Contains(waveform, "AM"):
		threatType = model.ThreatCommunications
	default:
		threatType = model.ThreatUnknown
	}

	var level model.ThreatLevel
	switch {
	case e.FrequencyMHz > 8000:
		level = model.ThreatHigh
	case e.FrequencyMHz > 2000:
		level = model.ThreatMedium
	default:
		level = model.ThreatLow
	}
	if e.Confidence < 0.5 {
		level = model.ThreatLow
	}

	return model.ThreatAssessment{
		Type:       threatType,
		Level:      level,
		Confidence: e.Confidence,
	}
}
