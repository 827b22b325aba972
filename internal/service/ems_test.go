package service

import (
	"context"
	"strings"
	"testing"

	"github.com/signalsfoundry/spectrum-deconfliction/model"
)

func prf(v float64) *float64 { return &v }

func TestReportEmitter_ThreatAssessment(t *testing.T) {
	s := newTestService()

	cases := []struct {
		name       string
		freqMHz    float64
		sig        model.SignalCharacteristics
		confidence float64
		wantType   model.ThreatType
		wantLevel  model.ThreatLevel
		wantMatch  string
	}{
		{
			name:       "x-band pulsed radar",
			freqMHz:    9400,
			sig:        model.SignalCharacteristics{Waveform: "pulsed", PRFHz: prf(1000), Modulation: "LFM"},
			confidence: 0.9,
			wantType:   model.ThreatRadar,
			wantLevel:  model.ThreatHigh,
			wantMatch:  "X-band fire control radar",
		},
		{
			name:       "s-band search radar",
			freqMHz:    3200,
			sig:        model.SignalCharacteristics{Waveform: "RADAR", Modulation: "CW"},
			confidence: 0.8,
			wantType:   model.ThreatRadar,
			wantLevel:  model.ThreatMedium,
		},
		{
			name:       "vhf comms",
			freqMHz:    150,
			sig:        model.SignalCharacteristics{Waveform: "FM voice", Modulation: "FM"},
			confidence: 0.9,
			wantType:   model.ThreatCommunications,
			wantLevel:  model.ThreatLow,
		},
		{
			name:       "low confidence pins low",
			freqMHz:    9400,
			sig:        model.SignalCharacteristics{Waveform: "pulsed", PRFHz: prf(1000), Modulation: "LFM"},
			confidence: 0.3,
			wantType:   model.ThreatRadar,
			wantLevel:  model.ThreatLow,
			wantMatch:  "X-band fire control radar",
		},
		{
			name:       "unidentified waveform",
			freqMHz:    600,
			sig:        model.SignalCharacteristics{Waveform: "chirp", Modulation: "unknown"},
			confidence: 0.7,
			wantType:   model.ThreatUnknown,
			wantLevel:  model.ThreatLow,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e, err := s.ReportEmitter(context.Background(), model.Location{Lat: 40, Lon: 45},
				tc.freqMHz, 100, tc.sig, windowStart, tc.confidence)
			if err != nil {
				t.Fatalf("ReportEmitter: %v", err)
			}
			if e.ThreatAssessment == nil {
				t.Fatalf("missing threat assessment")
			}
			if e.ThreatAssessment.Type != tc.wantType {
				t.Errorf("Type = %s, want %s", e.ThreatAssessment.Type, tc.wantType)
			}
			if e.ThreatAssessment.Level != tc.wantLevel {
				t.Errorf("Level = %s, want %s", e.ThreatAssessment.Level, tc.wantLevel)
			}
			if e.ThreatAssessment.MatchesKnownSystem != tc.wantMatch {
				t.Errorf("MatchesKnownSystem = %q, want %q", e.ThreatAssessment.MatchesKnownSystem, tc.wantMatch)
			}
			if s.emits.Get(e.EmitterID) == nil {
				t.Errorf("emitter not stored")
			}
		})
	}
}

func TestReportEmitter_RejectsBadConfidence(t *testing.T) {
	s := newTestService()
	_, err := s.ReportEmitter(context.Background(), model.Location{Lat: 40, Lon: 45},
		9400, 100, model.SignalCharacteristics{Waveform: "pulsed"}, windowStart, 1.5)
	if err == nil {
		t.Fatalf("confidence above 1 should fail validation")
	}
}

func TestAnalyzeCOAImpact_JammingDegradesEmitter(t *testing.T) {
	s := newTestService()
	// A known emitter 10 km from the jammer, on the jammer's frequency.
	if _, err := s.ReportEmitter(context.Background(), model.Location{Lat: 40.09, Lon: 45},
		500, 100, model.SignalCharacteristics{Waveform: "RADAR"}, windowStart, 0.9); err != nil {
		t.Fatalf("ReportEmitter: %v", err)
	}

	analysis, err := s.AnalyzeCOAImpact(context.Background(), "coa-1", []model.FriendlyAction{{
		ActionType:      model.ActionJamming,
		AssetID:         "jammer-1",
		FrequencyMHz:    500,
		PowerDBm:        60,
		Location:        model.Location{Lat: 40, Lon: 45},
		DurationMinutes: 30,
	}})
	if err != nil {
		t.Fatalf("AnalyzeCOAImpact: %v", err)
	}
	if len(analysis.PolicyViolations) != 0 {
		t.Fatalf("unexpected policy violations: %v", analysis.PolicyViolations)
	}
	if len(analysis.EnemyEffects.AffectedSystems) != 1 {
		t.Fatalf("AffectedSystems = %v, want one degraded system", analysis.EnemyEffects.AffectedSystems)
	}
	if analysis.EnemyEffects.ProbabilityOfDegradation <= 0 {
		t.Errorf("ProbabilityOfDegradation = %v, want > 0", analysis.EnemyEffects.ProbabilityOfDegradation)
	}
	if analysis.ImpactScore <= 0 {
		t.Errorf("ImpactScore = %v, want > 0 for effective jamming with no downside", analysis.ImpactScore)
	}
	if !strings.Contains(analysis.RiskSummary, "EFFECTIVENESS") {
		t.Errorf("RiskSummary = %q, want effectiveness wording", analysis.RiskSummary)
	}
}

func TestAnalyzeCOAImpact_PolicyViolationsDragScore(t *testing.T) {
	s := newTestService()

	// Jamming below the minimum power and past the duration cap.
	analysis, err := s.AnalyzeCOAImpact(context.Background(), "coa-1", []model.FriendlyAction{{
		ActionType:      model.ActionJamming,
		AssetID:         "jammer-1",
		FrequencyMHz:    400,
		PowerDBm:        35,
		Location:        model.Location{Lat: 40, Lon: 45},
		DurationMinutes: 90,
	}})
	if err != nil {
		t.Fatalf("AnalyzeCOAImpact: %v", err)
	}
	if len(analysis.PolicyViolations) != 2 {
		t.Fatalf("PolicyViolations = %v, want jamming power and duration findings", analysis.PolicyViolations)
	}
	if analysis.ImpactScore != 0 {
		t.Errorf("ImpactScore = %v, want 0 (violations dominate with no enemy effect)", analysis.ImpactScore)
	}
	if !strings.Contains(analysis.RiskSummary, "ROE VIOLATIONS") {
		t.Errorf("RiskSummary = %q, want violation wording", analysis.RiskSummary)
	}
}

func TestAnalyzeCOAImpact_FriendlyInterference(t *testing.T) {
	s := newTestService()
	commitExisting(t, s, "friendly-1", 500, model.Location{Lat: 40.05, Lon: 45})

	analysis, err := s.AnalyzeCOAImpact(context.Background(), "coa-1", []model.FriendlyAction{{
		ActionType:      model.ActionJamming,
		AssetID:         "jammer-1",
		FrequencyMHz:    500,
		PowerDBm:        60,
		Location:        model.Location{Lat: 40, Lon: 45},
		DurationMinutes: 30,
	}})
	if err != nil {
		t.Fatalf("AnalyzeCOAImpact: %v", err)
	}
	if len(analysis.AffectedAssets) != 1 {
		t.Fatalf("AffectedAssets = %+v, want the co-channel friendly allocation", analysis.AffectedAssets)
	}
	a := analysis.AffectedAssets[0]
	if a.AssetID != "friendly-1" || a.ImpactType != "INTERFERENCE" {
		t.Errorf("AffectedAssets[0] = %+v", a)
	}
	if a.Severity <= 0.1 {
		t.Errorf("Severity = %v, want above the significance cutoff", a.Severity)
	}
}

func TestAnalyzeCOAImpact_RejectsMalformedAction(t *testing.T) {
	s := newTestService()
	_, err := s.AnalyzeCOAImpact(context.Background(), "coa-1", []model.FriendlyAction{{
		ActionType:      "BARRAGE",
		AssetID:         "jammer-1",
		FrequencyMHz:    500,
		PowerDBm:        60,
		Location:        model.Location{Lat: 40, Lon: 45},
		DurationMinutes: 30,
	}})
	if err == nil {
		t.Fatalf("unknown action type should fail validation")
	}
}

func TestExecute_DispatchesCommands(t *testing.T) {
	s := newTestService()

	res, err := s.Execute(context.Background(), RequestDeconflictionCommand{
		Request: makeRequest(t, "r-1", 2400, model.Location{Lat: 40, Lon: 45}, model.PriorityRoutine),
	})
	if err != nil {
		t.Fatalf("Execute(RequestDeconfliction): %v", err)
	}
	decision, ok := res.(*model.Decision)
	if !ok || decision.Status != model.StatusApproved {
		t.Fatalf("Execute result = %T %+v, want approved decision", res, res)
	}

	res, err = s.Execute(context.Background(), AllocateFrequencyCommand{Params: CommitParams{
		AssetID: "asset-r-1", FrequencyMHz: 2400, BandwidthKHz: 25, PowerDBm: 30,
		Location: model.Location{Lat: 40, Lon: 45}, DurationMinutes: 60,
		AuthorizationID: decision.AuthorizationID, Priority: model.PriorityRoutine, Purpose: "test",
	}})
	if err != nil {
		t.Fatalf("Execute(AllocateFrequency): %v", err)
	}
	if result, ok := res.(*model.AllocationResult); !ok || result.Status != model.AllocationSuccess {
		t.Fatalf("Execute result = %T %+v, want successful allocation", res, res)
	}
}
