package model

import "time"

// ThreatType classifies a detected emitter.
type ThreatType string

const (
	ThreatRadar            ThreatType = "RADAR"
	ThreatJammer           ThreatType = "JAMMER"
	ThreatCommunications   ThreatType = "COMMUNICATIONS"
	ThreatElectronicAttack ThreatType = "ELECTRONIC_ATTACK"
	ThreatUnknown          ThreatType = "UNKNOWN"
)

// ThreatLevel grades how dangerous an emitter is assessed to be.
type ThreatLevel string

const (
	ThreatLow      ThreatLevel = "LOW"
	ThreatMedium   ThreatLevel = "MEDIUM"
	ThreatHigh     ThreatLevel = "HIGH"
	ThreatCritical ThreatLevel = "CRITICAL"
)

// SignalCharacteristics describe a detected waveform. PRFHz and
// PulseWidthUs are nil for continuous emissions.
type SignalCharacteristics struct {
	Waveform     string   `json:"waveform"`
	PRFHz        *float64 `json:"prf_hz,omitempty"`
	Modulation   string   `json:"modulation"`
	PulseWidthUs *float64 `json:"pulse_width_us,omitempty"`
}

// ThreatAssessment is the engine's judgment of an emitter.
type ThreatAssessment struct {
	Type               ThreatType  `json:"threat_type"`
	Level              ThreatLevel `json:"threat_level"`
	MatchesKnownSystem string      `json:"matches_known_system,omitempty"`
	Confidence         float64     `json:"confidence"`
}

// Emitter is a reported electromagnetic source.
type Emitter struct {
	EmitterID        string                `json:"emitter_id"`
	Location         Location              `json:"location"`
	FrequencyMHz     float64               `json:"frequency_mhz"`
	BandwidthKHz     float64               `json:"bandwidth_khz"`
	Signal           SignalCharacteristics `json:"signal_characteristics"`
	DetectionTime    time.Time             `json:"detection_time"`
	Confidence       float64               `json:"confidence"`
	ThreatAssessment *ThreatAssessment     `json:"threat_assessment,omitempty"`
}

// NewEmitter validates and constructs an Emitter.
func NewEmitter(id string, loc Location, freqMHz, bandwidthKHz float64, sig SignalCharacteristics, detected time.Time, confidence float64) (*Emitter, error) {
	if id == "" {
		return nil, fieldError("emitter_id", "must not be empty")
	}
	if freqMHz <= 0 {
		return nil, fieldError("frequency_mhz", "must be positive, got %v", freqMHz)
	}
	if bandwidthKHz <= 0 {
		return nil, fieldError("bandwidth_khz", "must be positive, got %v", bandwidthKHz)
	}
	if confidence < 0 || confidence > 1 {
		return nil, fieldError("confidence", "must be in [0,1], got %v", confidence)
	}
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	return &Emitter{
		EmitterID:     id,
		Location:      loc,
		FrequencyMHz:  freqMHz,
		BandwidthKHz:  bandwidthKHz,
		Signal:        sig,
		DetectionTime: detected,
		Confidence:    confidence,
	}, nil
}
