package core

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/spectrum-deconfliction/model"
)

// RestrictedBand is a closed frequency interval that may never be used.
type RestrictedBand struct {
	Name   string  `yaml:"name"`
	MinMHz float64 `yaml:"min_mhz"`
	MaxMHz float64 `yaml:"max_mhz"`
}

// RestrictedZone is a circular no-RF area. Action types on the allow-list
// may still operate inside it.
type RestrictedZone struct {
	Name           string             `yaml:"name"`
	Location       model.Location     `yaml:"location"`
	RadiusKm       float64            `yaml:"radius_km"`
	AllowedActions []model.ActionType `yaml:"allowed_actions"`
}

// PowerLimit caps transmit power inside a frequency band.
type PowerLimit struct {
	MinMHz float64 `yaml:"min_mhz"`
	MaxMHz float64 `yaml:"max_mhz"`
	MaxDBm float64 `yaml:"max_dbm"`
}

// PolicyEngine validates requests and courses of action against static
// rules of engagement: banned bands, restricted zones, band power limits,
// priority quotas, and jamming constraints. The rule set is read-only
// during a decision, so the engine is safe for unsynchronized concurrent
// use.
type PolicyEngine struct {
	RestrictedBands []RestrictedBand `yaml:"restricted_bands"`
	RestrictedZones []RestrictedZone `yaml:"restricted_zones"`
	PowerLimits     []PowerLimit     `yaml:"power_limits"`

	// MaxConcurrentFlash bounds simultaneous FLASH-priority requests.
	MaxConcurrentFlash int `yaml:"max_concurrent_flash"`

	// Jamming-specific limits used by ValidateActions.
	MinJammingPowerDBm        float64 `yaml:"min_jamming_power_dbm"`
	MaxJammingDurationMinutes int     `yaml:"max_jamming_duration_minutes"`
}

// DefaultPolicy returns the built-in rule set: guarded emergency
// frequencies, a single medical no-RF zone, and conventional VHF/UHF/L-band
// power caps.
func DefaultPolicy() *PolicyEngine {
	return &PolicyEngine{
		RestrictedBands: []RestrictedBand{
			{Name: "civil emergency", MinMHz: 121.5, MaxMHz: 121.5},
			{Name: "military emergency", MinMHz: 243.0, MaxMHz: 243.0},
			{Name: "COSPAS-SARSAT", MinMHz: 406.0, MaxMHz: 406.1},
		},
		RestrictedZones: []RestrictedZone{
			{
				Name:     "Medical Facility Alpha",
				Location: model.Location{Lat: 35.0, Lon: 45.0},
				RadiusKm: 5.0,
				// Empty allow-list: no RF of any kind.
				AllowedActions: nil,
			},
		},
		PowerLimits: []PowerLimit{
			{MinMHz: 30.0, MaxMHz: 88.0, MaxDBm: 50.0},
			{MinMHz: 225.0, MaxMHz: 400.0, MaxDBm: 55.0},
			{MinMHz: 1000.0, MaxMHz: 2000.0, MaxDBm: 60.0},
		},
		MaxConcurrentFlash:        5,
		MinJammingPowerDBm:        40.0,
		MaxJammingDurationMinutes: 60,
	}
}

// LoadPolicy reads a YAML rule file. Fields left empty fall back to the
// built-in defaults so a partial file only overrides what it names.
func LoadPolicy(path string) (*PolicyEngine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}

	pe := DefaultPolicy()
	if err := yaml.Unmarshal(data, pe); err != nil {
		return nil, fmt.Errorf("parse policy file %s: %w", path, err)
	}
	if pe.MaxConcurrentFlash <= 0 {
		pe.MaxConcurrentFlash = DefaultPolicy().MaxConcurrentFlash
	}
	return pe, nil
}

// ValidateRequest checks a deconfliction request against every rule.
// The returned slice lists violations; empty means compliant. The checks
// are independent, so all findings are reported rather than stopping at
// the first.
func (pe *PolicyEngine) ValidateRequest(req *model.DeconflictionRequest, currentFlashCount int) []string {
	var violations []string

	violations = append(violations, pe.checkFrequency(req.FrequencyMHz)...)
	// A deconfliction request is treated as a communications emission for
	// zone purposes.
	violations = append(violations, pe.checkZones(req.Location, model.ActionCommunication)...)
	violations = append(violations, pe.checkPower(req.FrequencyMHz, req.PowerDBm)...)

	if req.Priority == model.PriorityFlash && currentFlashCount >= pe.MaxConcurrentFlash {
		violations = append(violations, fmt.Sprintf(
			"maximum concurrent FLASH priority requests exceeded (%d/%d)",
			currentFlashCount, pe.MaxConcurrentFlash))
	}

	return violations
}

// ValidateActions applies the per-emission checks to each action in a
// course of action, plus jamming-specific power and duration limits.
func (pe *PolicyEngine) ValidateActions(actions []model.FriendlyAction) []string {
	var violations []string

	for i, action := range actions {
		prefix := fmt.Sprintf("action %d (%s)", i+1, action.ActionType)

		for _, v := range pe.checkFrequency(action.FrequencyMHz) {
			violations = append(violations, prefix+": "+v)
		}
		for _, v := range pe.checkZones(action.Location, action.ActionType) {
			violations = append(violations, prefix+": "+v)
		}
		for _, v := range pe.checkPower(action.FrequencyMHz, action.PowerDBm) {
			violations = append(violations, prefix+": "+v)
		}

		if action.ActionType == model.ActionJamming {
			if action.PowerDBm < pe.MinJammingPowerDBm {
				violations = append(violations, fmt.Sprintf(
					"%s: jamming power %v dBm below minimum %v dBm",
					prefix, action.PowerDBm, pe.MinJammingPowerDBm))
			}
			if action.DurationMinutes > pe.MaxJammingDurationMinutes {
				violations = append(violations, fmt.Sprintf(
					"%s: jamming duration %d minutes exceeds maximum %d minutes",
					prefix, action.DurationMinutes, pe.MaxJammingDurationMinutes))
			}
		}
	}

	return violations
}

func (pe *PolicyEngine) checkFrequency(freqMHz float64) []string {
	var violations []string
	for _, band := range pe.RestrictedBands {
		if freqMHz >= band.MinMHz && freqMHz <= band.MaxMHz {
			violations = append(violations, fmt.Sprintf(
				"frequency %v MHz is in restricted band %v-%v MHz (%s)",
				freqMHz, band.MinMHz, band.MaxMHz, band.Name))
		}
	}
	return violations
}

func (pe *PolicyEngine) checkZones(loc model.Location, action model.ActionType) []string {
	var violations []string
	for _, zone := range pe.RestrictedZones {
		dist := DistanceKm(loc, zone.Location)
		if dist > zone.RadiusKm {
			continue
		}
		if zoneAllows(zone, action) {
			continue
		}
		violations = append(violations, fmt.Sprintf(
			"location within restricted zone %q (%.1f km from center, %v km radius); action type %s not permitted",
			zone.Name, dist, zone.RadiusKm, action))
	}
	return violations
}

func (pe *PolicyEngine) checkPower(freqMHz, powerDBm float64) []string {
	var violations []string
	for _, limit := range pe.PowerLimits {
		if freqMHz >= limit.MinMHz && freqMHz <= limit.MaxMHz && powerDBm > limit.MaxDBm {
			violations = append(violations, fmt.Sprintf(
				"power %v dBm exceeds limit of %v dBm for frequency band %v-%v MHz",
				powerDBm, limit.MaxDBm, limit.MinMHz, limit.MaxMHz))
		}
	}
	return violations
}

func zoneAllows(zone RestrictedZone, action model.ActionType) bool {
	for _, allowed := range zone.AllowedActions {
		if allowed == action {
			return true
		}
	}
	return false
}
