package model

import "time"

// FrequencyRange is a closed [Min,Max] interval in MHz.
type FrequencyRange struct {
	MinMHz float64 `json:"min"`
	MaxMHz float64 `json:"max"`
}

// Validate checks that the range is positive and ordered.
func (r FrequencyRange) Validate() error {
	if r.MinMHz <= 0 {
		return fieldError("frequency_range.min", "must be positive, got %v", r.MinMHz)
	}
	if r.MaxMHz < r.MinMHz {
		return fieldError("frequency_range.max", "must not be below min")
	}
	return nil
}

// Center returns the midpoint of the range.
func (r FrequencyRange) Center() float64 { return (r.MinMHz + r.MaxMHz) / 2 }

// InterferenceSource describes one contributor to an interference report.
type InterferenceSource struct {
	SourceID          string  `json:"source_id"`
	FrequencyMHz      float64 `json:"frequency_mhz"`
	EstimatedPowerDBm float64 `json:"estimated_power_dbm"`
	AzimuthDegrees    float64 `json:"azimuth_degrees"`
	InterferenceLevel float64 `json:"interference_level"`
}

// InterferenceReport aggregates interference at a location over a
// frequency range. TotalNoiseFloorDBm is the linear-power sum of all
// sources, or the thermal floor when there are none.
type InterferenceReport struct {
	ReportID           string               `json:"report_id"`
	Location           Location             `json:"location"`
	FrequencyRange     FrequencyRange       `json:"frequency_range_mhz"`
	Sources            []InterferenceSource `json:"interference_sources"`
	TotalNoiseFloorDBm float64              `json:"total_noise_floor"`
	Timestamp          time.Time            `json:"timestamp"`
}

// SpectrumPlan lists the allocations active in a window. The area polygon
// is recorded but does not currently filter the allocation set.
type SpectrumPlan struct {
	PlanID      string        `json:"plan_id"`
	AreaGeoJSON string        `json:"ao_geojson"`
	StartTime   time.Time     `json:"start_time"`
	EndTime     time.Time     `json:"end_time"`
	Allocations []*Allocation `json:"allocations"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// AllocationResult reports the outcome of a commit attempt. A FAILED
// result is a domain outcome, not an error.
type AllocationResult struct {
	AllocationID string           `json:"allocation_id"`
	Status       AllocationStatus `json:"status"`
	ExpiresAt    *time.Time       `json:"expires_at,omitempty"`
	Message      string           `json:"message"`
}
