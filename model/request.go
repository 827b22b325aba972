package model

import "time"

// DeconflictionRequest is a candidate allocation awaiting a decision. It
// carries a duration rather than an end time; the effective window is
// [StartTime, StartTime+Duration).
type DeconflictionRequest struct {
	RequestID       string    `json:"request_id"`
	AssetID         string    `json:"asset_id"`
	FrequencyMHz    float64   `json:"frequency_mhz"`
	BandwidthKHz    float64   `json:"bandwidth_khz"`
	PowerDBm        float64   `json:"power_dbm"`
	Location        Location  `json:"location"`
	StartTime       time.Time `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Priority        Priority  `json:"priority"`
	Purpose         string    `json:"purpose"`
	SubmittedAt     time.Time `json:"submitted_at"`
}

// NewDeconflictionRequest validates and constructs a request.
func NewDeconflictionRequest(id, assetID string, freqMHz, bandwidthKHz, powerDBm float64, loc Location, start time.Time, durationMinutes int, priority Priority, purpose string, submittedAt time.Time) (*DeconflictionRequest, error) {
	if id == "" {
		return nil, fieldError("request_id", "must not be empty")
	}
	if assetID == "" {
		return nil, fieldError("asset_id", "must not be empty")
	}
	if freqMHz <= 0 {
		return nil, fieldError("frequency_mhz", "must be positive, got %v", freqMHz)
	}
	if bandwidthKHz <= 0 {
		return nil, fieldError("bandwidth_khz", "must be positive, got %v", bandwidthKHz)
	}
	if durationMinutes <= 0 {
		return nil, fieldError("duration_minutes", "must be positive, got %d", durationMinutes)
	}
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	if priority.Rank() < 0 {
		return nil, fieldError("priority", "unknown priority %q", string(priority))
	}
	return &DeconflictionRequest{
		RequestID:       id,
		AssetID:         assetID,
		FrequencyMHz:    freqMHz,
		BandwidthKHz:    bandwidthKHz,
		PowerDBm:        powerDBm,
		Location:        loc,
		StartTime:       start,
		DurationMinutes: durationMinutes,
		Priority:        priority,
		Purpose:         purpose,
		SubmittedAt:     submittedAt,
	}, nil
}

// EndTime returns the end of the requested window.
func (r *DeconflictionRequest) EndTime() time.Time {
	return r.StartTime.Add(time.Duration(r.DurationMinutes) * time.Minute)
}

// BandMHz returns the occupied band as [min,max] MHz.
func (r *DeconflictionRequest) BandMHz() (float64, float64) {
	half := r.BandwidthKHz / 1000.0 / 2.0
	return r.FrequencyMHz - half, r.FrequencyMHz + half
}

// WithFrequency returns a copy of the request tuned to a different center
// frequency. Used by the alternative-frequency search.
func (r *DeconflictionRequest) WithFrequency(freqMHz float64) *DeconflictionRequest {
	clone := *r
	clone.FrequencyMHz = freqMHz
	return &clone
}
