package model

import "time"

// Allocation is a committed spectrum grant. Instances are created only by
// NewAllocation and never mutated afterwards; the store owns them until
// they are removed or expire.
type Allocation struct {
	AllocationID string    `json:"allocation_id"`
	AssetID      string    `json:"asset_id"`
	FrequencyMHz float64   `json:"frequency_mhz"`
	BandwidthKHz float64   `json:"bandwidth_khz"`
	PowerDBm     float64   `json:"power_dbm"`
	Location     Location  `json:"location"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Priority     Priority  `json:"priority"`
	Purpose      string    `json:"purpose"`
}

// NewAllocation validates and constructs an Allocation.
func NewAllocation(id, assetID string, freqMHz, bandwidthKHz, powerDBm float64, loc Location, start, end time.Time, priority Priority, purpose string) (*Allocation, error) {
	if id == "" {
		return nil, fieldError("allocation_id", "must not be empty")
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
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	if !end.After(start) {
		return nil, fieldError("end_time", "must be after start_time")
	}
	if priority.Rank() < 0 {
		return nil, fieldError("priority", "unknown priority %q", string(priority))
	}
	return &Allocation{
		AllocationID: id,
		AssetID:      assetID,
		FrequencyMHz: freqMHz,
		BandwidthKHz: bandwidthKHz,
		PowerDBm:     powerDBm,
		Location:     loc,
		StartTime:    start,
		EndTime:      end,
		Priority:     priority,
		Purpose:      purpose,
	}, nil
}

// BandMHz returns the occupied band as [min,max] MHz, center ± bandwidth/2.
func (a *Allocation) BandMHz() (float64, float64) {
	half := a.BandwidthKHz / 1000.0 / 2.0
	return a.FrequencyMHz - half, a.FrequencyMHz + half
}

// ActiveAt reports whether the allocation covers the instant t (inclusive
// at both ends).
func (a *Allocation) ActiveAt(t time.Time) bool {
	return !t.Before(a.StartTime) && !t.After(a.EndTime)
}
