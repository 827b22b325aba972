package model

// Conflict is a single deconfliction finding against one existing
// allocation. FrequencyMHz and DistanceKm carry context for frequency and
// geographic findings respectively; zero when not applicable.
type Conflict struct {
	ConflictingAsset string       `json:"conflicting_asset"`
	Type             ConflictType `json:"conflict_type"`
	Severity         float64      `json:"severity"`
	Description      string       `json:"description"`
	FrequencyMHz     float64      `json:"frequency_mhz,omitempty"`
	DistanceKm       float64      `json:"distance_km,omitempty"`
}

// NewConflict constructs a finding, clamping severity into [0,1].
func NewConflict(asset string, typ ConflictType, severity float64, description string) Conflict {
	if severity < 0 {
		severity = 0
	} else if severity > 1 {
		severity = 1
	}
	return Conflict{
		ConflictingAsset: asset,
		Type:             typ,
		Severity:         severity,
		Description:      description,
	}
}

// Decision is the stored outcome for a deconfliction request. A later
// decision for the same request id overwrites the earlier one.
type Decision struct {
	RequestID              string         `json:"request_id"`
	Status                 DecisionStatus `json:"status"`
	Conflicts              []Conflict     `json:"conflict_details"`
	AlternativeFrequencies []float64      `json:"alternative_frequencies"`
	Justification          string         `json:"justification"`
	// AuthorizationID is set only on APPROVED decisions and gates the
	// later commit step.
	AuthorizationID string `json:"authorization_id,omitempty"`
}

// Approved reports whether this decision authorizes a commit.
func (d *Decision) Approved() bool {
	return d.Status == StatusApproved && d.AuthorizationID != ""
}
