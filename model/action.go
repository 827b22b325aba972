package model

// FriendlyAction is one emission in a proposed course of action.
type FriendlyAction struct {
	ActionType      ActionType `json:"action_type"`
	AssetID         string     `json:"asset_id"`
	FrequencyMHz    float64    `json:"frequency_mhz"`
	PowerDBm        float64    `json:"power_dbm"`
	Location        Location   `json:"location"`
	DurationMinutes int        `json:"duration_minutes"`
}

// Validate checks structural sanity of a single action.
func (a FriendlyAction) Validate() error {
	if _, err := ParseActionType(string(a.ActionType)); err != nil {
		return err
	}
	if a.AssetID == "" {
		return fieldError("asset_id", "must not be empty")
	}
	if a.FrequencyMHz <= 0 {
		return fieldError("frequency_mhz", "must be positive, got %v", a.FrequencyMHz)
	}
	if a.DurationMinutes <= 0 {
		return fieldError("duration_minutes", "must be positive, got %d", a.DurationMinutes)
	}
	return a.Location.Validate()
}

// AffectedAsset records the impact of a course of action on one friendly
// allocation.
type AffectedAsset struct {
	AssetID     string  `json:"asset_id"`
	ImpactType  string  `json:"impact_type"`
	Severity    float64 `json:"severity"`
	Description string  `json:"description"`
}

// EnemyEffects summarizes expected degradation of hostile emitters.
type EnemyEffects struct {
	ProbabilityOfDegradation float64  `json:"probability_of_degradation"`
	AffectedSystems          []string `json:"affected_systems"`
}

// COAImpactAnalysis scores a course of action against the current
// electromagnetic picture. ImpactScore is 0-1; higher is better.
type COAImpactAnalysis struct {
	AnalysisID       string          `json:"analysis_id"`
	COAID            string          `json:"coa_id"`
	ImpactScore      float64         `json:"impact_score"`
	RiskSummary      string          `json:"risk_summary"`
	AffectedAssets   []AffectedAsset `json:"affected_friendly_assets"`
	EnemyEffects     EnemyEffects    `json:"enemy_effects"`
	PolicyViolations []string        `json:"roe_violations"`
}
