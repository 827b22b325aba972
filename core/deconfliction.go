package core

import (
	"fmt"
	"math"
	"sort"

	"github.com/signalsfoundry/spectrum-deconfliction/model"
)

// DeconflictionEngine detects conflicts between a candidate request and
// existing allocations, searches for alternative frequencies, and applies
// the priority-override rule. The engine holds only tunable thresholds
// and is safe for concurrent use; allocations are supplied per call by
// the orchestrator.
type DeconflictionEngine struct {
	// MinFrequencySeparationMHz is the separation below which two
	// emissions are treated as co-channel for the geographic check.
	MinFrequencySeparationMHz float64

	// MinGeographicSeparationKm is the required distance between
	// co-channel emitters.
	MinGeographicSeparationKm float64

	// InterferenceThresholdDBm is the received power above which the
	// interference check fires.
	InterferenceThresholdDBm float64

	// OverrideSeverityCeiling is the exclusive bound below which
	// FLASH/IMMEDIATE priority may override conflicts.
	OverrideSeverityCeiling float64
}

// NewDeconflictionEngine returns an engine with the standard thresholds.
func NewDeconflictionEngine() *DeconflictionEngine {
	return &DeconflictionEngine{
		MinFrequencySeparationMHz: 5.0,
		MinGeographicSeparationKm: 50.0,
		InterferenceThresholdDBm:  InterferenceThresholdDBm,
		OverrideSeverityCeiling:   0.5,
	}
}

// CheckConflicts evaluates the request against each allocation whose time
// window overlaps the request's. A single pair can contribute several
// findings (frequency overlap, co-channel proximity, and predicted
// interference are reported independently, not deduplicated).
func (e *DeconflictionEngine) CheckConflicts(req *model.DeconflictionRequest, allocations []*model.Allocation) []model.Conflict {
	var conflicts []model.Conflict

	reqStart := req.StartTime
	reqEnd := req.EndTime()

	for _, alloc := range allocations {
		// Cheapest check first: no temporal overlap, no conflict.
		if !reqStart.Before(alloc.EndTime) || !alloc.StartTime.Before(reqEnd) {
			continue
		}

		if c, ok := e.frequencyConflict(req, alloc); ok {
			conflicts = append(conflicts, c)
		}
		if c, ok := e.geographicConflict(req, alloc); ok {
			conflicts = append(conflicts, c)
		}
	}

	return conflicts
}

// frequencyConflict reports band overlap with severity = overlap width
// over the request's own bandwidth, clamped to 1.
func (e *DeconflictionEngine) frequencyConflict(req *model.DeconflictionRequest, alloc *model.Allocation) (model.Conflict, bool) {
	reqMin, reqMax := req.BandMHz()
	allocMin, allocMax := alloc.BandMHz()

	if reqMax <= allocMin || reqMin >= allocMax {
		return model.Conflict{}, false
	}

	overlapMHz := math.Min(reqMax, allocMax) - math.Max(reqMin, allocMin)
	severity := math.Min(1.0, overlapMHz/(reqMax-reqMin))

	c := model.NewConflict(alloc.AssetID, model.ConflictFrequency, severity, fmt.Sprintf(
		"frequency overlap with %s: %.2f MHz overlap on %.2f MHz",
		alloc.AssetID, overlapMHz, alloc.FrequencyMHz))
	c.FrequencyMHz = alloc.FrequencyMHz
	return c, true
}

// geographicConflict covers two distinct hazards: co-channel emitters that
// are too close together, and predicted interference at the allocation's
// receiver derived from the propagation model. The interference check runs
// whenever the proximity check does not fire.
func (e *DeconflictionEngine) geographicConflict(req *model.DeconflictionRequest, alloc *model.Allocation) (model.Conflict, bool) {
	distanceKm := DistanceKm(req.Location, alloc.Location)
	separationMHz := math.Abs(req.FrequencyMHz - alloc.FrequencyMHz)

	if separationMHz < e.MinFrequencySeparationMHz && distanceKm < e.MinGeographicSeparationKm {
		severity := 1.0 - distanceKm/e.MinGeographicSeparationKm
		c := model.NewConflict(alloc.AssetID, model.ConflictGeographic, severity, fmt.Sprintf(
			"geographic conflict with %s: %.1f km separation (minimum %v km) on similar frequency %.2f MHz",
			alloc.AssetID, distanceKm, e.MinGeographicSeparationKm, alloc.FrequencyMHz))
		c.DistanceKm = distanceKm
		return c, true
	}

	return e.interferenceConflict(req, alloc, distanceKm, separationMHz)
}

func (e *DeconflictionEngine) interferenceConflict(req *model.DeconflictionRequest, alloc *model.Allocation, distanceKm, separationMHz float64) (model.Conflict, bool) {
	rxPower := req.PowerDBm - PathLoss(req.FrequencyMHz, distanceKm, false)
	rxPower -= AdjacentChannelRejection(separationMHz)

	if rxPower <= e.InterferenceThresholdDBm {
		return model.Conflict{}, false
	}

	excessDB := rxPower - e.InterferenceThresholdDBm
	severity := math.Min(1.0, excessDB/20.0)

	c := model.NewConflict(alloc.AssetID, model.ConflictGeographic, severity, fmt.Sprintf(
		"potential interference to %s: received power %.1f dBm exceeds threshold by %.1f dB at %.1f km",
		alloc.AssetID, rxPower, excessDB, distanceKm))
	c.DistanceKm = distanceKm
	return c, true
}

// SuggestAlternatives scans center frequencies from −10% to +10% of the
// request in 1 MHz steps, collecting conflict-free candidates in scan
// order. If fewer than count are clean, the remainder is filled from the
// scanned set ranked by ascending conflict count, preserving scan order
// for ties and skipping duplicates. At most count values are returned.
func (e *DeconflictionEngine) SuggestAlternatives(req *model.DeconflictionRequest, allocations []*model.Allocation, count int) []float64 {
	suggestions := make([]float64, 0, count)

	searchRange := req.FrequencyMHz * 0.1
	minFreq := req.FrequencyMHz - searchRange
	maxFreq := req.FrequencyMHz + searchRange

	type scanned struct {
		freqMHz   float64
		conflicts int
	}
	var tested []scanned

	const stepMHz = 1.0
	for freq := minFreq; freq <= maxFreq && len(suggestions) < count; freq += stepMHz {
		n := len(e.CheckConflicts(req.WithFrequency(freq), allocations))
		if n == 0 {
			suggestions = append(suggestions, freq)
		}
		tested = append(tested, scanned{freqMHz: freq, conflicts: n})
	}

	if len(suggestions) < count {
		sort.SliceStable(tested, func(i, j int) bool {
			return tested[i].conflicts < tested[j].conflicts
		})
		for _, s := range tested {
			if len(suggestions) >= count {
				break
			}
			if containsFreq(suggestions, s.freqMHz) {
				continue
			}
			suggestions = append(suggestions, s.freqMHz)
		}
	}

	if len(suggestions) > count {
		suggestions = suggestions[:count]
	}
	return suggestions
}

// EvaluatePriorityOverride decides whether the request's priority
// justifies approval despite conflicts. FLASH and IMMEDIATE traffic may
// override when every conflict's severity is strictly below the ceiling.
func (e *DeconflictionEngine) EvaluatePriorityOverride(req *model.DeconflictionRequest, conflicts []model.Conflict) bool {
	if len(conflicts) == 0 {
		return true
	}

	if req.Priority != model.PriorityFlash && req.Priority != model.PriorityImmediate {
		return false
	}

	maxSeverity := 0.0
	for _, c := range conflicts {
		if c.Severity > maxSeverity {
			maxSeverity = c.Severity
		}
	}
	return maxSeverity < e.OverrideSeverityCeiling
}

func containsFreq(freqs []float64, f float64) bool {
	for _, v := range freqs {
		if v == f {
			return true
		}
	}
	return false
}
