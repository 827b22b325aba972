package model

import (
	"errors"
	"testing"
	"time"
)

func TestNewAllocation_EndBeforeStart(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	_, err := NewAllocation("a-1", "asset-1", 2400, 25, 30, Location{Lat: 35, Lon: 45}, start, start, PriorityRoutine, "test")
	if err == nil {
		t.Fatalf("expected error for end_time == start_time")
	}
	var fe *FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FieldError, got %T", err)
	}
	if fe.Field != "end_time" {
		t.Errorf("field = %q, want end_time", fe.Field)
	}
}

func TestNewAllocation_RejectsNonPositiveFrequency(t *testing.T) {
	start := time.Now()
	for _, freq := range []float64{0, -2400} {
		_, err := NewAllocation("a-1", "asset-1", freq, 25, 30, Location{Lat: 35, Lon: 45}, start, start.Add(time.Hour), PriorityRoutine, "test")
		if err == nil {
			t.Errorf("frequency %v: expected error", freq)
		}
	}
}

func TestNewDeconflictionRequest_InvalidLocation(t *testing.T) {
	_, err := NewDeconflictionRequest("r-1", "asset-1", 2400, 25, 30, Location{Lat: 91, Lon: 0}, time.Now(), 60, PriorityRoutine, "test", time.Now())
	if err == nil {
		t.Fatalf("expected error for latitude 91")
	}
	var fe *FieldError
	if !errors.As(err, &fe) || fe.Field != "location.lat" {
		t.Fatalf("expected location.lat field error, got %v", err)
	}
}

func TestRequestEndTime(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	req, err := NewDeconflictionRequest("r-1", "asset-1", 2400, 25, 30, Location{Lat: 35, Lon: 45}, start, 90, PriorityFlash, "test", start)
	if err != nil {
		t.Fatalf("NewDeconflictionRequest: %v", err)
	}
	want := start.Add(90 * time.Minute)
	if !req.EndTime().Equal(want) {
		t.Errorf("EndTime = %v, want %v", req.EndTime(), want)
	}
}

func TestBandMHz(t *testing.T) {
	req, err := NewDeconflictionRequest("r-1", "asset-1", 2400, 1000, 30, Location{Lat: 35, Lon: 45}, time.Now(), 60, PriorityRoutine, "test", time.Now())
	if err != nil {
		t.Fatalf("NewDeconflictionRequest: %v", err)
	}
	lo, hi := req.BandMHz()
	if lo != 2399.5 || hi != 2400.5 {
		t.Errorf("band = [%v, %v], want [2399.5, 2400.5]", lo, hi)
	}
}

func TestNewConflict_ClampsSeverity(t *testing.T) {
	if c := NewConflict("x", ConflictFrequency, 1.7, "over"); c.Severity != 1 {
		t.Errorf("severity = %v, want 1", c.Severity)
	}
	if c := NewConflict("x", ConflictFrequency, -0.3, "under"); c.Severity != 0 {
		t.Errorf("severity = %v, want 0", c.Severity)
	}
}

func TestPriorityRank_Ordering(t *testing.T) {
	order := []Priority{PriorityRoutine, PriorityPriority, PriorityImmediate, PriorityFlash}
	for i := 1; i < len(order); i++ {
		if order[i].Rank() <= order[i-1].Rank() {
			t.Errorf("%s should outrank %s", order[i], order[i-1])
		}
	}
	if Priority("URGENT").Rank() != -1 {
		t.Errorf("unknown priority should rank -1")
	}
}

func TestParsePriority_Unknown(t *testing.T) {
	if _, err := ParsePriority("CASUAL"); err == nil {
		t.Fatalf("expected error for unknown priority")
	}
}

func TestAllocationActiveAt_InclusiveBounds(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	alloc, err := NewAllocation("a-1", "asset-1", 2400, 25, 30, Location{Lat: 35, Lon: 45}, start, end, PriorityRoutine, "test")
	if err != nil {
		t.Fatalf("NewAllocation: %v", err)
	}
	if !alloc.ActiveAt(start) || !alloc.ActiveAt(end) {
		t.Errorf("allocation should be active at both window bounds")
	}
	if alloc.ActiveAt(end.Add(time.Second)) {
		t.Errorf("allocation should not be active after end")
	}
}

func TestFrequencyRangeValidate(t *testing.T) {
	if err := (FrequencyRange{MinMHz: 100, MaxMHz: 50}).Validate(); err == nil {
		t.Errorf("expected error for inverted range")
	}
	if err := (FrequencyRange{MinMHz: 100, MaxMHz: 200}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
