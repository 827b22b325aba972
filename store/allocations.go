package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/signalsfoundry/spectrum-deconfliction/core"
	"github.com/signalsfoundry/spectrum-deconfliction/model"
)

// AllocationStore is an in-memory, concurrency-safe repository of
// committed spectrum allocations keyed by allocation id. A single
// coarse-grained lock covers every read and write; this trades throughput
// for simplicity, which suits the low request volume of a deconfliction
// control plane. Consistency is guaranteed only within one call — nothing
// spans the decide-then-commit window (see the service layer).
type AllocationStore struct {
	mu          sync.RWMutex
	allocations map[string]*model.Allocation
}

// NewAllocationStore constructs an empty store.
func NewAllocationStore() *AllocationStore {
	return &AllocationStore{
		allocations: make(map[string]*model.Allocation),
	}
}

// Add inserts an allocation. It returns an error if the ID already exists.
func (s *AllocationStore) Add(alloc *model.Allocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.allocations[alloc.AllocationID]; exists {
		return fmt.Errorf("allocation with ID %q already exists", alloc.AllocationID)
	}
	s.allocations[alloc.AllocationID] = alloc
	return nil
}

// Get returns the allocation with the given ID, or nil if not found.
func (s *AllocationStore) Get(id string) *model.Allocation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.allocations[id]
}

// Remove deletes an allocation by ID, reporting whether it was present.
func (s *AllocationStore) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.allocations[id]; !ok {
		return false
	}
	delete(s.allocations, id)
	return true
}

// All returns a snapshot slice of every allocation.
func (s *AllocationStore) All() []*model.Allocation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]*model.Allocation, 0, len(s.allocations))
	for _, a := range s.allocations {
		res = append(res, a)
	}
	return res
}

// ActiveAt returns allocations whose window covers the instant t.
func (s *AllocationStore) ActiveAt(t time.Time) []*model.Allocation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var res []*model.Allocation
	for _, a := range s.allocations {
		if a.ActiveAt(t) {
			res = append(res, a)
		}
	}
	return res
}

// ByFrequencyRange returns allocations active at t whose occupied band
// (center ± bandwidth/2) overlaps [minMHz, maxMHz].
func (s *AllocationStore) ByFrequencyRange(minMHz, maxMHz float64, t time.Time) []*model.Allocation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var res []*model.Allocation
	for _, a := range s.allocations {
		if !a.ActiveAt(t) {
			continue
		}
		lo, hi := a.BandMHz()
		if hi < minMHz || lo > maxMHz {
			continue
		}
		res = append(res, a)
	}
	return res
}

// ByLocation returns allocations active at t within radiusKm of loc.
func (s *AllocationStore) ByLocation(loc model.Location, radiusKm float64, t time.Time) []*model.Allocation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var res []*model.Allocation
	for _, a := range s.allocations {
		if !a.ActiveAt(t) {
			continue
		}
		if core.DistanceKm(loc, a.Location) <= radiusKm {
			res = append(res, a)
		}
	}
	return res
}

// ByAsset returns every allocation held by an asset, active or not.
func (s *AllocationStore) ByAsset(assetID string) []*model.Allocation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var res []*model.Allocation
	for _, a := range s.allocations {
		if a.AssetID == assetID {
			res = append(res, a)
		}
	}
	return res
}

// ClearExpired removes allocations whose end time is at or before now,
// returning how many were dropped.
func (s *AllocationStore) ClearExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, a := range s.allocations {
		if !a.EndTime.After(now) {
			delete(s.allocations, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored allocations.
func (s *AllocationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.allocations)
}
