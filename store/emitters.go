package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/signalsfoundry/spectrum-deconfliction/model"
)

// EmitterStore holds reported electromagnetic emitters keyed by emitter
// id, guarded by the same coarse lock discipline as the other stores.
type EmitterStore struct {
	mu       sync.RWMutex
	emitters map[string]*model.Emitter
}

// NewEmitterStore constructs an empty store.
func NewEmitterStore() *EmitterStore {
	return &EmitterStore{
		emitters: make(map[string]*model.Emitter),
	}
}

// Add inserts an emitter. It returns an error if the ID already exists.
func (s *EmitterStore) Add(e *model.Emitter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.emitters[e.EmitterID]; exists {
		return fmt.Errorf("emitter with ID %q already exists", e.EmitterID)
	}
	s.emitters[e.EmitterID] = e
	return nil
}

// Get returns the emitter with the given ID, or nil if not found.
func (s *EmitterStore) Get(id string) *model.Emitter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.emitters[id]
}

// All returns a snapshot slice of every emitter.
func (s *EmitterStore) All() []*model.Emitter {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]*model.Emitter, 0, len(s.emitters))
	for _, e := range s.emitters {
		res = append(res, e)
	}
	return res
}

// ByFrequencyRange returns emitters whose center frequency falls inside
// [minMHz, maxMHz].
func (s *EmitterStore) ByFrequencyRange(minMHz, maxMHz float64) []*model.Emitter {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var res []*model.Emitter
	for _, e := range s.emitters {
		if e.FrequencyMHz >= minMHz && e.FrequencyMHz <= maxMHz {
			res = append(res, e)
		}
	}
	return res
}

// DetectedSince returns emitters whose detection time is at or after the
// cutoff.
func (s *EmitterStore) DetectedSince(cutoff time.Time) []*model.Emitter {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var res []*model.Emitter
	for _, e := range s.emitters {
		if !e.DetectionTime.Before(cutoff) {
			res = append(res, e)
		}
	}
	return res
}
