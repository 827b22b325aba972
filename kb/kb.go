// Package kb holds the catalog of known emitter systems used to put a
// name on detected signals.
package kb

import (
	"fmt"
	"sync"

	"github.com/signalsfoundry/spectrum-deconfliction/model"
)

// SystemSignature describes one cataloged emitter system. An observed
// emitter matches when its frequency falls inside [MinFreqMHz,MaxFreqMHz],
// it is pulsed if RequiresPRF is set, and its PRF falls inside
// [MinPRFHz,MaxPRFHz] when those bounds are non-zero.
type SystemSignature struct {
	Name        string
	Type        model.ThreatType
	MinFreqMHz  float64
	MaxFreqMHz  float64
	RequiresPRF bool
	MinPRFHz    float64
	MaxPRFHz    float64
}

func (s SystemSignature) matches(e *model.Emitter) bool {
	if e.FrequencyMHz < s.MinFreqMHz || e.FrequencyMHz > s.MaxFreqMHz {
		return false
	}
	if s.RequiresPRF {
		if e.Signal.PRFHz == nil {
			return false
		}
		prf := *e.Signal.PRFHz
		if s.MinPRFHz > 0 && prf < s.MinPRFHz {
			return false
		}
		if s.MaxPRFHz > 0 && prf > s.MaxPRFHz {
			return false
		}
	}
	return true
}

// Catalog is an in-memory, thread-safe signature catalog. Signatures are
// matched in insertion order; the first hit wins.
type Catalog struct {
	mu         sync.RWMutex
	signatures []SystemSignature
	byName     map[string]int
}

// NewCatalog constructs an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{byName: make(map[string]int)}
}

// DefaultCatalog returns a catalog seeded with representative signatures
// for the bands the engine reasons about.
func DefaultCatalog() *Catalog {
	c := NewCatalog()
	for _, sig := range []SystemSignature{
		{Name: "X-band fire control radar", Type: model.ThreatRadar, MinFreqMHz: 8500, MaxFreqMHz: 10500, RequiresPRF: true, MinPRFHz: 300},
		{Name: "S-band search radar", Type: model.ThreatRadar, MinFreqMHz: 2700, MaxFreqMHz: 3100, RequiresPRF: true, MaxPRFHz: 600},
		{Name: "L-band early warning radar", Type: model.ThreatRadar, MinFreqMHz: 1215, MaxFreqMHz: 1400, RequiresPRF: true},
	} {
		// Seed names cannot collide.
		_ = c.Add(sig)
	}
	return c
}

// Add registers a signature. It returns an error if the name is empty,
// the name is already cataloged, or the frequency bounds are inverted.
func (c *Catalog) Add(sig SystemSignature) error {
	if sig.Name == "" {
		return fmt.Errorf("signature name must not be empty")
	}
	if sig.MaxFreqMHz < sig.MinFreqMHz {
		return fmt.Errorf("signature %q: inverted frequency bounds", sig.Name)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.byName[sig.Name]; exists {
		return fmt.Errorf("signature %q already cataloged", sig.Name)
	}
	c.byName[sig.Name] = len(c.signatures)
	c.signatures = append(c.signatures, sig)
	return nil
}

// Get returns a signature by name.
func (c *Catalog) Get(name string) (SystemSignature, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byName[name]
	if !ok {
		return SystemSignature{}, false
	}
	return c.signatures[i], true
}

// Len returns the number of cataloged signatures.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.signatures)
}

// Match returns the first cataloged signature the emitter fits, or false
// when nothing in the catalog matches.
func (c *Catalog) Match(e *model.Emitter) (SystemSignature, bool) {
	if c == nil || e == nil {
		return SystemSignature{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, sig := range c.signatures {
		if sig.matches(e) {
			return sig, true
		}
	}
	return SystemSignature{}, false
}
