package kb

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/signalsfoundry/spectrum-deconfliction/model"
)

func emitter(t *testing.T, freqMHz float64, prfHz *float64) *model.Emitter {
	t.Helper()
	sig := model.SignalCharacteristics{Waveform: "pulsed", Modulation: "pulse", PRFHz: prfHz}
	if prfHz == nil {
		sig.Waveform = "continuous"
		sig.Modulation = "FM"
	}
	e, err := model.NewEmitter("em-1", model.Location{Lat: 40, Lon: 45}, freqMHz, 1000, sig,
		time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), 0.9)
	if err != nil {
		t.Fatalf("NewEmitter: %v", err)
	}
	return e
}

func prf(v float64) *float64 { return &v }

func TestAddRejectsDuplicateName(t *testing.T) {
	c := NewCatalog()
	sig := SystemSignature{Name: "test radar", Type: model.ThreatRadar, MinFreqMHz: 9000, MaxFreqMHz: 10000}
	if err := c.Add(sig); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := c.Add(sig); err == nil {
		t.Fatal("duplicate Add succeeded")
	}
	if c.Len() != 1 {
		t.Fatalf("Len = %d, want 1", c.Len())
	}
}

func TestAddRejectsInvertedBounds(t *testing.T) {
	c := NewCatalog()
	err := c.Add(SystemSignature{Name: "bad", MinFreqMHz: 10000, MaxFreqMHz: 9000})
	if err == nil {
		t.Fatal("inverted bounds accepted")
	}
}

func TestMatch_FrequencyAndPRF(t *testing.T) {
	c := DefaultCatalog()

	sig, ok := c.Match(emitter(t, 9400, prf(1000)))
	if !ok {
		t.Fatal("x-band pulsed emitter did not match")
	}
	if sig.Name != "X-band fire control radar" {
		t.Fatalf("matched %q", sig.Name)
	}

	// Continuous emission in the same band fails the PRF requirement.
	if _, ok := c.Match(emitter(t, 9400, nil)); ok {
		t.Fatal("continuous emitter matched a pulsed signature")
	}

	// S-band signature requires PRF at or below 600 Hz.
	if _, ok := c.Match(emitter(t, 2900, prf(1200))); ok {
		t.Fatal("high-PRF emitter matched the search radar signature")
	}
	if sig, ok := c.Match(emitter(t, 2900, prf(400))); !ok || sig.Name != "S-band search radar" {
		t.Fatalf("match = %v %q, want S-band search radar", ok, sig.Name)
	}

	// Out of any cataloged band.
	if _, ok := c.Match(emitter(t, 500, prf(1000))); ok {
		t.Fatal("out-of-band emitter matched")
	}
}

func TestMatch_InsertionOrderWins(t *testing.T) {
	c := NewCatalog()
	if err := c.Add(SystemSignature{Name: "first", Type: model.ThreatRadar, MinFreqMHz: 9000, MaxFreqMHz: 10000}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := c.Add(SystemSignature{Name: "second", Type: model.ThreatRadar, MinFreqMHz: 8000, MaxFreqMHz: 11000}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	sig, ok := c.Match(emitter(t, 9400, nil))
	if !ok || sig.Name != "first" {
		t.Fatalf("match = %v %q, want first", ok, sig.Name)
	}
}

func TestMatch_NilCatalogIsSafe(t *testing.T) {
	var c *Catalog
	if _, ok := c.Match(emitter(t, 9400, prf(1000))); ok {
		t.Fatal("nil catalog matched")
	}
}

func TestConcurrentAddAndMatch(t *testing.T) {
	c := NewCatalog()
	probe := emitter(t, 1500, nil)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = c.Add(SystemSignature{
				Name:       fmt.Sprintf("sig-%d", i),
				Type:       model.ThreatRadar,
				MinFreqMHz: 1000,
				MaxFreqMHz: 2000,
			})
			c.Match(probe)
		}(i)
	}
	wg.Wait()
	if c.Len() != 16 {
		t.Fatalf("Len = %d, want 16", c.Len())
	}
}
