package samplerate

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
)

// MemoryDevice is an in-process device. It backs tests and hosts that have no
// controllable clock.
type MemoryDevice struct {
	mu        sync.Mutex
	nominal   float64
	supported []float64

	// Failure injection
	ReadErr  error
	SetErr   error
	RatesErr error

	setCalls int
}

var _ Device = (*MemoryDevice)(nil)

// NewMemoryDevice creates a device running at nominal that accepts supported.
func NewMemoryDevice(nominal float64, supported ...float64) *MemoryDevice {
	return &MemoryDevice{
		nominal:   nominal,
		supported: supported,
	}
}

func (d *MemoryDevice) NominalRate(_ context.Context) (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ReadErr != nil {
		return 0, d.ReadErr
	}
	return d.nominal, nil
}

func (d *MemoryDevice) SetNominalRate(_ context.Context, rate float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.setCalls++
	if d.SetErr != nil {
		return d.SetErr
	}
	if rate <= 0 {
		return errors.Newf("invalid rate %v", rate)
	}
	d.nominal = rate
	return nil
}

func (d *MemoryDevice) AvailableRates(_ context.Context) ([]Range, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.RatesErr != nil {
		return nil, d.RatesErr
	}
	ranges := make([]Range, 0, len(d.supported))
	for _, r := range d.supported {
		ranges = append(ranges, Range{Min: r, Max: r})
	}
	return ranges, nil
}

// SetCalls returns how many times SetNominalRate was called.
func (d *MemoryDevice) SetCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setCalls
}
