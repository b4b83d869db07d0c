// Package samplerate queries and switches the output device's nominal sample rate.
package samplerate

import (
	"context"
	"slices"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// Errors
var (
	ErrRateNotSupported = errors.New("sample rate not supported by device")
	ErrDevice           = errors.New("audio device error")
)

// Range is a contiguous span of sample rates a device can run at.
// Discrete rates are reported as Min == Max.
type Range struct {
	Min float64
	Max float64
}

// Device is the low-level capability over an output device's clock.
type Device interface {
	NominalRate(ctx context.Context) (float64, error)
	SetNominalRate(ctx context.Context, rate float64) error
	AvailableRates(ctx context.Context) ([]Range, error)
}

// Manager queries and sets the output device's nominal sample rate.
type Manager interface {
	// CurrentSampleRate returns the device's nominal rate, false if it cannot be read.
	CurrentSampleRate(ctx context.Context) (float64, bool)
	// SetSampleRate switches the device to rate.
	SetSampleRate(ctx context.Context, rate float64) error
	// SupportedSampleRates returns the supported rates in ascending order.
	SupportedSampleRates(ctx context.Context) []float64
}

// DeviceManager implements Manager on top of a Device.
// Every operation holds mu so that at most one device call is in flight.
type DeviceManager struct {
	mu      sync.Mutex
	device  Device
	lastSet float64
}

var _ Manager = (*DeviceManager)(nil)

// NewDeviceManager creates a manager for device.
func NewDeviceManager(device Device) *DeviceManager {
	return &DeviceManager{device: device}
}

// CurrentSampleRate returns the device's nominal rate.
func (m *DeviceManager) CurrentSampleRate(ctx context.Context) (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rate, err := m.device.NominalRate(ctx)
	if err != nil {
		zlog.Debug().Err(err).Msg("samplerate: failed to read nominal rate")
		return 0, false
	}
	if rate <= 0 {
		return 0, false
	}
	return rate, true
}

// SetSampleRate switches the device to rate.
func (m *DeviceManager) SetSampleRate(ctx context.Context, rate float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	supported := m.supportedLocked(ctx)
	if !slices.Contains(supported, rate) {
		return errors.Wrapf(ErrRateNotSupported, "%.0f Hz (supported: %v)", rate, supported)
	}

	if err := m.device.SetNominalRate(ctx, rate); err != nil {
		return errors.Mark(errors.Wrapf(err, "failed to set nominal rate to %.0f Hz", rate), ErrDevice)
	}
	m.lastSet = rate

	zlog.Info().Msgf("samplerate: device switched to %.0f Hz", rate)
	return nil
}

// SupportedSampleRates returns the minimum of each supported range.
func (m *DeviceManager) SupportedSampleRates(ctx context.Context) []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.supportedLocked(ctx)
}

// LastSetRate returns the last rate successfully applied through this manager, 0 if none.
func (m *DeviceManager) LastSetRate() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSet
}

func (m *DeviceManager) supportedLocked(ctx context.Context) []float64 {
	ranges, err := m.device.AvailableRates(ctx)
	if err != nil {
		zlog.Debug().Err(err).Msg("samplerate: failed to read available rates")
		return []float64{}
	}

	rates := lo.Uniq(lo.FilterMap(ranges, func(r Range, _ int) (float64, bool) {
		return r.Min, r.Min > 0
	}))
	slices.Sort(rates)
	return rates
}
