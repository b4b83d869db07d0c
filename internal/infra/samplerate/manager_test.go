package samplerate

import (
	"context"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rangeDevice reports arbitrary ranges for folding tests.
type rangeDevice struct {
	*MemoryDevice
	ranges []Range
}

func (d *rangeDevice) AvailableRates(_ context.Context) ([]Range, error) {
	return d.ranges, nil
}

func TestDeviceManager_CurrentSampleRate(t *testing.T) {
	ctx := context.Background()

	dev := NewMemoryDevice(48000, 44100, 48000)
	m := NewDeviceManager(dev)

	rate, ok := m.CurrentSampleRate(ctx)
	assert.True(t, ok)
	assert.Equal(t, 48000.0, rate)

	dev.ReadErr = errors.New("device unplugged")
	rate, ok = m.CurrentSampleRate(ctx)
	assert.False(t, ok)
	assert.Zero(t, rate)
}

func TestDeviceManager_SupportedSampleRates(t *testing.T) {
	ctx := context.Background()

	dev := &rangeDevice{MemoryDevice: NewMemoryDevice(44100), ranges: []Range{
		{Min: 96000, Max: 96000},
		{Min: 44100, Max: 48000},
		{Min: 44100, Max: 44100},
		{Min: 0, Max: 0},
		{Min: 192000, Max: 192000},
	}}
	m := NewDeviceManager(dev)

	assert.Equal(t, []float64{44100, 96000, 192000}, m.SupportedSampleRates(ctx))
}

func TestDeviceManager_SupportedSampleRates_QueryFailure(t *testing.T) {
	dev := NewMemoryDevice(44100, 44100)
	dev.RatesErr = errors.New("no device")
	m := NewDeviceManager(dev)

	rates := m.SupportedSampleRates(context.Background())
	assert.NotNil(t, rates)
	assert.Empty(t, rates)
}

func TestDeviceManager_SetSampleRate(t *testing.T) {
	tests := []struct {
		name      string
		rate      float64
		setErr    error
		wantErr   error
		wantRate  float64
		wantCalls int
	}{
		{
			name:      "supported rate is applied",
			rate:      96000,
			wantRate:  96000,
			wantCalls: 1,
		},
		{
			name:      "unsupported rate is rejected before touching the device",
			rate:      176400,
			wantErr:   ErrRateNotSupported,
			wantRate:  44100,
			wantCalls: 0,
		},
		{
			name:      "device failure is reported as device error",
			rate:      48000,
			setErr:    errors.New("property write failed"),
			wantErr:   ErrDevice,
			wantRate:  44100,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			dev := NewMemoryDevice(44100, 44100, 48000, 96000)
			dev.SetErr = tt.setErr
			m := NewDeviceManager(dev)

			err := m.SetSampleRate(ctx, tt.rate)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.rate, m.LastSetRate())
			}

			rate, ok := m.CurrentSampleRate(ctx)
			assert.True(t, ok)
			assert.Equal(t, tt.wantRate, rate)
			assert.Equal(t, tt.wantCalls, dev.SetCalls())
		})
	}
}

// serialDevice fails the test if two calls overlap.
type serialDevice struct {
	*MemoryDevice
	mu       sync.Mutex
	inFlight int
	overlap  bool
}

func (d *serialDevice) enter() {
	d.mu.Lock()
	d.inFlight++
	if d.inFlight > 1 {
		d.overlap = true
	}
	d.mu.Unlock()
}

func (d *serialDevice) leave() {
	d.mu.Lock()
	d.inFlight--
	d.mu.Unlock()
}

func (d *serialDevice) SetNominalRate(ctx context.Context, rate float64) error {
	d.enter()
	defer d.leave()
	return d.MemoryDevice.SetNominalRate(ctx, rate)
}

func (d *serialDevice) NominalRate(ctx context.Context) (float64, error) {
	d.enter()
	defer d.leave()
	return d.MemoryDevice.NominalRate(ctx)
}

func TestDeviceManager_SerializesDeviceCalls(t *testing.T) {
	dev := &serialDevice{MemoryDevice: NewMemoryDevice(44100, 44100, 48000, 96000)}
	m := NewDeviceManager(dev)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			rate := []float64{44100, 48000, 96000}[i%3]
			_ = m.SetSampleRate(ctx, rate)
		}(i)
		go func() {
			defer wg.Done()
			_, _ = m.CurrentSampleRate(ctx)
		}()
	}
	wg.Wait()

	assert.False(t, dev.overlap, "device calls must never overlap")
}
