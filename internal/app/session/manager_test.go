package session

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/bitperfect/internal/infra/audiofile"
	"github.com/osa030/bitperfect/internal/infra/player"
	"github.com/osa030/bitperfect/internal/infra/samplerate"
)

type fakeLoader struct {
	err   error
	hook  func()
	calls int
}

func (l *fakeLoader) Load(ctx context.Context, path string) (*audiofile.LoadedFile, error) {
	l.calls++
	if l.hook != nil {
		l.hook()
	}
	if l.err != nil {
		return nil, l.err
	}
	return &audiofile.LoadedFile{Path: path, Name: "song.flac", Ext: ".flac"}, nil
}

type fakePlayer struct {
	player.Player
	duration float64
	rate     float64
	closed   bool
}

func (p *fakePlayer) Duration() float64   { return p.duration }
func (p *fakePlayer) SampleRate() float64 { return p.rate }
func (p *fakePlayer) Close() error        { p.closed = true; return nil }

type fakeFactory struct {
	rate    float64
	err     error
	hook    func()
	created []*fakePlayer
}

func (f *fakeFactory) NewPlayer(file *audiofile.LoadedFile) (player.Player, error) {
	if f.hook != nil {
		f.hook()
	}
	if f.err != nil {
		return nil, f.err
	}
	p := &fakePlayer{duration: 240, rate: f.rate}
	f.created = append(f.created, p)
	return p, nil
}

func TestCreateSession_SwitchesDeviceRate(t *testing.T) {
	dev := samplerate.NewMemoryDevice(44100, 44100, 48000, 96000)
	rates := samplerate.NewDeviceManager(dev)
	m := NewManager(&fakeLoader{}, &fakeFactory{rate: 96000}, rates, Config{SettleDelay: 10 * time.Millisecond})

	start := time.Now()
	s, err := m.CreateSession(context.Background(), "/music/song.flac")
	require.NoError(t, err)

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "song.flac", s.Info.FileName)
	assert.Equal(t, 240.0, s.Info.Duration)
	assert.Equal(t, 96000.0, s.Info.SampleRate)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond, "settle delay observed")

	current, ok := rates.CurrentSampleRate(context.Background())
	assert.True(t, ok)
	assert.Equal(t, 96000.0, current)
}

func TestCreateSession_SkipsSwitchWhenAlreadyMatching(t *testing.T) {
	dev := samplerate.NewMemoryDevice(48000, 44100, 48000)
	m := NewManager(&fakeLoader{}, &fakeFactory{rate: 48000}, samplerate.NewDeviceManager(dev), Config{SettleDelay: time.Hour})

	_, err := m.CreateSession(context.Background(), "/music/song.flac")
	require.NoError(t, err)
	assert.Equal(t, 0, dev.SetCalls())
}

func TestCreateSession_RateFailureIsAdvisory(t *testing.T) {
	tests := []struct {
		name string
		dev  *samplerate.MemoryDevice
	}{
		{
			name: "rate not supported",
			dev:  samplerate.NewMemoryDevice(44100, 44100, 48000),
		},
		{
			name: "device write fails",
			dev: func() *samplerate.MemoryDevice {
				d := samplerate.NewMemoryDevice(44100, 44100, 192000)
				d.SetErr = errors.New("busy")
				return d
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(&fakeLoader{}, &fakeFactory{rate: 192000}, samplerate.NewDeviceManager(tt.dev), Config{SettleDelay: time.Hour})

			s, err := m.CreateSession(context.Background(), "/music/song.flac")
			require.NoError(t, err)
			assert.Equal(t, 192000.0, s.Info.SampleRate)
		})
	}
}

func TestCreateSession_LoadFailure(t *testing.T) {
	factory := &fakeFactory{rate: 44100}
	m := NewManager(&fakeLoader{err: errors.New("permission denied")}, factory, samplerate.NewDeviceManager(samplerate.NewMemoryDevice(44100, 44100)), Config{})

	_, err := m.CreateSession(context.Background(), "/music/song.flac")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrCancelled))
	assert.Empty(t, factory.created)
}

func TestCreateSession_Cancellation(t *testing.T) {
	t.Run("before start", func(t *testing.T) {
		loader := &fakeLoader{}
		m := NewManager(loader, &fakeFactory{rate: 44100}, samplerate.NewDeviceManager(samplerate.NewMemoryDevice(44100, 44100)), Config{})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := m.CreateSession(ctx, "/music/song.flac")
		assert.True(t, errors.Is(err, ErrCancelled))
		assert.Equal(t, 0, loader.calls)
	})

	t.Run("after decode closes the player", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		factory := &fakeFactory{rate: 96000, hook: cancel}
		dev := samplerate.NewMemoryDevice(44100, 44100, 96000)
		m := NewManager(&fakeLoader{}, factory, samplerate.NewDeviceManager(dev), Config{})

		_, err := m.CreateSession(ctx, "/music/song.flac")
		assert.True(t, errors.Is(err, ErrCancelled))
		require.Len(t, factory.created, 1)
		assert.True(t, factory.created[0].closed)
		assert.Equal(t, 0, dev.SetCalls(), "no device change after cancellation")
	})

	t.Run("during settle delay", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		factory := &fakeFactory{rate: 96000}
		dev := samplerate.NewMemoryDevice(44100, 44100, 96000)
		m := NewManager(&fakeLoader{}, factory, samplerate.NewDeviceManager(dev), Config{SettleDelay: time.Hour})

		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()

		_, err := m.CreateSession(ctx, "/music/song.flac")
		assert.True(t, errors.Is(err, ErrCancelled))
		require.Len(t, factory.created, 1)
		assert.True(t, factory.created[0].closed)
	})
}

func TestCreateSession_KeepDeviceRate(t *testing.T) {
	dev := samplerate.NewMemoryDevice(44100, 44100, 96000)
	m := NewManager(&fakeLoader{}, &fakeFactory{rate: 96000}, samplerate.NewDeviceManager(dev), Config{
		SettleDelay:    time.Hour,
		KeepDeviceRate: true,
	})

	s, err := m.CreateSession(context.Background(), "/music/song.flac")
	require.NoError(t, err)
	assert.Equal(t, 96000.0, s.Info.SampleRate)
	assert.Zero(t, dev.SetCalls())
}
