// Package session turns a file path into a ready-to-play audio session.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/bitperfect/internal/domain/audio"
	"github.com/osa030/bitperfect/internal/infra/audiofile"
	"github.com/osa030/bitperfect/internal/infra/player"
	"github.com/osa030/bitperfect/internal/infra/samplerate"
)

// ErrCancelled marks errors caused by cancellation anywhere in the pipeline.
var ErrCancelled = audiofile.ErrCancelled

// Session is a decoded player plus the metadata extracted from it.
// Ownership of Player passes to the caller.
type Session struct {
	ID        string
	Player    player.Player
	Info      audio.AudioInfo
	CreatedAt time.Time
}

// Manager creates sessions.
type Manager interface {
	CreateSession(ctx context.Context, path string) (*Session, error)
}

// Config holds session manager configuration.
type Config struct {
	SettleDelay    time.Duration // Wait after switching the device rate
	KeepDeviceRate bool          // Never switch the device rate on load
}

// DefaultManager loads, decodes and configures the device for a file.
type DefaultManager struct {
	loader  audiofile.Loader
	factory player.Factory
	rates   samplerate.Manager
	config  Config
}

var _ Manager = (*DefaultManager)(nil)

// NewManager creates a session manager.
func NewManager(loader audiofile.Loader, factory player.Factory, rates samplerate.Manager, config Config) *DefaultManager {
	return &DefaultManager{
		loader:  loader,
		factory: factory,
		rates:   rates,
		config:  config,
	}
}

// CreateSession loads path, opens a player and applies the file's sample rate
// to the output device. A failed rate switch is logged and does not fail the
// session. Cancellation between steps closes anything already opened.
func (m *DefaultManager) CreateSession(ctx context.Context, path string) (*Session, error) {
	if ctx.Err() != nil {
		return nil, audiofile.Cancelled(ctx)
	}

	file, err := m.loader.Load(ctx, path)
	if err != nil {
		return nil, err
	}

	if ctx.Err() != nil {
		return nil, audiofile.Cancelled(ctx)
	}

	p, err := m.factory.NewPlayer(file)
	if err != nil {
		return nil, err
	}

	info := audio.NewAudioInfo(file.Name, p.Duration(), p.SampleRate())

	if ctx.Err() != nil {
		_ = p.Close()
		return nil, audiofile.Cancelled(ctx)
	}

	m.configureDevice(ctx, info.SampleRate)

	if ctx.Err() != nil {
		_ = p.Close()
		return nil, audiofile.Cancelled(ctx)
	}

	s := &Session{
		ID:        uuid.New().String(),
		Player:    p,
		Info:      info,
		CreatedAt: time.Now(),
	}
	zlog.Info().Msgf("session: created: id=%s file=%s rate=%.0f duration=%.2fs",
		s.ID, info.FileName, info.SampleRate, info.Duration)
	return s, nil
}

// configureDevice switches the device to rate and waits for it to settle.
// Best effort: every failure is logged and swallowed.
func (m *DefaultManager) configureDevice(ctx context.Context, rate float64) {
	if m.config.KeepDeviceRate {
		return
	}
	if current, ok := m.rates.CurrentSampleRate(ctx); ok && current == rate {
		zlog.Debug().Msgf("session: device already at %.0f Hz", rate)
		return
	}

	if err := m.rates.SetSampleRate(ctx, rate); err != nil {
		zlog.Warn().Err(err).Msgf("session: could not switch device to %.0f Hz, playback will be resampled", rate)
		return
	}

	if m.config.SettleDelay <= 0 {
		return
	}

	timer := time.NewTimer(m.config.SettleDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
