// Package playback coordinates loading, transport control, progress tracking
// and output device sample rate for a single audio file.
package playback

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/bitperfect/internal/app/session"
	"github.com/osa030/bitperfect/internal/app/tracker"
	"github.com/osa030/bitperfect/internal/app/usecase"
	"github.com/osa030/bitperfect/internal/domain/audio"
	"github.com/osa030/bitperfect/internal/infra/player"
	"github.com/osa030/bitperfect/internal/infra/samplerate"
)

// Errors
var (
	ErrClosed = errors.New("playback engine closed")
)

// Tracker polls a playing player. *tracker.Tracker implements it.
type Tracker interface {
	Start(reader tracker.PositionReader, duration float64, sessionID uint64, cb tracker.Callbacks)
	Stop()
	IsActive() bool
}

// Config holds engine configuration.
type Config struct {
	SkipInterval  time.Duration // Step for SkipForward/SkipBackward
	Volume        float64       // Initial volume in [0, 1]
	FinishEpsilon time.Duration // Play from Finished rewinds when this close to the end
}

// DefaultConfig returns a 10s skip interval at full volume.
func DefaultConfig() Config {
	return Config{
		SkipInterval:  10 * time.Second,
		Volume:        1.0,
		FinishEpsilon: 50 * time.Millisecond,
	}
}

// Engine owns the playback state. All state lives behind mu; file and
// device I/O run without it.
type Engine struct {
	mu sync.RWMutex

	// Playback state
	state        audio.State
	session      *session.Session
	sessionID    uint64 // Bumped on play, seek, skip and stop
	currentTime  float64
	hardwareRate float64
	volume       float64

	// Load supersession
	loadGen    uint64
	loadCancel context.CancelFunc

	// Collaborators
	load     *usecase.Load
	control  usecase.Control
	seeking  usecase.Seeking
	syncRate *usecase.SyncSampleRate
	rates    samplerate.Manager
	tracker  Tracker

	refreshing atomic.Bool // A periodic rate refresh is in flight

	config Config

	// Events
	eventCh chan Event

	// Context
	ctx    context.Context
	cancel context.CancelFunc
	closed bool
}

// NewEngine creates an idle engine.
func NewEngine(sessions session.Manager, rates samplerate.Manager, tr Tracker, config Config) *Engine {
	if config.SkipInterval <= 0 {
		config.SkipInterval = DefaultConfig().SkipInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		state:    audio.Idle(),
		volume:   clampVolume(config.Volume),
		load:     usecase.NewLoad(sessions),
		control:  usecase.Control{RewindWindow: config.FinishEpsilon},
		syncRate: usecase.NewSyncSampleRate(rates),
		rates:    rates,
		tracker:  tr,
		config:   config,
		eventCh:  make(chan Event, 64),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Events returns the event channel. It is closed by Close.
func (e *Engine) Events() <-chan Event {
	return e.eventCh
}

// State returns the current playback state.
func (e *Engine) State() audio.State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Status returns a snapshot for display.
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return newStatus(e.state, e.currentTime, e.hardwareRate, e.volume)
}

// SessionID returns the current playback session id.
func (e *Engine) SessionID() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sessionID
}

// LoadFile replaces the current file with path. A later LoadFile supersedes
// this one, in which case it returns audio.ErrLoadingCancelled and leaves the
// newer load's state alone.
func (e *Engine) LoadFile(ctx context.Context, path string) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if e.loadCancel != nil {
		e.loadCancel()
	}
	e.loadGen++
	gen := e.loadGen
	loadCtx, cancel := context.WithCancel(ctx)
	e.loadCancel = cancel

	e.tracker.Stop()
	old := e.session
	e.session = nil
	e.sessionID++
	e.currentTime = 0
	e.setStateLocked(audio.Loading())
	e.mu.Unlock()

	closeSession(old)
	zlog.Debug().Msgf("playback: loading: path=%s gen=%d", path, gen)

	s, err := e.load.Execute(loadCtx, path)

	e.mu.Lock()
	if gen != e.loadGen || e.closed {
		e.mu.Unlock()
		cancel()
		closeSession(s)
		zlog.Debug().Msgf("playback: load superseded: path=%s gen=%d", path, gen)
		return audio.ErrLoadingCancelled
	}
	e.loadCancel = nil
	cancel()

	if err != nil {
		if errors.Is(err, audio.ErrLoadingCancelled) {
			e.setStateLocked(audio.Idle())
		} else {
			e.setStateLocked(audio.Failed(asAudioError(err)))
		}
		e.mu.Unlock()
		return err
	}

	e.session = s
	s.Player.SetVolume(e.volume)
	e.setStateLocked(audio.Ready(s.Info))
	e.mu.Unlock()

	zlog.Info().Msgf("playback: loaded: file=%s duration=%.2fs rate=%.0fHz",
		s.Info.FileName, s.Info.Duration, s.Info.SampleRate)

	e.RefreshHardwareSampleRate(ctx)
	return nil
}

// Play starts or resumes playback.
func (e *Engine) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := e.playerLocked()
	next, err := e.control.Play(e.state, p)
	if err != nil {
		return err
	}

	e.sessionID++
	e.currentTime = p.CurrentTime()
	e.setStateLocked(next)
	e.startTrackingLocked()
	return nil
}

// Pause pauses playback.
func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := e.playerLocked()
	next, err := e.control.Pause(e.state, p)
	if err != nil {
		return err
	}

	e.tracker.Stop()
	e.currentTime = p.CurrentTime()
	e.setStateLocked(next)
	return nil
}

// TogglePlayPause pauses when playing and plays otherwise.
func (e *Engine) TogglePlayPause() error {
	if e.State().IsPlaying() {
		return e.Pause()
	}
	return e.Play()
}

// Stop rewinds to the start and returns to Ready. Without a loaded file it does nothing.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := e.playerLocked()
	if _, ok := e.state.AudioInfo(); !ok || p == nil {
		return
	}

	e.tracker.Stop()
	e.sessionID++
	e.currentTime = 0
	e.setStateLocked(e.control.Stop(e.state, p))
}

// Seek moves to t seconds, clamped to the track. The state variant is kept.
func (e *Engine) Seek(t float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	target, err := e.seeking.Seek(e.state, e.playerLocked(), t)
	if err != nil {
		return err
	}
	e.movedLocked(target)
	return nil
}

// SkipForward moves forward by the skip interval.
func (e *Engine) SkipForward() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := e.playerLocked()
	target, err := e.seeking.SkipForward(e.state, p, e.positionLocked(p), e.config.SkipInterval.Seconds())
	if err != nil {
		return err
	}
	e.movedLocked(target)
	return nil
}

// SkipBackward moves backward by the skip interval.
func (e *Engine) SkipBackward() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := e.playerLocked()
	target, err := e.seeking.SkipBackward(e.state, p, e.positionLocked(p), e.config.SkipInterval.Seconds())
	if err != nil {
		return err
	}
	e.movedLocked(target)
	return nil
}

// SetVolume sets the output volume, clamped to [0, 1].
func (e *Engine) SetVolume(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.volume = clampVolume(v)
	if p := e.playerLocked(); p != nil {
		p.SetVolume(e.volume)
	}
}

// SynchronizeSampleRates switches the output device to the loaded file's rate.
// The playback state is not changed, even on failure.
func (e *Engine) SynchronizeSampleRates(ctx context.Context) error {
	state := e.State()

	rate, err := e.syncRate.Execute(ctx, state)
	if err != nil {
		zlog.Warn().Err(err).Msg("playback: sample rate sync failed")
		e.RefreshHardwareSampleRate(ctx)
		return err
	}

	zlog.Info().Msgf("playback: device switched to %.0fHz", rate)
	e.RefreshHardwareSampleRate(ctx)
	return nil
}

// RefreshHardwareSampleRate reads the device's nominal rate and publishes a
// change. An unreadable device leaves the last known rate in place.
func (e *Engine) RefreshHardwareSampleRate(ctx context.Context) {
	rate, ok := e.rates.CurrentSampleRate(ctx)
	if !ok {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if rate == e.hardwareRate {
		return
	}
	e.hardwareRate = rate
	e.sendEventLocked(Event{
		Type:         EventHardwareRateChanged,
		State:        e.state,
		Time:         e.currentTime,
		HardwareRate: rate,
	})
}

// Close stops playback, cancels any load and releases the player.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	if e.loadCancel != nil {
		e.loadCancel()
		e.loadCancel = nil
	}
	e.tracker.Stop()
	s := e.session
	e.session = nil
	e.cancel()
	close(e.eventCh)
	e.mu.Unlock()

	if s != nil {
		return s.Player.Close()
	}
	return nil
}

// handleProgress records the tracker's position for session id.
func (e *Engine) handleProgress(id uint64, t float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if id != e.sessionID {
		return
	}
	e.currentTime = t
	e.sendEventLocked(Event{
		Type:         EventProgress,
		State:        e.state,
		Time:         t,
		HardwareRate: e.hardwareRate,
	})
}

// handleFinished marks the track finished unless session id has been superseded.
func (e *Engine) handleFinished(id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if id != e.sessionID {
		zlog.Debug().Msgf("playback: ignoring stale finish: session=%d current=%d", id, e.sessionID)
		return
	}
	e.markFinishedLocked()
}

// handlePeriodic refreshes the hardware rate off the tracker goroutine so a
// slow device query never delays progress or finish detection. Ticks that
// arrive while a refresh is still running are dropped.
func (e *Engine) handlePeriodic(id uint64) {
	e.mu.RLock()
	stale := id != e.sessionID || e.closed
	e.mu.RUnlock()
	if stale {
		return
	}
	if !e.refreshing.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer e.refreshing.Store(false)
		e.RefreshHardwareSampleRate(e.ctx)
	}()
}

func (e *Engine) markFinishedLocked() {
	info, ok := e.state.AudioInfo()
	if !ok {
		return
	}

	e.tracker.Stop()
	e.currentTime = info.Duration
	e.setStateLocked(audio.Finished(info))
	e.sendEventLocked(Event{
		Type:         EventFinished,
		State:        e.state,
		Time:         e.currentTime,
		HardwareRate: e.hardwareRate,
	})
}

// movedLocked records a seek to target. A playing track gets a fresh tracking
// loop under a new session id so that a finish from the old position is dropped.
func (e *Engine) movedLocked(target float64) {
	e.sessionID++
	e.currentTime = target
	if e.state.IsPlaying() {
		e.startTrackingLocked()
	}
	e.sendEventLocked(Event{
		Type:         EventProgress,
		State:        e.state,
		Time:         target,
		HardwareRate: e.hardwareRate,
	})
}

func (e *Engine) startTrackingLocked() {
	info, ok := e.state.AudioInfo()
	if !ok || e.session == nil {
		return
	}
	e.tracker.Start(e.session.Player, info.Duration, e.sessionID, tracker.Callbacks{
		OnProgress: e.handleProgress,
		OnFinished: e.handleFinished,
		OnPeriodic: e.handlePeriodic,
	})
}

func (e *Engine) setStateLocked(s audio.State) {
	if e.state == s {
		return
	}
	zlog.Debug().Msgf("playback: state %s -> %s", e.state, s)
	e.state = s
	e.sendEventLocked(Event{
		Type:         EventStateChanged,
		State:        s,
		Time:         e.currentTime,
		HardwareRate: e.hardwareRate,
	})
}

// playerLocked returns the current player or nil.
func (e *Engine) playerLocked() player.Player {
	if e.session == nil {
		return nil
	}
	return e.session.Player
}

func (e *Engine) positionLocked(p player.Player) float64 {
	if p == nil {
		return e.currentTime
	}
	return p.CurrentTime()
}

// sendEventLocked sends an event without blocking.
// Must be called with lock held.
func (e *Engine) sendEventLocked(ev Event) {
	if e.closed {
		return
	}
	select {
	case e.eventCh <- ev:
	default:
		// Channel full, drop event
	}
}

func closeSession(s *session.Session) {
	if s == nil || s.Player == nil {
		return
	}
	if err := s.Player.Close(); err != nil {
		zlog.Warn().Err(err).Msgf("playback: failed to close player: session=%s", s.ID)
	}
}

func asAudioError(err error) *audio.Error {
	var ae *audio.Error
	if errors.As(err, &ae) {
		return ae
	}
	return audio.LoadFailed(err.Error())
}

func clampVolume(v float64) float64 {
	return max(0, min(v, 1))
}
