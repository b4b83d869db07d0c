package usecase

import (
	"github.com/cockroachdb/errors"
)

// fakePlayer is an in-memory player.
type fakePlayer struct {
	pos      float64
	duration float64
	rate     float64
	playing  bool
	volume   float64
	playErr  error
	seekErr  error
	calls    []string
}

func newFakePlayer(duration float64) *fakePlayer {
	return &fakePlayer{duration: duration, rate: 44100, volume: 1}
}

func (p *fakePlayer) Play() error {
	p.calls = append(p.calls, "play")
	if p.playErr != nil {
		return p.playErr
	}
	p.playing = true
	return nil
}

func (p *fakePlayer) Pause() {
	p.calls = append(p.calls, "pause")
	p.playing = false
}

func (p *fakePlayer) Stop() {
	p.calls = append(p.calls, "stop")
	p.playing = false
	p.pos = 0
}

func (p *fakePlayer) Seek(t float64) error {
	p.calls = append(p.calls, "seek")
	if p.seekErr != nil {
		return p.seekErr
	}
	p.pos = t
	return nil
}

func (p *fakePlayer) CurrentTime() float64 { return p.pos }
func (p *fakePlayer) Duration() float64    { return p.duration }
func (p *fakePlayer) SampleRate() float64  { return p.rate }
func (p *fakePlayer) SetVolume(v float64)  { p.volume = v }
func (p *fakePlayer) IsPlaying() bool      { return p.playing }
func (p *fakePlayer) Close() error         { return nil }

var errOutput = errors.New("output device gone")
