// Package player provides the decoded playback primitive used by the engine.
package player

import (
	"github.com/cockroachdb/errors"

	"github.com/osa030/bitperfect/internal/infra/audiofile"
)

// Errors
var (
	ErrAudioUnavailable = errors.New("audio output not available in this build")
	ErrClosed           = errors.New("player is closed")
)

// Player is an opened, decoded audio file bound to an output.
// Times are in seconds.
type Player interface {
	// Play starts or resumes output from the current position.
	Play() error
	// Pause halts output and keeps the position.
	Pause()
	// Stop halts output and rewinds to the start.
	Stop()
	// Seek moves to t, clamped to [0, Duration].
	Seek(t float64) error
	CurrentTime() float64
	Duration() float64
	// SampleRate is the file's encoded rate in Hz.
	SampleRate() float64
	// SetVolume sets linear gain in [0, 1].
	SetVolume(v float64)
	IsPlaying() bool
	Close() error
}

// Factory opens a Player for a loaded file.
type Factory interface {
	NewPlayer(file *audiofile.LoadedFile) (Player, error)
}
