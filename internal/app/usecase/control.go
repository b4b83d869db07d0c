package usecase

import (
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/bitperfect/internal/domain/audio"
	"github.com/osa030/bitperfect/internal/infra/player"
)

// Control implements play, pause and stop.
type Control struct {
	// RewindWindow is how close to the end a finished track must be for
	// Play to restart it from the beginning.
	RewindWindow time.Duration
}

// Play starts or resumes playback and returns the Playing state.
func (u Control) Play(state audio.State, p player.Player) (audio.State, error) {
	if err := checkPlayable(state, p); err != nil {
		return state, err
	}
	info, _ := state.AudioInfo()

	prev := p.CurrentTime()
	rewound := false
	if state.Kind() == audio.StateFinished && prev >= info.Duration-u.RewindWindow.Seconds() {
		if err := p.Seek(0); err != nil {
			return state, errors.Wrap(err, "failed to rewind finished track")
		}
		rewound = true
	}

	if err := p.Play(); err != nil {
		// The state stays Finished, so the position must stay at the end.
		if rewound {
			if serr := p.Seek(prev); serr != nil {
				zlog.Warn().Err(serr).Msgf("usecase: failed to restore position %.3f", prev)
			}
		}
		return state, errors.Wrap(err, "failed to start playback")
	}
	return audio.Playing(info), nil
}

// Pause pauses playback and returns the Paused state.
func (u Control) Pause(state audio.State, p player.Player) (audio.State, error) {
	if !state.CanPause() || p == nil {
		return state, audio.ErrNotPlaying
	}
	info, _ := state.AudioInfo()

	p.Pause()
	return audio.Paused(info), nil
}

// Stop rewinds to the start and returns Ready. Without loaded audio it is a no-op.
func (u Control) Stop(state audio.State, p player.Player) audio.State {
	info, ok := state.AudioInfo()
	if !ok || p == nil {
		return state
	}

	p.Stop()
	return audio.Ready(info)
}

func checkPlayable(state audio.State, p player.Player) error {
	switch {
	case state.IsPlaying():
		return audio.ErrAlreadyPlaying
	case state.Kind() == audio.StateIdle || (state.CanPlay() && p == nil):
		return audio.ErrNoFileLoaded
	case !state.CanPlay():
		return audio.ErrNotReady
	default:
		return nil
	}
}
