package usecase

import (
	"github.com/cockroachdb/errors"

	"github.com/osa030/bitperfect/internal/domain/audio"
	"github.com/osa030/bitperfect/internal/infra/player"
)

// Seeking moves the playback position. It never changes the state variant.
type Seeking struct{}

// Seek moves to t clamped to the track and returns the applied position.
func (u Seeking) Seek(state audio.State, p player.Player, t float64) (float64, error) {
	info, err := checkSeekable(state, p)
	if err != nil {
		return 0, err
	}
	return u.apply(p, info.ClampSeekTime(t))
}

// SkipForward moves `by` seconds past `from`.
func (u Seeking) SkipForward(state audio.State, p player.Player, from, by float64) (float64, error) {
	info, err := checkSeekable(state, p)
	if err != nil {
		return 0, err
	}
	return u.apply(p, info.SkipForward(from, by))
}

// SkipBackward moves `by` seconds before `from`.
func (u Seeking) SkipBackward(state audio.State, p player.Player, from, by float64) (float64, error) {
	info, err := checkSeekable(state, p)
	if err != nil {
		return 0, err
	}
	return u.apply(p, info.SkipBackward(from, by))
}

func (u Seeking) apply(p player.Player, target float64) (float64, error) {
	if err := p.Seek(target); err != nil {
		return 0, errors.Wrapf(err, "failed to seek to %.3fs", target)
	}
	return target, nil
}

func checkSeekable(state audio.State, p player.Player) (audio.AudioInfo, error) {
	if state.Kind() == audio.StateIdle || (state.CanSeek() && p == nil) {
		return audio.AudioInfo{}, audio.ErrNoFileLoaded
	}
	if !state.CanSeek() {
		return audio.AudioInfo{}, audio.ErrNotReady
	}
	info, _ := state.AudioInfo()
	return info, nil
}
