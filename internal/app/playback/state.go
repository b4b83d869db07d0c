package playback

import "github.com/osa030/bitperfect/internal/domain/audio"

// Status is a consistent snapshot of the engine for display.
type Status struct {
	State              audio.State
	CurrentTime        float64
	Duration           float64
	FileName           string
	FileSampleRate     float64
	HardwareSampleRate float64
	SampleRateMismatch bool // Both rates known and different
	IsPlaying          bool
	IsLoading          bool
	HasError           bool
	Volume             float64
}

func newStatus(state audio.State, currentTime, hardwareRate, volume float64) Status {
	s := Status{
		State:              state,
		CurrentTime:        currentTime,
		HardwareSampleRate: hardwareRate,
		IsPlaying:          state.IsPlaying(),
		IsLoading:          state.IsLoading(),
		HasError:           state.HasError(),
		Volume:             volume,
	}
	if info, ok := state.AudioInfo(); ok {
		s.Duration = info.Duration
		s.FileName = info.FileName
		s.FileSampleRate = info.SampleRate
	}
	s.SampleRateMismatch = s.FileSampleRate > 0 && s.HardwareSampleRate > 0 &&
		s.FileSampleRate != s.HardwareSampleRate
	return s
}
