package usecase

import (
	"context"

	"github.com/osa030/bitperfect/internal/domain/audio"
	"github.com/osa030/bitperfect/internal/infra/samplerate"
)

// SyncSampleRate switches the output device to the loaded file's rate.
type SyncSampleRate struct {
	rates samplerate.Manager
}

// NewSyncSampleRate creates the sync use case.
func NewSyncSampleRate(rates samplerate.Manager) *SyncSampleRate {
	return &SyncSampleRate{rates: rates}
}

// Execute applies the file rate and returns it. Unlike loading, a failure
// here is reported to the caller as SampleRateSyncFailed.
func (u *SyncSampleRate) Execute(ctx context.Context, state audio.State) (float64, error) {
	info, ok := state.AudioInfo()
	if !ok {
		return 0, audio.ErrNoFileLoaded
	}

	if err := u.rates.SetSampleRate(ctx, info.SampleRate); err != nil {
		return 0, audio.SampleRateSyncFailed(err.Error())
	}
	return info.SampleRate, nil
}
