package main

import (
	"github.com/cockroachdb/errors"

	"github.com/osa030/bitperfect/internal/app/playback"
	"github.com/osa030/bitperfect/internal/app/session"
	"github.com/osa030/bitperfect/internal/app/tracker"
	"github.com/osa030/bitperfect/internal/infra/audiofile"
	"github.com/osa030/bitperfect/internal/infra/config"
	"github.com/osa030/bitperfect/internal/infra/player"
	"github.com/osa030/bitperfect/internal/infra/samplerate"
)

// newRates builds the sample rate manager for the configured backend.
func newRates(cfg *config.Config) (*samplerate.DeviceManager, error) {
	rates, err := samplerate.NewFromConfig(cfg.Device.Backend, cfg.Device.Settings)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create sample rate backend")
	}
	return rates, nil
}

// newEngine wires the playback engine against the system speaker.
func newEngine(cfg *config.Config, rates samplerate.Manager, syncOnLoad bool) *playback.Engine {
	sessions := session.NewManager(
		audiofile.NewFileLoader(audiofile.LocalAccess{}),
		player.NewBeepFactory(player.NewSpeakerSink(cfg.Playback.BufferSize())),
		rates,
		session.Config{
			SettleDelay:    cfg.Playback.SettleDelay(),
			KeepDeviceRate: !syncOnLoad,
		},
	)

	tr := tracker.New(tracker.Config{
		Interval:      cfg.Playback.ProgressInterval(),
		PeriodicEvery: cfg.Playback.PeriodicEveryTicks,
		FinishEpsilon: cfg.Playback.FinishEpsilon(),
	})

	return playback.NewEngine(sessions, rates, tr, playback.Config{
		SkipInterval:  cfg.Playback.SkipInterval(),
		Volume:        cfg.Playback.Volume,
		FinishEpsilon: cfg.Playback.FinishEpsilon(),
	})
}
