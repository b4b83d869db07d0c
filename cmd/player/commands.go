package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/osa030/bitperfect/internal/infra/audiofile"
	"github.com/osa030/bitperfect/internal/infra/config"
	"github.com/osa030/bitperfect/internal/infra/player"
)

func runRates(cfg *config.Config) error {
	rates, err := newRates(cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	current, ok := rates.CurrentSampleRate(ctx)
	if ok {
		fmt.Printf("Current:   %s\n", formatRate(current))
	} else {
		fmt.Println("Current:   unknown")
	}

	supported := rates.SupportedSampleRates(ctx)
	if len(supported) == 0 {
		fmt.Println("Supported: none reported")
		return nil
	}
	labels := lo.Map(supported, func(r float64, _ int) string {
		if ok && r == current {
			return formatRate(r) + "*"
		}
		return formatRate(r)
	})
	fmt.Printf("Supported: %s\n", strings.Join(labels, ", "))
	return nil
}

func runSetRate(cfg *config.Config, rate float64) error {
	rates, err := newRates(cfg)
	if err != nil {
		return err
	}

	if err := rates.SetSampleRate(context.Background(), rate); err != nil {
		return err
	}
	fmt.Printf("Device switched to %s\n", formatRate(rate))
	return nil
}

func runInfo(cfg *config.Config, path string) error {
	file, err := audiofile.NewFileLoader(audiofile.LocalAccess{}).Load(context.Background(), path)
	if err != nil {
		return err
	}

	p, err := player.NewBeepFactory(player.NewSpeakerSink(cfg.Playback.BufferSize())).NewPlayer(file)
	if err != nil {
		return err
	}
	defer p.Close()

	fmt.Printf("File:     %s\n", file.Name)
	fmt.Printf("Format:   %s\n", strings.TrimPrefix(file.Ext, "."))
	fmt.Printf("Size:     %d bytes\n", file.Size)
	fmt.Printf("Duration: %s\n", formatClock(p.Duration()))
	fmt.Printf("Rate:     %s\n", formatRate(p.SampleRate()))
	return nil
}
