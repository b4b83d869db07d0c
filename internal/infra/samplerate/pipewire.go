package samplerate

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/GiGurra/cmder"
	"github.com/cockroachdb/errors"
)

const (
	keyClockRate    = "clock.rate"
	keyForceRate    = "clock.force-rate"
	keyAllowedRates = "clock.allowed-rates"
)

var metadataValueRe = regexp.MustCompile(`key:'([^']+)' value:'([^']*)'`)

// PipeWireConfig configures the PipeWire backend.
type PipeWireConfig struct {
	Command   string `yaml:"command" mapstructure:"command" default:"pw-metadata" validate:"required"`
	Metadata  string `yaml:"metadata" mapstructure:"metadata" default:"settings" validate:"required"`
	SubjectID int    `yaml:"subject_id" mapstructure:"subject_id" validate:"gte=0"`
	TimeoutMs int    `yaml:"timeout_ms" mapstructure:"timeout_ms" default:"2000" validate:"gte=100,lte=30000"`
}

// PipeWire drives the graph clock through the PipeWire settings metadata.
// Forcing clock.force-rate retunes the graph (and with it the sink) to the
// requested rate when it is listed in clock.allowed-rates.
type PipeWire struct {
	config PipeWireConfig
}

var _ Device = (*PipeWire)(nil)

// NewPipeWire creates a PipeWire device.
func NewPipeWire(config PipeWireConfig) *PipeWire {
	return &PipeWire{config: config}
}

// NominalRate returns the forced rate, or the graph default when nothing is forced.
func (p *PipeWire) NominalRate(ctx context.Context) (float64, error) {
	forced, err := p.readKey(ctx, keyForceRate)
	if err == nil {
		if rate, perr := parseRate(forced); perr == nil && rate > 0 {
			return rate, nil
		}
	}

	value, err := p.readKey(ctx, keyClockRate)
	if err != nil {
		return 0, err
	}
	return parseRate(value)
}

// SetNominalRate forces the graph to rate.
func (p *PipeWire) SetNominalRate(ctx context.Context, rate float64) error {
	_, err := p.run(ctx, keyForceRate, strconv.Itoa(int(rate)))
	return err
}

// AvailableRates returns clock.allowed-rates, falling back to the graph default rate.
func (p *PipeWire) AvailableRates(ctx context.Context) ([]Range, error) {
	value, err := p.readKey(ctx, keyAllowedRates)
	if err == nil {
		if rates := parseRateList(value); len(rates) > 0 {
			ranges := make([]Range, 0, len(rates))
			for _, r := range rates {
				ranges = append(ranges, Range{Min: r, Max: r})
			}
			return ranges, nil
		}
	}

	rate, err := p.NominalRate(ctx)
	if err != nil {
		return nil, err
	}
	return []Range{{Min: rate, Max: rate}}, nil
}

func (p *PipeWire) readKey(ctx context.Context, key string) (string, error) {
	out, err := p.run(ctx, key)
	if err != nil {
		return "", err
	}

	value, ok := parseMetadataValue(out, key)
	if !ok {
		return "", errors.Newf("%s not present in %s metadata", key, p.config.Metadata)
	}
	return value, nil
}

// run invokes pw-metadata against the configured metadata object and returns stdout.
func (p *PipeWire) run(ctx context.Context, args ...string) (string, error) {
	cmdAndArgs := append([]string{p.config.Command, "-n", p.config.Metadata, strconv.Itoa(p.config.SubjectID)}, args...)

	res := cmder.New(cmdAndArgs...).
		WithAttemptTimeout(time.Duration(p.config.TimeoutMs) * time.Millisecond).
		Run(ctx)
	if res.Err != nil {
		return "", errors.Wrapf(res.Err, "%s failed: %s", strings.Join(cmdAndArgs, " "), strings.TrimSpace(res.Combined))
	}
	return res.StdOut, nil
}

// parseMetadataValue extracts the value of key from pw-metadata output.
func parseMetadataValue(output, key string) (string, bool) {
	for _, line := range strings.Split(output, "\n") {
		m := metadataValueRe.FindStringSubmatch(line)
		if len(m) == 3 && m[1] == key {
			return m[2], true
		}
	}
	return "", false
}

func parseRate(value string) (float64, error) {
	rate, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid rate %q", value)
	}
	return rate, nil
}

// parseRateList parses values like "[ 44100 48000 96000 ]".
func parseRateList(value string) []float64 {
	value = strings.NewReplacer("[", " ", "]", " ", ",", " ").Replace(value)
	var rates []float64
	for _, field := range strings.Fields(value) {
		if r, err := parseRate(field); err == nil && r > 0 {
			rates = append(rates, r)
		}
	}
	return rates
}
