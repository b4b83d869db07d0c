package samplerate

import (
	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"
)

// Backend names
const (
	BackendPipeWire = "pipewire"
	BackendMemory   = "memory"
)

// MemoryConfig configures the in-process backend.
type MemoryConfig struct {
	NominalRate    float64   `yaml:"nominal_rate" mapstructure:"nominal_rate" default:"44100" validate:"gt=0"`
	SupportedRates []float64 `yaml:"supported_rates" mapstructure:"supported_rates" validate:"dive,gt=0"`
}

// NewFromConfig creates a Manager for the named backend.
// settings holds backend-specific keys from the config file.
func NewFromConfig(backend string, settings map[string]any) (*DeviceManager, error) {
	var device Device

	switch backend {
	case BackendPipeWire:
		var cfg PipeWireConfig
		if err := decodeSettings(settings, &cfg); err != nil {
			return nil, errors.Wrap(err, "invalid pipewire settings")
		}
		device = NewPipeWire(cfg)

	case BackendMemory:
		var cfg MemoryConfig
		if err := decodeSettings(settings, &cfg); err != nil {
			return nil, errors.Wrap(err, "invalid memory settings")
		}
		supported := cfg.SupportedRates
		if len(supported) == 0 {
			supported = []float64{cfg.NominalRate}
		}
		device = NewMemoryDevice(cfg.NominalRate, supported...)

	default:
		return nil, errors.Newf("unsupported device backend: %s", backend)
	}

	zlog.Debug().Msgf("samplerate: created device backend: backend=%s settings=%+v", backend, settings)
	return NewDeviceManager(device), nil
}

// decodeSettings decodes settings into out, applies defaults and validates.
func decodeSettings(settings map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create decoder")
	}

	if err := decoder.Decode(settings); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}

	if err := defaults.Set(out); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}

	validate := validator.New()
	if err := validate.Struct(out); err != nil {
		return errors.Wrap(err, "validation failed")
	}
	return nil
}
