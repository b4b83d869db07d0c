//go:build (linux && cgo) || windows || darwin

package player

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
	zlog "github.com/rs/zerolog/log"
)

// AudioAvailable indicates whether audio output is supported in this build.
const AudioAvailable = true

// SpeakerSink renders through beep's speaker.
type SpeakerSink struct {
	mu          sync.Mutex
	bufferSize  time.Duration
	initialized bool
	rate        beep.SampleRate
}

var _ Sink = (*SpeakerSink)(nil)

// NewSpeakerSink creates a sink with the given output buffer length.
func NewSpeakerSink(bufferSize time.Duration) *SpeakerSink {
	return &SpeakerSink{bufferSize: bufferSize}
}

// Init opens the speaker at rate, reopening it when the rate changes.
func (s *SpeakerSink) Init(rate beep.SampleRate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized && s.rate == rate {
		return nil
	}

	if s.initialized {
		zlog.Debug().Msgf("player: reopening speaker: %d Hz -> %d Hz", s.rate, rate)
		speaker.Close()
		s.initialized = false
	}

	if err := speaker.Init(rate, rate.N(s.bufferSize)); err != nil {
		return errors.Wrapf(err, "failed to open speaker at %d Hz", rate)
	}
	s.initialized = true
	s.rate = rate
	return nil
}

func (s *SpeakerSink) Play(st beep.Streamer) { speaker.Play(st) }

func (s *SpeakerSink) Lock()   { speaker.Lock() }
func (s *SpeakerSink) Unlock() { speaker.Unlock() }
