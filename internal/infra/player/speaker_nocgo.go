//go:build linux && !cgo

package player

import (
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
)

// AudioAvailable indicates whether audio output is supported in this build.
// Output on Linux needs cgo for ALSA.
const AudioAvailable = false

// SpeakerSink cannot open an output without cgo. Decoding still works, so
// files can be inspected but not played.
type SpeakerSink struct {
	mu sync.Mutex
}

var _ Sink = (*SpeakerSink)(nil)

// NewSpeakerSink creates a sink that refuses to open.
func NewSpeakerSink(_ time.Duration) *SpeakerSink {
	return &SpeakerSink{}
}

func (s *SpeakerSink) Init(_ beep.SampleRate) error { return ErrAudioUnavailable }
func (s *SpeakerSink) Play(_ beep.Streamer)         {}
func (s *SpeakerSink) Lock()                        { s.mu.Lock() }
func (s *SpeakerSink) Unlock()                      { s.mu.Unlock() }
