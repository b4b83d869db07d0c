package player

import (
	"github.com/gopxl/beep/v2"
)

// Sink is the audio output a Beep player renders into.
// Lock and Unlock guard streamer state against the output goroutine.
type Sink interface {
	// Init prepares the output at rate. Calling it again with a different rate
	// reopens the output so that no resampling is needed.
	Init(rate beep.SampleRate) error
	Play(s beep.Streamer)
	Lock()
	Unlock()
}
