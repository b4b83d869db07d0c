package player

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/bitperfect/internal/infra/audiofile"
)

// Beep plays a decoded stream through a Sink at the stream's own rate.
type Beep struct {
	mu sync.Mutex

	sink     Sink
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume

	// queued is true while the stream is registered with the sink. It is
	// cleared from the output goroutine once the stream runs out.
	queued atomic.Bool
	closed bool
}

var _ Player = (*Beep)(nil)

// NewBeep creates a paused player for streamer.
func NewBeep(sink Sink, streamer beep.StreamSeekCloser, format beep.Format) *Beep {
	ctrl := &beep.Ctrl{Streamer: streamer, Paused: true}
	return &Beep{
		sink:     sink,
		streamer: streamer,
		format:   format,
		ctrl:     ctrl,
		volume:   &effects.Volume{Streamer: ctrl, Base: 2},
	}
}

// Play starts or resumes output.
func (p *Beep) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	if !p.queued.Load() {
		if err := p.sink.Init(p.format.SampleRate); err != nil {
			return errors.Wrap(err, "failed to open output")
		}
		p.queued.Store(true)
		p.sink.Play(beep.Seq(p.volume, beep.Callback(func() {
			p.queued.Store(false)
		})))
	}

	p.sink.Lock()
	p.ctrl.Paused = false
	p.sink.Unlock()
	return nil
}

// Pause halts output.
func (p *Beep) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pauseLocked()
}

// Stop halts output and rewinds.
func (p *Beep) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pauseLocked()
	if p.closed {
		return
	}
	p.sink.Lock()
	if err := p.streamer.Seek(0); err != nil {
		zlog.Warn().Err(err).Msg("player: failed to rewind")
	}
	p.sink.Unlock()
}

// Seek moves to t seconds.
func (p *Beep) Seek(t float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	n := p.format.SampleRate.N(time.Duration(t * float64(time.Second)))
	n = max(0, min(n, p.streamer.Len()))

	p.sink.Lock()
	defer p.sink.Unlock()
	if err := p.streamer.Seek(n); err != nil {
		return errors.Wrapf(err, "failed to seek to %.3fs", t)
	}
	return nil
}

// CurrentTime returns the position in seconds.
func (p *Beep) CurrentTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0
	}
	p.sink.Lock()
	pos := p.streamer.Position()
	p.sink.Unlock()
	return p.format.SampleRate.D(pos).Seconds()
}

// Duration returns the stream length in seconds.
func (p *Beep) Duration() float64 {
	return p.format.SampleRate.D(p.streamer.Len()).Seconds()
}

// SampleRate returns the encoded rate.
func (p *Beep) SampleRate() float64 {
	return float64(p.format.SampleRate)
}

// SetVolume sets linear gain, mapped onto the base-2 volume scale.
func (p *Beep) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	v = max(0, min(v, 1))
	p.sink.Lock()
	if v == 0 {
		p.volume.Silent = true
		p.volume.Volume = 0
	} else {
		p.volume.Silent = false
		p.volume.Volume = math.Log2(v)
	}
	p.sink.Unlock()
}

// IsPlaying reports whether the stream is queued and unpaused.
func (p *Beep) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || !p.queued.Load() {
		return false
	}
	p.sink.Lock()
	paused := p.ctrl.Paused
	p.sink.Unlock()
	return !paused
}

// Close detaches the stream from the output and releases the decoder.
func (p *Beep) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.pauseLocked()
	p.closed = true

	// Dropping the inner streamer ends the queued sequence on the next buffer.
	p.sink.Lock()
	p.ctrl.Streamer = nil
	p.sink.Unlock()

	return p.streamer.Close()
}

func (p *Beep) pauseLocked() {
	if p.closed {
		return
	}
	p.sink.Lock()
	p.ctrl.Paused = true
	p.sink.Unlock()
}

// BeepFactory opens Beep players on a shared sink.
type BeepFactory struct {
	sink Sink
}

var _ Factory = (*BeepFactory)(nil)

// NewBeepFactory creates a factory rendering into sink.
func NewBeepFactory(sink Sink) *BeepFactory {
	return &BeepFactory{sink: sink}
}

// NewPlayer decodes file and returns a paused player positioned at 0.
func (f *BeepFactory) NewPlayer(file *audiofile.LoadedFile) (Player, error) {
	streamer, format, err := Decode(file.Ext, file.Data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", file.Name)
	}

	zlog.Debug().Msgf("player: decoded %s: rate=%d channels=%d precision=%d samples=%d",
		file.Name, format.SampleRate, format.NumChannels, format.Precision, streamer.Len())

	return NewBeep(f.sink, streamer, format), nil
}
