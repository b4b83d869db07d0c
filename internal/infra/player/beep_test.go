package player

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/bitperfect/internal/infra/audiofile"
)

// fakeSink collects streamers and lets tests pull samples through them.
type fakeSink struct {
	mu        sync.Mutex
	rates     []beep.SampleRate
	streamers []beep.Streamer
	initErr   error
}

func (s *fakeSink) Init(rate beep.SampleRate) error {
	if s.initErr != nil {
		return s.initErr
	}
	s.rates = append(s.rates, rate)
	return nil
}

func (s *fakeSink) Play(st beep.Streamer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streamers = append(s.streamers, st)
}

func (s *fakeSink) Lock()   { s.mu.Lock() }
func (s *fakeSink) Unlock() { s.mu.Unlock() }

// pull renders n samples the way the speaker mixer would, dropping drained streamers.
func (s *fakeSink) pull(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([][2]float64, n)
	live := s.streamers[:0]
	for _, st := range s.streamers {
		if _, ok := st.Stream(buf); ok {
			live = append(live, st)
		}
	}
	s.streamers = live
}

func makeWAV(t *testing.T, rate beep.SampleRate, d time.Duration) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	format := beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2}
	require.NoError(t, wav.Encode(f, beep.Silence(rate.N(d)), format))
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func openWAV(t *testing.T, sink Sink, rate beep.SampleRate, d time.Duration) Player {
	t.Helper()
	file := &audiofile.LoadedFile{Name: "tone.wav", Ext: ".wav", Data: makeWAV(t, rate, d)}
	p, err := NewBeepFactory(sink).NewPlayer(file)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestBeepFactory_Metadata(t *testing.T) {
	p := openWAV(t, &fakeSink{}, 96000, 2*time.Second)

	assert.Equal(t, 96000.0, p.SampleRate())
	assert.InDelta(t, 2.0, p.Duration(), 0.001)
	assert.Equal(t, 0.0, p.CurrentTime())
	assert.False(t, p.IsPlaying())
}

func TestBeepFactory_UnsupportedFormat(t *testing.T) {
	_, err := NewBeepFactory(&fakeSink{}).NewPlayer(&audiofile.LoadedFile{Name: "a.ogg", Ext: ".ogg"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, audiofile.ErrUnsupportedFormat))
}

func TestBeepFactory_CorruptData(t *testing.T) {
	_, err := NewBeepFactory(&fakeSink{}).NewPlayer(&audiofile.LoadedFile{Name: "a.wav", Ext: ".wav", Data: []byte("nope")})
	assert.Error(t, err)
}

func TestBeep_PlayOpensSinkAtFileRate(t *testing.T) {
	sink := &fakeSink{}
	p := openWAV(t, sink, 88200, time.Second)

	require.NoError(t, p.Play())
	assert.Equal(t, []beep.SampleRate{88200}, sink.rates)
	assert.True(t, p.IsPlaying())

	sink.pull(44100)
	assert.InDelta(t, 0.5, p.CurrentTime(), 0.001)

	p.Pause()
	assert.False(t, p.IsPlaying())
	sink.pull(44100)
	assert.InDelta(t, 0.5, p.CurrentTime(), 0.001, "paused stream does not advance")

	require.NoError(t, p.Play())
	assert.Len(t, sink.streamers, 1, "resume does not queue the stream twice")
}

func TestBeep_SeekClamps(t *testing.T) {
	p := openWAV(t, &fakeSink{}, 44100, time.Second)

	require.NoError(t, p.Seek(0.25))
	assert.InDelta(t, 0.25, p.CurrentTime(), 0.001)

	require.NoError(t, p.Seek(10))
	assert.InDelta(t, 1.0, p.CurrentTime(), 0.001)

	require.NoError(t, p.Seek(-3))
	assert.Equal(t, 0.0, p.CurrentTime())
}

func TestBeep_StopRewinds(t *testing.T) {
	sink := &fakeSink{}
	p := openWAV(t, sink, 44100, time.Second)

	require.NoError(t, p.Play())
	sink.pull(22050)
	p.Stop()

	assert.False(t, p.IsPlaying())
	assert.Equal(t, 0.0, p.CurrentTime())
}

func TestBeep_EndOfStreamRequeuesOnPlay(t *testing.T) {
	sink := &fakeSink{}
	p := openWAV(t, sink, 44100, 100*time.Millisecond)

	require.NoError(t, p.Play())
	sink.pull(44100)
	sink.pull(1)
	assert.Empty(t, sink.streamers)
	assert.False(t, p.IsPlaying(), "drained stream is no longer playing")
	assert.InDelta(t, 0.1, p.CurrentTime(), 0.001)

	require.NoError(t, p.Seek(0))
	require.NoError(t, p.Play())
	assert.Len(t, sink.streamers, 1)
	assert.True(t, p.IsPlaying())
}

func TestBeep_PlayFailsWhenSinkUnavailable(t *testing.T) {
	sink := &fakeSink{initErr: ErrAudioUnavailable}
	p := openWAV(t, sink, 44100, time.Second)

	err := p.Play()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAudioUnavailable))
	assert.False(t, p.IsPlaying())
}

func TestBeep_SetVolume(t *testing.T) {
	p := openWAV(t, &fakeSink{}, 44100, time.Second).(*Beep)

	p.SetVolume(0.5)
	assert.False(t, p.volume.Silent)
	assert.InDelta(t, -1.0, p.volume.Volume, 1e-9)

	p.SetVolume(0)
	assert.True(t, p.volume.Silent)

	p.SetVolume(7)
	assert.False(t, p.volume.Silent)
	assert.Equal(t, 0.0, p.volume.Volume)
}

func TestBeep_Closed(t *testing.T) {
	p := openWAV(t, &fakeSink{}, 44100, time.Second)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	assert.True(t, errors.Is(p.Play(), ErrClosed))
	assert.True(t, errors.Is(p.Seek(1), ErrClosed))
	assert.Equal(t, 0.0, p.CurrentTime())
	assert.False(t, p.IsPlaying())
}
