package player

import (
	"bytes"

	"github.com/cockroachdb/errors"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/wav"

	"github.com/osa030/bitperfect/internal/infra/audiofile"
)

// Decode opens an in-memory file with the decoder matching ext.
func Decode(ext string, data []byte) (beep.StreamSeekCloser, beep.Format, error) {
	reader := bytes.NewReader(data)

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
		err      error
	)
	switch ext {
	case ".mp3":
		streamer, format, err = mp3.Decode(nopCloser{reader})
	case ".wav":
		streamer, format, err = wav.Decode(reader)
	case ".flac":
		streamer, format, err = flac.Decode(reader)
	default:
		return nil, beep.Format{}, errors.Wrapf(audiofile.ErrUnsupportedFormat, "%q", ext)
	}
	if err != nil {
		return nil, beep.Format{}, errors.Wrapf(err, "failed to decode %s", ext)
	}
	if format.SampleRate <= 0 {
		_ = streamer.Close()
		return nil, beep.Format{}, errors.Newf("invalid sample rate %d", format.SampleRate)
	}
	return streamer, format, nil
}

// nopCloser keeps the reader seekable, which io.NopCloser would hide from the mp3 decoder.
type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error { return nil }
