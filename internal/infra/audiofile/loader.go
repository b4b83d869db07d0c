// Package audiofile loads audio file contents under scoped access.
package audiofile

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// Errors
var (
	ErrCancelled         = errors.New("load cancelled")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrAccessDenied      = errors.New("access to file denied")
)

// SupportedExtensions lists the extensions the decoders understand.
var SupportedExtensions = []string{".mp3", ".wav", ".flac"}

// LoadedFile is the raw content of an audio file.
type LoadedFile struct {
	Path     string    // Source path
	Name     string    // Base file name
	Ext      string    // Lower-case extension including the dot
	Data     []byte    // File contents
	Size     int64     // Size in bytes
	LoadedAt time.Time // When the file was read
}

// Loader reads audio files.
type Loader interface {
	Load(ctx context.Context, path string) (*LoadedFile, error)
}

// Access brackets I/O on a path. Acquire must be paired with the returned release.
type Access interface {
	Acquire(path string) (release func(), err error)
}

// LocalAccess grants access to readable regular files on the local filesystem.
type LocalAccess struct{}

// Acquire checks that path is a regular file.
func (LocalAccess) Acquire(path string) (func(), error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "cannot access %s", path), ErrAccessDenied)
	}
	if info.IsDir() {
		return nil, errors.Mark(errors.Newf("%s is a directory", path), ErrAccessDenied)
	}
	return func() {}, nil
}

// FileLoader loads whole files into memory.
type FileLoader struct {
	access   Access
	readFile func(string) ([]byte, error)
}

var _ Loader = (*FileLoader)(nil)

// NewFileLoader creates a loader using access. A nil access means LocalAccess.
func NewFileLoader(access Access) *FileLoader {
	if access == nil {
		access = LocalAccess{}
	}
	return &FileLoader{
		access:   access,
		readFile: os.ReadFile,
	}
}

// Load reads path. Cancellation is checked before and after the read and is
// reported as an error marked with ErrCancelled.
func (l *FileLoader) Load(ctx context.Context, path string) (*LoadedFile, error) {
	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !slices.Contains(SupportedExtensions, ext) {
		return nil, errors.Wrapf(ErrUnsupportedFormat, "%q", ext)
	}

	release, err := l.access.Acquire(path)
	if err != nil {
		return nil, err
	}
	defer release()

	data, err := l.readFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}

	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}

	zlog.Debug().Msgf("audiofile: loaded %s (%d bytes)", path, len(data))

	return &LoadedFile{
		Path:     path,
		Name:     filepath.Base(path),
		Ext:      ext,
		Data:     data,
		Size:     int64(len(data)),
		LoadedAt: time.Now(),
	}, nil
}

// Cancelled wraps the context error so that errors.Is(err, ErrCancelled) holds.
func Cancelled(ctx context.Context) error {
	cause := ctx.Err()
	if cause == nil {
		cause = context.Canceled
	}
	return errors.Mark(errors.Wrap(cause, "load cancelled"), ErrCancelled)
}

func checkCancelled(ctx context.Context) error {
	if ctx.Err() != nil {
		return Cancelled(ctx)
	}
	return nil
}
