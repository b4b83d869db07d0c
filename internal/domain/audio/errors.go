package audio

import (
	"fmt"
)

// ErrorKind identifies a playback error variant.
type ErrorKind int

const (
	KindNotReady             ErrorKind = iota // Player is not in a playable state
	KindNoFileLoaded                          // Nothing has been loaded yet
	KindAlreadyPlaying                        // Play requested while playing
	KindNotPlaying                            // Pause requested while not playing
	KindLoadingCancelled                      // Load superseded or cancelled
	KindLoadFailed                            // Load failed (carries message)
	KindSampleRateSyncFailed                  // Hardware rate could not be set (carries message)
)

// String returns the string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindNotReady:
		return "not_ready"
	case KindNoFileLoaded:
		return "no_file_loaded"
	case KindAlreadyPlaying:
		return "already_playing"
	case KindNotPlaying:
		return "not_playing"
	case KindLoadingCancelled:
		return "loading_cancelled"
	case KindLoadFailed:
		return "load_failed"
	case KindSampleRateSyncFailed:
		return "sample_rate_sync_failed"
	default:
		return "unknown"
	}
}

// Error is a playback error. Two errors match under errors.Is when their
// kinds are equal, so the sentinels below can be used regardless of message.
type Error struct {
	Kind    ErrorKind
	Message string
}

// Sentinels
var (
	ErrNotReady             = &Error{Kind: KindNotReady}
	ErrNoFileLoaded         = &Error{Kind: KindNoFileLoaded}
	ErrAlreadyPlaying       = &Error{Kind: KindAlreadyPlaying}
	ErrNotPlaying           = &Error{Kind: KindNotPlaying}
	ErrLoadingCancelled     = &Error{Kind: KindLoadingCancelled}
	ErrLoadFailed           = &Error{Kind: KindLoadFailed}
	ErrSampleRateSyncFailed = &Error{Kind: KindSampleRateSyncFailed}
)

// LoadFailed creates a LoadFailed error with the given message.
func LoadFailed(message string) *Error {
	return &Error{Kind: KindLoadFailed, Message: message}
}

// SampleRateSyncFailed creates a SampleRateSyncFailed error with the given message.
func SampleRateSyncFailed(message string) *Error {
	return &Error{Kind: KindSampleRateSyncFailed, Message: message}
}

// Error returns a human-readable description.
func (e *Error) Error() string {
	switch e.Kind {
	case KindNotReady:
		return "player is not ready"
	case KindNoFileLoaded:
		return "no audio file loaded"
	case KindAlreadyPlaying:
		return "already playing"
	case KindNotPlaying:
		return "not playing"
	case KindLoadingCancelled:
		return "loading was cancelled"
	case KindLoadFailed:
		return fmt.Sprintf("failed to load audio file: %s", e.Message)
	case KindSampleRateSyncFailed:
		return fmt.Sprintf("failed to synchronize sample rate: %s", e.Message)
	default:
		return "unknown playback error"
	}
}

// Is reports whether target is a playback error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}
