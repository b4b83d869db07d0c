package audio

// StateKind represents the playback state variant.
type StateKind int

const (
	StateIdle     StateKind = iota // Nothing loaded
	StateLoading                   // A file is being loaded
	StateReady                     // Loaded, positioned, not started
	StatePlaying                   // Playing
	StatePaused                    // Paused mid-track
	StateFinished                  // Reached end of track
	StateError                     // Load failed
)

// String returns the string representation of the state kind.
func (k StateKind) String() string {
	switch k {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateFinished:
		return "finished"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// State is the playback state. The zero value is Idle.
// Ready, Playing, Paused and Finished carry AudioInfo; Error carries an *Error.
type State struct {
	kind StateKind
	info AudioInfo
	err  *Error
}

// Idle returns the Idle state.
func Idle() State { return State{kind: StateIdle} }

// Loading returns the Loading state.
func Loading() State { return State{kind: StateLoading} }

// Ready returns the Ready state for info.
func Ready(info AudioInfo) State { return State{kind: StateReady, info: info} }

// Playing returns the Playing state for info.
func Playing(info AudioInfo) State { return State{kind: StatePlaying, info: info} }

// Paused returns the Paused state for info.
func Paused(info AudioInfo) State { return State{kind: StatePaused, info: info} }

// Finished returns the Finished state for info.
func Finished(info AudioInfo) State { return State{kind: StateFinished, info: info} }

// Failed returns the Error state for err.
func Failed(err *Error) State { return State{kind: StateError, err: err} }

// Kind returns the state variant.
func (s State) Kind() StateKind { return s.kind }

// CanPlay is true for Ready, Paused and Finished.
func (s State) CanPlay() bool {
	switch s.kind {
	case StateReady, StatePaused, StateFinished:
		return true
	default:
		return false
	}
}

// CanPause is true only while playing.
func (s State) CanPause() bool { return s.kind == StatePlaying }

// CanSeek is true for every state that carries AudioInfo.
func (s State) CanSeek() bool {
	switch s.kind {
	case StateReady, StatePlaying, StatePaused, StateFinished:
		return true
	default:
		return false
	}
}

// IsPlaying reports whether audio is being rendered.
func (s State) IsPlaying() bool { return s.kind == StatePlaying }

// IsLoading reports whether a file is being opened.
func (s State) IsLoading() bool { return s.kind == StateLoading }

// HasError reports whether the last operation failed.
func (s State) HasError() bool { return s.kind == StateError }

// AudioInfo returns the attached metadata for the data-carrying states.
func (s State) AudioInfo() (AudioInfo, bool) {
	switch s.kind {
	case StateReady, StatePlaying, StatePaused, StateFinished:
		return s.info, true
	default:
		return AudioInfo{}, false
	}
}

// Err returns the attached error for the Error state, nil otherwise.
func (s State) Err() *Error {
	if s.kind != StateError {
		return nil
	}
	return s.err
}

// String returns the string representation of the state.
func (s State) String() string {
	switch s.kind {
	case StateReady, StatePlaying, StatePaused, StateFinished:
		return s.kind.String() + "(" + s.info.FileName + ")"
	case StateError:
		if s.err != nil {
			return "error(" + s.err.Error() + ")"
		}
		return "error"
	default:
		return s.kind.String()
	}
}
