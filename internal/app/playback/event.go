package playback

import "github.com/osa030/bitperfect/internal/domain/audio"

// EventType represents a playback event type.
type EventType int

const (
	EventStateChanged        EventType = iota // Playback state changed
	EventProgress                             // Position advanced or was moved
	EventHardwareRateChanged                  // Device nominal rate changed
	EventFinished                             // Track reached its end
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventStateChanged:
		return "state_changed"
	case EventProgress:
		return "progress"
	case EventHardwareRateChanged:
		return "hardware_rate_changed"
	case EventFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Event represents a playback event.
type Event struct {
	Type         EventType
	State        audio.State // State at the time of the event
	Time         float64     // Position in seconds
	HardwareRate float64     // Device nominal rate (0 if unknown)
}
