// Package audio provides the playback domain: audio metadata, the playback
// state machine and the typed playback errors.
package audio

import "time"

// AudioInfo describes a loaded audio file. It is immutable once constructed.
type AudioInfo struct {
	FileName   string  // Display name of the file
	Duration   float64 // Duration in seconds (>= 0)
	SampleRate float64 // Encoded sample rate in Hz (> 0)
}

// NewAudioInfo creates an AudioInfo, flooring a negative duration to zero.
func NewAudioInfo(fileName string, duration, sampleRate float64) AudioInfo {
	if duration < 0 {
		duration = 0
	}
	return AudioInfo{
		FileName:   fileName,
		Duration:   duration,
		SampleRate: sampleRate,
	}
}

// ClampSeekTime limits t to [0, Duration].
func (i AudioInfo) ClampSeekTime(t float64) float64 {
	return max(0, min(t, i.Duration))
}

// SkipForward returns the clamped position `by` seconds after `from`.
func (i AudioInfo) SkipForward(from, by float64) float64 {
	return i.ClampSeekTime(from + by)
}

// SkipBackward returns the clamped position `by` seconds before `from`.
func (i AudioInfo) SkipBackward(from, by float64) float64 {
	return i.ClampSeekTime(from - by)
}

// DurationValue returns the duration as a time.Duration.
func (i AudioInfo) DurationValue() time.Duration {
	return time.Duration(i.Duration * float64(time.Second))
}
