// Package audio provides the level estimator and the audio collaborators of
// the recorder: the portaudio capture device and a WAV replay source.
package audio

import (
	"errors"
	"math"
	"time"
)

const (
	// MaxSampleValue is the normalisation divisor for 16-bit signed audio.
	MaxSampleValue = 32768.0
	// LoudnessScale scales the normalised RMS into display units.
	LoudnessScale = 1000.0
)

// ErrInvalidInput is returned when a block holds no samples.
var ErrInvalidInput = errors.New("invalid input: empty audio block")

// Loudness returns the RMS of the normalised samples scaled by LoudnessScale.
// A full-scale square wave measures just under 1000.
func Loudness(block []int16) (float64, error) {
	if len(block) == 0 {
		return 0, ErrInvalidInput
	}

	var sumSquares float64
	for _, s := range block {
		n := float64(s) / MaxSampleValue
		sumSquares += n * n
	}

	return math.Sqrt(sumSquares/float64(len(block))) * LoudnessScale, nil
}

// BlockDuration returns the playing time of a block of samples at rate Hz.
func BlockDuration(samples, rate int) time.Duration {
	if rate <= 0 {
		return 0
	}
	return time.Duration(samples) * time.Second / time.Duration(rate)
}

// SamplesFor returns how many samples at rate Hz cover d.
func SamplesFor(d time.Duration, rate int) int {
	return int(d * time.Duration(rate) / time.Second)
}
