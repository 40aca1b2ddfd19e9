package audio

import (
	"context"
	"errors"
	"time"
)

// Capture format. The recorder only handles mono signed 16-bit PCM.
const (
	Channels      = 1
	BitDepth      = 16
	BytesPerFrame = Channels * BitDepth / 8
)

// Defaults for the capture configuration.
const (
	DefaultSampleRate = 16000
	DefaultBlockSize  = 1024
)

// Sentinel errors for audio operations.
var (
	// ErrNoAudioDevice is returned when no audio input device is available.
	ErrNoAudioDevice = errors.New("no audio input device found")

	// ErrDeviceNotFound is returned when the selector matches no input device.
	ErrDeviceNotFound = errors.New("audio input device not found")

	// ErrNoOutput is returned by Play when the device has no output stream.
	ErrNoOutput = errors.New("audio output not available")

	// ErrUnsupportedFormat is returned for WAV files that are not mono 16-bit PCM.
	ErrUnsupportedFormat = errors.New("unsupported audio format: need mono 16-bit PCM")
)

// Source yields fixed-size blocks of mono 16-bit samples.
// Read blocks until one block is available. The returned slice is owned by
// the caller.
type Source interface {
	Read() ([]int16, error)
}

// Clock is implemented by sources that carry their own notion of time,
// such as a replayed file.
type Clock interface {
	Now() time.Time
}

// Player plays a WAV file synchronously.
type Player interface {
	Play(ctx context.Context, path string) error
}

// DeviceInfo describes an audio device.
type DeviceInfo struct {
	// Index is the position in the host device list.
	Index int `json:"index"`
	// Name is the device display name.
	Name string `json:"name"`
	// MaxInputChannels is zero for output-only devices.
	MaxInputChannels int `json:"max_input_channels"`
	// MaxOutputChannels is zero for input-only devices.
	MaxOutputChannels int `json:"max_output_channels"`
	// DefaultSampleRate is the device's native rate in Hz.
	DefaultSampleRate float64 `json:"default_sample_rate"`
}

// IsInput reports whether the device can capture audio.
func (d *DeviceInfo) IsInput() bool {
	return d.MaxInputChannels > 0
}

// CaptureConfig defines how the capture device is opened.
type CaptureConfig struct {
	// SampleRate is the capture rate in Hz.
	SampleRate int
	// BlockSize is the number of samples returned per Read.
	BlockSize int
	// Device selects the input device by index or name. Empty picks the first input.
	Device string
}
