package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gordonklaus/portaudio"
	"github.com/oszuidwest/zwfm-varecorder/internal/util"
)

// Device is a portaudio stream that captures mono blocks from an input device
// and, when a default output exists, plays WAV files back through it.
type Device struct {
	stream *portaudio.Stream
	info   DeviceInfo
	in     []int16
	out    []int16
	closed bool
}

// ListDevices returns every device known to the host audio API.
func ListDevices() ([]DeviceInfo, error) {
	restore := suppressStderr()
	defer restore()

	if err := portaudio.Initialize(); err != nil {
		return nil, util.WrapError("initialize audio", err)
	}
	defer func() { _ = portaudio.Terminate() }()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, util.WrapError("list audio devices", err)
	}
	return toDeviceInfos(devices), nil
}

// OpenDevice initializes the audio subsystem and starts a capture stream.
// The caller must Close the returned device.
func OpenDevice(cfg CaptureConfig) (*Device, error) {
	restore := suppressStderr()
	defer restore()

	if err := portaudio.Initialize(); err != nil {
		return nil, util.WrapError("initialize audio", err)
	}

	d, err := openStream(cfg)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, err
	}
	return d, nil
}

func openStream(cfg CaptureConfig) (*Device, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, util.WrapError("list audio devices", err)
	}

	infos := toDeviceInfos(devices)
	slog.Info("available audio devices", "devices", DescribeDevices(infos))

	selected, err := SelectDevice(infos, cfg.Device)
	if err != nil {
		return nil, err
	}
	input := devices[selected.Index]

	output, err := portaudio.DefaultOutputDevice()
	if err != nil || output == nil || output.MaxOutputChannels == 0 {
		slog.Warn("no audio output device, playback disabled", "error", err)
		output = nil
	}

	params := portaudio.HighLatencyParameters(input, output)
	params.Input.Channels = Channels
	params.SampleRate = float64(cfg.SampleRate)
	params.FramesPerBuffer = cfg.BlockSize

	d := &Device{
		info: selected,
		in:   make([]int16, cfg.BlockSize),
	}

	var stream *portaudio.Stream
	if output != nil {
		params.Output.Channels = Channels
		d.out = make([]int16, cfg.BlockSize)
		stream, err = portaudio.OpenStream(params, d.in, d.out)
	} else {
		stream, err = portaudio.OpenStream(params, d.in)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open audio stream on %q: %w", selected.Name, err)
	}

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return nil, fmt.Errorf("failed to start audio stream on %q: %w", selected.Name, err)
	}

	d.stream = stream
	slog.Info("audio device opened",
		"device", selected.Name,
		"index", selected.Index,
		"sample_rate", cfg.SampleRate,
		"block_size", cfg.BlockSize,
		"playback", output != nil)
	return d, nil
}

// Info returns the selected input device.
func (d *Device) Info() DeviceInfo {
	return d.info
}

// Read blocks until one block has been captured. Input overflow is not an
// error: the block is returned as captured.
func (d *Device) Read() ([]int16, error) {
	if err := d.stream.Read(); err != nil {
		if !errors.Is(err, portaudio.InputOverflowed) {
			return nil, util.WrapError("read audio block", err)
		}
		slog.Debug("audio input overflowed")
	}
	return slices.Clone(d.in), nil
}

// Play writes a mono 16-bit WAV file to the output device, one block at a time.
func (d *Device) Play(ctx context.Context, path string) error {
	if d.out == nil {
		return ErrNoOutput
	}

	f, err := os.Open(path)
	if err != nil {
		return util.WrapError("open recording for playback", err)
	}
	defer util.SafeCloseFunc(f, "playback file")()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() || dec.NumChans != Channels {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: Channels, SampleRate: int(dec.SampleRate)},
		Data:   make([]int, len(d.out)),
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := dec.PCMBuffer(buf)
		if err != nil {
			return util.WrapError("decode recording", err)
		}
		if n == 0 {
			return nil
		}

		for i := range d.out {
			if i < n {
				d.out[i] = int16(buf.Data[i])
			} else {
				d.out[i] = 0
			}
		}

		if err := d.stream.Write(); err != nil && !errors.Is(err, portaudio.OutputUnderflowed) {
			return util.WrapError("write audio block", err)
		}
	}
}

// Close stops the stream and releases the audio subsystem.
func (d *Device) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true

	return errors.Join(
		d.stream.Stop(),
		d.stream.Close(),
		portaudio.Terminate(),
	)
}

func toDeviceInfos(devices []*portaudio.DeviceInfo) []DeviceInfo {
	infos := make([]DeviceInfo, 0, len(devices))
	for i, dev := range devices {
		infos = append(infos, DeviceInfo{
			Index:             i,
			Name:              dev.Name,
			MaxInputChannels:  dev.MaxInputChannels,
			MaxOutputChannels: dev.MaxOutputChannels,
			DefaultSampleRate: dev.DefaultSampleRate,
		})
	}
	return infos
}
