package audio

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func writeTestWAV(t *testing.T, path string, rate, channels int, samples []int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: rate},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.wav")
	samples := make([]int, 2500)
	for i := range samples {
		samples[i] = i % 100
	}
	writeTestWAV(t, path, 16000, 1, samples)

	src, err := OpenFile(path, 1000)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	defer src.Close()

	if src.SampleRate() != 16000 {
		t.Errorf("SampleRate() = %d, want 16000", src.SampleRate())
	}

	start := src.Now()
	var blocks [][]int16
	for {
		b, err := src.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		blocks = append(blocks, b)
	}

	if len(blocks) != 3 {
		t.Fatalf("Read() returned %d blocks, want 3", len(blocks))
	}
	for i, b := range blocks {
		if len(b) != 1000 {
			t.Errorf("block %d has %d samples, want 1000", i, len(b))
		}
	}
	if blocks[1][5] != int16(samples[1005]) {
		t.Errorf("block 1 sample 5 = %d, want %d", blocks[1][5], samples[1005])
	}
	if blocks[2][600] != 0 {
		t.Errorf("padding sample = %d, want 0", blocks[2][600])
	}

	if got := src.Now().Sub(start); got != 187500*time.Microsecond {
		t.Errorf("Now() advanced %v, want 187.5ms", got)
	}
}

func TestOpenFileRejectsStereo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	writeTestWAV(t, path, 16000, 2, make([]int, 200))

	if _, err := OpenFile(path, 100); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("OpenFile(stereo) error = %v, want ErrUnsupportedFormat", err)
	}
}
