package recording

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/go-audio/wav"
	"github.com/oszuidwest/zwfm-varecorder/internal/types"
)

func readWAV(t *testing.T, path string) ([]int16, int) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	if dec.NumChans != 1 {
		t.Errorf("channels = %d, want 1", dec.NumChans)
	}
	if dec.BitDepth != 16 {
		t.Errorf("bit depth = %d, want 16", dec.BitDepth)
	}

	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = int16(v)
	}
	return samples, int(dec.SampleRate)
}

type staticLocks []string

func (l staticLocks) ActiveLocks() []string { return l }

func TestWriterRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, "greeting", 22050, nil)

	samples := []int16{0, 1, -1, 32767, -32768, 1234, -4321, 7}
	path, err := w.Persist(samples, time.Second)
	if err != nil {
		t.Fatalf("Persist() error = %v", err)
	}
	if path != filepath.Join(dir, "greeting.wav") {
		t.Errorf("Persist() path = %q, want %q", path, filepath.Join(dir, "greeting.wav"))
	}

	got, rate := readWAV(t, path)
	if rate != 22050 {
		t.Errorf("sample rate = %d, want 22050", rate)
	}
	if !slices.Equal(got, samples) {
		t.Errorf("samples = %v, want %v", got, samples)
	}
}

func TestWriterOverwrites(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, "greeting", 16000, nil)

	if _, err := w.Persist(make([]int16, 1000), time.Second); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Persist([]int16{5, 6, 7}, time.Second); err != nil {
		t.Fatal(err)
	}

	got, _ := readWAV(t, w.Path())
	if !slices.Equal(got, []int16{5, 6, 7}) {
		t.Errorf("samples = %v, want [5 6 7]", got)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temporary file left behind: %s", e.Name())
		}
	}
}

func TestWriterSkipsWhenLocked(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, "greeting", 16000, staticLocks{"global_lock"})

	_, err := w.Persist([]int16{1, 2, 3}, time.Second)
	if !errors.Is(err, ErrPersistSkipped) {
		t.Fatalf("Persist() error = %v, want ErrPersistSkipped", err)
	}
	if _, err := os.Stat(w.Path()); !os.IsNotExist(err) {
		t.Errorf("recording exists after skipped persist")
	}
}

func TestWriterMissingDirectory(t *testing.T) {
	w := NewWriter(filepath.Join(t.TempDir(), "missing"), "greeting", 16000, nil)
	if _, err := w.Persist([]int16{1}, time.Second); err == nil {
		t.Error("Persist() into missing directory succeeded, want error")
	}
}

func TestSessionDuration(t *testing.T) {
	start := time.Unix(100, 0)
	tests := []struct {
		name    string
		trigger types.Trigger
		elapsed time.Duration
		want    time.Duration
		keep    bool
	}{
		{"level subtracts timeout", types.TriggerLevel, 5 * time.Second, 3 * time.Second, true},
		{"level at minimum", types.TriggerLevel, 3 * time.Second, time.Second, false},
		{"file keeps elapsed", types.TriggerFile, 500 * time.Millisecond, 500 * time.Millisecond, true},
		{"combined keeps elapsed", types.TriggerCombined, 200 * time.Millisecond, 200 * time.Millisecond, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession(tt.trigger, start, 2*time.Second)
			s.end = start.Add(tt.elapsed)
			if got := s.duration(2 * time.Second); got != tt.want {
				t.Errorf("duration() = %v, want %v", got, tt.want)
			}
			if got := s.keep(2*time.Second, time.Second); got != tt.keep {
				t.Errorf("keep() = %v, want %v", got, tt.keep)
			}
		})
	}
}
