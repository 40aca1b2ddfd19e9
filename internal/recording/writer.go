package recording

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/google/uuid"
	"github.com/oszuidwest/zwfm-varecorder/internal/audio"
	"github.com/oszuidwest/zwfm-varecorder/internal/util"
)

// LockProbe reports the lock gates that are active right now.
type LockProbe interface {
	ActiveLocks() []string
}

// Writer persists recordings as mono 16-bit WAV files. Files are written
// under a temporary name in the spool directory and renamed into place, so
// readers of the spool never observe a partial file.
type Writer struct {
	dir        string
	target     string
	sampleRate int
	locks      LockProbe
}

// NewWriter creates a writer for <dir>/<target>.wav. A nil locks probe
// never skips.
func NewWriter(dir, target string, sampleRate int, locks LockProbe) *Writer {
	return &Writer{
		dir:        dir,
		target:     target,
		sampleRate: sampleRate,
		locks:      locks,
	}
}

// Path returns the final path of the recording.
func (w *Writer) Path() string {
	return filepath.Join(w.dir, w.target+".wav")
}

// Persist writes samples to the final path, overwriting any earlier
// recording. It returns ErrPersistSkipped if a lock is active.
func (w *Writer) Persist(samples []int16, duration time.Duration) (string, error) {
	if w.locks != nil {
		if active := w.locks.ActiveLocks(); len(active) > 0 {
			slog.Warn("recording not saved, lock active",
				"locks", active,
				"duration", util.FormatDuration(duration))
			return "", ErrPersistSkipped
		}
	}

	final := w.Path()
	tmp := fmt.Sprintf("%s.%s.tmp", final, uuid.NewString()[:8])

	if err := writeWAV(tmp, samples, w.sampleRate); err != nil {
		removeTemp(tmp)
		return "", err
	}

	if err := os.Rename(tmp, final); err != nil {
		removeTemp(tmp)
		return "", util.WrapError("move recording into place", err)
	}

	slog.Info("recording saved", "path", final, "duration", util.FormatDuration(duration))
	return final, nil
}

func writeWAV(path string, samples []int16, sampleRate int) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return util.WrapError("create recording file", err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
		}
	}()

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}

	enc := wav.NewEncoder(f, sampleRate, audio.BitDepth, audio.Channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: audio.Channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: audio.BitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return util.WrapError("encode recording", err)
	}
	if err := enc.Close(); err != nil {
		return util.WrapError("finalize recording", err)
	}
	if err := f.Sync(); err != nil {
		return util.WrapError("sync recording", err)
	}
	if err := f.Close(); err != nil {
		return util.WrapError("close recording", err)
	}
	return nil
}

func removeTemp(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to remove temporary recording", "path", path, "error", err)
	}
}
