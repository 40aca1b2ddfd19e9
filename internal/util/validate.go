package util

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// IsConfigured reports whether all provided values are non-empty.
func IsConfigured(values ...string) bool {
	for _, v := range values {
		if v == "" {
			return false
		}
	}
	return true
}

// CheckPathWritable verifies that a directory exists and is writable,
// creating it if needed.
func CheckPathWritable(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		slog.Error("path writability check failed", "path", path, "error", err, "step", "mkdir")
		return fmt.Errorf("path %s is not writable", path)
	}

	// The probe must not end in .wav, the spool consumer picks those up.
	testFile := filepath.Join(path, fmt.Sprintf(".varecorder-write-test-%d", time.Now().UnixNano()))

	f, err := os.Create(testFile)
	if err != nil {
		slog.Error("path writability check failed", "path", path, "error", err, "step", "create")
		return fmt.Errorf("path %s is not writable", path)
	}

	if _, err := f.Write(make([]byte, 1024)); err != nil {
		_ = f.Close()
		_ = os.Remove(testFile)
		slog.Error("path writability check failed", "path", path, "error", err, "step", "write")
		return fmt.Errorf("path %s is not writable", path)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(testFile)
		slog.Error("path writability check failed", "path", path, "error", err, "step", "close")
		return fmt.Errorf("path %s is not writable", path)
	}

	if err := os.Remove(testFile); err != nil {
		slog.Error("path writability check failed", "path", path, "error", err, "step", "remove")
		return fmt.Errorf("path %s is not writable", path)
	}

	return nil
}
