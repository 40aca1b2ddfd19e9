package util

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{800 * time.Millisecond, "0.8s"},
		{45 * time.Second, "45.0s"},
		{154 * time.Second, "2m 34s"},
		{83 * time.Minute, "1h 23m"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatDuration(tt.in); got != tt.want {
				t.Errorf("FormatDuration(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestWrapError(t *testing.T) {
	if WrapError("do thing", nil) != nil {
		t.Fatal("WrapError(nil) should return nil")
	}
	base := errors.New("boom")
	err := WrapError("open device", base)
	if !errors.Is(err, base) {
		t.Fatalf("WrapError lost the wrapped error: %v", err)
	}
	if got, want := err.Error(), "failed to open device: boom"; got != want {
		t.Errorf("WrapError() = %q, want %q", got, want)
	}
}

func TestCheckPathWritable(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "spool", "playback")
	if err := CheckPathWritable(dir); err != nil {
		t.Fatalf("CheckPathWritable(%q) failed: %v", dir, err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("probe file left behind: %v", entries[0].Name())
	}
}

func TestBackoff(t *testing.T) {
	b := NewBackoff(time.Second, 5*time.Second)
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}
	for i, w := range want {
		if got := b.Next(); got != w {
			t.Errorf("Next() #%d = %v, want %v", i, got, w)
		}
	}
	b.Reset()
	if got := b.Next(); got != time.Second {
		t.Errorf("Next() after Reset = %v, want %v", got, time.Second)
	}
}
