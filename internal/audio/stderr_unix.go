//go:build !windows

package audio

import (
	"log/slog"
	"os"

	"golang.org/x/sys/unix"
)

// suppressStderr points file descriptor 2 at the null device so the native
// audio libraries cannot flood the terminal with probe diagnostics. The
// returned function restores the original descriptor and must always be called.
func suppressStderr() (restore func()) {
	devNull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		slog.Debug("cannot open null device, native audio messages stay visible", "error", err)
		return func() {}
	}

	fd := int(os.Stderr.Fd())
	saved, err := unix.Dup(fd)
	if err != nil {
		_ = devNull.Close()
		slog.Debug("cannot duplicate stderr, native audio messages stay visible", "error", err)
		return func() {}
	}

	if err := unix.Dup2(int(devNull.Fd()), fd); err != nil {
		_ = unix.Close(saved)
		_ = devNull.Close()
		slog.Debug("cannot redirect stderr, native audio messages stay visible", "error", err)
		return func() {}
	}

	return func() {
		if err := unix.Dup2(saved, fd); err != nil {
			slog.Warn("failed to restore stderr", "error", err)
		}
		_ = unix.Close(saved)
		_ = devNull.Close()
	}
}
