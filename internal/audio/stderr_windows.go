//go:build windows

package audio

// suppressStderr is a no-op on Windows; the native backends there do not
// write probe diagnostics to the console.
func suppressStderr() (restore func()) {
	return func() {}
}
