package health

import (
	"os"
	"syscall"
	"testing"
)

// holdLock opens path and takes an exclusive non-blocking flock on it,
// mirroring what the box startup hook does for the real lock file.
func holdLock(t *testing.T, path string) (*os.File, error) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, err
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}
