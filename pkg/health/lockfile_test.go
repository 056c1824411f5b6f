package health

import (
	"context"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockFileCheckerHealthyWhileHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "_l0ckfi1e")

	f, err := holdLock(t, path)
	require.NoError(t, err)
	defer f.Close()

	c := NewLockFileChecker(path)
	res := c.Check(context.Background())
	assert.True(t, res.Healthy)
}

func TestLockFileCheckerUnhealthyWhenReleased(t *testing.T) {
	path := filepath.Join(t.TempDir(), "_l0ckfi1e")

	f, err := holdLock(t, path)
	require.NoError(t, err)
	require.NoError(t, syscall.Flock(int(f.Fd()), syscall.LOCK_UN))
	f.Close()

	c := NewLockFileChecker(path)
	res := c.Check(context.Background())
	assert.False(t, res.Healthy)
}

func TestLockFileCheckerUnhealthyWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent-dir", "_l0ckfi1e")

	c := NewLockFileChecker(path)
	res := c.Check(context.Background())
	assert.False(t, res.Healthy)
}
