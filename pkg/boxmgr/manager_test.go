package boxmgr

import (
	"context"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/boxrun/sandboxd/pkg/events"
	"github.com/boxrun/sandboxd/pkg/storage"
	"github.com/boxrun/sandboxd/pkg/types"
)

// fakeBoxCommand is a stand-in child process for manager-level tests:
// cat just echoes whatever is written to its stdin back out, which is
// enough to satisfy BoxProcess.Stop's best-effort exit() marker probe
// (the marker text comes back verbatim) without needing a real
// Python/gosu/dmtcp chain installed.
var fakeBoxCommand = []string{"/bin/sh", "-c", "exec cat"}

func testConfig(t *testing.T) types.BoxConfig {
	t.Helper()

	u, err := user.Current()
	require.NoError(t, err)
	g, err := user.LookupGroupId(u.Gid)
	require.NoError(t, err)

	root := t.TempDir()
	return types.BoxConfig{
		SandboxRoot:         root,
		SandboxPrefix:       "box-",
		SharedLibsPath:      filepath.Join(root, "shared-libs"),
		SnapshotDir:         filepath.Join(root, "snapshots"),
		SandboxUser:         u.Username,
		SandboxGroup:        g.Name,
		HealthCheckInterval: time.Hour,
		ExecTimeout:         2 * time.Second,
		Command:             fakeBoxCommand,
	}
}

func testManager(t *testing.T, cfg types.BoxConfig) *BoxManager {
	t.Helper()

	broker := events.NewBroker()
	broker.Start()
	t.Cleanup(broker.Stop)

	store, err := storage.NewBoltSnapshotStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return New(cfg, zerolog.New(io.Discard), broker, store, 2)
}

func TestBoxManagerStartBoxCreatesDirsAndRegisters(t *testing.T) {
	cfg := testConfig(t)
	mgr := testManager(t, cfg)

	id, err := mgr.StartBox(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.DestroyBox(context.Background(), id) })

	workDir := filepath.Join(cfg.SandboxRoot, cfg.SandboxPrefix+id, "work")
	_, err = os.Stat(workDir)
	require.NoError(t, err)

	box, proc, ok := mgr.Box(id)
	require.True(t, ok)
	require.Equal(t, id, box.ID)
	require.True(t, proc.IsAlive())
}

func TestBoxManagerAcquireBoxUsesPrewarmQueue(t *testing.T) {
	cfg := testConfig(t)
	cfg.PrewarmCount = 1
	mgr := testManager(t, cfg)

	mgr.doPrewarm(context.Background())
	require.Equal(t, 1, mgr.PrewarmQueueLen())

	id, err := mgr.AcquireBox(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.DestroyBox(context.Background(), id) })

	_, _, ok := mgr.Box(id)
	require.True(t, ok)
}

func TestBoxManagerFillPrewarmPool(t *testing.T) {
	cfg := testConfig(t)
	cfg.PrewarmCount = 3
	mgr := testManager(t, cfg)

	mgr.FillPrewarmPool(context.Background())
	require.Equal(t, 3, mgr.PrewarmQueueLen())

	for i := 0; i < 3; i++ {
		id, err := mgr.AcquireBox(context.Background())
		require.NoError(t, err)
		t.Cleanup(func() { _ = mgr.DestroyBox(context.Background(), id) })
	}
}

func TestBoxManagerInstallPackagesValidation(t *testing.T) {
	cfg := testConfig(t)
	mgr := testManager(t, cfg)

	id, err := mgr.StartBox(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.DestroyBox(context.Background(), id) })

	err = mgr.InstallPackages(context.Background(), id, nil)
	require.Error(t, err)
	require.Equal(t, types.ErrInvalidRequest, types.KindOf(err))

	err = mgr.InstallPackages(context.Background(), "does-not-exist", []string{"numpy"})
	require.Error(t, err)
	require.Equal(t, types.ErrNotFound, types.KindOf(err))

	err = mgr.InstallPackages(context.Background(), id, []string{"numpy; rm -rf /"})
	require.Error(t, err)
	require.Equal(t, types.ErrInvalidRequest, types.KindOf(err))
}

func TestBoxManagerDestroyBoxIsIdempotent(t *testing.T) {
	cfg := testConfig(t)
	mgr := testManager(t, cfg)

	id, err := mgr.StartBox(context.Background())
	require.NoError(t, err)

	require.NoError(t, mgr.DestroyBox(context.Background(), id))
	require.NoError(t, mgr.DestroyBox(context.Background(), id))

	_, _, ok := mgr.Box(id)
	require.False(t, ok)

	_, err = os.Stat(filepath.Join(cfg.SandboxRoot, cfg.SandboxPrefix+id))
	require.True(t, os.IsNotExist(err))
}

func TestBoxManagerDestroyBoxRemovesSnapshotDirAndRecord(t *testing.T) {
	cfg := testConfig(t)
	mgr := testManager(t, cfg)

	id, err := mgr.StartBox(context.Background())
	require.NoError(t, err)

	snapshotDir := filepath.Join(cfg.SnapshotDir, id)
	require.NoError(t, os.MkdirAll(snapshotDir, 0o2770))
	require.NoError(t, mgr.snapshots.Put(&types.SnapshotRecord{ID: id, BoxID: id}))

	require.NoError(t, mgr.DestroyBox(context.Background(), id))

	_, err = os.Stat(snapshotDir)
	require.True(t, os.IsNotExist(err))

	_, err = mgr.snapshots.Get(id)
	require.Error(t, err)
}

func TestBoxManagerSnapshotAndRestore(t *testing.T) {
	cfg := testConfig(t)
	mgr := testManager(t, cfg)

	id, err := mgr.StartBox(context.Background())
	require.NoError(t, err)

	snapshotID, err := mgr.SnapshotBox(context.Background(), id)
	require.NoError(t, err)

	_, _, ok := mgr.Box(id)
	require.False(t, ok, "snapshot removes the box from the registry")

	require.NoError(t, mgr.RestoreBox(context.Background(), id, snapshotID))
	t.Cleanup(func() { _ = mgr.DestroyBox(context.Background(), id) })

	_, proc, ok := mgr.Box(id)
	require.True(t, ok)
	require.True(t, proc.IsAlive())
}
