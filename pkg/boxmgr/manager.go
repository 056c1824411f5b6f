package boxmgr

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/boxrun/sandboxd/pkg/boxproc"
	"github.com/boxrun/sandboxd/pkg/events"
	"github.com/boxrun/sandboxd/pkg/metrics"
	"github.com/boxrun/sandboxd/pkg/storage"
	"github.com/boxrun/sandboxd/pkg/types"
)

var packageNameRE = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// BoxManager allocates and tracks boxes: filesystem setup/teardown, the
// prewarm pool, package installs, and checkpoint/restore bookkeeping.
type BoxManager struct {
	cfg       types.BoxConfig
	logger    zerolog.Logger
	events    *events.Broker
	snapshots storage.SnapshotStore
	offload   *Offloader

	registry *registry
	prewarm  *prewarmQueue
}

// New builds a BoxManager. offloadConcurrency bounds how many blocking
// filesystem/installer jobs may run at once; pass 0 for unbounded.
func New(cfg types.BoxConfig, logger zerolog.Logger, broker *events.Broker, snapshots storage.SnapshotStore, offloadConcurrency int) *BoxManager {
	return &BoxManager{
		cfg:       cfg,
		logger:    logger,
		events:    broker,
		snapshots: snapshots,
		offload:   NewOffloader(offloadConcurrency),
		registry:  newRegistry(),
		prewarm:   newPrewarmQueue(),
	}
}

func newBoxID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// ListBoxes satisfies pkg/metrics.Source.
func (m *BoxManager) ListBoxes() []*types.Box {
	return m.registry.list()
}

// PrewarmQueueLen satisfies pkg/metrics.Source.
func (m *BoxManager) PrewarmQueueLen() int {
	return m.prewarm.len()
}

// StartBox generates a box ID, creates its directories, spawns a
// BoxProcess for it, and registers it. The returned ID is always fully
// started: callers never see a box mid-spawn.
func (m *BoxManager) StartBox(ctx context.Context) (string, error) {
	id := newBoxID()
	paths := boxPaths(m.cfg, id)

	if err := m.offload.Run(func() error {
		return createDirs(paths, m.cfg.SandboxUser, m.cfg.SandboxGroup)
	}); err != nil {
		return "", types.NewError(types.ErrInternal, "create dirs for box "+id, err)
	}

	proc := boxproc.New(id, paths, m.cfg, m.logger.With().Str("box_id", id).Logger(), m.events)
	e := &entry{
		box: &types.Box{
			ID:        id,
			State:     types.BoxStateStarting,
			CreatedAt: time.Now(),
			RootDir:   paths.Root,
			WorkDir:   paths.Work,
			LibDir:    paths.Lib,
			TmpDir:    paths.Tmp,
			LockPath:  paths.LockPath(),
		},
		paths: paths,
		proc:  proc,
	}

	proc.OnDeath(func(boxID string) {
		m.registry.remove(boxID)
	})

	if err := proc.Start(ctx); err != nil {
		return "", types.NewError(types.ErrInternal, "start box "+id, err)
	}

	m.registry.put(e)
	metrics.BoxesStartedTotal.Inc()

	if m.events != nil {
		m.events.Publish(&events.Event{Type: events.EventBoxStarted, BoxID: id})
	}

	return id, nil
}

// AcquireBox hands the caller a fully started box: one popped from the
// prewarm queue if available, otherwise a freshly started one. Popping
// from the queue also schedules an asynchronous top-up so the pool
// refills without making this call wait on it.
func (m *BoxManager) AcquireBox(ctx context.Context) (string, error) {
	if id, ok := m.prewarm.pop(); ok {
		if m.cfg.PrewarmCount > 0 {
			m.offload.RunAsync(func() { m.doPrewarm(context.Background()) })
		}
		return id, nil
	}
	return m.StartBox(ctx)
}

// FillPrewarmPool tops up the prewarm queue to PrewarmCount, one box at
// a time, blocking the caller until the pool is full (or filling fails
// partway through). Intended for startup, before any AcquireBox caller
// is relying on the queue to absorb top-up latency.
func (m *BoxManager) FillPrewarmPool(ctx context.Context) {
	for i := 0; i < m.cfg.PrewarmCount; i++ {
		m.doPrewarm(ctx)
	}
}

// doPrewarm tops up the prewarm queue by one box if it isn't already at
// capacity. Failures are logged and swallowed: prewarming is
// opportunistic, never a hard requirement of any caller.
func (m *BoxManager) doPrewarm(ctx context.Context) {
	if m.prewarm.len() >= m.cfg.PrewarmCount {
		return
	}
	id, err := m.StartBox(ctx)
	if err != nil {
		m.logger.Warn().Err(err).Msg("prewarm failed")
		return
	}
	m.prewarm.push(id)
	if m.events != nil {
		m.events.Publish(&events.Event{Type: events.EventBoxPrewarmed, BoxID: id})
	}
}

// InstallPackages validates pkgs and runs the package installer inside
// box boxID, off the caller's goroutine.
func (m *BoxManager) InstallPackages(ctx context.Context, boxID string, pkgs []string) error {
	if len(pkgs) == 0 {
		return types.NewError(types.ErrInvalidRequest, "install_packages requires at least one package", nil)
	}

	e, ok := m.registry.get(boxID)
	if !ok {
		return types.NewError(types.ErrNotFound, "box "+boxID+" not found", nil)
	}

	for _, pkg := range pkgs {
		if !packageNameRE.MatchString(pkg) {
			return types.NewError(types.ErrInvalidRequest, "invalid package name "+pkg, nil)
		}
	}

	timer := metrics.NewTimer()
	err := m.offload.Run(func() error {
		return runInstaller(ctx, m.cfg.SandboxUser, e.paths, pkgs)
	})
	timer.ObserveDuration(metrics.InstallDuration)
	metrics.InstallsTotal.Inc()

	if err != nil {
		metrics.InstallsFailedTotal.Inc()
		return types.NewError(types.ErrInstallFailed, "install packages into box "+boxID, err)
	}
	return nil
}

func runInstaller(ctx context.Context, sandboxUser string, paths boxproc.Paths, pkgs []string) error {
	args := append([]string{sandboxUser, "uv", "pip", "install", "--no-deps", "--target=" + paths.Lib}, pkgs...)
	cmd := exec.CommandContext(ctx, "gosu", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("installer exited with error: %w (output: %s)", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// SnapshotBox stops boxID, removes it from the registry, and records a
// SnapshotRecord. Artifact persistence itself is delegated to the
// checkpoint tool (performCheckpoint).
func (m *BoxManager) SnapshotBox(ctx context.Context, boxID string) (string, error) {
	e, ok := m.registry.get(boxID)
	if !ok {
		return "", types.NewError(types.ErrNotFound, "box "+boxID+" not found", nil)
	}

	if err := e.proc.Stop(ctx); err != nil {
		return "", types.NewError(types.ErrSnapshotFailed, "stop box "+boxID+" before snapshot", err)
	}
	m.registry.remove(boxID)

	snapshotID := newBoxID()
	dir := checkpointArtifactsDir(m.cfg.SnapshotDir, snapshotID)
	if err := m.offload.Run(func() error {
		return performCheckpoint(e.paths, dir)
	}); err != nil {
		metrics.SnapshotsTotal.WithLabelValues("snapshot", "error").Inc()
		return "", types.NewError(types.ErrSnapshotFailed, "checkpoint box "+boxID, err)
	}

	rec := &types.SnapshotRecord{ID: snapshotID, BoxID: boxID, CreatedAt: time.Now(), Path: dir}
	if err := m.snapshots.Put(rec); err != nil {
		metrics.SnapshotsTotal.WithLabelValues("snapshot", "error").Inc()
		return "", types.NewError(types.ErrSnapshotFailed, "record snapshot "+snapshotID, err)
	}

	metrics.SnapshotsTotal.WithLabelValues("snapshot", "ok").Inc()
	if m.events != nil {
		m.events.Publish(&events.Event{Type: events.EventBoxSnapshotted, BoxID: boxID, Message: snapshotID})
	}
	return snapshotID, nil
}

// RestoreBox clears boxID's directory tree, materializes snapshotID's
// artifacts into it (performRestore), and starts a fresh BoxProcess for
// boxID.
func (m *BoxManager) RestoreBox(ctx context.Context, boxID, snapshotID string) error {
	rec, err := m.snapshots.Get(snapshotID)
	if err != nil {
		metrics.SnapshotsTotal.WithLabelValues("restore", "error").Inc()
		return types.NewError(types.ErrRestoreFailed, "look up snapshot "+snapshotID, err)
	}

	paths := boxPaths(m.cfg, boxID)
	if err := m.offload.Run(func() error {
		if err := removeDirs(paths); err != nil {
			return err
		}
		if err := createDirs(paths, m.cfg.SandboxUser, m.cfg.SandboxGroup); err != nil {
			return err
		}
		return performRestore(rec.Path, paths)
	}); err != nil {
		metrics.SnapshotsTotal.WithLabelValues("restore", "error").Inc()
		return types.NewError(types.ErrRestoreFailed, "materialize snapshot "+snapshotID, err)
	}

	proc := boxproc.New(boxID, paths, m.cfg, m.logger.With().Str("box_id", boxID).Logger(), m.events)
	e := &entry{
		box: &types.Box{
			ID:        boxID,
			State:     types.BoxStateStarting,
			CreatedAt: time.Now(),
			RootDir:   paths.Root,
			WorkDir:   paths.Work,
			LibDir:    paths.Lib,
			TmpDir:    paths.Tmp,
			LockPath:  paths.LockPath(),
		},
		paths: paths,
		proc:  proc,
	}
	proc.OnDeath(func(id string) { m.registry.remove(id) })

	if err := proc.Start(ctx); err != nil {
		metrics.SnapshotsTotal.WithLabelValues("restore", "error").Inc()
		return types.NewError(types.ErrRestoreFailed, "start restored box "+boxID, err)
	}
	m.registry.put(e)

	metrics.SnapshotsTotal.WithLabelValues("restore", "ok").Inc()
	if m.events != nil {
		m.events.Publish(&events.Event{Type: events.EventBoxRestored, BoxID: boxID, Message: snapshotID})
	}
	return nil
}

// DestroyBox removes boxID from the registry (a no-op if it's already
// gone), stops its process if still running, recursively deletes its
// box root and <SnapshotDir>/<boxID> off the caller's goroutine, and
// deletes the snapshot store record whose ID is boxID, ignoring
// not-found on each. Snapshot directories and records that SnapshotBox
// created under a snapshot ID are not removed.
func (m *BoxManager) DestroyBox(ctx context.Context, boxID string) error {
	e, ok := m.registry.get(boxID)
	m.registry.remove(boxID)

	paths := boxPaths(m.cfg, boxID)
	if ok {
		paths = e.paths
		_ = e.proc.Stop(ctx)
	}

	snapshotDir := filepath.Join(m.cfg.SnapshotDir, boxID)
	err := m.offload.Run(func() error {
		if err := removeDirs(paths); err != nil {
			return err
		}
		return os.RemoveAll(snapshotDir)
	})
	if err != nil {
		return types.NewError(types.ErrInternal, "remove dirs for box "+boxID, err)
	}

	if m.snapshots != nil {
		if err := m.snapshots.Delete(boxID); err != nil {
			return types.NewError(types.ErrInternal, "delete snapshot record for box "+boxID, err)
		}
	}

	metrics.BoxesDestroyedTotal.Inc()
	if m.events != nil {
		m.events.Publish(&events.Event{Type: events.EventBoxDestroyed, BoxID: boxID})
	}
	return nil
}

// Box returns the registry record for boxID, if present.
func (m *BoxManager) Box(boxID string) (*types.Box, *boxproc.BoxProcess, bool) {
	e, ok := m.registry.get(boxID)
	if !ok {
		return nil, nil, false
	}
	return e.box, e.proc, true
}
