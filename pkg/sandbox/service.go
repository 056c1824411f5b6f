package sandbox

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/boxrun/sandboxd/pkg/boxmgr"
	"github.com/boxrun/sandboxd/pkg/types"
)

// SandboxService is the façade external callers (pkg/sandbox's own
// consumers, cmd/sandboxd) use instead of reaching into BoxManager
// directly.
type SandboxService struct {
	manager     *boxmgr.BoxManager
	sessions    SessionStore
	execTimeout time.Duration
}

// Option configures a SandboxService at construction time.
type Option func(*SandboxService)

// WithSessionIndirection enables the richer session_id -> box_id model
// backed by store, instead of the minimal model where a session ID is
// just the box ID.
func WithSessionIndirection(store SessionStore) Option {
	return func(s *SandboxService) { s.sessions = store }
}

// New builds a SandboxService over manager. execTimeout is the default
// passed to BoxProcess.Execute for exec_code calls.
func New(manager *boxmgr.BoxManager, execTimeout time.Duration, opts ...Option) *SandboxService {
	s := &SandboxService{manager: manager, execTimeout: execTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newSessionID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// CreateSession acquires a box (from the prewarm pool or freshly
// started) and returns the session ID callers should use for every
// subsequent call. Under the minimal model this is the box ID itself.
func (s *SandboxService) CreateSession(ctx context.Context) (string, error) {
	boxID, err := s.manager.AcquireBox(ctx)
	if err != nil {
		return "", err
	}
	if s.sessions == nil {
		return boxID, nil
	}

	sessionID := newSessionID()
	s.sessions.Put(sessionID, boxID)
	return sessionID, nil
}

// resolveBox translates a session ID into the box ID backing it.
func (s *SandboxService) resolveBox(sessionID string) (string, error) {
	if s.sessions == nil {
		return sessionID, nil
	}
	boxID, ok := s.sessions.Get(sessionID)
	if !ok {
		return "", types.NewError(types.ErrNotFound, "session "+sessionID+" not found", nil)
	}
	return boxID, nil
}

// ExecCode submits code to the session's box and returns what it wrote
// to stdout and stderr before completing.
func (s *SandboxService) ExecCode(ctx context.Context, sessionID, code string) (stdout, stderr string, err error) {
	boxID, err := s.resolveBox(sessionID)
	if err != nil {
		return "", "", err
	}

	_, proc, ok := s.manager.Box(boxID)
	if !ok {
		return "", "", types.NewError(types.ErrNotFound, "box "+boxID+" not found", nil)
	}

	res, err := proc.Execute(ctx, code, s.execTimeout)
	return res.Stdout, res.Stderr, err
}

// InstallPackages installs pkgs into the session's box.
func (s *SandboxService) InstallPackages(ctx context.Context, sessionID string, pkgs []string) error {
	boxID, err := s.resolveBox(sessionID)
	if err != nil {
		return err
	}
	return s.manager.InstallPackages(ctx, boxID, pkgs)
}

// Snapshot checkpoints the session's box and returns a snapshot ID.
// The session keeps mapping to the same box ID: Restore brings that
// same box back to life rather than allocating a new one.
func (s *SandboxService) Snapshot(ctx context.Context, sessionID string) (string, error) {
	boxID, err := s.resolveBox(sessionID)
	if err != nil {
		return "", err
	}
	return s.manager.SnapshotBox(ctx, boxID)
}

// Restore materializes snapshotID back into the session's box ID.
func (s *SandboxService) Restore(ctx context.Context, sessionID, snapshotID string) error {
	boxID, err := s.resolveBox(sessionID)
	if err != nil {
		return err
	}
	return s.manager.RestoreBox(ctx, boxID, snapshotID)
}

// Destroy tears down the session's box and, under session indirection,
// forgets the session mapping. Destroying an unknown session under the
// minimal model is delegated to BoxManager.DestroyBox, which is
// idempotent; under session indirection an unknown session is NotFound,
// matching the original's "pop or raise" semantics.
func (s *SandboxService) Destroy(ctx context.Context, sessionID string) error {
	if s.sessions == nil {
		return s.manager.DestroyBox(ctx, sessionID)
	}

	boxID, ok := s.sessions.Delete(sessionID)
	if !ok {
		return types.NewError(types.ErrNotFound, "session "+sessionID+" not found", nil)
	}
	return s.manager.DestroyBox(ctx, boxID)
}

// WithSession is the scoped-acquisition helper: it creates a session,
// passes its ID to fn, and guarantees Destroy runs afterward on every
// exit path, normal or error.
func (s *SandboxService) WithSession(ctx context.Context, fn func(sessionID string) error) error {
	sessionID, err := s.CreateSession(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = s.Destroy(context.Background(), sessionID)
	}()
	return fn(sessionID)
}
