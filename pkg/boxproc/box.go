package boxproc

import (
	"context"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/boxrun/sandboxd/pkg/events"
	"github.com/boxrun/sandboxd/pkg/startup"
	"github.com/boxrun/sandboxd/pkg/types"
)

// BoxProcess drives one interpreter child as a stateful REPL. All
// exported methods except State and IsAlive serialize through mu. The
// health monitor's probe loop never takes mu; it locks mu only through
// teardown when it declares the box dead.
type BoxProcess struct {
	ID     string
	Paths  Paths
	cfg    types.BoxConfig
	logger zerolog.Logger
	events *events.Broker

	mu            sync.Mutex
	state         types.BoxState
	cmd           *exec.Cmd
	stdin         io.WriteCloser
	monitorCancel context.CancelFunc

	stdoutCh chan []byte
	stderrCh chan []byte
	waitDone chan struct{}
	waitErr  error

	dead         atomic.Bool
	deadCh       chan struct{}
	teardownOnce sync.Once

	// onDeath, if set, is invoked exactly once when the box transitions
	// to dead, whether via Stop, the health monitor, or the child exiting
	// on its own. BoxManager uses this to drop the box from its registry.
	onDeath func(id string)
}

// New builds a BoxProcess. Start must be called before Execute/Stop.
func New(id string, paths Paths, cfg types.BoxConfig, logger zerolog.Logger, broker *events.Broker) *BoxProcess {
	return &BoxProcess{
		ID:       id,
		Paths:    paths,
		cfg:      cfg,
		logger:   logger,
		events:   broker,
		state:    types.BoxStateStarting,
		stdoutCh: make(chan []byte),
		stderrCh: make(chan []byte),
		waitDone: make(chan struct{}),
		deadCh:   make(chan struct{}),
	}
}

// OnDeath registers the callback BoxManager uses to learn a box has
// died, from Stop, the health monitor, or the child exiting on its own.
func (b *BoxProcess) OnDeath(fn func(id string)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onDeath = fn
}

// Start spawns the child process, begins pumping its pipes, and starts
// the health monitor. ctx is not observed: neither writing the startup
// script nor starting the process checks it, and the child outlives it.
func (b *BoxProcess) Start(ctx context.Context) error {
	startupPath, err := startup.WriteTo(b.Paths.Work)
	if err != nil {
		return types.NewError(types.ErrInternal, "write startup script for box "+b.ID, err)
	}

	args := buildArgs(b.cfg)
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Dir = b.Paths.Work
	cmd.Env = buildEnv(b.cfg, b.Paths, startupPath)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return types.NewError(types.ErrInternal, "open stdin pipe for box "+b.ID, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return types.NewError(types.ErrInternal, "open stdout pipe for box "+b.ID, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return types.NewError(types.ErrInternal, "open stderr pipe for box "+b.ID, err)
	}

	if err := withResourceLimits(b.cfg.ResourceLimits, cmd.Start); err != nil {
		return types.NewError(types.ErrInternal, "spawn box process "+b.ID, err)
	}

	b.mu.Lock()
	b.cmd = cmd
	b.stdin = stdin
	b.state = types.BoxStateRunning
	b.mu.Unlock()

	go b.pumpAndWait(stdout, stderr)

	monitorCtx, cancel := context.WithCancel(context.Background())
	b.mu.Lock()
	b.monitorCancel = cancel
	b.mu.Unlock()
	go b.runMonitor(monitorCtx)

	b.logger.Debug().Str("box_id", b.ID).Strs("argv", args).Msg("box spawned")
	return nil
}

// State reports the box's current lifecycle state.
func (b *BoxProcess) State() types.BoxState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// IsAlive reports whether the box's process is still considered
// running, independent of the health monitor's probe cadence.
func (b *BoxProcess) IsAlive() bool {
	return !b.dead.Load()
}

func (b *BoxProcess) pumpAndWait(stdout, stderr io.ReadCloser) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		b.pump(stdout, b.stdoutCh)
	}()
	go func() {
		defer wg.Done()
		b.pump(stderr, b.stderrCh)
	}()
	wg.Wait()

	err := b.cmd.Wait()
	b.mu.Lock()
	b.waitErr = err
	b.mu.Unlock()
	close(b.waitDone)

	b.teardown()
}

func (b *BoxProcess) pump(r io.Reader, ch chan []byte) {
	buf := make([]byte, 1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case ch <- chunk:
			case <-b.deadCh:
			}
		}
		if err != nil {
			close(ch)
			return
		}
	}
}

// teardown runs exactly once per box, whether triggered by Stop, by
// the health monitor declaring the box dead, or by pumpAndWait after
// the child exits.
func (b *BoxProcess) teardown() {
	b.teardownOnce.Do(func() {
		b.dead.Store(true)

		b.mu.Lock()
		if b.stdin != nil {
			_ = b.stdin.Close()
		}
		b.state = types.BoxStateStopped
		onDeath := b.onDeath
		b.mu.Unlock()

		close(b.deadCh)

		if onDeath != nil {
			onDeath(b.ID)
		}
	})
}

func (b *BoxProcess) waitExit(d time.Duration) bool {
	select {
	case <-b.waitDone:
		return true
	case <-time.After(d):
		return false
	}
}
