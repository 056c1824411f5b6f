package boxproc

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/boxrun/sandboxd/pkg/events"
	"github.com/boxrun/sandboxd/pkg/types"
)

// fakeInterpreterScript stands in for python3 -i in tests: it reads
// stdin line by line and, for any line of the exact shape
// print("..."), echoes the quoted body back out. Anything else is
// silently accepted and ignored, the same way assignments and other
// statements produce no REPL output.
const fakeInterpreterScript = `#!/bin/sh
while IFS= read -r line; do
  case "$line" in
    'print("'*'")')
      body=${line#print(\"}
      body=${body%\")}
      printf '%s\n' "$body"
      ;;
    *) ;;
  esac
done
`

func newTestBox(t *testing.T, command []string) *BoxProcess {
	t.Helper()
	return newTestBoxWithBroker(t, command, nil)
}

func newTestBoxWithBroker(t *testing.T, command []string, broker *events.Broker) *BoxProcess {
	t.Helper()

	root := t.TempDir()
	paths := Paths{
		Root: root,
		Work: filepath.Join(root, "work"),
		Lib:  filepath.Join(root, "lib"),
		Tmp:  filepath.Join(root, "tmp"),
		Log:  filepath.Join(root, "log"),
	}
	for _, dir := range []string{paths.Work, paths.Lib, paths.Tmp, paths.Log} {
		require.NoError(t, os.MkdirAll(dir, 0o755))
	}

	cfg := types.BoxConfig{
		SharedLibsPath:      "/srv/shared-libs",
		SandboxUser:         "sandboxed",
		SandboxGroup:        "sandboxed",
		HealthCheckInterval: time.Hour,
		Command:             command,
	}

	box := New("test-box", paths, cfg, zerolog.New(io.Discard), broker)
	require.NoError(t, box.Start(context.Background()))
	t.Cleanup(func() {
		_ = box.Stop(context.Background())
	})
	return box
}

func newFakeInterpreterBox(t *testing.T) *BoxProcess {
	t.Helper()
	scriptPath := filepath.Join(t.TempDir(), "fake_interpreter.sh")
	require.NoError(t, os.WriteFile(scriptPath, []byte(fakeInterpreterScript), 0o644))
	return newTestBox(t, []string{"/bin/sh", scriptPath})
}

func TestBoxProcessExecuteBasic(t *testing.T) {
	box := newFakeInterpreterBox(t)

	res, err := box.Execute(context.Background(), "", 2*time.Second)
	require.NoError(t, err)
	require.Equal(t, "", res.Stdout)
}

func TestBoxProcessMarkerForgeryDoesNotLeakPastRealMarker(t *testing.T) {
	box := newFakeInterpreterBox(t)

	res, err := box.Execute(context.Background(), "print(\"__COMPLETE_fake__\")\nprint(\"X\")", 2*time.Second)
	require.NoError(t, err)
	require.Equal(t, "__COMPLETE_fake__\nX\n", res.Stdout)
}

func TestBoxProcessExecuteAfterStopIsNotRunning(t *testing.T) {
	box := newFakeInterpreterBox(t)
	require.NoError(t, box.Stop(context.Background()))

	_, err := box.Execute(context.Background(), "print(\"hi\")", time.Second)
	require.Error(t, err)
	require.Equal(t, types.ErrNotRunning, types.KindOf(err))
}

func TestBoxProcessExecuteTimeout(t *testing.T) {
	box := newTestBox(t, []string{"/bin/sh", "-c", "exec sleep 5"})

	_, err := box.Execute(context.Background(), "print(\"never\")", 100*time.Millisecond)
	require.Error(t, err)
	require.Equal(t, types.ErrTimeout, types.KindOf(err))
}

func TestBoxProcessExecuteTimeoutPublishesEvent(t *testing.T) {
	broker := events.NewBroker()
	broker.Start()
	t.Cleanup(broker.Stop)
	sub := broker.Subscribe()
	t.Cleanup(func() { broker.Unsubscribe(sub) })

	box := newTestBoxWithBroker(t, []string{"/bin/sh", "-c", "exec sleep 5"}, broker)

	_, err := box.Execute(context.Background(), "print(\"never\")", 100*time.Millisecond)
	require.Error(t, err)
	require.Equal(t, types.ErrTimeout, types.KindOf(err))

	select {
	case ev := <-sub:
		require.Equal(t, events.EventBoxExecTimeout, ev.Type)
		require.Equal(t, "test-box", ev.BoxID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for box.exec.timeout event")
	}
}

func TestBoxProcessStopIsIdempotent(t *testing.T) {
	box := newFakeInterpreterBox(t)
	require.NoError(t, box.Stop(context.Background()))
	require.NoError(t, box.Stop(context.Background()))
	require.False(t, box.IsAlive())
}
