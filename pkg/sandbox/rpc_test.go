package sandbox

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRPCRoundTrip(t *testing.T) {
	mgr := testManager(t)
	svc := New(mgr, 2*time.Second)

	socketPath := filepath.Join(t.TempDir(), "sandboxd.sock")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- Serve(ctx, svc, socketPath) }()

	var client *Client
	require.Eventually(t, func() bool {
		c, err := Dial(socketPath)
		if err != nil {
			return false
		}
		client = c
		return true
	}, 2*time.Second, 10*time.Millisecond)
	defer client.Close()

	sessionID, err := client.CreateSession()
	require.NoError(t, err)
	assert.NotEmpty(t, sessionID)

	stdout, _, err := client.ExecCode(sessionID, "print(\"hi\")\n")
	require.NoError(t, err)
	assert.Contains(t, stdout, "hi")

	require.NoError(t, client.Destroy(sessionID))

	_, _, err = client.ExecCode(sessionID, "print(1)\n")
	assert.Error(t, err)

	cancel()
}
