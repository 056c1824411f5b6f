package sandbox

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
)

// request/response is the wire shape for the local debug socket: one
// JSON object per line in each direction. There is no remote API in
// scope for this service (spec.md keeps the network boundary out of
// the core's plate): this exists solely so `cmd/sandboxd exec` can
// talk to an already-running `serve` daemon instead of spinning up its
// own BoxManager for a one-off smoke test.
type request struct {
	Op         string   `json:"op"`
	SessionID  string   `json:"session_id,omitempty"`
	Code       string   `json:"code,omitempty"`
	Packages   []string `json:"packages,omitempty"`
	SnapshotID string   `json:"snapshot_id,omitempty"`
}

type response struct {
	SessionID  string `json:"session_id,omitempty"`
	Stdout     string `json:"stdout,omitempty"`
	Stderr     string `json:"stderr,omitempty"`
	SnapshotID string `json:"snapshot_id,omitempty"`
	Err        string `json:"error,omitempty"`
}

// Serve listens on the Unix socket at socketPath and dispatches each
// line-delimited JSON request to svc, until ctx is canceled. The socket
// file is removed first if a stale one is left over from an unclean
// shutdown, and removed again on return.
func Serve(ctx context.Context, svc *SandboxService, socketPath string) error {
	_ = os.Remove(socketPath)

	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", socketPath, err)
	}
	defer os.Remove(socketPath)

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		go serveConn(ctx, svc, conn)
	}
}

func serveConn(ctx context.Context, svc *SandboxService, conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	enc := json.NewEncoder(conn)

	for scanner.Scan() {
		var req request
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			_ = enc.Encode(response{Err: err.Error()})
			continue
		}
		_ = enc.Encode(dispatch(ctx, svc, req))
	}
}

func dispatch(ctx context.Context, svc *SandboxService, req request) response {
	switch req.Op {
	case "create_session":
		id, err := svc.CreateSession(ctx)
		if err != nil {
			return response{Err: err.Error()}
		}
		return response{SessionID: id}

	case "exec_code":
		stdout, stderr, err := svc.ExecCode(ctx, req.SessionID, req.Code)
		if err != nil {
			return response{Err: err.Error()}
		}
		return response{Stdout: stdout, Stderr: stderr}

	case "install_packages":
		if err := svc.InstallPackages(ctx, req.SessionID, req.Packages); err != nil {
			return response{Err: err.Error()}
		}
		return response{}

	case "snapshot":
		id, err := svc.Snapshot(ctx, req.SessionID)
		if err != nil {
			return response{Err: err.Error()}
		}
		return response{SnapshotID: id}

	case "restore":
		if err := svc.Restore(ctx, req.SessionID, req.SnapshotID); err != nil {
			return response{Err: err.Error()}
		}
		return response{}

	case "destroy":
		if err := svc.Destroy(ctx, req.SessionID); err != nil {
			return response{Err: err.Error()}
		}
		return response{}

	default:
		return response{Err: "unknown op " + req.Op}
	}
}

// Client is a minimal client for the Serve socket protocol, one request
// per round trip over a single persistent connection.
type Client struct {
	conn net.Conn
	enc  *json.Encoder
	dec  *json.Decoder
}

// Dial connects to a socket previously opened by Serve.
func Dial(socketPath string) (*Client, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", socketPath, err)
	}
	return &Client{conn: conn, enc: json.NewEncoder(conn), dec: json.NewDecoder(conn)}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) roundTrip(req request) (response, error) {
	if err := c.enc.Encode(req); err != nil {
		return response{}, err
	}
	var resp response
	if err := c.dec.Decode(&resp); err != nil {
		return response{}, err
	}
	if resp.Err != "" {
		return response{}, fmt.Errorf("%s", resp.Err)
	}
	return resp, nil
}

func (c *Client) CreateSession() (string, error) {
	resp, err := c.roundTrip(request{Op: "create_session"})
	return resp.SessionID, err
}

func (c *Client) ExecCode(sessionID, code string) (stdout, stderr string, err error) {
	resp, err := c.roundTrip(request{Op: "exec_code", SessionID: sessionID, Code: code})
	return resp.Stdout, resp.Stderr, err
}

func (c *Client) InstallPackages(sessionID string, pkgs []string) error {
	_, err := c.roundTrip(request{Op: "install_packages", SessionID: sessionID, Packages: pkgs})
	return err
}

func (c *Client) Snapshot(sessionID string) (string, error) {
	resp, err := c.roundTrip(request{Op: "snapshot", SessionID: sessionID})
	return resp.SnapshotID, err
}

func (c *Client) Restore(sessionID, snapshotID string) error {
	_, err := c.roundTrip(request{Op: "restore", SessionID: sessionID, SnapshotID: snapshotID})
	return err
}

func (c *Client) Destroy(sessionID string) error {
	_, err := c.roundTrip(request{Op: "destroy", SessionID: sessionID})
	return err
}
