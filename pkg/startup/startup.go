// Package startup embeds the interpreter startup hook every box runs
// before accepting code. The payload is a script, embedded via
// go:embed and written out for the child process to exec.
package startup

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed assets/sandbox_startup.py
var assets embed.FS

// ScriptName is the file name materialized into a box's work directory.
const ScriptName = "sandbox_startup.py"

// LockFileName is the name of the advisory lock file the script takes,
// relative to $TMPDIR (or the box's working directory if unset).
const LockFileName = "_l0ckfi1e"

// WriteTo materializes the embedded startup script into dir/ScriptName
// and returns its path. Called by BoxProcess.Start each time a box's
// process is spawned, including after a restore.
func WriteTo(dir string) (string, error) {
	data, err := assets.ReadFile("assets/" + ScriptName)
	if err != nil {
		return "", fmt.Errorf("read embedded startup script: %w", err)
	}

	path := filepath.Join(dir, ScriptName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write startup script: %w", err)
	}

	return path, nil
}

// LockPath returns the lock file path a box started with tmpDir as its
// $TMPDIR will use, matching the script's own os.getenv("TMPDIR", cwd)
// fallback.
func LockPath(tmpDir string) string {
	return filepath.Join(tmpDir, LockFileName)
}
