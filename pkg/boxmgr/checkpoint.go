package boxmgr

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/boxrun/sandboxd/pkg/boxproc"
)

// checkpointArtifactsDir returns where a snapshot's on-disk artifacts
// would live under the configured snapshot root.
func checkpointArtifactsDir(snapshotRoot, snapshotID string) string {
	return filepath.Join(snapshotRoot, snapshotID)
}

// performCheckpoint persists a stopped box's checkpoint image under
// dir. The actual dmtcp_command --checkpoint invocation and image
// packaging is delegated to the checkpoint tool per spec; this ensures
// the target directory exists and is the single seam a real checkpoint
// integration would hook into.
func performCheckpoint(_ boxproc.Paths, dir string) error {
	if err := os.MkdirAll(dir, 0o2770); err != nil {
		return fmt.Errorf("prepare checkpoint dir %s: %w", dir, err)
	}
	return nil
}

// performRestore materializes a snapshot's artifacts into a box's fresh
// directory tree before its BoxProcess is constructed. Delegated to the
// checkpoint tool per spec; this is the seam a real restore
// integration would hook into.
func performRestore(_ string, _ boxproc.Paths) error {
	return nil
}
