package boxmgr

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strconv"

	"github.com/boxrun/sandboxd/pkg/boxproc"
	"github.com/boxrun/sandboxd/pkg/types"
)

const sandboxDirMode = 0o2770 // setgid + rwxrwx---

func boxPaths(cfg types.BoxConfig, boxID string) boxproc.Paths {
	root := filepath.Join(cfg.SandboxRoot, cfg.SandboxPrefix+boxID)
	return boxproc.Paths{
		Root: root,
		Work: filepath.Join(root, "work"),
		Lib:  filepath.Join(root, "lib"),
		Tmp:  filepath.Join(root, "tmp"),
		Log:  filepath.Join(root, "log"),
	}
}

// createDirs creates a box's root and its four subdirectories with mode
// 2770 and recursively chowns the tree to the unprivileged sandbox
// user/group. Always run via Offloader: none of this may block the
// caller's scheduler.
func createDirs(paths boxproc.Paths, sandboxUser, sandboxGroup string) error {
	dirs := []string{paths.Root, paths.Work, paths.Lib, paths.Tmp, paths.Log}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, sandboxDirMode); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
		// MkdirAll applies the mode before umask stripping the setgid
		// bit on some platforms; reassert it explicitly.
		if err := os.Chmod(dir, sandboxDirMode); err != nil {
			return fmt.Errorf("chmod %s: %w", dir, err)
		}
	}

	uid, gid, err := lookupSandboxIDs(sandboxUser, sandboxGroup)
	if err != nil {
		return fmt.Errorf("lookup sandbox user/group: %w", err)
	}

	return filepath.Walk(paths.Root, func(path string, _ os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		return os.Chown(path, uid, gid)
	})
}

func lookupSandboxIDs(sandboxUser, sandboxGroup string) (uid, gid int, err error) {
	u, err := user.Lookup(sandboxUser)
	if err != nil {
		return 0, 0, fmt.Errorf("lookup user %s: %w", sandboxUser, err)
	}
	g, err := user.LookupGroup(sandboxGroup)
	if err != nil {
		return 0, 0, fmt.Errorf("lookup group %s: %w", sandboxGroup, err)
	}

	uid, err = strconv.Atoi(u.Uid)
	if err != nil {
		return 0, 0, fmt.Errorf("parse uid %s: %w", u.Uid, err)
	}
	gid, err = strconv.Atoi(g.Gid)
	if err != nil {
		return 0, 0, fmt.Errorf("parse gid %s: %w", g.Gid, err)
	}
	return uid, gid, nil
}

// removeDirs recursively deletes a box's root directory, ignoring
// not-found errors so destroy_box stays idempotent.
func removeDirs(paths boxproc.Paths) error {
	if err := os.RemoveAll(paths.Root); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
