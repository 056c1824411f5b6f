package boxproc

import "github.com/boxrun/sandboxd/pkg/startup"

// Paths holds the directories BoxManager creates for one box before
// spawning it. All five live under the same root so destroy_box can
// remove them with a single recursive delete.
type Paths struct {
	Root string
	Work string
	Lib  string
	Tmp  string
	Log  string
}

// LockPath returns the path the box's startup hook will lock, matching
// the TMPDIR the child is launched with.
func (p Paths) LockPath() string {
	return startup.LockPath(p.Tmp)
}
