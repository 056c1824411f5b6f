package boxproc

import "github.com/boxrun/sandboxd/pkg/types"

// buildArgs returns the argv for a box's child process: privilege-drop
// wrapper, checkpoint launcher, then interpreter. cfg.Command overrides
// this entirely when set, for tests and non-default deployments.
// Resource limits are applied separately, around cmd.Start (see
// rlimit.go) rather than folded into argv here.
func buildArgs(cfg types.BoxConfig) []string {
	if len(cfg.Command) > 0 {
		return cfg.Command
	}

	return []string{
		"gosu", cfg.SandboxUser,
		"dmtcp_launch", "-j", "--ckpt-signal", "10", "--allow-file-overwrite", "--no-gzip",
		"python3", "-i", "-q", "-S", "-u",
	}
}

// buildEnv returns the explicit, non-inherited environment for a box's
// child process.
func buildEnv(cfg types.BoxConfig, paths Paths, startupPath string) []string {
	return []string{
		"PYTHONPATH=" + paths.Lib + ":" + cfg.SharedLibsPath,
		"PYTHONUSERBASE=" + paths.Lib,
		"HOME=" + paths.Work,
		"TMPDIR=" + paths.Tmp,
		"PYTHONSTARTUP=" + startupPath,
		"PATH=/usr/bin:/bin",
	}
}
