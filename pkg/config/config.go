// Package config resolves BoxConfig from the process environment and an
// optional YAML overlay file, following the env-first pattern the rest of
// this codebase uses for runtime configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/boxrun/sandboxd/pkg/types"
	"gopkg.in/yaml.v3"
)

const (
	envSandboxRoot     = "SANDBOX_ROOT"
	envSandboxPrefix   = "SANDBOX_PREFIX"
	envSharedLibsPath  = "SHARED_LIBS_PATH"
	envSnapshotDir     = "SNAPSHOT_DIR"
	envHealthInterval  = "HEALTH_CHECK_INTERVAL"
	envPrewarmCount    = "PREWARM_COUNT"
	envExecTimeout     = "EXEC_TIMEOUT"
	envSandboxUser     = "SANDBOX_USER"
	envSandboxGroup    = "SANDBOX_GROUP"
)

// Defaults are the out-of-the-box values; every field can be overridden
// by environment variable or config file.
var Defaults = types.BoxConfig{
	SandboxRoot:         "/sandboxes/",
	SandboxPrefix:       "sandbox_",
	SharedLibsPath:      "/sandboxes/shared_libs",
	SnapshotDir:         "/sandboxes/snapshots",
	SandboxUser:         "sandboxed",
	SandboxGroup:        "sandboxed",
	HealthCheckInterval: 10 * time.Second,
	PrewarmCount:        0,
	ExecTimeout:         200 * time.Second,
}

// overlay is the shape of the optional YAML config file: an
// apiVersion/kind envelope around a single flat spec block, rather than
// a generic Kind-dispatched resource document.
type overlay struct {
	APIVersion string `yaml:"apiVersion"`
	Kind       string `yaml:"kind"`
	Spec       struct {
		SandboxRoot         string `yaml:"sandboxRoot"`
		SandboxPrefix       string `yaml:"sandboxPrefix"`
		SharedLibsPath      string `yaml:"sharedLibsPath"`
		SnapshotDir         string `yaml:"snapshotDir"`
		SandboxUser         string `yaml:"sandboxUser"`
		SandboxGroup        string `yaml:"sandboxGroup"`
		HealthCheckInterval string `yaml:"healthCheckInterval"`
		PrewarmCount        *int   `yaml:"prewarmCount"`
		ExecTimeout         string `yaml:"execTimeout"`
	} `yaml:"spec"`
}

// Load resolves a BoxConfig starting from Defaults, applying environment
// variables, then applying the YAML file at path if non-empty.
func Load(path string) (types.BoxConfig, error) {
	cfg := Defaults

	applyEnv(&cfg)

	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return cfg, err
		}
	}

	return cfg, nil
}

func applyEnv(cfg *types.BoxConfig) {
	if v := os.Getenv(envSandboxRoot); v != "" {
		cfg.SandboxRoot = v
	}
	if v := os.Getenv(envSandboxPrefix); v != "" {
		cfg.SandboxPrefix = v
	}
	if v := os.Getenv(envSharedLibsPath); v != "" {
		cfg.SharedLibsPath = v
	}
	if v := os.Getenv(envSnapshotDir); v != "" {
		cfg.SnapshotDir = v
	}
	if v := os.Getenv(envSandboxUser); v != "" {
		cfg.SandboxUser = v
	}
	if v := os.Getenv(envSandboxGroup); v != "" {
		cfg.SandboxGroup = v
	}
	if v := os.Getenv(envHealthInterval); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			cfg.HealthCheckInterval = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv(envPrewarmCount); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.PrewarmCount = n
		}
	}
	if v := os.Getenv(envExecTimeout); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			cfg.ExecTimeout = time.Duration(secs) * time.Second
		}
	}
}

func applyFile(cfg *types.BoxConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var ov overlay
	if err := yaml.Unmarshal(data, &ov); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	s := ov.Spec
	if s.SandboxRoot != "" {
		cfg.SandboxRoot = s.SandboxRoot
	}
	if s.SandboxPrefix != "" {
		cfg.SandboxPrefix = s.SandboxPrefix
	}
	if s.SharedLibsPath != "" {
		cfg.SharedLibsPath = s.SharedLibsPath
	}
	if s.SnapshotDir != "" {
		cfg.SnapshotDir = s.SnapshotDir
	}
	if s.SandboxUser != "" {
		cfg.SandboxUser = s.SandboxUser
	}
	if s.SandboxGroup != "" {
		cfg.SandboxGroup = s.SandboxGroup
	}
	if s.HealthCheckInterval != "" {
		d, err := time.ParseDuration(s.HealthCheckInterval)
		if err != nil {
			return fmt.Errorf("invalid healthCheckInterval: %w", err)
		}
		cfg.HealthCheckInterval = d
	}
	if s.PrewarmCount != nil {
		cfg.PrewarmCount = *s.PrewarmCount
	}
	if s.ExecTimeout != "" {
		d, err := time.ParseDuration(s.ExecTimeout)
		if err != nil {
			return fmt.Errorf("invalid execTimeout: %w", err)
		}
		cfg.ExecTimeout = d
	}

	return nil
}
