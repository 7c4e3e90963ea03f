package config

import (
	"fmt"
	"strconv"

	"github.com/mattn/go-shellwords"
)

// Environment variables that override file values.
const (
	EnvBuildTarget   = "FORGE_BUILD_TARGET"
	EnvComponentsDir = "FORGE_COMPONENTS_DIR"
	EnvRootfsDir     = "FORGE_ROOTFS_DIR"
	EnvDistDir       = "FORGE_DIST_DIR"
	EnvJobs          = "FORGE_JOBS"
	EnvFailMode      = "FORGE_FAIL_MODE"
	EnvKernelArgs    = "FORGE_KERNEL_ARGS"
	EnvQemuBin       = "FORGE_QEMU_BIN"
	EnvQemuArgs      = "FORGE_QEMU_ARGS"
)

// Applies FORGE_* overrides. Empty values are ignored.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		return v, ok && v != ""
	}

	overrides := []struct {
		key string
		dst *string
	}{
		{EnvBuildTarget, &cfg.Builder.BuildTarget},
		{EnvComponentsDir, &cfg.Builder.ComponentsDir},
		{EnvRootfsDir, &cfg.Builder.RootfsDir},
		{EnvDistDir, &cfg.Builder.DistDir},
		{EnvKernelArgs, &cfg.Runner.KernelArgs},
		{EnvQemuBin, &cfg.Runner.QemuBin},
	}
	for _, s := range overrides {
		if v, ok := get(s.key); ok {
			*s.dst = v
		}
	}

	if v, ok := get(EnvFailMode); ok {
		cfg.Builder.FailMode = FailMode(v)
	}

	if v, ok := get(EnvJobs); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrEnv, EnvJobs, v)
		}
		cfg.Builder.Jobs = n
	}

	if v, ok := get(EnvQemuArgs); ok {
		args, err := shellwords.Parse(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrEnv, EnvQemuArgs, err)
		}
		cfg.Runner.QemuArgs = args
	}
	return nil
}
