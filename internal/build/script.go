package build

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/osforge/forge/internal/component"
	"github.com/osforge/forge/internal/runtime"
)

// Default shell used for post-copy scripts.
const defaultShell = "sh"

// Environment and shell for a post-copy script.
type scriptState struct {
	shell   string
	workdir string
	env     map[string]string
}

// Creates the script state for a placed component.
//
// ROOTFS is the staging root and OUT the declared output path, so scripts
// address the placed file as $ROOTFS$OUT.
func newScriptState(shell, rootfs string, c component.Component, cfg component.BuildConfig, target string) *scriptState {
	return &scriptState{
		shell:   shell,
		workdir: c.Path,
		env: map[string]string{
			"ROOTFS":        rootfs,
			"OUT":           cfg.Out,
			"COMPONENT":     c.Name,
			"COMPONENT_DIR": c.Path,
			"BUILD_TARGET":  target,
			"BUILD_PROFILE": cfg.Profile.String(),
		},
	}
}

// Formats the environment as sorted "key=value" strings.
func (s *scriptState) environ() []string {
	env := make([]string, 0, len(s.env))
	for _, k := range slices.Sorted(maps.Keys(s.env)) {
		env = append(env, k+"="+s.env[k])
	}
	return env
}

// Returns the command that runs script.
func (s *scriptState) command(script string) runtime.Command {
	return runtime.Command{
		Name: s.shell,
		Args: []string{"-c", script},
		Dir:  s.workdir,
		Env:  s.environ(),
	}
}

// Runs the component's post-copy script. A non-zero exit is an error.
func (s *scheduler) runScript(ctx context.Context, c component.Component, cfg component.BuildConfig) error {
	state := newScriptState(s.shell, s.rootfs, c, cfg, cfg.EffectiveTarget(s.target))
	cmd := state.command(cfg.PostCopyScript)
	cmd.OnStderrLine = func(line string) {
		s.progress.Upsert(c.Name, line)
	}

	s.progress.Upsert(c.Name, "running post-copy script")
	slog.Debug("post-copy script", "name", c.Name, "shell", s.shell)

	res, err := s.rt.Exec(ctx, cmd)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrScript, err)
	}
	if !res.Success() {
		return fmt.Errorf("%w: exit code %d%s", ErrScript, res.ExitCode, indent(res.Stderr))
	}
	return nil
}
