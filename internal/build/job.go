package build

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/osforge/forge/internal/component"
)

// Result of building and placing one component.
type Outcome struct {
	Name     string        // Component name.
	Path     string        // Component source directory.
	Target   string        // Effective target triple.
	Profile  string        // Build profile name.
	Artifact string        // Compiled artifact, empty if compilation failed.
	Output   string        // Declared output path inside the image.
	Placed   []PlacedFile  // Files written to the staging root.
	Duration time.Duration // Time spent on the job.
	Err      error         // Failure, nil on success.
}

// Compiles, verifies and places a single component.
//
// Never panics on component errors; every failure is returned through
// [Outcome.Err] with the component name in the message.
func (s *scheduler) runJob(ctx context.Context, c component.Component) (o Outcome) {
	cfg, _ := c.BuildConfig()
	target := cfg.EffectiveTarget(s.target)

	o = Outcome{
		Name:    c.Name,
		Path:    c.Path,
		Target:  target,
		Profile: cfg.Profile.String(),
		Output:  cfg.Out,
	}

	start := time.Now()
	defer func() {
		o.Duration = time.Since(start)
		if o.Err != nil {
			o.Err = fmt.Errorf("component %q: %w", c.Name, o.Err)
			s.progress.Finish(c.Name, false, firstLine(o.Err))
			slog.Debug("component failed", "name", c.Name, "error", o.Err)
			return
		}
		s.progress.Finish(c.Name, true, fmt.Sprintf("built in %s", o.Duration.Round(time.Millisecond)))
	}()

	if err := ctx.Err(); err != nil {
		o.Err = err
		return o
	}

	s.progress.Upsert(c.Name, fmt.Sprintf("compiling for %s (%s)", target, o.Profile))
	artifact, err := s.compile(ctx, c, cfg, target)
	if err != nil {
		o.Err = err
		return o
	}
	o.Artifact = artifact

	if !cfg.Placed() {
		slog.Debug("skipping placement", "name", c.Name)
		return o
	}

	s.progress.Upsert(c.Name, "placing "+cfg.Out)
	placed, err := s.place(ctx, c, cfg, artifact)
	o.Placed = placed
	if err != nil {
		o.Err = err
	}
	return o
}

// Runs the compiler and returns the path of the verified artifact.
func (s *scheduler) compile(ctx context.Context, c component.Component, cfg component.BuildConfig, target string) (string, error) {
	cmd := s.toolchain.BuildCommand(c.Path, cfg.Profile, target)
	cmd.OnStderrLine = func(line string) {
		s.progress.Upsert(c.Name, line)
	}

	slog.Debug("compiling", "name", c.Name, "command", cmd.String(), "dir", cmd.Dir)
	res, err := s.rt.Exec(ctx, cmd)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCompile, err)
	}
	if !res.Success() {
		return "", fmt.Errorf("%w: %s exited with status %d%s", ErrCompile, cmd, res.ExitCode, indent(res.Stderr))
	}

	artifact := s.toolchain.ArtifactPath(c.Path, target, cfg.Profile, c.Name)
	info, err := os.Stat(artifact)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrArtifactMissing, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s is not a regular file", ErrArtifactMissing, artifact)
	}
	return artifact, nil
}
