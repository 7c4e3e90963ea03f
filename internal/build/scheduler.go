package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/osforge/forge/internal/component"
	"github.com/osforge/forge/internal/runtime"
	"golang.org/x/sync/errgroup"
)

// Holds shared state for building all components of a run.
type scheduler struct {
	rt              runtime.Runner      // Runs compilers and scripts.
	toolchain       component.Toolchain // Compiler invocation.
	target          string              // Default target triple.
	rootfs          string              // Staging root filesystem.
	jobs            int                 // Concurrency limit, zero for none.
	continueOnError bool                // Keep going after a failure.
	shell           string              // Shell for post-copy scripts.
	progress        Reporter            // Status line sink.
}

// Creates a new [scheduler] from the given options.
func newScheduler(rt runtime.Runner, opts Options) *scheduler {
	s := &scheduler{
		rt:              rt,
		toolchain:       opts.Toolchain,
		target:          opts.Target,
		rootfs:          opts.Rootfs,
		jobs:            opts.Jobs,
		continueOnError: opts.ContinueOnError,
		shell:           opts.Shell,
		progress:        opts.Progress,
	}
	if s.shell == "" {
		s.shell = defaultShell
	}
	if s.progress == nil {
		s.progress = discard{}
	}
	return s
}

// Runs one job per binary and waits for all of them.
//
// Outcomes are stored by index so the result order matches the component
// order regardless of completion order. In fail-fast mode the first failure
// cancels the context shared by the remaining jobs.
func (s *scheduler) build(ctx context.Context, runID string, binaries []component.Component) (*Result, error) {
	result := &Result{
		RunID:    runID,
		Target:   s.target,
		Rootfs:   s.rootfs,
		Started:  time.Now(),
		Outcomes: make([]Outcome, len(binaries)),
	}

	g, gctx := errgroup.WithContext(ctx)
	if s.continueOnError {
		g, gctx = &errgroup.Group{}, ctx
	}
	if s.jobs > 0 {
		g.SetLimit(s.jobs)
	}

	for i, c := range binaries {
		g.Go(func() error {
			result.Outcomes[i] = s.runJob(gctx, c)
			return result.Outcomes[i].Err
		})
	}

	firstErr := g.Wait()
	result.Duration = time.Since(result.Started)

	if err := s.failure(result, firstErr); err != nil {
		slog.Debug("build failed", "run", runID, "failed", len(result.Failed()), "duration", result.Duration)
		return result, err
	}

	slog.Debug("components built", "run", runID, "components", len(binaries), "duration", result.Duration)
	return result, nil
}

// Returns the run error, or nil if every job succeeded.
//
// In fail-fast mode this is the first error reported by the group, which is
// the failure that triggered the cancellation. Otherwise every failure is
// joined in component order.
func (s *scheduler) failure(result *Result, first error) error {
	if !s.continueOnError {
		if first == nil {
			return nil
		}
		return fmt.Errorf("%w: %w", ErrBuild, first)
	}

	var errs []error
	for _, o := range result.Outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d of %d components failed: %w", ErrBuild, len(errs), len(result.Outcomes), errors.Join(errs...))
}
