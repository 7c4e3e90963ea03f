package build

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/osforge/forge/internal/component"
	"github.com/osforge/forge/internal/paths"
	"github.com/osforge/forge/internal/runtime"
)

// Controls a build run.
type Options struct {
	Components      []component.Component // Discovered components. Non-binaries are ignored.
	Target          string                // Default target triple.
	Rootfs          string                // Staging root filesystem.
	Toolchain       component.Toolchain   // Compiler invocation.
	Jobs            int                   // Maximum concurrent jobs. Zero runs one job per component.
	ContinueOnError bool                  // Run every job even after a failure.
	Shell           string                // Shell for post-copy scripts. Empty uses sh.
	Progress        Reporter              // Status line sink. Nil discards updates.
}

// Returned after a build run.
type Result struct {
	RunID    string        // Unique identifier of this run.
	Target   string        // Default target triple.
	Rootfs   string        // Staging root filesystem.
	Started  time.Time     // When the first job was scheduled.
	Duration time.Duration // Wall time of the whole run.
	Outcomes []Outcome     // One entry per binary component, in component order.
}

// Returns the outcomes that failed.
func (r *Result) Failed() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// Builds every binary component and places the artifacts under opts.Rootfs.
//
// The component set is validated first; a duplicate name or overlapping
// output path fails before any compiler runs. Run waits for every job before
// returning. When a job fails the error wraps [ErrBuild] and the returned
// [Result] still holds every outcome, including the failed ones.
func Run(ctx context.Context, rt runtime.Runner, opts Options) (*Result, error) {
	binaries := component.Binaries(opts.Components)

	if err := validate(binaries); err != nil {
		return nil, err
	}

	rootfs, err := filepath.Abs(opts.Rootfs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileSystemOperation, err)
	}
	if err := os.MkdirAll(rootfs, paths.DefaultDirMode); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileSystemOperation, err)
	}
	opts.Rootfs = rootfs

	runID := uuid.NewString()
	slog.Info("building components",
		"run", runID,
		"components", len(binaries),
		"target", opts.Target,
		"rootfs", opts.Rootfs,
		"jobs", opts.Jobs,
	)

	return newScheduler(rt, opts).build(ctx, runID, binaries)
}
