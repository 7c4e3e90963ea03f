// Package build compiles binary components and assembles the staging root.
//
// Every binary component becomes one job. Jobs run concurrently: each one
// invokes the compiler for the component's effective target and profile,
// streams the compiler's diagnostics into its own progress line, checks that
// the expected artifact exists, and then places it into the staging root.
// Placement reroots the declared output path under the staging root, copies
// the artifact and any bundled shared libraries, and runs the component's
// post-copy script with ROOTFS and OUT in its environment.
//
// Jobs are independent and write to disjoint parts of the staging root, so
// completion order does not affect the result. Before anything runs the
// component set is checked for duplicate names and overlapping output paths.
// By default the first failure cancels the remaining jobs; with
// [Options.ContinueOnError] every job runs and all failures are reported
// together. [Run] returns only after every job has finished.
//
// Example usage:
//
//	result, err := build.Run(ctx, rt, build.Options{
//	    Components: components,
//	    Target:     "x86_64-unknown-none",
//	    Rootfs:     "build/rootfs",
//	    Progress:   progress.New(os.Stderr),
//	})
//	if err != nil {
//	    return err
//	}
//	report, err := build.NewReport(result)
package build
