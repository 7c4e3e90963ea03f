// Package progress renders one status line per concurrent job.
//
// A [Display] owns the output stream. Jobs never write to it directly; they
// call [Display.Upsert] to replace the text of their line and
// [Display.Finish] once they are done. Both are safe for concurrent use and
// each call updates exactly one line.
//
// On a terminal the block of lines is redrawn in place with a spinner in
// front of running jobs. Elsewhere only finished jobs are printed, one line
// each, so logs stay readable when redirected to a file.
//
// Example usage:
//
//	d := progress.New(os.Stderr)
//	defer d.Close()
//
//	d.Upsert("init", "Compiling init v0.1.0")
//	d.Finish("init", true, "built in 2.1s")
package progress
