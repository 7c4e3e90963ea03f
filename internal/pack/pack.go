package pack

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/osforge/forge/internal/paths"
	"github.com/osforge/forge/internal/runtime"
)

const (

	// Program that creates bootable images.
	ISOTool = "grub-mkrescue"

	// Shell used for the archive pipeline.
	shell = "sh"
)

// Receives status updates. Implemented by progress.Display.
type Reporter interface {
	Upsert(id, text string)
	Finish(id string, ok bool, text string)
}

type discard struct{}

func (discard) Upsert(string, string)       {}
func (discard) Finish(string, bool, string) {}

// Controls packaging.
type Options struct {
	Rootfs   string   // Populated staging root.
	Dist     string   // Distribution directory.
	ISOName  string   // Image file name inside Dist.
	ISO      bool     // Also build the ISO image.
	Progress Reporter // Status sink. Nil discards updates.
}

// Paths of the produced media.
type Result struct {
	Initrd string // Archive of the staging root.
	ISO    string // Bootable image, empty when not requested.
}

// Returns the directory that holds the ISO tree.
func ISOTree(dist string) string {
	return filepath.Join(dist, "iso")
}

// Returns where the initrd is written.
func InitrdPath(dist string) string {
	return filepath.Join(ISOTree(dist), "boot", "initrd")
}

// Returns where the kernel is expected.
func KernelPath(dist string) string {
	return filepath.Join(ISOTree(dist), "boot", "kernel")
}

// Creates the initrd and, if requested, the ISO image.
func Run(ctx context.Context, rt runtime.Runner, opts Options) (*Result, error) {
	progress := opts.Progress
	if progress == nil {
		progress = discard{}
	}

	progress.Upsert("initrd", "archiving "+opts.Rootfs)
	initrd, err := Initrd(ctx, rt, opts.Rootfs, opts.Dist)
	if err != nil {
		progress.Finish("initrd", false, err.Error())
		return nil, err
	}
	progress.Finish("initrd", true, initrd)

	result := &Result{Initrd: initrd}
	if !opts.ISO {
		return result, nil
	}

	progress.Upsert("iso", "running "+ISOTool)
	iso, err := ISO(ctx, rt, opts.Dist, opts.ISOName)
	if err != nil {
		progress.Finish("iso", false, err.Error())
		return nil, err
	}
	progress.Finish("iso", true, iso)
	result.ISO = iso
	return result, nil
}

// Archives rootfs into <dist>/iso/boot/initrd and returns that path.
func Initrd(ctx context.Context, rt runtime.Runner, rootfs, dist string) (string, error) {
	out, err := filepath.Abs(InitrdPath(dist))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInitrd, err)
	}
	if err := os.MkdirAll(filepath.Dir(out), paths.DefaultDirMode); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInitrd, err)
	}

	cmd := InitrdCommand(rootfs, out)
	slog.Debug("creating initrd", "rootfs", rootfs, "out", out)
	if err := run(ctx, rt, cmd, ErrInitrd); err != nil {
		return "", err
	}
	slog.Debug("initrd created", "path", out)
	return out, nil
}

// Returns the archive pipeline that writes the initrd to out.
func InitrdCommand(rootfs, out string) runtime.Command {
	return runtime.Command{
		Name: shell,
		Args: []string{"-c", "find . | cpio -o -H newc > " + quote(out)},
		Dir:  rootfs,
	}
}

// Wraps <dist>/iso into <dist>/<name> and returns the image path.
func ISO(ctx context.Context, rt runtime.Runner, dist, name string) (string, error) {
	dist, err := filepath.Abs(dist)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrISO, err)
	}

	cmd := ISOCommand(dist, name)
	slog.Debug("creating ISO", "dist", dist, "name", name)
	if err := run(ctx, rt, cmd, ErrISO); err != nil {
		return "", err
	}
	out := filepath.Join(dist, name)
	slog.Debug("ISO created", "path", out)
	return out, nil
}

// Returns the image tool invocation for dist.
func ISOCommand(dist, name string) runtime.Command {
	return runtime.Command{
		Name: ISOTool,
		Args: []string{"-o", filepath.Join(dist, name), ISOTree(dist)},
		Dir:  dist,
	}
}

func run(ctx context.Context, rt runtime.Runner, cmd runtime.Command, category error) error {
	res, err := rt.Exec(ctx, cmd)
	if err != nil {
		return fmt.Errorf("%w: %w", category, err)
	}
	if !res.Success() {
		msg := fmt.Sprintf("%s exited with status %d", cmd.Name, res.ExitCode)
		if tail := strings.TrimSpace(res.Stderr); tail != "" {
			msg += ": " + tail
		}
		return fmt.Errorf("%w: %s", category, msg)
	}
	return nil
}

// Quotes s for a POSIX shell.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
