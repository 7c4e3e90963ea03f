// Package qemu boots the assembled image in an emulator.
package qemu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/osforge/forge/internal/config"
	"github.com/osforge/forge/internal/pack"
	"github.com/osforge/forge/internal/runtime"
)

var ErrEmulator = errors.New("emulator failed")

// Returns the emulator invocation for cfg.
//
// With useISO the image at <dist>/<iso_name> is attached as a CD-ROM.
// Otherwise the kernel and initrd under <dist>/iso/boot are booted directly
// with the configured kernel command line.
func Command(cfg *config.Config, useISO bool) runtime.Command {
	bin := cfg.Runner.QemuBin
	if bin == "" {
		bin = config.DefaultQemuBin
	}
	args := cfg.Runner.QemuArgs
	if args == nil {
		args = config.DefaultQemuArgs
	}
	args = append([]string(nil), args...)

	dist := cfg.Builder.DistDir
	if useISO {
		args = append(args, "-cdrom", cfg.Builder.ISOPath())
	} else {
		args = append(args,
			"-kernel", pack.KernelPath(dist),
			"-initrd", pack.InitrdPath(dist),
			"-append", cfg.Runner.KernelArgs,
		)
	}
	return runtime.Command{Name: bin, Args: args}
}

// Attached terminal streams.
type Stdio struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Returns the process's own standard streams.
func OSStdio() Stdio {
	return Stdio{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// Runs the emulator attached to stdio until it exits.
//
// A non-zero exit status is an error wrapping [ErrEmulator].
func Run(ctx context.Context, rt runtime.Runner, cfg *config.Config, useISO bool, stdio Stdio) error {
	cmd := Command(cfg, useISO)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = stdio.In, stdio.Out, stdio.Err

	slog.Info("starting emulator", "command", cmd.String())
	res, err := rt.Exec(ctx, cmd)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEmulator, err)
	}
	if !res.Success() {
		return fmt.Errorf("%w: %s exited with status %d", ErrEmulator, cmd.Name, res.ExitCode)
	}
	return nil
}
