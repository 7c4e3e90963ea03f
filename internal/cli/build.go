package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/osforge/forge/internal/build"
	"github.com/osforge/forge/internal/component"
	"github.com/osforge/forge/internal/pack"
	"github.com/osforge/forge/internal/qemu"
	"github.com/osforge/forge/internal/runtime"
)

// Represents the 'forge build' command.
type BuildCmd struct {
	NoRun bool `short:"n" help:"Do not boot the image after packaging."`
	ISO   bool `short:"i" name:"iso" help:"Build a bootable ISO and boot from it."`
}

// Executes the build command.
//
// Discovers the components, builds and places every binary, writes the build
// report, packages the staging root and finally boots the result unless
// --no-run is given. Packaging starts only after every build has finished
// successfully.
func (c *BuildCmd) Run(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	rt := runtime.NewHostRunner()
	toolchain := component.Toolchain{Program: cfg.Builder.Toolchain}

	components, err := component.Discover(ctx, rt, component.Options{
		Root:      cfg.Builder.ComponentsDir,
		Toolchain: toolchain,
		MaxDepth:  cfg.Builder.MaxModuleDepth,
	})
	if err != nil {
		return err
	}
	slog.Info("discovered components",
		"binaries", len(component.Binaries(components)),
		"total", len(components),
		"root", cfg.Builder.ComponentsDir,
	)

	display := newDisplay()
	result, err := build.Run(ctx, rt, build.Options{
		Components:      components,
		Target:          cfg.Builder.BuildTarget,
		Rootfs:          cfg.Builder.RootfsDir,
		Toolchain:       toolchain,
		Jobs:            cfg.Builder.Jobs,
		ContinueOnError: cfg.Builder.ContinueOnError(),
		Progress:        display,
	})
	display.Close()
	if err != nil {
		return err
	}
	slog.Info("components built",
		"run", result.RunID,
		"components", len(result.Outcomes),
		"duration", result.Duration.Round(time.Millisecond),
	)

	report, err := build.NewReport(result)
	if err != nil {
		return err
	}
	reportPath, err := report.Write(cfg.Builder.DistDir)
	if err != nil {
		return err
	}
	slog.Debug("wrote build report", "path", reportPath)

	display = newDisplay()
	media, err := pack.Run(ctx, rt, pack.Options{
		Rootfs:   cfg.Builder.RootfsDir,
		Dist:     cfg.Builder.DistDir,
		ISOName:  cfg.Builder.ISOName,
		ISO:      c.ISO,
		Progress: display,
	})
	display.Close()
	if err != nil {
		return fmt.Errorf("packaging: %w", err)
	}

	if media.ISO != "" {
		slog.Info("image ready", "initrd", media.Initrd, "iso", media.ISO)
	} else {
		slog.Info("image ready", "initrd", media.Initrd)
	}

	if c.NoRun {
		return nil
	}
	return qemu.Run(ctx, rt, cfg, c.ISO, qemu.OSStdio())
}
