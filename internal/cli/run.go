package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/osforge/forge/internal/config"
	"github.com/osforge/forge/internal/pack"
	"github.com/osforge/forge/internal/qemu"
	"github.com/osforge/forge/internal/runtime"
)

// Returned when the image to boot has not been built.
var ErrNotBuilt = errors.New("image not built")

// Represents the 'forge run' command.
type RunCmd struct {
	ISO bool `name:"iso" help:"Boot the ISO image instead of the kernel and initrd."`
}

// Executes the run command.
//
// Boots whatever the last build left in the distribution directory. Nothing
// is rebuilt.
func (c *RunCmd) Run(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := checkMedia(cfg, c.ISO); err != nil {
		return err
	}
	return qemu.Run(ctx, runtime.NewHostRunner(), cfg, c.ISO, qemu.OSStdio())
}

// Verifies that the files the emulator needs exist.
func checkMedia(cfg *config.Config, useISO bool) error {
	required := []string{pack.KernelPath(cfg.Builder.DistDir), pack.InitrdPath(cfg.Builder.DistDir)}
	if useISO {
		required = []string{cfg.Builder.ISOPath()}
	}
	for _, path := range required {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("%w: %s is missing, run forge build first", ErrNotBuilt, path)
		}
	}
	return nil
}
