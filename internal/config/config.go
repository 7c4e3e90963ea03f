package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/go-homedir"
	"github.com/osforge/forge/internal/component"
	"github.com/osforge/forge/internal/paths"
	"github.com/pelletier/go-toml/v2"
)

// What the scheduler does after a component fails.
type FailMode string

const (
	FailFast FailMode = "fail-fast" // Cancel the remaining builds.
	Continue FailMode = "continue"  // Finish every build and report all failures.
)

const (

	// Image file name inside the distribution directory.
	DefaultISOName = "os.iso"

	// Emulator used when qemu_bin is not set.
	DefaultQemuBin = "qemu-system-x86_64"
)

// Emulator arguments used when qemu_args is not set.
var DefaultQemuArgs = []string{"-enable-kvm", "-m", "512M", "-smp", "2"}

// Parsed builder.toml.
type Config struct {
	Builder Builder `toml:"builder"`
	Runner  Runner  `toml:"runner"`

	// Path of the file the configuration was loaded from.
	Path string `toml:"-"`
}

// The [builder] table.
type Builder struct {
	BuildTarget    string   `toml:"build_target" validate:"required"`              // Default target triple.
	ComponentsDir  string   `toml:"components_dir" validate:"required"`            // Root of the component tree.
	RootfsDir      string   `toml:"rootfs_dir" validate:"required"`                // Staging root filesystem.
	DistDir        string   `toml:"dist_dir" validate:"required"`                  // Packaging output.
	Toolchain      string   `toml:"toolchain"`                                     // Compiler program.
	Jobs           int      `toml:"jobs" validate:"gte=0"`                         // Concurrent builds, 0 for one per component.
	FailMode       FailMode `toml:"fail_mode" validate:"oneof=fail-fast continue"` // Reaction to a failed component.
	MaxModuleDepth int      `toml:"max_module_depth" validate:"gte=0"`             // Module nesting limit.
	ISOName        string   `toml:"iso_name" validate:"required,excludesall=/"`    // Image file name.
}

// The [runner] table.
type Runner struct {
	KernelArgs string   `toml:"kernel_args"` // Kernel command line for direct boot.
	QemuBin    string   `toml:"qemu_bin"`    // Emulator executable.
	QemuArgs   []string `toml:"qemu_args"`   // Arguments placed before the boot options.
}

// Returns a configuration holding only the built-in defaults.
func Default() *Config {
	return &Config{
		Builder: Builder{
			Toolchain:      component.DefaultCompiler,
			FailMode:       FailFast,
			MaxModuleDepth: component.DefaultMaxDepth,
			ISOName:        DefaultISOName,
		},
		Runner: Runner{
			QemuBin:  DefaultQemuBin,
			QemuArgs: append([]string(nil), DefaultQemuArgs...),
		},
	}
}

// Returns the configuration file to load.
//
// An explicit path is used as is. Otherwise the working directory and then
// the XDG configuration directories are searched. Returns an error wrapping
// [ErrNotFound] when nothing is found.
func Locate(explicit, workdir string) (string, error) {
	if explicit != "" {
		expanded, err := homedir.Expand(explicit)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return expanded, nil
	}

	found, err := paths.FindConfig(workdir)
	if err != nil {
		return "", fmt.Errorf("%w: no %s in %s or %s: %w", ErrNotFound, paths.ConfigFileName, workdir, paths.ConfigDir(), err)
	}
	return found, nil
}

// Reads the configuration at path, applies environment overrides from the
// process environment, resolves directories and validates the result.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	cfg, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if err := applyEnv(cfg, lookup); err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	cfg.Path = abs

	if err := cfg.resolve(filepath.Dir(abs)); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decodes TOML text over the defaults. Does not validate.
func Decode(data []byte) (*Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("%w: line %d column %d: %s", ErrParse, row, col, derr.Error())
		}
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return cfg, nil
}

// Expands "~" and makes the directories absolute relative to base.
func (c *Config) resolve(base string) error {
	for _, dir := range []*string{&c.Builder.ComponentsDir, &c.Builder.RootfsDir, &c.Builder.DistDir} {
		if *dir == "" {
			continue
		}
		expanded, err := homedir.Expand(*dir)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrParse, err)
		}
		if !filepath.IsAbs(expanded) {
			expanded = filepath.Join(base, expanded)
		}
		*dir = filepath.Clean(expanded)
	}

	if strings.HasPrefix(c.Runner.QemuBin, "~") {
		expanded, err := homedir.Expand(c.Runner.QemuBin)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrParse, err)
		}
		c.Runner.QemuBin = expanded
	}
	return nil
}

// Checks required keys and value ranges.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %s", ErrParse, describeValidation(err))
	}
	return nil
}

// Whether builds continue after a component fails.
func (b Builder) ContinueOnError() bool {
	return b.FailMode == Continue
}

// Returns the full path of the ISO image.
func (b Builder) ISOPath() string {
	return filepath.Join(b.DistDir, b.ISOName)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		key := strings.ToLower(strings.TrimPrefix(fe.Namespace(), "Config."))
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("missing required key %q", key))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%q must be one of %s, got %q", key, fe.Param(), fe.Value()))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%q must be at least %s", key, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%q failed %q check", key, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
