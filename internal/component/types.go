package component

import (
	"fmt"
	"strings"
)

const (

	// Descriptor that marks a directory as a binary component.
	BuildDescriptor = "build.toml"

	// Descriptor that marks a directory as a module of further components.
	ModuleDescriptor = "module.toml"

	// Output path that disables placement. Components using it are built
	// for their side effects only.
	NoPlacement = "/dev/null"
)

// Compilation mode of a binary component.
type Profile int

const (
	Release Profile = iota // Optimised build. The default.
	Debug                  // Unoptimised build with debug assertions.
)

// Returns the profile name as used in artifact paths ("release", "debug").
func (p Profile) String() string {
	switch p {
	case Debug:
		return "debug"
	default:
		return "release"
	}
}

// Parses "debug" or "release", ignoring case.
func (p *Profile) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "debug":
		*p = Debug
	case "release":
		*p = Release
	default:
		return fmt.Errorf("unknown build_type %q (expected debug or release)", string(text))
	}
	return nil
}

// Encodes the profile as its lower-case name.
func (p Profile) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Contents of a build.toml descriptor.
type BuildConfig struct {
	Out            string  `toml:"out" validate:"required"` // Destination inside the root filesystem, or [NoPlacement].
	Profile        Profile `toml:"build_type"`              // Compilation profile. Defaults to [Release].
	Target         string  `toml:"build_target"`            // Target override. Empty uses the global target.
	PostCopyScript string  `toml:"post_copy_script"`        // Shell fragment run after placement.
}

// Whether the artifact should be copied into the staging root.
func (c BuildConfig) Placed() bool {
	return c.Out != NoPlacement
}

// Returns the target override, or fallback when none is set.
func (c BuildConfig) EffectiveTarget(fallback string) string {
	if t := strings.TrimSpace(c.Target); t != "" {
		return t
	}
	return fallback
}

// Classification of a component. Implemented by [Binary], [Module] and
// [Other] only.
type Variant interface {
	variant() string
}

// A directory with a build descriptor.
type Binary struct {
	Config BuildConfig
}

// A directory that contains further components.
type Module struct{}

// A directory with neither descriptor.
type Other struct{}

func (Binary) variant() string { return "binary" }
func (Module) variant() string { return "module" }
func (Other) variant() string  { return "other" }

// A build-relevant directory entry.
type Component struct {
	Name    string  // Package name for binaries, directory name otherwise.
	Path    string  // Absolute path of the component's source tree.
	Variant Variant // Classification, never nil.
}

// Returns the build configuration if the component is a [Binary].
func (c Component) BuildConfig() (BuildConfig, bool) {
	b, ok := c.Variant.(Binary)
	return b.Config, ok
}

// Returns "binary", "module" or "other".
func (c Component) Kind() string {
	if c.Variant == nil {
		return "unknown"
	}
	return c.Variant.variant()
}

// Returns only the binary components, preserving order.
func Binaries(components []Component) []Component {
	var out []Component
	for _, c := range components {
		if _, ok := c.Variant.(Binary); ok {
			out = append(out, c)
		}
	}
	return out
}
