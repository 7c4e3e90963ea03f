package component

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Shared validator. Field names in messages use the TOML key.
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

// Reads and validates a build.toml descriptor.
//
// Returns an error wrapping [ErrParse] if the file cannot be read, is not
// valid TOML, has an unknown build_type, or lacks the out key. Unknown keys
// are ignored.
func ParseBuildConfig(path string) (BuildConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return BuildConfig{}, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return DecodeBuildConfig(data)
}

// Decodes a build descriptor from its TOML text.
func DecodeBuildConfig(data []byte) (BuildConfig, error) {
	var cfg BuildConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return BuildConfig{}, fmt.Errorf("%w: line %d column %d: %s", ErrParse, row, col, derr.Error())
		}
		return BuildConfig{}, fmt.Errorf("%w: %w", ErrParse, err)
	}

	cfg.Out = strings.TrimSpace(cfg.Out)
	if err := validate.Struct(cfg); err != nil {
		return BuildConfig{}, fmt.Errorf("%w: %s", ErrParse, describeValidation(err))
	}
	return cfg, nil
}

// Turns validator errors into a short list of offending keys.
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("missing required key %q", fe.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("key %q failed %q check", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
