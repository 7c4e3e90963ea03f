package component

import (
	"bytes"
	"context"
	"fmt"

	"github.com/osforge/forge/internal/runtime"
	"github.com/tidwall/gjson"
)

// Queries the toolchain for the name of the first package in dir.
//
// Returns ok false when the metadata lists no named package. A failed query
// or unparseable output is an error wrapping [ErrMetadata].
func PackageName(ctx context.Context, rt runtime.Runner, tc Toolchain, dir string) (name string, ok bool, err error) {
	var stdout bytes.Buffer
	cmd := tc.MetadataCommand(dir)
	cmd.Stdout = &stdout

	res, err := rt.Exec(ctx, cmd)
	if err != nil {
		return "", false, fmt.Errorf("%w: %w", ErrMetadata, err)
	}
	if !res.Success() {
		return "", false, fmt.Errorf("%w: %s exited with status %d: %s", ErrMetadata, cmd, res.ExitCode, res.Stderr)
	}
	return packageNameFromJSON(stdout.Bytes())
}

func packageNameFromJSON(data []byte) (string, bool, error) {
	if !gjson.ValidBytes(data) {
		return "", false, fmt.Errorf("%w: output is not valid JSON", ErrMetadata)
	}
	name := gjson.GetBytes(data, "packages.0.name")
	if !name.Exists() || name.Type != gjson.String || name.String() == "" {
		return "", false, nil
	}
	return name.String(), true, nil
}
