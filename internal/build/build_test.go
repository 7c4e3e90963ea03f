package build

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/osforge/forge/internal/component"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const target = "x86_64-unknown-none"

func TestRunEndToEnd(t *testing.T) {
	src := t.TempDir()
	rootfs := filepath.Join(t.TempDir(), "rootfs")

	initDir := filepath.Join(src, "init")
	require.NoError(t, os.MkdirAll(initDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(initDir, component.BuildDescriptor),
		[]byte("out = \"/sbin/init\"\nbuild_type = \"release\"\n"), 0644))

	helperDir := filepath.Join(src, "drivers", "helper")
	require.NoError(t, os.MkdirAll(helperDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "drivers", component.ModuleDescriptor), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(helperDir, component.BuildDescriptor),
		[]byte("out = \"/dev/null\"\n"), 0644))

	rt := &fakeToolchain{}
	components, err := component.Discover(context.Background(), rt, component.Options{Root: src})
	require.NoError(t, err)
	require.Len(t, components, 2)

	result, err := Run(context.Background(), rt, Options{
		Components: components,
		Target:     target,
		Rootfs:     rootfs,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"sbin/init"}, listFiles(t, rootfs))
	assert.Len(t, result.Outcomes, 2)
	assert.Empty(t, result.Failed())
	assert.NotEmpty(t, result.RunID)

	data, err := os.ReadFile(filepath.Join(rootfs, "sbin", "init"))
	require.NoError(t, err)
	assert.Equal(t, "ELF:init", string(data))
}

func TestRunNoPlacement(t *testing.T) {
	src := t.TempDir()
	rootfs := t.TempDir()

	c := binary(t, src, "probe", component.BuildConfig{Out: component.NoPlacement, PostCopyScript: "exit 1"})
	require.NoError(t, os.MkdirAll(filepath.Join(c.Path, "lib"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(c.Path, "lib", "libprobe.so"), []byte("so"), 0644))

	rt := &fakeToolchain{}
	result, err := Run(context.Background(), rt, Options{
		Components: []component.Component{c},
		Target:     target,
		Rootfs:     rootfs,
	})
	require.NoError(t, err)

	assert.Empty(t, listFiles(t, rootfs))
	assert.Empty(t, result.Outcomes[0].Placed)
	assert.NotEmpty(t, result.Outcomes[0].Artifact)
	assert.Empty(t, rt.commandsFor("-c"), "script must not run for unplaced components")
}

func TestRunOrderIndependent(t *testing.T) {
	for _, delays := range [][2]time.Duration{{0, 30 * time.Millisecond}, {30 * time.Millisecond, 0}} {
		src := t.TempDir()
		rootfs := t.TempDir()
		components := []component.Component{
			binary(t, src, "init", component.BuildConfig{Out: "/sbin/init"}),
			binary(t, src, "shell", component.BuildConfig{Out: "/bin/shell"}),
		}

		rt := &fakeToolchain{delay: map[string]time.Duration{"init": delays[0], "shell": delays[1]}}
		result, err := Run(context.Background(), rt, Options{
			Components: components,
			Target:     target,
			Rootfs:     rootfs,
		})
		require.NoError(t, err)

		assert.Equal(t, []string{"bin/shell", "sbin/init"}, listFiles(t, rootfs))
		assert.Equal(t, "init", result.Outcomes[0].Name)
		assert.Equal(t, "shell", result.Outcomes[1].Name)
	}
}

func TestRunTargetAndProfile(t *testing.T) {
	src := t.TempDir()
	components := []component.Component{
		binary(t, src, "init", component.BuildConfig{Out: "/sbin/init"}),
		binary(t, src, "boot", component.BuildConfig{Out: "/boot/loader", Profile: component.Debug, Target: "i686-unknown-none"}),
		{Name: "docs", Path: filepath.Join(src, "docs"), Variant: component.Other{}},
	}

	rt := &fakeToolchain{}
	result, err := Run(context.Background(), rt, Options{
		Components: components,
		Target:     target,
		Rootfs:     t.TempDir(),
	})
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 2)
	assert.Equal(t, target, result.Outcomes[0].Target)
	assert.Equal(t, "release", result.Outcomes[0].Profile)
	assert.Equal(t, filepath.Join(src, "init", "target", target, "release", "init"), result.Outcomes[0].Artifact)
	assert.Equal(t, "i686-unknown-none", result.Outcomes[1].Target)
	assert.Equal(t, "debug", result.Outcomes[1].Profile)
	assert.Equal(t, filepath.Join(src, "boot", "target", "i686-unknown-none", "debug", "boot"), result.Outcomes[1].Artifact)

	assert.Len(t, rt.commandsFor("build"), 2)
}

func TestRunFailFastCancelsSiblings(t *testing.T) {
	src := t.TempDir()
	components := []component.Component{
		binary(t, src, "broken", component.BuildConfig{Out: "/bin/broken"}),
		binary(t, src, "slow", component.BuildConfig{Out: "/bin/slow"}),
	}

	rt := &fakeToolchain{
		fail:  map[string]int{"broken": 101},
		block: map[string]bool{"slow": true},
	}

	done := make(chan struct{})
	var result *Result
	var err error
	go func() {
		defer close(done)
		result, err = Run(context.Background(), rt, Options{
			Components: components,
			Target:     target,
			Rootfs:     t.TempDir(),
		})
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("fail-fast run did not cancel the blocked job")
	}

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBuild)
	assert.ErrorIs(t, err, ErrCompile)
	assert.Contains(t, err.Error(), `component "broken"`)
	assert.Contains(t, err.Error(), "status 101")

	require.NotNil(t, result)
	assert.ErrorIs(t, result.Outcomes[1].Err, context.Canceled)
	assert.Len(t, result.Failed(), 2)
}

func TestRunContinueOnError(t *testing.T) {
	src := t.TempDir()
	rootfs := t.TempDir()
	components := []component.Component{
		binary(t, src, "broken", component.BuildConfig{Out: "/bin/broken"}),
		binary(t, src, "missing", component.BuildConfig{Out: "/bin/missing"}),
		binary(t, src, "init", component.BuildConfig{Out: "/sbin/init"}),
	}

	rt := &fakeToolchain{
		fail:    map[string]int{"broken": 1},
		missing: map[string]bool{"missing": true},
		delay:   map[string]time.Duration{"init": 20 * time.Millisecond},
	}
	result, err := Run(context.Background(), rt, Options{
		Components:      components,
		Target:          target,
		Rootfs:          rootfs,
		ContinueOnError: true,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCompile)
	assert.ErrorIs(t, err, ErrArtifactMissing)
	assert.Contains(t, err.Error(), "2 of 3 components failed")
	assert.Equal(t, []string{"sbin/init"}, listFiles(t, rootfs))
	assert.NoError(t, result.Outcomes[2].Err)
}

func TestRunArtifactMissing(t *testing.T) {
	src := t.TempDir()
	rt := &fakeToolchain{missing: map[string]bool{"init": true}}

	_, err := Run(context.Background(), rt, Options{
		Components: []component.Component{binary(t, src, "init", component.BuildConfig{Out: "/sbin/init"})},
		Target:     target,
		Rootfs:     t.TempDir(),
	})
	assert.ErrorIs(t, err, ErrArtifactMissing)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRunCopiesLibraries(t *testing.T) {
	src := t.TempDir()
	rootfs := t.TempDir()
	c := binary(t, src, "gui", component.BuildConfig{Out: "/bin/gui"})

	lib := filepath.Join(c.Path, "lib")
	require.NoError(t, os.MkdirAll(filepath.Join(lib, "nested.so"), 0755))
	for _, name := range []string{"libgfx.so", "libfont.so.1", "README.md", "libgfx.a"} {
		require.NoError(t, os.WriteFile(filepath.Join(lib, name), []byte(name), 0644))
	}

	result, err := Run(context.Background(), &fakeToolchain{}, Options{
		Components: []component.Component{c},
		Target:     target,
		Rootfs:     rootfs,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"bin/gui", "lib/libfont.so.1", "lib/libgfx.so"}, listFiles(t, rootfs))
	assert.Len(t, result.Outcomes[0].Placed, 3)
}

func TestRunCopiesLibrarySymlinks(t *testing.T) {
	src := t.TempDir()
	rootfs := t.TempDir()
	c := binary(t, src, "init", component.BuildConfig{Out: "/sbin/init"})

	lib := filepath.Join(c.Path, "lib")
	require.NoError(t, os.MkdirAll(lib, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(lib, "libfoo.so.1.2.3"), []byte("foo"), 0755))
	require.NoError(t, os.Symlink("libfoo.so.1.2.3", filepath.Join(lib, "libfoo.so.1")))
	require.NoError(t, os.Symlink("libfoo.so.1", filepath.Join(lib, "libfoo.so")))
	require.NoError(t, os.Symlink("libgone.so.1", filepath.Join(lib, "libgone.so")))

	result, err := Run(context.Background(), &fakeToolchain{}, Options{
		Components: []component.Component{c},
		Target:     target,
		Rootfs:     rootfs,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"lib/libfoo.so", "lib/libfoo.so.1", "lib/libfoo.so.1.2.3", "sbin/init"}, listFiles(t, rootfs))
	assert.Len(t, result.Outcomes[0].Placed, 4)

	data, err := os.ReadFile(filepath.Join(rootfs, "lib", "libfoo.so"))
	require.NoError(t, err)
	assert.Equal(t, "foo", string(data))
}

func TestRunPostCopyScript(t *testing.T) {
	src := t.TempDir()
	rootfs := t.TempDir()
	c := binary(t, src, "init", component.BuildConfig{Out: "/sbin/init", PostCopyScript: "chmod 700 $ROOTFS$OUT"})

	rt := &fakeToolchain{}
	_, err := Run(context.Background(), rt, Options{
		Components: []component.Component{c},
		Target:     target,
		Rootfs:     rootfs,
	})
	require.NoError(t, err)

	scripts := rt.commandsFor("-c")
	require.Len(t, scripts, 1)
	assert.Equal(t, "sh", scripts[0].Name)
	assert.Equal(t, []string{"-c", "chmod 700 $ROOTFS$OUT"}, scripts[0].Args)
	assert.Contains(t, scripts[0].Env, "ROOTFS="+rootfs)
	assert.Contains(t, scripts[0].Env, "OUT=/sbin/init")
	assert.Equal(t, c.Path, scripts[0].Dir)
}

func TestRunPostCopyScriptFailure(t *testing.T) {
	src := t.TempDir()
	c := binary(t, src, "init", component.BuildConfig{Out: "/sbin/init", PostCopyScript: "false"})

	_, err := Run(context.Background(), &fakeToolchain{scriptExit: 2}, Options{
		Components: []component.Component{c},
		Target:     target,
		Rootfs:     t.TempDir(),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrScript)
	assert.Contains(t, err.Error(), "exit code 2")
}

func TestRunJobsLimit(t *testing.T) {
	src := t.TempDir()
	var components []component.Component
	for _, name := range []string{"a", "b", "c", "d"} {
		components = append(components, binary(t, src, name, component.BuildConfig{Out: "/bin/" + name}))
	}

	rt := &fakeToolchain{delay: map[string]time.Duration{"a": 5 * time.Millisecond, "b": 5 * time.Millisecond, "c": 5 * time.Millisecond, "d": 5 * time.Millisecond}}
	_, err := Run(context.Background(), rt, Options{
		Components: components,
		Target:     target,
		Rootfs:     t.TempDir(),
		Jobs:       1,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, rt.maxRunning)
}

func TestRunReportsProgress(t *testing.T) {
	src := t.TempDir()
	rec := newRecorder()
	rt := &fakeToolchain{stderr: []string{"Compiling init v0.1.0", "Finished release"}}

	_, err := Run(context.Background(), rt, Options{
		Components: []component.Component{binary(t, src, "init", component.BuildConfig{Out: "/sbin/init"})},
		Target:     target,
		Rootfs:     t.TempDir(),
		Progress:   rec,
	})
	require.NoError(t, err)

	assert.Contains(t, rec.updates["init"], "Compiling init v0.1.0")
	assert.Contains(t, rec.updates["init"], "Finished release")
	assert.True(t, rec.finished["init"])
}

func TestRunRejectsInvalidSetBeforeBuilding(t *testing.T) {
	src := t.TempDir()
	rt := &fakeToolchain{}

	_, err := Run(context.Background(), rt, Options{
		Components: []component.Component{
			binary(t, src, "a", component.BuildConfig{Out: "/bin/tool"}),
			binary(t, src, "b", component.BuildConfig{Out: "/bin/tool"}),
		},
		Target: target,
		Rootfs: t.TempDir(),
	})
	assert.ErrorIs(t, err, ErrOverlappingOutput)
	assert.Empty(t, rt.commandsFor("build"))
}

func TestRunCancelledContext(t *testing.T) {
	src := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := Run(ctx, &fakeToolchain{}, Options{
		Components: []component.Component{binary(t, src, "init", component.BuildConfig{Out: "/sbin/init"})},
		Target:     target,
		Rootfs:     t.TempDir(),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, result.Outcomes[0].Artifact)
}
