package pack

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/osforge/forge/internal/runtime"
)

// Records commands and answers with a fixed exit code per program.
type fakeRunner struct {
	mu    sync.Mutex
	calls []runtime.Command
	exit  map[string]int
	err   error
}

func (f *fakeRunner) Exec(_ context.Context, cmd runtime.Command) (*runtime.ExecResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, cmd)
	if f.err != nil {
		return nil, f.err
	}
	return &runtime.ExecResult{ExitCode: f.exit[cmd.Name], Stderr: "grub-mkrescue: error: xorriso not found"}, nil
}

func TestInitrdCommand(t *testing.T) {
	cmd := InitrdCommand("/build/rootfs", "/build/dist/iso/boot/initrd")
	if cmd.Name != "sh" || cmd.Dir != "/build/rootfs" {
		t.Errorf("cmd = %+v", cmd)
	}
	want := []string{"-c", "find . | cpio -o -H newc > '/build/dist/iso/boot/initrd'"}
	if !slices.Equal(cmd.Args, want) {
		t.Errorf("Args = %q, want %q", cmd.Args, want)
	}
}

func TestISOCommand(t *testing.T) {
	cmd := ISOCommand("/build/dist", "os.iso")
	if cmd.Name != ISOTool || cmd.Dir != "/build/dist" {
		t.Errorf("cmd = %+v", cmd)
	}
	want := []string{"-o", "/build/dist/os.iso", "/build/dist/iso"}
	if !slices.Equal(cmd.Args, want) {
		t.Errorf("Args = %v, want %v", cmd.Args, want)
	}
}

func TestQuote(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/plain/path", "'/plain/path'"},
		{"/with space/x", "'/with space/x'"},
		{"/it's", `'/it'\''s'`},
	}
	for _, tt := range tests {
		if got := quote(tt.in); got != tt.want {
			t.Errorf("quote(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRunInitrdOnly(t *testing.T) {
	dist := filepath.Join(t.TempDir(), "dist")
	rt := &fakeRunner{}

	res, err := Run(context.Background(), rt, Options{Rootfs: t.TempDir(), Dist: dist, ISOName: "os.iso"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Initrd != InitrdPath(dist) || res.ISO != "" {
		t.Errorf("Result = %+v", res)
	}
	if info, err := os.Stat(filepath.Dir(res.Initrd)); err != nil || !info.IsDir() {
		t.Errorf("boot directory not created: %v", err)
	}
	if len(rt.calls) != 1 {
		t.Errorf("calls = %d, want 1", len(rt.calls))
	}
}

func TestRunWithISO(t *testing.T) {
	dist := filepath.Join(t.TempDir(), "dist")
	rt := &fakeRunner{}

	res, err := Run(context.Background(), rt, Options{Rootfs: t.TempDir(), Dist: dist, ISOName: "os.iso", ISO: true})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.ISO != filepath.Join(dist, "os.iso") {
		t.Errorf("ISO = %q", res.ISO)
	}
	if len(rt.calls) != 2 || rt.calls[0].Name != "sh" || rt.calls[1].Name != ISOTool {
		t.Errorf("calls = %+v, want sh then %s", rt.calls, ISOTool)
	}
}

func TestRunFailures(t *testing.T) {
	t.Run("initrd exit", func(t *testing.T) {
		rt := &fakeRunner{exit: map[string]int{"sh": 1}}
		_, err := Run(context.Background(), rt, Options{Rootfs: t.TempDir(), Dist: t.TempDir(), ISOName: "os.iso", ISO: true})
		if !errors.Is(err, ErrInitrd) {
			t.Fatalf("error = %v, want ErrInitrd", err)
		}
		if len(rt.calls) != 1 {
			t.Errorf("ISO step ran after initrd failure")
		}
	})

	t.Run("iso exit", func(t *testing.T) {
		rt := &fakeRunner{exit: map[string]int{ISOTool: 1}}
		_, err := Run(context.Background(), rt, Options{Rootfs: t.TempDir(), Dist: t.TempDir(), ISOName: "os.iso", ISO: true})
		if !errors.Is(err, ErrISO) {
			t.Fatalf("error = %v, want ErrISO", err)
		}
	})

	t.Run("start failure", func(t *testing.T) {
		rt := &fakeRunner{err: runtime.ErrProcess}
		_, err := Run(context.Background(), rt, Options{Rootfs: t.TempDir(), Dist: t.TempDir()})
		if !errors.Is(err, ErrInitrd) || !errors.Is(err, runtime.ErrProcess) {
			t.Fatalf("error = %v, want ErrInitrd and ErrProcess", err)
		}
	})
}
