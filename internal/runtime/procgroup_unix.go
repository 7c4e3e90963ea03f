//go:build unix

package runtime

import (
	"os/exec"
	"syscall"
)

// Starts the process as the leader of a new process group and kills the
// group on cancellation.
func setProcessGroup(c *exec.Cmd) {
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		return syscall.Kill(-c.Process.Pid, syscall.SIGKILL)
	}
}
