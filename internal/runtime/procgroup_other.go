//go:build !unix

package runtime

import "os/exec"

// Process groups are not available; cancellation kills the direct child only.
func setProcessGroup(c *exec.Cmd) {}
