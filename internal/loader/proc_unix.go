//go:build unix

package loader

import (
	"os/exec"
	"syscall"
)

// configureProcessGroup starts cmd in a new process group and makes context
// cancellation kill the whole group, including browsers spawned by the tool.
func configureProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
