//go:build !unix

package loader

import "os/exec"

func configureProcessGroup(cmd *exec.Cmd) {}
