//go:build unix

package runner

import (
	"os/exec"
	"syscall"
)

// detach puts the interpreter in its own process group so terminal signals
// reach it only through Interrupt.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
