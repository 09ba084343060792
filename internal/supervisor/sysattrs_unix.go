//go:build unix

package supervisor

import (
	"os"
	"os/exec"
	"syscall"
)

// stopSignal asks the child to exit before it is killed.
var stopSignal os.Signal = syscall.SIGTERM

// configureSysProcAttr puts the child in its own process group so a Ctrl+C
// on the console reaches the supervisor only.
func configureSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// Personal.AI order the ending
