//go:build windows

package supervisor

import (
	"os"
	"os/exec"
	"syscall"
)

// Windows has no portable way to ask a GUI-less child to exit; Terminate
// goes straight to TerminateProcess.
var stopSignal os.Signal

// configureSysProcAttr starts the child in a new process group so console
// control events sent to the supervisor are not forwarded to it.
func configureSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP}
}

// Personal.AI order the ending
