package host

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"

	"github.com/turtacn/verboten/pkg/consts"
)

// InstallOptions describes a service to register.
type InstallOptions struct {
	Exec        string // absolute path of the supervised executable
	LogLevel    string
	DisplayName string
	Description string
	Out         io.Writer // progress messages
}

func (o InstallOptions) withDefaults() InstallOptions {
	if o.LogLevel == "" {
		o.LogLevel = consts.DefaultLogLevel
	}
	if o.DisplayName == "" {
		o.DisplayName = consts.DefaultDisplayName
	}
	if o.Description == "" {
		o.Description = consts.DefaultDescription
	}
	if o.Out == nil {
		o.Out = io.Discard
	}
	return o
}

// installParams are the service parameters written at install time.
// Installed services run msvsmon, which only understands "/" flags.
func installParams(o InstallOptions) map[string]string {
	return map[string]string{
		"Exec":       o.Exec,
		"Port":       strconv.Itoa(consts.DefaultInstallPort),
		"Timeout":    consts.DefaultInstallTimeout,
		"FlagPrefix": consts.MsvsmonFlagPrefix,
		"LogLevel":   o.LogLevel,
	}
}

// prepareFirewall asks the debugger monitor to open the firewall for itself.
// Failure is reported but does not stop the installation.
func prepareFirewall(exe string, out io.Writer) bool {
	fmt.Fprintln(out, "==> Opening up firewall ..")
	args := []string{"/prepcomputer", "/quiet"}

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(exe, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintf(out, "Unable to run: %s %v: %v\n", exe, args, err)
			return false
		}
		fmt.Fprintf(out, "%s %v returned failure\n", exe, args)
		dumpLines(out, "[stdout] ", &stdout)
		dumpLines(out, "[stderr] ", &stderr)
		return false
	}
	return true
}

func dumpLines(out io.Writer, prefix string, r io.Reader) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fmt.Fprintln(out, prefix+sc.Text())
	}
}

// Personal.AI order the ending
