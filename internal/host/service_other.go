//go:build !windows

package host

import (
	"io"

	verrors "github.com/turtacn/verboten/pkg/errors"
)

// IsService reports whether the process was started by a service manager.
func IsService() (bool, error) {
	return false, nil
}

func RunService(name string, opts Options) error {
	return verrors.New(verrors.ErrCodeUnsupported, "host.RunService", "service mode requires Windows", nil)
}

func Install(name string, o InstallOptions) error {
	return verrors.New(verrors.ErrCodeUnsupported, "host.Install", "service installation requires Windows", nil)
}

func Uninstall(name string, out io.Writer) error {
	return verrors.New(verrors.ErrCodeUnsupported, "host.Uninstall", "service removal requires Windows", nil)
}

// Personal.AI order the ending
