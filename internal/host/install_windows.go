//go:build windows

package host

import (
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/eventlog"
	"golang.org/x/sys/windows/svc/mgr"

	"github.com/turtacn/verboten/internal/config"
	"github.com/turtacn/verboten/pkg/consts"
	verrors "github.com/turtacn/verboten/pkg/errors"
)

// Install registers name as an auto-start service running this executable
// with "run <name>", and stores its parameters in the registry.
func Install(name string, o InstallOptions) error {
	o = o.withDefaults()
	fail := func(msg string, err error) error {
		return verrors.New(verrors.ErrCodeServiceInstall, "host.Install", msg, err)
	}

	fmt.Fprintf(o.Out, "==> Installing as service %s using %s ..\n", name, o.Exec)
	prepareFirewall(o.Exec, o.Out)

	fmt.Fprintf(o.Out, "==> Registering event log source '%s' ..\n", name)
	if err := eventlog.InstallAsEventCreate(name, eventlog.Error|eventlog.Warning|eventlog.Info); err != nil {
		return fail("register event log source", err)
	}

	m, err := mgr.Connect()
	if err != nil {
		return fail("connect to service manager", err)
	}
	defer m.Disconnect()

	exe, err := os.Executable()
	if err != nil {
		return fail("locate executable", err)
	}
	fmt.Fprintf(o.Out, "==> Service exec path: %s\n", exe)

	s, err := m.CreateService(name, exe, mgr.Config{
		DisplayName:  o.DisplayName,
		Description:  o.Description,
		StartType:    mgr.StartAutomatic,
		Dependencies: []string{"Tcpip"},
	}, "run", name)
	if err != nil {
		return fail("create service", err)
	}
	defer s.Close()

	if err := config.WriteServiceParams(name, installParams(o)); err != nil {
		return fail("write service parameters", err)
	}
	fmt.Fprintln(o.Out, "==> Service installation successful")
	return nil
}

// Uninstall stops name if needed, deletes it and removes its event log source.
func Uninstall(name string, out io.Writer) error {
	fail := func(msg string, err error) error {
		return verrors.New(verrors.ErrCodeServiceUninstall, "host.Uninstall", msg, err)
	}
	if out == nil {
		out = io.Discard
	}

	m, err := mgr.Connect()
	if err != nil {
		return fail("connect to service manager", err)
	}
	defer m.Disconnect()

	s, err := m.OpenService(name)
	if err != nil {
		return fail("open service", err)
	}
	defer s.Close()

	for {
		st, err := s.Query()
		if err != nil {
			return fail("query service", err)
		}
		if st.State == svc.Stopped {
			break
		}
		if st.State != svc.StopPending {
			fmt.Fprintf(out, "==> Requesting service '%s' to stop ..\n", name)
			if _, err := s.Control(svc.Stop); err != nil {
				return fail("stop service", err)
			}
		}
		time.Sleep(consts.UninstallPollInterval)
	}

	fmt.Fprintf(out, "==> Removing service '%s' ..\n", name)
	if err := s.Delete(); err != nil {
		return fail("delete service", err)
	}

	fmt.Fprintf(out, "==> Deregistering event log source '%s' ..\n", name)
	if err := eventlog.Remove(name); err != nil {
		return fail("remove event log source", err)
	}

	fmt.Fprintln(out, "==> Service uninstallation successful")
	return nil
}

// Personal.AI order the ending
