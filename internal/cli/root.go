package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/verboten/internal/config"
	"github.com/turtacn/verboten/internal/control"
	"github.com/turtacn/verboten/internal/host"
	"github.com/turtacn/verboten/internal/lifecycle"
	"github.com/turtacn/verboten/pkg/logger"
	"github.com/turtacn/verboten/pkg/protocol"
)

// Version is set at build time.
var Version = "dev"

const controlTimeout = 5 * time.Second

type rootFlags struct {
	cfgFile  string
	logLevel string
}

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	f := &rootFlags{}
	root := &cobra.Command{
		Use:           "verboten",
		Short:         "Verboten: runs msvsmon as a service, wide open",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&f.cfgFile, "config", "c", "", "config file path (YAML)")
	root.PersistentFlags().StringVarP(&f.logLevel, "log-level", "L", "", "log level: off, error, warn, info, debug, trace")

	root.AddCommand(
		newRunCmd(f),
		newInstallCmd(f),
		newUninstallCmd(),
		newConfigCmd(f),
		newArgsCmd(f),
		newControlCmd(f),
		newVersionCmd(),
	)
	return root
}

func (f *rootFlags) load(cmd *cobra.Command, service string) (*protocol.Config, error) {
	opts := config.LoadOptions{Service: service, File: f.cfgFile}
	if cmd.Flags().Changed("log-level") {
		opts.Overrides = map[string]any{"observability.log_level": f.logLevel}
	}
	return config.Load(opts)
}

func (f *rootFlags) settings(cmd *cobra.Command, service string) (*config.Settings, error) {
	cfg, err := f.load(cmd, service)
	if err != nil {
		return nil, err
	}
	return config.Build(cfg)
}

func newRunCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run NAME",
		Short: "Run the service (under the service manager or in the foreground)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			s, err := f.settings(cmd, name)
			if err != nil {
				return err
			}

			if s.Log.Writer == nil {
				s.Log.Writer = cmd.OutOrStdout()
			}
			log, closer, err := logger.New(s.Log)
			if err != nil {
				return err
			}
			defer closer.Close()
			log = log.With("service", name)

			opts := host.Options{Settings: s, Log: log}
			isService, err := host.IsService()
			if err != nil {
				return err
			}
			if isService {
				log.Info("Booting Verboten under the service manager", "version", Version)
				return host.RunService(name, opts)
			}
			log.Info("Booting Verboten in console mode", "version", Version, "command", s.Child.CommandLine())
			return host.RunConsole(cmd.Context(), opts)
		},
	}
}

func newInstallCmd(f *rootFlags) *cobra.Command {
	var exe string
	cmd := &cobra.Command{
		Use:   "install NAME",
		Short: "Register NAME as a service supervising msvsmon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !config.IsAbsPath(exe) {
				return fmt.Errorf("--exec must be an absolute path, got %q", exe)
			}
			if f.logLevel != "" {
				if _, err := logger.ParseLevel(f.logLevel); err != nil {
					return err
				}
			}
			return host.Install(args[0], host.InstallOptions{
				Exec:     exe,
				LogLevel: f.logLevel,
				Out:      cmd.OutOrStdout(),
			})
		},
	}
	cmd.Flags().StringVar(&exe, "exec", "", "absolute path of msvsmon.exe")
	_ = cmd.MarkFlagRequired("exec")
	return cmd
}

func newUninstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall NAME",
		Short: "Stop and remove service NAME",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return host.Uninstall(args[0], cmd.OutOrStdout())
		},
	}
}

func newConfigCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "config NAME",
		Short: "Print the effective configuration of NAME",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.load(cmd, args[0])
			if err != nil {
				return err
			}
			out, err := config.Marshal(cfg)
			if err != nil {
				return err
			}
			if _, err := cmd.OutOrStdout().Write(out); err != nil {
				return err
			}
			_, err = config.Build(cfg)
			return err
		},
	}
}

func newArgsCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "args NAME",
		Short: "Print the command line NAME would spawn",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := f.settings(cmd, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s.Child.CommandLine())
			return nil
		},
	}
}

func newControlCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "control NAME CODE",
		Short: "Send a control (stop, pause, continue, interrogate, shutdown) to a console-mode instance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := lifecycle.ParseControl(args[1])
			if err != nil {
				return err
			}
			cfg, err := f.load(cmd, args[0])
			if err != nil {
				return err
			}
			if cfg.Observability.ControlSocket == "" {
				return fmt.Errorf("no control socket configured for %s", args[0])
			}
			ack, err := control.Send(cfg.Observability.ControlSocket, c, controlTimeout)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ack.String())
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "verboten "+Version)
		},
	}
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// Personal.AI order the ending
