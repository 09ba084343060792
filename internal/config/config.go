// Package config assembles the effective configuration of a service from
// defaults, an optional YAML file, the service's registry parameters and
// the environment, in that order of precedence.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/turtacn/verboten/pkg/consts"
	verrors "github.com/turtacn/verboten/pkg/errors"
	"github.com/turtacn/verboten/pkg/protocol"
)

// LoadOptions selects the configuration sources.
type LoadOptions struct {
	// Service is the service name; it selects the registry parameters.
	Service string
	// File is an optional YAML file.
	File string
	// SkipRegistry ignores the service's registry parameters.
	SkipRegistry bool
	// Overrides are applied last, keyed by dotted path (e.g. "observability.log_level").
	Overrides map[string]any
}

// Load reads the raw configuration. It does not validate; see Build.
func Load(opts LoadOptions) (*protocol.Config, error) {
	v := viper.New()
	setDefaults(v, opts.Service)

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, verrors.New(verrors.ErrCodeConfigMissing, "config.Load", "read "+opts.File, err)
		}
	}

	if !opts.SkipRegistry && opts.Service != "" {
		params, err := serviceParams(opts.Service)
		if err != nil {
			return nil, verrors.New(verrors.ErrCodeConfigInvalid, "config.Load", "read service parameters", err)
		}
		if len(params) > 0 {
			if err := v.MergeConfigMap(params); err != nil {
				return nil, verrors.New(verrors.ErrCodeConfigInvalid, "config.Load", "merge service parameters", err)
			}
		}
	}

	v.SetEnvPrefix(consts.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for k, val := range opts.Overrides {
		v.Set(k, val)
	}

	var cfg protocol.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, verrors.New(verrors.ErrCodeConfigInvalid, "config.Load", "decode", err)
	}
	if opts.Service != "" {
		cfg.Service.Name = opts.Service
	}
	return &cfg, nil
}

// Every key needs a default so AutomaticEnv can see it during Unmarshal.
func setDefaults(v *viper.Viper, service string) {
	v.SetDefault("service.name", service)
	v.SetDefault("service.display_name", consts.DefaultDisplayName)
	v.SetDefault("service.description", consts.DefaultDescription)

	v.SetDefault("child.exec", "")
	v.SetDefault("child.port", 0)
	v.SetDefault("child.timeout", "")
	v.SetDefault("child.flag_prefix", consts.DefaultFlagPrefix)
	v.SetDefault("child.workdir", "")
	v.SetDefault("child.stop_grace", "")
	v.SetDefault("child.output.dir", "")
	v.SetDefault("child.output.max_size_mb", 0)
	v.SetDefault("child.output.max_backups", 0)
	v.SetDefault("child.output.max_age_days", 0)
	v.SetDefault("child.output.compress", false)

	v.SetDefault("supervision.poll_tick", consts.DefaultPollTick.String())

	v.SetDefault("observability.log_level", consts.DefaultLogLevel)
	v.SetDefault("observability.log_format", "json")
	v.SetDefault("observability.log_file", "")
	v.SetDefault("observability.metrics_addr", "")
	v.SetDefault("observability.control_socket", DefaultControlSocket(service))
}

// DefaultControlSocket is where a console-mode instance of service listens
// for controls unless configured otherwise.
func DefaultControlSocket(service string) string {
	if service == "" {
		service = "default"
	}
	return filepath.Join(os.TempDir(), "verboten-"+service+".sock")
}

// Personal.AI order the ending
