package protocol

// Config represents the root configuration of a verboten service.
// Durations are kept as strings and parsed during validation.
type Config struct {
	Service       ServiceConfig       `yaml:"service" mapstructure:"service"`
	Child         ChildConfig         `yaml:"child" mapstructure:"child"`
	Supervision   SupervisionConfig   `yaml:"supervision" mapstructure:"supervision"`
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
}

type ServiceConfig struct {
	Name        string `yaml:"name" mapstructure:"name"`
	DisplayName string `yaml:"display_name" mapstructure:"display_name"`
	Description string `yaml:"description" mapstructure:"description"`
}

type ChildConfig struct {
	Exec       string       `yaml:"exec" mapstructure:"exec"`               // Absolute path of the supervised executable
	Port       int          `yaml:"port" mapstructure:"port"`               // 0 = no port flag
	Timeout    string       `yaml:"timeout" mapstructure:"timeout"`         // Forwarded to the child, e.g. "1d", "90m"
	FlagPrefix string       `yaml:"flag_prefix" mapstructure:"flag_prefix"` // "--" (default), or "/" for msvsmon
	WorkDir    string       `yaml:"workdir" mapstructure:"workdir"`
	StopGrace  string       `yaml:"stop_grace" mapstructure:"stop_grace"`
	Output     OutputConfig `yaml:"output" mapstructure:"output"`
}

// OutputConfig controls capture of the child's stdout/stderr.
type OutputConfig struct {
	Dir        string `yaml:"dir" mapstructure:"dir"`
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
}

type SupervisionConfig struct {
	PollTick string `yaml:"poll_tick" mapstructure:"poll_tick"`
}

type ObservabilityConfig struct {
	LogLevel      string `yaml:"log_level" mapstructure:"log_level"`
	LogFormat     string `yaml:"log_format" mapstructure:"log_format"`
	LogFile       string `yaml:"log_file" mapstructure:"log_file"`
	MetricsAddr   string `yaml:"metrics_addr" mapstructure:"metrics_addr"`
	ControlSocket string `yaml:"control_socket" mapstructure:"control_socket"`
}

// Personal.AI order the ending
