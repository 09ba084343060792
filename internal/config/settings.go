package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/turtacn/verboten/internal/supervisor"
	verrors "github.com/turtacn/verboten/pkg/errors"
	"github.com/turtacn/verboten/pkg/logger"
	"github.com/turtacn/verboten/pkg/protocol"
)

// Settings is a validated configuration with typed values.
type Settings struct {
	Service       protocol.ServiceConfig
	Child         supervisor.Config
	Tick          time.Duration
	Log           logger.Options
	MetricsAddr   string
	ControlSocket string
}

// Build validates cfg. All problems are reported at once in a single error,
// coded ErrCodeConfigMissing when the executable is not configured and
// ErrCodeConfigInvalid otherwise.
func Build(cfg *protocol.Config) (*Settings, error) {
	var (
		problems []string
		code     = verrors.ErrCodeConfigInvalid
	)
	bad := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	s := &Settings{
		Service:       cfg.Service,
		MetricsAddr:   cfg.Observability.MetricsAddr,
		ControlSocket: cfg.Observability.ControlSocket,
	}

	c := cfg.Child
	switch {
	case c.Exec == "":
		code = verrors.ErrCodeConfigMissing
		bad("child.exec is required")
	case !IsAbsPath(c.Exec):
		bad("child.exec must be an absolute path, got %q", c.Exec)
	}
	s.Child.Executable = c.Exec

	if c.Port < 0 || c.Port > 65535 {
		bad("child.port must be within 1-65535 (0 for none), got %d", c.Port)
	} else {
		s.Child.Port = uint16(c.Port)
	}

	if c.Timeout != "" {
		d, err := ParseDuration(c.Timeout)
		switch {
		case err != nil:
			bad("child.timeout: %v", err)
		case d < time.Second:
			bad("child.timeout must be at least 1s, got %s", c.Timeout)
		default:
			s.Child.Timeout = d
		}
	}

	switch c.FlagPrefix {
	case "/", "-", "--":
		s.Child.FlagPrefix = c.FlagPrefix
	default:
		bad("child.flag_prefix must be one of \"/\", \"-\" or \"--\", got %q", c.FlagPrefix)
	}

	s.Child.WorkDir = c.WorkDir
	if c.StopGrace != "" {
		d, err := ParseDuration(c.StopGrace)
		if err != nil || d < 0 {
			bad("child.stop_grace: invalid duration %q", c.StopGrace)
		} else {
			s.Child.StopGrace = d
		}
	}
	s.Child.Output = supervisor.OutputConfig{
		Dir:        c.Output.Dir,
		MaxSizeMB:  c.Output.MaxSizeMB,
		MaxBackups: c.Output.MaxBackups,
		MaxAgeDays: c.Output.MaxAgeDays,
		Compress:   c.Output.Compress,
	}

	tick, err := ParseDuration(cfg.Supervision.PollTick)
	if err != nil || tick <= 0 {
		bad("supervision.poll_tick must be a positive duration, got %q", cfg.Supervision.PollTick)
	}
	s.Tick = tick

	o := cfg.Observability
	if _, err := logger.ParseLevel(o.LogLevel); err != nil {
		bad("observability.log_level: %v", err)
	}
	switch o.LogFormat {
	case "", "json", "text":
	default:
		bad("observability.log_format must be \"json\" or \"text\", got %q", o.LogFormat)
	}
	s.Log = logger.Options{Level: o.LogLevel, Format: o.LogFormat, File: o.LogFile}

	if len(problems) > 0 {
		return nil, verrors.New(code, "config.Build", strings.Join(problems, "; "), nil)
	}
	return s, nil
}

// IsAbsPath reports whether p is absolute on this platform or is an
// absolute Windows path (drive letter or UNC).
func IsAbsPath(p string) bool {
	if filepath.IsAbs(p) || strings.HasPrefix(p, `\\`) {
		return true
	}
	return len(p) >= 3 && p[1] == ':' && (p[2] == '\\' || p[2] == '/') &&
		(('a' <= p[0] && p[0] <= 'z') || ('A' <= p[0] && p[0] <= 'Z'))
}

var units = map[string]time.Duration{
	"ns": time.Nanosecond,
	"us": time.Microsecond, "µs": time.Microsecond,
	"ms": time.Millisecond, "msec": time.Millisecond,
	"s": time.Second, "sec": time.Second, "secs": time.Second, "second": time.Second, "seconds": time.Second,
	"m": time.Minute, "min": time.Minute, "mins": time.Minute, "minute": time.Minute, "minutes": time.Minute,
	"h": time.Hour, "hr": time.Hour, "hrs": time.Hour, "hour": time.Hour, "hours": time.Hour,
	"d": 24 * time.Hour, "day": 24 * time.Hour, "days": 24 * time.Hour,
	"w": 7 * 24 * time.Hour, "week": 7 * 24 * time.Hour, "weeks": 7 * 24 * time.Hour,
}

// ParseDuration accepts Go durations plus day and week units and the long
// unit names service parameters are usually written with, e.g. "1d",
// "1days", "2h 30min". Components may be separated by spaces.
func ParseDuration(s string) (time.Duration, error) {
	in := strings.TrimSpace(s)
	if d, err := time.ParseDuration(in); err == nil {
		return d, nil
	}
	if in == "" {
		return 0, fmt.Errorf("empty duration")
	}

	var total time.Duration
	rest := in
	for rest != "" {
		rest = strings.TrimLeft(rest, " ")
		i := 0
		for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
			i++
		}
		if i == 0 {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		n, err := strconv.ParseInt(rest[:i], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		rest = strings.TrimLeft(rest[i:], " ")

		j := 0
		for j < len(rest) && (rest[j] < '0' || rest[j] > '9') && rest[j] != ' ' {
			j++
		}
		unit, ok := units[strings.ToLower(rest[:j])]
		if !ok {
			return 0, fmt.Errorf("invalid duration %q: unknown unit %q", s, rest[:j])
		}
		total += time.Duration(n) * unit
		rest = rest[j:]
	}
	return total, nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg *protocol.Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// Personal.AI order the ending
