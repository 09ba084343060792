package supervisor

import (
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	lj "gopkg.in/natefinch/lumberjack.v2"

	"github.com/turtacn/verboten/pkg/consts"
)

// Config describes the child to supervise. It is validated by the caller
// and must not change while a worker runs.
type Config struct {
	Executable string        // absolute path
	Port       uint16        // 0 = let the child pick
	Timeout    time.Duration // 0 = child default; forwarded in whole seconds
	FlagPrefix string        // defaults to consts.DefaultFlagPrefix
	WorkDir    string
	StopGrace  time.Duration // 0 = kill right away
	Output     OutputConfig
}

// Args builds the child's argument list:
// [port P] [timeout T] noauth anyuser nosecuritywarn silent.
func (c Config) Args() []string {
	p := c.FlagPrefix
	if p == "" {
		p = consts.DefaultFlagPrefix
	}

	args := make([]string, 0, 8)
	if c.Port != 0 {
		args = append(args, p+"port", strconv.Itoa(int(c.Port)))
	}
	if c.Timeout > 0 {
		args = append(args, p+"timeout", strconv.FormatInt(int64(c.Timeout/time.Second), 10))
	}

	// No authentication, any user may connect, no security warning.
	args = append(args, p+"noauth", p+"anyuser", p+"nosecuritywarn")
	// Background process.
	args = append(args, p+"silent")
	return args
}

// CommandLine renders the full command for display.
func (c Config) CommandLine() string {
	parts := append([]string{quote(c.Executable)}, c.Args()...)
	return strings.Join(parts, " ")
}

func quote(s string) string {
	if strings.ContainsAny(s, " \t") {
		return `"` + s + `"`
	}
	return s
}

// OutputConfig describes where the child's stdout/stderr go.
// With an empty Dir the output is discarded.
// Rotation parameters follow lumberjack semantics.
type OutputConfig struct {
	Dir        string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Default rotation settings for child output.
const (
	DefaultMaxSizeMB  = 10
	DefaultMaxBackups = 3
	DefaultMaxAgeDays = 7
)

// Writers returns rotating writers for Dir/<name>.stdout.log and
// Dir/<name>.stderr.log, or nils when capture is disabled.
func (c OutputConfig) Writers(name string) (io.WriteCloser, io.WriteCloser) {
	if c.Dir == "" {
		return nil, nil
	}
	return c.rotating(name + ".stdout.log"), c.rotating(name + ".stderr.log")
}

func (c OutputConfig) rotating(file string) *lj.Logger {
	return &lj.Logger{
		Filename:   filepath.Join(c.Dir, file),
		MaxSize:    valOr(c.MaxSizeMB, DefaultMaxSizeMB),
		MaxBackups: valOr(c.MaxBackups, DefaultMaxBackups),
		MaxAge:     valOr(c.MaxAgeDays, DefaultMaxAgeDays),
		Compress:   c.Compress,
	}
}

func valOr(v int, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// Personal.AI order the ending
