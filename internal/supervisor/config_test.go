package supervisor

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Args(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want []string
	}{
		{
			name: "no port no timeout",
			cfg:  Config{},
			want: []string{"--noauth", "--anyuser", "--nosecuritywarn", "--silent"},
		},
		{
			name: "port only",
			cfg:  Config{Port: 4024},
			want: []string{"--port", "4024", "--noauth", "--anyuser", "--nosecuritywarn", "--silent"},
		},
		{
			name: "port and timeout in seconds",
			cfg:  Config{Port: 4024, Timeout: 24 * time.Hour},
			want: []string{"--port", "4024", "--timeout", "86400", "--noauth", "--anyuser", "--nosecuritywarn", "--silent"},
		},
		{
			name: "timeout truncates to whole seconds",
			cfg:  Config{Timeout: 90500 * time.Millisecond},
			want: []string{"--timeout", "90", "--noauth", "--anyuser", "--nosecuritywarn", "--silent"},
		},
		{
			name: "msvsmon prefix",
			cfg:  Config{Port: 4024, Timeout: 30 * time.Second, FlagPrefix: "/"},
			want: []string{"/port", "4024", "/timeout", "30", "/noauth", "/anyuser", "/nosecuritywarn", "/silent"},
		},
		{
			name: "single dash prefix",
			cfg:  Config{Port: 1, FlagPrefix: "-"},
			want: []string{"-port", "1", "-noauth", "-anyuser", "-nosecuritywarn", "-silent"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.cfg.Args())
		})
	}
}

func TestConfig_CommandLine(t *testing.T) {
	cfg := Config{Executable: `C:\Program Files\msvsmon.exe`, Port: 4024, FlagPrefix: "/"}
	assert.Equal(t, `"C:\Program Files\msvsmon.exe" /port 4024 /noauth /anyuser /nosecuritywarn /silent`, cfg.CommandLine())

	cfg = Config{Executable: "/usr/bin/msvsmon"}
	assert.Equal(t, "/usr/bin/msvsmon --noauth --anyuser --nosecuritywarn --silent", cfg.CommandLine())
}

func TestOutputConfig_Writers(t *testing.T) {
	out, errw := OutputConfig{}.Writers("msvsmon")
	assert.Nil(t, out)
	assert.Nil(t, errw)

	dir := t.TempDir()
	out, errw = OutputConfig{Dir: dir}.Writers("msvsmon")
	require.NotNil(t, out)
	require.NotNil(t, errw)

	_, err := out.Write([]byte("listening\n"))
	require.NoError(t, err)
	require.NoError(t, out.Close())
	require.NoError(t, errw.Close())

	data, err := os.ReadFile(filepath.Join(dir, "msvsmon.stdout.log"))
	require.NoError(t, err)
	assert.Equal(t, "listening\n", string(data))
}
