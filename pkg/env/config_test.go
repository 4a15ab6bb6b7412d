package env

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadEnv(t *testing.T) {
	vars := map[string]string{
		"STP_INPUT":           "trace.cap",
		"STP_RAW":             "true",
		"STP_CHUNK_SIZE":      "512",
		"STP_BROKER_URL":      "mqtt://broker:1883/trace/",
		"STP_SOURCE":          "board-1",
		"STP_PUBLISH_TIMEOUT": "3s",
		"STP_SKIP_NULL":       "false",
	}
	conf := Config{SkipNull: true}
	require.NoError(t, conf.LoadEnv(func(name string) string { return vars[name] }))
	require.Equal(t, Config{
		Input:          "trace.cap",
		Raw:            true,
		ChunkSize:      512,
		BrokerURL:      "mqtt://broker:1883/trace/",
		Source:         "board-1",
		PublishTimeout: 3 * time.Second,
	}, conf)
}

func TestLoadEnvInvalid(t *testing.T) {
	testCases := []struct {
		name, val string
	}{
		{"STP_RAW", "maybe"},
		{"STP_CHUNK_SIZE", "big"},
		{"STP_PUBLISH_TIMEOUT", "soon"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var conf Config
			err := conf.LoadEnv(func(name string) string {
				if name == tc.name {
					return tc.val
				}
				return ""
			})
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.name)
		})
	}
}

func TestLoadEnvReportsAllErrors(t *testing.T) {
	vars := map[string]string{
		"STP_RAW":        "maybe",
		"STP_CHUNK_SIZE": "big",
		"STP_INPUT":      "trace.cap",
	}
	var conf Config
	err := conf.LoadEnv(func(name string) string { return vars[name] })
	require.Error(t, err)
	require.Contains(t, err.Error(), "STP_RAW")
	require.Contains(t, err.Error(), "STP_CHUNK_SIZE")
	require.Equal(t, "trace.cap", conf.Input)
}

func TestNewConfigSource(t *testing.T) {
	saved := defaultConfig.Source
	defer func() { defaultConfig.Source = saved }()

	defaultConfig.Source = ""
	conf := NewConfig()
	require.NotEmpty(t, conf.Source)
	require.Empty(t, Default().Source)

	defaultConfig.Source = "board-1"
	require.Equal(t, "board-1", NewConfig().Source)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stp.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
input = "capture.bin"
raw = true
broker_url = "mqtt://broker:1883/"
publish_timeout = "250ms"
skip_null = false
`), 0644))

	conf := Config{Input: "-", BrokerURL: "mqtt://localhost:1883/", SkipNull: true, MetricsAddr: ":9102"}
	require.NoError(t, conf.LoadFile(path, "broker_url"))
	require.Equal(t, Config{
		Input:          "capture.bin",
		Raw:            true,
		BrokerURL:      "mqtt://localhost:1883/",
		PublishTimeout: 250 * time.Millisecond,
		MetricsAddr:    ":9102",
	}, conf)
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()
	var conf Config
	require.Error(t, conf.LoadFile(filepath.Join(dir, "missing.toml")))

	path := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte(`publish_timeout = "later"`), 0644))
	require.Error(t, conf.LoadFile(path))
}

func TestNewSession(t *testing.T) {
	s1, s2 := NewSession(), NewSession()
	require.Len(t, s1, 36)
	require.NotEqual(t, s1, s2)
}
