package env

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/robotalks/stp.go/pkg/framework"
)

// Config provides common options of the STP commands.
type Config struct {
	// File is an optional TOML file overlaying the configuration.
	File string

	// Input is the capture to read, "-" for stdin.
	Input string
	// Raw indicates Input is an unframed byte stream.
	Raw bool
	// ChunkSize is the read size of unframed input.
	ChunkSize int
	// StartOutOfSync makes the decoder wait for ASYNC before decoding.
	StartOutOfSync bool

	// BrokerURL specifies the MQTT broker to publish to.
	// e.g. mqtt://host:port/topic-prefix
	BrokerURL string
	// Source identifies the trace source in topics and records.
	Source string
	// PublishTimeout is the time to wait for a single publish.
	PublishTimeout time.Duration
	// SkipNull drops NULL packets before publishing.
	SkipNull bool
	// DataOnly publishes data packets only.
	DataOnly bool

	// MetricsAddr is the listen address of the /metrics endpoint.
	MetricsAddr string
}

type fileConfig struct {
	Input          string `toml:"input"`
	Raw            bool   `toml:"raw"`
	ChunkSize      int    `toml:"chunk_size"`
	StartOutOfSync bool   `toml:"start_out_of_sync"`
	BrokerURL      string `toml:"broker_url"`
	Source         string `toml:"source"`
	PublishTimeout string `toml:"publish_timeout"`
	SkipNull       bool   `toml:"skip_null"`
	DataOnly       bool   `toml:"data_only"`
	MetricsAddr    string `toml:"metrics_addr"`
}

var defaultConfig = Config{
	Input:          "-",
	ChunkSize:      4096,
	BrokerURL:      "mqtt://localhost:1883/stp/",
	PublishTimeout: time.Second,
	SkipNull:       true,
	MetricsAddr:    ":9102",
}

func init() {
	if err := defaultConfig.LoadEnv(os.Getenv); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}

// LoadEnv overrides the config with STP_* environment variables.
// All invalid values are reported in the returned error.
func (c *Config) LoadEnv(getenv func(string) string) error {
	str := func(name string, v *string) {
		if val := getenv(name); val != "" {
			*v = val
		}
	}
	str("STP_CONFIG", &c.File)
	str("STP_INPUT", &c.Input)
	str("STP_BROKER_URL", &c.BrokerURL)
	str("STP_SOURCE", &c.Source)
	str("STP_METRICS_ADDR", &c.MetricsAddr)

	var errs framework.AggregatedError
	boolean := func(name string, v *bool) {
		if val := getenv(name); val != "" {
			b, err := strconv.ParseBool(val)
			if err != nil {
				errs.Add(fmt.Errorf("invalid %s: %w", name, err))
				return
			}
			*v = b
		}
	}
	boolean("STP_RAW", &c.Raw)
	boolean("STP_START_OUT_OF_SYNC", &c.StartOutOfSync)
	boolean("STP_SKIP_NULL", &c.SkipNull)
	boolean("STP_DATA_ONLY", &c.DataOnly)
	if val := getenv("STP_CHUNK_SIZE"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			errs.Add(fmt.Errorf("invalid STP_CHUNK_SIZE: %w", err))
		} else {
			c.ChunkSize = n
		}
	}
	if val := getenv("STP_PUBLISH_TIMEOUT"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			errs.Add(fmt.Errorf("invalid STP_PUBLISH_TIMEOUT: %w", err))
		} else {
			c.PublishTimeout = d
		}
	}
	return errs.Aggregate()
}

// LoadFile overlays the config with keys defined in a TOML file.
// Keys listed in skip are left untouched.
func (c *Config) LoadFile(path string, skip ...string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}
	skipped := make(map[string]bool, len(skip))
	for _, key := range skip {
		skipped[key] = true
	}
	defined := func(key string) bool {
		return !skipped[key] && meta.IsDefined(key)
	}
	if defined("input") {
		c.Input = raw.Input
	}
	if defined("raw") {
		c.Raw = raw.Raw
	}
	if defined("chunk_size") {
		c.ChunkSize = raw.ChunkSize
	}
	if defined("start_out_of_sync") {
		c.StartOutOfSync = raw.StartOutOfSync
	}
	if defined("broker_url") {
		c.BrokerURL = raw.BrokerURL
	}
	if defined("source") {
		c.Source = raw.Source
	}
	if defined("publish_timeout") {
		d, err := time.ParseDuration(raw.PublishTimeout)
		if err != nil {
			return fmt.Errorf("load config %s: invalid publish_timeout: %w", path, err)
		}
		c.PublishTimeout = d
	}
	if defined("skip_null") {
		c.SkipNull = raw.SkipNull
	}
	if defined("data_only") {
		c.DataOnly = raw.DataOnly
	}
	if defined("metrics_addr") {
		c.MetricsAddr = raw.MetricsAddr
	}
	return nil
}

// flagKeys maps command line flags to config file keys.
var flagKeys = map[string]string{
	"input":             "input",
	"raw":               "raw",
	"chunk-size":        "chunk_size",
	"start-out-of-sync": "start_out_of_sync",
	"mqtt":              "broker_url",
	"source":            "source",
	"publish-timeout":   "publish_timeout",
	"skip-null":         "skip_null",
	"data-only":         "data_only",
	"metrics-addr":      "metrics_addr",
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.File, "config", defaultConfig.File, "TOML config file.")
	flag.StringVar(&defaultConfig.Input, "input", defaultConfig.Input, "Capture file, - for stdin.")
	flag.BoolVar(&defaultConfig.Raw, "raw", defaultConfig.Raw, "Input is raw STP bytes without framing.")
	flag.IntVar(&defaultConfig.ChunkSize, "chunk-size", defaultConfig.ChunkSize, "Read size of raw input.")
	flag.BoolVar(&defaultConfig.StartOutOfSync, "start-out-of-sync", defaultConfig.StartOutOfSync, "Wait for ASYNC before decoding.")
	flag.StringVar(&defaultConfig.BrokerURL, "mqtt", defaultConfig.BrokerURL, "MQTT broker URL.")
	flag.StringVar(&defaultConfig.Source, "source", defaultConfig.Source, "Trace source name, defaults to machine ID.")
	flag.DurationVar(&defaultConfig.PublishTimeout, "publish-timeout", defaultConfig.PublishTimeout, "Timeout of a single publish.")
	flag.BoolVar(&defaultConfig.SkipNull, "skip-null", defaultConfig.SkipNull, "Do not publish NULL packets.")
	flag.BoolVar(&defaultConfig.DataOnly, "data-only", defaultConfig.DataOnly, "Publish data packets only.")
	flag.StringVar(&defaultConfig.MetricsAddr, "metrics-addr", defaultConfig.MetricsAddr, "Listen address of /metrics, empty to disable.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
// Source defaults to the machine ID.
func NewConfig() *Config {
	conf := defaultConfig
	if conf.Source == "" {
		conf.Source = MachineID()
	}
	return &conf
}

// Load creates a config with defaults overlaid by the config file.
// Flags given on the command line take precedence over the file.
func Load() (*Config, error) {
	conf := NewConfig()
	if conf.File == "" {
		return conf, nil
	}
	var skip []string
	flag.Visit(func(f *flag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			skip = append(skip, key)
		}
	})
	if err := conf.LoadFile(conf.File, skip...); err != nil {
		return nil, err
	}
	return conf, nil
}
