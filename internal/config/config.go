// Package config loads daemon settings from defaults, an optional YAML file,
// and command-line flags, in that order of precedence (flags win).
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultEnvFile is where pi-helper writes network state.
const DefaultEnvFile = "/run/pi-helper.env"

// Duration is a time.Duration that reads "250ms"-style strings from YAML.
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	d.Duration = v
	return nil
}

// MarshalYAML writes the duration as a string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// Config holds all daemon settings.
type Config struct {
	Chip      string   `yaml:"chip"`
	Pin       int      `yaml:"pin"`
	ActiveLow bool     `yaml:"active_low"`
	Window    Duration `yaml:"window"`
	Poll      Duration `yaml:"poll"`
	Heartbeat Duration `yaml:"heartbeat"`

	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
	BufferSize  int    `yaml:"buffer_size"`

	HTTPAddr string `yaml:"http"`
	EnvFile  string `yaml:"env_file"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Chip:        "gpiochip0",
		Pin:         17,
		Window:      Duration{10 * time.Second},
		Poll:        Duration{100 * time.Millisecond},
		Heartbeat:   Duration{15 * time.Minute},
		Broker:      "tcp://192.168.1.200:1883",
		ClientID:    "dutycycle-sensor",
		TopicPrefix: "sensors/dutycycle",
		BufferSize:  100,
		HTTPAddr:    ":80",
		EnvFile:     DefaultEnvFile,
	}
}

// Load reads a YAML file over the given config. Keys missing from the file
// keep their current values; unknown keys are an error.
func Load(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.Chip == "":
		return errors.New("chip must not be empty")
	case c.Pin < 0:
		return fmt.Errorf("pin must not be negative, got %d", c.Pin)
	case c.Window.Duration <= 0:
		return fmt.Errorf("window must be positive, got %v", c.Window.Duration)
	case c.Poll.Duration <= 0:
		return fmt.Errorf("poll must be positive, got %v", c.Poll.Duration)
	case c.Heartbeat.Duration < 0:
		return fmt.Errorf("heartbeat must not be negative, got %v", c.Heartbeat.Duration)
	case c.BufferSize < 0:
		return fmt.Errorf("buffer size must not be negative, got %d", c.BufferSize)
	}
	return nil
}

// Flags are command-line switches that are not settings.
type Flags struct {
	ConfigPath string
	PrintState bool
}

// Parse builds a Config from defaults, the file named by -config, and args.
func Parse(fs *flag.FlagSet, args []string) (Config, Flags, error) {
	cfg := Default()
	var fl Flags

	fs.StringVar(&fl.ConfigPath, "config", "", "YAML config file")
	fs.BoolVar(&fl.PrintState, "print-state", false, "Print current line level and exit")
	fs.StringVar(&cfg.Chip, "chip", cfg.Chip, "GPIO chip name")
	fs.IntVar(&cfg.Pin, "pin", cfg.Pin, "GPIO line offset (BCM numbering on a Pi)")
	fs.BoolVar(&cfg.ActiveLow, "active-low", cfg.ActiveLow, "Treat the line as active-low")
	fs.DurationVar(&cfg.Window.Duration, "window", cfg.Window.Duration, "Measurement window")
	fs.DurationVar(&cfg.Poll.Duration, "poll", cfg.Poll.Duration, "Edge drain interval")
	fs.DurationVar(&cfg.Heartbeat.Duration, "heartbeat", cfg.Heartbeat.Duration, "Heartbeat interval (0 to disable)")
	fs.StringVar(&cfg.Broker, "broker", cfg.Broker, "MQTT broker address")
	fs.StringVar(&cfg.ClientID, "client-id", cfg.ClientID, "MQTT client id")
	fs.StringVar(&cfg.TopicPrefix, "topic-prefix", cfg.TopicPrefix, "MQTT topic prefix")
	fs.IntVar(&cfg.BufferSize, "buffer", cfg.BufferSize, "Messages buffered while MQTT is disconnected")
	fs.StringVar(&cfg.HTTPAddr, "http", cfg.HTTPAddr, "HTTP status address (empty to disable)")
	fs.StringVar(&cfg.EnvFile, "env-file", cfg.EnvFile, "pi-helper network env file")

	if err := fs.Parse(args); err != nil {
		return cfg, fl, err
	}

	if fl.ConfigPath != "" {
		if err := Load(fl.ConfigPath, &cfg); err != nil {
			return cfg, fl, err
		}
		// Parse again so flags given on the command line win over the file.
		if err := fs.Parse(args); err != nil {
			return cfg, fl, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fl, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, fl, nil
}
