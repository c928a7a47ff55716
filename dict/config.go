package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/koostia/DICT-Client/dictprotocol"
	"gopkg.in/yaml.v2"
)

const (
	// defaultHost is the public DICT server used when nothing else is set.
	defaultHost = "dict.org"

	// defaultTimeout bounds each request unless configured otherwise.
	defaultTimeout = 30 * time.Second

	// historySize is the default number of REPL history entries kept.
	historySize = 500
)

// Config holds the CLI configuration.
type Config struct {
	Server  ServerConfig  `toml:"server" yaml:"server"`
	Lookup  LookupConfig  `toml:"lookup" yaml:"lookup"`
	Log     LogConfig     `toml:"log" yaml:"log"`
	History HistoryConfig `toml:"history" yaml:"history"`
}

// ServerConfig selects the DICT server.
type ServerConfig struct {
	Host    string   `toml:"host" yaml:"host"`
	Port    int      `toml:"port" yaml:"port"`
	Timeout Duration `toml:"timeout" yaml:"timeout"` // Per-request timeout, 0 disables
}

// LookupConfig holds lookup defaults.
type LookupConfig struct {
	Database string `toml:"database" yaml:"database"` // "*" all, "!" first match
	Strategy string `toml:"strategy" yaml:"strategy"` // "." server default
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `toml:"level" yaml:"level"` // trace, debug, info, warn, error, off
}

// HistoryConfig holds REPL history configuration.
type HistoryConfig struct {
	File string `toml:"file" yaml:"file"` // empty means ~/.dict_history
	Size int    `toml:"size" yaml:"size"`
}

// Duration is a time.Duration written as a string ("10s") in config files.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("parse duration: %w", err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:    defaultHost,
			Port:    dictprotocol.DefaultPort,
			Timeout: Duration{defaultTimeout},
		},
		Lookup: LookupConfig{
			Database: dictprotocol.AllDatabasesName,
			Strategy: dictprotocol.DefaultStrategyName,
		},
		Log: LogConfig{
			Level: "warn",
		},
		History: HistoryConfig{
			Size: historySize,
		},
	}
}

// defaultConfigPath returns $XDG_CONFIG_HOME/dict/config.toml (or the
// platform equivalent).
func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, appName, "config.toml")
}

// LoadConfig loads configuration from a TOML or YAML file, chosen by
// extension. Keys missing from the file keep their default values;
// unknown keys are an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		meta, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("load config %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, 0, len(undecoded))
			for _, k := range undecoded {
				keys = append(keys, k.String())
			}
			sort.Strings(keys)
			return Config{}, fmt.Errorf("load config %s: unknown keys %s", path, strings.Join(keys, ", "))
		}

	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("load config %s: %w", path, err)
		}
		if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("load config %s: %w", path, err)
		}

	default:
		return Config{}, fmt.Errorf("load config %s: unsupported format %q", path, filepath.Ext(path))
	}

	return cfg, nil
}

// Validate checks the configuration for values the client cannot use.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Server.Host) == "" {
		return errors.New("server host is empty")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Server.Timeout.Duration < 0 {
		return fmt.Errorf("server timeout %s is negative", c.Server.Timeout)
	}
	if c.Lookup.Database == "" {
		return errors.New("lookup database is empty")
	}
	if c.Lookup.Strategy == "" {
		return errors.New("lookup strategy is empty")
	}
	if c.History.Size < 0 {
		return fmt.Errorf("history size %d is negative", c.History.Size)
	}
	return nil
}

// resolveConfig layers the config file, DICT_SERVER and flags.
func resolveConfig(args arguments) (Config, error) {
	cfg := DefaultConfig()

	path := args.configPath
	if path == "" {
		path = defaultConfigPath()
		if _, err := os.Stat(path); err != nil {
			path = ""
		}
	}
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return Config{}, err
		}
		cfg = loaded
	}

	if env := strings.TrimSpace(os.Getenv(envServer)); env != "" {
		host, port, err := parseServer(env)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", envServer, err)
		}
		cfg.Server.Host = host
		if port != 0 {
			cfg.Server.Port = port
		}
	}

	if args.server != "" {
		host, port, err := parseServer(args.server)
		if err != nil {
			return Config{}, fmt.Errorf("--server: %w", err)
		}
		cfg.Server.Host = host
		if port != 0 {
			cfg.Server.Port = port
		}
	}
	if args.host != "" {
		cfg.Server.Host = args.host
	}
	if args.port != 0 {
		cfg.Server.Port = args.port
	}
	if args.timeoutSet {
		cfg.Server.Timeout = Duration{args.timeout}
	}
	if args.database != "" {
		cfg.Lookup.Database = args.database
	}
	if args.strategy != "" {
		cfg.Lookup.Strategy = args.strategy
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
