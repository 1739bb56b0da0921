// Package config loads server settings.
//
// Sources are applied in order, later ones winning:
//
//	defaults < TOML file (-config) < TODOS_* environment < command-line flags
package config

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Backend names.
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Defaults.
const (
	DefaultAddr     = ":3000"
	DefaultDataFile = "data/todos.json"
)

// Duration wraps time.Duration so TOML files can say "5s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Config holds every server setting.
type Config struct {
	Addr        string `toml:"addr"`
	DataFile    string `toml:"data_file"`
	Backend     string `toml:"backend"`
	DatabaseURL string `toml:"database_url"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`

	Watch           bool `toml:"watch"`            // watch the data file for external edits
	SerializeWrites bool `toml:"serialize_writes"` // run mutations through the write queue
	QueueSize       int  `toml:"queue_size"`
	MaxConns        int  `toml:"max_conns"` // 0 means unlimited

	ReadTimeout     Duration `toml:"read_timeout"`
	WriteTimeout    Duration `toml:"write_timeout"`
	IdleTimeout     Duration `toml:"idle_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

// Default returns a Config with every default applied.
func Default() Config {
	return Config{
		Addr:            DefaultAddr,
		DataFile:        DefaultDataFile,
		Backend:         BackendFile,
		LogLevel:        "info",
		LogFormat:       "text",
		Watch:           false,
		SerializeWrites: true,
		QueueSize:       64,
		MaxConns:        0,
		ReadTimeout:     Duration{5 * time.Second},
		WriteTimeout:    Duration{10 * time.Second},
		IdleTimeout:     Duration{60 * time.Second},
		ShutdownTimeout: Duration{10 * time.Second},
	}
}

// Load builds the final Config from args (without the program name).
// getenv is usually os.Getenv; tests pass a map lookup.
func Load(fs *flag.FlagSet, args []string, getenv func(string) string) (Config, error) {
	cfg := Default()

	// The config file path can come from env or flags, so peek at both first.
	path := getenv("TODOS_CONFIG")
	if p := peekFlag(args, "config"); p != "" {
		path = p
	}
	if path != "" {
		if err := LoadFile(&cfg, path); err != nil {
			return cfg, err
		}
	}

	if err := applyEnv(&cfg, getenv); err != nil {
		return cfg, err
	}
	if err := ParseFlags(&cfg, fs, args); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// LoadFile decodes a TOML file over cfg. Keys absent from the file keep
// their current values.
func LoadFile(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("load config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// ParseFlags binds every setting to fs, using cfg's current values as
// defaults, and parses args.
func ParseFlags(cfg *Config, fs *flag.FlagSet, args []string) error {
	var configPath string
	fs.StringVar(&configPath, "config", "", "Path to a TOML config file")

	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	fs.StringVar(&cfg.DataFile, "data", cfg.DataFile, "Path to the JSON data file (file backend)")
	fs.StringVar(&cfg.Backend, "backend", cfg.Backend, "Storage backend: file, memory or postgres")
	fs.StringVar(&cfg.DatabaseURL, "database-url", cfg.DatabaseURL, "PostgreSQL connection URL (postgres backend)")

	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: text, json, logfmt")

	fs.BoolVar(&cfg.Watch, "watch", cfg.Watch, "Watch the data file and push external edits to live clients")
	fs.BoolVar(&cfg.SerializeWrites, "serialize-writes", cfg.SerializeWrites, "Run mutations one at a time")
	fs.IntVar(&cfg.QueueSize, "queue", cfg.QueueSize, "Write queue buffer size")
	fs.IntVar(&cfg.MaxConns, "max-conns", cfg.MaxConns, "Maximum concurrent connections (0 = unlimited)")

	fs.DurationVar(&cfg.ReadTimeout.Duration, "read-timeout", cfg.ReadTimeout.Duration, "HTTP read timeout")
	fs.DurationVar(&cfg.WriteTimeout.Duration, "write-timeout", cfg.WriteTimeout.Duration, "HTTP write timeout")
	fs.DurationVar(&cfg.IdleTimeout.Duration, "idle-timeout", cfg.IdleTimeout.Duration, "HTTP idle timeout")
	fs.DurationVar(&cfg.ShutdownTimeout.Duration, "shutdown-timeout", cfg.ShutdownTimeout.Duration, "Graceful shutdown timeout")

	return fs.Parse(args)
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	var errs []error
	switch c.Backend {
	case BackendFile:
		if c.DataFile == "" {
			errs = append(errs, errors.New("data file is required for the file backend"))
		}
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("database url is required for the postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q", c.Backend))
	}
	if c.Watch && c.Backend != BackendFile {
		errs = append(errs, errors.New("watch is only supported with the file backend"))
	}
	if c.QueueSize < 1 {
		errs = append(errs, fmt.Errorf("queue size must be positive, got %d", c.QueueSize))
	}
	if c.MaxConns < 0 {
		errs = append(errs, fmt.Errorf("max conns must not be negative, got %d", c.MaxConns))
	}
	return errors.Join(errs...)
}

// ---------- Environment ----------

func applyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv("TODOS_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := getenv("PORT"); v != "" && getenv("TODOS_ADDR") == "" {
		cfg.Addr = ":" + v
	}
	if v := getenv("TODOS_DATA_FILE"); v != "" {
		cfg.DataFile = v
	}
	if v := getenv("TODOS_BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := getenv("TODOS_DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := getenv("TODOS_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := getenv("TODOS_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	var errs []error
	envBool := func(key string, dst *bool) {
		if v := getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	envInt := func(key string, dst *int) {
		if v := getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	envBool("TODOS_WATCH", &cfg.Watch)
	envBool("TODOS_SERIALIZE_WRITES", &cfg.SerializeWrites)
	envInt("TODOS_QUEUE_SIZE", &cfg.QueueSize)
	envInt("TODOS_MAX_CONNS", &cfg.MaxConns)

	return errors.Join(errs...)
}

// peekFlag finds -name value / --name=value in args without parsing the rest.
func peekFlag(args []string, name string) string {
	for i, a := range args {
		trimmed := strings.TrimLeft(a, "-")
		if trimmed == a {
			continue
		}
		if v, ok := strings.CutPrefix(trimmed, name+"="); ok {
			return v
		}
		if trimmed == name && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}
