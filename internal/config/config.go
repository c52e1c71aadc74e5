package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "spindle.yaml"

// Config is the process-level configuration shared by the CLI commands.
type Config struct {
	Log       LogConfig   `mapstructure:"log"`
	Redis     RedisConfig `mapstructure:"redis"`
	Addr      string      `mapstructure:"addr"`
	Library   string      `mapstructure:"library"`
	StepLimit int         `mapstructure:"step_limit"`
}

// LogConfig mirrors logging.Options.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// RedisConfig enables shared variables when Addr is set.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Log:       LogConfig{Level: "info", Format: "text"},
		Redis:     RedisConfig{Prefix: "spindle:vars:"},
		Addr:      ":8080",
		Library:   ".",
		StepLimit: 10000,
	}
}

// Load reads path (or DefaultFile if path is empty and the file exists),
// then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// optional
	default:
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid yaml: %w", err)
	}
	if raw == nil {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(raw)
}

// applyEnv overlays SPINDLE_* variables.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup("SPINDLE_LOG_LEVEL"); ok {
		cfg.Log.Level = v
	}
	if v, ok := lookup("SPINDLE_LOG_FORMAT"); ok {
		cfg.Log.Format = v
	}
	if v, ok := lookup("SPINDLE_LOG_FILE"); ok {
		cfg.Log.File = v
	}
	if v, ok := lookup("SPINDLE_ADDR"); ok {
		cfg.Addr = v
	}
	if v, ok := lookup("SPINDLE_LIBRARY"); ok {
		cfg.Library = v
	}
	if v, ok := lookup("SPINDLE_REDIS_ADDR"); ok {
		cfg.Redis.Addr = v
	}
	if v, ok := lookup("SPINDLE_STEP_LIMIT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SPINDLE_STEP_LIMIT: %w", err)
		}
		cfg.StepLimit = n
	}
	return nil
}
