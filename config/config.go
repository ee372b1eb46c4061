// Package config loads activator settings from YAML files or the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// DefaultMemoSize is the number of memoized resolutions kept by default.
const DefaultMemoSize = 1024

// Environment variables read by FromEnv.
const (
	EnvMemoSize             = "BOOSTER_MEMO_SIZE"
	EnvImplicitConstructors = "BOOSTER_IMPLICIT_CONSTRUCTORS"
	EnvLogLevel             = "BOOSTER_LOG_LEVEL"
)

// Config represents activator configuration.
type Config struct {
	MemoSize             int    `json:"memo_size" yaml:"memo_size"`
	ImplicitConstructors bool   `json:"implicit_constructors" yaml:"implicit_constructors"`
	LogLevel             string `json:"log_level" yaml:"log_level"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		MemoSize:             DefaultMemoSize,
		ImplicitConstructors: true,
	}
}

// Load reads a YAML configuration file. Keys absent from the file keep their
// default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML document into a validated Config.
func Parse(data []byte) (*Config, error) {
	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds a Config from BOOSTER_* variables. Values in the process
// environment win over values in the given env files (".env" when none are
// given). Missing env files are not an error.
func FromEnv(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}

	fileVals := map[string]string{}
	for _, f := range files {
		vals, err := godotenv.Read(f)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to read env file %s: %w", f, err)
		}
		for k, v := range vals {
			fileVals[k] = v
		}
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVals[key]
		return v, ok
	}

	cfg := Defaults()
	if v, ok := lookup(EnvMemoSize); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", EnvMemoSize, v, err)
		}
		cfg.MemoSize = n
	}
	if v, ok := lookup(EnvImplicitConstructors); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", EnvImplicitConstructors, v, err)
		}
		cfg.ImplicitConstructors = b
	}
	if v, ok := lookup(EnvLogLevel); ok {
		cfg.LogLevel = strings.TrimSpace(v)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	if c.MemoSize < 0 {
		return fmt.Errorf("memo size must not be negative, got %d", c.MemoSize)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel. An empty level is info.
func (c *Config) Level() (zapcore.Level, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// Logger builds a production logger at the configured level.
func (c *Config) Logger() (*zap.Logger, error) {
	level, err := c.Level()
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}
