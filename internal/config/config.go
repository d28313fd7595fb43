// Package config loads ticktrack configuration.
//
// Values are layered: built-in defaults, then the YAML file (checked against
// the embedded CUE schema), then TICKTRACK_* environment variables.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/roach88/ticktrack/internal/notify"
	"github.com/roach88/ticktrack/internal/reconcile"
	"github.com/roach88/ticktrack/internal/tick"
)

//go:embed schema.cue
var schemaSource string

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TICKTRACK_"

// DefaultDatabase is the database path used when none is configured.
const DefaultDatabase = "ticktrack.db"

// Config is the full service configuration.
type Config struct {
	Database string         `yaml:"database" env:"DATABASE"`
	Tick     TickConfig     `yaml:"tick" envPrefix:"TICK_"`
	Fallback FallbackConfig `yaml:"fallback" envPrefix:"FALLBACK_"`
	Notify   NotifyConfig   `yaml:"notify" envPrefix:"NOTIFY_"`
}

// TickConfig configures the tick poller.
type TickConfig struct {
	URL      string        `yaml:"url" env:"URL"`
	Interval time.Duration `yaml:"interval" env:"INTERVAL"`
	Timeout  time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// FallbackConfig configures the fallback scanner.
type FallbackConfig struct {
	Enabled  bool          `yaml:"enabled" env:"ENABLED"`
	Interval time.Duration `yaml:"interval" env:"INTERVAL"`
}

// NotifyConfig configures webhook delivery. Categories without an entry in
// Sinks use DefaultSinks.
type NotifyConfig struct {
	Timeout      time.Duration       `yaml:"timeout" env:"TIMEOUT"`
	DefaultSinks []string            `yaml:"default_sinks" env:"SINKS" envSeparator:","`
	Sinks        map[string][]string `yaml:"sinks"`
}

// ValidationError lists the schema violations found in a config file.
type ValidationError struct {
	Path     string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Path, strings.Join(e.Problems, "; "))
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Database: DefaultDatabase,
		Tick: TickConfig{
			Interval: tick.DefaultInterval,
			Timeout:  tick.DefaultTimeout,
		},
		Fallback: FallbackConfig{
			Enabled:  true,
			Interval: reconcile.DefaultScanInterval,
		},
		Notify: NotifyConfig{
			Timeout: notify.DefaultTimeout,
		},
	}
}

// Load builds the configuration. An empty path skips the file layer.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := decode(path, data, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.check(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	if raw == nil {
		return nil
	}
	if err := validate(path, raw); err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	return nil
}

func validate(path string, raw map[string]any) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Config"))
	v := def.Unify(ctx.Encode(raw))
	err := v.Validate(cue.Concrete(true))
	if err == nil {
		return nil
	}

	verr := &ValidationError{Path: path}
	for _, e := range cueerrors.Errors(err) {
		verr.Problems = append(verr.Problems, e.Error())
	}
	return verr
}

// check validates values that can also arrive through the environment.
func (c Config) check() error {
	var errs []error
	if strings.TrimSpace(c.Database) == "" {
		errs = append(errs, errors.New("database path is empty"))
	}
	if c.Tick.Interval <= 0 {
		errs = append(errs, fmt.Errorf("tick.interval must be positive, got %s", c.Tick.Interval))
	}
	if c.Tick.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("tick.timeout must be positive, got %s", c.Tick.Timeout))
	}
	if c.Fallback.Interval <= 0 {
		errs = append(errs, fmt.Errorf("fallback.interval must be positive, got %s", c.Fallback.Interval))
	}
	if c.Notify.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("notify.timeout must be positive, got %s", c.Notify.Timeout))
	}
	return errors.Join(errs...)
}

// SinkMap resolves the webhook URLs for every notification category.
func (c Config) SinkMap() map[notify.Category][]string {
	out := make(map[notify.Category][]string, len(notify.Categories))
	for _, cat := range notify.Categories {
		if urls, ok := c.Notify.Sinks[string(cat)]; ok {
			out[cat] = urls
			continue
		}
		if len(c.Notify.DefaultSinks) > 0 {
			out[cat] = c.Notify.DefaultSinks
		}
	}
	return out
}
