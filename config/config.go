// Package config loads router settings and route tables.
//
// Configuration is layered: built-in defaults, then an optional YAML or TOML
// file, then PATHWAY_* environment variables. Later layers win.
//
//	mode: pushstate
//	root: /app
//	strict: false
//	match_timeout: 50ms
//	routes:
//	  - name: user
//	    pattern: /users/:id
//	    middleware: [log]
//	  - name: legacy
//	    patterns: [/u/:id, /member/:id]
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"

	"github.com/bjaus/pathway"
	"github.com/bjaus/pathway/history"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "PATHWAY_"

var (
	// ErrInvalidConfig is matched by every validation failure.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnsupportedFormat is returned for files that are neither YAML nor TOML.
	ErrUnsupportedFormat = errors.New("unsupported config format")
)

// Config holds router settings and the route table.
type Config struct {
	Mode         string        `koanf:"mode"`
	Root         string        `koanf:"root"`
	HashBang     bool          `koanf:"hash_bang"`
	Strict       bool          `koanf:"strict"`
	Sensitive    bool          `koanf:"sensitive"`
	MatchTimeout time.Duration `koanf:"match_timeout"`
	Recover      bool          `koanf:"recover"`
	LogLevel     string        `koanf:"log_level"`
	Routes       []RouteConfig `koanf:"routes"`
}

// RouteConfig describes one route. Exactly one of Pattern and Patterns is
// set; Middleware lists handler names resolved by the program loading the
// table.
type RouteConfig struct {
	Name       string   `koanf:"name"`
	Pattern    string   `koanf:"pattern"`
	Patterns   []string `koanf:"patterns"`
	Middleware []string `koanf:"middleware"`
}

// Spec returns the value to register: the pattern string or the list of
// alternatives.
func (rc RouteConfig) Spec() any {
	if len(rc.Patterns) > 0 {
		return rc.Patterns
	}
	return rc.Pattern
}

// DisplayName returns Name, or the pattern when the route is unnamed.
func (rc RouteConfig) DisplayName() string {
	if rc.Name != "" {
		return rc.Name
	}
	if len(rc.Patterns) > 0 {
		return strings.Join(rc.Patterns, " | ")
	}
	return rc.Pattern
}

func defaults() map[string]any {
	return map[string]any{
		"mode":          "memory",
		"root":          "",
		"hash_bang":     false,
		"strict":        false,
		"sensitive":     false,
		"match_timeout": "0s",
		"recover":       false,
		"log_level":     "",
	}
}

// Load reads the configuration. path may be empty to use defaults and the
// environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		parser, err := parserFor(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return &cfg, nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".toml":
		return toml.Parser(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Validate reports every problem in the configuration at once.
func (c *Config) Validate() error {
	var errs []error
	if _, ok := history.ParseMode(c.Mode); !ok {
		errs = append(errs, fmt.Errorf("unknown mode %q", c.Mode))
	}
	if c.Root != "" && !strings.HasPrefix(c.Root, "/") {
		errs = append(errs, fmt.Errorf("root %q must start with /", c.Root))
	}
	if c.MatchTimeout < 0 {
		errs = append(errs, fmt.Errorf("match_timeout must not be negative, got %s", c.MatchTimeout))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}

	names := make(map[string]int)
	for i, rc := range c.Routes {
		switch {
		case rc.Pattern == "" && len(rc.Patterns) == 0:
			errs = append(errs, fmt.Errorf("routes[%d]: pattern or patterns is required", i))
			continue
		case rc.Pattern != "" && len(rc.Patterns) > 0:
			errs = append(errs, fmt.Errorf("routes[%d]: pattern and patterns are exclusive", i))
			continue
		}
		if _, err := pathway.Compile(rc.Spec(), c.CompileOptions()...); err != nil {
			errs = append(errs, fmt.Errorf("routes[%d]: %w", i, err))
		}
		if rc.Name == "" {
			continue
		}
		if j, dup := names[rc.Name]; dup {
			errs = append(errs, fmt.Errorf("routes[%d]: name %q already used by routes[%d]", i, rc.Name, j))
			continue
		}
		names[rc.Name] = i
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// CompileOptions returns the pattern options the configuration selects.
func (c *Config) CompileOptions() []pathway.CompileOption {
	var opts []pathway.CompileOption
	if c.Strict {
		opts = append(opts, pathway.Strict())
	}
	if c.Sensitive {
		opts = append(opts, pathway.Sensitive())
	}
	if c.MatchTimeout > 0 {
		opts = append(opts, pathway.WithMatchTimeout(c.MatchTimeout))
	}
	return opts
}

// History builds the session history for the configured mode. An unknown
// mode falls back to memory; Validate reports it.
func (c *Config) History(opts ...history.Option) *history.History {
	mode, _ := history.ParseMode(c.Mode)
	base := []history.Option{history.WithRoot(c.Root)}
	if c.HashBang {
		base = append(base, history.WithHashBang())
	}
	return history.New(mode, append(base, opts...)...)
}

// RouterOptions returns the router options for this configuration, using
// loc as the location and log for diagnostics. LogLevel, when set, caps log.
func (c *Config) RouterOptions(loc pathway.Location, log zerolog.Logger) []pathway.Option {
	if lvl, err := zerolog.ParseLevel(c.LogLevel); err == nil && c.LogLevel != "" {
		log = log.Level(lvl)
	}
	opts := []pathway.Option{
		pathway.WithLocation(loc),
		pathway.WithLogger(log),
		pathway.WithCompileOptions(c.CompileOptions()...),
	}
	if c.Recover {
		opts = append(opts, pathway.WithRecover())
	}
	return opts
}
