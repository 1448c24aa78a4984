// Package config loads the qasm driver configuration from an optional TOML or
// YAML file and applies environment overrides on top.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/xyproto/env/v2"
	"gopkg.in/yaml.v3"

	"github.com/aledsdavies/qasm/runtime/dialect"
)

// Environment variables read by ApplyEnv.
const (
	EnvDialect  = "QASM_DIALECT"
	EnvMaxDepth = "QASM_MAX_DEPTH"
	EnvDebug    = "QASM_DEBUG"
	EnvFormat   = "QASM_FORMAT"
)

// DefaultFiles are searched in order when no file is named.
var DefaultFiles = []string{".qasm.toml", ".qasm.yaml", ".qasm.yml"}

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCBOR = "cbor"
)

// Config is the driver configuration.
type Config struct {
	Dialect             string `toml:"dialect" yaml:"dialect"` // auto, 2 or 3
	MaxDepth            int    `toml:"max_depth" yaml:"max_depth"`
	Debug               bool   `toml:"debug" yaml:"debug"`
	Format              string `toml:"format" yaml:"format"`
	SkipTerminatorCheck bool   `toml:"skip_terminator_check" yaml:"skip_terminator_check"`

	// Source is the file the configuration was read from, if any.
	Source string `toml:"-" yaml:"-"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{Dialect: "auto", Format: FormatText}
}

// Load reads path, or the first of DefaultFiles in dir when path is empty.
// Missing default files are not an error; a missing named file is.
func Load(path, dir string) (Config, error) {
	cfg := Default()
	if path == "" {
		for _, name := range DefaultFiles {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := decode(data, path, &cfg); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	cfg.Source = path
	return cfg, cfg.Validate()
}

// decode unmarshals data by the file extension, rejecting unknown keys.
func decode(data []byte, path string, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("YAML parse error: %w", err)
		}
	default:
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return fmt.Errorf("TOML parse error: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("unknown key %q", undecoded[0].String())
		}
	}
	return nil
}

// ApplyEnv overrides fields from the QASM_* environment variables.
func (c *Config) ApplyEnv() {
	if env.Has(EnvDialect) {
		c.Dialect = env.Str(EnvDialect)
	}
	if env.Has(EnvMaxDepth) {
		c.MaxDepth = env.Int(EnvMaxDepth, c.MaxDepth)
	}
	if env.Has(EnvDebug) {
		c.Debug = env.Bool(EnvDebug)
	}
	if env.Has(EnvFormat) {
		c.Format = env.Str(EnvFormat)
	}
}

// Validate checks field values.
func (c Config) Validate() error {
	if _, err := c.DialectChoice(); err != nil {
		return err
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("config: max_depth must not be negative, got %d", c.MaxDepth)
	}
	switch c.Format {
	case FormatText, FormatJSON, FormatCBOR:
	default:
		return fmt.Errorf("config: unknown format %q (want text, json or cbor)", c.Format)
	}
	return nil
}

// DialectChoice maps the Dialect field to a dialect. "auto" and "" mean detect.
func (c Config) DialectChoice() (dialect.Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(c.Dialect)) {
	case "", "auto":
		return dialect.Auto, nil
	}
	d, err := dialect.ForVersion(strings.TrimPrefix(strings.ToLower(c.Dialect), "v"))
	if err != nil {
		return dialect.Auto, fmt.Errorf("config: dialect %q: %w", c.Dialect, err)
	}
	return d, nil
}

// Options converts the configuration into dispatch options.
func (c Config) Options(logger *slog.Logger) ([]dialect.Opt, error) {
	d, err := c.DialectChoice()
	if err != nil {
		return nil, err
	}
	opts := []dialect.Opt{dialect.WithDialect(d)}
	if c.MaxDepth > 0 {
		opts = append(opts, dialect.WithMaxDepth(c.MaxDepth))
	}
	if logger != nil {
		opts = append(opts, dialect.WithLogger(logger))
	}
	if c.SkipTerminatorCheck {
		opts = append(opts, dialect.WithSkipTerminatorCheck())
	}
	return opts, nil
}
