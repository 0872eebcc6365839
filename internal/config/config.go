// Package config loads the pyrewrite YAML configuration and maps it onto
// parser, engine and formatter options.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/phobologic/pyrewrite/pkg/format"
	"github.com/phobologic/pyrewrite/pkg/parser"
	"github.com/phobologic/pyrewrite/pkg/refactor"
)

// FileName is the config file looked up in the working directory when no
// explicit path is given.
const FileName = ".pyrewrite.yaml"

// Config is the root of the configuration file.
type Config struct {
	Formatter FormatterConfig `yaml:"formatter"`
	Imports   ImportsConfig   `yaml:"imports"`
	Mocks     MocksConfig     `yaml:"mocks"`
	Discover  DiscoverConfig  `yaml:"discover"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// FormatterConfig selects the formatting pass. With a command set, source
// is piped through it after the built-in normalizer.
type FormatterConfig struct {
	Command   string        `yaml:"command,omitempty"`
	Args      []string      `yaml:"args,omitempty"`
	Timeout   time.Duration `yaml:"timeout"`
	Normalize bool          `yaml:"normalize"`
}

// ImportsConfig extends or replaces the legacy module table.
type ImportsConfig struct {
	Modernize       map[string]string `yaml:"modernize,omitempty"`
	ReplaceDefaults bool              `yaml:"replace_defaults"`
}

// MocksConfig mirrors refactor.MockRules.
type MocksConfig struct {
	MaxDepth       int      `yaml:"max_depth"`
	MaxEntries     int      `yaml:"max_entries"`
	SecretKeys     []string `yaml:"secret_keys"`
	SecretPatterns []string `yaml:"secret_patterns"`
	Placeholder    string   `yaml:"placeholder"`
}

// DiscoverConfig controls which files directory commands visit.
type DiscoverConfig struct {
	RespectGitignore bool  `yaml:"respect_gitignore"`
	SkipVendored     bool  `yaml:"skip_vendored"`
	MaxFileSize      int64 `yaml:"max_file_size"`
	Workers          int   `yaml:"workers,omitempty"`
}

// LoggingConfig sets the CLI log level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	rules := refactor.DefaultMockRules()
	return &Config{
		Formatter: FormatterConfig{
			Timeout:   format.DefaultCommandTimeout,
			Normalize: true,
		},
		Mocks: MocksConfig{
			MaxDepth:       rules.MaxDepth,
			MaxEntries:     rules.MaxEntries,
			SecretKeys:     rules.SecretKeys,
			SecretPatterns: rules.SecretPatterns,
			Placeholder:    rules.Placeholder,
		},
		Discover: DiscoverConfig{
			RespectGitignore: true,
			SkipVendored:     true,
			MaxFileSize:      parser.DefaultMaxFileSize,
		},
		Logging: LoggingConfig{Level: "warn"},
	}
}

// Load reads the config at path over the defaults. An empty path looks for
// FileName in the working directory and returns the defaults when there is
// none; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat(FileName); errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		path = FileName
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges, patterns and the log level.
func (c *Config) Validate() error {
	if c.Formatter.Timeout < 0 {
		return fmt.Errorf("formatter.timeout must not be negative")
	}
	if c.Formatter.Command == "" && len(c.Formatter.Args) > 0 {
		return fmt.Errorf("formatter.args given without formatter.command")
	}
	for old, repl := range c.Imports.Modernize {
		if strings.TrimSpace(old) == "" || strings.TrimSpace(repl) == "" {
			return fmt.Errorf("imports.modernize: empty module name in %q -> %q", old, repl)
		}
	}
	if err := c.MockRules().Validate(); err != nil {
		return err
	}
	if c.Discover.MaxFileSize < 0 {
		return fmt.Errorf("discover.max_file_size must not be negative")
	}
	if c.Discover.Workers < 0 {
		return fmt.Errorf("discover.workers must not be negative")
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	return nil
}

// Marshal renders c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseLevel maps a level name to a slog.Level. An empty name is warn.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", name)
}

// MockRules returns the mock heuristics.
func (c *Config) MockRules() refactor.MockRules {
	return refactor.MockRules{
		MaxDepth:       c.Mocks.MaxDepth,
		MaxEntries:     c.Mocks.MaxEntries,
		SecretKeys:     c.Mocks.SecretKeys,
		SecretPatterns: c.Mocks.SecretPatterns,
		Placeholder:    c.Mocks.Placeholder,
	}
}

// ImportTable returns the legacy module table: the built-in one with the
// configured entries merged in, or only the configured entries when
// replace_defaults is set.
func (c *Config) ImportTable() map[string]string {
	table := make(map[string]string)
	if !c.Imports.ReplaceDefaults {
		maps.Copy(table, refactor.DefaultImportTable())
	}
	maps.Copy(table, c.Imports.Modernize)
	return table
}

// Formatter builds the formatting pass.
func (c *Config) Formatter() format.Formatter {
	var chain format.Chain
	if c.Formatter.Normalize {
		chain = append(chain, format.Normalizer{})
	}
	if c.Formatter.Command != "" {
		chain = append(chain, &format.Command{
			Path:    c.Formatter.Command,
			Args:    c.Formatter.Args,
			Timeout: c.Formatter.Timeout,
		})
	}
	return chain
}

// ParserOptions returns the parser options for c.
func (c *Config) ParserOptions(logger *slog.Logger) []parser.Option {
	opts := []parser.Option{
		parser.WithLogger(logger),
		parser.WithMaxFileSize(c.Discover.MaxFileSize),
	}
	if c.Discover.Workers > 0 {
		opts = append(opts, parser.WithWorkers(c.Discover.Workers))
	}
	return opts
}

// DirectoryOptions returns the discovery options for a directory parse.
func (c *Config) DirectoryOptions(recursive bool) parser.DirectoryOptions {
	return parser.DirectoryOptions{
		Recursive:        recursive,
		RespectGitignore: c.Discover.RespectGitignore,
		SkipVendored:     c.Discover.SkipVendored,
	}
}

// EngineOptions returns the refactor engine options for c.
func (c *Config) EngineOptions(logger *slog.Logger) []refactor.Option {
	return []refactor.Option{
		refactor.WithLogger(logger),
		refactor.WithParser(parser.New(c.ParserOptions(logger)...)),
		refactor.WithFormatter(c.Formatter()),
		refactor.WithImportTable(c.ImportTable()),
		refactor.WithMockRules(c.MockRules()),
	}
}
