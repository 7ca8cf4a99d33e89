package config

import (
	"strings"

	"github.com/dshills/sourcesearch/internal/logging"
	"github.com/dshills/sourcesearch/internal/search"
)

// Limits on engine tuning values.
const (
	MinChunkSize      = 1024
	MaxChunkSize      = 16 << 20
	MaxContextLines   = 1000
	MaxLookaheadLines = 1000
)

// Config is the complete configuration.
type Config struct {
	Search  SearchConfig  `toml:"search" yaml:"search"`
	Engine  EngineConfig  `toml:"engine" yaml:"engine"`
	Logging LoggingConfig `toml:"logging" yaml:"logging"`
}

// SearchConfig holds the default search flags. The search text itself is
// never configured.
type SearchConfig struct {
	CaseSensitive    bool `toml:"case_sensitive" yaml:"case_sensitive"`
	AtWordBoundaries bool `toml:"at_word_boundaries" yaml:"at_word_boundaries"`
	Regex            bool `toml:"regex" yaml:"regex"`
	WrapAround       bool `toml:"wrap_around" yaml:"wrap_around"`
}

// EngineConfig tunes the incremental scanner.
type EngineConfig struct {
	// ChunkSize is the number of bytes scanned per step.
	ChunkSize int `toml:"chunk_size" yaml:"chunk_size"`
	// ContextLines is the number of lines rescanned around an edit. A
	// negative value picks a default from the pattern.
	ContextLines int `toml:"context_lines" yaml:"context_lines"`
	// LookaheadLines is how far past a scanned region a regular
	// expression match may extend.
	LookaheadLines int `toml:"lookahead_lines" yaml:"lookahead_lines"`
	// LazyCounting makes counting queries return immediately while the
	// buffer is not fully scanned.
	LazyCounting bool `toml:"lazy_counting" yaml:"lazy_counting"`
	// Highlight enables highlight invalidation callbacks.
	Highlight bool `toml:"highlight" yaml:"highlight"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level string `toml:"level" yaml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Search: SearchConfig{
			WrapAround: true,
		},
		Engine: EngineConfig{
			ChunkSize:      search.DefaultChunkSize,
			ContextLines:   -1,
			LookaheadLines: search.DefaultLookaheadLines,
			Highlight:      true,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// Validate checks every value and reports all problems at once.
func (c *Config) Validate() error {
	var errs ValidationErrors
	if c.Engine.ChunkSize < MinChunkSize || c.Engine.ChunkSize > MaxChunkSize {
		errs = append(errs, &ValidationError{
			Path:    "engine.chunk_size",
			Message: "must be between 1024 and 16777216",
			Value:   c.Engine.ChunkSize,
		})
	}
	if c.Engine.ContextLines > MaxContextLines {
		errs = append(errs, &ValidationError{
			Path:    "engine.context_lines",
			Message: "must be at most 1000",
			Value:   c.Engine.ContextLines,
		})
	}
	if c.Engine.LookaheadLines < 0 || c.Engine.LookaheadLines > MaxLookaheadLines {
		errs = append(errs, &ValidationError{
			Path:    "engine.lookahead_lines",
			Message: "must be between 0 and 1000",
			Value:   c.Engine.LookaheadLines,
		})
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, &ValidationError{
			Path:    "logging.level",
			Message: "must be one of debug, info, warn, error",
			Value:   c.Logging.Level,
		})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Query returns a search query for text using the configured flags.
func (c *Config) Query(text string) search.Query {
	return search.Query{
		Text:             text,
		CaseSensitive:    c.Search.CaseSensitive,
		AtWordBoundaries: c.Search.AtWordBoundaries,
		Regex:            c.Search.Regex,
		WrapAround:       c.Search.WrapAround,
	}
}

// ContextOptions returns the search context options for the engine
// settings.
func (c *Config) ContextOptions() []search.Option {
	opts := []search.Option{
		search.WithChunkSize(c.Engine.ChunkSize),
		search.WithContextLines(c.Engine.ContextLines),
		search.WithLookaheadLines(c.Engine.LookaheadLines),
		search.WithHighlight(c.Engine.Highlight),
	}
	if c.Engine.LazyCounting {
		opts = append(opts, search.WithLazyCounting())
	}
	return opts
}

// LogLevel returns the configured log level.
func (c *Config) LogLevel() logging.Level {
	return logging.ParseLevel(c.Logging.Level)
}
