package config

import (
	"fmt"
	"os"
	"strconv"
)

// EnvPrefix is the prefix of the environment variables read by ApplyEnv.
const EnvPrefix = "SOURCESEARCH_"

// envSetter applies one environment value to a configuration.
type envSetter func(c *Config, value string) error

// envMapping maps variable names, without the prefix, to setters.
var envMapping = map[string]envSetter{
	"CASE_SENSITIVE":     boolSetter(func(c *Config) *bool { return &c.Search.CaseSensitive }),
	"AT_WORD_BOUNDARIES": boolSetter(func(c *Config) *bool { return &c.Search.AtWordBoundaries }),
	"REGEX":              boolSetter(func(c *Config) *bool { return &c.Search.Regex }),
	"WRAP_AROUND":        boolSetter(func(c *Config) *bool { return &c.Search.WrapAround }),
	"CHUNK_SIZE":         intSetter(func(c *Config) *int { return &c.Engine.ChunkSize }),
	"CONTEXT_LINES":      intSetter(func(c *Config) *int { return &c.Engine.ContextLines }),
	"LOOKAHEAD_LINES":    intSetter(func(c *Config) *int { return &c.Engine.LookaheadLines }),
	"LAZY_COUNTING":      boolSetter(func(c *Config) *bool { return &c.Engine.LazyCounting }),
	"LOG_LEVEL": func(c *Config, value string) error {
		c.Logging.Level = value
		return nil
	},
}

func boolSetter(field func(*Config) *bool) envSetter {
	return func(c *Config, value string) error {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		*field(c) = b
		return nil
	}
}

func intSetter(field func(*Config) *int) envSetter {
	return func(c *Config, value string) error {
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		*field(c) = n
		return nil
	}
}

// ApplyEnv overrides c with SOURCESEARCH_* variables from the process
// environment and validates the result.
func (c *Config) ApplyEnv() error {
	return c.ApplyLookup(os.LookupEnv)
}

// ApplyLookup overrides c with the variables lookup reports and validates
// the result. Empty values are treated as set.
func (c *Config) ApplyLookup(lookup func(string) (string, bool)) error {
	for name, set := range envMapping {
		value, ok := lookup(EnvPrefix + name)
		if !ok {
			continue
		}
		if err := set(c, value); err != nil {
			return fmt.Errorf("environment variable %s%s: %w", EnvPrefix, name, err)
		}
	}
	return c.Validate()
}
