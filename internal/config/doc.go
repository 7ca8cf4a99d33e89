// Package config loads engine tuning and default search settings.
//
// Configuration comes from three places, later ones overriding earlier:
//
//  1. Built-in defaults (Default)
//  2. A TOML or YAML file, chosen by extension (Load)
//  3. SOURCESEARCH_* environment variables (ApplyEnv)
//
// Example TOML file:
//
//	[search]
//	case_sensitive = true
//	regex = true
//
//	[engine]
//	chunk_size = 32768
//	context_lines = 4
//
//	[logging]
//	level = "debug"
package config
