// Package config loads, normalizes, and validates scribe configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type gathers the install,
// log, and state directories, the release archive URLs used to provision the
// transcription binary, external tool names, and logging preferences.
//
// Per-user transcription preferences (model, language, output formats) live
// in the separate settings document managed by internal/settings.
package config
