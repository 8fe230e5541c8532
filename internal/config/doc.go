// Package config loads and merges changelens configuration from multiple
// sources with viper.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (CHANGELENS_PROVIDER, CHANGELENS_MODEL, etc.)
//  3. Config file ($XDG_CONFIG_HOME/changelens/config.json or config.yaml)
//  4. Built-in defaults
//
// An optional .env file in the config directory is loaded into the process
// environment first, so API keys can live next to the config file. Variables
// already set are never overwritten.
//
// Use [Load] to obtain a merged and validated [Config], [Save] to write the
// config file, and [SetField] to update a single key.
package config
