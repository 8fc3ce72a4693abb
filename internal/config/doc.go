// Package config loads the evdash configuration.
//
// # Configuration Sources
//
// Values are resolved in the following order, later sources winning:
//
//  1. Built-in defaults (Default)
//  2. A YAML file (config.yaml or configs/config.yaml, or EVDASH_CONFIG_FILE)
//  3. Environment variables prefixed with EVDASH_
//
// # Environment Variables
//
// Nested sections map onto underscore separated names:
//
//	EVDASH_SERVER_PORT=8080
//	EVDASH_LOGGING_LEVEL=debug
//	EVDASH_DATASETS_DIR=/srv/ev-data
//	EVDASH_SESSION_TTL=12h
//	EVDASH_TELEMETRY_TRACE_EXPORTER=stdout
//
// # Datasets
//
// The five input files default to their well-known names inside the data
// directory. Any of them may be overridden with an absolute or relative path;
// relative paths are resolved against the data directory.
package config
