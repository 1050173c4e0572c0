// Package config handles configuration loading and management for rorschach.
//
// It provides functionality for:
//   - Loading .rorschach.json, rorschach.config.json or .rorschachrc
//   - Default configuration values
//   - RORSCHACH_* environment overrides
package config
