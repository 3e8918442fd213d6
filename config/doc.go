// Package config loads node configuration from defaults, an optional YAML
// file, a small set of environment variables and command line flags, and
// validates the result before any component is built.
package config
