// Package config loads jive's TOML configuration.
//
// Configuration is optional: Load with a missing path returns the defaults
// rather than an error, so a bare invocation always works. Values are
// validated after parsing; a config file that parses but makes no sense
// (zero cache size, negative threshold) is rejected.
package config
