package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// ErrInvalid is wrapped by all validation failures.
var ErrInvalid = errors.New("invalid configuration")

// Config is the root configuration.
type Config struct {
	Buffer BufferConfig `toml:"buffer"`
	Save   SaveConfig   `toml:"save"`
	Log    LogConfig    `toml:"log"`
}

// BufferConfig tunes the storage core.
type BufferConfig struct {
	// MmapThreshold is the file size in bytes at which files are
	// memory-mapped instead of loaded into a rope.
	MmapThreshold int64 `toml:"mmap_threshold"`

	// CacheLines bounds the mapped-mode LRU line cache.
	CacheLines int `toml:"cache_lines"`

	// OverlayLimit is the overlay entry count past which the next
	// mapped-mode edit escalates the buffer to a rope.
	OverlayLimit int `toml:"overlay_limit"`
}

// SaveConfig tunes the save engine.
type SaveConfig struct {
	// WriterSize is the buffered-writer size in bytes for streaming
	// saves.
	WriterSize int `toml:"writer_size"`
}

// LogConfig controls the application logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level"`

	// Path is the log file; empty logs to stderr.
	Path string `toml:"path"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Buffer: BufferConfig{
			MmapThreshold: 10 * 1024 * 1024,
			CacheLines:    1000,
			OverlayLimit:  100,
		},
		Save: SaveConfig{
			WriterSize: 256 * 1024,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the TOML file at path over the defaults. A missing file is
// not an error; a file that fails to parse or validate is.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that every tunable is usable.
func (c Config) Validate() error {
	if c.Buffer.MmapThreshold <= 0 {
		return fmt.Errorf("%w: buffer.mmap_threshold must be positive", ErrInvalid)
	}
	if c.Buffer.CacheLines <= 0 {
		return fmt.Errorf("%w: buffer.cache_lines must be positive", ErrInvalid)
	}
	if c.Buffer.OverlayLimit <= 0 {
		return fmt.Errorf("%w: buffer.overlay_limit must be positive", ErrInvalid)
	}
	if c.Save.WriterSize <= 0 {
		return fmt.Errorf("%w: save.writer_size must be positive", ErrInvalid)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log.level %q is not a level", ErrInvalid, c.Log.Level)
	}
	return nil
}
