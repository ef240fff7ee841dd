// Package config loads compiler tunables (tab width, buffer
// capacities, hash table sizing) from an optional TOML file, falling
// back to built-in defaults when none is found: a struct of sections
// with toml tags, DefaultConfig(), and Load/LoadFrom/Save/SaveTo built
// on github.com/BurntSushi/toml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config holds the compiler's tunable parameters.
type Config struct {
	// Character-source settings.
	Source struct {
		TabWidth  int `toml:"tab_width"`  // legal range [3,8], default 8
		LineWidth int `toml:"line_width"` // W, default 256
	} `toml:"source"`

	// Symbol-table settings.
	Symbols struct {
		HashSize      int `toml:"hash_size"`       // should be prime, default 997
		MaxHashLength int `toml:"max_hash_length"` // default 100
	} `toml:"symbols"`

	// Code-generator settings.
	Code struct {
		BufferCapacity int  `toml:"buffer_capacity"` // default 1024
		Growable       bool `toml:"growable"`        // stored only; the code buffer ignores it and stays fixed-capacity
	} `toml:"code"`

	// Diagnostic settings.
	Diagnostics struct {
		MaxAnnotationsPerLine int `toml:"max_annotations_per_line"` // K, default 5
	} `toml:"diagnostics"`
}

// TabWidth returns the configured tab width.
func (c *Config) TabWidth() int { return c.Source.TabWidth }

// LineWidth returns the configured line-buffer width.
func (c *Config) LineWidth() int { return c.Source.LineWidth }

// CodeBufferCapacity returns the configured fixed code-buffer size.
func (c *Config) CodeBufferCapacity() int { return c.Code.BufferCapacity }

// HashSize returns the configured symbol-table bucket count.
func (c *Config) HashSize() int { return c.Symbols.HashSize }

// MaxHashLength returns the configured number of leading spelling
// bytes hashed and compared for symbol-table equality.
func (c *Config) MaxHashLength() int { return c.Symbols.MaxHashLength }

// MaxAnnotationsPerLine returns the configured cap on pending error
// annotations per source line (K).
func (c *Config) MaxAnnotationsPerLine() int { return c.Diagnostics.MaxAnnotationsPerLine }

// DefaultConfig returns the compiler's built-in defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Source.TabWidth = 8
	cfg.Source.LineWidth = 256

	cfg.Symbols.HashSize = 997
	cfg.Symbols.MaxHashLength = 100

	cfg.Code.BufferCapacity = 1024
	cfg.Code.Growable = false

	cfg.Diagnostics.MaxAnnotationsPerLine = 5

	return cfg
}

// GetConfigPath returns the platform-specific config file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		// Windows: %APPDATA%\cplc\compiler.toml
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "cplc")

	case "darwin", "linux":
		// macOS/Linux: ~/.config/cplc/compiler.toml
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "compiler.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "cplc")

	default:
		return "compiler.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "compiler.toml"
	}

	return filepath.Join(configDir, "compiler.toml")
}

// Load loads configuration from the default config file.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from the specified file. A missing
// file is not an error: the documented defaults are returned.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to the specified file, creating parent
// directories as needed.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close config file: %w", closeErr)
		}
	}()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}
