package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultPath returns the conventional config file location,
// $XDG_CONFIG_HOME/rdx/config.yaml or ~/.config/rdx/config.yaml.
func DefaultPath() string {
	if base := os.Getenv("XDG_CONFIG_HOME"); base != "" {
		return filepath.Join(base, "rdx", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "rdx.yaml")
	}
	return filepath.Join(home, ".config", "rdx", "config.yaml")
}

// Load reads, decodes, defaults, and validates the config file at path.
// A missing file yields an empty, valid config so commands can still accept
// ad-hoc connection URLs.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills zero-valued tuning fields and validates connection
// entries. Validation errors name the offending connection.
func (c *Config) applyDefaults() error {
	seen := make(map[string]struct{}, len(c.Connections))
	for i := range c.Connections {
		conn := &c.Connections[i]
		if conn.Name == "" {
			return fmt.Errorf("connection %d: name is required", i)
		}
		if _, dup := seen[conn.Name]; dup {
			return fmt.Errorf("connection %q: duplicate name", conn.Name)
		}
		seen[conn.Name] = struct{}{}
		if conn.URL == "" {
			return fmt.Errorf("connection %q: url is required", conn.Name)
		}
		if conn.Separator == "" {
			conn.Separator = DefaultSeparator
		}
		conn.Scan = NormalizeTuning(conn.Scan)
	}
	return nil
}

// NormalizeTuning fills every non-positive tuning field with its default.
// Callers constructing connections outside the config loader get the same
// guarantees a loaded config has.
func NormalizeTuning(t ScanTuning) ScanTuning {
	def := DefaultScanTuning()
	if t.PageCap <= 0 {
		t.PageCap = def.PageCap
	}
	if t.EmptyFilterPageSize <= 0 {
		t.EmptyFilterPageSize = def.EmptyFilterPageSize
	}
	if t.FilteredPageSize <= 0 {
		t.FilteredPageSize = def.FilteredPageSize
	}
	if t.PrefixRounds <= 0 {
		t.PrefixRounds = def.PrefixRounds
	}
	if t.ResolveConcurrency <= 0 {
		t.ResolveConcurrency = def.ResolveConcurrency
	}
	if t.ListPageSize <= 0 {
		t.ListPageSize = def.ListPageSize
	}
	if t.AutoExpandBelow <= 0 {
		t.AutoExpandBelow = def.AutoExpandBelow
	}
	return t
}
