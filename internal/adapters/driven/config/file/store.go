// Package file loads and saves the suitetalk profiles file as TOML.
package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/suitetalk/internal/config"
)

// ConfigStore reads and writes a TOML profiles file.
type ConfigStore struct {
	path string
}

// NewConfigStore creates a store for path. A leading "~/" is expanded.
func NewConfigStore(path string) (*ConfigStore, error) {
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}
	return &ConfigStore{path: path}, nil
}

// Path returns the file path.
func (s *ConfigStore) Path() string {
	return s.path
}

// Load reads the file. A missing file yields the default configuration.
func (s *ConfigStore) Load() (*config.Config, error) {
	cfg := config.Default()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("parse %s:%d:%d: %w", s.path, row, col, err)
		}
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// Save writes cfg, creating the directory if needed. The file holds
// secrets, so it is written with owner-only permissions.
func (s *ConfigStore) Save(cfg *config.Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace config file: %w", err)
	}
	return nil
}
