package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/rafaelogic/codesnoutr-sub001/internal/domain"
)

const fileName = ".codesnoutr.yaml"

// YAMLLoader implements domain.ConfigLoader by reading .codesnoutr.yaml.
type YAMLLoader struct{}

// New creates a YAMLLoader.
func New() *YAMLLoader { return &YAMLLoader{} }

// Load reads .codesnoutr.yaml from projectPath. A missing file yields the
// defaults. Store locations in the result are absolute.
func (l *YAMLLoader) Load(projectPath string) (domain.Config, error) {
	cfg := domain.DefaultConfig()

	data, err := os.ReadFile(filepath.Join(projectPath, fileName))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return domain.Config{}, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return domain.Config{}, fmt.Errorf("parsing %s: %w", fileName, err)
		}
		// Validate before resolving paths so errors point at the user's input.
		if err := cfg.Validate(); err != nil {
			return domain.Config{}, fmt.Errorf("invalid %s: %w", fileName, err)
		}
	}

	return resolvePaths(projectPath, cfg)
}

// resolvePaths anchors the backup and store locations at the project root.
func resolvePaths(projectPath string, cfg domain.Config) (domain.Config, error) {
	root, err := filepath.Abs(projectPath)
	if err != nil {
		return domain.Config{}, err
	}
	if dir := cfg.BackupDir(); !filepath.IsAbs(dir) {
		cfg.Backup.Dir = filepath.Join(root, dir)
	}
	if path := cfg.StorePath(); !filepath.IsAbs(path) {
		cfg.Store.Path = filepath.Join(root, path)
	}
	return cfg, nil
}
