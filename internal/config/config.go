// Package config loads project-level audit settings from a YAML file.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/sqlaudit/internal/sqlexpr"
)

// Config holds project-level settings applied when loading audits
type Config struct {
	// Dialect is the default SQL dialect for audits that do not declare one
	Dialect string `yaml:"dialect"`

	// Skip lists audit names to force-skip without editing their definitions
	Skip []string `yaml:"skip"`

	// NonBlocking lists audit names demoted to warn-only
	NonBlocking []string `yaml:"non_blocking"`
}

// Repository defines the interface for loading config files
type Repository interface {
	Load(path string) (*Config, error)
}

// FileRepository implements Repository for file-based storage
type FileRepository struct{}

// NewFileRepository creates a new file-based config repository
func NewFileRepository() *FileRepository {
	return &FileRepository{}
}

// Load reads a Config from a YAML file
func (r *FileRepository) Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Default instance for package-level functions
var defaultRepository = NewFileRepository()

// Load reads a Config from a YAML file using the default repository
func Load(path string) (*Config, error) {
	return defaultRepository.Load(path)
}

// DefaultDialect returns the configured dialect, normalized
func (c *Config) DefaultDialect() sqlexpr.Dialect {
	return sqlexpr.Dialect(c.Dialect).Normalize()
}

// SkipSet returns the force-skip names as a lower-cased lookup set
func (c *Config) SkipSet() map[string]bool {
	return nameSet(c.Skip)
}

// NonBlockingSet returns the warn-only names as a lower-cased lookup set
func (c *Config) NonBlockingSet() map[string]bool {
	return nameSet(c.NonBlocking)
}

func nameSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[strings.ToLower(strings.TrimSpace(n))] = true
	}
	return set
}

// Compile-time verification that FileRepository implements Repository
var _ Repository = (*FileRepository)(nil)
