// Package config parses the TOML configuration, secrets, and entities
// files that drive the build-tree CLI subcommand (spec.md §6).
package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/silversixpence-crypto/dapol/pkg/dapol"
)

var (
	ErrNoEntitiesSource = errors.New("config: entities section needs file_path or num_random_entities")
	ErrNoSecretsSource  = errors.New("config: secrets section needs file_path or master_secret")
	ErrBothEntitiesSet  = errors.New("config: entities section cannot set both file_path and num_random_entities")
	ErrBothSecretsSet   = errors.New("config: secrets section cannot set both file_path and master_secret")
)

// EntitiesConfig selects how the leaf set is populated: either read from
// a CSV file or generated at random (spec.md §6 "Configuration (TOML)").
type EntitiesConfig struct {
	FilePath         string `toml:"file_path"`
	NumRandomEntities int   `toml:"num_random_entities"`
}

// SecretsConfig selects where the master secret comes from: an inline
// value, or a separate secrets TOML file (spec.md §6 "Secrets file").
type SecretsConfig struct {
	FilePath     string `toml:"file_path"`
	MasterSecret string `toml:"master_secret"`
}

// Config is the top-level `build-tree config-file <path>` document.
type Config struct {
	AccumulatorType string          `toml:"accumulator_type"`
	SaltB           string          `toml:"salt_b"`
	SaltS           string          `toml:"salt_s"`
	MaxLiability    uint64          `toml:"max_liability"`
	Height          uint8           `toml:"height"`
	MaxThreadCount  int             `toml:"max_thread_count"`
	Entities        EntitiesConfig  `toml:"entities"`
	Secrets         SecretsConfig   `toml:"secrets"`

	dir string // the directory the config file was loaded from
}

// Secrets is the content of a standalone secrets file (spec.md §6
// "Secrets file (TOML)").
type Secrets struct {
	MasterSecret string `toml:"master_secret"`
}

// Load reads and parses the config file at path, and records its
// directory so relative paths inside it (entities/secrets file_path) can
// later be resolved with Resolve.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	cfg.dir = filepath.Dir(path)

	if cfg.Entities.FilePath != "" && cfg.Entities.NumRandomEntities != 0 {
		return nil, ErrBothEntitiesSet
	}
	if cfg.Entities.FilePath == "" && cfg.Entities.NumRandomEntities == 0 {
		return nil, ErrNoEntitiesSource
	}
	if cfg.Secrets.FilePath != "" && cfg.Secrets.MasterSecret != "" {
		return nil, ErrBothSecretsSet
	}
	if cfg.Secrets.FilePath == "" && cfg.Secrets.MasterSecret == "" {
		return nil, ErrNoSecretsSource
	}

	return &cfg, nil
}

// Resolve turns a path written in the config file into an absolute one,
// relative to the config file's own directory (spec.md §6: "Relative
// paths in the TOML are resolved against the config file's directory").
func (c *Config) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.dir, path)
}

// ResolveMasterSecret returns the master secret, reading it from a
// secrets file if the config points at one rather than inlining it.
func (c *Config) ResolveMasterSecret() (string, error) {
	if c.Secrets.MasterSecret != "" {
		return c.Secrets.MasterSecret, nil
	}

	var secrets Secrets
	if _, err := toml.DecodeFile(c.Resolve(c.Secrets.FilePath), &secrets); err != nil {
		return "", fmt.Errorf("config: parsing secrets file: %w", err)
	}
	if secrets.MasterSecret == "" {
		return "", ErrNoSecretsSource
	}
	return secrets.MasterSecret, nil
}

// AccumulatorTypeValue parses AccumulatorType into the dapol package's
// typed enum, defaulting to NDM-SMT when the field is empty.
func (c *Config) AccumulatorTypeValue() (dapol.AccumulatorType, error) {
	if c.AccumulatorType == "" {
		return dapol.NDMSMT, nil
	}
	t := dapol.AccumulatorType(c.AccumulatorType)
	if t != dapol.NDMSMT {
		return "", dapol.ErrUnsupportedAccumulatorType
	}
	return t, nil
}
