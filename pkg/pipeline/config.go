package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	kerrors "github.com/matzehuels/kinchart/pkg/errors"
)

// ConfigFileName is the config file looked up in the working directory.
const ConfigFileName = "kinchart.toml"

// FileConfig is the layout of a config file:
//
//	[layout]
//	card_width = 140
//	strict = true
//
//	[cache]
//	ttl = "72h"
//	redis = "redis://localhost:6379/0"
type FileConfig struct {
	Layout Options      `toml:"layout"`
	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
}

// CacheConfig selects and tunes the cache backend.
type CacheConfig struct {
	Dir      string `toml:"dir"`
	Redis    string `toml:"redis"`
	TTL      string `toml:"ttl"`
	Disabled bool   `toml:"disabled"`
}

// ServerConfig configures kinchart serve.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// TTLOr parses the configured TTL, falling back to def when unset.
func (c CacheConfig) TTLOr(def time.Duration) (time.Duration, error) {
	if c.TTL == "" {
		return def, nil
	}
	d, err := time.ParseDuration(c.TTL)
	if err != nil {
		return 0, kerrors.Wrap(kerrors.ErrCodeInvalidConfig, err, "cache ttl %q", c.TTL)
	}
	if d < 0 {
		return 0, kerrors.New(kerrors.ErrCodeInvalidConfig, "cache ttl must not be negative, got %s", c.TTL)
	}
	return d, nil
}

// LoadConfigFile decodes a TOML config file. Unknown keys are rejected so
// typos do not go unnoticed.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	md, err := toml.DecodeFile(path, &fc)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return FileConfig{}, kerrors.Wrap(kerrors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return FileConfig{}, kerrors.Wrap(kerrors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return FileConfig{}, kerrors.New(kerrors.ErrCodeInvalidConfig, "unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	if _, err := fc.Cache.TTLOr(0); err != nil {
		return FileConfig{}, err
	}
	return fc, nil
}

// FindConfigFile returns the config file to use: explicit when set,
// otherwise kinchart.toml in dir if it exists. An empty result means no
// config file.
func FindConfigFile(explicit, dir string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	path := filepath.Join(dir, ConfigFileName)
	switch _, err := os.Stat(path); {
	case err == nil:
		return path, nil
	case errors.Is(err, fs.ErrNotExist):
		return "", nil
	default:
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
}
