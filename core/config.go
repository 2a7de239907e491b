package core

import (
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds the engine configuration. The zero value is usable; New
// fills in the defaults.
type Config struct {
	// DefaultLimit caps selects that set no explicit limit.
	DefaultLimit int `yaml:"default_limit" validate:"gte=0"`

	// IDColumn is the identity column used for default ordering and bulk
	// updates.
	IDColumn string `yaml:"id_column" validate:"required"`

	// CacheSize bounds the compiled-statement cache.
	CacheSize int `yaml:"cache_size" validate:"gt=0"`

	// DisableCache turns the compiled-statement cache off.
	DisableCache bool `yaml:"disable_cache"`

	// Debug enables compile-time debug logging on the configured logger.
	Debug bool `yaml:"debug"`
}

// NewConfig parses a YAML config document.
func NewConfig(b []byte) (*Config, error) {
	c := &Config{}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, errors.Wrap(err, "config")
	}
	return c, nil
}

func (c *Config) setDefaults() {
	if c.DefaultLimit == 0 {
		c.DefaultLimit = 10
	}
	if c.IDColumn == "" {
		c.IDColumn = "id"
	}
	if c.CacheSize == 0 {
		c.CacheSize = 512
	}
}

// Validate checks the configuration, defaults already applied.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return &ConfigError{Message: err.Error()}
	}
	return nil
}
