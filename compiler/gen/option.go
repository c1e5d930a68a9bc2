package gen

import (
	"github.com/serixdev/serix/compiler/load"
	"github.com/serixdev/serix/schema/typemap"
)

// Option configures code generation.
type Option func(*Config) error

// WithHeader sets the file header comment.
// The header is added at the top of each generated file.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// WithGlobalOptions sets the global default per-class options.
func WithGlobalOptions(opts *load.Options) Option {
	return func(c *Config) error {
		if opts != nil {
			c.Global = opts
		}
		return nil
	}
}

// WithRegistry sets the per-type conversion registry.
func WithRegistry(r *typemap.Registry) Option {
	return func(c *Config) error {
		if r == nil {
			return NewGenerationError("config", "", "registry cannot be nil", nil)
		}
		c.Registry = r
		return nil
	}
}

// WithOutDir sets the companion artifact output directory.
// Empty means artifacts are written next to their unit's source file.
func WithOutDir(dir string) Option {
	return func(c *Config) error {
		c.OutDir = dir
		return nil
	}
}

// WithCacheDir enables the on-disk fragment cache.
func WithCacheDir(dir string) Option {
	return func(c *Config) error {
		c.CacheDir = dir
		return nil
	}
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// NewConfig creates a new Config with the given options layered over the
// defaults.
func NewConfig(opts ...Option) (*Config, error) {
	c := DefaultConfig()
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	return c, nil
}
