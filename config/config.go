// Package config loads simulator configuration from YAML files.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rvlab/rv5sim/timing/cache"
)

// CacheConfig describes one cache in the configuration file.
type CacheConfig struct {
	Size        uint32 `yaml:"size"`
	BlockSize   uint32 `yaml:"block_size"`
	Ways        uint32 `yaml:"ways"`
	MissLatency uint32 `yaml:"miss_latency"`
}

// ToCacheConfig converts to the cache package's configuration type.
func (c CacheConfig) ToCacheConfig() cache.Config {
	return cache.Config{
		Size:        c.Size,
		BlockSize:   c.BlockSize,
		Ways:        c.Ways,
		MissLatency: c.MissLatency,
	}
}

// Config is the top-level simulator configuration.
type Config struct {
	// MemorySize is the simulated memory size in bytes.
	MemorySize uint32 `yaml:"memory_size"`

	// Program is the path to the flat binary program image.
	Program string `yaml:"program"`

	// OutputBase is the base name for the output files.
	OutputBase string `yaml:"output_base"`

	// EntryPC is the initial fetch address.
	EntryPC uint32 `yaml:"entry_pc"`

	// ICache and DCache configure the two caches. A nil cache means the
	// corresponding accesses always hit.
	ICache *CacheConfig `yaml:"icache"`
	DCache *CacheConfig `yaml:"dcache"`
}

// Default returns a configuration with a 64KB memory and no caches.
func Default() Config {
	return Config{
		MemorySize: 64 * 1024,
		OutputBase: "rv5sim",
	}
}

// Load reads and validates a configuration file. Fields absent from the
// file keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks field consistency.
func (c Config) Validate() error {
	if c.MemorySize == 0 {
		return fmt.Errorf("config: memory_size must be positive")
	}
	if c.MemorySize%4 != 0 {
		return fmt.Errorf("config: memory_size %d is not word-aligned", c.MemorySize)
	}
	if c.EntryPC%4 != 0 {
		return fmt.Errorf("config: entry_pc 0x%X is not word-aligned", c.EntryPC)
	}
	if c.ICache != nil {
		if err := c.ICache.ToCacheConfig().Validate(); err != nil {
			return fmt.Errorf("config: icache: %w", err)
		}
	}
	if c.DCache != nil {
		if err := c.DCache.ToCacheConfig().Validate(); err != nil {
			return fmt.Errorf("config: dcache: %w", err)
		}
	}
	return nil
}
