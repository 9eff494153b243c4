// Package config loads the simulator driver's pool bootstrap settings from
// a YAML file, in the same flat-struct-plus-tags shape the rest of the
// example corpus uses for service config.
package config

import (
	"os"

	"github.com/daoleno/uniswapv3-sdk/constants"
	"gopkg.in/yaml.v3"
)

// Config is the simulator driver's bootstrap configuration. It belongs to
// cmd/hmmsim, not to the core pool package: the core never reads a config
// file, it only takes a PoolConfig struct.
type Config struct {
	Pool struct {
		TickSpacing int64  `yaml:"TickSpacing"`
		FeeTier     int    `yaml:"FeeTier"`
		TokenXName  string `yaml:"TokenXName"`
		TokenYName  string `yaml:"TokenYName"`
		HmmC        string `yaml:"HmmC"`
		BootstrapRP string `yaml:"BootstrapRP"`
	} `yaml:"Pool"`

	Snapshot struct {
		SqlitePath string `yaml:"SqlitePath"`
	} `yaml:"Snapshot"`

	Log struct {
		Level string `yaml:"Level"`
	} `yaml:"Log"`
}

// FeeAmount converts the configured fee tier into the Uniswap SDK's
// FeeAmount type.
func (c *Config) FeeAmount() constants.FeeAmount {
	return constants.FeeAmount(c.Pool.FeeTier)
}

// LoadConfig loads a Config from a YAML file on disk.
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
