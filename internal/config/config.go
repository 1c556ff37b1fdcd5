/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
Package config provides layered configuration loading for the engine
and its server entrypoint.

Configuration sources, in precedence order (highest wins):
 1. Explicit overrides set after Load (e.g. command-line flags)
 2. Environment variables, prefixed SHARDKV_
 3. A configuration file (TOML, YAML, or JSON — detected by extension)
 4. Default values

This is backed by github.com/spf13/viper rather than a hand-written
parser, so any of viper's supported file formats works without this
package needing to know about them.

Example configuration file (TOML):

	wal_path = "/var/lib/shardkv/wal.log"
	stripe_count = 64
	max_key_bytes = 4096
	max_value_bytes = 1048576
	fsync_on_append = true
	rpc_addr = ":7070"
	metrics_addr = ":9090"
	log_level = "info"
	log_json = false

Environment Variables:
  - SHARDKV_WAL_PATH
  - SHARDKV_STRIPE_COUNT
  - SHARDKV_MAX_KEY_BYTES
  - SHARDKV_MAX_VALUE_BYTES
  - SHARDKV_FSYNC_ON_APPEND
  - SHARDKV_RPC_ADDR
  - SHARDKV_METRICS_ADDR
  - SHARDKV_LOG_LEVEL
  - SHARDKV_LOG_JSON
*/
package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

const envPrefix = "SHARDKV"

// Config holds every option the engine constructor and the server
// entrypoint recognize.
type Config struct {
	// Storage engine configuration options (spec §6).
	WALPath       string `mapstructure:"wal_path"`
	StripeCount   int    `mapstructure:"stripe_count"`
	MaxKeyBytes   int    `mapstructure:"max_key_bytes"`
	MaxValueBytes int    `mapstructure:"max_value_bytes"`
	FsyncOnAppend bool   `mapstructure:"fsync_on_append"`

	// RPC adapter and metrics endpoint (ambient/domain stack, §9-10).
	RPCAddr     string `mapstructure:"rpc_addr"`
	MetricsAddr string `mapstructure:"metrics_addr"`

	// Logging.
	LogLevel string `mapstructure:"log_level"`
	LogJSON  bool   `mapstructure:"log_json"`

	ConfigFile string `mapstructure:"-"`
}

// DefaultConfig returns a Config with the defaults named in spec §6,
// plus reasonable defaults for the ambient concerns the spec is silent
// on.
func DefaultConfig() *Config {
	return &Config{
		WALPath:       "wal.log",
		StripeCount:   64,
		MaxKeyBytes:   4 * 1024,
		MaxValueBytes: 1024 * 1024,
		FsyncOnAppend: true,
		RPCAddr:       ":7070",
		MetricsAddr:   ":9090",
		LogLevel:      "info",
		LogJSON:       false,
	}
}

// Manager owns the active Config plus a viper instance doing the
// layered resolution.
type Manager struct {
	v      *viper.Viper
	config *Config
	mu     sync.RWMutex
}

// NewManager creates a configuration manager seeded with defaults.
func NewManager() *Manager {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultConfig()
	for key, val := range map[string]interface{}{
		"wal_path":        defaults.WALPath,
		"stripe_count":    defaults.StripeCount,
		"max_key_bytes":   defaults.MaxKeyBytes,
		"max_value_bytes": defaults.MaxValueBytes,
		"fsync_on_append": defaults.FsyncOnAppend,
		"rpc_addr":        defaults.RPCAddr,
		"metrics_addr":    defaults.MetricsAddr,
		"log_level":       defaults.LogLevel,
		"log_json":        defaults.LogJSON,
	} {
		v.SetDefault(key, val)
	}

	return &Manager{v: v, config: defaults}
}

var globalManager = NewManager()

// Global returns the process-wide configuration manager.
func Global() *Manager {
	return globalManager
}

// Get returns the currently loaded configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// LoadFromFile points viper at an explicit config file path and merges
// it in, highest-to-lowest precedence already handled by viper itself
// (explicit file values lose to env vars set via AutomaticEnv).
func (m *Manager) LoadFromFile(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.v.SetConfigFile(path)
	if err := m.v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := m.v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("config: unmarshalling %s: %w", path, err)
	}
	cfg.ConfigFile = path
	m.config = cfg
	return nil
}

// Load resolves configuration from defaults and environment only (no
// file), which is the common case for this package's test suite and
// for containerized deployment.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg := DefaultConfig()
	if err := m.v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("config: unmarshalling defaults: %w", err)
	}
	m.config = cfg
	return nil
}

// Set installs cfg directly, used by the server entrypoint after
// applying command-line flag overrides on top of the loaded Config.
func (m *Manager) Set(cfg *Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config = cfg
}

// Validate checks invariants that Load cannot enforce on its own.
func (c *Config) Validate() error {
	if c.StripeCount <= 0 {
		return fmt.Errorf("config: stripe_count must be positive, got %d", c.StripeCount)
	}
	if c.MaxKeyBytes <= 0 {
		return fmt.Errorf("config: max_key_bytes must be positive, got %d", c.MaxKeyBytes)
	}
	if c.MaxValueBytes <= 0 {
		return fmt.Errorf("config: max_value_bytes must be positive, got %d", c.MaxValueBytes)
	}
	return nil
}
