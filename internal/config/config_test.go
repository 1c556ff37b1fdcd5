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

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.WALPath != "wal.log" {
		t.Errorf("expected default wal_path 'wal.log', got %q", cfg.WALPath)
	}
	if cfg.StripeCount != 64 {
		t.Errorf("expected default stripe_count 64, got %d", cfg.StripeCount)
	}
	if cfg.MaxKeyBytes != 4*1024 {
		t.Errorf("expected default max_key_bytes 4096, got %d", cfg.MaxKeyBytes)
	}
	if cfg.MaxValueBytes != 1024*1024 {
		t.Errorf("expected default max_value_bytes 1MiB, got %d", cfg.MaxValueBytes)
	}
	if !cfg.FsyncOnAppend {
		t.Error("expected fsync_on_append true by default")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected default log_level 'info', got %q", cfg.LogLevel)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid default", mutate: func(c *Config) {}, wantErr: false},
		{name: "zero stripe count", mutate: func(c *Config) { c.StripeCount = 0 }, wantErr: true},
		{name: "negative max key bytes", mutate: func(c *Config) { c.MaxKeyBytes = -1 }, wantErr: true},
		{name: "zero max value bytes", mutate: func(c *Config) { c.MaxValueBytes = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "shardkv_config_test_*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	configContent := `
wal_path = "/tmp/custom-wal.log"
stripe_count = 128
max_key_bytes = 8192
fsync_on_append = false
log_level = "debug"
log_json = true
`
	configPath := filepath.Join(tmpDir, "shardkv.toml")
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	mgr := NewManager()
	if err := mgr.LoadFromFile(configPath); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	cfg := mgr.Get()
	if cfg.WALPath != "/tmp/custom-wal.log" {
		t.Errorf("expected wal_path override, got %q", cfg.WALPath)
	}
	if cfg.StripeCount != 128 {
		t.Errorf("expected stripe_count 128, got %d", cfg.StripeCount)
	}
	if cfg.MaxKeyBytes != 8192 {
		t.Errorf("expected max_key_bytes 8192, got %d", cfg.MaxKeyBytes)
	}
	if cfg.FsyncOnAppend {
		t.Error("expected fsync_on_append false from file")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log_level 'debug', got %q", cfg.LogLevel)
	}
	if cfg.ConfigFile != configPath {
		t.Errorf("expected ConfigFile %q, got %q", configPath, cfg.ConfigFile)
	}
}

func TestEnvOverridesDefaults(t *testing.T) {
	origStripe := os.Getenv("SHARDKV_STRIPE_COUNT")
	defer os.Setenv("SHARDKV_STRIPE_COUNT", origStripe)
	os.Setenv("SHARDKV_STRIPE_COUNT", "16")

	mgr := NewManager()
	if err := mgr.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	cfg := mgr.Get()
	if cfg.StripeCount != 16 {
		t.Errorf("expected stripe_count 16 from env, got %d", cfg.StripeCount)
	}
}

func TestGlobalManager(t *testing.T) {
	mgr := Global()
	if mgr == nil {
		t.Fatal("Global() returned nil")
	}
	if mgr2 := Global(); mgr != mgr2 {
		t.Error("Global() returned different instances")
	}
}
