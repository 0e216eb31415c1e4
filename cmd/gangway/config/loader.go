// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the gangway CLI configuration from
// ~/.gangway/gangway.yaml, creating a commented default file on first
// run. Environment variables override individual fields after load.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"
)

var (
	// Global is the loaded configuration. Call Load before reading it.
	Global GangwayConfig

	once    sync.Once
	loadErr error
)

// Load reads the config file into Global. Safe to call from every
// command; the file is read at most once per process.
func Load() error {
	once.Do(func() {
		loadErr = loadInternal()
	})
	return loadErr
}

func loadInternal() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("could not determine home directory: %w", err)
	}

	configDir := filepath.Join(home, ".gangway")
	configPath := filepath.Join(configDir, "gangway.yaml")

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			if err := createDefault(configDir, configPath); err != nil {
				return err
			}
			applyEnvOverrides(&Global)
			return nil
		}
		return fmt.Errorf("could not read config file %s: %w", configPath, err)
	}

	if err := yaml.Unmarshal(data, &Global); err != nil {
		return fmt.Errorf("could not parse config file %s: %w", configPath, err)
	}
	applyEnvOverrides(&Global)
	return nil
}

func createDefault(configDir, configPath string) error {
	Global = DefaultConfig()

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", configDir, err)
	}

	data, err := yaml.Marshal(&Global)
	if err != nil {
		return fmt.Errorf("could not serialize default config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("could not write default config to %s: %w", configPath, err)
	}

	fmt.Printf("First run detected. Created default config at %s\n", configPath)
	return nil
}

// applyEnvOverrides lets deployment environments adjust the hot fields
// without editing the config file.
func applyEnvOverrides(cfg *GangwayConfig) {
	if v := os.Getenv("GANGWAY_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("GANGWAY_DATASET"); v != "" {
		cfg.Dataset.Path = v
	}
	if v := os.Getenv("GANGWAY_SESSION_DIR"); v != "" {
		cfg.Sessions.Dir = v
	}
	if v := os.Getenv("GANGWAY_OTLP_ENDPOINT"); v != "" {
		cfg.Telemetry.OTLPEndpoint = v
	}
}
