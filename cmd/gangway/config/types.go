// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

type GangwayConfig struct {
	// Server: HTTP listener settings for the intake service
	Server ServerConfig `yaml:"server"`

	// Dataset: where the classification dataset lives and whether to
	// hot-reload it on change
	Dataset DatasetConfig `yaml:"dataset"`

	// Sessions: wizard session persistence
	Sessions SessionConfig `yaml:"sessions"`

	// Telemetry: tracing and metrics export
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// GCS: bucket that hosts published dataset vintages
	GCS GCSConfig `yaml:"gcs"`
}

type ServerConfig struct {
	Port           int     `yaml:"port"`             // e.g. 12240
	GinMode        string  `yaml:"gin_mode"`         // debug, release, test
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`   // 0 = service default
	RateLimitBurst int     `yaml:"rate_limit_burst"` // 0 = service default
}

type DatasetConfig struct {
	Path  string `yaml:"path"`  // .json or .yaml dataset file
	Watch bool   `yaml:"watch"` // reload when the file changes
}

type SessionConfig struct {
	Dir      string `yaml:"dir"`       // Badger directory
	TTLHours int    `yaml:"ttl_hours"` // untouched-session lifetime; 0 = store default
}

type TelemetryConfig struct {
	TraceExporter  string  `yaml:"trace_exporter"`  // otlp, stdout, none
	MetricExporter string  `yaml:"metric_exporter"` // prometheus, stdout, none
	OTLPEndpoint   string  `yaml:"otlp_endpoint"`
	SampleRate     float64 `yaml:"sample_rate"`
	Environment    string  `yaml:"environment"`
}

type GCSConfig struct {
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	SAKeyPath string `yaml:"sa_key_path,omitempty"`
}

func DefaultConfig() GangwayConfig {
	return GangwayConfig{
		Server: ServerConfig{
			Port:    12240,
			GinMode: "release",
		},
		Dataset: DatasetConfig{
			Path:  "./data/naics_2022.json",
			Watch: true,
		},
		Sessions: SessionConfig{
			Dir:      "./data/sessions",
			TTLHours: 24,
		},
		Telemetry: TelemetryConfig{
			TraceExporter:  "otlp",
			MetricExporter: "prometheus",
			OTLPEndpoint:   "localhost:4317",
			SampleRate:     1.0,
			Environment:    "development",
		},
		GCS: GCSConfig{
			Bucket: "gangway-datasets",
			Prefix: "datasets/",
		},
	}
}
