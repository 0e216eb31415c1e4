// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/AleutianAI/gangway/cmd/gangway/config"
	"github.com/AleutianAI/gangway/services/intake"
	"github.com/AleutianAI/gangway/services/intake/telemetry"
	"github.com/spf13/cobra"
)

// runServe assembles the intake service config from the config file and
// explicit flags, then blocks on the HTTP server until it exits.
func runServe(cmd *cobra.Command, args []string) {
	cfg := config.Global

	svcCfg := intake.Config{
		Port:           cfg.Server.Port,
		DatasetPath:    cfg.Dataset.Path,
		WatchDataset:   cfg.Dataset.Watch,
		SessionDir:     cfg.Sessions.Dir,
		SessionTTL:     time.Duration(cfg.Sessions.TTLHours) * time.Hour,
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
		GinMode:        cfg.Server.GinMode,
		Telemetry:      telemetryFromConfig(cfg.Telemetry),
	}

	// Explicit flags win over the config file.
	if cmd.Flags().Changed("port") {
		svcCfg.Port = servePort
	}
	if cmd.Flags().Changed("dataset") {
		svcCfg.DatasetPath = serveDataset
	}
	if cmd.Flags().Changed("session-dir") {
		svcCfg.SessionDir = serveSessionDir
	}
	if cmd.Flags().Changed("gin-mode") {
		svcCfg.GinMode = serveGinMode
	}
	if serveInMemory {
		svcCfg.InMemorySessions = true
	}
	if serveNoWatch {
		svcCfg.WatchDataset = false
	}

	svc, err := intake.New(svcCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize intake service: %v\n", err)
		os.Exit(1)
	}

	if err := svc.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Intake service exited: %v\n", err)
		os.Exit(1)
	}
}

// telemetryFromConfig maps the config file's telemetry block onto the
// service telemetry config. Empty fields keep the package defaults, which
// already honor the OTEL_* environment variables.
func telemetryFromConfig(tc config.TelemetryConfig) telemetry.Config {
	out := telemetry.DefaultConfig()
	if tc.TraceExporter != "" {
		out.TraceExporter = tc.TraceExporter
	}
	if tc.MetricExporter != "" {
		out.MetricExporter = tc.MetricExporter
	}
	if tc.OTLPEndpoint != "" {
		out.OTLPEndpoint = tc.OTLPEndpoint
	}
	if tc.SampleRate > 0 {
		out.SampleRate = tc.SampleRate
	}
	if tc.Environment != "" {
		out.Environment = tc.Environment
	}
	return out
}
