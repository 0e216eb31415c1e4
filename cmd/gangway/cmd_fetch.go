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
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/AleutianAI/gangway/cmd/gangway/config"
	"github.com/AleutianAI/gangway/cmd/gangway/gcs"
	"github.com/spf13/cobra"
)

// runFetch downloads a dataset object from GCS to the local dataset path.
// Without an explicit object argument it fetches the object matching the
// configured dataset filename under the configured prefix.
func runFetch(cmd *cobra.Command, args []string) {
	gcsCfg := config.Global.GCS

	bucket := gcsCfg.Bucket
	if cmd.Flags().Changed("bucket") {
		bucket = fetchBucket
	}
	if bucket == "" {
		fmt.Fprintln(os.Stderr, "No GCS bucket configured. Set gcs.bucket in ~/.gangway/gangway.yaml or pass --bucket.")
		os.Exit(1)
	}

	objectPath := path.Join(gcsCfg.Prefix, filepath.Base(config.Global.Dataset.Path))
	if len(args) == 1 {
		objectPath = args[0]
	}

	localPath := config.Global.Dataset.Path
	if cmd.Flags().Changed("out") {
		localPath = fetchOutPath
	}

	saKey := gcsCfg.SAKeyPath
	if cmd.Flags().Changed("sa-key") {
		saKey = fetchSAKeyPath
	}

	ctx := context.Background()
	client, err := gcs.NewClient(ctx, bucket, saKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create GCS client: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	fmt.Printf("Fetching gs://%s/%s ...\n", bucket, objectPath)
	if err := client.DownloadFile(ctx, objectPath, localPath); err != nil {
		fmt.Fprintf(os.Stderr, "Download failed: %v\n", err)
		os.Exit(1)
	}
}
