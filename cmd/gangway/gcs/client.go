// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package gcs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

type Client struct {
	storageClient *storage.Client
	BucketName    string
}

// NewClient opens a GCS client against one bucket. With an empty key path
// the client falls back to Application Default Credentials, which also
// covers anonymous access to public dataset buckets.
func NewClient(ctx context.Context, bucketName, saKeyPath string) (*Client, error) {
	var opts []option.ClientOption
	if saKeyPath != "" {
		if _, err := os.Stat(saKeyPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("service account key not found at path: %s. Please ensure you have the correct key and it is accessible", saKeyPath)
		}
		opts = append(opts, option.WithCredentialsFile(saKeyPath))
	}

	storageClient, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS storage client: %w", err)
	}

	return &Client{
		storageClient: storageClient,
		BucketName:    bucketName,
	}, nil
}

// DownloadFile copies one GCS object to a local path, creating parent
// directories as needed.
func (c *Client) DownloadFile(ctx context.Context, gcsPath, localPath string) error {
	if gcsPath == "" {
		return fmt.Errorf("gcs object path must not be empty")
	}
	if localPath == "" {
		return fmt.Errorf("local destination path must not be empty")
	}

	obj := c.storageClient.Bucket(c.BucketName).Object(gcsPath)
	reader, err := obj.NewReader(ctx)
	if err != nil {
		return fmt.Errorf("failed to open GCS object gs://%s/%s: %w", c.BucketName, gcsPath, err)
	}
	defer reader.Close()

	if dir := filepath.Dir(localPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create the destination directory: %w", err)
		}
	}

	localFile, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create the local file %s: %w", localPath, err)
	}
	defer localFile.Close()

	if _, err := io.Copy(localFile, reader); err != nil {
		return fmt.Errorf("failed to copy GCS object %s to %s: %w", gcsPath, localPath, err)
	}

	fmt.Printf("Successfully downloaded gs://%s/%s to %s\n", c.BucketName, gcsPath, localPath)
	return nil
}

// ListObjects returns the object names under a prefix, e.g. the published
// dataset vintages.
func (c *Client) ListObjects(ctx context.Context, prefix string) ([]string, error) {
	it := c.storageClient.Bucket(c.BucketName).Objects(ctx, &storage.Query{Prefix: prefix})

	var names []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list gs://%s/%s: %w", c.BucketName, prefix, err)
		}
		names = append(names, attrs.Name)
	}
	return names, nil
}

func (c *Client) Close() error {
	return c.storageClient.Close()
}
