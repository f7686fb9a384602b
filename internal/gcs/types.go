// Package gcs holds the object storage contract shared by ingestion and the CLI.
package gcs

import (
	"context"
	"io"
)

// ObjectStore reads and writes statement files in a bucket.
type ObjectStore interface {
	// Upload writes r to bucket/object and returns the gs:// URI.
	Upload(ctx context.Context, bucket, object string, r io.Reader) (string, error)

	// Fetch downloads the object at a gs:// URI.
	Fetch(ctx context.Context, uri string) ([]byte, error)
}
