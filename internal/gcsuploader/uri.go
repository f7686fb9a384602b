package gcsuploader

import (
	"fmt"
	"path"
	"strings"
	"time"
)

const scheme = "gs://"

// ParseURI splits gs://bucket/path/to/object into bucket and object.
func ParseURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, scheme) {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, scheme), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}

// URI builds a gs:// URI.
func URI(bucket, object string) string {
	return scheme + bucket + "/" + object
}

// Filename returns the last path element of a gs:// URI.
// e.g., "gs://bucket/folder/file.csv" → "file.csv"
func Filename(uri string) string {
	trimmed := strings.TrimPrefix(uri, scheme)
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 {
		return trimmed
	}
	return path.Base(parts[1])
}

// StatementObject is the object name an uploaded statement is stored under:
// statements/<household>/<account>/<YYYYMMDD-HHMMSS>-<file>.
func StatementObject(householdID, accountID, filename string, at time.Time) string {
	return path.Join("statements", householdID, accountID,
		fmt.Sprintf("%s-%s", at.UTC().Format("20060102-150405"), path.Base(filename)))
}
