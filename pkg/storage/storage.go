package storage

import (
	"context"
	"sort"
	"strings"
	"time"
)

// Store is an S3-compatible object store as seen by the HTTP layer and the
// command line. Listing calls degrade to empty results; the error they return
// is informational. Upload and presigning fail explicitly.
type Store interface {
	// ListBuckets returns the bucket names visible to the configured credentials.
	ListBuckets(ctx context.Context) ([]string, error)

	// ListObjects returns folders and files directly under path in the configured bucket.
	// Folders sort before files; names compare case-insensitively.
	ListObjects(ctx context.Context, path string) ([]ObjectEntry, error)

	// PresignGet returns a time-limited download URL for key.
	PresignGet(key string) (string, error)

	// DownloadURL presigns a managed file URL (URL prefix + key).
	DownloadURL(fileURL string) (string, error)

	// IsManagedURL reports whether fileURL carries the managed URL prefix.
	IsManagedURL(fileURL string) bool

	// Upload streams the local file at localPath to key.
	Upload(ctx context.Context, key, localPath string) (*UploadResult, error)
}

// ObjectEntry is one folder or file in a listing
type ObjectEntry struct {
	Name         string     `json:"name"`
	Path         string     `json:"path"` // full key, or the common prefix for folders
	IsFolder     bool       `json:"is_folder"`
	Size         uint64     `json:"size"` // 0 for folders
	LastModified *time.Time `json:"last_modified,omitempty"`
}

// UploadResult describes a stored object
type UploadResult struct {
	Name string `json:"name"` // base name of the key
	Key  string `json:"key"`
	Path string `json:"path"` // "/" + key
	Size uint64 `json:"size"`
}

// Result represents outcome of one file in a batch upload
type Result struct {
	Source   string
	Key      string
	Upload   *UploadResult
	Success  bool
	Error    error
	Duration time.Duration
}

// SortEntries orders folders first, then by case-insensitive name. The sort is stable.
func SortEntries(entries []ObjectEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.IsFolder != b.IsFolder {
			return a.IsFolder
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
}
