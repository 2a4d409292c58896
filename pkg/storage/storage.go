// Package storage uploads extraction results to durable object storage.
package storage

import "context"

// File describes an uploaded object.
type File struct {
	// ID is the provider-specific identifier (for S3, the object key).
	ID string
	// URL is a stable address for the uploaded object, if the provider
	// can construct one.
	URL string
	// Updated is true when the upload replaced an existing object.
	Updated bool
}

// Provider uploads extraction results. Implementations overwrite an
// existing object with the same folder/name rather than failing.
type Provider interface {
	UploadOrUpdate(ctx context.Context, folder, name string, content []byte) (*File, error)
}
