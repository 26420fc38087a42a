package gcsstore

import (
	"context"
)

// Store provides the object storage operations a reconciliation needs.
// This interface enables mocking in pipeline and handler tests.
type Store interface {
	// Fetch downloads object bytes from a gs:// URI.
	Fetch(ctx context.Context, uri string) ([]byte, error)

	// Upload writes data to a gs:// URI with the given content type.
	Upload(ctx context.Context, uri string, data []byte, contentType string) error
}

var _ Store = (*Client)(nil)
