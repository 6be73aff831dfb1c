/*
Package storage provides file storage for chat attachments on top of
S3-compatible object stores.

Attachment objects are keyed under the chat session id they belong to
(`<sessionID>/<objectID><ext>`), so access checks reduce to a key prefix
check against the caller's active session.
*/
package storage

import (
	"context"
	"io"
	"time"
)

// ServiceConfig holds the configuration required to connect to the storage
// backend.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// Service is the file storage interface used by the attachment handlers.
type Service interface {
	// PresignUpload generates a pre-signed URL for uploading a file directly
	// from the client.
	PresignUpload(
		ctx context.Context,
		key string,
		mimeType string,
		fileSize int64,
		duration time.Duration,
	) (string, error)

	// PresignDownload generates a pre-signed URL for downloading a file.
	PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error)

	// Upload streams a file to the bucket server-side, for clients that
	// cannot use pre-signed PUT URLs.
	Upload(ctx context.Context, key string, mimeType string, body io.Reader) error

	// Delete removes the file specified by the given key.
	Delete(ctx context.Context, key string) error

	// GetObjectMetadata retrieves the object's metadata.
	GetObjectMetadata(ctx context.Context, key string) (map[string]string, error)
}

// NewService initializes a Service backed by the configured S3-compatible
// endpoint.
func NewService(cfg ServiceConfig) (Service, error) {
	return newS3Client(cfg)
}
