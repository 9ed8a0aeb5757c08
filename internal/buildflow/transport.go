package buildflow

import "context"

// UploadTarget is the result of negotiating an upload with remote storage.
// UploadDestination is an opaque pointer understood by the same transport's
// PutBytes (a presigned URL, a file path, a map key). PublicRef is the
// stable reference recorded in backup metadata and usable for later download.
type UploadTarget struct {
	UploadDestination string
	PublicRef         string
}

// Transport is the remote object-storage contract the backup pipeline
// depends on. Implementations are provider-specific; the pipeline only ever
// performs this negotiate/put/negotiate/get dance. Failures wrap
// ErrTransportFailure.
type Transport interface {
	// RequestUploadTarget negotiates where to upload a named object under a
	// folder namespace.
	RequestUploadTarget(ctx context.Context, filename, contentType, folder string) (*UploadTarget, error)

	// PutBytes uploads data to a destination previously returned by
	// RequestUploadTarget.
	PutBytes(ctx context.Context, uploadDestination string, data []byte, contentType string) error

	// RequestDownloadTarget negotiates a download reference for a stored key.
	RequestDownloadTarget(ctx context.Context, key string) (string, error)

	// GetBytes downloads the object behind a reference previously returned
	// by RequestDownloadTarget.
	GetBytes(ctx context.Context, downloadRef string) ([]byte, error)

	// ValidateSetup verifies the transport is accessible and properly
	// configured.
	ValidateSetup(ctx context.Context) error
}

// FileSink is the local "save/pick a file" capability used for manual
// exports and imports. The OS implementation writes to a downloads
// directory; the user-facing picker is outside this module.
type FileSink interface {
	// OfferDownload hands bytes to the user as a named downloadable file.
	// Returns the location the file was written to.
	OfferDownload(data []byte, filename string) (string, error)

	// ReadSelectedFile returns the raw bytes of a user-selected file.
	ReadSelectedFile(ref string) ([]byte, error)
}
