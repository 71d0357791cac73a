package driving

import (
	"context"

	"github.com/custodia-labs/pagechat/internal/core/domain"
)

// DocumentService manages uploaded documents and their indexing status.
type DocumentService interface {
	// List returns the cached document list, loading it on first use.
	List(ctx context.Context) ([]domain.Document, error)

	// Refresh refetches the document list and starts tracking every
	// document that is still indexing.
	Refresh(ctx context.Context) ([]domain.Document, error)

	// Get retrieves a document by ID from the backend.
	Get(ctx context.Context, id int64) (*domain.Document, error)

	// Status returns the backend's current status report for a document.
	Status(ctx context.Context, id int64) (*domain.DocumentStatusReport, error)

	// Upload validates and uploads a PDF, then tracks its indexing.
	// Validation failures are returned before any network call.
	Upload(ctx context.Context, filename string, content []byte) (*domain.Document, error)

	// UploadFile reads a PDF from disk and uploads it.
	UploadFile(ctx context.Context, path string) (*domain.Document, error)

	// Delete removes a document from the backend and the cache.
	Delete(ctx context.Context, id int64) error

	// Watch tracks a document and emits every applied status change.
	// The channel closes once the document is terminal or ctx ends.
	Watch(ctx context.Context, id int64) (<-chan domain.StatusEvent, error)

	// WatchDirectory uploads every PDF that appears in dir.
	// The channel closes when ctx ends.
	WatchDirectory(ctx context.Context, dir string) (<-chan UploadResult, error)
}

// UploadResult reports the outcome of one automatic upload.
type UploadResult struct {
	// Path is the file that triggered the upload.
	Path string

	// Document is set on success.
	Document *domain.Document

	// Err is set on failure.
	Err error
}
