package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/custodia-labs/pagechat/internal/core/domain"
	"github.com/custodia-labs/pagechat/internal/core/ports/driven"
	"github.com/custodia-labs/pagechat/internal/core/ports/driving"
	"github.com/custodia-labs/pagechat/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// ErrWatcherNotConfigured is returned by WatchDirectory without a watcher.
var ErrWatcherNotConfigured = errors.New("directory watcher not configured")

const pdfMIME = "application/pdf"

// DocumentService manages uploaded documents.
type DocumentService struct {
	backend   driven.DocumentBackend
	cache     driven.EntityCache
	lifecycle *LifecycleController
	watcher   driven.DirectoryWatcher
	now       func() time.Time
}

// NewDocumentService creates a new document service. watcher may be nil.
func NewDocumentService(
	backend driven.DocumentBackend,
	cache driven.EntityCache,
	lifecycle *LifecycleController,
	watcher driven.DirectoryWatcher,
) *DocumentService {
	return &DocumentService{
		backend:   backend,
		cache:     cache,
		lifecycle: lifecycle,
		watcher:   watcher,
		now:       time.Now,
	}
}

// List returns the cached document list.
func (s *DocumentService) List(ctx context.Context) ([]domain.Document, error) {
	docs, err := s.cache.Documents(ctx)
	if err != nil {
		return nil, err
	}
	s.lifecycle.TrackAll(docs)
	return docs, nil
}

// Refresh refetches the document list.
func (s *DocumentService) Refresh(ctx context.Context) ([]domain.Document, error) {
	if err := s.cache.Invalidate(ctx, domain.DocumentsKey()); err != nil {
		return nil, err
	}
	return s.List(ctx)
}

// Get retrieves a document from the backend.
func (s *DocumentService) Get(ctx context.Context, id int64) (*domain.Document, error) {
	return s.backend.GetDocument(ctx, id)
}

// Status returns the backend's status report for a document.
func (s *DocumentService) Status(ctx context.Context, id int64) (*domain.DocumentStatusReport, error) {
	return s.backend.GetDocumentStatus(ctx, id)
}

// ValidatePDF rejects empty and non-PDF uploads.
func ValidatePDF(filename string, content []byte) error {
	if len(content) == 0 {
		return fmt.Errorf("%s: %w", filename, domain.ErrEmptyFile)
	}
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return fmt.Errorf("%s: %w", filename, domain.ErrNotPDF)
	}
	if mime := mimetype.Detect(content); !mime.Is(pdfMIME) {
		return fmt.Errorf("%s: %w (content is %s)", filename, domain.ErrNotPDF, mime.String())
	}
	return nil
}

// Upload validates and uploads a PDF, then starts tracking its indexing.
func (s *DocumentService) Upload(ctx context.Context, filename string, content []byte) (*domain.Document, error) {
	if err := ValidatePDF(filename, content); err != nil {
		return nil, err
	}

	receipt, err := s.backend.UploadDocument(ctx, filename, bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	if receipt.Message != "" {
		logger.Info("upload %s: %s", filename, receipt.Message)
	}

	doc := receipt.Document(s.now())
	s.cache.PutDocument(doc)
	s.lifecycle.Track(doc.ID)

	return &doc, nil
}

// UploadFile reads a PDF from disk and uploads it.
func (s *DocumentService) UploadFile(ctx context.Context, path string) (*domain.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return s.Upload(ctx, filepath.Base(path), content)
}

// Delete removes a document. A document the backend no longer knows is
// still dropped locally; the not-found error is returned to the caller.
func (s *DocumentService) Delete(ctx context.Context, id int64) error {
	err := s.backend.DeleteDocument(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	s.lifecycle.Forget(id)
	s.cache.RemoveDocument(id)
	return err
}

// Watch emits each applied status change of a document until it is terminal.
func (s *DocumentService) Watch(ctx context.Context, id int64) (<-chan domain.StatusEvent, error) {
	if _, ok := s.cache.Document(id); !ok {
		if _, err := s.Refresh(ctx); err != nil {
			return nil, err
		}
		if _, ok := s.cache.Document(id); !ok {
			return nil, fmt.Errorf("document %d: %w", id, domain.ErrNotFound)
		}
	}

	watchCtx, cancel := context.WithCancel(ctx)
	events := s.lifecycle.Subscribe(watchCtx)
	out := make(chan domain.StatusEvent, 8)

	// Checked after subscribing so a transition in between is not missed.
	if doc, _ := s.cache.Document(id); doc.Status.IsTerminal() {
		cancel()
		out <- domain.StatusEvent{DocumentID: id, Status: doc.Status, Message: doc.ErrorMessage}
		close(out)
		return out, nil
	}

	s.lifecycle.Track(id)

	go func() {
		defer close(out)
		defer cancel()

		for ev := range events {
			if ev.DocumentID != id {
				continue
			}
			select {
			case out <- ev:
			case <-watchCtx.Done():
				return
			}
			if ev.Status.IsTerminal() {
				return
			}
		}
	}()

	return out, nil
}

// WatchDirectory uploads every PDF written into dir.
func (s *DocumentService) WatchDirectory(ctx context.Context, dir string) (<-chan driving.UploadResult, error) {
	if s.watcher == nil {
		return nil, ErrWatcherNotConfigured
	}

	paths, err := s.watcher.Watch(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	out := make(chan driving.UploadResult)
	go func() {
		defer close(out)

		uploaded := make(map[string]struct{})
		for path := range paths {
			if !strings.EqualFold(filepath.Ext(path), ".pdf") {
				logger.Debug("watch: skipping %s", path)
				continue
			}
			if _, ok := uploaded[path]; ok {
				continue
			}

			doc, err := s.UploadFile(ctx, path)
			if err == nil {
				uploaded[path] = struct{}{}
			}

			select {
			case out <- driving.UploadResult{Path: path, Document: doc, Err: err}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}
