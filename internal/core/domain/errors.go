package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Validation Errors. These are raised before any network call.

	// ErrEmptyFile indicates an upload with no content.
	ErrEmptyFile = errors.New("file is empty")

	// ErrNotPDF indicates an upload that is not a PDF document.
	ErrNotPDF = errors.New("only PDF files are supported")

	// ErrEmptyQuery indicates a query that is blank after trimming.
	ErrEmptyQuery = errors.New("query is empty")

	// Session Errors.

	// ErrQueryInFlight indicates a query for the same chat is still running.
	ErrQueryInFlight = errors.New("a query is already in progress for this chat")

	// ErrNoDocumentSelected indicates an operation needs a selected document.
	ErrNoDocumentSelected = errors.New("no document selected")

	// ErrDocumentNotReady indicates the document cannot be queried yet.
	ErrDocumentNotReady = errors.New("document is not ready")
)

// TransportErrorKind classifies a failed backend exchange.
type TransportErrorKind string

// Transport error kinds.
const (
	// TransportTimeout means the request exceeded its deadline.
	TransportTimeout TransportErrorKind = "timeout"

	// TransportUnreachable means the backend could not be contacted.
	TransportUnreachable TransportErrorKind = "unreachable"

	// TransportServer means the backend answered with an error status.
	TransportServer TransportErrorKind = "server"

	// TransportMalformed means the response body could not be decoded.
	TransportMalformed TransportErrorKind = "malformed"
)

// TransportError is returned when a backend call fails.
type TransportError struct {
	Kind TransportErrorKind

	// Op names the failed operation, e.g. "submit query".
	Op string

	// StatusCode is the HTTP status for server errors.
	StatusCode int

	// Detail is the server-provided message when one was returned.
	Detail string

	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	switch e.Kind {
	case TransportTimeout:
		return fmt.Sprintf("%s: request timed out", e.Op)
	case TransportUnreachable:
		return fmt.Sprintf("%s: backend unreachable", e.Op)
	case TransportServer:
		if e.Detail != "" {
			return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Detail, e.StatusCode)
		}
		return fmt.Sprintf("%s: server error (status %d)", e.Op, e.StatusCode)
	case TransportMalformed:
		return fmt.Sprintf("%s: malformed response", e.Op)
	default:
		return fmt.Sprintf("%s: transport error", e.Op)
	}
}

// Unwrap returns the underlying cause.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is lets 404 responses match ErrNotFound.
func (e *TransportError) Is(target error) bool {
	return target == ErrNotFound && e.Kind == TransportServer && e.StatusCode == 404
}

// IsTimeout returns true if err is a transport timeout.
func IsTimeout(err error) bool {
	return transportKind(err) == TransportTimeout
}

// IsUnreachable returns true if the backend could not be contacted.
func IsUnreachable(err error) bool {
	return transportKind(err) == TransportUnreachable
}

// IsServerError returns true if the backend answered with an error status.
func IsServerError(err error) bool {
	return transportKind(err) == TransportServer
}

// IsValidationError returns true for errors raised before any network call.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptyFile) ||
		errors.Is(err, ErrNotPDF) ||
		errors.Is(err, ErrEmptyQuery) ||
		errors.Is(err, ErrInvalidInput)
}

func transportKind(err error) TransportErrorKind {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Kind
	}
	return ""
}
