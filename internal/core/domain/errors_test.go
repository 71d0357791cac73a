package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrEmptyFile", ErrEmptyFile},
		{"ErrNotPDF", ErrNotPDF},
		{"ErrEmptyQuery", ErrEmptyQuery},
		{"ErrQueryInFlight", ErrQueryInFlight},
		{"ErrNoDocumentSelected", ErrNoDocumentSelected},
		{"ErrDocumentNotReady", ErrDocumentNotReady},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

// TestErrNotFound tests ErrNotFound error
func TestErrNotFound(t *testing.T) {
	assert.Equal(t, "not found", ErrNotFound.Error())
	assert.True(t, errors.Is(ErrNotFound, ErrNotFound))
	assert.False(t, errors.Is(ErrNotFound, ErrInvalidInput))
}

func TestTransportError_Messages(t *testing.T) {
	tests := []struct {
		name string
		err  *TransportError
		want string
	}{
		{"timeout", &TransportError{Kind: TransportTimeout, Op: "submit query"}, "submit query: request timed out"},
		{"unreachable", &TransportError{Kind: TransportUnreachable, Op: "list documents"}, "list documents: backend unreachable"},
		{"server with detail", &TransportError{Kind: TransportServer, Op: "get chat", StatusCode: 404, Detail: "Chat not found"}, "get chat: Chat not found (status 404)"},
		{"server without detail", &TransportError{Kind: TransportServer, Op: "get chat", StatusCode: 500}, "get chat: server error (status 500)"},
		{"malformed", &TransportError{Kind: TransportMalformed, Op: "list chats"}, "list chats: malformed response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestTransportError_NotFoundMatches(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &TransportError{Kind: TransportServer, StatusCode: 404})
	assert.True(t, errors.Is(err, ErrNotFound))

	err = &TransportError{Kind: TransportServer, StatusCode: 500}
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestTransportError_Unwrap(t *testing.T) {
	err := &TransportError{Kind: TransportTimeout, Op: "x", Err: context.DeadlineExceeded}
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestTransportError_KindHelpers(t *testing.T) {
	timeout := fmt.Errorf("op: %w", &TransportError{Kind: TransportTimeout})
	unreachable := &TransportError{Kind: TransportUnreachable}
	server := &TransportError{Kind: TransportServer, StatusCode: 502}

	assert.True(t, IsTimeout(timeout))
	assert.False(t, IsTimeout(unreachable))
	assert.True(t, IsUnreachable(unreachable))
	assert.True(t, IsServerError(server))
	assert.False(t, IsServerError(ErrNotFound))
}

func TestIsValidationError(t *testing.T) {
	assert.True(t, IsValidationError(ErrNotPDF))
	assert.True(t, IsValidationError(fmt.Errorf("upload: %w", ErrEmptyFile)))
	assert.True(t, IsValidationError(ErrEmptyQuery))
	assert.False(t, IsValidationError(ErrQueryInFlight))
	assert.False(t, IsValidationError(&TransportError{Kind: TransportTimeout}))
}
