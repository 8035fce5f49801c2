// Package domain defines the core value types and sentinel errors shared by
// the registry, the search coordinator, and the transport layer.
package domain

import "errors"

var (
	// ErrInvalidRequest signals a malformed search request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnsupportedSearchType signals an unrecognized search type.
	ErrUnsupportedSearchType = errors.New("unsupported search type")
	// ErrNoCorpusConfigured signals that no corpus connection is registered.
	ErrNoCorpusConfigured = errors.New("no corpus configured")
	// ErrNotConnected signals a missing or dead registry handle.
	ErrNotConnected = errors.New("not connected")
	// ErrConnectionFailed signals a failed connect or test attempt.
	ErrConnectionFailed = errors.New("connection failed")
	// ErrMalformedCiphertext signals vault input that is not valid iv:payload hex.
	ErrMalformedCiphertext = errors.New("malformed ciphertext")
	// ErrCorpusNotFound signals an unknown corpus id.
	ErrCorpusNotFound = errors.New("corpus not found")
)
