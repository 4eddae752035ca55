package assetstore

import (
	"errors"

	"github.com/hashvault/assetstore/internal/storage"
)

var (
	// ErrInvalidInput is returned when a caller passes a missing or
	// malformed filename, hash, or variant. It is raised before any
	// backend I/O.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when the fail policy hits an existing key,
	// or the rename policy exhausts its candidate budget.
	ErrConflict = errors.New("key conflict")

	// ErrWriteFailed is returned when the backend byte transfer fails.
	ErrWriteFailed = errors.New("write failed")

	// ErrMisconfigured is returned by New when the store is constructed
	// without a usable backend or strategy.
	ErrMisconfigured = errors.New("store misconfigured")
)

// ErrNotFound is returned by read, visibility, and metadata operations
// addressing a key absent from the backend.
var ErrNotFound = storage.ErrNotFound
