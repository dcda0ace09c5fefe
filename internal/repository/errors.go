// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios. For example, ErrForbidden indicates that the current user
// is not authorized to operate on a ticket or payment owned by someone
// else, while ErrConflict signals that an optimistic-version guard
// rejected a concurrent update.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a guarded update touched no rows
// because another writer got there first (ticket version mismatch,
// payment already settled). Callers should re-read and retry the
// whole operation, not just the write. Handlers translate this into
// an HTTP 409 response.
var ErrConflict = errors.New("conflict")
