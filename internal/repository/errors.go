// Package repository implements MySQL persistence for users, listings,
// bookings and the audit log. Sentinel values defined here let handlers
// distinguish failure scenarios; engine-facing error translation lives
// in store.go.
package repository

import "errors"

// ErrEmailExists is returned by UserRepo.Create when the email is
// already registered. Handlers translate this into HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")
