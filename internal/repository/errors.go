// Package repository defines error types that are reused across the
// repositories and the workflows built on top of them.  Handlers translate
// these sentinels into HTTP status codes with errors.Is, so callers should
// wrap them (fmt.Errorf("%w: ...")) rather than replace them.
package repository

import "errors"

// ErrNotFound is returned when a referenced row does not exist, or exists
// but is not visible to the caller (e.g. a request addressed to someone
// else).  Handlers translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller lacks the role, ownership or
// assignment relation required for an operation.  Handlers should
// translate this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a state-transition precondition does not
// hold: a duplicate pending request, a request that was already answered,
// a worker that is no longer available.  Handlers should translate this
// into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrBadRequest signals a business-rule violation in the input itself.
var ErrBadRequest = errors.New("bad request")

// ErrInsufficientStock is returned when an order asks for more of a
// material than is in stock.  It is a business error (HTTP 400), not a
// system fault.
var ErrInsufficientStock = errors.New("insufficient stock")
