package domain

import "errors"

// Common domain errors
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrForbidden      = errors.New("forbidden")
	ErrInternalServer = errors.New("internal server error")
)

// Workflow errors (claim & pickup)
var (
	ErrPostNotFound        = errors.New("surplus post not found")
	ErrClaimNotFound       = errors.New("claim not found")
	ErrPostNotAvailable    = errors.New("surplus post is not available")
	ErrClaimNotActive      = errors.New("claim is not active")
	ErrStateConflict       = errors.New("status was changed by another request")
	ErrInvalidPickupSlot   = errors.New("invalid pickup slot")
	ErrInvalidCodeFormat   = errors.New("pickup code must be 6 digits")
	ErrInvalidCode         = errors.New("pickup code does not match")
	ErrCodeExpired         = errors.New("pickup code has expired")
	ErrOutsidePickupWindow = errors.New("outside the allowed pickup window")
	ErrInvalidStatus       = errors.New("unknown status value")
)
