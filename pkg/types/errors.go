package types

import "errors"

// Backend lifecycle errors.
var (
	ErrDetached        = errors.New("backend is detached")
	ErrAlreadyAttached = errors.New("backend is already attached")
)

// Entity errors.
var (
	ErrNotFound         = errors.New("entity not found")
	ErrInvalidID        = errors.New("invalid procedure identifier")
	ErrInvalidData      = errors.New("invalid entity data")
	ErrInvalidName      = errors.New("invalid person name")
	ErrDuplicateID      = errors.New("duplicate procedure identifier")
	ErrAlreadyConfirmed = errors.New("procedure already confirmed by this person")
)

// Access and rendering errors.
var (
	ErrUnauthorized  = errors.New("session is not authorized")
	ErrRenderFailed  = errors.New("document rendering failed")
	ErrUnknownTable  = errors.New("unknown table")
	ErrArchiveFailed = errors.New("document archive failed")
)
