// Package apperr holds application-level sentinel errors shared by the
// service, API and MCP layers.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidPost   = errors.New("invalid post")
)
