package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRequest signals a malformed query or request parameter.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrSearchUnavailable signals that the search engine could not serve the request.
	ErrSearchUnavailable = errors.New("search unavailable")
	// ErrVersionNotFound signals a dangling current-version reference.
	ErrVersionNotFound = errors.New("version does not exist")
)
