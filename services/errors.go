package services

import "errors"

var (
	// ErrEmptyPath is returned when a document path is empty.
	ErrEmptyPath = errors.New("file path must not be empty")
	// ErrEmptyQuery is returned by the question flow for a blank question.
	// Search itself answers a blank query with no passages.
	ErrEmptyQuery = errors.New("query must not be empty")
	// ErrCacheUnavailable wraps every page cache store failure.
	ErrCacheUnavailable = errors.New("page cache unavailable")
)
