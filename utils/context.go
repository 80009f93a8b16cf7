package utils

import (
	"context"
	"time"
)

// DefaultTimeout bounds ordinary requests once the index is built.
const DefaultTimeout = 30 * time.Second

// WithTimeout creates a context with default timeout
func WithTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, DefaultTimeout)
}

// WithCustomTimeout creates a context with custom timeout duration. A
// non-positive duration applies DefaultTimeout.
func WithCustomTimeout(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = DefaultTimeout
	}
	return context.WithTimeout(parent, duration)
}
