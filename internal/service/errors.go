package service

import "errors"

var (
	ErrNotFound = errors.New("student not found")

	// ErrTimeout is always joined with context.DeadlineExceeded.
	ErrTimeout = errors.New("call timed out")
)
