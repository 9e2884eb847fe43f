package repository

import "errors"

var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("entity not found")
	// ErrConflict indicates a uniqueness constraint rejected the write.
	ErrConflict = errors.New("entity already exists")
)
