// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a session record does not exist.
	ErrNotFound = errors.New("session not found")
	// ErrInvalidArgument marks caller errors (bad index, out of range values).
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidPhase is returned for a phase outside the accepted set.
	ErrInvalidPhase = fmt.Errorf("%w: invalid phase", ErrInvalidArgument)
	// ErrCatalogNotFound is returned when a reference document is missing.
	ErrCatalogNotFound = errors.New("catalog not found")
)

// StorageError reports a failed persistence operation.
type StorageError struct {
	Op  string
	ID  string
	Err error
}

func (e *StorageError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.ID, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError wraps err unless it is nil or already a classified domain error.
func NewStorageError(op, id string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidArgument) {
		return err
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, ID: id, Err: err}
}

// InvalidArgumentf builds an ErrInvalidArgument with a formatted detail.
func InvalidArgumentf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// IsStorage reports whether err is (or wraps) a StorageError.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
