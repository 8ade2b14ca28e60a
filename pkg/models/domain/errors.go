package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDatasetNotFound = errors.New("dataset not found")
	ErrInvalidCriteria = errors.New("invalid criteria")
)

// LoadError reports a source that is missing or unreadable.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// ParseWarning is a value that could not be typed and was replaced by a
// null or zero.
type ParseWarning struct {
	Row    int
	Column Column
	Value  string
}

func (w ParseWarning) String() string {
	return fmt.Sprintf("row %d: cannot parse %s value %q", w.Row, w.Column, w.Value)
}

// CriteriaError describes filter input that cannot be turned into criteria.
// It matches ErrInvalidCriteria.
type CriteriaError struct {
	Msg string
}

func (e *CriteriaError) Error() string {
	return e.Msg
}

func (e *CriteriaError) Is(target error) bool {
	return target == ErrInvalidCriteria
}
