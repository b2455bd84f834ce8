package jdk

import (
	"errors"
	"fmt"
)

// ErrNotFound matches any *NotFoundError.
var ErrNotFound = errors.New("no matching JDK found")

// RequestError reports a requirement that cannot be searched for at all,
// such as a malformed range or an unknown translation scheme.
type RequestError struct {
	Input string
	Err   error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("invalid request %q: %v", e.Input, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// SourceSearchError reports a backend that could not be queried.
type SourceSearchError struct {
	Source string
	Err    error
}

func (e *SourceSearchError) Error() string {
	return fmt.Sprintf("search %s: %v", e.Source, e.Err)
}

func (e *SourceSearchError) Unwrap() error { return e.Err }

// ResolveError reports a candidate whose archive could not be materialized.
type ResolveError struct {
	Candidate Candidate
	Err       error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolve %s: %v", e.Candidate, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }

// ThrottleStoreError reports an unreadable or corrupt update-check store.
type ThrottleStoreError struct {
	Path string
	Err  error
}

func (e *ThrottleStoreError) Error() string {
	return fmt.Sprintf("update check store %s: %v", e.Path, e.Err)
}

func (e *ThrottleStoreError) Unwrap() error { return e.Err }

// NotFoundError reports a search that found no match. Skipped counts the
// sources that failed and were left out of the search.
type NotFoundError struct {
	Requirement Requirement
	Skipped     int
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("no JDK found matching %s", e.Requirement)
	switch {
	case e.Skipped == 1:
		msg += " (1 source could not be searched)"
	case e.Skipped > 1:
		msg += fmt.Sprintf(" (%d sources could not be searched)", e.Skipped)
	}
	return msg
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }
