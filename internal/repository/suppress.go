package repository

import (
	"context"
	"fmt"
	"sync/atomic"

	"autojv/internal/jdk"
	"autojv/internal/logging"
)

// ErrorSuppressing turns search failures of the wrapped source into empty
// results, so one unreachable catalog does not fail the whole search.
// Resolve, Release and Purge errors still propagate.
type ErrorSuppressing struct {
	wrapped jdk.Source
}

// SuppressedFailures counts the searches ErrorSuppressing turned into empty
// results under one context.
type SuppressedFailures struct {
	n atomic.Int32
}

// Count returns how many sources were skipped.
func (f *SuppressedFailures) Count() int {
	if f == nil {
		return 0
	}
	return int(f.n.Load())
}

type suppressedKey struct{}

// WithSuppressedFailures returns a context whose suppressed search failures
// are counted in the returned SuppressedFailures.
func WithSuppressedFailures(ctx context.Context) (context.Context, *SuppressedFailures) {
	f := &SuppressedFailures{}
	return context.WithValue(ctx, suppressedKey{}, f), f
}

func NewErrorSuppressing(wrapped jdk.Source) *ErrorSuppressing {
	return &ErrorSuppressing{wrapped: wrapped}
}

func (s *ErrorSuppressing) Name() string { return SourceName(s.wrapped) }

func (s *ErrorSuppressing) Search(ctx context.Context, req jdk.Requirement) ([]jdk.Candidate, error) {
	found, err := s.wrapped.Search(ctx, req)
	if err == nil {
		return found, nil
	}
	// Cancellation is never suppressed.
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if f, ok := ctx.Value(suppressedKey{}).(*SuppressedFailures); ok {
		f.n.Add(1)
	}
	logger := logging.From(ctx)
	logger.Warn("Error searching for JDKs, skipping source", "source", s.Name(), "err", err.Error())
	logger.Debug("Search failure detail", "source", s.Name(), "requirement", req.String(), "err", fmt.Sprintf("%#v", err))
	return nil, nil
}

func (s *ErrorSuppressing) Resolve(ctx context.Context, c jdk.Candidate) (jdk.ResolvedArchive, error) {
	return s.wrapped.Resolve(ctx, c)
}

func (s *ErrorSuppressing) Release(ctx context.Context, archive jdk.ResolvedArchive) error {
	return s.wrapped.Release(ctx, archive)
}

func (s *ErrorSuppressing) Purge(ctx context.Context, req jdk.Requirement) ([]jdk.ResolvedArchive, error) {
	return s.wrapped.Purge(ctx, req)
}
