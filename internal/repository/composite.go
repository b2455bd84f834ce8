// Package repository combines JDK sources: fan-out across several
// backends, a local archive cache, and failure isolation.
package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"autojv/internal/jdk"
	"autojv/internal/logging"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// ErrNoOrigin is returned when a candidate was not produced by the
// composite it is handed to.
var ErrNoOrigin = errors.New("candidate did not come from this source")

// Strategy controls how a Composite searches its sources.
type Strategy int

const (
	// Exhaustive queries every source and concatenates their results in
	// source order.
	Exhaustive Strategy = iota
	// FirstSuccess queries sources in order and stops at the first that
	// returns anything.
	FirstSuccess
)

func (s Strategy) String() string {
	switch s {
	case Exhaustive:
		return "exhaustive"
	case FirstSuccess:
		return "first-success"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy accepts "exhaustive" and "first-success".
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-") {
	case "exhaustive":
		return Exhaustive, nil
	case "first-success", "":
		return FirstSuccess, nil
	}
	return 0, fmt.Errorf("unknown search strategy %q", s)
}

// Composite presents several sources as one. Every candidate it returns is
// tagged with the source that produced it, so Resolve and Release reach
// the right backend.
type Composite struct {
	strategy Strategy
	sources  []jdk.Source
}

// NewComposite combines sources, which are searched in the given order.
func NewComposite(strategy Strategy, sources ...jdk.Source) *Composite {
	return &Composite{strategy: strategy, sources: sources}
}

func (c *Composite) Name() string {
	names := make([]string, len(c.sources))
	for i, s := range c.sources {
		names[i] = SourceName(s)
	}
	return c.strategy.String() + "(" + strings.Join(names, ",") + ")"
}

// SourceName returns a source's name for logs and errors.
func SourceName(s jdk.Source) string {
	if n, ok := s.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", s)
}

func (c *Composite) Search(ctx context.Context, req jdk.Requirement) ([]jdk.Candidate, error) {
	if c.strategy == FirstSuccess {
		return c.searchFirstSuccess(ctx, req)
	}
	return c.searchExhaustive(ctx, req)
}

func (c *Composite) searchFirstSuccess(ctx context.Context, req jdk.Requirement) ([]jdk.Candidate, error) {
	logger := logging.From(ctx)
	for _, src := range c.sources {
		found, err := src.Search(ctx, req)
		if err != nil {
			return nil, err
		}
		if len(found) > 0 {
			logger.Debug("Source has results", "source", SourceName(src), "count", len(found))
			return tagAll(src, found), nil
		}
	}
	return nil, nil
}

func (c *Composite) searchExhaustive(ctx context.Context, req jdk.Requirement) ([]jdk.Candidate, error) {
	results := make([][]jdk.Candidate, len(c.sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range c.sources {
		g.Go(func() error {
			found, err := src.Search(gctx, req)
			if err != nil {
				return err
			}
			results[i] = tagAll(src, found)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return slices.Concat(results...), nil
}

func tagAll(src jdk.Source, found []jdk.Candidate) []jdk.Candidate {
	tagged := make([]jdk.Candidate, len(found))
	for i, cand := range found {
		tagged[i] = jdk.Tag(src, cand)
	}
	return tagged
}

func (c *Composite) origin(cand jdk.Candidate) (jdk.Source, jdk.Candidate, error) {
	src, inner, ok := cand.Origin()
	if !ok || !slices.Contains(c.sources, src) {
		return nil, jdk.Candidate{}, fmt.Errorf("%s: %w", cand, ErrNoOrigin)
	}
	return src, inner, nil
}

func (c *Composite) Resolve(ctx context.Context, cand jdk.Candidate) (jdk.ResolvedArchive, error) {
	src, inner, err := c.origin(cand)
	if err != nil {
		return jdk.ResolvedArchive{}, &jdk.ResolveError{Candidate: cand, Err: err}
	}
	archive, err := src.Resolve(ctx, inner)
	if err != nil {
		return jdk.ResolvedArchive{}, err
	}
	return jdk.ResolvedArchive{Candidate: cand, Path: archive.Path}, nil
}

func (c *Composite) Release(ctx context.Context, archive jdk.ResolvedArchive) error {
	src, inner, err := c.origin(archive.Candidate)
	if err != nil {
		return err
	}
	return src.Release(ctx, jdk.ResolvedArchive{Candidate: inner, Path: archive.Path})
}

// Purge asks every source to purge, even when some fail.
func (c *Composite) Purge(ctx context.Context, req jdk.Requirement) ([]jdk.ResolvedArchive, error) {
	var (
		purged []jdk.ResolvedArchive
		errs   *multierror.Error
	)
	for _, src := range c.sources {
		removed, err := src.Purge(ctx, req)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("purge %s: %w", SourceName(src), err))
		}
		for _, a := range removed {
			purged = append(purged, jdk.ResolvedArchive{Candidate: jdk.Tag(src, a.Candidate), Path: a.Path})
		}
	}
	return purged, errs.ErrorOrNil()
}
