package repository

import (
	"context"
	"errors"
	"fmt"

	"autojv/internal/jdk"
	"autojv/internal/logging"

	"golang.org/x/sync/singleflight"
)

// Caching keeps every archive the wrapped source resolves in a Store.
// Searches pass straight through.
type Caching struct {
	namespace string
	store     *Store
	wrapped   jdk.Source

	group singleflight.Group
}

// NewCaching caches wrapped's archives under namespace in store.
func NewCaching(namespace string, store *Store, wrapped jdk.Source) *Caching {
	return &Caching{namespace: namespace, store: store, wrapped: wrapped}
}

func (c *Caching) Name() string { return SourceName(c.wrapped) }

func (c *Caching) Search(ctx context.Context, req jdk.Requirement) ([]jdk.Candidate, error) {
	return c.wrapped.Search(ctx, req)
}

// Resolve returns the cached archive, downloading it through the wrapped
// source on a miss. Concurrent misses for the same key share one download.
func (c *Caching) Resolve(ctx context.Context, cand jdk.Candidate) (jdk.ResolvedArchive, error) {
	key := KeyFor(c.namespace, cand)
	if p, err := c.store.Find(key); err == nil {
		logging.From(ctx).Debug("Cache hit", "key", key.String())
		return jdk.ResolvedArchive{Candidate: cand, Path: p}, nil
	} else if !errors.Is(err, ErrNotCached) {
		return jdk.ResolvedArchive{}, &jdk.ResolveError{Candidate: cand, Err: err}
	}

	ch := c.group.DoChan(key.String(), func() (any, error) {
		// Another caller may have finished while we waited.
		if p, err := c.store.Find(key); err == nil {
			return p, nil
		}
		// Every waiter shares this download, so the first caller's
		// cancellation must not end it.
		return c.fill(context.WithoutCancel(ctx), key, cand)
	})
	select {
	case <-ctx.Done():
		return jdk.ResolvedArchive{}, &jdk.ResolveError{Candidate: cand, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return jdk.ResolvedArchive{}, res.Err
		}
		return jdk.ResolvedArchive{Candidate: cand, Path: res.Val.(string)}, nil
	}
}

func (c *Caching) fill(ctx context.Context, key Key, cand jdk.Candidate) (string, error) {
	logger := logging.From(ctx)
	logger.Debug("Cache miss", "key", key.String())

	archive, err := c.wrapped.Resolve(ctx, cand)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := c.wrapped.Release(ctx, archive); err != nil {
			logger.Warn("Failed to release temporary archive", "path", archive.Path, "err", err)
		}
	}()

	p, err := c.store.Install(key, archive.Path)
	if err != nil {
		return "", &jdk.ResolveError{Candidate: cand, Err: err}
	}
	if err := c.store.recordArchive(key, cand.ReleaseType); err != nil {
		return "", &jdk.ResolveError{Candidate: cand, Err: fmt.Errorf("write cache metadata: %w", err)}
	}
	return p, nil
}

// Release does nothing: cached archives outlive the resolve.
func (c *Caching) Release(context.Context, jdk.ResolvedArchive) error { return nil }

// Purge deletes every cached archive matching req, whatever its archive
// type, along with the sidecars. Then the wrapped source is purged.
func (c *Caching) Purge(ctx context.Context, req jdk.Requirement) ([]jdk.ResolvedArchive, error) {
	purged, err := c.store.purge(ctx, c.namespace, req)
	if err != nil {
		return purged, err
	}

	inner, err := c.wrapped.Purge(ctx, req)
	purged = append(purged, inner...)
	return purged, err
}
