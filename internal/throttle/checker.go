package throttle

import (
	"context"
	"time"

	"autojv/internal/logging"
)

// Checker combines a policy with a store.
type Checker struct {
	Policy Policy
	Store  Store
	Now    func() time.Time
}

// NewChecker returns a checker that uses the wall clock.
func NewChecker(policy Policy, store Store) *Checker {
	return &Checker{Policy: policy, Store: store, Now: time.Now}
}

// UpdateCheckRequired reports whether fp should be searched remotely again.
// An unreadable store counts as "never checked".
func (c *Checker) UpdateCheckRequired(ctx context.Context, fp Fingerprint) bool {
	var last *time.Time
	t, ok, err := c.Store.LastCheckTime(ctx, fp)
	if err != nil {
		logger := logging.From(ctx)
		logger.Warn("Ignoring unreadable update check store", "err", err)
	} else if ok {
		last = &t
	}
	return c.Policy.IsUpdateCheckRequired(last, c.Now())
}

// RecordCheck stores the current time as the last check of fp.
func (c *Checker) RecordCheck(ctx context.Context, fp Fingerprint) error {
	return c.Store.SaveLastCheckTime(ctx, fp, c.Now())
}
