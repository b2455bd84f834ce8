// Package planner splits a version range into per-major-version search
// units for catalogs that can only be queried one major version at a time.
package planner

import (
	"context"
	"fmt"
	"sort"

	"autojv/internal/versionrange"
)

// Unit is one catalog query: every build of a single major version.
type Unit struct {
	Major     int
	AllBuilds bool
}

func (u Unit) String() string { return fmt.Sprintf("major %d", u.Major) }

// MajorsFunc lists the major versions a catalog knows about.
type MajorsFunc func(ctx context.Context) ([]int, error)

// Plan returns the search units for r, newest major first. knownMajors is
// only consulted for ranges with restrictions.
func Plan(ctx context.Context, r *versionrange.Range, knownMajors MajorsFunc) ([]Unit, error) {
	if rec, ok := r.Recommended(); ok {
		return []Unit{{Major: rec.Major(), AllBuilds: true}}, nil
	}

	var (
		lowest         *int
		highest        *int
		unboundedLower bool
		unboundedUpper bool
	)
	for _, res := range r.Restrictions() {
		if res.Lower == nil {
			unboundedLower = true
		} else {
			m := res.Lower.Major()
			if lowest == nil || m < *lowest {
				lowest = &m
			}
		}
		if res.Upper == nil {
			unboundedUpper = true
			continue
		}
		m := res.Upper.Major()
		if !res.UpperInclusive && res.Upper.IsMajorOnly() {
			m--
		}
		if highest == nil || m > *highest {
			highest = &m
		}
	}
	if unboundedLower {
		lowest = nil
	}
	if unboundedUpper {
		highest = nil
	}

	majors, err := knownMajors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list major versions: %w", err)
	}

	seen := make(map[int]bool, len(majors))
	var units []Unit
	for _, m := range majors {
		if seen[m] {
			continue
		}
		seen[m] = true
		if lowest != nil && m < *lowest {
			continue
		}
		if highest != nil && m > *highest {
			continue
		}
		units = append(units, Unit{Major: m, AllBuilds: true})
	}

	sort.Slice(units, func(i, j int) bool { return units[i].Major > units[j].Major })
	return units, nil
}

// Execute runs search for each unit in order and returns the first
// non-empty result. search is expected to have already filtered its results
// against the original range.
func Execute[T any](ctx context.Context, units []Unit, search func(ctx context.Context, u Unit) ([]T, error)) ([]T, error) {
	for _, u := range units {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		results, err := search(ctx, u)
		if err != nil {
			return nil, err
		}
		if len(results) > 0 {
			return results, nil
		}
	}
	return nil, nil
}
