// Package throttle decides when a remote JDK catalog should be asked again
// about a search it has already answered, and persists when it last was.
package throttle

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Policy decides whether an update check is due.
type Policy interface {
	// IsUpdateCheckRequired reports whether a check is due at now, given the
	// last check time. last is nil if no check has been recorded.
	IsUpdateCheckRequired(last *time.Time, now time.Time) bool
	String() string
}

// Never skips every remote re-check once a local match exists.
type Never struct{}

func (Never) IsUpdateCheckRequired(*time.Time, time.Time) bool { return false }
func (Never) String() string                                  { return "never" }

// Always re-checks every time.
type Always struct{}

func (Always) IsUpdateCheckRequired(*time.Time, time.Time) bool { return true }
func (Always) String() string                                  { return "always" }

// EveryDuration re-checks once the last check is older than D.
type EveryDuration struct {
	D time.Duration
}

func (e EveryDuration) IsUpdateCheckRequired(last *time.Time, now time.Time) bool {
	if last == nil {
		return true
	}
	return last.Add(e.D).Before(now)
}

func (e EveryDuration) String() string { return "every " + e.D.String() }

// isoDuration matches the day-time subset of ISO-8601 durations, e.g. P1D,
// PT12H or P1DT30M.
var isoDuration = regexp.MustCompile(`^P(?:(\d+)W)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)

// ParsePolicy accepts "never", "always", an ISO-8601 duration such as "P1D"
// or a Go duration such as "36h".
func ParsePolicy(s string) (Policy, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "never":
		return Never{}, nil
	case "always":
		return Always{}, nil
	case "":
		return nil, fmt.Errorf("empty update policy")
	}

	if d, err := time.ParseDuration(s); err == nil {
		return EveryDuration{D: d}, nil
	}
	d, err := parseISODuration(strings.ToUpper(s))
	if err != nil {
		return nil, fmt.Errorf("invalid update policy %q: %w", s, err)
	}
	return EveryDuration{D: d}, nil
}

func parseISODuration(s string) (time.Duration, error) {
	m := isoDuration.FindStringSubmatch(s)
	if m == nil || s == "P" || strings.HasSuffix(s, "T") {
		return 0, fmt.Errorf("not an ISO-8601 duration")
	}
	units := []time.Duration{7 * 24 * time.Hour, 24 * time.Hour, time.Hour, time.Minute}
	var total time.Duration
	for i, unit := range units {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0, err
		}
		total += time.Duration(n) * unit
	}
	if m[5] != "" {
		secs, err := strconv.ParseFloat(m[5], 64)
		if err != nil {
			return 0, err
		}
		total += time.Duration(secs * float64(time.Second))
	}
	return total, nil
}
