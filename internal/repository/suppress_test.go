package repository

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"autojv/internal/jdk"
	"autojv/internal/logging"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorSuppressingSearch(t *testing.T) {
	var buf bytes.Buffer
	ctx := logging.WithLogger(context.Background(), logging.New(&buf, log.WarnLevel))

	broken := newFakeSource(t, "foojay")
	broken.searchErr = &jdk.SourceSearchError{Source: "foojay", Err: errors.New("503")}

	found, err := NewErrorSuppressing(broken).Search(ctx, requirement(t, "17"))
	require.NoError(t, err)
	assert.Empty(t, found)
	assert.Contains(t, buf.String(), "foojay")
	assert.NotContains(t, buf.String(), "Search failure detail")
}

func TestErrorSuppressingKeepsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	broken := newFakeSource(t, "foojay")
	broken.searchErr = context.Canceled

	_, err := NewErrorSuppressing(broken).Search(ctx, requirement(t, "17"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestErrorSuppressingPropagatesPurge(t *testing.T) {
	broken := newFakeSource(t, "foojay")
	broken.purgeErr = errors.New("read-only")

	_, err := NewErrorSuppressing(broken).Purge(context.Background(), requirement(t, "17"))
	assert.Error(t, err)
}

func TestFirstSuccessSkipsSuppressedFailure(t *testing.T) {
	broken := newFakeSource(t, "broken")
	broken.searchErr = errors.New("timeout")
	good := newFakeSource(t, "good", cand("zulu", "17.0.9"))

	comp := NewComposite(FirstSuccess, NewErrorSuppressing(broken), good)
	found, err := comp.Search(context.Background(), requirement(t, "[17,18)"))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "17.0.9", found[0].Version.String())
}

func TestErrorSuppressingCountsSkippedSources(t *testing.T) {
	broken := newFakeSource(t, "broken")
	broken.searchErr = errors.New("timeout")
	good := newFakeSource(t, "good", cand("zulu", "11.0.2"))
	comp := NewComposite(Exhaustive, NewErrorSuppressing(broken), NewErrorSuppressing(good))

	ctx, skipped := WithSuppressedFailures(context.Background())
	found, err := comp.Search(ctx, requirement(t, "[17,18)"))
	require.NoError(t, err)
	assert.Empty(t, found)
	assert.Equal(t, 1, skipped.Count())

	// Without a counter in the context nothing is recorded.
	_, err = NewErrorSuppressing(broken).Search(context.Background(), requirement(t, "17"))
	require.NoError(t, err)
	assert.Equal(t, 1, skipped.Count())
}
