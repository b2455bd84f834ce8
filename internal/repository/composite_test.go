package repository

import (
	"context"
	"errors"
	"os"
	"testing"

	"autojv/internal/jdk"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{in: "exhaustive", want: Exhaustive},
		{in: "FIRST_SUCCESS", want: FirstSuccess},
		{in: "first-success", want: FirstSuccess},
		{in: "", want: FirstSuccess},
		{in: "random", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseStrategy(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestFirstSuccessStopsAtFirstNonEmpty(t *testing.T) {
	empty := newFakeSource(t, "empty")
	hit := newFakeSource(t, "hit", cand("zulu", "17.0.2"))
	never := newFakeSource(t, "never", cand("temurin", "17.0.3"))

	c := NewComposite(FirstSuccess, empty, hit, never)
	found, err := c.Search(context.Background(), requirement(t, "[17,18)"))
	require.NoError(t, err)

	require.Len(t, found, 1)
	assert.Equal(t, "zulu", found[0].Vendor)
	assert.EqualValues(t, 1, empty.searches.Load())
	assert.EqualValues(t, 1, hit.searches.Load())
	assert.EqualValues(t, 0, never.searches.Load())
}

func TestFirstSuccessAllEmpty(t *testing.T) {
	c := NewComposite(FirstSuccess, newFakeSource(t, "a"), newFakeSource(t, "b"))
	found, err := c.Search(context.Background(), requirement(t, "17"))
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestExhaustiveConcatenatesInSourceOrder(t *testing.T) {
	a := newFakeSource(t, "a", cand("zulu", "17.0.1"), cand("zulu", "17.0.2"))
	b := newFakeSource(t, "b")
	c := newFakeSource(t, "c", cand("temurin", "17.0.3"))

	comp := NewComposite(Exhaustive, a, b, c)
	found, err := comp.Search(context.Background(), requirement(t, "[17,18)"))
	require.NoError(t, err)

	require.Len(t, found, 3)
	assert.Equal(t, "17.0.1", found[0].Version.String())
	assert.Equal(t, "17.0.2", found[1].Version.String())
	assert.Equal(t, "temurin", found[2].Vendor)

	src, inner, ok := found[2].Origin()
	require.True(t, ok)
	assert.Same(t, c, src)
	assert.True(t, inner.Equal(cand("temurin", "17.0.3")))
}

func TestExhaustivePropagatesErrors(t *testing.T) {
	broken := newFakeSource(t, "broken")
	broken.searchErr = &jdk.SourceSearchError{Source: "broken", Err: errors.New("offline")}

	comp := NewComposite(Exhaustive, newFakeSource(t, "ok", cand("zulu", "17")), broken)
	_, err := comp.Search(context.Background(), requirement(t, "17"))
	var searchErr *jdk.SourceSearchError
	assert.ErrorAs(t, err, &searchErr)
}

func TestResolveRoutesToOrigin(t *testing.T) {
	a := newFakeSource(t, "a", cand("zulu", "21"))
	b := newFakeSource(t, "b", cand("temurin", "21"))
	ctx := context.Background()

	comp := NewComposite(Exhaustive, a, b)
	found, err := comp.Search(ctx, requirement(t, "21"))
	require.NoError(t, err)
	require.Len(t, found, 2)

	archive, err := comp.Resolve(ctx, found[1])
	require.NoError(t, err)
	assert.EqualValues(t, 0, a.resolves.Load())
	assert.EqualValues(t, 1, b.resolves.Load())
	assert.True(t, archive.Candidate.Equal(found[1]))

	data, err := os.ReadFile(archive.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "b:temurin")

	require.NoError(t, comp.Release(ctx, archive))
	assert.Equal(t, []string{archive.Path}, b.released)
	assert.Empty(t, a.released)
}

func TestResolveUntaggedCandidate(t *testing.T) {
	comp := NewComposite(FirstSuccess, newFakeSource(t, "a"))
	_, err := comp.Resolve(context.Background(), cand("zulu", "17"))
	assert.ErrorIs(t, err, ErrNoOrigin)

	var resolveErr *jdk.ResolveError
	assert.ErrorAs(t, err, &resolveErr)

	foreign := jdk.Tag(newFakeSource(t, "other"), cand("zulu", "17"))
	_, err = comp.Resolve(context.Background(), foreign)
	assert.ErrorIs(t, err, ErrNoOrigin)
}

func TestNestedCompositeRouting(t *testing.T) {
	leaf := newFakeSource(t, "leaf", cand("zulu", "11.0.20"))
	inner := NewComposite(FirstSuccess, leaf)
	outer := NewComposite(Exhaustive, newFakeSource(t, "other"), inner)
	ctx := context.Background()

	found, err := outer.Search(ctx, requirement(t, "[11,12)"))
	require.NoError(t, err)
	require.Len(t, found, 1)

	archive, err := outer.Resolve(ctx, found[0])
	require.NoError(t, err)
	assert.EqualValues(t, 1, leaf.resolves.Load())
	require.NoError(t, outer.Release(ctx, archive))
	assert.Len(t, leaf.released, 1)
}

func TestPurgeContinuesPastFailures(t *testing.T) {
	broken := newFakeSource(t, "broken")
	broken.purgeErr = errors.New("disk on fire")
	ok := newFakeSource(t, "ok", cand("zulu", "17"))

	comp := NewComposite(FirstSuccess, broken, ok)
	purged, err := comp.Purge(context.Background(), requirement(t, "17"))

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 1)

	require.Len(t, purged, 1)
	src, _, tagged := purged[0].Candidate.Origin()
	require.True(t, tagged)
	assert.Same(t, ok, src)
}
