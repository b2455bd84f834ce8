package selector

import (
	"testing"

	"autojv/internal/jdk"
	"autojv/internal/versionrange"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidate(vendor, version string, at jdk.ArchiveType) jdk.Candidate {
	return jdk.Candidate{
		Vendor:      vendor,
		Version:     versionrange.MustParseVersion(version),
		OS:          jdk.OSLinux,
		Arch:        jdk.ArchX64,
		ArchiveType: at,
		ReleaseType: jdk.ReleaseGA,
	}
}

func labels(cs []jdk.Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Vendor + "@" + c.Version.String() + "/" + string(c.ArchiveType)
	}
	return out
}

func TestKnownValues(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		rank   map[string]int
	}{
		{
			name:   "explicit wildcard",
			values: []string{"a", "b", "*", "c"},
			rank:   map[string]int{"a": 0, "b": 1, "c": 3, "unknown": 2},
		},
		{
			name:   "implicit wildcard",
			values: []string{"a", "b"},
			rank:   map[string]int{"a": 0, "b": 1, "unknown": 2},
		},
		{
			name:   "duplicate entries keep first",
			values: []string{"a", "b", "a"},
			rank:   map[string]int{"a": 0, "b": 1},
		},
		{
			name:   "only first wildcard counts",
			values: []string{"*", "a", "*"},
			rank:   map[string]int{"a": 1, "unknown": 0},
		},
		{
			name:   "empty list",
			values: nil,
			rank:   map[string]int{"a": 0, "unknown": 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := NewKnownValues(tt.values, "*")
			for v, want := range tt.rank {
				assert.Equal(t, want, k.Rank(v), v)
			}
		})
	}
}

func TestSortPreferenceListExample(t *testing.T) {
	s := New([]string{"zulu", "liberica", "*", "temurin"})
	input := []jdk.Candidate{
		candidate("temurin", "17", jdk.ArchiveZip),
		candidate("unknown", "17", jdk.ArchiveZip),
		candidate("zulu", "17", jdk.ArchiveZip),
		candidate("zulu", "16", jdk.ArchiveZip),
	}

	got := s.Sort(input)
	assert.Equal(t, []string{"temurin@17/zip", "unknown@17/zip", "zulu@16/zip", "zulu@17/zip"}, labels(got))

	best, ok := s.Best(input)
	require.True(t, ok)
	assert.Equal(t, "zulu@17/zip", labels([]jdk.Candidate{best})[0])
}

func TestSortArchiveTieBreak(t *testing.T) {
	s := New([]string{"zulu"})
	got := s.Sort([]jdk.Candidate{
		candidate("zulu", "21.0.3", jdk.ArchiveZip),
		candidate("zulu", "21.0.3", jdk.ArchiveTarGz),
	})
	assert.Equal(t, []string{"zulu@21.0.3/tar.gz", "zulu@21.0.3/zip"}, labels(got))
}

func TestSortIsStableForTies(t *testing.T) {
	s := New([]string{"zulu", "*"})
	a := candidate("corretto", "17.0.2", jdk.ArchiveZip)
	b := candidate("temurin", "17.0.2", jdk.ArchiveZip)
	c := candidate("oracle_open_jdk", "17.0.2", jdk.ArchiveZip)

	assert.Equal(t, labels([]jdk.Candidate{a, b, c}), labels(s.Sort([]jdk.Candidate{a, b, c})))
	assert.Equal(t, labels([]jdk.Candidate{c, a, b}), labels(s.Sort([]jdk.Candidate{c, a, b})))
}

func TestEmptyPreferencePassesThroughVendorOrder(t *testing.T) {
	s := New(nil)
	in := []jdk.Candidate{
		candidate("temurin", "17", jdk.ArchiveZip),
		candidate("zulu", "17", jdk.ArchiveZip),
	}
	assert.Equal(t, labels(in), labels(s.Sort(in)))
}

func TestCompareIsTransitive(t *testing.T) {
	s := New([]string{"zulu", "liberica", "*", "temurin"})
	pool := []jdk.Candidate{
		candidate("zulu", "17", jdk.ArchiveZip),
		candidate("zulu", "17", jdk.ArchiveTarGz),
		candidate("zulu", "11.0.2", jdk.ArchiveZip),
		candidate("liberica", "21", jdk.ArchiveZip),
		candidate("corretto", "17", jdk.ArchiveZip),
		candidate("temurin", "21", jdk.ArchiveTarGz),
	}
	for _, a := range pool {
		for _, b := range pool {
			for _, c := range pool {
				if s.Compare(a, b) < 0 && s.Compare(b, c) < 0 {
					assert.Negative(t, s.Compare(a, c))
				}
			}
			assert.Equal(t, s.Compare(a, b) < 0, s.Compare(b, a) > 0)
		}
	}
}

func TestVendorMatchingIgnoresCase(t *testing.T) {
	s := New([]string{"Zulu", "temurin"})
	got := s.Sort([]jdk.Candidate{
		candidate("zulu", "17", jdk.ArchiveZip),
		candidate("Temurin", "17", jdk.ArchiveZip),
	})
	assert.Equal(t, "zulu", got[1].Vendor)
}

func TestAllows(t *testing.T) {
	assert.True(t, New(nil).Allows("anything"))
	assert.True(t, New([]string{"zulu", "*"}).Allows("corretto"))

	strict := New([]string{"zulu", "temurin"})
	assert.True(t, strict.Allows("ZULU"))
	assert.False(t, strict.Allows("corretto"))
	assert.Len(t, strict.Filter([]jdk.Candidate{
		candidate("zulu", "17", jdk.ArchiveZip),
		candidate("corretto", "17", jdk.ArchiveZip),
	}), 1)
}

func TestBestEmpty(t *testing.T) {
	_, ok := New(nil).Best(nil)
	assert.False(t, ok)
}
