package translate

import (
	"testing"

	"autojv/internal/jdk"
	"autojv/internal/versionrange"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func versionStrings(vs []versionrange.Version) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.String()
	}
	return out
}

func TestMajorAndFullTranslate(t *testing.T) {
	tests := []struct {
		spec string
		want string
	}{
		{"17", "[17,18)"},
		{"17.0.2", "17.0.2"},
		{"[17,18)", "[17,18)"},
		{"[11]", "[11]"},
		{"(,11],[17,)", "(,11],[17,)"},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got := MajorAndFull{}.TranslateToSearchCriteria(versionrange.MustParse(tt.spec))
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestUnmodifiedTranslate(t *testing.T) {
	r := versionrange.MustParse("17")
	assert.Same(t, r, Unmodified{}.TranslateToSearchCriteria(r))
}

func TestExpandForRegistration(t *testing.T) {
	tests := []struct {
		name    string
		scheme  Scheme
		version string
		want    []string
	}{
		{"unmodified full", Unmodified{}, "17.0.2", []string{"17.0.2"}},
		{"major and full", MajorAndFull{}, "17.0.2", []string{"17.0.2", "17"}},
		{"major only collapses", MajorAndFull{}, "7", []string{"7"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.scheme.ExpandForRegistration(versionrange.MustParseVersion(tt.version))
			assert.Equal(t, tt.want, versionStrings(got))
		})
	}
}

func TestExpandAll(t *testing.T) {
	got := ExpandAll.Expand(versionrange.MustParseVersion("17.0.2+8"))
	assert.Equal(t, []string{"17.0.2+8", "17.0.2", "17.0", "17"}, versionStrings(got))

	assert.Equal(t, []string{"21"}, versionStrings(ExpandAll.Expand(versionrange.MustParseVersion("21"))))
}

func TestMatchesAny(t *testing.T) {
	bare := versionrange.MustParse("17")
	v := versionrange.MustParseVersion("17.0.2+8")

	assert.False(t, ExpandKeep.MatchesAny(bare, v))
	assert.True(t, ExpandMajorAndFull.MatchesAny(bare, v))
	assert.True(t, ExpandAll.MatchesAny(versionrange.MustParse("17.0.2"), v))
}

func TestParseScheme(t *testing.T) {
	s, err := ParseScheme("unmodified")
	require.NoError(t, err)
	assert.Equal(t, "unmodified", s.Name())

	s, err = ParseScheme("")
	require.NoError(t, err)
	assert.Equal(t, "major-and-full", s.Name())

	_, err = ParseScheme("fuzzy")
	var reqErr *jdk.RequestError
	require.ErrorAs(t, err, &reqErr)
}

func TestTranslateRequirement(t *testing.T) {
	req, err := jdk.NewRequirement("21", "", "", "", "")
	require.NoError(t, err)

	got := TranslateRequirement(MajorAndFull{}, req)
	assert.Equal(t, "[21,22)", got.Range.String())
	assert.Equal(t, "21", req.Range.String())
}
