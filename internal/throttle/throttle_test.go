package throttle

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"autojv/internal/jdk"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicies(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	twoDaysAgo := now.Add(-48 * time.Hour)
	anHourAgo := now.Add(-time.Hour)

	daily := EveryDuration{D: 24 * time.Hour}
	assert.True(t, daily.IsUpdateCheckRequired(&twoDaysAgo, now))
	assert.False(t, daily.IsUpdateCheckRequired(&anHourAgo, now))
	assert.True(t, daily.IsUpdateCheckRequired(nil, now))

	assert.False(t, Never{}.IsUpdateCheckRequired(nil, now))
	assert.False(t, Never{}.IsUpdateCheckRequired(&twoDaysAgo, now))
	assert.True(t, Always{}.IsUpdateCheckRequired(&anHourAgo, now))
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{in: "never", want: Never{}},
		{in: "ALWAYS", want: Always{}},
		{in: "P1D", want: EveryDuration{D: 24 * time.Hour}},
		{in: "pt12h", want: EveryDuration{D: 12 * time.Hour}},
		{in: "P1DT30M", want: EveryDuration{D: 24*time.Hour + 30*time.Minute}},
		{in: "P2W", want: EveryDuration{D: 14 * 24 * time.Hour}},
		{in: "PT1.5S", want: EveryDuration{D: 1500 * time.Millisecond}},
		{in: "36h", want: EveryDuration{D: 36 * time.Hour}},
		{in: "", wantErr: true},
		{in: "P", wantErr: true},
		{in: "PT", wantErr: true},
		{in: "sometimes", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePolicy(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMetadataFileRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMetadataFile(filepath.Join(t.TempDir(), "foojay", "search-up-to-date.yaml"))

	first := Fingerprint{VersionRange: "[17,18)", Vendor: "zulu", OS: "linux", Arch: "x64"}
	second := Fingerprint{VersionRange: "[21,22)", OS: "linux", Arch: "x64"}

	_, ok, err := store.LastCheckTime(ctx, first)
	require.NoError(t, err)
	assert.False(t, ok)

	t1 := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	require.NoError(t, store.SaveLastCheckTime(ctx, first, t1))
	require.NoError(t, store.SaveLastCheckTime(ctx, second, t1))
	require.NoError(t, store.SaveLastCheckTime(ctx, first, t2))

	got, ok, err := store.LastCheckTime(ctx, first)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Equal(t2))

	got, ok, err = store.LastCheckTime(ctx, second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Equal(t1))

	doc, err := store.read()
	require.NoError(t, err)
	assert.Len(t, doc.Searches, 2)
}

func TestMetadataFileFingerprintIsStructural(t *testing.T) {
	ctx := context.Background()
	store := NewMetadataFile(filepath.Join(t.TempDir(), "checks.yaml"))

	fp := Fingerprint{VersionRange: "[17,18)", OS: "linux", Arch: "x64"}
	require.NoError(t, store.SaveLastCheckTime(ctx, fp, time.Now()))

	near := fp
	near.Vendor = "zulu"
	_, ok, err := store.LastCheckTime(ctx, near)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMetadataFileCorruptDocument(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "checks.yaml")
	require.NoError(t, os.WriteFile(path, []byte("searches: [this is: not: valid"), 0644))

	store := NewMetadataFile(path)
	fp := Fingerprint{VersionRange: "17"}

	_, _, err := store.LastCheckTime(ctx, fp)
	var storeErr *jdk.ThrottleStoreError
	require.ErrorAs(t, err, &storeErr)

	checker := NewChecker(EveryDuration{D: time.Hour}, store)
	assert.True(t, checker.UpdateCheckRequired(ctx, fp))

	require.NoError(t, store.SaveLastCheckTime(ctx, fp, time.Now()))
	_, ok, err := store.LastCheckTime(ctx, fp)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMetadataFileLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewMetadataFile(filepath.Join(dir, "checks.yaml"))
	require.NoError(t, store.SaveLastCheckTime(context.Background(), Fingerprint{VersionRange: "17"}, time.Now()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "checks.yaml", entries[0].Name())
}

func TestChecker(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	store := NewMetadataFile(filepath.Join(t.TempDir(), "checks.yaml"))
	checker := &Checker{Policy: EveryDuration{D: 24 * time.Hour}, Store: store, Now: func() time.Time { return now }}

	fp := Fingerprint{VersionRange: "[17,18)"}
	assert.True(t, checker.UpdateCheckRequired(ctx, fp))

	require.NoError(t, checker.RecordCheck(ctx, fp))
	assert.False(t, checker.UpdateCheckRequired(ctx, fp))

	now = now.Add(25 * time.Hour)
	assert.True(t, checker.UpdateCheckRequired(ctx, fp))
}

func TestFingerprintOf(t *testing.T) {
	req, err := jdk.NewRequirement("[17,18)", "zulu", "linux", "amd64", "ga")
	require.NoError(t, err)
	assert.Equal(t, Fingerprint{
		VersionRange: "[17,18)",
		Vendor:       "zulu",
		OS:           "linux",
		Arch:         "x64",
		ReleaseType:  "ga",
	}, FingerprintOf(req))
}
