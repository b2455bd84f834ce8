package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	t.Setenv("AUTOJV_HOME", "/opt/autojv")
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "autojv.json"))
	require.NoError(t, err)

	assert.Equal(t, "/opt/autojv", cfg.Home)
	assert.Equal(t, DefaultVendors, cfg.Vendors)
	assert.Equal(t, "P1D", cfg.UpdatePolicy)
	assert.Equal(t, "major-and-full", cfg.VersionTranslation)
	assert.Equal(t, "first-success", cfg.SearchStrategy)
	assert.Equal(t, []string{"foojay", "adoptium"}, cfg.Catalogs)
	assert.True(t, cfg.UpdateConfig.Enabled)
	assert.Equal(t, DefaultHTTPRetries, cfg.Retries())

	timeout, err := cfg.Timeout()
	require.NoError(t, err)
	assert.Equal(t, DefaultHTTPTimeout, timeout)
	assert.Equal(t, filepath.Join("/opt/autojv", "jdks"), cfg.JDKDir())
}

func TestLoadStripsBOMAndCleansPaths(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autojv.json")
	body := "\xEF\xBB\xBF" + `{
		"vendors": ["temurin"],
		"http_timeout": "5s",
		"http_retries": 0,
		"custom_paths": [" /opt/jdk ", "/opt/jdk", "", "/OPT/JDK"]
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"temurin"}, cfg.Vendors)
	assert.Equal(t, []string{filepath.Clean("/opt/jdk")}, cfg.CustomPaths)
	assert.Equal(t, 0, cfg.Retries())

	timeout, err := cfg.Timeout()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, timeout)
}

func TestLoadRejectsBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autojv.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	_, err := LoadFrom(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "autojv.json")
	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	cfg.AddCustomPath("/opt/jdk-17")
	cfg.AddCustomPath("/opt/jdk-17")
	cfg.AddSearchPath("/usr/lib/jvm")
	cfg.UpdateConfig.SkipVersion = "v1.2.0"
	require.NoError(t, cfg.Save())

	again, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Clean("/opt/jdk-17")}, again.CustomPaths)
	assert.Equal(t, []string{filepath.Clean("/usr/lib/jvm")}, again.SearchPaths)
	assert.Equal(t, "v1.2.0", again.UpdateConfig.SkipVersion)

	assert.True(t, again.RemoveCustomPath("/opt/jdk-17"))
	assert.False(t, again.RemoveCustomPath("/opt/jdk-17"))
	assert.True(t, again.RemoveSearchPath("/usr/lib/jvm"))
}

func TestFindProject(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "module", "src")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ProjectFileName), []byte(`
version = "[17,18)"
vendor = "zulu"
release_type = "ga"
`), 0o644))

	p, err := FindProject(nested)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "[17,18)", p.Version)
	assert.Equal(t, "zulu", p.Vendor)
	assert.Equal(t, "ga", p.ReleaseType)
	assert.Equal(t, filepath.Join(root, ProjectFileName), p.Path())
}

func TestFindProjectNone(t *testing.T) {
	p, err := FindProject(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestLoadProjectErrors(t *testing.T) {
	dir := t.TempDir()

	unknown := filepath.Join(dir, "unknown.toml")
	require.NoError(t, os.WriteFile(unknown, []byte("version = \"17\"\nvendr = \"zulu\"\n"), 0o644))
	_, err := LoadProject(unknown)
	assert.ErrorContains(t, err, "vendr")

	missing := filepath.Join(dir, "missing.toml")
	require.NoError(t, os.WriteFile(missing, []byte("vendor = \"zulu\"\n"), 0o644))
	_, err = LoadProject(missing)
	assert.ErrorContains(t, err, "version is required")
}
