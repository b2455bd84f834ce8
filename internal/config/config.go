package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"autojv/internal/fileutil"
)

// Defaults applied to fields the config file leaves empty.
var (
	DefaultVendors            = []string{"zulu", "liberica", "corretto", "oracle_open_jdk", "temurin", "*"}
	DefaultCatalogs           = []string{"foojay", "adoptium"}
	DefaultUpdatePolicy       = "P1D"
	DefaultVersionTranslation = "major-and-full"
	DefaultSearchStrategy     = "first-success"
	DefaultHTTPTimeout        = 60 * time.Second
	DefaultHTTPRetries        = 3
)

// Config holds the application configuration
type Config struct {
	Home               string       `json:"home,omitempty"`                // Holds jdks/ and cache/
	Vendors            []string     `json:"vendors,omitempty"`             // Vendor preference, most preferred first
	UpdatePolicy       string       `json:"update_policy,omitempty"`       // never, always or a duration
	VersionTranslation string       `json:"version_translation,omitempty"` // major-and-full or unmodified
	SearchStrategy     string       `json:"search_strategy,omitempty"`     // first-success or exhaustive
	Catalogs           []string     `json:"catalogs,omitempty"`            // Remote catalogs in search order
	FoojayURL          string       `json:"foojay_url,omitempty"`
	AdoptiumURL        string       `json:"adoptium_url,omitempty"`
	HTTPTimeout        string       `json:"http_timeout,omitempty"` // Go duration, e.g. "30s"
	HTTPRetries        *int         `json:"http_retries,omitempty"`
	Offline            bool         `json:"offline,omitempty"`
	CustomPaths        []string     `json:"custom_paths"`  // Specific Java installation paths
	SearchPaths        []string     `json:"search_paths"`  // Base directories to scan for Java installations
	UpdateConfig       UpdateConfig `json:"update_config"` // Auto-update configuration
	configPath         string
}

// UpdateConfig holds settings for auto-update feature
type UpdateConfig struct {
	Enabled     bool      `json:"enabled"`      // Master toggle for update functionality
	AutoCheck   bool      `json:"auto_check"`   // Check for updates on startup
	LastCheck   time.Time `json:"last_check"`   // Last time update check was performed
	SkipVersion string    `json:"skip_version"` // Version user chose to skip
}

// Load loads the configuration from the user's config directory
func Load() (*Config, error) {
	return LoadFrom(getConfigPath())
}

// LoadFrom loads the configuration from configPath. A missing file yields
// the defaults.
func LoadFrom(configPath string) (*Config, error) {
	cfg := &Config{
		CustomPaths: make([]string, 0),
		SearchPaths: make([]string, 0),
		UpdateConfig: UpdateConfig{
			Enabled:   true,
			AutoCheck: true,
		},
		configPath: configPath,
	}

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		cfg.applyDefaults()
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	// Remove BOM if present (UTF-8 BOM is EF BB BF)
	// This handles files created by PowerShell with Set-Content -Encoding UTF8
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		data = data[3:]
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", configPath, err)
	}

	cfg.CustomPaths = cleanPaths(cfg.CustomPaths)
	cfg.SearchPaths = cleanPaths(cfg.SearchPaths)
	cfg.applyDefaults()
	cfg.configPath = configPath
	return cfg, nil
}

// cleanPaths drops empty and duplicate entries.
func cleanPaths(paths []string) []string {
	cleaned := make([]string, 0, len(paths))
	seen := make(map[string]bool)
	for _, p := range paths {
		p = filepath.Clean(strings.TrimSpace(p))
		if p == "" || p == "." {
			continue
		}
		key := strings.ToLower(p)
		if seen[key] {
			continue
		}
		seen[key] = true
		cleaned = append(cleaned, p)
	}
	return cleaned
}

func (c *Config) applyDefaults() {
	if c.Home == "" {
		c.Home = defaultHome()
	}
	if len(c.Vendors) == 0 {
		c.Vendors = append([]string(nil), DefaultVendors...)
	}
	if len(c.Catalogs) == 0 {
		c.Catalogs = append([]string(nil), DefaultCatalogs...)
	}
	if c.UpdatePolicy == "" {
		c.UpdatePolicy = DefaultUpdatePolicy
	}
	if c.VersionTranslation == "" {
		c.VersionTranslation = DefaultVersionTranslation
	}
	if c.SearchStrategy == "" {
		c.SearchStrategy = DefaultSearchStrategy
	}
}

// Path returns the file this configuration was loaded from.
func (c *Config) Path() string { return c.configPath }

// JDKDir is where autojv installs JDKs.
func (c *Config) JDKDir() string { return filepath.Join(c.Home, "jdks") }

// CacheDir holds downloaded archives and update check records.
func (c *Config) CacheDir() string { return filepath.Join(c.Home, "cache") }

// Timeout returns the HTTP timeout.
func (c *Config) Timeout() (time.Duration, error) {
	if c.HTTPTimeout == "" {
		return DefaultHTTPTimeout, nil
	}
	d, err := time.ParseDuration(c.HTTPTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid http_timeout %q: %w", c.HTTPTimeout, err)
	}
	return d, nil
}

// Retries returns the HTTP retry count.
func (c *Config) Retries() int {
	if c.HTTPRetries == nil {
		return DefaultHTTPRetries
	}
	return *c.HTTPRetries
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(c.configPath, data)
}

// AddCustomPath adds a custom Java installation path
func (c *Config) AddCustomPath(path string) {
	path = filepath.Clean(strings.TrimSpace(path))

	if path == "" || path == "." {
		return
	}

	for _, p := range c.CustomPaths {
		if strings.EqualFold(p, path) {
			return
		}
	}

	c.CustomPaths = append(c.CustomPaths, path)
}

// RemoveCustomPath removes a custom Java installation path
func (c *Config) RemoveCustomPath(path string) bool {
	path = filepath.Clean(path)

	for i, p := range c.CustomPaths {
		if strings.EqualFold(p, path) {
			c.CustomPaths = append(c.CustomPaths[:i], c.CustomPaths[i+1:]...)
			return true
		}
	}
	return false
}

// AddSearchPath adds a search path for auto-detection
func (c *Config) AddSearchPath(path string) {
	path = filepath.Clean(strings.TrimSpace(path))

	if path == "" || path == "." {
		return
	}

	for _, p := range c.SearchPaths {
		if strings.EqualFold(p, path) {
			return
		}
	}

	c.SearchPaths = append(c.SearchPaths, path)
}

// RemoveSearchPath removes a search path
func (c *Config) RemoveSearchPath(path string) bool {
	path = filepath.Clean(path)

	for i, p := range c.SearchPaths {
		if strings.EqualFold(p, path) {
			c.SearchPaths = append(c.SearchPaths[:i], c.SearchPaths[i+1:]...)
			return true
		}
	}
	return false
}

func defaultHome() string {
	if h := os.Getenv("AUTOJV_HOME"); h != "" {
		return h
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".autojv")
}

// getConfigPath returns the path to the configuration file
// Following XDG Base Directory specification
func getConfigPath() string {
	// Try XDG_CONFIG_HOME first (standard on Unix systems)
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome != "" {
		return filepath.Join(configHome, "autojv", "autojv.json")
	}

	// Fallback to $HOME/.config/autojv/autojv.json (XDG default)
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	return filepath.Join(homeDir, ".config", "autojv", "autojv.json")
}
