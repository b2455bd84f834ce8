// Package updater replaces the running autojv binary with a newer GitHub
// release.
package updater

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"autojv/internal/config"
	"autojv/internal/fileutil"
	"autojv/internal/logging"
	"autojv/internal/throttle"

	"github.com/Masterminds/semver/v3"
	"github.com/creativeprojects/go-selfupdate"
)

const (
	// GitHubRepo is the repository for autojv releases
	GitHubRepo = "autojv/autojv"

	// CheckInterval is minimum time between update checks
	CheckInterval = 24 * time.Hour

	// UpdateTimeout is maximum time for update operations
	UpdateTimeout = 5 * time.Minute
)

// Updater handles checking and applying updates
type Updater struct {
	config         *config.Config
	currentVersion string
	selfUpdater    *selfupdate.Updater
	policy         throttle.Policy
	now            func() time.Time
}

// NewUpdater creates a new Updater instance
func NewUpdater(cfg *config.Config, version string) (*Updater, error) {
	// Configure selfupdate with SHA256 checksum validation
	su, err := selfupdate.NewUpdater(selfupdate.Config{
		Validator: &selfupdate.ChecksumValidator{
			UniqueFilename: "SHA256SUMS.txt",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create updater: %w", err)
	}

	return &Updater{
		config:         cfg,
		currentVersion: cleanVersion(version),
		selfUpdater:    su,
		policy:         throttle.EveryDuration{D: CheckInterval},
		now:            time.Now,
	}, nil
}

// CurrentVersion returns the running version without a "v" prefix.
func (u *Updater) CurrentVersion() string { return u.currentVersion }

// IsDevBuild reports whether the running binary has no release version,
// such as "dev" or a commit hash. Dev builds are never updated.
func (u *Updater) IsDevBuild() bool {
	_, err := semver.StrictNewVersion(u.currentVersion)
	return err != nil
}

// ShouldCheckForUpdate determines if a background update check should be
// performed based on config settings and last check time
func (u *Updater) ShouldCheckForUpdate() bool {
	if !u.config.UpdateConfig.Enabled || !u.config.UpdateConfig.AutoCheck || u.IsDevBuild() {
		return false
	}

	var last *time.Time
	if lc := u.config.UpdateConfig.LastCheck; !lc.IsZero() {
		last = &lc
	}
	return u.policy.IsUpdateCheckRequired(last, u.now())
}

// CheckForUpdate queries GitHub for the latest release
// Returns nil if no update available or if user skipped this version
func (u *Updater) CheckForUpdate(ctx context.Context) (*selfupdate.Release, error) {
	if u.IsDevBuild() {
		return nil, fmt.Errorf("version %q is a development build and cannot be updated", u.currentVersion)
	}

	latest, found, err := u.selfUpdater.DetectLatest(ctx, selfupdate.ParseSlug(GitHubRepo))
	if err != nil {
		return nil, fmt.Errorf("failed to check for updates: %w", err)
	}

	if !found {
		return nil, fmt.Errorf("no releases found")
	}

	u.config.UpdateConfig.LastCheck = u.now()
	if err := u.config.Save(); err != nil {
		logging.From(ctx).Warn("Failed to save config", "err", err)
	}

	if latest.LessOrEqual(u.currentVersion) {
		return nil, nil
	}

	// Check if user explicitly skipped this version
	if u.config.UpdateConfig.SkipVersion == latest.Version() {
		return nil, nil
	}

	return latest, nil
}

// PerformUpdate downloads and installs the update
// Creates a backup and rolls back on failure
func (u *Updater) PerformUpdate(ctx context.Context, release *selfupdate.Release) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to determine executable path: %w", err)
	}

	backup := exe + ".backup"
	if err := fileutil.CopyFileMode(backup, exe, 0o755); err != nil {
		return fmt.Errorf("failed to create backup: %w", err)
	}

	if err := selfupdate.UpdateTo(ctx, release.AssetURL, release.AssetName, exe); err != nil {
		if rollbackErr := os.Rename(backup, exe); rollbackErr != nil {
			return fmt.Errorf("update failed and rollback failed: update error: %w, rollback error: %v", err, rollbackErr)
		}
		return fmt.Errorf("update failed (rolled back): %w", err)
	}

	if err := os.Remove(backup); err != nil {
		logging.From(ctx).Debug("Failed to remove backup", "path", backup, "err", err)
	}
	return nil
}

// SkipVersion marks a version as skipped by the user
func (u *Updater) SkipVersion(version string) error {
	u.config.UpdateConfig.SkipVersion = version
	return u.config.Save()
}

// cleanVersion removes 'v' prefix if present for consistent comparison
func cleanVersion(version string) string {
	return strings.TrimPrefix(strings.TrimSpace(version), "v")
}
