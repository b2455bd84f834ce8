package updater

import (
	"fmt"
	"io"
	"strings"

	"autojv/internal/theme"

	"github.com/charmbracelet/huh"
	"github.com/creativeprojects/go-selfupdate"
	"github.com/dustin/go-humanize"
)

// Prompt answers.
const (
	ActionUpdate = "update"
	ActionSkip   = "skip"
	ActionLater  = "later"
)

// PromptForUpdate asks whether to install release. Choosing to skip is
// remembered in the config.
func (u *Updater) PromptForUpdate(release *selfupdate.Release) (string, error) {
	description := fmt.Sprintf(
		"Download size: %s\n\n%s",
		humanize.Bytes(uint64(release.AssetByteSize)),
		truncateChangelog(release.ReleaseNotes, 400),
	)

	var action string
	err := huh.NewSelect[string]().
		Title(theme.Subtitle.Render(fmt.Sprintf("Update available: %s → %s", u.currentVersion, release.Version()))).
		Description(theme.Faint.Render(description)).
		Options(
			huh.NewOption(theme.SuccessStyle.Render("Update now"), ActionUpdate),
			huh.NewOption(theme.InfoStyle.Render("Skip this version"), ActionSkip),
			huh.NewOption(theme.WarningStyle.Render("Remind me later"), ActionLater),
		).
		Value(&action).
		Run()
	if err != nil {
		return "", err
	}

	if action == ActionSkip {
		if err := u.SkipVersion(release.Version()); err != nil {
			return action, fmt.Errorf("failed to save skip preference: %w", err)
		}
	}
	return action, nil
}

// ShowUpdateNotification writes a one-line hint about a newer release.
func ShowUpdateNotification(w io.Writer, currentVersion, latestVersion string) {
	fmt.Fprintf(w, "\n%s Update available: %s → %s %s\n\n",
		theme.InfoStyle.Render("ℹ"),
		theme.Faint.Render(currentVersion),
		theme.CurrentStyle.Render(latestVersion),
		theme.Faint.Render("(run 'autojv self-update')"))
}

// ShowUpdateSuccess displays success message after update
func ShowUpdateSuccess(w io.Writer, version string) {
	title := theme.SuccessStyle.Padding(0, 2).Render("✓ Update Complete!")
	fmt.Fprintf(w, "\n%s\n\n", theme.SuccessBox.Render(title))
	fmt.Fprintf(w, "%s Updated to version %s\n\n",
		theme.LabelStyle.Render("Version:"),
		theme.CurrentStyle.Render(version))
}

// ShowAlreadyUpToDate displays message when already on latest version
func ShowAlreadyUpToDate(w io.Writer, version string) {
	fmt.Fprintln(w, theme.SuccessMessage(fmt.Sprintf("You're already running the latest version (%s)", version)))
}

// truncateChangelog truncates the changelog to a maximum length
func truncateChangelog(changelog string, maxLen int) string {
	changelog = strings.TrimSpace(changelog)
	if changelog == "" {
		return "See release notes on GitHub for details."
	}
	if len(changelog) <= maxLen {
		return changelog
	}

	// Find a good break point (newline or space)
	truncated := changelog[:maxLen]
	if idx := strings.LastIndex(truncated, "\n"); idx > maxLen/2 {
		truncated = truncated[:idx]
	} else if idx := strings.LastIndex(truncated, " "); idx > maxLen/2 {
		truncated = truncated[:idx]
	}

	return truncated + "..."
}
