package cli

import (
	"context"
	"errors"
	"fmt"

	"autojv/internal/theme"
	"autojv/internal/updater"

	"github.com/spf13/cobra"
)

func (a *app) selfUpdateCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:               "self-update",
		Short:             "Check for and install a newer autojv release",
		Args:              cobra.NoArgs,
		PersistentPostRun: func(*cobra.Command, []string) {},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !a.cfg.UpdateConfig.Enabled {
				fmt.Fprintln(a.stderr, theme.WarningMessage("Updates are disabled in configuration."))
				fmt.Fprintln(a.stderr, theme.Faint.Render("Set update_config.enabled to true in "+a.cfg.Path()))
				return nil
			}
			if a.cfg.Offline {
				return errors.New("self-update is not available offline")
			}

			upd, err := updater.NewUpdater(a.cfg, a.version)
			if err != nil {
				return fmt.Errorf("error initializing updater: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), updater.UpdateTimeout)
			defer cancel()

			fmt.Fprintln(a.stderr, theme.InfoStyle.Render("Checking for updates..."))
			release, err := upd.CheckForUpdate(ctx)
			if err != nil {
				return err
			}
			if release == nil {
				updater.ShowAlreadyUpToDate(a.stderr, upd.CurrentVersion())
				return nil
			}

			action := updater.ActionUpdate
			if !yes {
				if action, err = upd.PromptForUpdate(release); err != nil {
					return fmt.Errorf("update cancelled: %w", err)
				}
			}
			switch action {
			case updater.ActionSkip:
				fmt.Fprintln(a.stderr, theme.InfoMessage(fmt.Sprintf("Skipped version %s", release.Version())))
				return nil
			case updater.ActionLater:
				fmt.Fprintln(a.stderr, theme.InfoMessage("Update postponed"))
				return nil
			}

			fmt.Fprintln(a.stderr, theme.InfoStyle.Render(fmt.Sprintf("Downloading autojv %s...", release.Version())))
			if err := upd.PerformUpdate(ctx, release); err != nil {
				return fmt.Errorf("update failed: %w", err)
			}
			updater.ShowUpdateSuccess(a.stderr, release.Version())
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "install without asking")
	return cmd
}

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "version",
		Short:             "Print the autojv version",
		Args:              cobra.NoArgs,
		PersistentPostRun: func(*cobra.Command, []string) {},
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(a.stdout, "%s %s %s\n",
				theme.Subtitle.Render("autojv"),
				theme.Faint.Render("version"),
				theme.HighlightText(a.version))
			return nil
		},
	}
}
