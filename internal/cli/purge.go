package cli

import (
	"fmt"

	"autojv/internal/resolver"
	"autojv/internal/theme"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

func (a *app) purgeCommand() *cobra.Command {
	var (
		yes  bool
		opts resolver.PurgeOptions
	)

	cmd := &cobra.Command{
		Use:   "purge [version-range]",
		Short: "Delete cached archives matching the requirement",
		Example: `  autojv purge 17
  autojv purge "[11,17)" --all-platforms --jdks --yes`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := a.requirement(args)
			if err != nil {
				return err
			}

			if !yes {
				what := "cached archives"
				if opts.JDKs {
					what += " and installed JDKs"
				}
				scope := "this platform"
				if opts.AllPlatforms {
					scope = "all platforms"
				}
				confirmed, err := confirmAction(
					"Purge "+what+"?",
					fmt.Sprintf("Requirement: %s\nPlatforms: %s", req, scope),
				)
				if err != nil || !confirmed {
					fmt.Fprintln(a.stderr, theme.WarningMessage("Operation cancelled."))
					return nil
				}
			}

			r, err := a.resolver()
			if err != nil {
				return err
			}
			result, err := r.Purge(cmd.Context(), req, opts)
			for _, archive := range result.Archives {
				fmt.Fprintln(a.stdout, theme.Faint.Render("removed ")+theme.PathStyle.Render(archive.Path))
			}
			for _, j := range result.JDKs {
				fmt.Fprintln(a.stdout, theme.Faint.Render("removed ")+theme.PathStyle.Render(j.Dir))
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stderr, theme.SuccessMessage(fmt.Sprintf("Purged %d archive(s) and %d JDK(s)", len(result.Archives), len(result.JDKs))))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	cmd.Flags().BoolVar(&opts.AllPlatforms, "all-platforms", false, "purge archives of every well-known platform")
	cmd.Flags().BoolVar(&opts.JDKs, "jdks", false, "also delete matching installed JDKs")
	return cmd
}

// confirmAction shows a confirmation prompt
func confirmAction(title, description string) (bool, error) {
	var confirmed bool

	err := huh.NewConfirm().
		Title(theme.Subtitle.Render(title)).
		Description(theme.Faint.Render(description)).
		Affirmative(theme.SuccessStyle.Render("Yes")).
		Negative(theme.ErrorStyle.Render("No")).
		Value(&confirmed).
		Run()

	return confirmed, err
}
