package cli

import (
	"context"
	"fmt"
	"slices"

	"autojv/internal/installer"
	"autojv/internal/jdk"
	"autojv/internal/repository"
	"autojv/internal/resolver"
	"autojv/internal/theme"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// search runs r.Search, with a spinner when stderr is a terminal.
func (a *app) search(ctx context.Context, r *resolver.Resolver, req jdk.Requirement) ([]jdk.Candidate, error) {
	var found []jdk.Candidate
	run := func() error {
		var err error
		found, err = r.Search(ctx, req)
		return err
	}
	if !isTerminal(a.stderr) || a.flags.verbose {
		return found, run()
	}
	err := installer.WithSpinner(a.stderr, "Searching for "+req.String()+"...", run)
	return found, err
}

func (a *app) searchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "search [version-range]",
		Short: "List downloadable JDKs matching the requirement, best first",
		Example: `  autojv search 21
  autojv search "[11,)" --vendor temurin --os linux --arch aarch64`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := a.requirement(args)
			if err != nil {
				return err
			}
			r, err := a.resolver()
			if err != nil {
				return err
			}
			found, err := a.search(cmd.Context(), r, req)
			if err != nil {
				return err
			}
			if len(found) == 0 {
				fmt.Fprintln(a.stderr, theme.WarningMessage("No JDKs found matching "+req.String()))
				return nil
			}
			fmt.Fprintln(a.stdout, candidateTable(bestFirst(found)))
			return nil
		},
	}
}

// bestFirst reverses selector order for display.
func bestFirst(candidates []jdk.Candidate) []jdk.Candidate {
	out := slices.Clone(candidates)
	slices.Reverse(out)
	return out
}

func candidateSource(c jdk.Candidate) string {
	if src, _, ok := c.Origin(); ok {
		if name := repository.SourceName(src); name != "" {
			return name
		}
	}
	return "-"
}

func candidateSize(c jdk.Candidate) string {
	if c.Size <= 0 {
		return "?"
	}
	return humanize.Bytes(uint64(c.Size))
}

func candidateTable(candidates []jdk.Candidate) string {
	rows := make([][]string, len(candidates))
	for i, c := range candidates {
		version := c.Version.String()
		if i == 0 {
			version = theme.CurrentStyle.Render(version)
		}
		rows[i] = []string{
			c.Vendor,
			version,
			c.Platform().String(),
			string(c.ArchiveType),
			string(c.ReleaseType),
			candidateSize(c),
			candidateSource(c),
		}
	}
	return theme.Table([]string{"VENDOR", "VERSION", "PLATFORM", "ARCHIVE", "RELEASE", "SIZE", "SOURCE"}, rows)
}
