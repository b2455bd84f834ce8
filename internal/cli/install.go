package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"autojv/internal/catalog"
	"autojv/internal/config"
	"autojv/internal/jdk"
	"autojv/internal/repository"
	"autojv/internal/resolver"
	"autojv/internal/theme"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

func (a *app) installCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "install [version-range]",
		Short: "Install the best JDK matching the requirement",
		Long: `Install downloads and installs the best JDK matching the requirement, even
when an older matching JDK is already installed. Without an argument or
project file it asks for the major version and the build interactively.`,
		Example: `  autojv install 21
  autojv install "[17,18)" --vendor corretto
  autojv install`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			interactive, err := a.interactiveInstall(args)
			if err != nil {
				return err
			}

			if interactive {
				major, err := a.pickMajor(ctx)
				if err != nil {
					return err
				}
				args = []string{strconv.Itoa(major)}
			}
			req, err := a.requirement(args)
			if err != nil {
				return err
			}

			r, err := a.resolver()
			if err != nil {
				return err
			}
			searchCtx, skipped := repository.WithSuppressedFailures(ctx)
			found, err := a.search(searchCtx, r, req)
			if err != nil {
				return err
			}
			if len(found) == 0 {
				return &jdk.NotFoundError{Requirement: req, Skipped: skipped.Count()}
			}

			chosen := found[len(found)-1]
			if interactive {
				if chosen, err = pickCandidate(bestFirst(found)); err != nil {
					return err
				}
			}

			installed, err := r.Install(ctx, chosen)
			a.finishDownloads(err)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stderr, theme.SuccessMessage(fmt.Sprintf("Installed %s %s", installed.Vendor, installed.Version)))
			fmt.Fprintln(a.stdout, installed.Dir)
			return nil
		},
	}
}

// interactiveInstall reports whether install should prompt: only without
// an argument or project file, and only on a terminal.
func (a *app) interactiveInstall(args []string) (bool, error) {
	if len(args) > 0 {
		return false, nil
	}
	project, err := config.FindProject(a.workDir)
	if err != nil || project != nil {
		return false, err
	}
	if !isTerminal(a.stdout) {
		return false, errors.New("a version range is required when not running in a terminal")
	}
	if a.cfg.Offline {
		return false, errors.New("interactive install needs the catalogs; pass a version range when offline")
	}
	return true, nil
}

// pickMajor asks for a major version from the first configured catalog.
func (a *app) pickMajor(ctx context.Context) (int, error) {
	names := a.cfg.Catalogs
	if len(names) == 0 {
		names = config.DefaultCatalogs
	}
	timeout, err := a.cfg.Timeout()
	if err != nil {
		return 0, err
	}
	opts := catalog.Options{
		BaseURL: resolver.CatalogURL(a.cfg, names[0]),
		Timeout: timeout,
		Retries: a.cfg.Retries(),
		Logger:  a.logger,
	}
	client, err := catalog.New(names[0], opts)
	if err != nil {
		return 0, err
	}
	majors, err := client.MajorVersions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list Java versions: %w", err)
	}
	if len(majors) == 0 {
		return 0, errors.New("the catalog lists no Java versions")
	}
	majors = slices.Clone(majors)
	slices.Sort(majors)
	slices.Reverse(majors)

	options := make([]huh.Option[int], len(majors))
	for i, m := range majors {
		options[i] = huh.NewOption(fmt.Sprintf("Java %d", m), m)
	}

	var selected int
	err = huh.NewSelect[int]().
		Title(theme.Subtitle.Render("Select Java Version")).
		Description(theme.Faint.Render("Use arrow keys to navigate, Enter to select")).
		Options(options...).
		Value(&selected).
		Run()
	if err != nil {
		return 0, fmt.Errorf("selection cancelled: %w", err)
	}
	return selected, nil
}

// pickCandidate asks which of the candidates, best first, to install.
func pickCandidate(candidates []jdk.Candidate) (jdk.Candidate, error) {
	options := make([]huh.Option[int], len(candidates))
	for i, c := range candidates {
		label := fmt.Sprintf("%-18s %-14s %-8s %s", c.Vendor, c.Version, c.ArchiveType, theme.Faint.Render(candidateSize(c)))
		if i == 0 {
			label += " " + theme.Faint.Render("[recommended]")
		}
		options[i] = huh.NewOption(label, i)
	}

	var selected int
	err := huh.NewSelect[int]().
		Title(theme.Subtitle.Render("Select Distribution")).
		Description(theme.Faint.Render("Ordered by your vendor preference, then version")).
		Options(options...).
		Value(&selected).
		Run()
	if err != nil {
		return jdk.Candidate{}, fmt.Errorf("selection cancelled: %w", err)
	}
	return candidates[selected], nil
}
