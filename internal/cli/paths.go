package cli

import (
	"errors"
	"fmt"

	"autojv/internal/java"
	"autojv/internal/theme"

	"github.com/spf13/cobra"
)

func (a *app) pathsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "paths",
		Short: "Manage where system JDKs are detected",
		Long: `Search paths are directories whose subdirectories are scanned for JDKs.
Custom paths are single JDK homes. Both show up in 'autojv list'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			detector := java.NewDetector(nil, nil)
			status := func(ok bool) string {
				if ok {
					return theme.SuccessStyle.Render("✓ Exists")
				}
				return theme.ErrorStyle.Render("✗ Not found")
			}

			var rows [][]string
			for _, p := range a.cfg.SearchPaths {
				rows = append(rows, []string{"search", p, status(detector.IsValidSearchPath(p))})
			}
			for _, p := range a.cfg.CustomPaths {
				rows = append(rows, []string{"jdk", p, status(detector.IsValidJavaPath(p))})
			}
			if len(rows) == 0 {
				fmt.Fprintln(a.stderr, theme.InfoMessage("No search or custom paths configured."))
				fmt.Fprintln(a.stderr, theme.Faint.Render("Use ")+theme.Code.Render("autojv paths add <dir>")+theme.Faint.Render(" to add one."))
				return nil
			}
			fmt.Fprintln(a.stdout, theme.Table([]string{"KIND", "PATH", "STATUS"}, rows))
			return nil
		},
	}

	var jdkHome bool
	add := &cobra.Command{
		Use:   "add <dir>",
		Short: "Add a directory to scan, or with --jdk a single JDK home",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			detector := java.NewDetector(nil, nil)
			if jdkHome {
				if !detector.IsValidJavaPath(path) {
					return fmt.Errorf("%s is not a Java installation (no bin/java)", path)
				}
				a.cfg.AddCustomPath(path)
			} else {
				if !detector.IsValidSearchPath(path) {
					return fmt.Errorf("invalid directory path: %s", path)
				}
				a.cfg.AddSearchPath(path)
			}
			if err := a.cfg.Save(); err != nil {
				return fmt.Errorf("error saving config: %w", err)
			}
			fmt.Fprintln(a.stderr, theme.SuccessMessage("Added "+theme.PathStyle.Render(path)))
			return nil
		},
	}
	add.Flags().BoolVar(&jdkHome, "jdk", false, "path is a JDK home rather than a directory to scan")

	remove := &cobra.Command{
		Use:   "remove <dir>",
		Short: "Remove a search path or custom JDK path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			removedSearch := a.cfg.RemoveSearchPath(path)
			removedCustom := a.cfg.RemoveCustomPath(path)
			if !removedSearch && !removedCustom {
				return errors.New("this path is not configured")
			}
			if err := a.cfg.Save(); err != nil {
				return fmt.Errorf("error saving config: %w", err)
			}
			fmt.Fprintln(a.stderr, theme.SuccessMessage("Removed "+theme.PathStyle.Render(path)))
			return nil
		},
	}

	cmd.AddCommand(add, remove)
	return cmd
}
