package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"autojv/internal/java"
	"autojv/internal/jdk"
	"autojv/internal/resolver"
	"autojv/internal/theme"

	"github.com/spf13/cobra"
)

func (a *app) listCommand() *cobra.Command {
	var installedOnly bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List installed and detected JDKs with the versions they answer to",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			r, err := a.resolver()
			if err != nil {
				return err
			}

			var system []jdk.InstalledJdk
			if !installedOnly {
				detector := java.NewDetector(a.cfg.SearchPaths, a.cfg.CustomPaths)
				for _, v := range detector.FindAll(ctx) {
					j, err := v.Installed()
					if err != nil {
						a.logger.Debug("Skipping JDK with unknown version", "path", v.Path, "err", err)
						continue
					}
					system = append(system, j)
				}
			}

			regs, err := r.Registrations(ctx, system)
			if err != nil {
				return err
			}
			if len(regs) == 0 {
				fmt.Fprintln(a.stderr, theme.WarningMessage("No JDKs found."))
				fmt.Fprintln(a.stderr, theme.Faint.Render("Run ")+theme.Code.Render("autojv install")+theme.Faint.Render(" to install one."))
				return nil
			}
			fmt.Fprintln(a.stdout, registrationTable(regs, os.Getenv("JAVA_HOME")))
			return nil
		},
	}
	cmd.Flags().BoolVar(&installedOnly, "installed", false, "only list JDKs installed by autojv")
	return cmd
}

func registrationTable(regs []resolver.Registration, current string) string {
	rows := make([][]string, len(regs))
	for i, reg := range regs {
		versions := make([]string, len(reg.Versions))
		for j, v := range reg.Versions {
			versions[j] = v.String()
		}

		marker := " "
		version := reg.JDK.Version.String()
		if current != "" && sameDir(reg.JDK.Dir, current) {
			marker = "→"
			version = theme.CurrentStyle.Render(version)
		}

		vendor := reg.JDK.Vendor
		if vendor == "" {
			vendor = "-"
		}
		origin := "autojv"
		if reg.System {
			origin = "system"
		}

		rows[i] = []string{
			marker + " " + vendor,
			version,
			strings.Join(versions, ", "),
			reg.JDK.Dir,
			theme.Faint.Render(origin),
		}
	}
	return theme.Table([]string{"  VENDOR", "VERSION", "REGISTERED AS", "PATH", "SOURCE"}, rows)
}

func sameDir(a, b string) bool {
	return strings.EqualFold(filepath.Clean(a), filepath.Clean(b))
}
