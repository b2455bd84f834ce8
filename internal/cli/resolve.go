package cli

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"autojv/internal/jdk"

	"github.com/spf13/cobra"
)

func (a *app) prepare(cmd *cobra.Command, args []string) (jdk.InstalledJdk, error) {
	req, err := a.requirement(args)
	if err != nil {
		return jdk.InstalledJdk{}, err
	}
	r, err := a.resolver()
	if err != nil {
		return jdk.InstalledJdk{}, err
	}

	p := newProgress(a.logger)
	installed, err := r.Prepare(cmd.Context(), req)
	a.finishDownloads(err)
	if err != nil {
		return jdk.InstalledJdk{}, err
	}
	p.done("Resolved JDK", "vendor", installed.Vendor, "version", installed.Version)
	return installed, nil
}

func (a *app) resolveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [version-range]",
		Short: "Print the home directory of a JDK matching the requirement",
		Long: `Resolve prints the JAVA_HOME of a JDK matching the requirement, installing
one first if needed. Without an argument the requirement is read from the
nearest .autojv.toml.`,
		Example: `  autojv resolve 17
  autojv resolve "[17,18)" --vendor zulu
  JAVA_HOME=$(autojv resolve 21)`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			installed, err := a.prepare(cmd, args)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, installed.Dir)
			return nil
		},
	}
}

func (a *app) envCommand() *cobra.Command {
	var shell string

	cmd := &cobra.Command{
		Use:   "env [version-range]",
		Short: "Print shell commands that point JAVA_HOME at a matching JDK",
		Example: `  eval "$(autojv env 17)"
  autojv env 21 --shell powershell | Invoke-Expression`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Reject an unknown shell before doing any work.
			lines, err := envLines(shell, "")
			if err != nil {
				return err
			}
			installed, err := a.prepare(cmd, args)
			if err != nil {
				return err
			}
			lines, _ = envLines(shell, installed.Dir)
			for _, l := range lines {
				fmt.Fprintln(a.stdout, l)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&shell, "shell", defaultShell(), "shell syntax: sh, fish, powershell or cmd")
	return cmd
}

func defaultShell() string {
	if runtime.GOOS == "windows" {
		return "powershell"
	}
	return "sh"
}

// envLines renders the JAVA_HOME and PATH assignments for a shell.
func envLines(shell, javaHome string) ([]string, error) {
	bin := filepath.Join(javaHome, "bin")
	switch strings.ToLower(shell) {
	case "sh", "bash", "zsh":
		return []string{
			fmt.Sprintf("export JAVA_HOME=%s", shellQuote(javaHome)),
			fmt.Sprintf("export PATH=%s:\"$PATH\"", shellQuote(bin)),
		}, nil
	case "fish":
		return []string{
			fmt.Sprintf("set -gx JAVA_HOME %s", fishQuote(javaHome)),
			fmt.Sprintf("set -gx PATH %s $PATH", fishQuote(bin)),
		}, nil
	case "powershell", "pwsh":
		return []string{
			fmt.Sprintf("$env:JAVA_HOME = '%s'", strings.ReplaceAll(javaHome, "'", "''")),
			fmt.Sprintf("$env:PATH = '%s' + [IO.Path]::PathSeparator + $env:PATH", strings.ReplaceAll(bin, "'", "''")),
		}, nil
	case "cmd":
		return []string{
			fmt.Sprintf("set \"JAVA_HOME=%s\"", javaHome),
			fmt.Sprintf("set \"PATH=%s;%%PATH%%\"", bin),
		}, nil
	}
	return nil, fmt.Errorf("unsupported shell %q", shell)
}

// shellQuote wraps s in single quotes for POSIX shells.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func fishQuote(s string) string {
	return "'" + strings.NewReplacer(`\`, `\\`, "'", `\'`).Replace(s) + "'"
}
