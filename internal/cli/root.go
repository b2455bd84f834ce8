// Package cli implements the autojv command-line interface.
//
// Commands resolve, install and inspect JDKs. Every command shares the
// global requirement flags (--vendor, --os, --arch, --release-type) and
// the configuration overrides (--offline, --update-policy). Loggers travel
// through the command context so library packages log at the level
// --verbose selects.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"autojv/internal/config"
	"autojv/internal/jdk"
	"autojv/internal/logging"
	"autojv/internal/resolver"
	"autojv/internal/theme"
	"autojv/internal/updater"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	verbose      bool
	configPath   string
	vendor       string
	os           string
	arch         string
	releaseType  string
	offline      bool
	updatePolicy string
}

// app is the state shared by all commands of one invocation.
type app struct {
	version string
	stdout  io.Writer
	stderr  io.Writer
	flags   globalFlags

	cfg    *config.Config
	logger *log.Logger
	bars   *downloadBars

	// workDir is where the project file lookup starts.
	workDir string
}

func newApp(version string, stdout, stderr io.Writer) *app {
	return &app{version: version, stdout: stdout, stderr: stderr}
}

// Execute runs the autojv CLI and returns the process exit code.
func Execute(ctx context.Context, version string, args []string) int {
	a := newApp(version, os.Stdout, os.Stderr)
	root := a.rootCommand()
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return 130
		}
		fmt.Fprintln(a.stderr, theme.ErrorMessage(err.Error()))
		return 1
	}
	return 0
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "autojv",
		Short: "Find, download and install JDKs on demand",
		Long: `autojv resolves a JDK version requirement such as 17, [17,18) or (,11],[17,)
to an installed JDK. Installed JDKs are reused; otherwise the best match is
downloaded from the configured catalogs, cached and installed.`,
		Version:           a.version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: a.notifyUpdate,
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	flags := root.PersistentFlags()
	flags.BoolVarP(&a.flags.verbose, "verbose", "v", false, "enable verbose logging")
	flags.StringVar(&a.flags.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/autojv/autojv.json)")
	flags.StringVar(&a.flags.vendor, "vendor", "", "required JDK vendor, e.g. zulu or temurin")
	flags.StringVar(&a.flags.os, "os", "", "target operating system (default: this machine)")
	flags.StringVar(&a.flags.arch, "arch", "", "target architecture (default: this machine)")
	flags.StringVar(&a.flags.releaseType, "release-type", "", "ga or ea")
	flags.BoolVar(&a.flags.offline, "offline", false, "only use installed JDKs and cached archives")
	flags.StringVar(&a.flags.updatePolicy, "update-policy", "", "when to look for newer builds: never, always or a duration such as P1D")

	root.AddCommand(
		a.resolveCommand(),
		a.envCommand(),
		a.searchCommand(),
		a.installCommand(),
		a.listCommand(),
		a.purgeCommand(),
		a.cacheCommand(),
		a.pathsCommand(),
		a.selfUpdateCommand(),
		a.versionCommand(),
	)
	return root
}

// setup loads the configuration, applies flag overrides and attaches the
// logger to the command context.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	level := log.InfoLevel
	if a.flags.verbose {
		level = log.DebugLevel
	}
	a.logger = newLogger(a.stderr, level)
	cmd.SetContext(logging.WithLogger(cmd.Context(), a.logger))

	var err error
	if a.flags.configPath != "" {
		a.cfg, err = config.LoadFrom(a.flags.configPath)
	} else {
		a.cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if a.flags.offline {
		a.cfg.Offline = true
	}
	if a.flags.updatePolicy != "" {
		a.cfg.UpdatePolicy = a.flags.updatePolicy
	}
	if a.workDir == "" {
		if a.workDir, err = os.Getwd(); err != nil {
			return err
		}
	}
	if isTerminal(a.stderr) {
		a.bars = &downloadBars{out: a.stderr}
	}
	return nil
}

func (a *app) resolver() (*resolver.Resolver, error) {
	setup := resolver.Setup{Logger: a.logger}
	if a.bars != nil {
		setup.OnProgress = a.bars.update
	}
	return resolver.FromConfig(a.cfg, setup)
}

// finishDownloads clears any progress bar left by a failed transfer.
func (a *app) finishDownloads(err error) {
	if a.bars != nil {
		a.bars.finish(err)
	}
}

// requirement builds the requirement for a command. The version comes from
// args or, failing that, from the nearest project file. Flags override the
// project file field by field.
func (a *app) requirement(args []string) (jdk.Requirement, error) {
	var versionSpec, vendor, osName, arch, releaseType string

	project, err := config.FindProject(a.workDir)
	if err != nil {
		return jdk.Requirement{}, err
	}
	if project != nil {
		a.logger.Debug("Using project file", "path", project.Path())
		versionSpec, vendor, osName, arch, releaseType = project.Version, project.Vendor, project.OS, project.Arch, project.ReleaseType
	}

	if len(args) > 0 {
		versionSpec = args[0]
	}
	if versionSpec == "" {
		return jdk.Requirement{}, fmt.Errorf("no version given and no %s found", config.ProjectFileName)
	}
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&vendor, a.flags.vendor)
	override(&osName, a.flags.os)
	override(&arch, a.flags.arch)
	override(&releaseType, a.flags.releaseType)

	return jdk.NewRequirement(versionSpec, vendor, osName, arch, releaseType)
}

// notifyUpdate runs the background self-update check after a command.
func (a *app) notifyUpdate(cmd *cobra.Command, _ []string) {
	if a.cfg == nil || a.cfg.Offline || !isTerminal(a.stderr) {
		return
	}
	upd, err := updater.NewUpdater(a.cfg, a.version)
	if err != nil || !upd.ShouldCheckForUpdate() {
		return
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()
	release, err := upd.CheckForUpdate(ctx)
	if err != nil {
		a.logger.Debug("Background update check failed", "err", err)
		return
	}
	if release != nil {
		updater.ShowUpdateNotification(a.stderr, upd.CurrentVersion(), release.Version())
	}
}
