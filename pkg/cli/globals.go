// Package cli wires one cobra.Command per subcommand of spec §6, in
// the teacher's one-command-per-file layout
// (_examples/githubnext-gh-aw/cmd/gh-aw/main.go constructs each command
// with an exported NewXxxCommand and wires global flags once on the
// root command).
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/hopic-ci/hopic/pkg/config"
	"github.com/hopic-ci/hopic/pkg/console"
	"github.com/hopic-ci/hopic/pkg/credentials"
	"github.com/hopic-ci/hopic/pkg/gitrepo"
)

// HopicVersion is stamped into every commit trailer and notes block;
// set once from cmd/hopic's build-time version variable.
var HopicVersion = "0.0.0-dev"

// addGlobalFlags registers the options spec §6 calls global: resolved
// once on the root command and inherited by every subcommand.
func addGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("color", "auto", "Colorize diagnostic output: always, auto, or never")
	cmd.PersistentFlags().String("config", "", "Path to hopic-ci-config.yaml (default: search the workspace)")
	cmd.PersistentFlags().String("workspace", ".", "Path to the Git workspace to operate on")
	cmd.PersistentFlags().StringArray("whitelisted-var", nil, "Name of a host environment variable a step may pass through (repeatable)")
	cmd.PersistentFlags().Bool("publishable-version", false, "Compute PUBLISH_VERSION as a plain release rather than a commit-hash prerelease")
	cmd.PersistentFlags().CountP("verbose", "v", "Increase engine diagnostic verbosity (sets DEBUG=* for pkg/logger)")
	cmd.PersistentFlags().Bool("git-verbose", false, "Pass verbose tracing through to every git(1) invocation (sets GIT_TRACE=1)")
}

// globalOptions is what every subcommand's RunE derives from the
// inherited persistent flags.
type globalOptions struct {
	Color               console.ColorMode
	ConfigPath          string
	Workspace           string
	WhitelistedVars     []string
	PublishableVersion  bool
}

func readGlobals(cmd *cobra.Command) (globalOptions, error) {
	color, err := cmd.Flags().GetString("color")
	if err != nil {
		return globalOptions{}, err
	}
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return globalOptions{}, err
	}
	workspace, err := cmd.Flags().GetString("workspace")
	if err != nil {
		return globalOptions{}, err
	}
	whitelisted, err := cmd.Flags().GetStringArray("whitelisted-var")
	if err != nil {
		return globalOptions{}, err
	}
	publishable, err := cmd.Flags().GetBool("publishable-version")
	if err != nil {
		return globalOptions{}, err
	}
	verbosity, err := cmd.Flags().GetCount("verbose")
	if err != nil {
		return globalOptions{}, err
	}
	if verbosity > 0 && os.Getenv("DEBUG") == "" {
		os.Setenv("DEBUG", "*")
	}
	gitVerbose, err := cmd.Flags().GetBool("git-verbose")
	if err != nil {
		return globalOptions{}, err
	}
	if gitVerbose {
		os.Setenv("GIT_TRACE", "1")
	}

	return globalOptions{
		Color:              console.ColorMode(color),
		ConfigPath:         configPath,
		Workspace:          workspace,
		WhitelistedVars:    whitelisted,
		PublishableVersion: publishable,
	}, nil
}

func (g globalOptions) printer() *console.Printer {
	return console.NewPrinter(g.Color)
}

func (g globalOptions) repo() *gitrepo.Repo {
	return gitrepo.New(g.Workspace)
}

// loadPipelineConfig loads and validates the pipeline config for the
// current workspace, per spec §4.1's two-pass pipeline. Plugin
// installation (the `pip:` pre-pass) is out of scope for this
// standalone engine: no plugin loader is wired, so the installer
// always returns the empty template set.
func (g globalOptions) loadPipelineConfig() (*config.PipelineConfig, error) {
	loader := &config.Loader{
		Workspace:  g.Workspace,
		ConfigPath: g.ConfigPath,
	}
	return loader.Load()
}

// credentialsBackend is the credential store every subcommand that
// touches with-credentials resolves against. EnvBackend reads
// project/id-scoped environment variables, per pkg/credentials' own
// grounding note.
func credentialsBackend() credentials.Backend {
	return credentials.EnvBackend{}
}
