package cli

import (
	"github.com/spf13/cobra"

	"github.com/hopic-ci/hopic/pkg/prepare"
)

// NewRootCommand builds the hopic root command: every subcommand of
// spec §6 wired under one cobra tree, mirroring
// _examples/githubnext-gh-aw/cmd/gh-aw/main.go's rootCmd construction.
func NewRootCommand(version string) *cobra.Command {
	HopicVersion = version
	prepare.HopicVersion = version

	cmd := &cobra.Command{
		Use:     "hopic",
		Short:   "Git-based change-integration and build-orchestration engine",
		Version: version,
	}

	addGlobalFlags(cmd)

	cmd.AddCommand(NewCheckoutSourceTreeCommand())
	cmd.AddCommand(NewPrepareSourceTreeCommand())
	cmd.AddCommand(NewBuildCommand())
	cmd.AddCommand(NewUnbundleWorktreesCommand())
	cmd.AddCommand(NewSubmitCommand())
	cmd.AddCommand(NewGetinfoCommand())
	cmd.AddCommand(NewShowConfigCommand())
	cmd.AddCommand(NewShowEnvCommand())
	cmd.AddCommand(NewMayPublishCommand())

	return cmd
}
