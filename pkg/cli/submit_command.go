package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/hopic-ci/hopic/pkg/archive"
	"github.com/hopic-ci/hopic/pkg/phase"
	"github.com/hopic-ci/hopic/pkg/submit"
)

// NewSubmitCommand implements `submit` (spec §4.7): pushes HEAD's
// accumulated refspecs atomically, clears the per-commit config
// section, then runs post_submit as a synthetic variant.
func NewSubmitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Push the prepared commit and run post-submit steps",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := readGlobals(cmd)
			if err != nil {
				return err
			}
			targetRemote, _ := cmd.Flags().GetString("target-remote")

			repo := g.repo()
			ctx := cmd.Context()

			cfg, err := g.loadPipelineConfig()
			if err != nil {
				return err
			}

			change, err := buildChangeContext(ctx, repo, cfg, g.PublishableVersion)
			if err != nil {
				return err
			}

			return submit.Submit(ctx, submit.Options{
				Repo:         repo,
				TargetRemote: targetRemote,
				PostSubmit:   cfg.PostSubmit,
				StepOptions: phase.RunOptions{
					Config:         cfg,
					Change:         change,
					Credentials:    credentialsBackend(),
					ProjectName:    cfg.ProjectName,
					PassThroughEnv: g.WhitelistedVars,
					Printer:        g.printer(),
					ArtifactNormalize: func(_ context.Context, path string, sourceDateEpoch int64) error {
						return archive.Normalize(path, sourceDateEpoch)
					},
				},
			})
		},
	}
	cmd.Flags().String("target-remote", "", "Override the remote URL persisted in PerCommitMeta")
	return cmd
}
