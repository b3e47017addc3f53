package cli

import (
	"github.com/spf13/cobra"
)

// NewUnbundleWorktreesCommand implements `unbundle-worktrees`: the
// counterpart to pkg/phase's worktree bundling step (spec §4.6's final
// paragraph), run on whatever checkout ends up holding the bundle file
// produced by a build invocation elsewhere. It fast-forwards each
// declared worktree ref from the bundle and folds its refspec into the
// current HEAD's PerCommitMeta, so `submit` later pushes it alongside
// the main ref.
func NewUnbundleWorktreesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unbundle-worktrees",
		Short: "Fast-forward configured worktree refs from a bundle",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := readGlobals(cmd)
			if err != nil {
				return err
			}
			bundlePath, _ := cmd.Flags().GetString("bundle")
			refspecs, _ := cmd.Flags().GetStringArray("refspec")

			repo := g.repo()
			ctx := cmd.Context()

			if err := repo.FetchBundleRefspecs(ctx, bundlePath, refspecs); err != nil {
				return err
			}

			head, err := repo.RevParse(ctx, "HEAD")
			if err != nil {
				return err
			}
			meta, err := repo.ReadPerCommitMeta(ctx, head)
			if err != nil {
				return err
			}
			meta.Refspecs = append(meta.Refspecs, refspecs...)
			return repo.WritePerCommitMeta(ctx, head, meta)
		},
	}
	cmd.Flags().String("bundle", "", "Path to the bundle file produced by build's worktree bundling step")
	cmd.Flags().StringArray("refspec", nil, "src:dst worktree refspec to fast-forward from the bundle (repeatable)")
	_ = cmd.MarkFlagRequired("bundle")
	return cmd
}
