package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hopic-ci/hopic/pkg/gitrepo"
)

// NewCheckoutSourceTreeCommand implements `checkout-source-tree` (spec
// §6): realizes the working tree described by CheckoutOptions and
// prints the resolved commit hash to stdout, then persists the
// hopic.code bookkeeping section spec §6 describes.
func NewCheckoutSourceTreeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkout-source-tree",
		Short: "Clone or update the workspace to the target ref/commit",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := readGlobals(cmd)
			if err != nil {
				return err
			}
			remote, _ := cmd.Flags().GetString("target-remote")
			ref, _ := cmd.Flags().GetString("target-ref")
			commit, _ := cmd.Flags().GetString("target-commit")
			clean, _ := cmd.Flags().GetBool("clean")
			allowSubmoduleFailure, _ := cmd.Flags().GetBool("ignore-initial-submodule-checkout-failure")

			repo := g.repo()
			ctx := cmd.Context()

			opts := gitrepo.CheckoutOptions{
				Remote:                remote,
				Ref:                   ref,
				Commit:                commit,
				HasCommit:             commit != "",
				Clean:                 clean,
				Tags:                  true,
				AllowSubmoduleFailure: allowSubmoduleFailure,
			}
			if err := repo.CheckoutTree(ctx, opts); err != nil {
				return err
			}

			head, err := repo.RevParse(ctx, "HEAD")
			if err != nil {
				return err
			}

			if err := repo.ConfigSet(ctx, "hopic.code.dir", g.Workspace); err != nil {
				return err
			}
			if err := repo.ConfigSet(ctx, "hopic.code.cfg-remote", remote); err != nil {
				return err
			}
			if err := repo.ConfigSet(ctx, "hopic.code.cfg-ref", ref); err != nil {
				return err
			}
			if err := repo.ConfigSet(ctx, "hopic.code.cfg-clean", fmt.Sprintf("%t", clean)); err != nil {
				return err
			}

			fmt.Println(head)
			return nil
		},
	}

	cmd.Flags().String("target-remote", "", "Remote URL to fetch from")
	cmd.Flags().String("target-ref", "", "Ref to fetch and check out")
	cmd.Flags().String("target-commit", "", "Commit that must be reachable from --target-ref")
	cmd.Flags().Bool("clean", false, "Wipe the workspace before checkout and run configured clean commands after")
	cmd.Flags().Bool("ignore-initial-submodule-checkout-failure", false, "Tolerate a submodule checkout failure on a fresh clone")
	_ = cmd.MarkFlagRequired("target-remote")
	_ = cmd.MarkFlagRequired("target-ref")

	return cmd
}
