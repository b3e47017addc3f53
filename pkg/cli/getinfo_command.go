package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hopic-ci/hopic/pkg/config"
)

// NewGetinfoCommand implements `getinfo` (spec §6): emits a JSON
// projection of the workspace's checked-out code location and project
// metadata, for the outer CI driver to plan phases/ci-locks around.
func NewGetinfoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "getinfo",
		Short: "Print a JSON projection of the loaded config and checkout state",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := readGlobals(cmd)
			if err != nil {
				return err
			}

			repo := g.repo()
			ctx := cmd.Context()

			cfg, err := g.loadPipelineConfig()
			if err != nil {
				return err
			}

			ref, _ := repo.ConfigGet(ctx, "hopic.code.cfg-ref")
			remote, _ := repo.ConfigGet(ctx, "hopic.code.cfg-remote")
			commit, err := repo.RevParse(ctx, "HEAD")
			if err != nil {
				return err
			}

			projection := config.GetinfoProjection(cfg, HopicVersion, ref, remote, commit)
			if err := config.ValidateGetinfoProjection(projection); err != nil {
				return err
			}

			out, err := json.MarshalIndent(projection, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
	return cmd
}
