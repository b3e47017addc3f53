package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hopic-ci/hopic/pkg/config"
)

// NewShowConfigCommand implements `show-config`: a diagnostic JSON dump
// of the fully resolved pipeline config, for a human or the outer CI
// driver to inspect without re-implementing the config loader.
func NewShowConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show-config",
		Short: "Print the resolved pipeline config as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := readGlobals(cmd)
			if err != nil {
				return err
			}
			cfg, err := g.loadPipelineConfig()
			if err != nil {
				return err
			}

			projection := config.ShowConfigProjection(cfg)
			if err := config.ValidateShowConfigProjection(projection); err != nil {
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
