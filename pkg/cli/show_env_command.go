package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

// NewShowEnvCommand implements `show-env`: a diagnostic JSON dump of
// the reproducible-build variables (spec §4.6 point 5) a step would
// see, plus the host values of every whitelisted passthrough variable,
// without actually running any step.
func NewShowEnvCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show-env",
		Short: "Print the environment a build step would receive as JSON",
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

			vv, err := computeVersionVars(ctx, repo, cfg, g.PublishableVersion)
			if err != nil {
				return err
			}

			env := buildShowEnv(vv, g.WhitelistedVars, os.LookupEnv)

			out, err := json.MarshalIndent(env, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
	return cmd
}

// buildShowEnv assembles the JSON-able env map show-env prints: the
// fixed reproducible-build vars plus whatever whitelisted var names
// resolve through lookupEnv.
func buildShowEnv(vv versionVars, whitelisted []string, lookupEnv func(string) (string, bool)) map[string]string {
	env := map[string]string{
		"SOURCE_DATE_EPOCH": strconv.FormatInt(vv.SourceDateEpoch, 10),
		"VERSION":           vv.Version,
		"PURE_VERSION":      vv.PureVersion,
		"DEBVERSION":        vv.DebVersion,
		"PUBLISH_VERSION":   vv.PublishVersion,
	}
	for _, name := range whitelisted {
		if v, ok := lookupEnv(name); ok {
			env[name] = v
		}
	}
	return env
}
