package cli

import (
	"regexp"

	"github.com/spf13/cobra"

	"github.com/hopic-ci/hopic/pkg/hopicerr"
)

// NewMayPublishCommand implements `may-publish` (spec §6): exits 0 iff
// the persisted target ref matches publish-from-branch (or the policy
// is unset, which always allows publishing).
func NewMayPublishCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "may-publish",
		Short: "Exit 0 iff the checked-out target ref is allowed to publish",
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

			targetRef, _ := repo.ConfigGet(ctx, "hopic.code.cfg-ref")
			return checkMayPublish(cfg.PublishFromBranch, targetRef)
		},
	}
	return cmd
}

// checkMayPublish implements publish-from-branch's matching rule: an
// unset pattern always allows publishing, an invalid pattern is a
// configuration error, and a non-matching ref is a versioning error.
func checkMayPublish(publishFromBranch, targetRef string) error {
	if publishFromBranch == "" {
		return nil
	}
	re, err := regexp.Compile(publishFromBranch)
	if err != nil {
		return hopicerr.NewConfigurationError("invalid publish-from-branch pattern %q: %v", publishFromBranch, err)
	}
	if !re.MatchString(targetRef) {
		return hopicerr.NewVersioningError("target ref %q does not match publish-from-branch %q", targetRef, publishFromBranch)
	}
	return nil
}
