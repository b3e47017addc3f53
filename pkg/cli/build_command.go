package cli

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hopic-ci/hopic/pkg/archive"
	"github.com/hopic-ci/hopic/pkg/classifier"
	"github.com/hopic-ci/hopic/pkg/config"
	"github.com/hopic-ci/hopic/pkg/gitrepo"
	"github.com/hopic-ci/hopic/pkg/phase"
	"github.com/hopic-ci/hopic/pkg/prepare"
)

// NewBuildCommand implements `build` (spec §4.6): runs every selected
// phase/variant/step of the loaded config against the current HEAD.
func NewBuildCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Run the selected phases/variants of the pipeline config",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := readGlobals(cmd)
			if err != nil {
				return err
			}
			phases, _ := cmd.Flags().GetStringArray("phase")
			variants, _ := cmd.Flags().GetStringArray("variant")
			dryRun, _ := cmd.Flags().GetBool("dry-run")

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

			opts := phase.RunOptions{
				Repo:              repo,
				Config:            cfg,
				Selection:         phase.Selection{Phases: phases, Variants: variants},
				Change:            change,
				Credentials:       credentialsBackend(),
				ProjectName:       cfg.ProjectName,
				PassThroughEnv:    g.WhitelistedVars,
				DryRun:            dryRun,
				Printer:           g.printer(),
				ArtifactNormalize: func(_ context.Context, path string, sourceDateEpoch int64) error {
					return archive.Normalize(path, sourceDateEpoch)
				},
			}

			_, err = phase.Run(ctx, opts)
			return err
		},
	}
	cmd.Flags().StringArray("phase", nil, "Restrict the build to this phase (repeatable)")
	cmd.Flags().StringArray("variant", nil, "Restrict the build to this variant (repeatable)")
	cmd.Flags().Bool("dry-run", false, "Print what would run without executing steps")
	return cmd
}

// buildChangeContext derives phase.ChangeContext from the current
// HEAD's PerCommitMeta and the version vars computed off HEAD, per
// spec §4.6 points 1 and 5.
func buildChangeContext(ctx context.Context, repo *gitrepo.Repo, cfg *config.PipelineConfig, publishable bool) (phase.ChangeContext, error) {
	head, err := repo.RevParse(ctx, "HEAD")
	if err != nil {
		return phase.ChangeContext{}, err
	}
	meta, err := repo.ReadPerCommitMeta(ctx, head)
	if err != nil {
		return phase.ChangeContext{}, err
	}

	vv, err := computeVersionVars(ctx, repo, cfg, publishable)
	if err != nil {
		return phase.ChangeContext{}, err
	}

	targetRef, _ := repo.ConfigGet(ctx, "hopic.code.cfg-ref")
	publishAllowed := cfg.PublishFromBranch == ""
	if !publishAllowed {
		if re, err := regexp.Compile(cfg.PublishFromBranch); err == nil {
			publishAllowed = re.MatchString(targetRef)
		}
	}

	var sourceCommits []classifier.Classified
	if meta.SourceCommit != "" {
		sourceCommits, err = prepare.ClassifyCommits(ctx, repo, classifier.ConventionalCommits{}, meta.SourceCommit, head, false, false, false)
		if err != nil {
			return phase.ChangeContext{}, err
		}
	}

	return phase.ChangeContext{
		HasChange:       meta.SourceCommit != "" || meta.TargetCommit != "",
		PublishAllowed:  publishAllowed,
		VersionBumped:   meta.VersionBumped,
		SourceDateEpoch: vv.SourceDateEpoch,
		Version:         vv.Version,
		PureVersion:     vv.PureVersion,
		DebVersion:      vv.DebVersion,
		PublishVersion:  vv.PublishVersion,
		SourceCommits:   sourceCommits,
		AutosquashRange: sourceCommits,
		GitCommitTimeFor: func(hexsha string) (time.Time, error) {
			out, err := repo.RunGit(ctx, "log", "-1", "--format=%cI", hexsha)
			if err != nil {
				return time.Time{}, err
			}
			return time.Parse(time.RFC3339, strings.TrimSpace(out))
		},
	}, nil
}
