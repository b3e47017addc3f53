package cli

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/spf13/cobra"

	"github.com/hopic-ci/hopic/pkg/classifier"
	"github.com/hopic-ci/hopic/pkg/config"
	"github.com/hopic-ci/hopic/pkg/gitrepo"
	"github.com/hopic-ci/hopic/pkg/prepare"
	"github.com/hopic-ci/hopic/pkg/version"
)

// NewPrepareSourceTreeCommand implements `prepare-source-tree` (spec
// §4.5): one parent command with the shared author/committer identity
// flags, and exactly one of three mutually exclusive sub-modes that
// each produce at most one commit.
func NewPrepareSourceTreeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prepare-source-tree",
		Short: "Merge, modality-change, or bump-version the workspace HEAD",
	}

	cmd.PersistentFlags().String("author-name", "", "Author name to stamp on the produced commit")
	cmd.PersistentFlags().String("author-email", "", "Author email to stamp on the produced commit")
	cmd.PersistentFlags().String("author-date", "", "Author date to stamp on the produced commit")
	cmd.PersistentFlags().String("commit-date", "", "Committer date to stamp on the produced commit")

	cmd.AddCommand(newMergeChangeRequestCommand())
	cmd.AddCommand(newApplyModalityChangeCommand())
	cmd.AddCommand(newBumpVersionCommand())

	return cmd
}

func authorEnv(cmd *cobra.Command) []string {
	var env []string
	if v, _ := cmd.Flags().GetString("author-name"); v != "" {
		env = append(env, "GIT_AUTHOR_NAME="+v)
	}
	if v, _ := cmd.Flags().GetString("author-email"); v != "" {
		env = append(env, "GIT_AUTHOR_EMAIL="+v)
	}
	if v, _ := cmd.Flags().GetString("author-date"); v != "" {
		env = append(env, "GIT_AUTHOR_DATE="+v)
	}
	if v, _ := cmd.Flags().GetString("commit-date"); v != "" {
		env = append(env, "GIT_COMMITTER_DATE="+v)
	}
	return env
}

func newMergeChangeRequestCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge-change-request",
		Short: "Merge a change request's tip with --no-ff --no-commit and build its commit message",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := readGlobals(cmd)
			if err != nil {
				return err
			}
			sourceRemote, _ := cmd.Flags().GetString("source-remote")
			sourceRef, _ := cmd.Flags().GetString("source-ref")
			changeRequest, _ := cmd.Flags().GetString("change-request")
			title, _ := cmd.Flags().GetString("title")
			description, _ := cmd.Flags().GetString("description")
			approvedBy, _ := cmd.Flags().GetStringArray("approved-by")

			var approvals []prepare.Approval
			for _, entry := range approvedBy {
				a, err := prepare.ParseApproval(entry)
				if err != nil {
					return err
				}
				approvals = append(approvals, a)
			}

			repo := g.repo()
			cfg, err := g.loadPipelineConfig()
			if err != nil {
				return err
			}

			result, modeErr := prepare.MergeChangeRequest(cmd.Context(), repo, classifier.ConventionalCommits{},
				sourceRemote, sourceRef, changeRequest, title, description, approvals)
			return finishPrepare(cmd, repo, cfg, result, modeErr)
		},
	}
	cmd.Flags().String("source-remote", "", "Remote URL to fetch the change request's source branch from")
	cmd.Flags().String("source-ref", "", "Ref on source-remote to merge")
	cmd.Flags().String("change-request", "", "Change request identifier, e.g. a pull request number")
	cmd.Flags().String("title", "", "Change request title")
	cmd.Flags().String("description", "", "Change request description")
	cmd.Flags().StringArray("approved-by", nil, "name:sha entry of an approving reviewer (repeatable)")
	_ = cmd.MarkFlagRequired("source-remote")
	_ = cmd.MarkFlagRequired("source-ref")
	return cmd
}

func newApplyModalityChangeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply-modality-change <name>",
		Short: "Run a modality's source-preparation steps and commit the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := readGlobals(cmd)
			if err != nil {
				return err
			}
			name := args[0]

			repo := g.repo()
			cfg, err := g.loadPipelineConfig()
			if err != nil {
				return err
			}

			steps := cfg.ModalitySourcePreparation[name]
			result, modeErr := prepare.ApplyModalityChange(cmd.Context(), repo, name, steps, cfg.CodeDir)
			return finishPrepare(cmd, repo, cfg, result, modeErr)
		},
	}
	return cmd
}

func newBumpVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bump-version",
		Short: "Produce an empty release-bump commit unless HEAD is already an exact tag",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := readGlobals(cmd)
			if err != nil {
				return err
			}

			repo := g.repo()
			cfg, err := g.loadPipelineConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			described, err := repo.Describe(ctx)
			if err != nil {
				return err
			}
			gv, ok := version.ParseGitDescribe(described)
			if !ok {
				return fmt.Errorf("version: could not parse `git describe` output %q", described)
			}

			result, modeErr := prepare.BumpVersion(ctx, repo, gv)
			return finishPrepare(cmd, repo, cfg, result, modeErr)
		},
	}
	return cmd
}

// finishPrepare drives the shared tail of every sub-mode: committing
// the sub-mode's result (or passing a no-op through unchanged), the
// version-bump state machine of spec §4.5.1, PerCommitMeta persistence,
// and the Notes signature block, then prints the new commit hash and,
// if a bump advanced, the new version — per spec §6.
func finishPrepare(cmd *cobra.Command, repo *gitrepo.Repo, cfg *config.PipelineConfig, result prepare.ModeResult, modeErr error) error {
	ctx := cmd.Context()

	if modeErr != nil {
		if prepare.ErrNoOp(modeErr) {
			head, err := repo.RevParse(ctx, "HEAD")
			if err != nil {
				return err
			}
			fmt.Println(head)
			return nil
		}
		return modeErr
	}

	prevHead, err := repo.RevParse(ctx, "HEAD")
	if err != nil {
		return err
	}

	env := authorEnv(cmd)
	if err := repo.CommitWithEnv(ctx, result.Message, env); err != nil {
		return err
	}

	newCommit, err := repo.RevParse(ctx, "HEAD")
	if err != nil {
		return err
	}

	targetRef, _ := repo.ConfigGet(ctx, "hopic.code.cfg-ref")

	bumped, newVersion, err := runVersionBump(ctx, repo, cfg, targetRef, newCommit, prevHead, result, env)
	if err != nil {
		return err
	}
	if bumped {
		// When a version file is configured, runVersionBump amended
		// HEAD (and so changed its hash) to fold the version-file bump
		// into this same commit.
		newCommit, err = repo.RevParse(ctx, "HEAD")
		if err != nil {
			return err
		}
	}

	meta := gitrepo.PerCommitMeta{
		Ref:           targetRef,
		TargetCommit:  newCommit,
		VersionBumped: bumped,
	}
	if result.HasSourceCommit {
		meta.SourceCommit = result.SourceCommit
	}
	if err := repo.WritePerCommitMeta(ctx, newCommit, meta); err != nil {
		return err
	}

	if err := repo.WriteNote(ctx, targetRef, newCommit, gitrepo.SignatureBlock{
		CommitterVersion: HopicVersion,
		RuntimeVersion:   HopicVersion,
	}); err != nil {
		return err
	}

	fmt.Println(newCommit)
	if newVersion != nil {
		fmt.Println(newVersion.String())
	}
	return nil
}

// runVersionBump implements spec §4.5.1's state machine against the
// commit finishPrepare just produced, re-deriving source_commits via
// ClassifyCommits over the direction result indicates (a merge's
// base..source_commit, or HEAD's ancestry when neither was supplied).
func runVersionBump(ctx context.Context, repo *gitrepo.Repo, cfg *config.PipelineConfig, targetRef, newCommit, prevHead string, result prepare.ModeResult, env []string) (bool, *version.Version, error) {
	bumpPolicy := cfg.Version.Bump
	onEveryChange := cfg.Version.OnEveryChange
	if result.BumpOverride != nil {
		bumpPolicy.Strict = result.BumpOverride.Strict
		onEveryChange = result.BumpOverride.OnEveryChange
	}
	if bumpPolicy.Policy == config.BumpPolicyDisabled {
		return false, nil, nil
	}

	current, err := currentVersion(ctx, repo, cfg)
	if err != nil {
		return false, nil, err
	}

	base := result.BaseCommit
	target := newCommit
	if result.HasBaseCommit {
		target = result.SourceCommit
	} else {
		base = prevHead
	}
	firstParent := result.BumpOverride == nil
	noMerges := result.BumpOverride == nil
	commits, err := prepare.ClassifyCommits(ctx, repo, classifier.ConventionalCommits{}, base, target, firstParent, noMerges, bumpPolicy.Strict)
	if err != nil {
		return false, nil, err
	}

	hotfixID, hasHotfix, err := hotfixFromRef(cfg, targetRef)
	if err != nil {
		return false, nil, err
	}

	// The hotfix base is only re-derived from `git describe` when the
	// current version comes from a tag rather than a version file.
	var gitDescribe func() (version.GitVersion, error)
	if cfg.Version.File == "" {
		gitDescribe = func() (version.GitVersion, error) {
			described, err := repo.Describe(ctx)
			if err != nil {
				return version.GitVersion{}, err
			}
			gv, ok := version.ParseGitDescribe(described)
			if !ok {
				return version.GitVersion{}, fmt.Errorf("version: could not parse `git describe` output %q", described)
			}
			return gv, nil
		}
	}

	outcome, err := prepare.Run(prepare.BumpInput{
		SourceCommits:  commits,
		TargetRef:      targetRef,
		Bump:           bumpPolicy,
		OnEveryChange:  onEveryChange,
		PublishFrom:    cfg.PublishFromBranch,
		HasPublishFrom: cfg.PublishFromBranch != "",
		Current:        current,
		HotfixID:       hotfixID,
		HasHotfix:      hasHotfix,
		GitDescribe:    gitDescribe,
	})
	if err != nil {
		return false, nil, err
	}
	if !outcome.Advanced {
		return false, nil, nil
	}

	if cfg.Version.File != "" {
		if err := version.ReplaceVersionFile(cfg.Version.File, outcome.Next); err != nil {
			return false, nil, err
		}
		if _, err := repo.RunGit(ctx, "add", "--", cfg.Version.File); err != nil {
			return false, nil, err
		}
		message := result.Message
		if result.BumpMessage != "" {
			message = result.BumpMessage
		}
		if err := repo.AmendCommitWithEnv(ctx, message, env); err != nil {
			return false, nil, err
		}
	}

	return true, &outcome.Next, nil
}

func currentVersion(ctx context.Context, repo *gitrepo.Repo, cfg *config.PipelineConfig) (version.Version, error) {
	if cfg.Version.File != "" {
		return version.ReadVersionFile(cfg.Version.File)
	}
	described, err := repo.Describe(ctx)
	if err != nil {
		return version.Version{}, err
	}
	gv, ok := version.ParseGitDescribe(described)
	if !ok {
		return version.Version{}, fmt.Errorf("version: could not parse `git describe` output %q", described)
	}
	return gv.ToVersion(time.Now())
}

func hotfixFromRef(cfg *config.PipelineConfig, targetRef string) (string, bool, error) {
	if cfg.Version.HotfixBranch == "" {
		return "", false, nil
	}
	pattern, err := regexp.Compile(cfg.Version.HotfixBranch)
	if err != nil {
		return "", false, fmt.Errorf("version: invalid hotfix-branch pattern %q: %w", cfg.Version.HotfixBranch, err)
	}
	return version.ExtractHotfixID(pattern, targetRef)
}
