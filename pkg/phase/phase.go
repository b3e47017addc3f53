// Package phase runs the phases/variants/steps of a loaded pipeline
// config, grounded on the subprocess-driving idiom of pkg/gitrepo and
// the background-process/signal-teardown pattern of
// _examples/githubnext-gh-aw/pkg/cli/mcp_inspect.go, adapted from
// ad-hoc server processes to single Docker-or-direct step invocations.
// It implements the runner of spec §4.6.
package phase

import (
	"context"
	"os"
	"time"

	"github.com/hopic-ci/hopic/pkg/classifier"
	"github.com/hopic-ci/hopic/pkg/config"
	"github.com/hopic-ci/hopic/pkg/console"
	"github.com/hopic-ci/hopic/pkg/credentials"
	"github.com/hopic-ci/hopic/pkg/gitrepo"
	"github.com/hopic-ci/hopic/pkg/hopicerr"
	"github.com/hopic-ci/hopic/pkg/logger"
)

var log = logger.New("phase")

// Selection filters which phases/variants actually run, per the build
// subcommand's repeatable --phase/--variant flags.
type Selection struct {
	Phases   []string
	Variants []string
}

func (s Selection) includesPhase(name string) bool {
	return len(s.Phases) == 0 || contains(s.Phases, name)
}

func (s Selection) includesVariant(name string) bool {
	return len(s.Variants) == 0 || contains(s.Variants, name)
}

func contains(haystack []string, needle string) bool {
	for _, h := range haystack {
		if h == needle {
			return true
		}
	}
	return false
}

// ChangeContext carries the facts the run-on-change evaluation and
// environment assembly need about the commit under build.
type ChangeContext struct {
	HasChange        bool
	PublishAllowed   bool
	VersionBumped    bool
	SourceDateEpoch  int64
	Version          string
	PureVersion      string
	DebVersion       string
	PublishVersion   string
	SourceCommits    []classifier.Classified
	AutosquashRange  []classifier.Classified
	GitCommitTimeFor func(hexsha string) (time.Time, error)
}

// RunOptions bundles everything a Run call needs beyond the config
// tree itself.
type RunOptions struct {
	Repo            *gitrepo.Repo
	Config          *config.PipelineConfig
	Selection       Selection
	Change          ChangeContext
	Credentials     credentials.Backend
	ProjectName     string
	PassThroughEnv  []string
	DryRun          bool
	Printer         *console.Printer
	ArtifactNormalize func(ctx context.Context, path string, sourceDateEpoch int64) error
}

// Result is the accumulated outcome of a full build invocation: the
// worktree commits produced (for bundling) and every artifact refspec
// that needs later bundling/submission bookkeeping.
type Result struct {
	WorktreeCommits map[string]string // subdir -> new commit hash
	WorktreeBases   map[string]string // subdir -> base commit hash the range starts from
	BundlePath      string
	BundleRefspecs  []string // "<new-commit>:<worktree-ref>" entries to append to the push refspec list
}

// refForWorktree names the ref a worktree subdir's commits are bundled
// under: refs/worktrees/<subdir>, mirroring the hopic.<commit> refspec
// persistence scheme's "one well-known ref per concern" style.
func refForWorktree(subdir string) string {
	return "refs/worktrees/" + subdir
}

// Run drives every selected phase/variant/step in declaration order,
// per spec §4.6 and §5's ordering guarantees.
func Run(ctx context.Context, opts RunOptions) (Result, error) {
	result := Result{
		WorktreeCommits: map[string]string{},
		WorktreeBases:   map[string]string{},
	}

	if err := validateSelection(opts); err != nil {
		return result, err
	}

	for _, ph := range opts.Config.Phases {
		if !opts.Selection.includesPhase(ph.Name) {
			continue
		}
		for _, variant := range ph.Variants {
			if !opts.Selection.includesVariant(variant.Name) {
				continue
			}
			if err := runVariant(ctx, opts, ph.Name, variant, &result); err != nil {
				return result, err
			}
		}
	}

	if len(result.WorktreeCommits) > 0 {
		if err := bundleWorktrees(ctx, opts, &result); err != nil {
			return result, err
		}
	}

	return result, nil
}

// validateSelection rejects a --phase/--variant filter that names
// something absent from the loaded config, per spec §7's
// UnknownPhaseError (exit 35).
func validateSelection(opts RunOptions) error {
	for _, wantPhase := range opts.Selection.Phases {
		found := false
		for _, ph := range opts.Config.Phases {
			if ph.Name == wantPhase {
				found = true
				break
			}
		}
		if !found {
			return hopicerr.NewUnknownPhaseError("no phase named %q in the loaded config", wantPhase)
		}
	}
	for _, wantVariant := range opts.Selection.Variants {
		found := false
		for _, ph := range opts.Config.Phases {
			for _, v := range ph.Variants {
				if v.Name == wantVariant {
					found = true
					break
				}
			}
		}
		if !found {
			return hopicerr.NewUnknownPhaseError("no variant named %q in the loaded config", wantVariant)
		}
	}
	return nil
}

// RunSynthetic runs a single, already-assembled variant outside the
// normal phase/variant config tree. pkg/submit uses it to execute the
// post-submit step sequence as the "post-submit" synthetic variant
// spec §4.7 describes, reusing the same accumulator/timeout/run-on-
// change machinery as an ordinary phase variant.
func RunSynthetic(ctx context.Context, opts RunOptions, phaseName string, variant config.Variant) (Result, error) {
	result := Result{
		WorktreeCommits: map[string]string{},
		WorktreeBases:   map[string]string{},
	}
	if err := runVariant(ctx, opts, phaseName, variant, &result); err != nil {
		return result, err
	}
	return result, nil
}

func bundleWorktrees(ctx context.Context, opts RunOptions, result *Result) error {
	var ranges []string
	for subdir, newCommit := range result.WorktreeCommits {
		ref := refForWorktree(subdir)
		ranges = append(ranges, result.WorktreeBases[subdir]+".."+newCommit)
		result.BundleRefspecs = append(result.BundleRefspecs, newCommit+":"+ref)
	}

	f, err := os.CreateTemp("", "hopic-worktrees-*.bundle")
	if err != nil {
		return err
	}
	path := f.Name()
	f.Close()

	if err := opts.Repo.CreateBundle(ctx, path, ranges); err != nil {
		return err
	}
	result.BundlePath = path
	return nil
}
