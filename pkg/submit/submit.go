// Package submit implements the Submitter of spec §4.7: it reads the
// PerCommitMeta left behind by pkg/prepare, pushes the accumulated
// refspecs atomically, clears the config section, and runs post-submit
// steps as a synthetic variant. Grounded on pkg/gitrepo's subprocess
// idiom for the push/config calls and on pkg/phase's accumulator-driven
// step runner (reused via phase.RunSynthetic) for the post-submit
// steps themselves.
package submit

import (
	"context"

	"github.com/hopic-ci/hopic/pkg/config"
	"github.com/hopic-ci/hopic/pkg/gitrepo"
	"github.com/hopic-ci/hopic/pkg/logger"
	"github.com/hopic-ci/hopic/pkg/phase"
)

var log = logger.New("submit")

const postSubmitVariantName = "post-submit"

// Options bundles everything Submit needs beyond the repo itself.
type Options struct {
	Repo *gitrepo.Repo
	// TargetRemote overrides the remote URL persisted in PerCommitMeta
	// when --target-remote was given on the CLI.
	TargetRemote string
	PostSubmit   []config.PostSubmitPhase
	// StepOptions carries everything phase.RunSynthetic needs to run
	// the post-submit steps: credentials backend, pass-through env,
	// dry-run, printer, artifact normalizer, and the ChangeContext for
	// run-on-change evaluation. Its Config/Selection fields are unused
	// here — the post-submit steps are not part of the phase tree.
	StepOptions phase.RunOptions
}

// Submit pushes the current HEAD's accumulated refspecs atomically,
// removes the PerCommitMeta section, then runs post-submit. A push
// failure is returned as-is so the caller's exit-code mapping (the
// git subprocess's own exit status) takes over, per spec §4.7.
func Submit(ctx context.Context, opts Options) error {
	head, err := opts.Repo.RevParse(ctx, "HEAD")
	if err != nil {
		return err
	}

	meta, err := opts.Repo.ReadPerCommitMeta(ctx, head)
	if err != nil {
		return err
	}

	remote := opts.TargetRemote
	if remote == "" {
		remote = meta.Remote
	}

	refspecs := resolveRefspecs(meta, head)

	if err := opts.Repo.Push(ctx, remote, refspecs); err != nil {
		return err
	}

	if err := opts.Repo.RemoveAllPerCommitMeta(ctx); err != nil {
		return err
	}

	variant := postSubmitVariant(opts.PostSubmit)
	if len(variant.Steps) == 0 {
		return nil
	}

	stepOpts := opts.StepOptions
	stepOpts.Repo = opts.Repo
	_, err = phase.RunSynthetic(ctx, stepOpts, postSubmitVariantName, variant)
	return err
}

// resolveRefspecs falls back to pushing HEAD straight at meta.Ref when
// no explicit refspec list was persisted (the common case: a plain
// fast-forward submit with no worktree bundles appended).
func resolveRefspecs(meta gitrepo.PerCommitMeta, head string) []string {
	if len(meta.Refspecs) > 0 {
		return meta.Refspecs
	}
	if meta.Ref == "" {
		return nil
	}
	return []string{head + ":" + meta.Ref}
}

// postSubmitVariant flattens every named post_submit phase's steps, in
// declaration order, into the single synthetic variant spec §4.7
// describes running them as.
func postSubmitVariant(phases []config.PostSubmitPhase) config.Variant {
	var steps []config.Step
	for _, ph := range phases {
		steps = append(steps, ph.Steps...)
	}
	return config.Variant{Name: postSubmitVariantName, Steps: steps}
}
