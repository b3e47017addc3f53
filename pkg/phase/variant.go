package phase

import (
	"context"

	"github.com/hopic-ci/hopic/pkg/config"
	"github.com/hopic-ci/hopic/pkg/credentials"
	"github.com/hopic-ci/hopic/pkg/hopicerr"
)

// runVariant executes every step of one phase/variant in declaration
// order, folding accumulator state forward and stopping early when a
// run-on-change gate breaks out of the remaining sh steps.
func runVariant(ctx context.Context, opts RunOptions, phaseName string, variant config.Variant, result *Result) error {
	acc := newAccumulator(opts.Config.Volumes, opts.Config.Image, opts.Config.HasImage)
	budget := variantTimeoutBudget(variant)

	secrets := map[string]string{}

	for _, step := range variant.Steps {
		acc.apply(step)

		if len(step.Sh) == 0 {
			continue
		}

		run, brk := shouldRun(step.RunOnChange, opts.Change)
		if !run {
			if brk {
				break
			}
			continue
		}

		if len(acc.credentials) > 0 {
			env, err := credentials.Resolve(opts.Credentials, opts.ProjectName, acc.credentials)
			if err != nil {
				return err
			}
			for k, v := range env {
				secrets[k] = v
			}
			acc.credentials = nil
		}

		timeout, ok := budget.effective(step.Timeout, step.HasTimeout)
		if !ok {
			return stepTimeoutErr(phaseName, variant.Name, step.Description)
		}

		if err := runStepIterations(ctx, opts, variant.Name, step, acc, secrets, timeout); err != nil {
			return err
		}
	}

	if err := collectWorktrees(ctx, opts, variant, acc, result); err != nil {
		return err
	}

	return normalizeArtifacts(ctx, opts, acc)
}

func variantTimeoutBudget(variant config.Variant) *timeoutBudget {
	for _, step := range variant.Steps {
		if len(step.Sh) == 0 && step.HasTimeout {
			return newTimeoutBudget(step.Timeout, true)
		}
	}
	return newTimeoutBudget(0, false)
}

func normalizeArtifacts(ctx context.Context, opts RunOptions, acc *accumulator) error {
	if opts.ArtifactNormalize == nil {
		return nil
	}
	for _, spec := range acc.mandatoryArtifacts {
		if err := normalizeSpec(ctx, opts, spec, false); err != nil {
			return err
		}
	}
	for _, spec := range acc.mandatoryJUnit {
		if err := normalizeSpec(ctx, opts, spec, false); err != nil {
			return err
		}
	}
	for _, spec := range acc.optionalArtifacts {
		if err := normalizeSpec(ctx, opts, spec, true); err != nil {
			return err
		}
	}
	return nil
}

func normalizeSpec(ctx context.Context, opts RunOptions, spec config.ArtifactSpec, allowMissing bool) error {
	matched := false
	for _, pattern := range spec.Patterns {
		paths, err := globPattern(pattern)
		if err != nil {
			return err
		}
		for _, p := range paths {
			matched = true
			if err := opts.ArtifactNormalize(ctx, p, opts.Change.SourceDateEpoch); err != nil {
				return err
			}
		}
	}
	if !matched && !allowMissing {
		return hopicerr.NewMissingFileError("mandatory artifact pattern(s) %v matched nothing", spec.Patterns)
	}
	return nil
}
