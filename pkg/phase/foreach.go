package phase

import (
	"context"
	"strconv"
	"time"

	"github.com/hopic-ci/hopic/pkg/classifier"
	"github.com/hopic-ci/hopic/pkg/config"
)

// iteration is one pass of a step's execution: either the single
// foreach_item=null pass, or one per commit in the selected range.
type iteration struct {
	hasItem          bool
	item             string
	gitCommitTime    time.Time
	hasGitCommitTime bool
}

// runStepIterations implements spec §4.6 point 6: a step with no
// foreach runs once; SOURCE_COMMIT/SOURCE_CHANGESET iterate the
// classified commits of the corresponding range, child-to-parent
// order, each exposing its own ${SOURCE_COMMIT}/${AUTOSQUASHED_COMMIT}.
func runStepIterations(ctx context.Context, opts RunOptions, variantName string, step config.Step, acc *accumulator, secrets map[string]string, timeout time.Duration) error {
	iterations := iterationsFor(step.Foreach, opts.Change)

	for _, it := range iterations {
		env := buildEnvironment(step, acc.hasImage, opts.PassThroughEnv, opts.Change, false)
		for k, v := range secrets {
			env[k] = v
		}
		if it.hasItem {
			switch step.Foreach {
			case config.ForeachSourceCommit:
				env["SOURCE_COMMIT"] = it.item
			case config.ForeachSourceChangeset:
				env["AUTOSQUASHED_COMMIT"] = it.item
			}
			if it.hasGitCommitTime {
				env["GIT_COMMIT_TIME"] = it.gitCommitTime.UTC().Format(time.RFC3339)
				env["BUILD_DURATION"] = strconv.FormatInt(it.gitCommitTime.Unix()-opts.Change.SourceDateEpoch, 10)
			}
		}

		if err := executeStep(ctx, opts, variantName, step, acc, env, timeout); err != nil {
			return err
		}
	}
	return nil
}

func iterationsFor(mode config.ForeachMode, ch ChangeContext) []iteration {
	switch mode {
	case config.ForeachSourceCommit:
		return commitIterations(ch.SourceCommits, ch)
	case config.ForeachSourceChangeset:
		return commitIterations(ch.AutosquashRange, ch)
	default:
		return []iteration{{}}
	}
}

func commitIterations(commits []classifier.Classified, ch ChangeContext) []iteration {
	out := make([]iteration, 0, len(commits))
	for _, c := range commits {
		it := iteration{hasItem: true, item: c.Hexsha()}
		if ch.GitCommitTimeFor != nil {
			if t, err := ch.GitCommitTimeFor(c.Hexsha()); err == nil {
				it.gitCommitTime = t
				it.hasGitCommitTime = true
			}
		}
		out = append(out, it)
	}
	return out
}
