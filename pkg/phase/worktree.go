package phase

import (
	"context"

	"github.com/hopic-ci/hopic/pkg/config"
	"github.com/hopic-ci/hopic/pkg/gitrepo"
)

// collectWorktrees implements spec §4.6's post-sh-steps worktree
// handling: for each declared worktrees[subdir], stage its changed
// files (or everything untracked+modified), commit as the main
// repository's configured user.name/user.email with the main HEAD's
// committer date as author and committer date, then restore mtimes
// inside that sub-repository.
func collectWorktrees(ctx context.Context, opts RunOptions, variant config.Variant, acc *accumulator, result *Result) error {
	for subdir := range acc.worktreeCommits {
		sub := gitrepo.New(opts.Repo.Dir + "/" + subdir)

		base, err := sub.RevParse(ctx, "HEAD")
		if err != nil {
			return err
		}

		changed := worktreeChangedFiles(variant, subdir)
		if len(changed) > 0 {
			if _, err := sub.RunGit(ctx, append([]string{"add", "--"}, changed...)...); err != nil {
				return err
			}
		} else {
			if _, err := sub.RunGit(ctx, "add", "-A"); err != nil {
				return err
			}
		}

		clean, err := indexIsClean(ctx, sub)
		if err != nil {
			return err
		}
		if clean {
			continue
		}

		if err := commitWithMainIdentity(ctx, opts, sub, variant.Name); err != nil {
			return err
		}
		if err := sub.RestoreMtimeFromGit(ctx); err != nil {
			log.Printf("restoring worktree mtimes in %s failed: %v", subdir, err)
		}

		newCommit, err := sub.RevParse(ctx, "HEAD")
		if err != nil {
			return err
		}
		result.WorktreeCommits[subdir] = newCommit
		if _, seen := result.WorktreeBases[subdir]; !seen {
			result.WorktreeBases[subdir] = base
		}
	}
	return nil
}

func worktreeChangedFiles(variant config.Variant, subdir string) []string {
	var files []string
	for _, step := range variant.Steps {
		if target, ok := step.Worktrees[subdir]; ok && target != "" {
			files = append(files, target)
		}
		files = append(files, step.ChangedFiles...)
	}
	return files
}

func indexIsClean(ctx context.Context, sub *gitrepo.Repo) (bool, error) {
	_, err := sub.RunGit(ctx, "diff", "--cached", "--quiet", "HEAD")
	return err == nil, nil
}

func commitWithMainIdentity(ctx context.Context, opts RunOptions, sub *gitrepo.Repo, variantName string) error {
	authorName, _ := opts.Repo.ConfigGet(ctx, "user.name")
	authorEmail, _ := opts.Repo.ConfigGet(ctx, "user.email")
	commitDate, err := opts.Repo.RunGit(ctx, "log", "-1", "--format=%cI", "HEAD")
	if err != nil {
		return err
	}

	env := []string{
		"GIT_AUTHOR_NAME=" + authorName,
		"GIT_AUTHOR_EMAIL=" + authorEmail,
		"GIT_AUTHOR_DATE=" + commitDate,
		"GIT_COMMITTER_NAME=" + authorName,
		"GIT_COMMITTER_EMAIL=" + authorEmail,
		"GIT_COMMITTER_DATE=" + commitDate,
	}
	message := "Worktree changes for variant " + variantName + "\n"
	return sub.CommitWithEnv(ctx, message, env)
}
