// Package gitrepo drives Git via the git(1) CLI, grounded on the
// os/exec shelling style used throughout
// _examples/githubnext-gh-aw/pkg/campaign/status.go. It implements the
// Repository driver contract of spec §4.4.
package gitrepo

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/hopic-ci/hopic/pkg/hopicerr"
	"github.com/hopic-ci/hopic/pkg/logger"
)

var log = logger.New("gitrepo")

// Repo wraps a working tree and runs git(1) against it.
type Repo struct {
	Dir string
}

func New(dir string) *Repo {
	return &Repo{Dir: dir}
}

func (r *Repo) run(ctx context.Context, args ...string) (string, error) {
	log.LazyPrintf(func() string { return "git " + strings.Join(args, " ") })
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimRight(stdout.String(), "\n"), nil
}

// RunGit runs an arbitrary git subcommand against the repo, for
// callers (pkg/prepare, pkg/phase) that need an operation this package
// doesn't wrap with a dedicated method.
func (r *Repo) RunGit(ctx context.Context, args ...string) (string, error) {
	return r.run(ctx, args...)
}

// CommitWithEnv runs `git commit` with additional environment entries
// appended to the current process's environment, for callers (pkg/phase's
// worktree handling) that need to stamp a specific author/committer
// identity and timestamp rather than the ambient one. An empty commit is
// allowed, as bump-version's release commit stages nothing.
func (r *Repo) CommitWithEnv(ctx context.Context, message string, extraEnv []string) error {
	log.LazyPrintf(func() string { return "git commit -m ..." })
	cmd := exec.CommandContext(ctx, "git", "commit", "--allow-empty", "--allow-empty-message", "-m", message)
	cmd.Dir = r.Dir
	cmd.Env = append(os.Environ(), extraEnv...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("git commit: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// AmendCommitWithEnv rewrites HEAD with a new message and the current
// index as its tree (keeping its parents) after the caller has
// re-staged changes into the index, for the
// change preparer's version-bump "Persisted" state (spec §4.5.1 point
// 5): it stages a version-file rewrite into the commit the sub-mode
// already produced rather than creating a second one.
func (r *Repo) AmendCommitWithEnv(ctx context.Context, message string, extraEnv []string) error {
	log.LazyPrintf(func() string { return "git commit --amend ..." })
	cmd := exec.CommandContext(ctx, "git", "commit", "--amend", "--allow-empty-message", "-m", message)
	cmd.Dir = r.Dir
	cmd.Env = append(os.Environ(), extraEnv...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("git commit --amend: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func (r *Repo) exists() bool {
	_, err := os.Stat(r.Dir + "/.git")
	return err == nil
}

// CheckoutOptions parametrizes CheckoutTree per spec §4.4.
type CheckoutOptions struct {
	Remote                string
	Ref                    string
	Commit                 string
	HasCommit              bool
	Clean                  bool
	RemoteName             string
	Tags                   bool
	AllowSubmoduleFailure  bool
	CleanConfig            []string
}

// CheckoutTree realizes the working tree described by opts, per spec
// §4.4's checkout_tree operation.
func (r *Repo) CheckoutTree(ctx context.Context, opts CheckoutOptions) error {
	if opts.RemoteName == "" {
		opts.RemoteName = "origin"
	}

	if r.exists() {
		if err := r.wipeSubmoduleState(ctx); err != nil {
			return err
		}
	} else {
		if opts.Clean {
			if err := r.wipeDirectoryContents(); err != nil {
				return err
			}
		}
		if _, err := r.run(ctx, "clone", opts.Remote, r.Dir); err != nil {
			return hopicerr.NewConfigurationError("cloning %s: %v", opts.Remote, err)
		}
	}

	if _, err := r.run(ctx, "config", "--remove-section", "hopic.code"); err != nil {
		log.Printf("no hopic.code section to remove: %v", err)
	}
	if _, err := r.run(ctx, "config", "color.ui", "always"); err != nil {
		return err
	}

	if !opts.Tags {
		if err := r.deleteAllTags(ctx); err != nil {
			return err
		}
	}

	if _, err := r.run(ctx, "remote", "remove", opts.RemoteName); err != nil {
		log.Printf("remote %s did not exist: %v", opts.RemoteName, err)
	}
	if _, err := r.run(ctx, "remote", "add", opts.RemoteName, opts.Remote); err != nil {
		return err
	}

	if _, err := r.run(ctx, "fetch", opts.RemoteName, opts.Ref); err != nil {
		return hopicerr.NewConfigurationError("fetching %s from %s: %v", opts.Ref, opts.Remote, err)
	}

	target := "FETCH_HEAD"
	if opts.HasCommit {
		ancestor, err := r.run(ctx, "merge-base", "--is-ancestor", opts.Commit, "FETCH_HEAD")
		_ = ancestor
		if err != nil {
			return hopicerr.NewCommitAncestorMismatchError("commit %s is not an ancestor of %s", opts.Commit, opts.Ref)
		}
		target = opts.Commit
	}

	if _, err := r.run(ctx, "checkout", "--detach", target); err != nil {
		return err
	}
	if _, err := r.run(ctx, "reset", "--hard", target); err != nil {
		return err
	}

	if _, err := r.run(ctx, "submodule", "sync", "--recursive"); err != nil {
		return err
	}
	if _, err := r.run(ctx, "submodule", "update", "--init", "--recursive"); err != nil {
		if !opts.AllowSubmoduleFailure {
			return err
		}
		log.Printf("submodule update failed, continuing: %v", err)
	}

	if _, err := r.run(ctx, "fetch", opts.RemoteName,
		"+refs/notes/hopic/*:refs/notes/hopic/*", "--prune"); err != nil {
		log.Printf("no hopic notes to fetch: %v", err)
	}

	if opts.Clean {
		for _, cmdline := range opts.CleanConfig {
			if _, err := r.runShell(ctx, cmdline); err != nil {
				return err
			}
		}
		if _, err := r.run(ctx, "clean", "-xdff"); err != nil {
			return err
		}
		if err := r.RestoreMtimeFromGit(ctx); err != nil {
			log.Printf("restoring mtimes failed: %v", err)
		}
	}

	return nil
}

func (r *Repo) runShell(ctx context.Context, cmdline string) (string, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", cmdline)
	cmd.Dir = r.Dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.String(), err
}

// wipeDirectoryContents deletes the directory's entries without
// removing the directory itself, per spec §4.4 ("deleting the current
// working directory is disallowed").
func (r *Repo) wipeDirectoryContents() error {
	entries, err := os.ReadDir(r.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return os.MkdirAll(r.Dir, 0o755)
		}
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(r.Dir + "/" + e.Name()); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) wipeSubmoduleState(ctx context.Context) error {
	_, err := r.run(ctx, "submodule", "deinit", "-f", "--all")
	return err
}

func (r *Repo) deleteAllTags(ctx context.Context) error {
	out, err := r.run(ctx, "tag", "-l")
	if err != nil {
		return err
	}
	if strings.TrimSpace(out) == "" {
		return nil
	}
	tags := strings.Split(out, "\n")
	args := append([]string{"tag", "-d"}, tags...)
	_, err = r.run(ctx, args...)
	return err
}

// CreateBundle writes a Git bundle to path containing the given
// revision ranges (e.g. "<base>..<ref>"), per spec §4.6's worktree
// bundling step.
func (r *Repo) CreateBundle(ctx context.Context, path string, ranges []string) error {
	args := append([]string{"bundle", "create", path}, ranges...)
	_, err := r.run(ctx, args...)
	return err
}

// FetchBundleRefspecs fast-forwards each dst ref in refspecs ("src:dst"
// entries, as produced by pkg/phase's worktree bundling step) from the
// bundle at bundlePath. Plain (non-"+"-prefixed) refspecs make `git
// fetch` itself reject a non-fast-forward update, matching
// `unbundle-worktrees`'s "fast-forward only" contract.
func (r *Repo) FetchBundleRefspecs(ctx context.Context, bundlePath string, refspecs []string) error {
	args := append([]string{"fetch", bundlePath}, refspecs...)
	_, err := r.run(ctx, args...)
	return err
}

// CreateTag creates a lightweight tag at HEAD.
func (r *Repo) CreateTag(ctx context.Context, name string) error {
	_, err := r.run(ctx, "tag", name)
	return err
}

// Push atomically pushes the given refspecs to remoteName.
func (r *Repo) Push(ctx context.Context, remoteName string, refspecs []string) error {
	args := append([]string{"push", "--atomic", remoteName}, refspecs...)
	_, err := r.run(ctx, args...)
	return err
}

// MergeBaseIsAncestor reports whether ancestor is reachable from ref.
func (r *Repo) MergeBaseIsAncestor(ctx context.Context, ancestor, ref string) bool {
	_, err := r.run(ctx, "merge-base", "--is-ancestor", ancestor, ref)
	return err == nil
}

// RevParse resolves ref to its full commit hash.
func (r *Repo) RevParse(ctx context.Context, ref string) (string, error) {
	return r.run(ctx, "rev-parse", ref)
}

// Describe runs `git describe --tags --long --dirty --always`.
func (r *Repo) Describe(ctx context.Context) (string, error) {
	return r.run(ctx, "describe", "--tags", "--long", "--dirty", "--always")
}

// ConfigSet writes a value into a named repo-local config key.
func (r *Repo) ConfigSet(ctx context.Context, key, value string) error {
	_, err := r.run(ctx, "config", key, value)
	return err
}

// ConfigGet reads a repo-local config value; ok is false when unset.
func (r *Repo) ConfigGet(ctx context.Context, key string) (value string, ok bool) {
	out, err := r.run(ctx, "config", "--get", key)
	if err != nil {
		return "", false
	}
	return out, true
}

// ConfigGetAll reads every value under a config section, keyed by the
// key's suffix after the section prefix.
func (r *Repo) ConfigGetAll(ctx context.Context, sectionPrefix string) (map[string]string, error) {
	out, err := r.run(ctx, "config", "--get-regexp", "^"+regexQuoteDots(sectionPrefix)+`\.`)
	if err != nil {
		return map[string]string{}, nil
	}
	values := map[string]string{}
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, " ", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimPrefix(parts[0], sectionPrefix+".")
		values[key] = parts[1]
	}
	return values, nil
}

// RemoveConfigSection deletes an entire repo-local config section.
func (r *Repo) RemoveConfigSection(ctx context.Context, section string) error {
	_, err := r.run(ctx, "config", "--remove-section", section)
	return err
}

func regexQuoteDots(s string) string {
	return strings.ReplaceAll(s, ".", `\.`)
}
