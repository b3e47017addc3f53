package prepare

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/hopic-ci/hopic/pkg/classifier"
	"github.com/hopic-ci/hopic/pkg/config"
	"github.com/hopic-ci/hopic/pkg/hopicerr"
	"github.com/hopic-ci/hopic/pkg/version"
)

// BumpInput is everything the state machine of spec §4.5.1 needs.
type BumpInput struct {
	SourceCommits []classifier.Classified
	TargetRef     string
	Bump          config.BumpPolicy
	OnEveryChange bool
	PublishFrom   string
	HasPublishFrom bool
	Current       version.Version
	HotfixID      string
	HasHotfix     bool
	GitDescribe   func() (version.GitVersion, error)
}

// BumpOutcome is the result of running the state machine: either a
// new version to persist, or Advanced=false meaning no bump applies.
type BumpOutcome struct {
	Advanced bool
	Next     version.Version
}

// Run drives the five states of spec §4.5.1 in order: Guarded,
// Eligible, Hotfix-rebased, Bumped, (persistence is the caller's job
// via pkg/version's ReplaceVersionFile).
func Run(in BumpInput) (BumpOutcome, error) {
	if err := guard(in); err != nil {
		return BumpOutcome{}, err
	}

	if !eligible(in) {
		return BumpOutcome{}, nil
	}

	base := in.Current
	if in.HasHotfix && in.Bump.Policy != config.BumpPolicyDisabled && in.GitDescribe != nil {
		rebased, err := hotfixRebase(in)
		if err != nil {
			return BumpOutcome{}, err
		}
		base = rebased
	}

	next, err := bump(in, base)
	if err != nil {
		return BumpOutcome{}, err
	}

	if next.Compare(in.Current) < 0 {
		return BumpOutcome{}, hopicerr.NewVersionBumpMismatchError(
			"computed next version %s is not >= current version %s", next.String(), in.Current.String())
	}

	return BumpOutcome{Advanced: true, Next: next}, nil
}

// guard implements state 1: reject breaking/new-feature commits
// against their configured policy, and require at least one fix on a
// hotfix with on-every-change.
func guard(in BumpInput) error {
	if in.Bump.Policy != config.BumpPolicyConventionalCommits {
		return nil
	}

	rejectBreaking := in.HasHotfix
	if !rejectBreaking && in.Bump.RejectBreakingChangesOn != "" {
		rejectBreaking = matches(in.Bump.RejectBreakingChangesOn, in.TargetRef)
	}
	rejectFeatures := in.HasHotfix
	if !rejectFeatures && in.Bump.RejectNewFeaturesOn != "" {
		rejectFeatures = matches(in.Bump.RejectNewFeaturesOn, in.TargetRef)
	}

	hasFix := false
	for _, c := range in.SourceCommits {
		if rejectBreaking && c.HasBreakingChange() {
			return hopicerr.NewVersioningError("Breaking changes are not allowed on %s (commit %s)", in.TargetRef, c.Hexsha())
		}
		if rejectFeatures && c.HasNewFeature() {
			return hopicerr.NewVersioningError("New features are not allowed on %s (commit %s)", in.TargetRef, c.Hexsha())
		}
		if c.HasFix() {
			hasFix = true
		}
	}

	if in.HasHotfix && in.OnEveryChange && !hasFix {
		return hopicerr.NewVersioningError("hotfix %s requires at least one fix commit", in.HotfixID)
	}
	return nil
}

func matches(pattern, ref string) bool {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(ref)
}

// eligible implements state 2.
func eligible(in BumpInput) bool {
	if in.Bump.Policy == config.BumpPolicyDisabled {
		return false
	}
	if !in.OnEveryChange {
		return false
	}
	if in.HasPublishFrom {
		return matches(in.PublishFrom, in.TargetRef)
	}
	return true
}

// hotfixRebase implements state 3: when the current version comes
// from a tag (no version file configured), re-derive the base from
// `git describe` and require it to be a valid hotfix base.
func hotfixRebase(in BumpInput) (version.Version, error) {
	gv, err := in.GitDescribe()
	if err != nil {
		return version.Version{}, hopicerr.NewVersioningError("git describe failed while re-deriving hotfix base: %v", err)
	}
	base, err := gv.ToVersion(time.Now())
	if err != nil {
		return version.Version{}, err
	}

	if !version.IsHotfixBase(base) {
		return version.Version{}, hopicerr.NewVersioningError(
			"base version %s is not a valid hotfix base (must be a release or hotfix.%s... prerelease)", base.String(), in.HotfixID)
	}
	if version.ContainsRelease(in.HotfixID, base) {
		return version.Version{}, hopicerr.NewVersioningError(
			"hotfix id %q textually contains the base version's release portion %d.%d.%d", in.HotfixID, base.Major, base.Minor, base.Patch)
	}
	return base, nil
}

// bump implements state 4.
func bump(in BumpInput, base version.Version) (version.Version, error) {
	var next version.Version

	switch in.Bump.Policy {
	case config.BumpPolicyConstant:
		next = bumpConstant(base, in.Bump.Field)
	case config.BumpPolicyConventionalCommits:
		next = version.NextForCommits(base, in.SourceCommits)
	default:
		return version.Version{}, fmt.Errorf("prepare: cannot bump under policy %q", in.Bump.Policy)
	}

	if in.HasHotfix {
		seed := version.HotfixPrereleaseSeed(in.HotfixID)
		next = base.NextPrerelease(seed)
	}

	return next, nil
}

func bumpConstant(base version.Version, field string) version.Version {
	switch strings.ToLower(field) {
	case "major":
		return base.NextMajor()
	case "minor":
		return base.NextMinor()
	default:
		return base.NextPatch()
	}
}
