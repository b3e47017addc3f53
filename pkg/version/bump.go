package version

import (
	"fmt"
	"regexp"
	"strings"
)

// Classified is the minimal view of a classified commit (pkg/classifier
// satisfies this) the bump engine needs to pick a next version.
type Classified interface {
	HasBreakingChange() bool
	HasNewFeature() bool
	HasFix() bool
}

// NextForCommits implements spec §4.2's next_version_for_commits: the
// highest-impact signal across all commits wins, independent of commit
// order; with no signal at all, v is returned unchanged.
func NextForCommits[T Classified](v Version, commits []T) Version {
	breaking, feature, fix := false, false, false
	for _, c := range commits {
		if c.HasBreakingChange() {
			breaking = true
		}
		if c.HasNewFeature() {
			feature = true
		}
		if c.HasFix() {
			fix = true
		}
	}
	switch {
	case breaking:
		return v.NextMajor()
	case feature:
		return v.NextMinor()
	case fix:
		return v.NextPatch()
	default:
		return v
	}
}

// reservedPrereleasePrefixes are identifiers that must not be the first
// dot/dash-separated token of a hotfix id, since they collide with
// conventional prerelease vocabulary.
var reservedPrereleasePrefixes = map[string]bool{
	"a": true, "b": true, "rc": true, "alpha": true, "beta": true,
	"pre": true, "post": true, "dev": true,
}

var hotfixIdentifierPattern = regexp.MustCompile(`^[A-Za-z][-.A-Za-z0-9]*[A-Za-z0-9]?$`)

// ExtractHotfixID matches ref against branchPattern (which must name a
// capture group "id", or have exactly one unnamed group) and validates
// the captured identifier per spec §4.2. It returns ("", false, nil)
// when branchPattern simply doesn't match ref.
func ExtractHotfixID(branchPattern *regexp.Regexp, ref string) (string, bool, error) {
	m := branchPattern.FindStringSubmatch(ref)
	if m == nil {
		return "", false, nil
	}

	id := ""
	if names := branchPattern.SubexpNames(); len(names) > 0 {
		for i, name := range names {
			if name == "id" && i < len(m) {
				id = m[i]
				break
			}
		}
	}
	if id == "" && len(m) == 2 {
		id = m[1]
	}
	if id == "" {
		return "", false, fmt.Errorf("version: hotfix branch pattern must capture a group named \"id\" (or exactly one unnamed group)")
	}

	if !hotfixIdentifierPattern.MatchString(id) {
		return "", false, fmt.Errorf("version: hotfix id %q is not a valid identifier", id)
	}

	firstToken := id
	if i := strings.IndexAny(id, ".-"); i >= 0 {
		firstToken = id[:i]
	}
	if reservedPrereleasePrefixes[strings.ToLower(firstToken)] {
		return "", false, fmt.Errorf("version: hotfix id %q starts with the reserved prerelease prefix %q", id, firstToken)
	}

	return id, true, nil
}

// HotfixPrereleaseSeed builds the ("hotfix", <id tokens>...) seed spec
// §4.5.1's Bumped state passes to NextPrerelease for a hotfix bump. The
// id is split on "." and "-" so each token becomes its own identifier.
func HotfixPrereleaseSeed(hotfixID string) []string {
	parts := strings.FieldsFunc(hotfixID, func(r rune) bool { return r == '.' || r == '-' })
	return append([]string{"hotfix"}, parts...)
}

// ContainsRelease reports whether hotfixID textually contains base's
// release portion (major.minor.patch), used by the Hotfix-rebased state
// to reject a hotfix id that collides with its own base version.
func ContainsRelease(hotfixID string, base Version) bool {
	release := fmt.Sprintf("%d.%d.%d", base.Major, base.Minor, base.Patch)
	return strings.Contains(hotfixID, release)
}

// IsHotfixBase reports whether v is a valid base for a hotfix: either a
// full release (no prerelease) or a prerelease already named
// "hotfix.<id>...".
func IsHotfixBase(v Version) bool {
	if !v.IsPrerelease() {
		return true
	}
	return len(v.Prerelease) > 0 && v.Prerelease[0] == "hotfix"
}
