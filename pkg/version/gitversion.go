package version

import (
	"regexp"
	"strconv"
	"time"
)

// describePattern matches the fixed shape of
// `git describe --tags --long --dirty --always`: a tag-count-hash triple
// when a tag exists, or a bare abbreviated hash for a fresh repository
// with no tags yet, each optionally suffixed with "-dirty". The tag
// group is greedy so that a tag name containing dashes is not
// misattributed to the count/hash groups.
var describePattern = regexp.MustCompile(`^(?:(.+)-(\d+)-g([0-9a-f]+)|([0-9a-f]+))(-dirty)?$`)

// GitVersion is the structured form of a `git describe` invocation.
type GitVersion struct {
	TagName     string
	CommitCount int
	HasCount    bool
	CommitHash  string
	Dirty       bool
}

// ParseGitDescribe parses the stdout of
// `git describe --tags --long --dirty --always` (trailing newline
// already trimmed by the caller).
func ParseGitDescribe(s string) (GitVersion, bool) {
	m := describePattern.FindStringSubmatch(s)
	if m == nil {
		return GitVersion{}, false
	}
	gv := GitVersion{Dirty: m[5] == "-dirty"}
	if m[4] != "" {
		gv.CommitHash = m[4]
		return gv, true
	}
	gv.TagName = m[1]
	count, _ := strconv.Atoi(m[2])
	gv.CommitCount = count
	gv.HasCount = true
	gv.CommitHash = m[3]
	return gv, true
}

// nonDigitPrefix strips everything up to (and not including) the first
// ASCII digit, matching the "strip any non-digit prefix from the tag"
// rule in spec §3.
func nonDigitPrefix(tag string) string {
	for i, r := range tag {
		if r >= '0' && r <= '9' {
			return tag[i:]
		}
	}
	return tag
}

// ToVersion converts a GitVersion into a Version per spec §3: the tag's
// non-digit prefix is stripped; if there were commits since the tag (or
// the tree is dirty) and the tag itself wasn't already a prerelease, the
// version is first advanced to its own next-patch; the commit count
// becomes a prerelease identifier; a dirty tree appends "dirty"
// (prefixed "0" when there was no commit count, so it still sorts
// before a non-dirty prerelease of the same count) and a timestamp
// identifier; the abbreviated hash becomes build metadata "g<hash>".
//
// now is injected so callers (and tests) control the dirty timestamp.
func (g GitVersion) ToVersion(now time.Time) (Version, error) {
	var v Version
	if g.TagName != "" {
		parsed, err := Parse(nonDigitPrefix(g.TagName))
		if err != nil {
			return Version{}, err
		}
		v = parsed
	}

	advance := (g.HasCount && g.CommitCount > 0) || g.Dirty
	if advance && !v.IsPrerelease() {
		v = v.NextPatch()
	}

	if g.HasCount && g.CommitCount > 0 {
		v.Prerelease = append(v.Prerelease, strconv.Itoa(g.CommitCount))
	}

	if g.Dirty {
		dirtyIdentifier := "dirty"
		if !g.HasCount || g.CommitCount == 0 {
			dirtyIdentifier = "0dirty"
		}
		timestamp := now.UTC().Format("20060102150405")
		v.Prerelease = append(v.Prerelease, dirtyIdentifier, timestamp)
	}

	if g.CommitHash != "" {
		v.Build = append(v.Build, "g"+g.CommitHash)
	}

	return v, nil
}

// IsExact reports the "clean checkout exactly on a tag" case the
// bump-version subcommand (spec §4.5) uses to short-circuit to a no-op.
func (g GitVersion) IsExact() bool {
	return g.HasCount && g.CommitCount == 0 && !g.Dirty
}
