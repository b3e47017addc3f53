// Package version implements Hopic's version engine: SemVer and
// Caruso-SemVer parsing/serialization, the next_* bump operations, the
// GitVersion <-> Version conversion derived from `git describe`, and
// reading/rewriting a project's version file.
package version

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	mmsemver "github.com/Masterminds/semver/v3"
)

// semverPattern matches spec §4.2's grammar, with an optional leading
// "version=" carried over from the Python implementation's tolerance for
// a bare assignment-looking prefix in free-form text.
var semverPattern = regexp.MustCompile(
	`^(?:version=)?(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)` +
		`(?:-([0-9A-Za-z-]+(?:\.[0-9A-Za-z-]+)*))?` +
		`(?:\+([0-9A-Za-z-]+(?:\.[0-9A-Za-z-]+)*))?$`)

// ErrInvalidVersion is returned by Parse when the input does not match
// the SemVer grammar.
var ErrInvalidVersion = errors.New("version: not a valid semantic version")

// ErrIncomparableBuild is returned by Equal when two versions have equal
// precedence but disagree on build metadata: ordering ignores build
// metadata, but equality treats that disagreement as incomparable
// rather than silently calling them equal.
var ErrIncomparableBuild = errors.New("version: build metadata differs, versions are incomparable for equality")

// Version is a parsed SemVer 2.0.0 version.
type Version struct {
	Major, Minor, Patch uint64
	Prerelease          []string
	Build               []string
}

// Parse parses s as a SemVer string.
func Parse(s string) (Version, error) {
	m := semverPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Version{}, ErrInvalidVersion
	}
	major, _ := strconv.ParseUint(m[1], 10, 64)
	minor, _ := strconv.ParseUint(m[2], 10, 64)
	patch, _ := strconv.ParseUint(m[3], 10, 64)
	v := Version{Major: major, Minor: minor, Patch: patch}
	if m[4] != "" {
		v.Prerelease = strings.Split(m[4], ".")
	}
	if m[5] != "" {
		v.Build = strings.Split(m[5], ".")
	}
	return v, nil
}

// String serializes v back to its canonical SemVer text.
func (v Version) String() string {
	var b strings.Builder
	b.WriteString(strconv.FormatUint(v.Major, 10))
	b.WriteByte('.')
	b.WriteString(strconv.FormatUint(v.Minor, 10))
	b.WriteByte('.')
	b.WriteString(strconv.FormatUint(v.Patch, 10))
	if len(v.Prerelease) > 0 {
		b.WriteByte('-')
		b.WriteString(strings.Join(v.Prerelease, "."))
	}
	if len(v.Build) > 0 {
		b.WriteByte('+')
		b.WriteString(strings.Join(v.Build, "."))
	}
	return b.String()
}

// IsPrerelease reports whether v carries a prerelease label.
func (v Version) IsPrerelease() bool {
	return len(v.Prerelease) > 0
}

// Compare returns -1, 0 or +1 per SemVer 2.0.0 precedence, ignoring
// build metadata. It is implemented on top of Masterminds/semver's
// precedence algorithm rather than re-deriving identifier comparison
// rules by hand; coreString always produces a valid canonical SemVer
// core, so the parse cannot fail here.
func (v Version) Compare(other Version) int {
	a, _ := mmsemver.NewVersion(v.coreString())
	b, _ := mmsemver.NewVersion(other.coreString())
	return a.Compare(b)
}

// coreString renders the major.minor.patch[-prerelease] portion used
// for precedence comparison (build metadata is intentionally omitted).
func (v Version) coreString() string {
	s := Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch, Prerelease: v.Prerelease}
	return s.String()
}

// Equal reports precedence equality. It returns ErrIncomparableBuild
// when the two versions have equal precedence but differing,
// non-empty build metadata — ordering ignores build metadata, but
// equality refuses to silently paper over the disagreement.
func (v Version) Equal(other Version) (bool, error) {
	if v.Compare(other) != 0 {
		return false, nil
	}
	if !buildEqual(v.Build, other.Build) {
		return false, ErrIncomparableBuild
	}
	return true, nil
}

func buildEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// NextMajor bumps the major version per spec §4.2: if v already sits at
// X.0.0-<prerelease> (a prerelease of the major boundary itself), strip
// the prerelease rather than incrementing; otherwise increment major and
// zero the lower fields. Prerelease and build are always cleared.
func (v Version) NextMajor() Version {
	if v.Minor == 0 && v.Patch == 0 && v.IsPrerelease() {
		return Version{Major: v.Major}
	}
	return Version{Major: v.Major + 1}
}

// NextMinor mirrors NextMajor one field down.
func (v Version) NextMinor() Version {
	if v.Patch == 0 && v.IsPrerelease() {
		return Version{Major: v.Major, Minor: v.Minor}
	}
	return Version{Major: v.Major, Minor: v.Minor + 1}
}

// NextPatch mirrors NextMajor one field further down.
func (v Version) NextPatch() Version {
	if v.IsPrerelease() {
		return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch}
	}
	return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1}
}

// NextPrerelease computes the next prerelease identifier per spec
// §4.2. With no existing prerelease, patch is bumped and the
// prerelease is seeded (default ("1",)). Otherwise the
// least-significant (rightmost) numeric identifier is incremented; if
// none is numeric, "1" is appended.
func (v Version) NextPrerelease(seed []string) Version {
	if len(seed) == 0 {
		seed = []string{"1"}
	}
	if !v.IsPrerelease() {
		return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1, Prerelease: append([]string{}, seed...)}
	}
	pre := append([]string{}, v.Prerelease...)
	for i := len(pre) - 1; i >= 0; i-- {
		if n, err := strconv.Atoi(pre[i]); err == nil {
			pre[i] = strconv.Itoa(n + 1)
			return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch, Prerelease: pre}
		}
	}
	pre = append(pre, "1")
	return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch, Prerelease: pre}
}
