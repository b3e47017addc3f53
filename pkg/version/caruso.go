package version

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// carusoPattern matches Caruso-SemVer: identical major.minor.patch and
// prerelease fields as SemVer, but with a mandatory "+PI<increment>.<fix>"
// build suffix instead of free-form build metadata.
var carusoPattern = regexp.MustCompile(
	`^(?:version=)?(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)` +
		`(?:-([0-9A-Za-z-]+(?:\.[0-9A-Za-z-]+)*))?` +
		`\+PI(\d+)\.(\d+)$`)

// Caruso is a Caruso-SemVer version: SemVer fields plus a mandatory
// increment/fix pair serialized as build metadata "+PI<increment>.<fix>".
type Caruso struct {
	Major, Minor, Patch uint64
	Prerelease          []string
	Increment, Fix      uint64
}

// ParseCaruso parses s as a Caruso-SemVer string.
func ParseCaruso(s string) (Caruso, error) {
	m := carusoPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Caruso{}, fmt.Errorf("version: %q is not a valid Caruso-SemVer version", s)
	}
	major, _ := strconv.ParseUint(m[1], 10, 64)
	minor, _ := strconv.ParseUint(m[2], 10, 64)
	patch, _ := strconv.ParseUint(m[3], 10, 64)
	increment, _ := strconv.ParseUint(m[5], 10, 64)
	fix, _ := strconv.ParseUint(m[6], 10, 64)
	c := Caruso{Major: major, Minor: minor, Patch: patch, Increment: increment, Fix: fix}
	if m[4] != "" {
		c.Prerelease = strings.Split(m[4], ".")
	}
	return c, nil
}

// String serializes c back to its canonical text, including the
// mandatory "+PI<increment>.<fix>" suffix.
func (c Caruso) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d.%d.%d", c.Major, c.Minor, c.Patch)
	if len(c.Prerelease) > 0 {
		b.WriteByte('-')
		b.WriteString(strings.Join(c.Prerelease, "."))
	}
	fmt.Fprintf(&b, "+PI%d.%d", c.Increment, c.Fix)
	return b.String()
}

// Compare orders by (major, minor, patch, increment, fix) and then
// prerelease, per spec §4.2.
func (c Caruso) Compare(other Caruso) int {
	for _, pair := range [][2]uint64{
		{c.Major, other.Major},
		{c.Minor, other.Minor},
		{c.Patch, other.Patch},
		{c.Increment, other.Increment},
		{c.Fix, other.Fix},
	} {
		if pair[0] != pair[1] {
			if pair[0] < pair[1] {
				return -1
			}
			return 1
		}
	}
	return comparePrereleaseIdentifiers(c.Prerelease, other.Prerelease)
}

// NextFix increments fix, leaving major/minor/patch/increment alone and
// clearing any prerelease label.
func (c Caruso) NextFix() Caruso {
	return Caruso{Major: c.Major, Minor: c.Minor, Patch: c.Patch, Increment: c.Increment, Fix: c.Fix + 1}
}

// NextPrerelease mirrors Version.NextPrerelease: with no existing
// prerelease, fix is bumped and the prerelease is seeded; otherwise the
// rightmost numeric identifier is incremented, or "1" is appended.
func (c Caruso) NextPrerelease(seed []string) Caruso {
	if len(seed) == 0 {
		seed = []string{"1"}
	}
	if len(c.Prerelease) == 0 {
		return Caruso{Major: c.Major, Minor: c.Minor, Patch: c.Patch, Increment: c.Increment, Fix: c.Fix + 1, Prerelease: append([]string{}, seed...)}
	}
	pre := append([]string{}, c.Prerelease...)
	for i := len(pre) - 1; i >= 0; i-- {
		if n, err := strconv.Atoi(pre[i]); err == nil {
			pre[i] = strconv.Itoa(n + 1)
			return Caruso{Major: c.Major, Minor: c.Minor, Patch: c.Patch, Increment: c.Increment, Fix: c.Fix, Prerelease: pre}
		}
	}
	pre = append(pre, "1")
	return Caruso{Major: c.Major, Minor: c.Minor, Patch: c.Patch, Increment: c.Increment, Fix: c.Fix, Prerelease: pre}
}

// comparePrereleaseIdentifiers implements SemVer 2.0.0 prerelease
// precedence: numeric identifiers compare numerically and are always
// lower than alphanumeric ones; a shorter, otherwise-equal sequence has
// lower precedence; no prerelease outranks any prerelease.
func comparePrereleaseIdentifiers(a, b []string) int {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	if len(a) == 0 {
		return 1
	}
	if len(b) == 0 {
		return -1
	}
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] == b[i] {
			continue
		}
		an, aErr := strconv.Atoi(a[i])
		bn, bErr := strconv.Atoi(b[i])
		switch {
		case aErr == nil && bErr == nil:
			if an < bn {
				return -1
			}
			return 1
		case aErr == nil:
			return -1
		case bErr == nil:
			return 1
		case a[i] < b[i]:
			return -1
		default:
			return 1
		}
	}
	if len(a) < len(b) {
		return -1
	}
	if len(a) > len(b) {
		return 1
	}
	return 0
}
