package version

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCommit struct {
	breaking, feature, fix bool
}

func (f fakeCommit) HasBreakingChange() bool { return f.breaking }
func (f fakeCommit) HasNewFeature() bool     { return f.feature }
func (f fakeCommit) HasFix() bool            { return f.fix }

func TestNextForCommitsPrecedence(t *testing.T) {
	v, err := Parse("1.0.0")
	require.NoError(t, err)

	// Order independence: breaking beats everything regardless of position.
	commits := []fakeCommit{{fix: true}, {breaking: true}, {feature: true}}
	assert.Equal(t, v.NextMajor().String(), NextForCommits(v, commits).String())

	commits = []fakeCommit{{feature: true}, {fix: true}}
	assert.Equal(t, v.NextMinor().String(), NextForCommits(v, commits).String())

	commits = []fakeCommit{{fix: true}}
	assert.Equal(t, v.NextPatch().String(), NextForCommits(v, commits).String())

	commits = []fakeCommit{{}}
	assert.Equal(t, v.String(), NextForCommits(v, commits).String())
}

func TestExtractHotfixIDNamedGroup(t *testing.T) {
	pattern := regexp.MustCompile(`^hotfix/(?P<id>[A-Za-z0-9.-]+)$`)
	id, ok, err := ExtractHotfixID(pattern, "hotfix/CUST-42")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "CUST-42", id)
}

func TestExtractHotfixIDNoMatch(t *testing.T) {
	pattern := regexp.MustCompile(`^hotfix/(?P<id>[A-Za-z0-9.-]+)$`)
	_, ok, err := ExtractHotfixID(pattern, "release/42")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExtractHotfixIDRejectsReservedPrefix(t *testing.T) {
	pattern := regexp.MustCompile(`^hotfix/(?P<id>[A-Za-z0-9.-]+)$`)
	_, _, err := ExtractHotfixID(pattern, "hotfix/rc.1")
	assert.Error(t, err)
}

func TestContainsRelease(t *testing.T) {
	base, _ := Parse("1.2.3")
	assert.True(t, ContainsRelease("CUST-1.2.3-hotfix", base))
	assert.False(t, ContainsRelease("CUST-42", base))
}

func TestIsHotfixBase(t *testing.T) {
	release, _ := Parse("1.2.3")
	assert.True(t, IsHotfixBase(release))

	hotfixPrerelease, _ := Parse("1.2.4-hotfix.42.1")
	assert.True(t, IsHotfixBase(hotfixPrerelease))

	otherPrerelease, _ := Parse("1.2.4-rc.1")
	assert.False(t, IsHotfixBase(otherPrerelease))
}
