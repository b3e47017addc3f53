package prepare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hopic-ci/hopic/pkg/classifier"
	"github.com/hopic-ci/hopic/pkg/config"
	"github.com/hopic-ci/hopic/pkg/version"
)

type fakeCommit struct {
	breaking, feature, fix bool
	sha                    string
}

func (f fakeCommit) HasBreakingChange() bool { return f.breaking }
func (f fakeCommit) HasNewFeature() bool     { return f.feature }
func (f fakeCommit) HasFix() bool            { return f.fix }
func (f fakeCommit) NeedsAutosquash() bool   { return false }
func (f fakeCommit) Subject() string         { return "" }
func (f fakeCommit) FullSubject() string     { return "" }
func (f fakeCommit) Footers() []string       { return nil }
func (f fakeCommit) Hexsha() string          { return f.sha }

func mustParse(t *testing.T, s string) version.Version {
	t.Helper()
	v, err := version.Parse(s)
	require.NoError(t, err)
	return v
}

func TestRunFeatureBumpsMinor(t *testing.T) {
	in := BumpInput{
		SourceCommits: []classifier.Classified{fakeCommit{feature: true, sha: "aaaa"}},
		TargetRef:     "refs/heads/main",
		Bump:          config.BumpPolicy{Policy: config.BumpPolicyConventionalCommits},
		OnEveryChange: true,
		Current:       mustParse(t, "0.0.0"),
	}
	out, err := Run(in)
	require.NoError(t, err)
	assert.True(t, out.Advanced)
	assert.Equal(t, "0.1.0", out.Next.String())
}

func TestRunNotEligibleWhenDisabled(t *testing.T) {
	in := BumpInput{
		Bump:          config.BumpPolicy{Policy: config.BumpPolicyDisabled},
		OnEveryChange: true,
		Current:       mustParse(t, "1.0.0"),
	}
	out, err := Run(in)
	require.NoError(t, err)
	assert.False(t, out.Advanced)
}

func TestRunRejectsBreakingChangeOnRelease(t *testing.T) {
	in := BumpInput{
		SourceCommits: []classifier.Classified{fakeCommit{breaking: true, sha: "bbbb"}},
		TargetRef:     "release/42",
		Bump: config.BumpPolicy{
			Policy:                  config.BumpPolicyConventionalCommits,
			RejectBreakingChangesOn: "^release/",
		},
		OnEveryChange: true,
		Current:       mustParse(t, "1.0.0"),
	}
	_, err := Run(in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Breaking changes are not allowed")
}

func TestRunNotEligibleWhenPublishFromDoesNotMatch(t *testing.T) {
	in := BumpInput{
		Bump:           config.BumpPolicy{Policy: config.BumpPolicyConventionalCommits},
		OnEveryChange:  true,
		HasPublishFrom: true,
		PublishFrom:    "^release/",
		TargetRef:      "feature/x",
		Current:        mustParse(t, "1.0.0"),
	}
	out, err := Run(in)
	require.NoError(t, err)
	assert.False(t, out.Advanced)
}

func TestRunConstantFieldMajor(t *testing.T) {
	in := BumpInput{
		Bump:          config.BumpPolicy{Policy: config.BumpPolicyConstant, Field: "major"},
		OnEveryChange: true,
		Current:       mustParse(t, "1.2.3"),
	}
	out, err := Run(in)
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", out.Next.String())
}

func TestParseApproval(t *testing.T) {
	a, err := ParseApproval("alice:0123456789012345678901234567890123456789")
	require.NoError(t, err)
	assert.Equal(t, "alice", a.Name)
}

func TestParseApprovalMalformed(t *testing.T) {
	_, err := ParseApproval("not-an-entry")
	assert.Error(t, err)
}
