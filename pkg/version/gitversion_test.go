package version

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGitDescribeExact(t *testing.T) {
	gv, ok := ParseGitDescribe("1.2.3-0-gabc1234")
	require.True(t, ok)
	assert.True(t, gv.IsExact())
}

func TestParseGitDescribeWithCommits(t *testing.T) {
	gv, ok := ParseGitDescribe("1.2.3-5-gabc1234")
	require.True(t, ok)
	assert.False(t, gv.IsExact())
	assert.Equal(t, 5, gv.CommitCount)
	assert.Equal(t, "abc1234", gv.CommitHash)
	assert.Equal(t, "1.2.3", gv.TagName)
}

func TestParseGitDescribeDirty(t *testing.T) {
	gv, ok := ParseGitDescribe("1.2.3-0-gabc1234-dirty")
	require.True(t, ok)
	assert.True(t, gv.Dirty)
	assert.False(t, gv.IsExact())
}

func TestParseGitDescribeNoTagsYet(t *testing.T) {
	gv, ok := ParseGitDescribe("abc1234")
	require.True(t, ok)
	assert.Equal(t, "abc1234", gv.CommitHash)
	assert.Empty(t, gv.TagName)
	assert.False(t, gv.HasCount)
}

func TestParseGitDescribeNoTagsDirty(t *testing.T) {
	gv, ok := ParseGitDescribe("abc1234-dirty")
	require.True(t, ok)
	assert.True(t, gv.Dirty)
}

func TestParseGitDescribeTagWithDashes(t *testing.T) {
	gv, ok := ParseGitDescribe("release-1.2.3-5-gabc1234")
	require.True(t, ok)
	assert.Equal(t, "release-1.2.3", gv.TagName)
	assert.Equal(t, 5, gv.CommitCount)
}

func TestToVersionExact(t *testing.T) {
	gv, _ := ParseGitDescribe("1.2.3-0-gabc1234")
	v, err := gv.ToVersion(time.Now())
	require.NoError(t, err)
	assert.Equal(t, "1.2.3+gabc1234", v.String())
}

func TestToVersionWithCommits(t *testing.T) {
	gv, _ := ParseGitDescribe("1.2.3-5-gabc1234")
	v, err := gv.ToVersion(time.Now())
	require.NoError(t, err)
	assert.Equal(t, "1.2.4-5+gabc1234", v.String())
}

func TestToVersionDirtyWithCommits(t *testing.T) {
	gv, _ := ParseGitDescribe("1.2.3-5-gabc1234-dirty")
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	v, err := gv.ToVersion(now)
	require.NoError(t, err)
	assert.Equal(t, "1.2.4-5.dirty.20260730120000+gabc1234", v.String())
}

func TestToVersionDirtyNoCommits(t *testing.T) {
	gv, _ := ParseGitDescribe("1.2.3-0-gabc1234-dirty")
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	v, err := gv.ToVersion(now)
	require.NoError(t, err)
	assert.Equal(t, "1.2.4-0dirty.20260730120000+gabc1234", v.String())
}

func TestToVersionStripsNonDigitPrefix(t *testing.T) {
	gv, _ := ParseGitDescribe("v1.2.3-0-gabc1234")
	v, err := gv.ToVersion(time.Now())
	require.NoError(t, err)
	assert.Equal(t, "1.2.3+gabc1234", v.String())
}
