package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCarusoRoundTrip(t *testing.T) {
	cases := []string{
		"1.2.3+PI4.5",
		"1.2.3-rc.1+PI4.5",
	}
	for _, s := range cases {
		c, err := ParseCaruso(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, c.String())
	}
}

func TestCarusoRequiresBuildSuffix(t *testing.T) {
	_, err := ParseCaruso("1.2.3")
	assert.Error(t, err)
}

func TestCarusoOrdering(t *testing.T) {
	a, err := ParseCaruso("1.2.3+PI4.5")
	require.NoError(t, err)
	b := a.NextFix()
	assert.Equal(t, "1.2.3+PI4.6", b.String())
	assert.Equal(t, -1, a.Compare(b))
}

func TestCarusoNextPrerelease(t *testing.T) {
	a, err := ParseCaruso("1.2.3+PI4.5")
	require.NoError(t, err)
	b := a.NextPrerelease([]string{"hotfix", "7"})
	assert.Equal(t, "1.2.3-hotfix.7+PI4.6", b.String())
}
