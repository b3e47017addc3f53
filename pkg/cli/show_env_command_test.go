package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildShowEnvFixedVars(t *testing.T) {
	vv := versionVars{
		SourceDateEpoch: 1700000000,
		Version:         "1.2.3",
		PureVersion:     "1.2.3",
		DebVersion:      "1.2.3",
		PublishVersion:  "1.2.3-gdeadbeef",
	}
	env := buildShowEnv(vv, nil, func(string) (string, bool) { return "", false })
	assert.Equal(t, "1700000000", env["SOURCE_DATE_EPOCH"])
	assert.Equal(t, "1.2.3", env["VERSION"])
	assert.Equal(t, "1.2.3", env["PURE_VERSION"])
	assert.Equal(t, "1.2.3", env["DEBVERSION"])
	assert.Equal(t, "1.2.3-gdeadbeef", env["PUBLISH_VERSION"])
	assert.Len(t, env, 5)
}

func TestBuildShowEnvWhitelistedVars(t *testing.T) {
	lookup := func(name string) (string, bool) {
		if name == "HOME" {
			return "/home/build", true
		}
		return "", false
	}
	env := buildShowEnv(versionVars{}, []string{"HOME", "MISSING"}, lookup)
	assert.Equal(t, "/home/build", env["HOME"])
	_, ok := env["MISSING"]
	assert.False(t, ok)
}
