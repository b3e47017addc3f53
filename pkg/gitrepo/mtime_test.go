package gitrepo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseWhatchangedLine(t *testing.T) {
	line := ":100644 100644 aaaaaaa bbbbbbb M\tsrc/main.go"
	path, mode, ok := parseWhatchangedLine(line)
	assert.True(t, ok)
	assert.Equal(t, "src/main.go", path)
	assert.Equal(t, "100644", mode)
}

func TestParseWhatchangedLineGitlink(t *testing.T) {
	line := ":160000 160000 aaaaaaa bbbbbbb M\tvendor/thing"
	path, mode, ok := parseWhatchangedLine(line)
	assert.True(t, ok)
	assert.Equal(t, "vendor/thing", path)
	assert.Equal(t, "160000", mode)
}

func TestParseWhatchangedLineMalformed(t *testing.T) {
	_, _, ok := parseWhatchangedLine("not a diff header")
	assert.False(t, ok)
}
