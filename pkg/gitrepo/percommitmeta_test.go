package gitrepo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteUnquoteRefspecsRoundTrip(t *testing.T) {
	refspecs := []string{"refs/heads/main:refs/heads/main", "it's a weird one"}
	quoted := quoteRefspecs(refspecs)
	got, err := unquoteRefspecs(quoted)
	require.NoError(t, err)
	assert.Equal(t, refspecs, got)
}

func TestUnquoteRefspecsEmpty(t *testing.T) {
	got, err := unquoteRefspecs("")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNotesRefStripsHeadsPrefix(t *testing.T) {
	assert.Equal(t, "refs/notes/hopic/main", notesRef("refs/heads/main"))
	assert.Equal(t, "refs/notes/hopic/feature/x", notesRef("feature/x"))
}

func TestSplitDot(t *testing.T) {
	assert.Equal(t, []string{"hopic", "abcdef0123456789", "ref"}, splitDot("hopic.abcdef0123456789.ref"))
}

func TestSignatureBlockString(t *testing.T) {
	sig := SignatureBlock{CommitterVersion: "1.2.3", RuntimeVersion: "1.2.3", Plugins: []string{"hopic-plugin-a"}}
	s := sig.String()
	assert.Contains(t, s, "Committed-by: Hopic 1.2.3")
	assert.Contains(t, s, "Hopic-runtime-version: 1.2.3")
	assert.Contains(t, s, "hopic-plugin-a")
}
