package ar

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	members := []Member{
		{Name: "debian-binary", Mtime: 1700000000, UID: 0, GID: 0, Mode: 0644, Data: []byte("2.0\n")},
		{Name: "control.tar.gz", Mtime: 1700000000, Mode: 0644, Data: []byte{1, 2, 3}},
		{Name: "data.tar.gz", Mtime: 1700000000, Mode: 0644, Data: []byte{4, 5, 6, 7}},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, members))

	got, err := Read(&buf)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, m := range members {
		assert.Equal(t, m.Name, got[i].Name)
		assert.Equal(t, m.Mtime, got[i].Mtime)
		assert.Equal(t, m.Data, got[i].Data)
	}
}

func TestReadRejectsBadMagic(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte("not an ar archive")))
	assert.Error(t, err)
}

func TestWriteOddLengthDataIsPadded(t *testing.T) {
	members := []Member{{Name: "odd", Data: []byte{1, 2, 3}}}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, members))
	assert.Equal(t, 0, (buf.Len()-len(magic))%2)
}
