package archive

import (
	"archive/tar"
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTar(t *testing.T, entries map[string]time.Time) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for name, mtime := range entries {
		hdr := &tar.Header{
			Name:    name,
			Size:    int64(len(name)),
			Mode:    0644,
			ModTime: mtime,
			Uid:     1000,
			Gid:     1000,
			Uname:   "someone",
			Gname:   "someone",
		}
		require.NoError(t, tw.WriteHeader(hdr))
		_, err := tw.Write([]byte(name))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	return buf.Bytes()
}

func readTarNames(t *testing.T, data []byte) []string {
	t.Helper()
	tr := tar.NewReader(bytes.NewReader(data))
	var names []string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		names = append(names, hdr.Name)
	}
	return names
}

func TestNormalizeTarStreamSortsEntries(t *testing.T) {
	input := buildTar(t, map[string]time.Time{
		"c.txt": time.Unix(1000, 0),
		"a.txt": time.Unix(1000, 0),
		"b.txt": time.Unix(1000, 0),
	})

	var out bytes.Buffer
	require.NoError(t, normalizeTarStream(bytes.NewReader(input), &out, 2000))

	assert.Equal(t, []string{"a.txt", "b.txt", "c.txt"}, readTarNames(t, out.Bytes()))
}

func TestNormalizeTarStreamClampsModTimeAndZerosOwner(t *testing.T) {
	future := time.Unix(5000, 0)
	input := buildTar(t, map[string]time.Time{"f.txt": future})

	var out bytes.Buffer
	require.NoError(t, normalizeTarStream(bytes.NewReader(input), &out, 2000))

	tr := tar.NewReader(bytes.NewReader(out.Bytes()))
	hdr, err := tr.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(2000), hdr.ModTime.Unix())
	assert.Equal(t, 0, hdr.Uid)
	assert.Equal(t, 0, hdr.Gid)
	assert.Empty(t, hdr.Uname)
	assert.Empty(t, hdr.Gname)
}

func TestNormalizeTarStreamLeavesOlderModTimeAlone(t *testing.T) {
	past := time.Unix(500, 0)
	input := buildTar(t, map[string]time.Time{"f.txt": past})

	var out bytes.Buffer
	require.NoError(t, normalizeTarStream(bytes.NewReader(input), &out, 2000))

	tr := tar.NewReader(bytes.NewReader(out.Bytes()))
	hdr, err := tr.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(500), hdr.ModTime.Unix())
}

func TestNormalizeDispatchesByExtension(t *testing.T) {
	assert.Nil(t, Normalize("plain.txt", 0))
}
