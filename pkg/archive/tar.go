// Package archive implements the reproducible artifact normalizer of
// spec §6's wire-format contract, invoked by pkg/phase through the
// RunOptions.ArtifactNormalize callback after a variant's sh steps
// complete. Tar/gzip rewriting is grounded on the tar.Writer/gzip.Writer
// usage in _examples/The-Graft-Project-Graft/internal/deploy/engine.go's
// createTarball, generalized from a one-shot packer into an in-place
// reproducible rewrite.
package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Normalize rewrites the archive at path in place so that repeated
// builds from the same source produce byte-identical output, per
// spec §6's wire-format contract. It dispatches on extension; paths it
// doesn't recognize are left untouched.
func Normalize(path string, sourceDateEpoch int64) error {
	switch {
	case strings.HasSuffix(path, ".tar"):
		return normalizeTarFile(path, sourceDateEpoch, false)
	case strings.HasSuffix(path, ".tar.gz"), strings.HasSuffix(path, ".tgz"):
		return normalizeTarFile(path, sourceDateEpoch, true)
	case strings.HasSuffix(path, ".deb"), strings.HasSuffix(path, ".ar"):
		return normalizeDebFile(path, sourceDateEpoch)
	default:
		return nil
	}
}

type tarEntry struct {
	header *tar.Header
	data   []byte
}

// normalizeTarStream reads every entry of r, sorts it by name, clamps
// non-reproducible metadata, and rewrites it to w.
func normalizeTarStream(r io.Reader, w io.Writer, sourceDateEpoch int64) error {
	tr := tar.NewReader(r)
	var entries []tarEntry
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return err
		}
		h := *hdr
		entries = append(entries, tarEntry{header: &h, data: data})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].header.Name < entries[j].header.Name })

	epoch := time.Unix(sourceDateEpoch, 0).UTC()
	tw := tar.NewWriter(w)
	for _, e := range entries {
		h := e.header
		h.Uid, h.Gid = 0, 0
		h.Uname, h.Gname = "", ""
		if h.ModTime.Unix() > sourceDateEpoch {
			h.ModTime = epoch
		}
		h.AccessTime, h.ChangeTime = time.Time{}, time.Time{}
		if h.Typeflag != tar.TypeBlock && h.Typeflag != tar.TypeChar {
			h.Devmajor, h.Devminor = 0, 0
		}
		if err := tw.WriteHeader(h); err != nil {
			return err
		}
		if _, err := tw.Write(e.data); err != nil {
			return err
		}
	}
	return tw.Close()
}

func normalizeTarFile(path string, sourceDateEpoch int64, gzipped bool) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	var src io.Reader = in
	if gzipped {
		gz, err := gzip.NewReader(in)
		if err != nil {
			return err
		}
		defer gz.Close()
		src = gz
	}

	var buf bytes.Buffer
	var dst io.Writer = &buf
	var gzw *gzip.Writer
	if gzipped {
		// gzip.Writer's default Header.Name/Comment are empty and
		// ModTime is the zero value, matching `gzip --no-name`.
		gzw = gzip.NewWriter(&buf)
		dst = gzw
	}

	if err := normalizeTarStream(src, dst, sourceDateEpoch); err != nil {
		return err
	}
	if gzw != nil {
		if err := gzw.Close(); err != nil {
			return err
		}
	}
	in.Close()

	return writeFileAtomically(path, buf.Bytes())
}

func writeFileAtomically(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".hopic-archive-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}
