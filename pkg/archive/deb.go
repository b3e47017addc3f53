package archive

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/hopic-ci/hopic/pkg/archive/ar"
)

// memberRank orders .deb members per spec §6: debian-binary first,
// control.tar* second, data.tar* last. Anything else sorts after those
// (stable, alphabetical) rather than being dropped.
func memberRank(name string) int {
	switch {
	case name == "debian-binary":
		return 0
	case strings.HasPrefix(name, "control.tar"):
		return 1
	case strings.HasPrefix(name, "data.tar"):
		return 2
	default:
		return 3
	}
}

// normalizeDebFile rewrites a Debian .deb (or bare .ar archive) so its
// member order, ownership and timestamps are reproducible, recursively
// normalizing any gzip-compressed tar members it contains. Members
// compressed with .xz or .bz2 are reordered and metadata-clamped but
// left byte-for-byte as-is internally: the corpus carries no xz/bzip2
// writer (compress/bzip2 is read-only in the standard library and no
// example repo imports an xz library), so rewriting their contents
// would require fabricating a dependency never grounded in the corpus.
func normalizeDebFile(path string, sourceDateEpoch int64) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	members, err := ar.Read(bytes.NewReader(raw))
	if err != nil {
		return err
	}

	for i := range members {
		m := &members[i]
		m.UID, m.GID = 0, 0
		m.Mode = 0644
		if m.Mtime > sourceDateEpoch {
			m.Mtime = sourceDateEpoch
		}

		if strings.HasSuffix(m.Name, ".tar.gz") || strings.HasSuffix(m.Name, ".tar") {
			data, err := normalizeMemberTar(m.Name, m.Data, sourceDateEpoch)
			if err != nil {
				return fmt.Errorf("ar: member %q: %w", m.Name, err)
			}
			m.Data = data
		}
	}

	sort.SliceStable(members, func(i, j int) bool {
		return memberRank(members[i].Name) < memberRank(members[j].Name)
	})

	var buf bytes.Buffer
	if err := ar.Write(&buf, members); err != nil {
		return err
	}
	return writeFileAtomically(path, buf.Bytes())
}

func normalizeMemberTar(name string, data []byte, sourceDateEpoch int64) ([]byte, error) {
	gzipped := strings.HasSuffix(name, ".gz")

	var buf bytes.Buffer
	src := bytes.NewReader(data)

	if !gzipped {
		if err := normalizeTarStream(src, &buf, sourceDateEpoch); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	gzr, err := gzip.NewReader(src)
	if err != nil {
		return nil, err
	}
	defer gzr.Close()

	gzw := gzip.NewWriter(&buf)
	if err := normalizeTarStream(gzr, gzw, sourceDateEpoch); err != nil {
		return nil, err
	}
	if err := gzw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
