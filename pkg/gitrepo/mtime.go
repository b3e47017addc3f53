package gitrepo

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// diffHeaderPattern-equivalent parsing: `git whatchanged --pretty=%ct`
// output interleaves commit-timestamp lines with raw diff headers of
// the form ":<old-mode> <new-mode> <old-sha> <new-sha> <status>\t<path>".
// RestoreMtimeFromGit walks that output oldest-affecting-commit-first
// is irrelevant here since whatchanged lists newest commits first and
// we only need, per path, the first (i.e. most recent) timestamp seen.
func (r *Repo) RestoreMtimeFromGit(ctx context.Context) error {
	out, err := r.run(ctx, "whatchanged", "--pretty=%ct", "-m", "--no-renames")
	if err != nil {
		return err
	}

	seen := map[string]bool{}
	var currentTimestamp int64
	haveTimestamp := false

	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		if line[0] != ':' {
			ts, err := strconv.ParseInt(strings.TrimSpace(line), 10, 64)
			if err != nil {
				continue
			}
			currentTimestamp = ts
			haveTimestamp = true
			continue
		}
		if !haveTimestamp {
			continue
		}

		path, objType, ok := parseWhatchangedLine(line)
		if !ok || seen[path] {
			continue
		}
		seen[path] = true

		if objType == "160000" {
			// gitlink: submodule pointer, skipped per spec §4.4.
			continue
		}

		r.setMtime(path, currentTimestamp)
	}

	return nil
}

// parseWhatchangedLine extracts (new-path, new-object-mode) from a raw
// diff header line, e.g.
// ":100644 100644 aaaa bbbb M\tsrc/main.go".
func parseWhatchangedLine(line string) (path, newMode string, ok bool) {
	tab := strings.IndexByte(line, '\t')
	if tab < 0 {
		return "", "", false
	}
	fields := strings.Fields(line[1:tab])
	if len(fields) < 2 {
		return "", "", false
	}
	path = line[tab+1:]
	if arrow := strings.Index(path, "\t"); arrow >= 0 {
		path = path[arrow+1:]
	}
	return path, fields[1], true
}

func (r *Repo) setMtime(relPath string, unixTime int64) {
	full := filepath.Join(r.Dir, relPath)
	info, err := os.Lstat(full)
	if err != nil {
		return
	}

	mtime := time.Unix(unixTime, 0)

	if info.Mode()&os.ModeSymlink != 0 {
		// Symlink mtimes are never updated: os.Chtimes follows
		// symlinks, so calling it here would rewrite the link
		// target's time instead.
		return
	}

	_ = os.Chtimes(full, mtime, mtime)
}
