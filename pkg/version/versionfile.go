package version

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// versionLinePatterns are tried in order against each line of a version
// file. The first is the bare "major.minor.patch..." shape; the second
// tolerates a Python-style "version = \"X.Y.Z\"" assignment, carried
// over from original_source/hopic/versioning.py.
var versionLinePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\s*(\d+\.\d+\.\d+(?:-[0-9A-Za-z.-]+)?(?:\+[0-9A-Za-z.-]+)?)\s*$`),
	regexp.MustCompile(`^\s*version\s*=\s*["'](\d+\.\d+\.\d+(?:-[0-9A-Za-z.-]+)?(?:\+[0-9A-Za-z.-]+)?)["']\s*$`),
}

// ReadVersionFile scans path line by line and returns the first
// successfully parsed version (spec §4.2's read_version).
func ReadVersionFile(path string) (Version, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Version{}, err
	}
	for _, line := range splitLines(string(data)) {
		for _, pattern := range versionLinePatterns {
			if m := pattern.FindStringSubmatch(line); m != nil {
				return Parse(m[1])
			}
		}
	}
	return Version{}, fmt.Errorf("version: no parseable version found in %s", path)
}

// ReplaceVersionFile rewrites the first matching line in path to carry
// newVersion, preserving every other line verbatim, and replaces the
// file atomically via a rename (spec §4.2's replace_version).
func ReplaceVersionFile(path string, newVersion Version) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out, replaced, err := replaceVersionText(string(data), newVersion)
	if err != nil {
		return err
	}
	if !replaced {
		return fmt.Errorf("version: no parseable version found in %s", path)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".hopic-version-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.WriteString(out); err != nil {
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

// ReplaceVersionText is the in-memory variant of ReplaceVersionFile: it
// rewrites the first matching line of content and returns the result
// without touching any file.
func ReplaceVersionText(content string, newVersion Version) (string, error) {
	out, replaced, err := replaceVersionText(content, newVersion)
	if err != nil {
		return "", err
	}
	if !replaced {
		return "", fmt.Errorf("version: no parseable version found")
	}
	return out, nil
}

func replaceVersionText(content string, newVersion Version) (string, bool, error) {
	lines := splitLines(content)
	for i, line := range lines {
		for _, pattern := range versionLinePatterns {
			loc := pattern.FindStringSubmatchIndex(line)
			if loc == nil {
				continue
			}
			lines[i] = line[:loc[2]] + newVersion.String() + line[loc[3]:]
			return joinLines(lines), true, nil
		}
	}
	return content, false, nil
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i, r := range s {
		if r == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	lines = append(lines, s[start:])
	return lines
}

func joinLines(lines []string) string {
	out := lines[0]
	for _, l := range lines[1:] {
		out += "\n" + l
	}
	return out
}
