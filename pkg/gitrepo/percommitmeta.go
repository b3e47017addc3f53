package gitrepo

import (
	"context"
	"fmt"

	shellwords "github.com/mattn/go-shellwords"
)

// PerCommitMeta is the per-submit-commit state persisted in the
// workspace's Git config under section `hopic.<commit-sha>`, per spec
// §3.
type PerCommitMeta struct {
	Ref                string
	Remote             string
	Refspecs           []string
	TargetCommit       string
	SourceCommit       string
	AutosquashedCommit string
	VersionBumped      bool
}

func metaSection(commit string) string {
	return "hopic." + commit
}

// WritePerCommitMeta persists meta under hopic.<commit>, after
// removing any existing section for a different commit — spec §3's
// invariant that exactly one section exists at a time.
func (r *Repo) WritePerCommitMeta(ctx context.Context, commit string, meta PerCommitMeta) error {
	if err := r.RemoveAllPerCommitMeta(ctx); err != nil {
		return err
	}

	section := metaSection(commit)
	set := func(key, value string) error {
		if value == "" {
			return nil
		}
		return r.ConfigSet(ctx, section+"."+key, value)
	}

	if err := set("ref", meta.Ref); err != nil {
		return err
	}
	if err := set("remote", meta.Remote); err != nil {
		return err
	}
	if err := set("target-commit", meta.TargetCommit); err != nil {
		return err
	}
	if err := set("source-commit", meta.SourceCommit); err != nil {
		return err
	}
	if err := set("autosquashed-commit", meta.AutosquashedCommit); err != nil {
		return err
	}
	if err := set("version-bumped", fmt.Sprintf("%t", meta.VersionBumped)); err != nil {
		return err
	}
	if len(meta.Refspecs) > 0 {
		if err := set("refspecs", quoteRefspecs(meta.Refspecs)); err != nil {
			return err
		}
	}
	return nil
}

// ReadPerCommitMeta reads the hopic.<commit> section written by
// WritePerCommitMeta.
func (r *Repo) ReadPerCommitMeta(ctx context.Context, commit string) (PerCommitMeta, error) {
	values, err := r.ConfigGetAll(ctx, metaSection(commit))
	if err != nil {
		return PerCommitMeta{}, err
	}

	refspecs, err := unquoteRefspecs(values["refspecs"])
	if err != nil {
		return PerCommitMeta{}, err
	}

	return PerCommitMeta{
		Ref:                values["ref"],
		Remote:             values["remote"],
		Refspecs:           refspecs,
		TargetCommit:       values["target-commit"],
		SourceCommit:       values["source-commit"],
		AutosquashedCommit: values["autosquashed-commit"],
		VersionBumped:      values["version-bumped"] == "true",
	}, nil
}

// RemoveAllPerCommitMeta deletes every hopic.<sha> section present, so
// that prepare-source-tree's "exactly one active section" invariant
// holds after writing the new one.
func (r *Repo) RemoveAllPerCommitMeta(ctx context.Context) error {
	out, err := r.run(ctx, "config", "--get-regexp", `^hopic\.[0-9a-f]{40}\.`)
	if err != nil {
		// No existing sections is not an error.
		return nil
	}
	sections := map[string]bool{}
	for _, line := range splitLines(out) {
		key := line
		if idx := indexByte(line, ' '); idx >= 0 {
			key = line[:idx]
		}
		parts := splitDot(key)
		if len(parts) >= 2 {
			sections["hopic."+parts[1]] = true
		}
	}
	for section := range sections {
		if err := r.RemoveConfigSection(ctx, section); err != nil {
			return err
		}
	}
	return nil
}

func quoteRefspecs(refspecs []string) string {
	out := ""
	for i, rs := range refspecs {
		if i > 0 {
			out += " "
		}
		out += shellQuote(rs)
	}
	return out
}

func unquoteRefspecs(joined string) ([]string, error) {
	if joined == "" {
		return nil, nil
	}
	parser := shellwords.NewParser()
	return parser.Parse(joined)
}

func shellQuote(s string) string {
	out := "'"
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			out += `'\''`
			continue
		}
		out += string(s[i])
	}
	return out + "'"
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

func splitDot(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}
