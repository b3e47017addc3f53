package config

import "strings"

// normalizeGlob rewrites a `(*)`-shorthand pattern to plain `*` and
// leaves `**` ("any path component") patterns untouched, per spec §3's
// ArtifactSpec pattern grammar.
func normalizeGlob(pattern string) string {
	return strings.ReplaceAll(pattern, "(*)", "*")
}

// normalizeArtifactSpec builds an ArtifactSpec from an already-extracted
// pattern list, target and allow-missing flag, normalizing each pattern
// with normalizeGlob. Shape handling and the allow-empty-archive ->
// allow-missing alias are done by its caller, normalizeArtifactField.
func normalizeArtifactSpec(patterns []string, target string, allowMissing bool) *ArtifactSpec {
	normalized := make([]string, len(patterns))
	for i, p := range patterns {
		normalized[i] = normalizeGlob(p)
	}
	return &ArtifactSpec{Patterns: normalized, Target: target, AllowMissing: allowMissing}
}
