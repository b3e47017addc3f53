package config

import (
	"fmt"

	"github.com/goccy/go-yaml"
)

// rawConfig is the direct structural decode target for the document
// after tag resolution. Phases and each variant's steps are decoded as
// yaml.MapSlice/yaml.MapItem instead of Go maps specifically to
// preserve declaration order (spec §3 invariant: "For each phase, the
// declaration order of variants is preserved").
type rawConfig struct {
	Version                   yaml.MapSlice `yaml:"version"`
	Phases                    yaml.MapSlice `yaml:"phases"`
	PostSubmit                yaml.MapSlice `yaml:"post-submit"`
	Volumes                   any           `yaml:"volumes"`
	Image                     any           `yaml:"image"`
	PassThroughEnvironmentVars []string     `yaml:"pass-through-environment-vars"`
	Clean                     []string      `yaml:"clean"`
	CILocks                   []any         `yaml:"ci-locks"`
	ProjectName               string        `yaml:"project-name"`
	ModalitySourcePreparation yaml.MapSlice  `yaml:"modality-source-preparation"`
	PublishFromBranch         string        `yaml:"publish-from-branch"`
	CodeDir                   string        `yaml:"code-dir"`
	Pip                       []string      `yaml:"pip"`
}

func normalize(configDir string, vars map[string]any, raw rawConfig) (*PipelineConfig, error) {
	cfg := &PipelineConfig{
		ProjectName:       raw.ProjectName,
		PublishFromBranch: raw.PublishFromBranch,
		CodeDir:           raw.CodeDir,
		Clean:             raw.Clean,
		PassThroughEnvironmentVars: raw.PassThroughEnvironmentVars,
		VariantImages:     map[string]string{},
	}

	version, err := normalizeVersionPolicy(raw.Version)
	if err != nil {
		return nil, err
	}
	cfg.Version = version

	switch img := raw.Image.(type) {
	case string:
		cfg.Image = img
		cfg.HasImage = true
	case map[string]any:
		if v, ok := img["default"].(string); ok {
			cfg.Image = v
			cfg.HasImage = true
		}
		for k, v := range img {
			if k == "default" {
				continue
			}
			if s, ok := v.(string); ok {
				cfg.VariantImages[k] = s
			}
		}
	}

	volumes, err := normalizeVolumesField(configDir, vars, raw.Volumes)
	if err != nil {
		return nil, err
	}
	cfg.Volumes = volumes

	locks, err := normalizeCILocks(raw.CILocks)
	if err != nil {
		return nil, err
	}
	cfg.CILocks = locks

	phases, err := normalizePhases(raw.Phases, vars)
	if err != nil {
		return nil, err
	}
	cfg.Phases = phases

	postSubmit, err := normalizePostSubmit(raw.PostSubmit, vars)
	if err != nil {
		return nil, err
	}
	cfg.PostSubmit = postSubmit

	modality, err := normalizeModalitySourcePreparation(raw.ModalitySourcePreparation, vars)
	if err != nil {
		return nil, err
	}
	cfg.ModalitySourcePreparation = modality

	if err := validatePhaseInvariants(cfg.Phases); err != nil {
		return nil, err
	}

	return cfg, nil
}

func normalizeVersionPolicy(m yaml.MapSlice) (VersionPolicy, error) {
	get := mapSliceGetter(m)
	vp := VersionPolicy{
		Format:        VersionFormat(stringOr(get("format"), string(VersionFormatSemVer))),
		OnEveryChange: boolOr(get("on-every-change"), false),
		File:          stringOr(get("file"), ""),
		HotfixBranch:  stringOr(get("hotfix-branch"), ""),
		Build:         stringOr(get("build"), ""),
	}

	switch tag := get("tag").(type) {
	case bool:
		vp.TagEnabled = tag
	case string:
		vp.TagEnabled = true
		vp.Tag = tag
	default:
		vp.TagEnabled = true
	}

	if bumpRaw, ok := get("bump").(map[string]any); ok {
		bumpGet := func(k string) any { return bumpRaw[k] }
		vp.Bump = BumpPolicy{
			Policy:                  BumpPolicyKind(stringOr(bumpGet("policy"), string(BumpPolicyDisabled))),
			Field:                   stringOr(bumpGet("field"), ""),
			Strict:                  boolOr(bumpGet("strict"), false),
			RejectBreakingChangesOn: stringOr(bumpGet("reject-breaking-changes-on"), ""),
			RejectNewFeaturesOn:     stringOr(bumpGet("reject-new-features-on"), ""),
		}
	} else {
		vp.Bump = BumpPolicy{Policy: BumpPolicyDisabled}
	}

	if after, ok := get("after-submit").(map[string]any); ok {
		if b, ok := after["bump"].(bool); ok {
			vp.AfterSubmitBump = b
		} else if _, ok := after["bump"]; ok {
			vp.AfterSubmitBump = true
		}
	}

	return vp, nil
}

func normalizeVolumesField(configDir string, vars map[string]any, raw any) ([]Volume, error) {
	var entries []Volume
	switch v := raw.(type) {
	case []any:
		for _, item := range v {
			vol, err := parseVolumeEntry(item)
			if err != nil {
				return nil, err
			}
			entries = append(entries, vol)
		}
	case map[string]any:
		for target, item := range v {
			vol, err := parseVolumeEntry(item)
			if err != nil {
				return nil, err
			}
			vol.Target = target
			entries = append(entries, vol)
		}
	}
	return resolveVolumes(configDir, vars, entries)
}

func parseVolumeEntry(item any) (Volume, error) {
	switch v := item.(type) {
	case string:
		return parseVolumeString(v)
	case map[string]any:
		vol := Volume{}
		if t, ok := v["target"].(string); ok {
			vol.Target = t
		}
		if s, ok := v["source"]; ok {
			if s == nil {
				vol.Suppressed = true
			} else if str, ok := s.(string); ok {
				vol.Source = str
			}
		}
		if ro, ok := v["read-only"].(bool); ok {
			vol.ReadOnly = ro
		}
		return vol, nil
	default:
		return Volume{}, fmt.Errorf("config: unrecognized volume entry %#v", item)
	}
}

func parseVolumeString(s string) (Volume, error) {
	parts := splitN(s, ':', 3)
	vol := Volume{Source: parts[0]}
	if len(parts) > 1 {
		vol.Target = parts[1]
	} else {
		vol.Target = parts[0]
	}
	if len(parts) > 2 {
		switch parts[2] {
		case "ro":
			vol.ReadOnly = true
		case "rw":
			vol.ReadOnly = false
		}
	}
	return vol, nil
}

func splitN(s string, sep byte, n int) []string {
	var out []string
	start := 0
	for i := 0; i < len(s) && len(out) < n-1; i++ {
		if s[i] == sep {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

func normalizeCILocks(raw []any) ([]CILock, error) {
	var out []CILock
	seen := map[[2]string]bool{}
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		lock := CILock{
			RepoName: stringOr(m["repo-name"], ""),
			Branch:   stringOr(m["branch"], ""),
			OnChange: LockOnChange(stringOr(m["lock-on-change"], string(LockOnChangeAlways))),
		}
		if from, ok := m["from-phase-onward"].(string); ok {
			lock.FromPhase = from
			lock.HasFromPhase = true
		}
		key := [2]string{lock.RepoName, lock.Branch}
		if seen[key] {
			return nil, fmt.Errorf("config: duplicate ci-locks entry for repo %q branch %q", lock.RepoName, lock.Branch)
		}
		seen[key] = true
		out = append(out, lock)
	}
	return out, nil
}

func mapSliceGetter(m yaml.MapSlice) func(string) any {
	return func(key string) any {
		for _, item := range m {
			if k, ok := item.Key.(string); ok && k == key {
				return item.Value
			}
		}
		return nil
	}
}

func boolOr(v any, fallback bool) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return fallback
}
