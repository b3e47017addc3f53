package config

import "fmt"

// normalizeStep converts one raw YAML step mapping (or a bare string,
// shorthand for `{sh: "..."}`) into a Step, applying the shell-split,
// environment-prefix, and archive/fingerprint/credential normalization
// rules of spec §4.1.
func normalizeStep(raw any, vars map[string]any) (Step, error) {
	switch v := raw.(type) {
	case string:
		return stepFromShellLine(v)
	case map[string]any:
		return stepFromMapping(v, vars)
	default:
		return Step{}, fmt.Errorf("config: step must be a string or mapping, got %T", raw)
	}
}

func stepFromShellLine(line string) (Step, error) {
	argv, env, err := splitShellCommand(line)
	if err != nil {
		return Step{}, fmt.Errorf("config: splitting shell command %q: %w", line, err)
	}
	return Step{Sh: argv, Environment: env, RunOnChange: RunOnChangeAlways}, nil
}

func stepFromMapping(m map[string]any, vars map[string]any) (Step, error) {
	step := Step{RunOnChange: RunOnChangeAlways}

	if sh, ok := m["sh"]; ok {
		argv, env, err := normalizeShField(sh)
		if err != nil {
			return Step{}, err
		}
		step.Sh = argv
		if step.Environment == nil {
			step.Environment = map[string]string{}
		}
		for k, v := range env {
			step.Environment[k] = v
		}
	}

	if envRaw, ok := m["environment"].(map[string]any); ok {
		if step.Environment == nil {
			step.Environment = map[string]string{}
		}
		for k, v := range envRaw {
			if v == nil {
				// "" is how buildEnvironment marks a key for removal.
				step.Environment[k] = ""
				continue
			}
			step.Environment[k] = fmt.Sprint(v)
		}
	}

	if timeout, ok := numericField(m["timeout"]); ok {
		step.Timeout = timeout
		step.HasTimeout = true
	}

	if image, ok := m["image"].(string); ok {
		step.Image = image
		step.HasImage = true
	}

	if did, ok := m["docker-in-docker"].(bool); ok {
		step.DockerInDocker = did
	}

	if desc, ok := m["description"].(string); ok {
		step.Description = desc
	}

	if label, ok := m["node-label"].(string); ok {
		step.NodeLabel = label
	}

	if roc, ok := m["run-on-change"].(string); ok {
		step.RunOnChange = RunOnChange(roc)
	}

	if fe, ok := m["foreach"].(string); ok {
		step.Foreach = ForeachMode(fe)
	}

	if wtPrev, ok := m["wait-on-full-previous-phase"].(bool); ok {
		step.WaitOnFullPreviousPhase = wtPrev
		step.HasWaitOnFullPreviousPhase = true
	}

	if stash, ok := m["stash"]; ok {
		step.Stash = toStringSlice(stash)
	}

	if changed, ok := m["changed-files"]; ok {
		step.ChangedFiles = toStringSlice(changed)
	}

	if wt, ok := m["worktrees"].(map[string]any); ok {
		step.Worktrees = map[string]string{}
		for k, v := range wt {
			step.Worktrees[k] = fmt.Sprint(v)
		}
	}

	if vf, ok := m["volumes-from"]; ok {
		refs, err := normalizeVolumesFrom(vf)
		if err != nil {
			return Step{}, err
		}
		step.VolumesFrom = refs
	}

	if eda, ok := m["extra-docker-args"].(map[string]any); ok {
		step.ExtraDockerArgs = map[string]string{}
		for k, v := range eda {
			step.ExtraDockerArgs[k] = fmt.Sprint(v)
		}
	}

	if wc, ok := m["with-credentials"]; ok {
		creds, err := normalizeWithCredentials(wc)
		if err != nil {
			return Step{}, err
		}
		step.WithCredentials = creds
	}

	var err error
	if step.Archive, err = normalizeArtifactField(m["archive"], m["allow-empty-archive"]); err != nil {
		return Step{}, err
	}
	if step.Fingerprint, err = normalizeArtifactField(m["fingerprint"], nil); err != nil {
		return Step{}, err
	}
	if step.JUnit, err = normalizeArtifactField(m["junit"], nil); err != nil {
		return Step{}, err
	}

	return step, nil
}

func normalizeShField(raw any) ([]string, map[string]string, error) {
	switch v := raw.(type) {
	case string:
		return splitShellCommand(v)
	case []any:
		argv := make([]string, 0, len(v))
		for _, item := range v {
			argv = append(argv, fmt.Sprint(item))
		}
		return argv, nil, nil
	default:
		return nil, nil, fmt.Errorf("config: sh must be a string or sequence, got %T", raw)
	}
}

func normalizeArtifactField(raw any, allowEmptyAlias any) (*ArtifactSpec, error) {
	if raw == nil {
		return nil, nil
	}
	allowMissing := false
	if b, ok := allowEmptyAlias.(bool); ok {
		allowMissing = b
	}

	switch v := raw.(type) {
	case string:
		return normalizeArtifactSpec([]string{v}, "", allowMissing), nil
	case []any:
		return normalizeArtifactSpec(toStringSlice(v), "", allowMissing), nil
	case map[string]any:
		patterns := []string{}
		if p, ok := v["artifacts"]; ok {
			patterns = toStringSlice(p)
		} else if p, ok := v["test_results"]; ok {
			patterns = toStringSlice(p)
		} else if p, ok := v["test-results"]; ok {
			patterns = toStringSlice(p)
		}
		if am, ok := v["allow-missing"].(bool); ok {
			allowMissing = am
		}
		target := stringOr(v["target"], "")
		return normalizeArtifactSpec(patterns, target, allowMissing), nil
	default:
		return nil, fmt.Errorf("config: unrecognized artifact spec %#v", raw)
	}
}

func normalizeVolumesFrom(raw any) ([]VolumesFromRef, error) {
	items := toStringSlice(raw)
	out := make([]VolumesFromRef, 0, len(items))
	for _, i := range items {
		out = append(out, VolumesFromRef{Image: i})
	}
	return out, nil
}

func normalizeWithCredentials(raw any) ([]Credential, error) {
	var entries []map[string]any
	switch v := raw.(type) {
	case string:
		entries = append(entries, map[string]any{"id": v})
	case map[string]any:
		entries = append(entries, v)
	case []any:
		for _, item := range v {
			switch e := item.(type) {
			case string:
				entries = append(entries, map[string]any{"id": e})
			case map[string]any:
				entries = append(entries, e)
			default:
				return nil, fmt.Errorf("config: unrecognized with-credentials entry %#v", item)
			}
		}
	default:
		return nil, fmt.Errorf("config: unrecognized with-credentials shape %#v", raw)
	}

	out := make([]Credential, 0, len(entries))
	for _, e := range entries {
		cred, err := normalizeCredentialEntry(e)
		if err != nil {
			return nil, err
		}
		out = append(out, cred)
	}
	return out, nil
}

func numericField(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func toStringSlice(v any) []string {
	switch s := v.(type) {
	case string:
		return []string{s}
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			out = append(out, fmt.Sprint(item))
		}
		return out
	case []string:
		return s
	default:
		return nil
	}
}
