package config

import (
	"os"
	"path/filepath"
	"strings"
)

// defaultVolumeTargets are bind-mounted into every container by default
// (spec §3), unless already present or explicitly suppressed via
// `source: null`.
var defaultVolumeTargets = []struct{ target, source string }{
	{"/code", "${WORKSPACE}"},
	{"/etc/passwd", "/etc/passwd"},
	{"/etc/group", "/etc/group"},
}

// resolveVolumes expands each raw volume entry's source against
// configDir and vars, rewrites `~/`-prefixed guest targets to
// /home/sandbox/…, and inserts the three default bind mounts unless
// the caller already declared (or explicitly suppressed) their target.
// Grounded on expand_docker_volume_spec in
// original_source/cidriver/config_reader.py.
func resolveVolumes(configDir string, vars map[string]any, raw []Volume) ([]Volume, error) {
	out := make([]Volume, 0, len(raw)+len(defaultVolumeTargets))
	seen := map[string]bool{}

	for _, v := range raw {
		resolved, err := resolveVolume(configDir, vars, v)
		if err != nil {
			return nil, err
		}
		seen[resolved.Target] = true
		if resolved.Suppressed {
			continue
		}
		out = append(out, resolved)
	}

	for _, d := range defaultVolumeTargets {
		if seen[d.target] {
			continue
		}
		resolved, err := resolveVolume(configDir, vars, Volume{Target: d.target, Source: d.source})
		if err != nil {
			return nil, err
		}
		out = append(out, resolved)
	}

	return out, nil
}

func resolveVolume(configDir string, vars map[string]any, v Volume) (Volume, error) {
	if v.Suppressed {
		return v, nil
	}

	target := v.Target
	if strings.HasPrefix(target, "~/") {
		target = "/home/sandbox" + target[1:]
	}
	expandedTarget, err := expandVars(guestVolumeVars(), target)
	if err != nil {
		return Volume{}, err
	}

	source, err := expandVars(vars, expandHome(v.Source))
	if err != nil {
		return Volume{}, err
	}
	if !filepath.IsAbs(source) {
		source = filepath.Join(configDir, source)
	}

	v.Target = expandedTarget
	v.Source = source
	return v, nil
}

func guestVolumeVars() map[string]any {
	return map[string]any{"WORKSPACE": "/code"}
}

func expandHome(path string) string {
	if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			return home
		}
		return path
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
