package config

// GetinfoProjection builds the map returned by the `getinfo`
// subcommand (spec §6), validated by ValidateGetinfoProjection before
// being serialized.
func GetinfoProjection(cfg *PipelineConfig, hopicVersion, ref, remote, commit string) map[string]any {
	return map[string]any{
		"version": hopicVersion,
		"code": map[string]any{
			"git": map[string]any{
				"ref":    ref,
				"remote": remote,
				"commit": commit,
			},
		},
		"project-name": cfg.ProjectName,
	}
}

// ShowConfigProjection builds the map returned by the `show-config`
// subcommand: the fully resolved pipeline, phases in declaration
// order.
func ShowConfigProjection(cfg *PipelineConfig) map[string]any {
	phases := map[string]any{}
	for _, phase := range cfg.Phases {
		variants := map[string]any{}
		for _, variant := range phase.Variants {
			steps := make([]any, 0, len(variant.Steps))
			for _, s := range variant.Steps {
				steps = append(steps, map[string]any{
					"sh":            s.Sh,
					"run-on-change": string(s.RunOnChange),
				})
			}
			variants[variant.Name] = steps
		}
		phases[phase.Name] = variants
	}

	return map[string]any{
		"project-name": cfg.ProjectName,
		"version": map[string]any{
			"format": string(cfg.Version.Format),
		},
		"phases": phases,
	}
}
