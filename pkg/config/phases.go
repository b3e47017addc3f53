package config

import (
	"fmt"

	"github.com/goccy/go-yaml"
)

func normalizePhases(raw yaml.MapSlice, vars map[string]any) ([]Phase, error) {
	var phases []Phase
	for _, phaseItem := range raw {
		name, ok := phaseItem.Key.(string)
		if !ok {
			continue
		}
		variantsRaw, ok := phaseItem.Value.(yaml.MapSlice)
		if !ok {
			return nil, fmt.Errorf("config: phase %q is not a mapping of variants", name)
		}

		var variants []Variant
		for _, variantItem := range variantsRaw {
			vname, ok := variantItem.Key.(string)
			if !ok {
				continue
			}
			steps, err := normalizeStepList(variantItem.Value, vars, false)
			if err != nil {
				return nil, fmt.Errorf("config: phase %q variant %q: %w", name, vname, err)
			}
			variants = append(variants, Variant{Name: vname, Steps: steps})
		}
		phases = append(phases, Phase{Name: name, Variants: variants})
	}
	return phases, nil
}

func normalizePostSubmit(raw yaml.MapSlice, vars map[string]any) ([]PostSubmitPhase, error) {
	var out []PostSubmitPhase
	for _, item := range raw {
		name, ok := item.Key.(string)
		if !ok {
			continue
		}
		steps, err := normalizeStepList(item.Value, vars, true)
		if err != nil {
			return nil, fmt.Errorf("config: post-submit phase %q: %w", name, err)
		}
		out = append(out, PostSubmitPhase{Name: name, Steps: steps})
	}
	return out, nil
}

func normalizeModalitySourcePreparation(raw yaml.MapSlice, vars map[string]any) (map[string][]Step, error) {
	out := map[string][]Step{}
	for _, item := range raw {
		name, ok := item.Key.(string)
		if !ok {
			continue
		}
		steps, err := normalizeModalitySteps(item.Value, vars)
		if err != nil {
			return nil, fmt.Errorf("config: modality-source-preparation %q: %w", name, err)
		}
		out[name] = steps
	}
	return out, nil
}

// normalizeModalitySteps restricts the step shape to {sh, changed-files,
// commit-message}, per spec §3's PipelineConfig.modality_source_preparation
// constraint.
func normalizeModalitySteps(raw any, vars map[string]any) ([]Step, error) {
	steps, err := normalizeStepList(raw, vars, false)
	if err != nil {
		return nil, err
	}
	for i, s := range steps {
		steps[i] = Step{Sh: s.Sh, Environment: s.Environment, ChangedFiles: s.ChangedFiles}
	}
	return steps, nil
}

func normalizeStepList(raw any, vars map[string]any, postSubmit bool) ([]Step, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("config: expected a sequence of steps, got %T", raw)
	}
	// Nested command lists are flattened so a step is always a mapping.
	flat := flattenStepList(items)

	var steps []Step
	for _, item := range flat {
		step, err := normalizeStep(item, vars)
		if err != nil {
			return nil, err
		}
		if postSubmit {
			if err := validatePostSubmitStep(step); err != nil {
				return nil, err
			}
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func flattenStepList(items []any) []any {
	var out []any
	for _, item := range items {
		if nested, ok := item.([]any); ok {
			out = append(out, flattenStepList(nested)...)
			continue
		}
		out = append(out, item)
	}
	return out
}

func validatePostSubmitStep(s Step) error {
	if s.Archive != nil || s.Fingerprint != nil || len(s.Stash) > 0 || len(s.Worktrees) > 0 {
		return fmt.Errorf("config: post-submit step cannot use archive/fingerprint/stash/worktrees")
	}
	return nil
}
