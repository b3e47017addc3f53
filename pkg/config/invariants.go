package config

import "fmt"

// variantBinding tracks the node-label/run-on-change value that the
// first step setting it bound for a variant, across all phases it
// appears in.
type variantBinding struct {
	nodeLabel      string
	hasNodeLabel   bool
	runOnChange    RunOnChange
	hasRunOnChange bool
}

// validatePhaseInvariants enforces the cross-phase variant-binding and
// timeout invariants of spec §3.
func validatePhaseInvariants(phases []Phase) error {
	bindings := map[string]*variantBinding{}

	for _, phase := range phases {
		for _, variant := range phase.Variants {
			binding := bindings[variant.Name]
			if binding == nil {
				binding = &variantBinding{}
				bindings[variant.Name] = binding
			}

			if err := validateVariantBinding(phase.Name, variant, binding); err != nil {
				return err
			}
			if err := validateVariantTimeouts(phase.Name, variant); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateVariantBinding(phaseName string, variant Variant, binding *variantBinding) error {
	for _, step := range variant.Steps {
		if step.NodeLabel != "" {
			if binding.hasNodeLabel && binding.nodeLabel != step.NodeLabel {
				return fmt.Errorf("config: phase %q variant %q: node-label %q disagrees with earlier binding %q",
					phaseName, variant.Name, step.NodeLabel, binding.nodeLabel)
			}
			binding.nodeLabel = step.NodeLabel
			binding.hasNodeLabel = true
		}
		if step.RunOnChange != RunOnChangeAlways || binding.hasRunOnChange {
			if binding.hasRunOnChange && binding.runOnChange != step.RunOnChange {
				return fmt.Errorf("config: phase %q variant %q: run-on-change %q disagrees with earlier binding %q",
					phaseName, variant.Name, step.RunOnChange, binding.runOnChange)
			}
			binding.runOnChange = step.RunOnChange
			binding.hasRunOnChange = true
		}
	}
	return nil
}

// validateVariantTimeouts enforces: once an sh step has executed,
// subsequent metadata-only timeouts are rejected, and the sum of
// per-sh-step timeouts must stay strictly below the variant's global
// timeout.
func validateVariantTimeouts(phaseName string, variant Variant) error {
	var globalTimeout float64
	hasGlobal := false
	var shSeen bool
	var sum float64

	for _, step := range variant.Steps {
		isMetadataOnly := len(step.Sh) == 0

		if step.HasTimeout {
			if isMetadataOnly {
				if shSeen {
					return fmt.Errorf("config: phase %q variant %q: metadata-only timeout set after an sh step has executed", phaseName, variant.Name)
				}
				globalTimeout = step.Timeout
				hasGlobal = true
			} else {
				sum += step.Timeout
			}
		}

		if !isMetadataOnly {
			shSeen = true
		}
	}

	if hasGlobal && sum >= globalTimeout {
		return fmt.Errorf("config: phase %q variant %q: sum of step timeouts (%.0f) must be strictly less than the global timeout (%.0f)",
			phaseName, variant.Name, sum, globalTimeout)
	}
	return nil
}
