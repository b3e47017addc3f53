package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePhaseInvariantsAcceptsConsistentNodeLabel(t *testing.T) {
	phases := []Phase{
		{Name: "build", Variants: []Variant{
			{Name: "linux64", Steps: []Step{{NodeLabel: "docker"}}},
		}},
		{Name: "test", Variants: []Variant{
			{Name: "linux64", Steps: []Step{{NodeLabel: "docker"}}},
		}},
	}
	assert.NoError(t, validatePhaseInvariants(phases))
}

func TestValidatePhaseInvariantsRejectsConflictingNodeLabel(t *testing.T) {
	phases := []Phase{
		{Name: "build", Variants: []Variant{
			{Name: "linux64", Steps: []Step{{NodeLabel: "docker"}}},
		}},
		{Name: "test", Variants: []Variant{
			{Name: "linux64", Steps: []Step{{NodeLabel: "windows"}}},
		}},
	}
	assert.Error(t, validatePhaseInvariants(phases))
}

func TestValidateVariantTimeoutsRejectsMetadataAfterShStep(t *testing.T) {
	variant := Variant{Name: "v", Steps: []Step{
		{Sh: []string{"echo", "a"}},
		{HasTimeout: true, Timeout: 60},
	}}
	err := validateVariantTimeouts("phase", variant)
	assert.Error(t, err)
}

func TestValidateVariantTimeoutsRejectsSumExceedingGlobal(t *testing.T) {
	variant := Variant{Name: "v", Steps: []Step{
		{HasTimeout: true, Timeout: 100},
		{Sh: []string{"echo", "a"}, HasTimeout: true, Timeout: 60},
		{Sh: []string{"echo", "b"}, HasTimeout: true, Timeout: 50},
	}}
	err := validateVariantTimeouts("phase", variant)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strictly less")
}

func TestValidateVariantTimeoutsAcceptsUnderBudget(t *testing.T) {
	variant := Variant{Name: "v", Steps: []Step{
		{HasTimeout: true, Timeout: 100},
		{Sh: []string{"echo", "a"}, HasTimeout: true, Timeout: 40},
	}}
	assert.NoError(t, validateVariantTimeouts("phase", variant))
}
