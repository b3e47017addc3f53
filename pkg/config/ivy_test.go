package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ivyManifestFixture = `<?xml version="1.0"?>
<ivy-module version="2.0">
  <dependencies>
    <dependency org="tools" name="toolchain-image" rev="1.4.0" conf="toolchain">
    </dependency>
    <dependency org="tools" name="other-dep" rev="2.0.0" conf="build">
    </dependency>
  </dependencies>
</ivy-module>
`

func writeIvyFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "dependency_manifest.xml")
	require.NoError(t, os.WriteFile(path, []byte(ivyManifestFixture), 0o644))
	return path
}

func TestResolveIvyToolchainImage(t *testing.T) {
	path := writeIvyFixture(t)
	image, err := resolveIvyToolchainImage(path, map[string]string{"repository": "registry.example.com"})
	require.NoError(t, err)
	assert.Equal(t, "registry.example.com/toolchain-image:1.4.0", image)
}

func TestResolveIvyToolchainImageRevOverride(t *testing.T) {
	path := writeIvyFixture(t)
	image, err := resolveIvyToolchainImage(path, map[string]string{"rev": "1.5.0-rc1"})
	require.NoError(t, err)
	assert.Equal(t, "toolchain-image:1.5.0-rc1", image)
}

func TestResolveIvyToolchainImageAmbiguousFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.xml")
	ambiguous := `<?xml version="1.0"?>
<ivy-module version="2.0">
  <dependencies>
    <dependency org="tools" name="a" rev="1.0" conf="toolchain"></dependency>
    <dependency org="tools" name="b" rev="1.0" conf="toolchain"></dependency>
  </dependencies>
</ivy-module>
`
	require.NoError(t, os.WriteFile(path, []byte(ambiguous), 0o644))
	_, err := resolveIvyToolchainImage(path, nil)
	assert.Error(t, err)
}

func TestResolveIvyToolchainImageNoMatchFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.xml")
	none := `<?xml version="1.0"?>
<ivy-module version="2.0">
  <dependencies>
    <dependency org="tools" name="a" rev="1.0" conf="build"></dependency>
  </dependencies>
</ivy-module>
`
	require.NoError(t, os.WriteFile(path, []byte(none), 0o644))
	_, err := resolveIvyToolchainImage(path, nil)
	assert.Error(t, err)
}
