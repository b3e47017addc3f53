package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/parser"

	"github.com/hopic-ci/hopic/pkg/logger"
)

var log = logger.New("config")

// searchPaths are tried, in order, relative to the workspace root when
// no explicit config path is given.
var searchPaths = []string{
	"hopic-ci-config.yaml",
	filepath.Join(".ci", "hopic-ci-config.yaml"),
}

// ExtensionInstaller is invoked once per load with the plugin list
// collected from the document's top-level `pip:` key, so that
// late-resolved tags (e.g. additional !template functions) become
// available before the main parsing pass.
type ExtensionInstaller func(plugins []string) (map[string]TemplateFunc, error)

// Loader reads and validates a pipeline configuration file.
type Loader struct {
	Workspace          string
	ConfigPath         string
	IvyManifestPath    string
	VolumeVars         map[string]any
	ExtensionInstaller ExtensionInstaller
}

// Load runs the two-pass read described in spec §4.1 and returns a
// validated PipelineConfig.
func (l *Loader) Load() (*PipelineConfig, error) {
	path := l.ConfigPath
	if path == "" {
		var err error
		path, err = l.findConfig()
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	plugins, err := preScanPlugins(data)
	if err != nil {
		return nil, err
	}
	log.Printf("pre-pass found %d plugin(s): %v", len(plugins), plugins)

	templates := map[string]TemplateFunc{}
	if l.ExtensionInstaller != nil {
		templates, err = l.ExtensionInstaller(plugins)
		if err != nil {
			return nil, fmt.Errorf("config: installing extensions: %w", err)
		}
	}

	doc, err := parser.ParseBytes(data, 0)
	if err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if len(doc.Docs) == 0 {
		return nil, fmt.Errorf("config: %s is empty", path)
	}

	resolver := &tagResolver{
		manifestPath: l.IvyManifestPath,
		volumeVars:   l.VolumeVars,
		templates:    templates,
	}
	resolved, err := resolver.resolve(doc.Docs[0].Body)
	if err != nil {
		return nil, fmt.Errorf("config: resolving tags in %s: %w", path, err)
	}

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(resolved.String()), &raw); err != nil {
		return nil, fmt.Errorf("config: decoding %s: %w", path, err)
	}

	return normalize(filepath.Dir(path), l.VolumeVars, raw)
}

func (l *Loader) findConfig() (string, error) {
	for _, rel := range searchPaths {
		candidate := filepath.Join(l.Workspace, rel)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("config: no hopic-ci-config.yaml found under %s", l.Workspace)
}

// preScanPlugins decodes only the top-level `pip` key, with template
// tags left untouched (they're not resolvable yet), matching
// parse_pip_config's pre-pass role in
// original_source/hopic/config_reader.py.
func preScanPlugins(data []byte) ([]string, error) {
	var shallow struct {
		Pip []string `yaml:"pip"`
	}
	if err := yaml.UnmarshalWithOptions(data, &shallow, yaml.Strict()); err != nil {
		// Tolerate custom tags the shallow struct can't represent; the
		// pip key itself never carries one.
		if err2 := yaml.Unmarshal(data, &shallow); err2 != nil {
			return nil, fmt.Errorf("config: pre-pass scan: %w", err)
		}
	}
	return shallow.Pip, nil
}
