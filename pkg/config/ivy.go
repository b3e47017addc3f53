package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"
)

// ivyModule is the subset of an Apache Ivy module descriptor's shape
// needed to resolve the toolchain image, grounded on
// get_toolchain_image_information in
// original_source/cidriver/config_reader.py. XML is stdlib
// (encoding/xml): no example repo in the pack parses Ivy manifests, and
// Go's xml package is the idiomatic choice for this one-off decode.
type ivyModule struct {
	XMLName      xml.Name        `xml:"ivy-module"`
	Dependencies ivyDependencies `xml:"dependencies"`
}

type ivyDependencies struct {
	Dependencies []ivyDependency `xml:"dependency"`
}

type ivyDependency struct {
	Org     string    `xml:"org,attr"`
	Name    string    `xml:"name,attr"`
	Rev     string    `xml:"rev,attr"`
	Conf    string    `xml:"conf,attr"`
	Confs   []ivyConf `xml:"conf"`
}

type ivyConf struct {
	Mapped string `xml:"mapped,attr"`
}

func (d ivyDependency) refersToToolchain() bool {
	if strings.Contains(d.Conf, "toolchain") {
		return true
	}
	for _, c := range d.Confs {
		if c.Mapped == "toolchain" {
			return true
		}
	}
	return false
}

// resolveIvyToolchainImage reads an Ivy manifest and returns the
// pullable "<repository>/<path>/<name>:<rev>" image reference for the
// single dependency tagged as the toolchain. It is an error for zero
// or more than one dependency to match — the ambiguity is deliberately
// not resolved any further, matching the Python implementation's tuple
// unpacking assertion (`toolchain_dep, = (...)`).
func resolveIvyToolchainImage(manifestPath string, overrides map[string]string) (string, error) {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return "", fmt.Errorf("config: reading ivy manifest %s: %w", manifestPath, err)
	}

	var module ivyModule
	if err := xml.Unmarshal(data, &module); err != nil {
		return "", fmt.Errorf("config: parsing ivy manifest %s: %w", manifestPath, err)
	}

	var match *ivyDependency
	for i := range module.Dependencies.Dependencies {
		dep := &module.Dependencies.Dependencies[i]
		if !dep.refersToToolchain() {
			continue
		}
		if match != nil {
			return "", fmt.Errorf("config: ivy manifest %s has more than one toolchain dependency", manifestPath)
		}
		match = dep
	}
	if match == nil {
		return "", fmt.Errorf("config: ivy manifest %s names no toolchain dependency", manifestPath)
	}

	repository := overrides["repository"]
	path := overrides["path"]
	name := match.Name
	if v, ok := overrides["name"]; ok {
		name = v
	}
	rev := match.Rev
	if v, ok := overrides["rev"]; ok {
		rev = v
	}

	var segments []string
	for _, s := range []string{repository, path, name} {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return fmt.Sprintf("%s:%s", strings.Join(segments, "/"), rev), nil
}
