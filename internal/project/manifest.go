// Package project loads and represents a zz.toml project descriptor:
// package metadata, build artifacts, dependency modules and feature flags.
package project

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// ArtifactType enumerates the `type` values accepted under [[artifacts]].
// CMake and Esp32 are parsed but never emitted.
type ArtifactType string

const (
	ArtifactLib         ArtifactType = "lib"
	ArtifactExe         ArtifactType = "exe"
	ArtifactTest        ArtifactType = "test"
	ArtifactMacro       ArtifactType = "macro"
	ArtifactCBinding    ArtifactType = "cbinding"
	ArtifactRustBinding ArtifactType = "rustbinding"
	ArtifactCMake       ArtifactType = "cmake"
	ArtifactEsp32       ArtifactType = "esp32"
)

// Unimplemented reports whether this artifact type is parsed but not
// emitted.
func (t ArtifactType) Unimplemented() bool {
	return t == ArtifactCMake || t == ArtifactEsp32
}

// Package is the `[package]` table.
type Package struct {
	Name string `toml:"name"`
}

// Artifact is one `[[artifacts]]` entry.
type Artifact struct {
	Name string       `toml:"name"`
	Main string       `toml:"main"`
	Type ArtifactType `toml:"type"`
}

// ModuleSpec is one `[modules]` dependency entry: where to find a module
// that isn't part of this project's own src/ tree.
type ModuleSpec struct {
	Source string `toml:"source"` // local path, relative to the module search root
	URL    string `toml:"url"`    // remote fetch location, if any
}

// Manifest is the fully decoded zz.toml.
type Manifest struct {
	Package      Package                    `toml:"package"`
	Artifacts    []Artifact                 `toml:"artifacts"`
	Modules      map[string]ModuleSpec      `toml:"modules"`
	FeatureSets  map[string]map[string]bool `toml:"features"`
}

// Load reads and decodes a zz.toml file at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		return nil, fmt.Errorf("project: read %s: %w", path, err)
	}
	var m Manifest
	if _, err := toml.Decode(string(data), &m); err != nil {
		return nil, fmt.Errorf("project: decode %s: %w", path, err)
	}
	return &m, nil
}

// Features returns the bool flags declared under [features.<variant>],
// or nil if the variant has no entry.
func (m *Manifest) Features(variant string) map[string]bool {
	return m.FeatureSets[variant]
}

// ArtifactByName returns the artifact named name, or nil if absent.
func (m *Manifest) ArtifactByName(name string) *Artifact {
	for i := range m.Artifacts {
		if m.Artifacts[i].Name == name {
			return &m.Artifacts[i]
		}
	}
	return nil
}
