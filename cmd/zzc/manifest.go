package main

import (
	"fmt"
	"path/filepath"

	"zzc/internal/project"
)

// locateManifest walks up from the current directory to find zz.toml
// and decodes it.
func locateManifest(startDir string) (path, root string, manifest *project.Manifest, err error) {
	path, ok, err := project.FindZZToml(startDir)
	if err != nil {
		return "", "", nil, err
	}
	if !ok {
		return "", "", nil, fmt.Errorf("no zz.toml found; run %q", "zzc init")
	}
	manifest, err = project.Load(path)
	if err != nil {
		return "", "", nil, err
	}
	return path, filepath.Dir(path), manifest, nil
}

// resolveArtifact picks the artifact to build: the named one if given, the
// project's sole artifact if there is exactly one, or an error demanding
// disambiguation.
func resolveArtifact(manifest *project.Manifest, name string) (*project.Artifact, error) {
	if name != "" {
		art := manifest.ArtifactByName(name)
		if art == nil {
			return nil, fmt.Errorf("zz.toml declares no artifact named %q", name)
		}
		return art, nil
	}
	switch len(manifest.Artifacts) {
	case 0:
		return nil, fmt.Errorf("zz.toml declares no [[artifacts]]")
	case 1:
		return &manifest.Artifacts[0], nil
	default:
		return nil, fmt.Errorf("zz.toml declares %d artifacts; pass one by name", len(manifest.Artifacts))
	}
}
