package main

import (
	"testing"

	"zzc/internal/project"
)

func TestResolveArtifactByName(t *testing.T) {
	m := &project.Manifest{Artifacts: []project.Artifact{
		{Name: "lib", Type: project.ArtifactLib},
		{Name: "app", Type: project.ArtifactExe},
	}}

	art, err := resolveArtifact(m, "app")
	if err != nil {
		t.Fatalf("resolveArtifact: %v", err)
	}
	if art.Name != "app" {
		t.Errorf("Name = %q, want app", art.Name)
	}
}

func TestResolveArtifactSoleDefault(t *testing.T) {
	m := &project.Manifest{Artifacts: []project.Artifact{{Name: "only"}}}
	art, err := resolveArtifact(m, "")
	if err != nil {
		t.Fatalf("resolveArtifact: %v", err)
	}
	if art.Name != "only" {
		t.Errorf("Name = %q, want only", art.Name)
	}
}

func TestResolveArtifactAmbiguous(t *testing.T) {
	m := &project.Manifest{Artifacts: []project.Artifact{{Name: "a"}, {Name: "b"}}}
	if _, err := resolveArtifact(m, ""); err == nil {
		t.Fatal("resolveArtifact with no name and 2 artifacts should error")
	}
}

func TestResolveArtifactUnknown(t *testing.T) {
	m := &project.Manifest{Artifacts: []project.Artifact{{Name: "a"}}}
	if _, err := resolveArtifact(m, "nope"); err == nil {
		t.Fatal("resolveArtifact with an unknown name should error")
	}
}
