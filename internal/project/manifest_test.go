package project

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleManifest = `
[package]
name = "demo"

[[artifacts]]
name = "demo"
main = "demo::main"
type = "exe"

[[artifacts]]
name = "demo-esp"
main = "demo::main"
type = "esp32"

[modules]
stdlib = { source = "../stdlib" }

[features.release]
optimize = true
`

func TestLoadDecodesManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "zz.toml")
	if err := os.WriteFile(path, []byte(sampleManifest), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Package.Name != "demo" {
		t.Errorf("Package.Name = %q, want %q", m.Package.Name, "demo")
	}
	if len(m.Artifacts) != 2 {
		t.Fatalf("len(Artifacts) = %d, want 2", len(m.Artifacts))
	}
	if a := m.ArtifactByName("demo"); a == nil || a.Type != ArtifactExe {
		t.Errorf("ArtifactByName(demo) = %+v, want type exe", a)
	}
	if a := m.ArtifactByName("demo-esp"); a == nil || !a.Type.Unimplemented() {
		t.Error("esp32 artifact should report Unimplemented")
	}
	if spec, ok := m.Modules["stdlib"]; !ok || spec.Source != "../stdlib" {
		t.Errorf("Modules[stdlib] = %+v", spec)
	}
	if !m.Features("release")["optimize"] {
		t.Error("expected release.optimize feature flag to be true")
	}
}
