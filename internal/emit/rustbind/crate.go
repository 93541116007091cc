package rustbind

import (
	"fmt"
	"strings"

	"zzc/internal/project"
)

// Crate is the scaffolding for one rustbinding artifact: a build.rs that
// compiles the artifact's C sources via the cc crate, a Cargo.toml
// depending on libc/cc, and a src/lib.rs re-exporting each bridge module
// emitted by Emit. Grounded on emitter_rs.rs::make_module, which writes
// these same three files per artifact directory.
type Crate struct {
	BuildRS   string
	CargoToml string
	LibRS     string
}

// MakeCrate renders the scaffolding for artifact, given the relative path
// of each C source step it compiles (cIncludes are header search
// directories) and the bridge module names Emit produced for it.
func MakeCrate(artifact project.Artifact, cSources, cIncludes, bridgeModules []string) Crate {
	var buildrs strings.Builder
	buildrs.WriteString("fn main() {\n")
	buildrs.WriteString("    cc::Build::new()\n")
	for _, src := range cSources {
		fmt.Fprintf(&buildrs, "      .file(%q)\n", src)
	}
	for _, inc := range cIncludes {
		fmt.Fprintf(&buildrs, "      .include(%q)\n", inc)
	}
	fmt.Fprintf(&buildrs, "    .compile(%q);\n", artifact.Name)
	buildrs.WriteString("}\n")

	cargoToml := fmt.Sprintf(`[package]
name = %q
version = "0.0.1"
[dependencies]
libc = "0.2"
[build-dependencies]
cc = "1"
`, artifact.Name)

	var libRS strings.Builder
	for _, mod := range bridgeModules {
		fmt.Fprintf(&libRS, "#[path = \"../../%s.rs\"]\n", mod)
		fmt.Fprintf(&libRS, "pub mod %s;\n\n", mod)
	}

	return Crate{BuildRS: buildrs.String(), CargoToml: cargoToml, LibRS: libRS.String()}
}
