package driver

import (
	"context"
	"strings"
	"testing"

	"zzc/internal/ast"
	"zzc/internal/cache"
	"zzc/internal/diag"
	"zzc/internal/name"
	"zzc/internal/project"
)

func twoModuleProject(t *testing.T) (*name.Table, map[name.ID]*ast.Module) {
	t.Helper()
	tbl := name.NewTable()

	lib := ast.NewModule(name.Parse("m::lib"), "m/lib.source")
	lib.Locals = []ast.Local{
		{Name: "helper", Vis: ast.VisExport, Def: ast.Def{Kind: ast.DefFunction}},
	}

	main := ast.NewModule(name.Parse("m::main"), "m/main.source")
	main.Imports = []ast.Import{{Target: name.Parse("m::lib")}}
	main.Locals = []ast.Local{
		{Name: "main", Vis: ast.VisExport, Def: ast.Def{Kind: ast.DefFunction}},
	}
	main.Aliases = map[string]string{"m::lib::helper": "m_lib_helper"}

	modules := map[name.ID]*ast.Module{
		tbl.Intern(lib.AbsName):  lib,
		tbl.Intern(main.AbsName): main,
	}
	return tbl, modules
}

func newManifest() *project.Manifest {
	return &project.Manifest{
		Package:   project.Package{Name: "m"},
		Artifacts: []project.Artifact{{Name: "app", Main: "m::main", Type: project.ArtifactExe}},
	}
}

func TestBuildEmitsDependencyClosureInBFSOrder(t *testing.T) {
	tbl, modules := twoModuleProject(t)
	p := &Pipeline{
		Tbl:      tbl,
		Modules:  modules,
		Manifest: newManifest(),
		OutDir:   t.TempDir(),
		Jobs:     2,
	}

	bag := diag.NewBag(16)
	result, err := p.Build(context.Background(), diag.BagReporter{Bag: bag}, "app")
	if err != nil {
		t.Fatalf("Build: %v (diagnostics: %+v)", err, bag.Items())
	}
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}

	if len(result.CompileOrder) != 2 {
		t.Fatalf("CompileOrder = %v, want 2 modules", result.CompileOrder)
	}
	mainID := tbl.Intern(name.Parse("m::main"))
	libID := tbl.Intern(name.Parse("m::lib"))
	if result.CompileOrder[0] != mainID {
		t.Errorf("CompileOrder[0] = %v, want main first (BFS root)", result.CompileOrder[0])
	}
	if result.CompileOrder[1] != libID {
		t.Errorf("CompileOrder[1] = %v, want lib reached via main's import", result.CompileOrder[1])
	}

	mainArt := result.Modules[mainID]
	if mainArt == nil || !strings.Contains(mainArt.Impl, "main(void) {") {
		t.Errorf("main module was not emitted with an unqualified entry point: %+v", mainArt)
	}
	libArt := result.Modules[libID]
	if libArt == nil || !strings.Contains(libArt.Header, "m_lib_helper") {
		t.Errorf("lib module missing its exported symbol in the header: %+v", libArt)
	}
	if len(libArt.Symbols) == 0 {
		t.Errorf("lib module exported no symbols, want at least helper")
	}
}

func TestBuildUnknownArtifactErrors(t *testing.T) {
	tbl, modules := twoModuleProject(t)
	p := &Pipeline{Tbl: tbl, Modules: modules, Manifest: newManifest(), OutDir: t.TempDir()}

	if _, err := p.Build(context.Background(), diag.BagReporter{Bag: diag.NewBag(4)}, "nope"); err == nil {
		t.Fatal("Build with an unknown artifact name returned no error")
	}
}

func TestBuildDrivesRecordingToolchain(t *testing.T) {
	tbl, modules := twoModuleProject(t)
	tc := &RecordingToolchain{}
	p := &Pipeline{
		Tbl: tbl, Modules: modules, Manifest: newManifest(),
		OutDir: t.TempDir(), Toolchain: tc,
	}

	result, err := p.Build(context.Background(), diag.BagReporter{Bag: diag.NewBag(16)}, "app")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(tc.Compiled) != 3 { // main.c, lib.c, builtin.c
		t.Errorf("Compiled = %v, want 3 translation units", tc.Compiled)
	}
	if len(tc.Linked) != 1 || tc.Linked[0] != result.OutputPath {
		t.Errorf("Linked = %v, want exactly [%s]", tc.Linked, result.OutputPath)
	}
}

func TestBuildTwiceWithSharedDiskCacheIsStable(t *testing.T) {
	tbl, modules := twoModuleProject(t)
	dc := cache.NewDiskCache()
	p := &Pipeline{Tbl: tbl, Modules: modules, Manifest: newManifest(), OutDir: t.TempDir(), DiskCache: dc}

	result1, err := p.Build(context.Background(), diag.BagReporter{Bag: diag.NewBag(16)}, "app")
	if err != nil {
		t.Fatalf("first Build: %v", err)
	}

	// A second run over the same modules must still succeed and produce
	// byte-identical output, whether or not the disk cache was consulted.
	tbl2, modules2 := twoModuleProject(t)
	p2 := &Pipeline{Tbl: tbl2, Modules: modules2, Manifest: newManifest(), OutDir: p.OutDir, DiskCache: dc}
	result2, err := p2.Build(context.Background(), diag.BagReporter{Bag: diag.NewBag(16)}, "app")
	if err != nil {
		t.Fatalf("second Build: %v", err)
	}
	mainID := tbl2.Intern(name.Parse("m::main"))
	if result2.Modules[mainID] == nil || result2.Modules[mainID].Impl == "" {
		t.Error("second Build produced no impl text for main")
	}
	mainID1 := tbl.Intern(name.Parse("m::main"))
	if result1.Modules[mainID1] == nil || result2.Modules[mainID] == nil ||
		result1.Modules[mainID1].Impl != result2.Modules[mainID].Impl {
		t.Error("second Build's impl text for main differs from the first Build's")
	}
}
