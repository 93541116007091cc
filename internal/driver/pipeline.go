// Package driver implements the Driver/Pipeline: the orchestration layer
// that strings Loader output through the Resolver, Macro-expander,
// Flattener, Symbolic-checker and Emitters to produce one build artifact,
// following original_source/src/pipeline.rs's Pipeline::build/do_artifact
// sequencing, with concurrency via errgroup.WithContext + SetLimit and
// an indexed-result-slice fan-out.
package driver

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"zzc/internal/ast"
	"zzc/internal/cache"
	"zzc/internal/check"
	"zzc/internal/diag"
	"zzc/internal/emit/cbackend"
	"zzc/internal/emit/rustbind"
	"zzc/internal/flatten"
	"zzc/internal/macro"
	"zzc/internal/name"
	"zzc/internal/project"
	"zzc/internal/resolve"
)

// ModuleArtifact is one native module's compiled output: the rendered C
// text plus the bookkeeping the Driver needs to link it into an artifact.
// The fields it carries mirror emitter::CFile's name/sources/deps/symbols,
// narrowed to what the BFS dependency walk and builtin TU synthesis
// actually consume.
type ModuleArtifact struct {
	Name    name.Name
	Path    string // foreign header path, set only for ast.ModuleForeign passthroughs
	Header  string
	Impl    string
	Rust    *rustbind.File // non-nil only for project.ArtifactRustBinding
	Deps    []name.Name
	Symbols []string
	Broken  bool
	skipped bool // Complete == false: a forward declaration never fully realized
}

// BuildResult is everything do_artifact accumulated for one artifact:
// enough for the caller to drive (or skip) the actual toolchain
// invocation.
type BuildResult struct {
	Artifact     project.Artifact
	Modules      map[name.ID]*ModuleArtifact
	CompileOrder []name.ID // BFS order from the artifact's main module
	FreeSources  []string  // free-standing .c/.cpp files under src/
	BuiltinTU    string    // synthesized translation unit text
	OutputPath   string
}

// Pipeline holds the module set and shared caches for one Driver run.
// Tbl/Modules are mutated in place by resolve/macro passes, matching the
// Resolver's own single-threaded-between-phases contract.
type Pipeline struct {
	Tbl      *name.Table
	Modules  map[name.ID]*ast.Module
	Manifest *project.Manifest

	SourceDir string // project root; free-standing sources live under SourceDir/src
	OutDir    string // where .c text (header and impl in one file), builtin.c and .buildcache descriptors land; no .rs is written

	Jobs int

	ModuleCache *cache.ModuleCache
	DiskCache   *cache.DiskCache
	Toolchain   Toolchain
	MacroRunner macro.Runner

	Events chan<- Event
}

func (p *Pipeline) jobs(n int) int {
	j := p.Jobs
	if j <= 0 {
		j = runtime.GOMAXPROCS(0)
	}
	if n < j {
		j = n
	}
	if j < 1 {
		j = 1
	}
	return j
}

// sortedIDs returns every module's interned ID (only ast.ModuleNative ones
// when nativeOnly),
// ordered by absolute name for deterministic fan-out and BFS tie-breaking.
func (p *Pipeline) sortedIDs(nativeOnly bool) []name.ID {
	ids := make([]name.ID, 0, len(p.Modules))
	for id, mod := range p.Modules {
		if nativeOnly && mod.Kind != ast.ModuleNative {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return p.Modules[ids[i]].AbsName.String() < p.Modules[ids[j]].AbsName.String()
	})
	return ids
}

// Build runs one artifact through the full Loader-to-Emitter sequence and
// returns the accumulated module outputs, ready for toolchain invocation.
func (p *Pipeline) Build(ctx context.Context, rep diag.Reporter, artifactName string) (*BuildResult, error) {
	artifact := p.Manifest.ArtifactByName(artifactName)
	if artifact == nil {
		return nil, fmt.Errorf("driver: no artifact named %q", artifactName)
	}

	if err := p.doMacros(rep); err != nil {
		return nil, err
	}
	p.doResolve(rep)

	modArtifacts, err := p.fanOut(ctx, rep, artifact)
	if err != nil {
		return nil, err
	}

	result := &BuildResult{Artifact: *artifact, Modules: modArtifacts}

	order, symbols, err := p.collectDependencies(artifact, modArtifacts)
	if err != nil {
		return nil, err
	}
	result.CompileOrder = order

	result.FreeSources = p.collectFreeSources()
	result.BuiltinTU = p.synthesizeBuiltin(artifact, symbols)

	outputPath := filepath.Join(p.OutDir, artifact.Name)
	result.OutputPath = outputPath

	if p.Toolchain != nil {
		if err := p.compile(ctx, result); err != nil {
			return result, err
		}
	}

	return result, nil
}

// compile writes every emitted module (plus the free-standing and builtin
// sources) to OutDir and drives the toolchain: one Compile call per
// translation unit in BFS order, then the free-standing and builtin TUs,
// then a single Link — mirroring do_artifact's make.build(n) loop followed
// by make.cobject, make.build(&builtin) and make.link().
func (p *Pipeline) compile(ctx context.Context, result *BuildResult) error {
	var objects []string

	for _, id := range result.CompileOrder {
		ma := result.Modules[id]
		if ma == nil || ma.Path != "" || ma.Broken || ma.skipped {
			continue // foreign header, broken, or forward-declared-only: nothing to compile
		}
		path := p.outputPath(ma.Name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(ma.Header+ma.Impl), 0o644); err != nil {
			return err
		}
		if err := p.Toolchain.Compile(ctx, path, nil); err != nil {
			return fmt.Errorf("driver: compile %s: %w", ma.Name, err)
		}
		objects = append(objects, path)
	}

	for _, src := range result.FreeSources {
		if err := p.Toolchain.Compile(ctx, src, nil); err != nil {
			return fmt.Errorf("driver: compile %s: %w", src, err)
		}
		objects = append(objects, src)
	}

	builtinPath := filepath.Join(p.OutDir, "builtin.c")
	if err := os.WriteFile(builtinPath, []byte(result.BuiltinTU), 0o644); err != nil {
		return err
	}
	if err := p.Toolchain.Compile(ctx, builtinPath, nil); err != nil {
		return fmt.Errorf("driver: compile builtin: %w", err)
	}
	objects = append(objects, builtinPath)

	return p.Toolchain.Link(ctx, objects, result.OutputPath, nil)
}

// doMacros runs the macro-expansion pass once, up front, over every native
// module that declares at least one macro — mirroring
// pipeline.rs::do_macros running makro::sieve before absolutization, but
// simplified per the Runner abstraction already adopted in internal/macro:
// there is no separate compiled macro-program stage, a Runner evaluates a
// macro call site directly.
func (p *Pipeline) doMacros(rep diag.Reporter) error {
	runner := p.MacroRunner
	if runner == nil {
		runner = macro.LiteralRunner{}
	}
	anyMacros := false
	for _, mod := range p.Modules {
		if mod.Kind == ast.ModuleNative && macro.HasMacros(mod) {
			anyMacros = true
			break
		}
	}
	if !anyMacros {
		return nil
	}
	return macro.ExpandCallSites(p.Tbl, p.Modules, runner, rep)
}

// doResolve runs the Resolver to a fixed point: repeated Pass calls until
// either every module resolves or a pass makes no further progress,
// mirroring do_abs's self-re-inserting loop (there bounded by
// completed_abs, here by stillPending no longer shrinking).
func (p *Pipeline) doResolve(rep diag.Reporter) {
	macrosAvailable := false
	for _, mod := range p.Modules {
		if mod.Kind == ast.ModuleNative && macro.HasMacros(mod) {
			macrosAvailable = true
			break
		}
	}
	pending := make(map[name.ID]bool)
	for _, id := range p.sortedIDs(true) {
		pending[id] = true
	}

	r := resolve.New(macrosAvailable)
	for len(pending) > 0 {
		stillPending := r.Pass(p.Tbl, p.Modules, pending, rep)
		if len(stillPending) == len(pending) {
			break // no progress; remaining modules are left for check to flag
		}
		pending = stillPending
	}
}

// fanOut flattens, checks and emits every native module concurrently,
// bounded by errgroup.SetLimit(min(Jobs, module count)). Results are
// written into a pre-sized indexed slice so no per-result mutex is
// needed; only the final map assembly after g.Wait() touches shared
// state.
func (p *Pipeline) fanOut(ctx context.Context, rep diag.Reporter, artifact *project.Artifact) (map[name.ID]*ModuleArtifact, error) {
	ids := p.sortedIDs(false)
	results := make([]*ModuleArtifact, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.jobs(len(ids)))

	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			ma, err := p.buildOne(gctx, rep, artifact, id)
			if err != nil {
				return err
			}
			results[i] = ma
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[name.ID]*ModuleArtifact, len(ids))
	for i, id := range ids {
		if results[i] != nil {
			out[id] = results[i]
		}
	}
	return out, nil
}

// buildOne runs the single-module half of do_emit: flatten, check, emit
// (C and, for a rustbinding artifact, the Rust bridge), consulting both
// cache layers first.
func (p *Pipeline) buildOne(_ context.Context, rep diag.Reporter, artifact *project.Artifact, id name.ID) (*ModuleArtifact, error) {
	mod := p.Modules[id]
	hn := mod.AbsName.HumanName()
	p.emit(Event{Kind: EventDoing, Stage: "comp", Module: hn})
	defer p.emit(Event{Kind: EventDone, Stage: "comp", Module: hn})

	if mod.Kind == ast.ModuleForeign {
		return &ModuleArtifact{Name: mod.AbsName, Path: mod.Source}, nil
	}

	outPath := p.outputPath(mod.AbsName)
	content := fileDigest(mod.Source)
	if flat, broken, _, hit := p.moduleCacheGet(mod.AbsName.String(), content); hit {
		if broken {
			return &ModuleArtifact{Name: mod.AbsName, Broken: true}, nil
		}
		if !flatComplete(flat) {
			return &ModuleArtifact{Name: mod.AbsName, skipped: true}, nil
		}
		return p.emitModule(mod, flat, outPath, artifact)
	}

	flat, err := flatten.Flatten(p.Tbl, p.Modules, id)
	if err != nil {
		return nil, fmt.Errorf("driver: flatten %s: %w", hn, err)
	}

	res := check.Execute(p.Tbl, p.Modules, flat, rep)
	p.moduleCachePut(mod.AbsName.String(), content, flat, !res.OK, nil)
	if !res.OK {
		return &ModuleArtifact{Name: mod.AbsName, Broken: true}, nil
	}
	if !res.Complete {
		return &ModuleArtifact{Name: mod.AbsName, skipped: true}, nil
	}

	return p.emitModule(mod, flat, outPath, artifact)
}

// flatComplete reports whether every local in flat was fully realized,
// mirroring check.Execute's own Complete derivation so a module-cache hit
// doesn't need to re-run the checker just to answer this.
func flatComplete(flat *flatten.FlatModule) bool {
	for _, fl := range flat.Locals {
		if fl.Completeness == flatten.Incomplete {
			return false
		}
	}
	return true
}

func (p *Pipeline) moduleCacheGet(path string, content project.Digest) (*flatten.FlatModule, bool, *diag.Diagnostic, bool) {
	if p.ModuleCache == nil {
		return nil, false, nil, false
	}
	return p.ModuleCache.Get(path, content)
}

func (p *Pipeline) moduleCachePut(path string, content project.Digest, flat *flatten.FlatModule, broken bool, first *diag.Diagnostic) {
	if p.ModuleCache == nil {
		return
	}
	p.ModuleCache.Put(path, content, flat, broken, first)
}

// emitModule runs both backends over an already-flattened, already-checked
// module and keeps its C text (and, for a rustbinding artifact, its Rust
// bridge text) on the returned ModuleArtifact, consulting the disk cache
// first; the only file it writes is the disk-cache descriptor.
func (p *Pipeline) emitModule(mod *ast.Module, flat *flatten.FlatModule, outPath string, artifact *project.Artifact) (*ModuleArtifact, error) {
	ma := &ModuleArtifact{Name: mod.AbsName, Deps: importTargets(mod), Symbols: exportedSymbols(flat)}

	if desc, ok := p.diskCacheGet(outPath); ok && p.DiskCache.Valid(desc, outPath) {
		ma.Header, ma.Impl = desc.Header, desc.Impl
	} else {
		cfile, err := cbackend.Emit(p.Tbl, p.Modules, flat)
		if err != nil {
			return nil, fmt.Errorf("driver: emit %s: %w", mod.AbsName, err)
		}
		ma.Header, ma.Impl = cfile.Header, cfile.Impl
		p.diskCachePut(outPath, mod, ma)
	}

	if artifact.Type == project.ArtifactRustBinding {
		rf, err := rustbind.Emit(p.Tbl, p.Modules, flat)
		if err != nil {
			return nil, fmt.Errorf("driver: emit rust bridge %s: %w", mod.AbsName, err)
		}
		ma.Rust = rf
	}

	return ma, nil
}

func (p *Pipeline) diskCacheGet(outPath string) (*cache.ModuleDescriptor, bool) {
	if p.DiskCache == nil {
		return nil, false
	}
	return p.DiskCache.Get(outPath)
}

func (p *Pipeline) diskCachePut(outPath string, mod *ast.Module, ma *ModuleArtifact) {
	if p.DiskCache == nil {
		return
	}
	desc := &cache.ModuleDescriptor{
		ModuleName:  mod.AbsName.String(),
		SourcePaths: []string{mod.Source},
		Header:      ma.Header,
		Impl:        ma.Impl,
	}
	if info, err := os.Stat(mod.Source); err == nil {
		desc.SourceModTimes = []int64{info.ModTime().UnixNano()}
	}
	_ = p.DiskCache.Put(outPath, desc) // best-effort: a cache write failure must never fail the build
}

// collectDependencies walks the artifact's dependency graph breadth-first
// from its main module, mirroring do_artifact's `need`/`used` worklist
// loop, and accumulates the union of every reached module's Symbols for
// the builtin TU.
func (p *Pipeline) collectDependencies(artifact *project.Artifact, modArtifacts map[name.ID]*ModuleArtifact) ([]name.ID, []string, error) {
	main := name.Parse(artifact.Main)
	mainID := p.Tbl.Intern(main)

	var order []name.ID
	used := make(map[name.ID]bool)
	symbolSet := make(map[string]bool)
	need := []name.ID{mainID}

	for len(need) > 0 {
		next := need
		need = nil
		for _, id := range next {
			if used[id] {
				continue
			}
			used[id] = true
			ma, ok := modArtifacts[id]
			if !ok {
				return nil, nil, fmt.Errorf("driver: dependency %s has no module in this project", p.Tbl.MustLookup(id))
			}
			for _, dep := range ma.Deps {
				need = append(need, p.Tbl.Intern(dep))
			}
			for _, sym := range ma.Symbols {
				symbolSet[sym] = true
			}
			order = append(order, id)
		}
	}

	symbols := make([]string, 0, len(symbolSet))
	for s := range symbolSet {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return order, symbols, nil
}

// collectFreeSources lists every .c/.cpp file directly under
// SourceDir/src, matching do_artifact's std::fs::read_dir("./src") pass
// for hand-written translation units that sit alongside generated ones.
func (p *Pipeline) collectFreeSources() []string {
	dir := filepath.Join(p.SourceDir, "src")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".c", ".cpp":
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out
}

// synthesizeBuiltin renders the builtin translation unit: one extern
// declaration per symbol the artifact's dependency closure exported,
// matching emitter::builtin's role of giving the linker a single TU that
// references (and so keeps alive) every externally visible symbol.
func (p *Pipeline) synthesizeBuiltin(artifact *project.Artifact, symbols []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "// builtin translation unit for %s\n", artifact.Name)
	for _, sym := range symbols {
		fmt.Fprintf(&b, "extern void %s(void);\n", sym)
	}
	return b.String()
}

func (p *Pipeline) outputPath(n name.Name) string {
	return filepath.Join(p.OutDir, strings.Join(n.Segments(), "_")+".c")
}

func importTargets(mod *ast.Module) []name.Name {
	out := make([]name.Name, 0, len(mod.Imports))
	for _, imp := range mod.Imports {
		out = append(out, imp.Target)
	}
	return out
}

func exportedSymbols(flat *flatten.FlatModule) []string {
	var out []string
	for _, fl := range flat.Locals {
		if !fl.Module.Equal(flat.Root) {
			continue
		}
		if fl.Local.Vis != ast.VisExport {
			continue
		}
		if fl.Local.Def.Kind == ast.DefMacro {
			continue
		}
		out = append(out, strings.Join(flat.Root.Segments(), "_")+"_"+fl.Local.Name)
	}
	sort.Strings(out)
	return out
}

// fileDigest hashes src's content for the module-cache key; an unreadable
// file (already reported elsewhere in the pipeline) just misses the cache
// rather than failing the build.
func fileDigest(src string) project.Digest {
	data, err := os.ReadFile(src) //nolint:gosec // path comes from the loader, not user input
	if err != nil {
		return project.Digest{}
	}
	return project.Digest(sha256.Sum256(data))
}
