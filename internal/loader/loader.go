// Package loader discovers *.source files under a project root (and any
// declared dependency projects) and registers one ast.Module per file
// under its absolute Name.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"zzc/internal/ast"
	"zzc/internal/name"
	"zzc/internal/project"
	"zzc/internal/source"
)

const sourceExt = ".source"

// ModulePathEnv names the dependency search root, default <exe-dir>/../modules,
// simplified from the original's three-parent-dir walk.
const ModulePathEnv = "ZZC_MODULE_PATH"

// Set is every module discovered for one artifact build, keyed by its
// interned absolute Name.
type Set struct {
	Table   *name.Table
	Modules map[name.ID]*ast.Module
}

// NewSet creates an empty module Set over tbl.
func NewSet(tbl *name.Table) *Set {
	return &Set{Table: tbl, Modules: make(map[name.ID]*ast.Module)}
}

// Get returns the module named n, or nil. Interning n is harmless even if
// it was never registered: the lookup simply misses in s.Modules.
func (s *Set) Get(n name.Name) *ast.Module {
	id := s.Table.Intern(n)
	return s.Modules[id]
}

// LoadProject walks root's src/ tree, parses every *.source file (parsing
// itself is out of scope — callers supply parse via the parseFile hook)
// and registers each under `<projectName>::<path segments minus
// .source>`. Dependency projects declared in manifest's [modules]
// table are discovered by DependencySearchPath and loaded the same way,
// under their own declared module name.
func LoadProject(fs *source.FileSet, tbl *name.Table, projectName, root string, manifest *project.Manifest, parseFile func(*source.File) (*ast.Module, error)) (*Set, error) {
	set := NewSet(tbl)

	if err := loadTree(fs, tbl, set, projectName, filepath.Join(root, "src"), parseFile); err != nil {
		return nil, err
	}

	searchRoot := DependencySearchPath()
	for depName, spec := range manifest.Modules {
		depRoot := spec.Source
		if !filepath.IsAbs(depRoot) {
			depRoot = filepath.Join(searchRoot, depName)
		}
		if _, err := os.Stat(filepath.Join(depRoot, "zz.toml")); err != nil {
			return nil, fmt.Errorf("loader: dependency %q: %w", depName, err)
		}
		if err := loadTree(fs, tbl, set, depName, filepath.Join(depRoot, "src"), parseFile); err != nil {
			return nil, err
		}
	}

	return set, nil
}

// DependencySearchPath returns the root directory searched for dependency
// projects: ZZC_MODULE_PATH if set, else <exe-dir>/../modules.
func DependencySearchPath() string {
	if p := os.Getenv(ModulePathEnv); p != "" {
		return p
	}
	exe, err := os.Executable()
	if err != nil {
		return "modules"
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "modules"
	}
	return filepath.Join(filepath.Dir(exe), "..", "modules")
}

func loadTree(fs *source.FileSet, tbl *name.Table, set *Set, projectName, srcRoot string, parseFile func(*source.File) (*ast.Module, error)) error {
	return filepath.WalkDir(srcRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		switch filepath.Ext(path) {
		case sourceExt:
			fileID, err := fs.Load(path)
			if err != nil {
				return fmt.Errorf("loader: %w", err)
			}
			f := fs.Get(fileID)

			mod, err := parseFile(f)
			if err != nil {
				return fmt.Errorf("loader: parse %s: %w", path, err)
			}
			mod.Kind = ast.ModuleNative

			rel, err := filepath.Rel(srcRoot, path)
			if err != nil {
				return err
			}
			rel = strings.TrimSuffix(rel, sourceExt)
			segments := strings.Split(filepath.ToSlash(rel), "/")

			n := name.New(projectName)
			for _, seg := range segments {
				n.Push(seg)
			}
			mod.AbsName = n
			id := tbl.Intern(n)
			set.Modules[id] = mod

		case ".h", ".hpp":
			id := tbl.Intern(name.New(projectName, filepath.Base(path)))
			set.Modules[id] = &ast.Module{
				AbsName: name.New(projectName, filepath.Base(path)),
				Kind:    ast.ModuleForeign,
				Source:  path,
			}
		}
		return nil
	})
}
