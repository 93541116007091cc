package ast

import "zzc/internal/name"

// ModuleKind distinguishes a parsed ZZ module from a plain C header
// referenced via an extern block: a foreign module is a plain C header
// tracked by path, referenced without further processing.
type ModuleKind uint8

const (
	ModuleNative ModuleKind = iota
	ModuleForeign
)

// Import is a single `import` declaration.
type Import struct {
	Target  name.Name
	Alias   string // "" unless the import renamed its target
	Local   []LocalImport
	Vis     Visibility
	Loc     Location
}

// LocalImport names one symbol pulled out of an imported module, optionally
// under a local alias.
type LocalImport struct {
	Name  string
	Alias string // "" unless aliased
}

// Include is a raw `#include`-style directive surviving into the C
// backend verbatim.
type Include struct {
	Expr string
	Loc  Location
	FQN  name.Name
}

// Module is one compilation unit: either a parsed ZZ source file (Native)
// or a tracked C header (Foreign). Exprs/Stmts are the per-module arenas
// that ExprID and StmtID fields index into.
type Module struct {
	AbsName name.Name
	Kind    ModuleKind
	Source  string // path to the source file on disk
	Locals  []Local
	Imports []Import
	Include []Include

	// TransitiveSources is the set of C/C++ source files this module's
	// `#include`s pull in, tracked for the Driver's free-standing source
	// collection.
	TransitiveSources []string

	// Aliases maps each used external absolute Name to a single local
	// identifier; populated by the Resolver. Alias choice is
	// deterministic.
	Aliases map[string]string

	Exprs *Arena[Expr]
	Stmts *Arena[Stmt]
}

// NewModule creates an empty Native Module named n, sourced from path.
func NewModule(n name.Name, path string) *Module {
	return &Module{
		AbsName: n,
		Kind:    ModuleNative,
		Source:  path,
		Aliases: make(map[string]string),
		Exprs:   NewArena[Expr](64),
		Stmts:   NewArena[Stmt](64),
	}
}

// PushExpr allocates e in the module's expression arena and returns its ID.
func (m *Module) PushExpr(e Expr) ExprID {
	return ExprID(m.Exprs.Allocate(e))
}

// Expr returns the expression for id.
func (m *Module) Expr(id ExprID) *Expr {
	return m.Exprs.Get(uint32(id))
}

// PushStmt allocates s in the module's statement arena and returns its ID.
func (m *Module) PushStmt(s Stmt) StmtID {
	return StmtID(m.Stmts.Allocate(s))
}

// Stmt returns the statement for id.
func (m *Module) Stmt(id StmtID) *Stmt {
	return m.Stmts.Get(uint32(id))
}
