// Package resolve implements the Resolver (`abs` in the original): it
// rewrites every Typed name inside a module's AST into absolute form,
// records a deterministic per-module alias table, and validates storage
// and visibility rules.
package resolve

import (
	"fmt"

	"zzc/internal/ast"
	"zzc/internal/diag"
	"zzc/internal/name"
)

// Resolver holds the one piece of cross-pass state: whether macro-provided
// symbols have been produced yet. While MacrosAvailable is false, a module
// that declares a macro is deferred whole. The driver constructs its
// Resolver after its macro pass and sets the flag whenever any native
// module declares a macro.
type Resolver struct {
	MacrosAvailable bool
}

// New creates a Resolver.
func New(macrosAvailable bool) *Resolver {
	return &Resolver{MacrosAvailable: macrosAvailable}
}

// Pass runs one Resolver pass over every module named in pending, returning
// the subset that remains unresolved. Pure over its pending argument: a
// fresh map is returned rather than mutating the one passed in, so the
// driver can run this to a fixed point without in-place worker mutation
// (applied redesign, see DESIGN.md). Module values themselves are mutated
// (alias table, rewritten Typed.TypeName fields) — safe because the driver
// calls Pass single-threaded between phases.
func (r *Resolver) Pass(tbl *name.Table, modules map[name.ID]*ast.Module, pending map[name.ID]bool, rep diag.Reporter) map[name.ID]bool {
	stillPending := make(map[name.ID]bool, len(pending))
	for id := range pending {
		mod := modules[id]
		if mod == nil || mod.Kind == ast.ModuleForeign {
			continue
		}
		if !r.resolveModule(tbl, modules, pending, mod, rep) {
			stillPending[id] = true
		}
	}
	return stillPending
}

// importScope is the per-module view of (2) in the absolutization search
// order: what a bare identifier's first segment resolves to via `import`.
type importScope struct {
	moduleAlias map[string]name.Name // alias/last-segment -> imported module's Name
	localSymbol map[string]name.Name // local-import name -> its absolute Name
	ambiguous   map[string]bool      // local-import name bound by >1 conflicting import
}

func buildImportScope(mod *ast.Module) importScope {
	scope := importScope{
		moduleAlias: make(map[string]name.Name),
		localSymbol: make(map[string]name.Name),
		ambiguous:   make(map[string]bool),
	}
	for _, imp := range mod.Imports {
		key := imp.Alias
		if key == "" {
			segs := imp.Target.Segments()
			if len(segs) > 0 {
				key = segs[len(segs)-1]
			}
		}
		if key != "" {
			scope.moduleAlias[key] = imp.Target
		}
		for _, li := range imp.Local {
			bound := li.Alias
			if bound == "" {
				bound = li.Name
			}
			target := imp.Target.Join(li.Name)
			if existing, ok := scope.localSymbol[bound]; ok && !existing.Equal(target) {
				scope.ambiguous[bound] = true
				continue
			}
			scope.localSymbol[bound] = target
		}
	}
	return scope
}

// moduleCtx carries everything resolveTyped/resolveExpr/resolveStmt need for
// one module's pass.
type moduleCtx struct {
	r            *Resolver
	tbl          *name.Table
	modules      map[name.ID]*ast.Module
	pendingBefore map[name.ID]bool
	mod          *ast.Module
	scope        importScope
	ownNames     map[string]bool
	referenced   map[string]name.Name
	rep          diag.Reporter
	ok           bool
}

func (r *Resolver) resolveModule(tbl *name.Table, modules map[name.ID]*ast.Module, pendingBefore map[name.ID]bool, mod *ast.Module, rep diag.Reporter) bool {
	own := make(map[string]bool, len(mod.Locals))
	hasMacro := false
	for _, l := range mod.Locals {
		own[l.Name] = true
		if l.Def.Kind == ast.DefMacro {
			hasMacro = true
		}
	}
	if hasMacro && !r.MacrosAvailable {
		// Defer the whole module until the macro stage has produced its
		// output: MacrosAvailable gates resolution of macro-provided names,
		// and deferring at module granularity rather than per-symbol keeps
		// this pass from needing to know in advance which names a macro
		// will eventually supply.
		return false
	}

	ctx := &moduleCtx{
		r:             r,
		tbl:           tbl,
		modules:       modules,
		pendingBefore: pendingBefore,
		mod:           mod,
		scope:         buildImportScope(mod),
		ownNames:      own,
		referenced:    make(map[string]name.Name),
		rep:           rep,
		ok:            true,
	}

	for i := range mod.Locals {
		ctx.resolveLocal(&mod.Locals[i])
	}

	if !ctx.ok {
		return false
	}
	mod.Aliases = assignAliases(ctx.referenced)
	return true
}

func (c *moduleCtx) resolveLocal(l *ast.Local) {
	switch l.Def.Kind {
	case ast.DefStatic, ast.DefConst:
		c.resolveTyped(&l.Def.Typed, nil)
		if l.Def.Expr.IsValid() {
			c.resolveExpr(l.Def.Expr, nil)
		}

	case ast.DefFunction, ast.DefClosure:
		locals := make(map[string]bool)
		if l.Def.Ret != nil {
			c.resolveTyped(&l.Def.Ret.Typed, locals)
		}
		for i := range l.Def.Args {
			a := &l.Def.Args[i]
			c.resolveTyped(&a.Typed, locals)
			locals[a.Name] = true
		}
		c.collectVarNames(l.Def.Body, locals)
		for _, sid := range l.Def.Body {
			c.resolveStmt(sid, locals)
		}

	case ast.DefStruct:
		for i := range l.Def.Fields {
			f := &l.Def.Fields[i]
			c.resolveTyped(&f.Typed, nil)
			if f.Array.IsValid() {
				c.resolveExpr(f.Array, nil)
			}
		}

	case ast.DefEnum:
		// Variants carry only a label and an optional literal discriminant;
		// nothing here references a Name.

	case ast.DefMacro:
		locals := make(map[string]bool, len(l.Def.MacroArgs))
		for _, a := range l.Def.MacroArgs {
			locals[a] = true
		}
		c.collectVarNames(l.Def.MacroBody, locals)
		for _, sid := range l.Def.MacroBody {
			c.resolveStmt(sid, locals)
		}
	}

	c.checkStorage(l)
}

// collectVarNames pre-scans a statement list for StmtVar declarations so a
// variable may be referenced before its declaration is walked, matching how
// a single flat function scope works in the local-scope lookup tier.
func (c *moduleCtx) collectVarNames(body []ast.StmtID, locals map[string]bool) {
	for _, sid := range body {
		s := c.mod.Stmt(sid)
		if s == nil {
			continue
		}
		if s.Kind == ast.StmtVar {
			locals[s.VarName] = true
		}
	}
}

func (c *moduleCtx) checkStorage(l *ast.Local) {
	if l.Def.Kind == ast.DefStatic {
		return
	}
	if l.Def.Storage != ast.StorageStatic {
		c.rep.Report(diag.Diagnostic{
			Severity: diag.SevError,
			Code:     diag.CodeIllegalStorage,
			Message:  fmt.Sprintf("illegal storage classifier on non-static local %q", l.Name),
			Primary:  l.Loc.Span,
		})
		c.ok = false
	}
}

// ownerOf returns the Name of the module that would own symbol n, i.e. n
// with its last (symbol) segment removed.
func ownerOf(n name.Name) name.Name {
	owner := n.Clone()
	owner.Pop()
	return owner
}

func findLocal(mod *ast.Module, symbol string) *ast.Local {
	for i := range mod.Locals {
		if mod.Locals[i].Name == symbol {
			return &mod.Locals[i]
		}
	}
	return nil
}

// resolveTyped absolutizes a single Typed reference in place, following the
// four-tier search order: local scope, then module scope, then import
// aliases, then builtins/primitives.
func (c *moduleCtx) resolveTyped(t *ast.Typed, locals map[string]bool) {
	if t.Prim != ast.PrimNone {
		return
	}
	segs := t.TypeName.Segments()
	if len(segs) == 0 || t.TypeName.IsAbsolute() {
		return
	}
	first := segs[0]

	// (1) local scope.
	if len(segs) == 1 && locals != nil && locals[first] {
		return
	}

	// (4) builtin/primitive table, for bare single-segment names.
	if len(segs) == 1 {
		if prim, ok := lookupBuiltin(first); ok {
			t.Prim = prim
			t.TypeName = name.Name{}
			return
		}
	}

	// (3) this module's own locals.
	if c.ownNames[first] {
		abs := c.mod.AbsName.Join(segs...)
		t.TypeName = abs
		c.referenced[abs.String()] = abs
		return
	}

	// (2) imports.
	if len(segs) == 1 {
		if c.scope.ambiguous[first] {
			c.rep.Report(diag.Diagnostic{
				Severity: diag.SevError,
				Code:     diag.CodeAmbiguous,
				Message:  fmt.Sprintf("%q is imported from more than one module", first),
				Primary:  t.Loc.Span,
			})
			c.ok = false
			return
		}
		if target, ok := c.scope.localSymbol[first]; ok {
			c.resolveImported(target, t)
			return
		}
	}
	if moduleTarget, ok := c.scope.moduleAlias[first]; ok {
		c.resolveImported(moduleTarget.Join(segs[1:]...), t)
		return
	}

	c.rep.Report(diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.CodeUnknownSymbol,
		Message:  fmt.Sprintf("unknown symbol %q", t.TypeName.String()),
		Primary:  t.Loc.Span,
	})
	c.ok = false
}

// resolveImported finishes resolving a reference already known to target an
// external module, checking the owning module's resolution state and the
// symbol's visibility before accepting it.
func (c *moduleCtx) resolveImported(target name.Name, t *ast.Typed) {
	owner := ownerOf(target)
	ownerID := c.tbl.Intern(owner)
	ownerMod, exists := c.modules[ownerID]
	if !exists {
		c.rep.Report(diag.Diagnostic{
			Severity: diag.SevError,
			Code:     diag.CodeUnknownSymbol,
			Message:  fmt.Sprintf("no module %q provides %q", owner.HumanName(), target.HumanName()),
			Primary:  t.Loc.Span,
		})
		c.ok = false
		return
	}
	if c.pendingBefore[ownerID] {
		// Provider not yet resolved: defer without reporting an error. The
		// module stays pending and the driver reruns this pass.
		c.ok = false
		return
	}
	if ownerMod.Kind == ast.ModuleForeign {
		t.TypeName = target
		c.referenced[target.String()] = target
		return
	}

	segs := target.Segments()
	symbol := segs[len(segs)-1]
	local := findLocal(ownerMod, symbol)
	if local == nil {
		c.rep.Report(diag.Diagnostic{
			Severity: diag.SevError,
			Code:     diag.CodeUnknownSymbol,
			Message:  fmt.Sprintf("%q has no member %q", owner.HumanName(), symbol),
			Primary:  t.Loc.Span,
		})
		c.ok = false
		return
	}
	if local.Vis == ast.VisObject {
		c.rep.Report(diag.Diagnostic{
			Severity: diag.SevError,
			Code:     diag.CodeVisibilityViolation,
			Message:  fmt.Sprintf("%q is object-visibility, not importable from %s", target.HumanName(), c.mod.AbsName.HumanName()),
			Primary:  t.Loc.Span,
		})
		c.ok = false
		return
	}

	t.TypeName = target
	c.referenced[target.String()] = target
}

func (c *moduleCtx) resolveExpr(id ast.ExprID, locals map[string]bool) {
	e := c.mod.Expr(id)
	if e == nil {
		return
	}
	switch e.Kind {
	case ast.ExprName:
		c.resolveTyped(&e.Typed, locals)

	case ast.ExprMemberAccess:
		c.resolveExpr(e.Lhs, locals)

	case ast.ExprArrayAccess:
		c.resolveExpr(e.Lhs, locals)
		c.resolveExpr(e.RhsExpr, locals)

	case ast.ExprLiteral:
		c.annotateNumeric(e)

	case ast.ExprCall:
		c.resolveTyped(&e.CallName, locals)
		for _, arg := range e.Args {
			c.resolveExpr(arg, locals)
		}

	case ast.ExprInfix:
		// Lhs is reused from the MemberAccess slot to carry the leftmost
		// operand; InfixRhs chains the remaining (op, operand) pairs.
		c.resolveExpr(e.Lhs, locals)
		for _, term := range e.InfixRhs {
			c.resolveExpr(term.Rhs, locals)
		}

	case ast.ExprCast:
		c.resolveTyped(&e.CastInto, locals)
		c.resolveExpr(e.CastExpr, locals)

	case ast.ExprUnaryPre, ast.ExprUnaryPost:
		c.resolveExpr(e.Inner, locals)
		if e.Kind == ast.ExprUnaryPre && e.Op == "-" {
			c.negateIfNumeric(e.Inner)
		}

	case ast.ExprStructInit:
		c.resolveTyped(&e.StructType, locals)
		for _, f := range e.InitFields {
			c.resolveExpr(f.Expr, locals)
		}

	case ast.ExprArrayInit:
		for _, f := range e.ArrayFields {
			c.resolveExpr(f, locals)
		}
	}
}

// annotateNumeric assigns the default sign annotation for an untyped
// numeric literal, tagging it ILiteral/ULiteral for later inference.
// Defaults to unsigned; a wrapping unary minus flips it via
// negateIfNumeric.
func (c *moduleCtx) annotateNumeric(e *ast.Expr) {
	if e.LitKind == ast.LitNumeric {
		e.LitKind = ast.LitNumericU
	}
}

func (c *moduleCtx) negateIfNumeric(id ast.ExprID) {
	e := c.mod.Expr(id)
	if e != nil && e.Kind == ast.ExprLiteral && e.LitKind == ast.LitNumericU {
		e.LitKind = ast.LitNumericI
	}
}

func (c *moduleCtx) resolveStmt(id ast.StmtID, locals map[string]bool) {
	s := c.mod.Stmt(id)
	if s == nil {
		return
	}
	switch s.Kind {
	case ast.StmtMark:
		if s.MarkLhs.IsValid() {
			c.resolveExpr(s.MarkLhs, locals)
		}

	case ast.StmtAssign:
		c.resolveExpr(s.AssignLhs, locals)
		c.resolveExpr(s.AssignRhs, locals)

	case ast.StmtExpr:
		if s.Expr.IsValid() {
			c.resolveExpr(s.Expr, locals)
		}

	case ast.StmtReturn:
		if s.Expr.IsValid() {
			c.resolveExpr(s.Expr, locals)
		}

	case ast.StmtVar:
		c.resolveTyped(&s.VarTyped, locals)
		if s.VarArray.IsValid() {
			c.resolveExpr(s.VarArray, locals)
		}
		if s.VarAssign.IsValid() {
			c.resolveExpr(s.VarAssign, locals)
		}
		locals[s.VarName] = true

	case ast.StmtFor:
		c.resolveStmtList(s.ForInit.Stmts, locals)
		c.resolveStmtList(s.ForCond.Stmts, locals)
		c.resolveStmtList(s.ForBody.Stmts, locals)
		c.resolveStmtList(s.ForPost.Stmts, locals)

	case ast.StmtCond:
		if s.CondExpr.IsValid() {
			c.resolveExpr(s.CondExpr, locals)
		}
		c.resolveStmtList(s.CondBody.Stmts, locals)

	case ast.StmtBlock:
		c.resolveStmtList(s.Nested.Stmts, locals)
	}
}

func (c *moduleCtx) resolveStmtList(ids []ast.StmtID, locals map[string]bool) {
	for _, id := range ids {
		c.resolveStmt(id, locals)
	}
}
