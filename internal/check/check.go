// Package check implements the Symbolic Checker: a fixed battery of
// predicates run over a flattened module, producing (ok, complete) without
// a general type system (spec's Open Question on the checker's exact
// semantics is resolved by enumerating only the predicates the golden
// scenarios actually exercise).
package check

import (
	"fmt"

	"zzc/internal/ast"
	"zzc/internal/diag"
	"zzc/internal/flatten"
	"zzc/internal/name"
)

// Result is the checker's verdict for one flattened module.
type Result struct {
	OK bool
	// Complete is true iff no local in the flattened module is marked
	// Incomplete; a single Incomplete FlatLocal makes it false.
	Complete bool
}

// Execute runs every predicate over flat, reporting violations to rep.
// modules/tbl give access to the original per-module arenas a FlatLocal's
// Body/Fields index into — Flatten copies Local values but not the arenas
// they were allocated from.
func Execute(tbl *name.Table, modules map[name.ID]*ast.Module, flat *flatten.FlatModule, rep diag.Reporter) Result {
	index := newLocalIndex(flat)

	res := Result{OK: true, Complete: true}
	for _, fl := range flat.Locals {
		if fl.Completeness == flatten.Incomplete {
			res.Complete = false
			break
		}
	}

	if !checkCallTargets(tbl, modules, flat, index, rep) {
		res.OK = false
	}
	if !checkFieldCompleteness(flat, index, rep) {
		res.OK = false
	}
	if !checkTailPlacement(flat, rep) {
		res.OK = false
	}
	if !checkVisibilityMonotonicity(flat, index, rep) {
		res.OK = false
	}
	return res
}

// localIndex maps a local's fully-qualified name to where it landed in the
// flattened output.
type localIndex struct {
	byQualified map[string]*flatten.FlatLocal
}

func newLocalIndex(flat *flatten.FlatModule) *localIndex {
	idx := &localIndex{byQualified: make(map[string]*flatten.FlatLocal, len(flat.Locals))}
	for i := range flat.Locals {
		fl := &flat.Locals[i]
		idx.byQualified[fl.Module.Join(fl.Local.Name).String()] = fl
	}
	return idx
}

func (idx *localIndex) lookup(ref name.Name) (*flatten.FlatLocal, bool) {
	fl, ok := idx.byQualified[ref.String()]
	return fl, ok
}

func violation(rep diag.Reporter, loc ast.Location, format string, args ...any) {
	rep.Report(diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.CodeCheckError,
		Message:  fmt.Sprintf(format, args...),
		Primary:  loc.Span,
	})
}

// checkCallTargets implements predicate 1: every Call target has a
// reachable body, or its owner was never resolved past a forward
// declaration (a Foreign/extern module, always Incomplete in our model).
func checkCallTargets(tbl *name.Table, modules map[name.ID]*ast.Module, flat *flatten.FlatModule, idx *localIndex, rep diag.Reporter) bool {
	ok := true
	for _, fl := range flat.Locals {
		if fl.Completeness != flatten.Complete {
			continue
		}
		mod := modules[tbl.Intern(fl.Module)]
		if mod == nil || mod.Kind == ast.ModuleForeign {
			continue
		}
		walkCalls(mod, fl.Local, func(target name.Name, loc ast.Location) {
			callee, found := idx.lookup(target)
			if !found {
				// Resolved by an earlier phase to an external symbol this
				// artifact never pulled into its closure (e.g. an extern
				// declared directly in a Foreign header) — not this
				// checker's concern.
				return
			}
			if callee.Completeness == flatten.Incomplete {
				return
			}
			if callee.Local.Def.Kind != ast.DefFunction && callee.Local.Def.Kind != ast.DefClosure {
				return
			}
			if len(callee.Local.Def.Body) == 0 {
				ok = false
				violation(rep, loc, "call target %q has no reachable body", target.HumanName())
			}
		})
	}
	return ok
}

func walkCalls(mod *ast.Module, local ast.Local, visit func(target name.Name, loc ast.Location)) {
	for _, id := range local.Def.Body {
		walkStmtCalls(mod, id, visit)
	}
}

func walkStmtCalls(mod *ast.Module, id ast.StmtID, visit func(name.Name, ast.Location)) {
	s := mod.Stmt(id)
	if s == nil {
		return
	}
	switch s.Kind {
	case ast.StmtExpr:
		walkExprCalls(mod, s.Expr, visit)
	case ast.StmtAssign:
		walkExprCalls(mod, s.AssignLhs, visit)
		walkExprCalls(mod, s.AssignRhs, visit)
	case ast.StmtReturn:
		walkExprCalls(mod, s.Expr, visit)
	case ast.StmtVar:
		walkExprCalls(mod, s.VarArray, visit)
		walkExprCalls(mod, s.VarAssign, visit)
	case ast.StmtFor:
		walkBlockCalls(mod, s.ForInit, visit)
		walkBlockCalls(mod, s.ForCond, visit)
		walkBlockCalls(mod, s.ForPost, visit)
		walkBlockCalls(mod, s.ForBody, visit)
	case ast.StmtCond:
		walkExprCalls(mod, s.CondExpr, visit)
		walkBlockCalls(mod, s.CondBody, visit)
	case ast.StmtBlock:
		walkBlockCalls(mod, s.Nested, visit)
	}
}

func walkBlockCalls(mod *ast.Module, b ast.Block, visit func(name.Name, ast.Location)) {
	for _, id := range b.Stmts {
		walkStmtCalls(mod, id, visit)
	}
}

func walkExprCalls(mod *ast.Module, id ast.ExprID, visit func(name.Name, ast.Location)) {
	if !id.IsValid() {
		return
	}
	e := mod.Expr(id)
	if e == nil {
		return
	}
	switch e.Kind {
	case ast.ExprCall:
		visit(e.CallName.TypeName, e.Loc)
		for _, a := range e.Args {
			walkExprCalls(mod, a, visit)
		}
	case ast.ExprMemberAccess:
		walkExprCalls(mod, e.Lhs, visit)
	case ast.ExprArrayAccess:
		walkExprCalls(mod, e.Lhs, visit)
		walkExprCalls(mod, e.RhsExpr, visit)
	case ast.ExprInfix:
		walkExprCalls(mod, e.Lhs, visit)
		for _, t := range e.InfixRhs {
			walkExprCalls(mod, t.Rhs, visit)
		}
	case ast.ExprCast:
		walkExprCalls(mod, e.CastExpr, visit)
	case ast.ExprUnaryPre, ast.ExprUnaryPost:
		walkExprCalls(mod, e.Inner, visit)
	case ast.ExprStructInit:
		for _, f := range e.InitFields {
			walkExprCalls(mod, f.Expr, visit)
		}
	case ast.ExprArrayInit:
		for _, f := range e.ArrayFields {
			walkExprCalls(mod, f, visit)
		}
	}
}

// checkFieldCompleteness implements predicate 2: every by-value struct
// field's type must be Complete in the flattened output (an Incomplete
// by-value field has no known size, so the struct can't itself be sized).
func checkFieldCompleteness(flat *flatten.FlatModule, idx *localIndex, rep diag.Reporter) bool {
	ok := true
	for _, fl := range flat.Locals {
		if fl.Completeness != flatten.Complete || fl.Local.Def.Kind != ast.DefStruct {
			continue
		}
		for _, field := range fl.Local.Def.Fields {
			if field.Typed.IsPrimitive() || field.Typed.Depth() != 0 {
				continue
			}
			dep, found := idx.lookup(field.Typed.TypeName)
			if !found {
				continue
			}
			if dep.Completeness != flatten.Complete {
				ok = false
				violation(rep, field.Loc, "field %q.%s has Incomplete by-value type %q", fl.Local.Name, field.Name, field.Typed.TypeName.HumanName())
			}
		}
	}
	return ok
}

// checkTailPlacement implements predicate 3: a struct carrying a static
// trailing array must declare a positive length — the array is always
// appended after every declared Field in this AST, so placement itself is
// structural; what is left to check is the length's validity, and that a
// dynamic tail is never combined with a union layout.
func checkTailPlacement(flat *flatten.FlatModule, rep diag.Reporter) bool {
	ok := true
	for _, fl := range flat.Locals {
		if fl.Local.Def.Kind != ast.DefStruct {
			continue
		}
		switch fl.Local.Def.Tail {
		case ast.TailStatic:
			if fl.Local.Def.TailN == 0 {
				ok = false
				violation(rep, fl.Local.Loc, "struct %q has a static tail with zero length", fl.Local.Name)
			}
		case ast.TailDynamic:
			if fl.Local.Def.Union {
				ok = false
				violation(rep, fl.Local.Loc, "struct %q cannot combine a dynamic tail with a union layout", fl.Local.Name)
			}
		}
	}
	return ok
}

// checkVisibilityMonotonicity implements predicate 4. The Resolver already
// enforces this once; the checker re-verifies every reference in the
// flattened module rather than trusting the earlier pass blindly.
func checkVisibilityMonotonicity(flat *flatten.FlatModule, idx *localIndex, rep diag.Reporter) bool {
	ok := true
	for _, fl := range flat.Locals {
		if fl.Completeness != flatten.Complete {
			continue
		}
		for _, ref := range typeRefs(fl.Local) {
			dep, found := idx.lookup(ref)
			if !found {
				continue
			}
			depOwner := ownerSegments(ref)
			if depOwner == fl.Module.String() {
				continue
			}
			if dep.Local.Vis == ast.VisObject {
				ok = false
				violation(rep, fl.Local.Loc, "%q references %q across modules but %q is object-visibility only", fl.Local.Name, ref.HumanName(), ref.HumanName())
			}
		}
	}
	return ok
}

func ownerSegments(n name.Name) string {
	owner := n.Clone()
	owner.Pop()
	return owner.String()
}

func typeRefs(l ast.Local) []name.Name {
	var refs []name.Name
	add := func(t ast.Typed) {
		if !t.IsPrimitive() && t.TypeName.Len() > 0 {
			refs = append(refs, t.TypeName)
		}
	}
	switch l.Def.Kind {
	case ast.DefStatic, ast.DefConst:
		add(l.Def.Typed)
	case ast.DefFunction, ast.DefClosure:
		if l.Def.Ret != nil {
			add(l.Def.Ret.Typed)
		}
		for _, a := range l.Def.Args {
			add(a.Typed)
		}
	case ast.DefStruct:
		for _, f := range l.Def.Fields {
			add(f.Typed)
		}
	}
	return refs
}
