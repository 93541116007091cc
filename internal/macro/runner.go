package macro

import (
	"fmt"

	"zzc/internal/ast"
)

// Runner builds and executes one macro, producing the expression that
// replaces its call site. This repository does not execute user code, so
// a Runner only ever interprets one restricted shape: a macro body that
// is exactly `return <StructInit>;`. Anything else is an error — the
// pipeline's control flow around "build and run a macro" stays real
// without this repository shipping a second interpreter.
type Runner interface {
	Run(macro *ast.Local, macroModule *ast.Module, call *ast.Expr, callModule *ast.Module) (ast.Expr, error)
}

// LiteralRunner is the one Runner implementation this repository ships.
type LiteralRunner struct{}

// Run implements Runner.
func (LiteralRunner) Run(macro *ast.Local, macroModule *ast.Module, call *ast.Expr, callModule *ast.Module) (ast.Expr, error) {
	if macro.Def.Kind != ast.DefMacro {
		return ast.Expr{}, fmt.Errorf("macro: %q is not a macro definition", macro.Name)
	}
	if len(macro.Def.MacroBody) != 1 {
		return ast.Expr{}, fmt.Errorf("macro: %q: unsupported body shape (want exactly `return <StructInit>;`)", macro.Name)
	}

	stmt := macroModule.Stmt(macro.Def.MacroBody[0])
	if stmt == nil || stmt.Kind != ast.StmtReturn || !stmt.Expr.IsValid() {
		return ast.Expr{}, fmt.Errorf("macro: %q: body must be a single `return <StructInit>;` statement", macro.Name)
	}

	retExpr := macroModule.Expr(stmt.Expr)
	if retExpr == nil || retExpr.Kind != ast.ExprStructInit {
		return ast.Expr{}, fmt.Errorf("macro: %q: only a literal struct-literal return is supported", macro.Name)
	}

	subst := argSubstitution(macro.Def.MacroArgs, call)
	return cloneExprValue(macroModule, callModule, stmt.Expr, subst), nil
}

// argSubstitution pairs each of the macro's declared parameter names with
// the ExprID the call site passed for it, positionally. A call with fewer
// arguments than the macro declares leaves the trailing parameters
// unsubstituted; any ExprName in the body that doesn't match a parameter
// name is left untouched, so the mapping only ever narrows what a clone
// copies through unchanged.
func argSubstitution(params []string, call *ast.Expr) map[string]ast.ExprID {
	if len(params) == 0 || call == nil {
		return nil
	}
	subst := make(map[string]ast.ExprID, len(params))
	for i, name := range params {
		if i >= len(call.Args) {
			break
		}
		subst[name] = call.Args[i]
	}
	return subst
}

// cloneExprValue deep-copies the expression tree rooted at id from src's
// arena into dst's, returning the cloned root value (its children are
// already pushed into dst). The macro's module and the call site's module
// are different Modules with independent arenas, so an ExprID from one is
// meaningless in the other — every reachable sub-expression must be
// re-allocated in the destination arena. subst maps a macro parameter name
// to the call argument's ExprID (already resident in dst); any ExprName
// whose TypeName matches a key is replaced by that argument instead of
// being copied as a bare name reference.
func cloneExprValue(src, dst *ast.Module, id ast.ExprID, subst map[string]ast.ExprID) ast.Expr {
	e := *src.Expr(id)

	if e.Kind == ast.ExprName && subst != nil {
		if argID, ok := subst[e.Typed.TypeName.String()]; ok {
			return *dst.Expr(argID)
		}
	}

	switch e.Kind {
	case ast.ExprMemberAccess:
		e.Lhs = pushClone(src, dst, e.Lhs, subst)

	case ast.ExprArrayAccess:
		e.Lhs = pushClone(src, dst, e.Lhs, subst)
		e.RhsExpr = pushClone(src, dst, e.RhsExpr, subst)

	case ast.ExprCall:
		args := make([]ast.ExprID, len(e.Args))
		for i, a := range e.Args {
			args[i] = pushClone(src, dst, a, subst)
		}
		e.Args = args

	case ast.ExprInfix:
		e.Lhs = pushClone(src, dst, e.Lhs, subst)
		terms := make([]ast.InfixTerm, len(e.InfixRhs))
		for i, term := range e.InfixRhs {
			terms[i] = ast.InfixTerm{Op: term.Op, Loc: term.Loc, Rhs: pushClone(src, dst, term.Rhs, subst)}
		}
		e.InfixRhs = terms

	case ast.ExprCast:
		e.CastExpr = pushClone(src, dst, e.CastExpr, subst)

	case ast.ExprUnaryPre, ast.ExprUnaryPost:
		e.Inner = pushClone(src, dst, e.Inner, subst)

	case ast.ExprStructInit:
		fields := make([]ast.StructInitField, len(e.InitFields))
		for i, f := range e.InitFields {
			fields[i] = ast.StructInitField{Name: f.Name, Expr: pushClone(src, dst, f.Expr, subst)}
		}
		e.InitFields = fields

	case ast.ExprArrayInit:
		fields := make([]ast.ExprID, len(e.ArrayFields))
		for i, f := range e.ArrayFields {
			fields[i] = pushClone(src, dst, f, subst)
		}
		e.ArrayFields = fields
	}

	return e
}

func pushClone(src, dst *ast.Module, id ast.ExprID, subst map[string]ast.ExprID) ast.ExprID {
	if !id.IsValid() {
		return ast.NoExprID
	}
	return dst.PushExpr(cloneExprValue(src, dst, id, subst))
}
