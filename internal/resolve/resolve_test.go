package resolve

import (
	"testing"

	"zzc/internal/ast"
	"zzc/internal/diag"
	"zzc/internal/name"
)

func buildSet(t *testing.T) (*name.Table, map[name.ID]*ast.Module) {
	t.Helper()
	tbl := name.NewTable()
	modules := make(map[name.ID]*ast.Module)
	return tbl, modules
}

func addModule(tbl *name.Table, modules map[name.ID]*ast.Module, mod *ast.Module) name.ID {
	id := tbl.Intern(mod.AbsName)
	modules[id] = mod
	return id
}

// moduleA exports `ping`; moduleB imports it and calls it, matching S3.
func TestResolvePassResolvesCrossModuleImport(t *testing.T) {
	tbl, modules := buildSet(t)

	a := ast.NewModule(name.Parse("a"), "a.source")
	a.Locals = append(a.Locals, ast.Local{
		Name: "ping",
		Vis:  ast.VisExport,
		Def:  ast.Def{Kind: ast.DefFunction, Ret: &ast.AnonArg{Typed: ast.Typed{Prim: ast.PrimInt}}},
	})
	aID := addModule(tbl, modules, a)

	b := ast.NewModule(name.Parse("b"), "b.source")
	b.Imports = []ast.Import{{Target: name.Parse("a"), Local: []ast.LocalImport{{Name: "ping"}}}}
	callExpr := b.PushExpr(ast.Expr{Kind: ast.ExprCall, CallName: ast.Typed{TypeName: name.New("ping")}})
	b.Locals = append(b.Locals, ast.Local{
		Name: "run",
		Vis:  ast.VisExport,
		Def: ast.Def{
			Kind: ast.DefFunction,
			Ret:  &ast.AnonArg{Typed: ast.Typed{Prim: ast.PrimInt}},
			Body: []ast.StmtID{b.PushStmt(ast.Stmt{Kind: ast.StmtReturn, Expr: callExpr})},
		},
	})
	bID := addModule(tbl, modules, b)

	pending := map[name.ID]bool{aID: true, bID: true}
	r := New(true)
	bag := diag.NewBag(16)
	rep := diag.BagReporter{Bag: bag}

	for i := 0; i < 3 && len(pending) > 0; i++ {
		pending = r.Pass(tbl, modules, pending, rep)
	}

	if len(pending) != 0 {
		t.Fatalf("expected fixed point, still pending: %v (diagnostics: %+v)", pending, bag.Items())
	}
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}

	call := b.Expr(callExpr)
	if call.CallName.TypeName.String() != "a::ping" {
		t.Errorf("CallName.TypeName = %q, want a::ping", call.CallName.TypeName.String())
	}
	if alias, ok := b.Aliases["a::ping"]; !ok || alias != "ping" {
		t.Errorf("Aliases[a::ping] = %q, ok=%v, want ping", alias, ok)
	}
}

// moduleA defines an Object-visibility `secret`; moduleB imports it, matching S4.
func TestResolvePassReportsVisibilityViolation(t *testing.T) {
	tbl, modules := buildSet(t)

	a := ast.NewModule(name.Parse("a"), "a.source")
	a.Locals = append(a.Locals, ast.Local{
		Name: "secret",
		Vis:  ast.VisObject,
		Def:  ast.Def{Kind: ast.DefFunction, Ret: &ast.AnonArg{Typed: ast.Typed{Prim: ast.PrimInt}}},
	})
	aID := addModule(tbl, modules, a)

	b := ast.NewModule(name.Parse("b"), "b.source")
	b.Imports = []ast.Import{{Target: name.Parse("a"), Local: []ast.LocalImport{{Name: "secret"}}}}
	callExpr := b.PushExpr(ast.Expr{Kind: ast.ExprCall, CallName: ast.Typed{TypeName: name.New("secret")}})
	b.Locals = append(b.Locals, ast.Local{
		Name: "run",
		Vis:  ast.VisExport,
		Def: ast.Def{
			Kind: ast.DefFunction,
			Ret:  &ast.AnonArg{Typed: ast.Typed{Prim: ast.PrimInt}},
			Body: []ast.StmtID{b.PushStmt(ast.Stmt{Kind: ast.StmtReturn, Expr: callExpr})},
		},
	})
	bID := addModule(tbl, modules, b)

	pending := map[name.ID]bool{aID: true, bID: true}
	r := New(true)
	bag := diag.NewBag(16)
	rep := diag.BagReporter{Bag: bag}

	for i := 0; i < 3 && len(pending) > 0; i++ {
		pending = r.Pass(tbl, modules, pending, rep)
	}

	found := false
	for _, d := range bag.Items() {
		if d.Code == diag.CodeVisibilityViolation {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a VisibilityViolation diagnostic, got %+v", bag.Items())
	}
}

func TestResolvePassReportsAmbiguousImport(t *testing.T) {
	tbl, modules := buildSet(t)

	a := ast.NewModule(name.Parse("a"), "a.source")
	a.Locals = append(a.Locals, ast.Local{Name: "val", Vis: ast.VisExport, Def: ast.Def{Kind: ast.DefConst, Typed: ast.Typed{Prim: ast.PrimInt}}})
	aID := addModule(tbl, modules, a)

	c := ast.NewModule(name.Parse("c"), "c.source")
	c.Locals = append(c.Locals, ast.Local{Name: "val", Vis: ast.VisExport, Def: ast.Def{Kind: ast.DefConst, Typed: ast.Typed{Prim: ast.PrimInt}}})
	cID := addModule(tbl, modules, c)

	b := ast.NewModule(name.Parse("b"), "b.source")
	b.Imports = []ast.Import{
		{Target: name.Parse("a"), Local: []ast.LocalImport{{Name: "val"}}},
		{Target: name.Parse("c"), Local: []ast.LocalImport{{Name: "val"}}},
	}
	useExpr := b.PushExpr(ast.Expr{Kind: ast.ExprName, Typed: ast.Typed{TypeName: name.New("val")}})
	b.Locals = append(b.Locals, ast.Local{
		Name: "run",
		Vis:  ast.VisExport,
		Def: ast.Def{
			Kind: ast.DefFunction,
			Ret:  &ast.AnonArg{Typed: ast.Typed{Prim: ast.PrimInt}},
			Body: []ast.StmtID{b.PushStmt(ast.Stmt{Kind: ast.StmtReturn, Expr: useExpr})},
		},
	})
	bID := addModule(tbl, modules, b)

	pending := map[name.ID]bool{aID: true, bID: true, cID: true}
	r := New(true)
	bag := diag.NewBag(16)
	rep := diag.BagReporter{Bag: bag}

	for i := 0; i < 3 && len(pending) > 0; i++ {
		pending = r.Pass(tbl, modules, pending, rep)
	}

	found := false
	for _, d := range bag.Items() {
		if d.Code == diag.CodeAmbiguous {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an Ambiguous diagnostic, got %+v", bag.Items())
	}
}

func TestResolverDefersModuleWithMacroUntilAvailable(t *testing.T) {
	tbl, modules := buildSet(t)
	mod := ast.NewModule(name.Parse("m"), "m.source")
	mod.Locals = append(mod.Locals, ast.Local{Name: "gen", Def: ast.Def{Kind: ast.DefMacro}})
	id := addModule(tbl, modules, mod)

	r := New(false)
	bag := diag.NewBag(16)
	rep := diag.BagReporter{Bag: bag}
	pending := r.Pass(tbl, modules, map[name.ID]bool{id: true}, rep)
	if !pending[id] {
		t.Error("expected module with a macro local to stay pending when macros are unavailable")
	}

	r2 := New(true)
	pending = r2.Pass(tbl, modules, map[name.ID]bool{id: true}, rep)
	if pending[id] {
		t.Error("expected module to resolve once macros are available")
	}
}
