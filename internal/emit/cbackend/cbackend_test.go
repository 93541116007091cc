package cbackend

import (
	"strings"
	"testing"

	"zzc/internal/ast"
	"zzc/internal/flatten"
	"zzc/internal/name"
)

func newTbl(mods ...*ast.Module) (*name.Table, map[name.ID]*ast.Module) {
	tbl := name.NewTable()
	byID := make(map[name.ID]*ast.Module)
	for _, m := range mods {
		byID[tbl.Intern(m.AbsName)] = m
	}
	return tbl, byID
}

func flattenOne(t *testing.T, tbl *name.Table, modules map[name.ID]*ast.Module, root string) *flatten.FlatModule {
	t.Helper()
	id := tbl.Intern(name.Parse(root))
	flat, err := flatten.Flatten(tbl, modules, id)
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}
	return flat
}

func TestEmitStructFixedSize(t *testing.T) {
	mod := ast.NewModule(name.Parse("m"), "m.source")
	mod.Locals = []ast.Local{
		{
			Name: "point",
			Vis:  ast.VisExport,
			Def: ast.Def{
				Kind: ast.DefStruct,
				Fields: []ast.Field{
					{Name: "x", Typed: ast.Typed{Prim: ast.PrimI32}},
					{Name: "y", Typed: ast.Typed{Prim: ast.PrimI32}},
				},
			},
		},
	}
	tbl, modules := newTbl(mod)
	flat := flattenOne(t, tbl, modules, "m")

	f, err := Emit(tbl, modules, flat)
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if !strings.Contains(f.Header, "typedef struct m_point {") {
		t.Errorf("header missing struct typedef:\n%s", f.Header)
	}
	if !strings.Contains(f.Header, "int32_t x;") || !strings.Contains(f.Header, "int32_t y;") {
		t.Errorf("header missing fields:\n%s", f.Header)
	}
	if !strings.Contains(f.Header, "size_t sizeof_m_point(void);") {
		t.Errorf("header missing sizeof_ declaration:\n%s", f.Header)
	}
	if !strings.Contains(f.Impl, "size_t sizeof_m_point(void) { return sizeof(m_point); }") {
		t.Errorf("impl missing sizeof_ definition:\n%s", f.Impl)
	}
}

func TestEmitStructDynamicTail(t *testing.T) {
	mod := ast.NewModule(name.Parse("m"), "m.source")
	mod.Locals = []ast.Local{
		{
			Name: "buf",
			Vis:  ast.VisExport,
			Def: ast.Def{
				Kind: ast.DefStruct,
				Fields: []ast.Field{
					{Name: "len", Typed: ast.Typed{Prim: ast.PrimUSize}},
					{Name: "data", Typed: ast.Typed{Prim: ast.PrimByte}},
				},
				Tail: ast.TailDynamic,
			},
		},
	}
	tbl, modules := newTbl(mod)
	flat := flattenOne(t, tbl, modules, "m")

	f, err := Emit(tbl, modules, flat)
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if !strings.Contains(f.Header, "uint8_t data[];") {
		t.Errorf("expected flexible array member for dynamic tail:\n%s", f.Header)
	}
	if !strings.Contains(f.Header, "size_t sizeof_m_buf(size_t tail);") {
		t.Errorf("expected tail-aware sizeof_ declaration:\n%s", f.Header)
	}
	if !strings.Contains(f.Impl, "offsetof(m_buf, data) + tail") {
		t.Errorf("expected offsetof-based sizeof_ body:\n%s", f.Impl)
	}
}

func TestEmitStructStaticTailUsesVariantName(t *testing.T) {
	mod := ast.NewModule(name.Parse("m"), "m.source")
	mod.Locals = []ast.Local{
		{
			Name: "vec",
			Vis:  ast.VisExport,
			Def: ast.Def{
				Kind: ast.DefStruct,
				Fields: []ast.Field{
					{Name: "items", Typed: ast.Typed{Prim: ast.PrimI32}},
				},
				Tail:  ast.TailStatic,
				TailN: 4,
			},
		},
	}
	tbl, modules := newTbl(mod)
	flat := flattenOne(t, tbl, modules, "m")
	// simulate the Flattener's base_<tailvalue> variant naming.
	for i := range flat.Locals {
		if flat.Locals[i].Local.Name == "vec" {
			flat.Locals[i].VariantName = "vec_4"
		}
	}

	f, err := Emit(tbl, modules, flat)
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if !strings.Contains(f.Header, "typedef struct m_vec_4 {") {
		t.Errorf("expected variant-named struct:\n%s", f.Header)
	}
	if !strings.Contains(f.Header, "int32_t items[4];") {
		t.Errorf("expected fixed-length tail array:\n%s", f.Header)
	}
	if !strings.Contains(f.Header, "size_t sizeof_m_vec_4(void);") {
		t.Errorf("expected fixed-size sizeof_ for a static-tail variant:\n%s", f.Header)
	}
}

func TestEmitOpaqueStructForIncompleteLocal(t *testing.T) {
	ext := ast.NewModule(name.Parse("ext"), "ext.source")
	ext.Locals = []ast.Local{{Name: "node", Vis: ast.VisExport, Def: ast.Def{Kind: ast.DefStruct}}}

	mod := ast.NewModule(name.Parse("m"), "m.source")
	ptrTyped := ast.Typed{TypeName: name.Parse("ext::node"), Ptr: []ast.Pointer{{}}}
	mod.Locals = []ast.Local{
		{
			Name: "head",
			Vis:  ast.VisExport,
			Def:  ast.Def{Kind: ast.DefStruct, Fields: []ast.Field{{Name: "next", Typed: ptrTyped}}},
		},
	}
	tbl, modules := newTbl(ext, mod)
	flat := flattenOne(t, tbl, modules, "m")

	f, err := Emit(tbl, modules, flat)
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if !strings.Contains(f.Header, "typedef struct m_head {") {
		t.Errorf("expected head struct:\n%s", f.Header)
	}
	if !strings.Contains(f.Header, "ext_node") {
		t.Errorf("expected forward-declared dependency to be referenced by name:\n%s", f.Header)
	}
}

func TestEmitEnumVariants(t *testing.T) {
	one := int64(1)
	mod := ast.NewModule(name.Parse("m"), "m.source")
	mod.Locals = []ast.Local{
		{
			Name: "color",
			Vis:  ast.VisExport,
			Def: ast.Def{
				Kind: ast.DefEnum,
				Variants: []ast.EnumVariant{
					{Label: "red", Value: &one},
					{Label: "blue"},
				},
			},
		},
	}
	tbl, modules := newTbl(mod)
	flat := flattenOne(t, tbl, modules, "m")

	f, err := Emit(tbl, modules, flat)
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if !strings.Contains(f.Header, "m_color_red = 1,") {
		t.Errorf("expected explicit discriminant:\n%s", f.Header)
	}
	if !strings.Contains(f.Header, "m_color_blue,") {
		t.Errorf("expected implicit discriminant:\n%s", f.Header)
	}
}

func TestEmitClosureTypeTwoWordLayout(t *testing.T) {
	mod := ast.NewModule(name.Parse("m"), "m.source")
	mod.Locals = []ast.Local{
		{
			Name: "callback",
			Vis:  ast.VisExport,
			Def: ast.Def{
				Kind: ast.DefClosure,
				Ret:  &ast.AnonArg{Typed: ast.Typed{Prim: ast.PrimI32}},
				Args: []ast.NamedArg{{Name: "x", Typed: ast.Typed{Prim: ast.PrimI32}}},
			},
		},
	}
	tbl, modules := newTbl(mod)
	flat := flattenOne(t, tbl, modules, "m")

	f, err := Emit(tbl, modules, flat)
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if !strings.Contains(f.Header, "void *ctx;") {
		t.Errorf("expected ctx pointer field:\n%s", f.Header)
	}
	if !strings.Contains(f.Header, "int32_t (*f)(int32_t, void *);") {
		t.Errorf("expected function pointer field:\n%s", f.Header)
	}
}

func TestEmitConstAndStatic(t *testing.T) {
	mod := ast.NewModule(name.Parse("m"), "m.source")
	litID := mod.PushExpr(ast.Expr{Kind: ast.ExprLiteral, LitKind: ast.LitNumericU, Value: "42"})
	mod.Locals = []ast.Local{
		{Name: "limit", Vis: ast.VisExport, Def: ast.Def{Kind: ast.DefConst, Typed: ast.Typed{Prim: ast.PrimI32}, Expr: litID}},
		{Name: "counter", Vis: ast.VisExport, Def: ast.Def{Kind: ast.DefStatic, Typed: ast.Typed{Prim: ast.PrimI32}}},
	}
	tbl, modules := newTbl(mod)
	flat := flattenOne(t, tbl, modules, "m")

	f, err := Emit(tbl, modules, flat)
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if !strings.Contains(f.Header, "#define m_limit ((int32_t)42)") {
		t.Errorf("expected const #define:\n%s", f.Header)
	}
	if !strings.Contains(f.Header, "extern int32_t m_counter;") {
		t.Errorf("expected extern static declaration:\n%s", f.Header)
	}
	if !strings.Contains(f.Impl, "int32_t m_counter;") {
		t.Errorf("expected static definition in impl:\n%s", f.Impl)
	}
}

func TestEmitFunctionBodyAndMainUnqualified(t *testing.T) {
	mod := ast.NewModule(name.Parse("m"), "m.source")
	retExpr := mod.PushExpr(ast.Expr{Kind: ast.ExprLiteral, LitKind: ast.LitNumericU, Value: "0"})
	body := []ast.StmtID{mod.PushStmt(ast.Stmt{Kind: ast.StmtReturn, Expr: retExpr})}
	mod.Locals = []ast.Local{
		{
			Name: "main",
			Vis:  ast.VisExport,
			Def:  ast.Def{Kind: ast.DefFunction, Ret: &ast.AnonArg{Typed: ast.Typed{Prim: ast.PrimI32}}, Body: body},
		},
	}
	tbl, modules := newTbl(mod)
	flat := flattenOne(t, tbl, modules, "m")

	f, err := Emit(tbl, modules, flat)
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if !strings.Contains(f.Header, "int32_t main(void);") {
		t.Errorf("expected unqualified main prototype:\n%s", f.Header)
	}
	if !strings.Contains(f.Impl, "int32_t main(void) {\n    return 0;\n}") {
		t.Errorf("expected main body:\n%s", f.Impl)
	}
}

func TestEmitStaticVisibility(t *testing.T) {
	mod := ast.NewModule(name.Parse("m"), "m.source")
	litID := mod.PushExpr(ast.Expr{Kind: ast.ExprLiteral, LitKind: ast.LitNumericU, Value: "7"})
	mod.Locals = []ast.Local{
		{Name: "obj_count", Vis: ast.VisObject, Def: ast.Def{Kind: ast.DefStatic, Typed: ast.Typed{Prim: ast.PrimI32}, Expr: litID}},
		{Name: "shared_count", Vis: ast.VisShared, Def: ast.Def{Kind: ast.DefStatic, Typed: ast.Typed{Prim: ast.PrimI32}, Expr: litID}},
	}
	tbl, modules := newTbl(mod)
	flat := flattenOne(t, tbl, modules, "m")

	f, err := Emit(tbl, modules, flat)
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if strings.Contains(f.Header, "m_obj_count") {
		t.Errorf("VisObject static leaked into header:\n%s", f.Header)
	}
	if !strings.Contains(f.Impl, "static int32_t m_obj_count = 7;") {
		t.Errorf("expected private static definition with initializer:\n%s", f.Impl)
	}
	if !strings.Contains(f.Header, "static inline int32_t m_shared_count = 7;") {
		t.Errorf("expected static inline definition in header:\n%s", f.Header)
	}
	if strings.Contains(f.Impl, "m_shared_count") {
		t.Errorf("VisShared static leaked into impl:\n%s", f.Impl)
	}
}

func TestEmitFunctionVisibility(t *testing.T) {
	mod := ast.NewModule(name.Parse("m"), "m.source")
	retExpr := mod.PushExpr(ast.Expr{Kind: ast.ExprLiteral, LitKind: ast.LitNumericU, Value: "1"})
	body := []ast.StmtID{mod.PushStmt(ast.Stmt{Kind: ast.StmtReturn, Expr: retExpr})}
	mod.Locals = []ast.Local{
		{
			Name: "helper_object",
			Vis:  ast.VisObject,
			Def:  ast.Def{Kind: ast.DefFunction, Ret: &ast.AnonArg{Typed: ast.Typed{Prim: ast.PrimI32}}, Body: body},
		},
		{
			Name: "helper_shared",
			Vis:  ast.VisShared,
			Def:  ast.Def{Kind: ast.DefFunction, Ret: &ast.AnonArg{Typed: ast.Typed{Prim: ast.PrimI32}}, Body: body},
		},
	}
	tbl, modules := newTbl(mod)
	flat := flattenOne(t, tbl, modules, "m")

	f, err := Emit(tbl, modules, flat)
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if strings.Contains(f.Header, "helper_object") {
		t.Errorf("VisObject function leaked into header:\n%s", f.Header)
	}
	if !strings.Contains(f.Impl, "static int32_t m_helper_object(void);") ||
		!strings.Contains(f.Impl, "int32_t m_helper_object(void) {\n    return 1;\n}") {
		t.Errorf("expected private declaration and definition in impl:\n%s", f.Impl)
	}
	if !strings.Contains(f.Header, "static inline int32_t m_helper_shared(void) {\n    return 1;\n}") {
		t.Errorf("expected static inline definition in header:\n%s", f.Header)
	}
	if strings.Contains(f.Impl, "helper_shared") {
		t.Errorf("VisShared function leaked into impl:\n%s", f.Impl)
	}
}

func TestToLocalNameAliasForeignAndJoin(t *testing.T) {
	foreign := ast.NewModule(name.Parse("libc"), "libc.source")
	foreign.Kind = ast.ModuleForeign
	foreign.Locals = []ast.Local{{Name: "malloc", Vis: ast.VisExport, Def: ast.Def{Kind: ast.DefFunction}}}

	dep := ast.NewModule(name.Parse("a::b"), "ab.source")
	dep.Locals = []ast.Local{{Name: "helper", Vis: ast.VisExport, Def: ast.Def{Kind: ast.DefFunction}}}

	root := ast.NewModule(name.Parse("m"), "m.source")
	root.Aliases["a::b::helper"] = "ab_helper_alias"

	tbl, modules := newTbl(foreign, dep, root)
	e := &emitter{tbl: tbl, modules: modules, root: root}

	if got := e.toLocalName(name.Parse("a::b::helper")); got != "ab_helper_alias" {
		t.Errorf("aliased name = %q, want ab_helper_alias", got)
	}
	if got := e.toLocalName(name.Parse("libc::malloc")); got != "malloc" {
		t.Errorf("foreign name = %q, want bare symbol malloc", got)
	}
	if got := e.toLocalName(name.Parse("m::own_thing")); got != "m_own_thing" {
		t.Errorf("local name = %q, want underscore join m_own_thing", got)
	}
}

func TestWriteEscapedLiteralUsesOctalNotHex(t *testing.T) {
	e := &emitter{}
	e.dest = &e.impl
	e.writeEscapedLiteral("a\x01\"b", true)
	got := e.impl.String()
	if strings.Contains(got, "\\x") {
		t.Errorf("escaped literal used a hex escape: %q", got)
	}
	if !strings.Contains(got, "\\001") {
		t.Errorf("expected octal escape for \\x01, got %q", got)
	}
	if !strings.Contains(got, `\"`) {
		t.Errorf("expected escaped quote, got %q", got)
	}
}
