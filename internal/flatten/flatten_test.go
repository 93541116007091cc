package flatten

import (
	"testing"

	"zzc/internal/ast"
	"zzc/internal/name"
)

func TestFlattenOrdersTypesBeforeByValueUsers(t *testing.T) {
	tbl := name.NewTable()
	modules := make(map[name.ID]*ast.Module)

	mod := ast.NewModule(name.Parse("m"), "m.source")
	mod.Locals = []ast.Local{
		{
			Name: "wrap",
			Vis:  ast.VisExport,
			Def: ast.Def{
				Kind:   ast.DefStruct,
				Fields: []ast.Field{{Name: "inner", Typed: ast.Typed{TypeName: name.Parse("m::point")}}},
			},
		},
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
	id := tbl.Intern(mod.AbsName)
	modules[id] = mod

	flat, err := Flatten(tbl, modules, id)
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}

	pos := make(map[string]int, len(flat.Locals))
	for i, fl := range flat.Locals {
		pos[fl.Local.Name] = i
	}
	if pos["point"] >= pos["wrap"] {
		t.Errorf("expected point before wrap (by-value field), got order %v", pos)
	}
}

func TestFlattenSynthesizesTailVariantNames(t *testing.T) {
	tbl := name.NewTable()
	modules := make(map[name.ID]*ast.Module)

	mod := ast.NewModule(name.Parse("m"), "m.source")
	mod.Locals = []ast.Local{
		{
			Name: "buf",
			Vis:  ast.VisExport,
			Def:  ast.Def{Kind: ast.DefStruct, Tail: ast.TailStatic, TailN: 16},
		},
	}
	id := tbl.Intern(mod.AbsName)
	modules[id] = mod

	flat, err := Flatten(tbl, modules, id)
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}
	if len(flat.Locals) != 1 || flat.Locals[0].VariantName != "buf_16" {
		t.Fatalf("expected a buf_16 variant, got %+v", flat.Locals)
	}
	variants := flat.TypeVariants["m::buf"]
	if len(variants) != 1 || variants[0].TailValue != 16 {
		t.Errorf("TypeVariants[m::buf] = %+v, want one entry with TailValue 16", variants)
	}
}

func TestFlattenMarksPointerOnlyDependencyIncomplete(t *testing.T) {
	tbl := name.NewTable()
	modules := make(map[name.ID]*ast.Module)

	ext := ast.NewModule(name.Parse("ext"), "ext.source")
	ext.Locals = []ast.Local{
		{
			Name: "node",
			Vis:  ast.VisExport,
			Def:  ast.Def{Kind: ast.DefStruct, Fields: []ast.Field{{Name: "val", Typed: ast.Typed{Prim: ast.PrimI32}}}},
		},
	}
	extID := tbl.Intern(ext.AbsName)
	modules[extID] = ext

	mod := ast.NewModule(name.Parse("m"), "m.source")
	ptrTyped := ast.Typed{TypeName: name.Parse("ext::node"), Ptr: []ast.Pointer{{}}}
	mod.Locals = []ast.Local{
		{
			Name: "head",
			Vis:  ast.VisExport,
			Def:  ast.Def{Kind: ast.DefStruct, Fields: []ast.Field{{Name: "next", Typed: ptrTyped}}},
		},
	}
	id := tbl.Intern(mod.AbsName)
	modules[id] = mod

	flat, err := Flatten(tbl, modules, id)
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}
	if len(flat.Locals) != 2 {
		t.Fatalf("expected 2 flattened locals (head + forward-declared node), got %+v", flat.Locals)
	}
	var nodeEntry *FlatLocal
	for i := range flat.Locals {
		if flat.Locals[i].Local.Name == "node" {
			nodeEntry = &flat.Locals[i]
		}
	}
	if nodeEntry == nil {
		t.Fatal("expected node to be reachable via pointer reference")
	}
	if nodeEntry.Completeness != Incomplete {
		t.Errorf("node should be Incomplete (pointer-only reference), got %v", nodeEntry.Completeness)
	}
}
