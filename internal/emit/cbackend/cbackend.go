// Package cbackend emits one C translation unit (a header plus an
// implementation file) per flattened module, using strings.Builder-driven
// textual emission and following original_source/src/emitter_rs.rs's
// sizeof_<T>/heap-wrapper/pointer-tag conventions, translated from a Rust
// binding target to a plain C translation unit.
package cbackend

import (
	"fmt"
	"strings"

	"zzc/internal/ast"
	"zzc/internal/flatten"
	"zzc/internal/name"
)

// File is the pair of files produced for one module.
type File struct {
	Name   string // e.g. "m_sub", used for both m_sub.h and m_sub.c
	Header string
	Impl   string
}

type emitter struct {
	tbl     *name.Table
	modules map[name.ID]*ast.Module
	flat    *flatten.FlatModule
	root    *ast.Module
	hdr     strings.Builder
	impl    strings.Builder
	lastSig string

	// dest is where emitStmt/emitExpr currently write a function body.
	// It's &impl for VisObject/VisExport functions, and swapped to &hdr
	// for the duration of a VisShared function so its static inline
	// definition lands in the header instead.
	dest *strings.Builder
}

// Emit produces the C translation unit for flat. tbl/modules give access to
// the owning modules' statement/expression arenas and the root module's
// Resolver-assigned alias table (flatten.FlatModule doesn't carry either).
func Emit(tbl *name.Table, modules map[name.ID]*ast.Module, flat *flatten.FlatModule) (*File, error) {
	root := modules[tbl.Intern(flat.Root)]
	if root == nil {
		return nil, fmt.Errorf("cbackend: unknown root module %q", flat.Root.String())
	}

	e := &emitter{tbl: tbl, modules: modules, flat: flat, root: root}
	e.dest = &e.impl
	baseName := cName(flat.Root)

	fmt.Fprintf(&e.hdr, "#ifndef ZZ_%s_H\n#define ZZ_%s_H\n\n", strings.ToUpper(baseName), strings.ToUpper(baseName))
	e.hdr.WriteString("#include <stddef.h>\n#include <stdint.h>\n\n")

	fmt.Fprintf(&e.impl, "#include \"%s.h\"\n\n", baseName)

	for _, fl := range flat.Locals {
		if fl.Module.String() != flat.Root.String() {
			continue
		}
		e.emitLocal(fl)
	}

	e.hdr.WriteString("\n#endif\n")

	return &File{Name: baseName, Header: e.hdr.String(), Impl: e.impl.String()}, nil
}

func (e *emitter) emitLocal(fl flatten.FlatLocal) {
	l := fl.Local
	switch l.Def.Kind {
	case ast.DefStruct:
		if fl.Completeness != flatten.Complete {
			e.emitOpaqueStruct(l)
			return
		}
		e.emitStruct(l, fl.VariantName)
	case ast.DefEnum:
		e.emitEnum(l)
	case ast.DefClosure:
		e.emitClosureType(l)
	case ast.DefConst:
		e.emitConst(l)
	case ast.DefStatic:
		e.emitStatic(l)
	case ast.DefFunction:
		if fl.Completeness != flatten.Complete {
			return
		}
		e.emitFunction(l)
	}
}

func (e *emitter) emitOpaqueStruct(l ast.Local) {
	cname := e.localName(l.Name)
	fmt.Fprintf(&e.hdr, "typedef struct %s %s;\n", cname, cname)
}

// emitStruct writes the struct typedef plus a sizeof_<name> accessor. A
// static tail struct emits under variantName (a base_<tailvalue> name
// already computed by the Flattener) instead of l.Name.
func (e *emitter) emitStruct(l ast.Local, variantName string) {
	shortName := l.Name
	if variantName != "" {
		shortName = variantName
	}
	cname := e.localName(shortName)

	if l.Def.Union {
		fmt.Fprintf(&e.hdr, "typedef union %s {\n", cname)
	} else {
		fmt.Fprintf(&e.hdr, "typedef struct %s {\n", cname)
	}

	for i, field := range l.Def.Fields {
		ctype, ok := e.typeName(field.Typed)
		if !ok {
			fmt.Fprintf(&e.hdr, "    /* %s */\n", field.Name)
			continue
		}
		last := i == len(l.Def.Fields)-1
		switch {
		case field.Array.IsValid():
			fmt.Fprintf(&e.hdr, "    %s%s %s[%s];\n", e.pointerQualifiers(field.Typed.Ptr), ctype, field.Name, "/* fixed */")
		case last && l.Def.Tail == ast.TailDynamic:
			fmt.Fprintf(&e.hdr, "    %s%s %s[];\n", e.pointerQualifiers(field.Typed.Ptr), ctype, field.Name)
		case last && l.Def.Tail == ast.TailStatic && variantName != "":
			fmt.Fprintf(&e.hdr, "    %s%s %s[%d];\n", e.pointerQualifiers(field.Typed.Ptr), ctype, field.Name, l.Def.TailN)
		default:
			fmt.Fprintf(&e.hdr, "    %s%s %s;\n", e.pointerQualifiers(field.Typed.Ptr), ctype, field.Name)
		}
	}
	fmt.Fprintf(&e.hdr, "} %s;\n\n", cname)

	if l.Def.Tail == ast.TailNone || variantName != "" {
		fmt.Fprintf(&e.hdr, "size_t sizeof_%s(void);\n", cname)
		fmt.Fprintf(&e.impl, "size_t sizeof_%s(void) { return sizeof(%s); }\n\n", cname, cname)
	} else {
		fmt.Fprintf(&e.hdr, "size_t sizeof_%s(size_t tail);\n", cname)
		fmt.Fprintf(&e.impl, "size_t sizeof_%s(size_t tail) { return offsetof(%s, %s) + tail; }\n\n",
			cname, cname, tailFieldName(l))
	}
}

func tailFieldName(l ast.Local) string {
	if len(l.Def.Fields) == 0 {
		return ""
	}
	return l.Def.Fields[len(l.Def.Fields)-1].Name
}

func (e *emitter) emitEnum(l ast.Local) {
	cname := e.localName(l.Name)
	fmt.Fprintf(&e.hdr, "typedef enum {\n")
	for _, v := range l.Def.Variants {
		if v.Value != nil {
			fmt.Fprintf(&e.hdr, "    %s_%s = %d,\n", cname, v.Label, *v.Value)
		} else {
			fmt.Fprintf(&e.hdr, "    %s_%s,\n", cname, v.Label)
		}
	}
	fmt.Fprintf(&e.hdr, "} %s;\n\n", cname)
}

// emitClosureType lowers a closure definition into a context pointer plus a
// function pointer, the conventional two-word C representation of a
// capturing closure.
func (e *emitter) emitClosureType(l ast.Local) {
	cname := e.localName(l.Name)
	ret := "void"
	if l.Def.Ret != nil {
		if t, ok := e.typeName(l.Def.Ret.Typed); ok {
			ret = e.pointerQualifiers(l.Def.Ret.Typed.Ptr) + t
		}
	}
	var args []string
	for _, a := range l.Def.Args {
		if t, ok := e.typeName(a.Typed); ok {
			args = append(args, e.pointerQualifiers(a.Typed.Ptr)+t)
		}
	}
	args = append(args, "void *")
	fmt.Fprintf(&e.hdr, "typedef struct %s {\n    void *ctx;\n    %s (*f)(%s);\n} %s;\n\n",
		cname, ret, strings.Join(args, ", "), cname)
}

func (e *emitter) emitConst(l ast.Local) {
	cname := e.localName(l.Name)
	ctype, ok := e.typeName(l.Def.Typed)
	if !ok {
		return
	}
	val := e.exprLiteral(l.Def.Expr)
	fmt.Fprintf(&e.hdr, "#define %s ((%s)%s)\n", cname, ctype, val)
}

// emitStatic writes a DefStatic local, branching on visibility:
// VisObject gets a private top-level definition confined to this
// translation unit; VisShared gets a static inline definition in the
// header so every including file gets its own copy; VisExport gets an
// extern declaration in the header plus the single defining instance in
// the impl file, the only case two translation units may share the
// symbol across a linker boundary.
func (e *emitter) emitStatic(l ast.Local) {
	if l.Def.Storage == ast.StorageAtomic || l.Def.Storage == ast.StorageThreadLocal {
		return
	}
	cname := e.localName(l.Name)
	ctype, ok := e.typeName(l.Def.Typed)
	if !ok {
		return
	}
	ptr := e.pointerQualifiers(l.Def.Typed.Ptr)
	init := ""
	if l.Def.Expr.IsValid() {
		init = " = " + e.exprLiteral(l.Def.Expr)
	}

	switch l.Vis {
	case ast.VisShared:
		fmt.Fprintf(&e.hdr, "static inline %s%s %s%s;\n", ptr, ctype, cname, init)
	case ast.VisExport:
		fmt.Fprintf(&e.hdr, "extern %s%s %s;\n", ptr, ctype, cname)
		fmt.Fprintf(&e.impl, "%s%s %s%s;\n", ptr, ctype, cname, init)
	default: // ast.VisObject
		fmt.Fprintf(&e.impl, "static %s%s %s%s;\n", ptr, ctype, cname, init)
	}
}

// emitFunction writes a DefFunction local, branching on visibility the
// same way emitStatic does: VisExport declares the signature in the
// header and defines the body in the impl file; VisObject stays private
// to this translation unit, declared `static` and defined only in the
// impl file; VisShared defines the whole function as `static inline` in
// the header, so every including file gets its own copy.
func (e *emitter) emitFunction(l ast.Local) {
	cname := l.Name
	if l.Name != "main" {
		// an artifact's entry point keeps its unqualified C name.
		cname = e.localName(l.Name)
	}
	sig := e.buildFunctionSig(l, cname)

	switch l.Vis {
	case ast.VisShared:
		e.dest = &e.hdr
		fmt.Fprintf(e.dest, "static inline %s {\n", sig)
		e.emitFunctionStmts(l)
		e.dest.WriteString("}\n\n")
		e.dest = &e.impl
	case ast.VisObject:
		fmt.Fprintf(&e.impl, "static %s;\n", sig)
		e.emitFunctionBody(l)
	default: // ast.VisExport
		fmt.Fprintf(&e.hdr, "%s;\n", sig)
		e.emitFunctionBody(l)
	}
}

// buildFunctionSig computes l's C signature without any storage-class
// prefix, stashing it in lastSig for anyone reusing it verbatim.
func (e *emitter) buildFunctionSig(l ast.Local, cname string) string {
	ret := "void"
	if l.Def.Ret != nil {
		if t, ok := e.typeName(l.Def.Ret.Typed); ok {
			ret = e.pointerQualifiers(l.Def.Ret.Typed.Ptr) + t
		}
	}
	var params []string
	for _, a := range l.Def.Args {
		t, ok := e.typeName(a.Typed)
		if !ok {
			continue
		}
		params = append(params, fmt.Sprintf("%s%s %s", e.pointerQualifiers(a.Typed.Ptr), t, a.Name))
	}
	if l.Def.Vararg {
		params = append(params, "...")
	}
	if len(params) == 0 {
		params = []string{"void"}
	}
	sig := fmt.Sprintf("%s %s(%s)", ret, cname, strings.Join(params, ", "))
	e.lastSig = sig
	return sig
}

func (e *emitter) emitFunctionBody(l ast.Local) {
	fmt.Fprintf(&e.impl, "%s {\n", e.lastSig)
	e.emitFunctionStmts(l)
	e.impl.WriteString("}\n\n")
}

func (e *emitter) emitFunctionStmts(l ast.Local) {
	for _, id := range l.Def.Body {
		e.emitStmt(e.root, id, 1)
	}
}

func (e *emitter) localName(shortName string) string {
	return e.toLocalName(e.root.AbsName.Join(shortName))
}

// toLocalName mirrors emitter_rs.rs's to_local_name: prefer the Resolver's
// deterministic alias for an external reference, fall back to a foreign
// module's bare symbol name, otherwise join every segment with "_".
func (e *emitter) toLocalName(n name.Name) string {
	if alias, ok := e.root.Aliases[n.String()]; ok {
		return alias
	}
	owner := n.Clone()
	sym, _ := owner.Pop()
	if ownerMod := e.modules[e.tbl.Intern(owner)]; ownerMod != nil && ownerMod.Kind == ast.ModuleForeign {
		return sym
	}
	return strings.Join(n.Segments(), "_")
}

func cName(n name.Name) string {
	return strings.Join(n.Segments(), "_")
}
