// Package rustbind emits the Rust binding backend: one bridge .rs file per
// flattened module, grounded file-for-file on
// original_source/src/emitter_rs.rs (the only binding emitter kept in
// original_source; its to_local_name/emit_struct_*/emit_decl shape is
// preserved, with Go's strings.Builder replacing the original's
// write!(self.f, ...) calls).
package rustbind

import (
	"fmt"
	"strings"

	"zzc/internal/ast"
	"zzc/internal/flatten"
	"zzc/internal/name"
)

// File is the single bridge source emitted for one module.
type File struct {
	Name    string // e.g. "m_sub", used for target/rust/m_sub.rs
	Content string
}

type emitter struct {
	tbl     *name.Table
	modules map[name.ID]*ast.Module
	flat    *flatten.FlatModule
	root    *ast.Module
	buf     strings.Builder
}

// Emit produces the bridge file for flat's module.
func Emit(tbl *name.Table, modules map[name.ID]*ast.Module, flat *flatten.FlatModule) (*File, error) {
	root := modules[tbl.Intern(flat.Root)]
	if root == nil {
		return nil, fmt.Errorf("rustbind: unknown root module %q", flat.Root.String())
	}

	e := &emitter{tbl: tbl, modules: modules, flat: flat, root: root}
	e.buf.WriteString("#![allow(non_camel_case_types)]\n#![allow(dead_code)]\n")
	e.buf.WriteString("extern crate libc;\n")

	locals := e.ownLocals()

	for _, fl := range locals {
		switch fl.Local.Def.Kind {
		case ast.DefStruct:
			e.emitStructStack(fl.Local, fl.VariantName)
		case ast.DefEnum:
			e.emitEnum(fl.Local)
		case ast.DefClosure:
			e.emitClosure(fl.Local)
		case ast.DefConst:
			e.emitConst(fl.Local)
		}
	}

	e.buf.WriteString("\npub mod heap {\n")
	for _, fl := range locals {
		if fl.Local.Def.Kind == ast.DefStruct {
			e.emitStructHeap(fl.Local, fl.VariantName)
		}
	}
	e.buf.WriteString("}\n")

	e.buf.WriteString("extern {\n")
	for _, fl := range locals {
		switch fl.Local.Def.Kind {
		case ast.DefMacro:
			// macros never survive to the emitted closure in resolved form.
		case ast.DefStatic:
			e.emitStatic(fl.Local)
		case ast.DefStruct:
			e.emitStructLen(fl.Local, fl.VariantName)
		case ast.DefFunction:
			if fl.Local.Name != "main" {
				e.emitDecl(fl.Local)
			}
		}
	}
	e.buf.WriteString("}\n")

	baseName := cName(flat.Root)
	return &File{Name: baseName, Content: e.buf.String()}, nil
}

// ownLocals returns the Complete locals belonging to the root module, in
// flatten order, each struct followed by its type-variant siblings — the
// same grouping emitter_rs.rs's three passes rely on
// module.typevariants.get(...).
func (e *emitter) ownLocals() []flatten.FlatLocal {
	var out []flatten.FlatLocal
	for _, fl := range e.flat.Locals {
		if fl.Module.String() != e.flat.Root.String() {
			continue
		}
		if fl.Completeness != flatten.Complete {
			continue
		}
		out = append(out, fl)
	}
	return out
}

func cName(n name.Name) string {
	return strings.Join(n.Segments(), "_")
}

func shortName(l ast.Local, variantName string) string {
	if variantName != "" {
		return variantName
	}
	return l.Name
}

func (e *emitter) emitConst(l ast.Local) {
	ctype, ok := e.typeName(l.Def.Typed)
	if !ok {
		return
	}
	val := e.exprLiteral(l.Def.Expr)
	fmt.Fprintf(&e.buf, "pub const %s : %s%s = %s;\n", l.Name, e.pointerPrefix(l.Def.Typed.Ptr), ctype, val)
}

func (e *emitter) emitEnum(l ast.Local) {
	e.buf.WriteString("#[derive(Copy,Clone, PartialEq)]\n#[repr(C)]\n")
	fmt.Fprintf(&e.buf, "pub enum %s {\n", l.Name)
	cname := e.localName(l.Name)
	for _, v := range l.Def.Variants {
		fmt.Fprintf(&e.buf, "    %s_%s", cname, v.Label)
		if v.Value != nil {
			fmt.Fprintf(&e.buf, " = %d", *v.Value)
		}
		e.buf.WriteString(",\n")
	}
	e.buf.WriteString("\n}\n\n")
}

// emitStructLen declares the extern sizeof_<name> accessor, split on
// whether the struct carries a dynamic tail (matching
// emitter_rs.rs::emit_struct_len).
func (e *emitter) emitStructLen(l ast.Local, variantName string) {
	sn := shortName(l, variantName)
	cname := e.localName(sn)
	fmt.Fprintf(&e.buf, "    #[link_name = \"sizeof_%s\"]\n", cname)
	if l.Def.Tail == ast.TailNone || variantName != "" {
		fmt.Fprintf(&e.buf, "    pub fn sizeof_%s() -> libc::size_t;\n", sn)
	} else {
		fmt.Fprintf(&e.buf, "    pub fn sizeof_%s(tail: libc::size_t) -> libc::size_t;\n", sn)
	}
}

// emitStructStack emits the #[repr(C)] value type, suppressing any field
// the Rust side cannot name (unresolved type, or a dynamic tail with no
// concrete length) as a "// fieldname" comment rather than dropping it.
func (e *emitter) emitStructStack(l ast.Local, variantName string) {
	sn := shortName(l, variantName)
	if l.Def.Union {
		fmt.Fprintf(&e.buf, "\n#[derive(Copy,Clone)]\n#[repr(C)]\npub union %s {\n", sn)
	} else {
		fmt.Fprintf(&e.buf, "\n#[derive(Copy,Clone)]\n#[repr(C)]\npub struct %s {\n", sn)
	}
	for i, field := range l.Def.Fields {
		ctype, ok := e.typeName(field.Typed)
		if !ok {
			fmt.Fprintf(&e.buf, "    // %s\n", field.Name)
			continue
		}
		last := i == len(l.Def.Fields)-1
		switch {
		case field.Array.IsValid():
			fmt.Fprintf(&e.buf, "    pub %s : [%s%s ; /* fixed */] ,\n", field.Name, e.pointerPrefix(field.Typed.Ptr), ctype)
		case last && l.Def.Tail == ast.TailDynamic && variantName != "":
			fmt.Fprintf(&e.buf, "    pub %s : [%s%s;%d] ,\n", field.Name, e.pointerPrefix(field.Typed.Ptr), ctype, l.Def.TailN)
		case last && l.Def.Tail == ast.TailDynamic:
			// unsized in Rust's ABI with no concrete tail length — the
			// original notes Rust's fat pointer is incompatible with the C
			// layout here and can't emit a sized field.
			fmt.Fprintf(&e.buf, "    // %s\n", field.Name)
		default:
			fmt.Fprintf(&e.buf, "    pub %s : %s%s ,\n", field.Name, e.pointerPrefix(field.Typed.Ptr), ctype)
		}
	}
	e.buf.WriteString("}\n")
}

// emitStructHeap emits the owning heap::<name> wrapper: a boxed allocation
// plus Deref/Clone to the #[repr(C)] value type and raw-pointer accessors,
// matching emitter_rs.rs::emit_struct_heap. Unions are skipped, same as the
// original.
func (e *emitter) emitStructHeap(l ast.Local, variantName string) {
	if l.Def.Union {
		return
	}
	sn := shortName(l, variantName)
	sized := l.Def.Tail == ast.TailNone || variantName != ""

	fmt.Fprintf(&e.buf, `
pub struct %[1]s {
    pub inner: Box<super::%[1]s>,
    pub tail: usize,
}

impl std::ops::Deref for %[1]s {
    type Target = super::%[1]s;

    fn deref(&self) -> &super::%[1]s {
        self.inner.deref()
    }
}

impl std::clone::Clone for %[1]s {
    fn clone(&self) -> Self {
        unsafe {
`, sn)

	if sized {
		fmt.Fprintf(&e.buf, "            let size = super::sizeof_%s();\n", sn)
	} else {
		fmt.Fprintf(&e.buf, "            let size = super::sizeof_%s(self.tail);\n", sn)
	}

	fmt.Fprintf(&e.buf, `
            let mut s = Box::new(vec![0u8; size]);
            std::ptr::copy_nonoverlapping(self._self(), s.as_mut_ptr(), size);

            let ss : *mut super::%[1]s = std::mem::transmute(Box::leak(s).as_mut_ptr());

            Self { inner: Box::from_raw(ss), tail: self.tail }
        }
    }
}

impl %[1]s {
    pub fn _tail(&mut self) -> usize {
        self.tail
    }
    pub fn _self_mut(&mut self) -> *mut u8 {
        unsafe { std::mem::transmute(self.inner.as_mut() as *mut super::%[1]s) }
    }
    pub fn _self(&self) -> *const u8 {
        unsafe { std::mem::transmute(self.inner.as_ref() as *const super::%[1]s) }
    }
}

`, sn)

	fmt.Fprintf(&e.buf, "impl %s {\n", sn)
	if sized {
		e.buf.WriteString("    pub fn new() -> Self {\n        let tail = 0;\n")
		fmt.Fprintf(&e.buf, "        let size = unsafe{super::sizeof_%s()};\n", sn)
	} else {
		e.buf.WriteString("    pub fn new(tail: usize) -> Self {\n")
		fmt.Fprintf(&e.buf, "        let size = unsafe{super::sizeof_%s(tail)};\n", sn)
	}
	e.buf.WriteString("        unsafe {\n")
	e.buf.WriteString("            let s = Box::new(vec![0u8; size]);\n")
	fmt.Fprintf(&e.buf, "            let ss : *mut super::%s = std::mem::transmute(Box::leak(s).as_mut_ptr());\n", sn)
	e.buf.WriteString("            Self { inner: Box::from_raw(ss), tail }\n")
	e.buf.WriteString("        }\n    }\n}\n")
}

// emitClosure lowers a closure def to the same two-word {ctx, f} layout as
// the C backend, rendered as a #[repr(C)] struct with an extern fn pointer.
func (e *emitter) emitClosure(l ast.Local) {
	fmt.Fprintf(&e.buf, "#[derive(Copy,Clone)]\n#[repr(C)]\npub struct %s {\n    pub ctx: *mut std::ffi::c_void,\n", l.Name)
	e.buf.WriteString("    pub f: extern fn (")
	e.functionArgs(l.Def.Args)
	if len(l.Def.Args) > 0 {
		e.buf.WriteString(", ")
	}
	e.buf.WriteString("ctx: *mut std::ffi::c_void")
	if l.Def.Ret == nil {
		e.buf.WriteString("),\n")
	} else if t, ok := e.typeName(l.Def.Ret.Typed); ok {
		fmt.Fprintf(&e.buf, ") -> %s%s,\n", e.pointerPrefix(l.Def.Ret.Typed.Ptr), t)
	} else {
		e.buf.WriteString("),\n")
	}
	e.buf.WriteString("}\n")
}

func (e *emitter) emitStatic(l ast.Local) {
	if l.Def.Storage == ast.StorageAtomic || l.Def.Storage == ast.StorageThreadLocal {
		return
	}
}

// emitDecl emits an extern fn declaration for a non-main function,
// matching emitter_rs.rs::emit_decl; a function whose return type the
// Rust side cannot name is silently omitted, same as the original.
func (e *emitter) emitDecl(l ast.Local) {
	var rettype string
	haveRet := false
	if l.Def.Ret != nil {
		t, ok := e.typeName(l.Def.Ret.Typed)
		if !ok {
			return
		}
		rettype = t
		haveRet = true
	}

	fmt.Fprintf(&e.buf, "    #[link_name = \"%s\"]\n", e.localName(l.Name))
	fmt.Fprintf(&e.buf, "    pub fn r#%s(", l.Name)
	e.functionArgs(l.Def.Args)
	e.buf.WriteString(")")
	if haveRet {
		fmt.Fprintf(&e.buf, "  -> %s%s", e.pointerPrefix(l.Def.Ret.Typed.Ptr), rettype)
	}
	e.buf.WriteString(";\n\n")
}

func (e *emitter) functionArgs(args []ast.NamedArg) {
	first := true
	for _, a := range args {
		t, ok := e.typeName(a.Typed)
		if !ok {
			continue
		}
		if first {
			first = false
		} else {
			e.buf.WriteString(", ")
		}
		fmt.Fprintf(&e.buf, " Z%s: %s%s", a.Name, e.pointerPrefix(a.Typed.Ptr), t)
	}
}

func (e *emitter) localName(shortName string) string {
	return e.toLocalName(e.root.AbsName.Join(shortName))
}

// toLocalName mirrors emitter_rs.rs::to_local_name: the Resolver's alias
// first, a Foreign module's bare symbol next, else the absolute path with
// its leading module segment stripped and the rest underscore-joined.
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
