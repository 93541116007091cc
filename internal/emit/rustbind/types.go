package rustbind

import "zzc/internal/ast"

// primNames mirrors to_local_typed_name's primitive table.
var primNames = map[ast.PrimKind]string{
	ast.PrimI8: "i8", ast.PrimI16: "i16", ast.PrimI32: "i32",
	ast.PrimI64: "i64", ast.PrimI128: "i128",
	ast.PrimU8: "u8", ast.PrimU16: "u16", ast.PrimU32: "u32",
	ast.PrimU64: "u64", ast.PrimU128: "u128",
	ast.PrimInt: "std::os::raw::c_int", ast.PrimUint: "std::os::raw::c_uint",
	ast.PrimUSize: "usize",
	ast.PrimF32:   "f32", ast.PrimF64: "f64",
	ast.PrimByte: "u8", ast.PrimChar: "u8",
	ast.PrimVoid: "std::ffi::c_void", ast.PrimBool: "bool",
}

// typeName resolves t to a Rust type name. Returns ok=false for anything
// the Rust binding side can't safely name: an untyped literal annotation
// (an ICE that should never survive to emission), or a user type at any
// pointer depth other than exactly one, by value included (the original's
// "ptr.len() != 1" bail-out). The one exception is an ext type whose last
// segment is "char", which maps to u8 at any depth.
func (e *emitter) typeName(t ast.Typed) (string, bool) {
	if t.IsPrimitive() {
		n, ok := primNames[t.Prim]
		return n, ok
	}
	if t.TypeName.Len() == 0 {
		return "", false
	}
	if t.Depth() != 1 {
		segs := t.TypeName.Segments()
		if len(segs) >= 2 && segs[0] == "ext" {
			if segs[len(segs)-1] == "char" {
				return "u8", true
			}
			return "", false
		}
		return "", false
	}
	return e.toLocalName(t.TypeName), true
}

// pointerPrefix renders t's pointer stack as Rust raw-pointer qualifiers;
// the original collapses const/restrict/volatile down to the two-way
// const/mut distinction Rust raw pointers support.
func (e *emitter) pointerPrefix(ptrs []ast.Pointer) string {
	out := ""
	for _, p := range ptrs {
		out += "*"
		if p.IsMut() {
			out += "mut "
		} else {
			out += "const "
		}
	}
	return out
}

func (e *emitter) exprLiteral(id ast.ExprID) string {
	if !id.IsValid() {
		return "0"
	}
	ex := e.root.Expr(id)
	if ex == nil {
		return "0"
	}
	switch ex.Kind {
	case ast.ExprLiteral:
		if ex.LitKind == ast.LitChar {
			return "'" + ex.Value + "'"
		}
		return ex.Value
	default:
		return "0"
	}
}
