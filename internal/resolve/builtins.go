package resolve

import "zzc/internal/ast"

// builtins maps primitive type spellings to their PrimKind, the fourth and
// last lookup tier in Name absolutization.
var builtins = map[string]ast.PrimKind{
	"i8":    ast.PrimI8,
	"i16":   ast.PrimI16,
	"i32":   ast.PrimI32,
	"i64":   ast.PrimI64,
	"i128":  ast.PrimI128,
	"u8":    ast.PrimU8,
	"u16":   ast.PrimU16,
	"u32":   ast.PrimU32,
	"u64":   ast.PrimU64,
	"u128":  ast.PrimU128,
	"int":   ast.PrimInt,
	"uint":  ast.PrimUint,
	"usize": ast.PrimUSize,
	"f32":   ast.PrimF32,
	"f64":   ast.PrimF64,
	"byte":  ast.PrimByte,
	"char":  ast.PrimChar,
	"void":  ast.PrimVoid,
	"bool":  ast.PrimBool,
}

func lookupBuiltin(segment string) (ast.PrimKind, bool) {
	k, ok := builtins[segment]
	return k, ok
}
