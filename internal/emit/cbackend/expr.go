package cbackend

import (
	"fmt"
	"strings"

	"zzc/internal/ast"
)

// primNames mirrors to_local_typed_name's primitive table, targeting C's
// fixed-width integer types instead of Rust's.
var primNames = map[ast.PrimKind]string{
	ast.PrimI8: "int8_t", ast.PrimI16: "int16_t", ast.PrimI32: "int32_t",
	ast.PrimI64: "int64_t", ast.PrimI128: "__int128",
	ast.PrimU8: "uint8_t", ast.PrimU16: "uint16_t", ast.PrimU32: "uint32_t",
	ast.PrimU64: "uint64_t", ast.PrimU128: "unsigned __int128",
	ast.PrimInt: "int", ast.PrimUint: "unsigned int", ast.PrimUSize: "size_t",
	ast.PrimF32: "float", ast.PrimF64: "double",
	ast.PrimByte: "uint8_t", ast.PrimChar: "uint8_t",
	ast.PrimVoid: "void", ast.PrimBool: "_Bool",
}

// typeName resolves t to a C type name, returning ok=false for an untyped
// literal annotation that should never survive to emission (an ICE in the
// original — caught earlier by the Resolver/Checker in this pipeline).
func (e *emitter) typeName(t ast.Typed) (string, bool) {
	if t.IsPrimitive() {
		n, ok := primNames[t.Prim]
		return n, ok
	}
	if t.TypeName.Len() == 0 {
		return "", false
	}
	return e.toLocalName(t.TypeName), true
}

// pointerQualifiers renders a Typed's pointer stack as C qualifiers,
// outermost first, matching ast.Pointer's tag semantics (const/restrict/
// volatile) rather than the emitter_rs.rs original's Rust-only const/mut.
func (e *emitter) pointerQualifiers(ptrs []ast.Pointer) string {
	var sb strings.Builder
	for _, p := range ptrs {
		sb.WriteString("*")
		if p.IsConst() {
			sb.WriteString("const ")
		}
		if p.IsRestrict() {
			sb.WriteString("restrict ")
		}
		if p.IsVolatile() {
			sb.WriteString("volatile ")
		}
	}
	if len(ptrs) > 0 {
		sb.WriteString(" ")
	}
	return sb.String()
}

func (e *emitter) exprLiteral(id ast.ExprID) string {
	if !id.IsValid() {
		return "0"
	}
	ex := e.root.Expr(id)
	if ex == nil || ex.Kind != ast.ExprLiteral {
		return "0"
	}
	return ex.Value
}

func (e *emitter) emitStmt(mod *ast.Module, id ast.StmtID, depth int) {
	s := mod.Stmt(id)
	if s == nil {
		return
	}
	indent := strings.Repeat("    ", depth)
	switch s.Kind {
	case ast.StmtExpr:
		e.dest.WriteString(indent)
		e.emitExpr(mod, s.Expr)
		e.dest.WriteString(";\n")

	case ast.StmtAssign:
		e.dest.WriteString(indent)
		e.emitExpr(mod, s.AssignLhs)
		fmt.Fprintf(e.dest, " %s ", s.AssignOp)
		e.emitExpr(mod, s.AssignRhs)
		e.dest.WriteString(";\n")

	case ast.StmtReturn:
		e.dest.WriteString(indent + "return")
		if s.Expr.IsValid() {
			e.dest.WriteString(" ")
			e.emitExpr(mod, s.Expr)
		}
		e.dest.WriteString(";\n")

	case ast.StmtContinue:
		e.dest.WriteString(indent + "continue;\n")
	case ast.StmtBreak:
		e.dest.WriteString(indent + "break;\n")
	case ast.StmtLabel:
		fmt.Fprintf(e.dest, "%s:\n", s.Label)
	case ast.StmtGoto:
		fmt.Fprintf(e.dest, "%sgoto %s;\n", indent, s.Label)

	case ast.StmtVar:
		ctype, ok := e.typeName(s.VarTyped)
		if !ok {
			return
		}
		e.dest.WriteString(indent)
		fmt.Fprintf(e.dest, "%s%s %s", e.pointerQualifiers(s.VarTyped.Ptr), ctype, s.VarName)
		if s.VarArray.IsValid() {
			e.dest.WriteString("[")
			e.emitExpr(mod, s.VarArray)
			e.dest.WriteString("]")
		}
		if s.VarAssign.IsValid() {
			e.dest.WriteString(" = ")
			e.emitExpr(mod, s.VarAssign)
		}
		e.dest.WriteString(";\n")

	case ast.StmtFor:
		e.dest.WriteString(indent + "for (")
		e.emitBlockInline(mod, s.ForInit)
		e.dest.WriteString("; ")
		e.emitBlockInline(mod, s.ForCond)
		e.dest.WriteString("; ")
		e.emitBlockInline(mod, s.ForPost)
		e.dest.WriteString(") {\n")
		for _, id := range s.ForBody.Stmts {
			e.emitStmt(mod, id, depth+1)
		}
		e.dest.WriteString(indent + "}\n")

	case ast.StmtCond:
		e.dest.WriteString(indent)
		if s.CondOp == "else" || (s.CondOp == "" && !s.CondExpr.IsValid()) {
			e.dest.WriteString("else {\n")
		} else {
			fmt.Fprintf(e.dest, "%s (", s.CondOp)
			e.emitExpr(mod, s.CondExpr)
			e.dest.WriteString(") {\n")
		}
		for _, id := range s.CondBody.Stmts {
			e.emitStmt(mod, id, depth+1)
		}
		e.dest.WriteString(indent + "}\n")

	case ast.StmtBlock:
		e.dest.WriteString(indent + "{\n")
		for _, id := range s.Nested.Stmts {
			e.emitStmt(mod, id, depth+1)
		}
		e.dest.WriteString(indent + "}\n")

	case ast.StmtMark:
		// Tags attached to an lvalue (mut/packed/etc) carry no C-visible
		// effect by themselves; the qualifier they represent is already
		// folded into the declaration they annotate.
	}
}

// emitBlockInline renders a Block's statements as a single comma-separated
// expression list, for the three clauses of a C for(;;) header.
func (e *emitter) emitBlockInline(mod *ast.Module, b ast.Block) {
	for i, id := range b.Stmts {
		if i > 0 {
			e.dest.WriteString(", ")
		}
		s := mod.Stmt(id)
		if s == nil {
			continue
		}
		switch s.Kind {
		case ast.StmtExpr:
			e.emitExpr(mod, s.Expr)
		case ast.StmtAssign:
			e.emitExpr(mod, s.AssignLhs)
			fmt.Fprintf(e.dest, " %s ", s.AssignOp)
			e.emitExpr(mod, s.AssignRhs)
		case ast.StmtVar:
			ctype, ok := e.typeName(s.VarTyped)
			if !ok {
				continue
			}
			fmt.Fprintf(e.dest, "%s%s %s", e.pointerQualifiers(s.VarTyped.Ptr), ctype, s.VarName)
			if s.VarAssign.IsValid() {
				e.dest.WriteString(" = ")
				e.emitExpr(mod, s.VarAssign)
			}
		}
	}
}

func (e *emitter) emitExpr(mod *ast.Module, id ast.ExprID) {
	if !id.IsValid() {
		return
	}
	ex := mod.Expr(id)
	if ex == nil {
		return
	}
	switch ex.Kind {
	case ast.ExprName:
		if ex.Typed.IsPrimitive() {
			e.dest.WriteString(ex.Typed.TypeName.String())
			return
		}
		e.dest.WriteString(e.toLocalName(ex.Typed.TypeName))

	case ast.ExprLiteral:
		switch ex.LitKind {
		case ast.LitString:
			e.dest.WriteString("\"")
			e.writeEscapedLiteral(ex.Value, true)
			e.dest.WriteString("\"")
		case ast.LitChar:
			e.dest.WriteString("'")
			e.writeEscapedLiteral(ex.Value, false)
			e.dest.WriteString("'")
		default:
			e.dest.WriteString(ex.Value)
		}

	case ast.ExprCall:
		e.dest.WriteString(e.toLocalName(ex.CallName.TypeName))
		e.dest.WriteString("(")
		for i, a := range ex.Args {
			if i > 0 {
				e.dest.WriteString(", ")
			}
			e.emitExpr(mod, a)
		}
		e.dest.WriteString(")")

	case ast.ExprInfix:
		e.dest.WriteString("(")
		e.emitExpr(mod, ex.Lhs)
		for _, t := range ex.InfixRhs {
			fmt.Fprintf(e.dest, " %s ", t.Op)
			e.emitExpr(mod, t.Rhs)
		}
		e.dest.WriteString(")")

	case ast.ExprCast:
		ctype, ok := e.typeName(ex.CastInto)
		if !ok {
			e.emitExpr(mod, ex.CastExpr)
			return
		}
		fmt.Fprintf(e.dest, "(%s%s)", e.pointerQualifiers(ex.CastInto.Ptr), ctype)
		e.emitExpr(mod, ex.CastExpr)

	case ast.ExprUnaryPre:
		e.dest.WriteString("(" + ex.Op)
		e.emitExpr(mod, ex.Inner)
		e.dest.WriteString(")")

	case ast.ExprUnaryPost:
		e.dest.WriteString("(")
		e.emitExpr(mod, ex.Inner)
		e.dest.WriteString(ex.Op + ")")

	case ast.ExprMemberAccess:
		e.emitExpr(mod, ex.Lhs)
		fmt.Fprintf(e.dest, "%s%s", ex.Op, ex.Rhs)

	case ast.ExprArrayAccess:
		e.emitExpr(mod, ex.Lhs)
		e.dest.WriteString("[")
		e.emitExpr(mod, ex.RhsExpr)
		e.dest.WriteString("]")

	case ast.ExprStructInit:
		e.dest.WriteString("{ ")
		for i, f := range ex.InitFields {
			if i > 0 {
				e.dest.WriteString(", ")
			}
			fmt.Fprintf(e.dest, ".%s = ", f.Name)
			e.emitExpr(mod, f.Expr)
		}
		e.dest.WriteString(" }")

	case ast.ExprArrayInit:
		e.dest.WriteString("{ ")
		for i, f := range ex.ArrayFields {
			if i > 0 {
				e.dest.WriteString(", ")
			}
			e.emitExpr(mod, f)
		}
		e.dest.WriteString(" }")
	}
}

// writeEscapedLiteral renders a string/char literal body for C, using
// octal rather than hex escapes for non-printable bytes: a C hex escape is
// unbounded and swallows any hex digit that happens to follow it in the
// source text, while \ooo is always exactly three digits.
func (e *emitter) writeEscapedLiteral(v string, isStr bool) {
	for _, r := range []byte(v) {
		switch {
		case r == '"' && isStr:
			e.dest.WriteString("\\\"")
		case r == '\'' && !isStr:
			e.dest.WriteString("\\'")
		case r == '\\':
			e.dest.WriteString("\\\\")
		case r == '\t':
			e.dest.WriteString("\\t")
		case r == '\r':
			e.dest.WriteString("\\r")
		case r == '\n':
			e.dest.WriteString("\\n")
		case r >= 0x20 && r < 0x7f:
			e.dest.WriteByte(r)
		default:
			fmt.Fprintf(e.dest, "\\%03o", r)
		}
	}
}
