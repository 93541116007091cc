package ast

import (
	"testing"

	"zzc/internal/name"
)

func TestModulePushExprAndStmt(t *testing.T) {
	m := NewModule(name.Parse("pkg::mod"), "mod.source")

	exprID := m.PushExpr(Expr{Kind: ExprLiteral, LitKind: LitNumeric, Value: "42"})
	if m.Expr(exprID).Value != "42" {
		t.Errorf("Expr(%d).Value = %q, want %q", exprID, m.Expr(exprID).Value, "42")
	}

	stmtID := m.PushStmt(Stmt{Kind: StmtExpr, Expr: exprID})
	got := m.Stmt(stmtID)
	if got.Kind != StmtExpr || got.Expr != exprID {
		t.Errorf("Stmt(%d) = %+v, want Kind=StmtExpr Expr=%d", stmtID, got, exprID)
	}
}

func TestModuleAbsNameAndKind(t *testing.T) {
	m := NewModule(name.Parse("app::main"), "main.source")
	if m.Kind != ModuleNative {
		t.Errorf("Kind = %v, want ModuleNative", m.Kind)
	}
	if got := m.AbsName.String(); got != "app::main" {
		t.Errorf("AbsName = %q, want %q", got, "app::main")
	}
}
