package macro

import (
	"fmt"

	"zzc/internal/ast"
	"zzc/internal/diag"
	"zzc/internal/name"
)

// ExpandCallSites rewrites every macro call site reachable from a native
// module in place. A call site is an ExprCall whose resolved absolute
// CallName points at a Def::Macro local — the Resolver already performed
// that absolutization, so this pass never does its own name lookup beyond
// finding the macro's owning Local.
//
// There is no dedicated MacroCall expression kind; an ExprCall becomes a
// macro call purely by what its CallName resolves to, decided here rather
// than by threading a new AST tag back through the Resolver.
func ExpandCallSites(tbl *name.Table, modules map[name.ID]*ast.Module, runner Runner, rep diag.Reporter) error {
	for _, mod := range modules {
		if mod.Kind == ast.ModuleForeign {
			continue
		}
		n := mod.Exprs.Len()
		for i := uint32(1); i <= n; i++ {
			e := mod.Exprs.Get(i)
			if e.Kind != ast.ExprCall {
				continue
			}
			macro, macroModule := findMacro(tbl, modules, e.CallName.TypeName)
			if macro == nil {
				continue
			}
			expansion, err := runner.Run(macro, macroModule, e, mod)
			if err != nil {
				rep.Report(diag.Diagnostic{
					Severity: diag.SevError,
					Code:     diag.CodeCheckError,
					Message:  fmt.Sprintf("macro %q: %v", macro.Name, err),
					Primary:  e.Loc.Span,
				})
				continue
			}
			*mod.Exprs.Get(i) = expansion
		}
	}
	return nil
}

func findMacro(tbl *name.Table, modules map[name.ID]*ast.Module, target name.Name) (*ast.Local, *ast.Module) {
	if target.Len() == 0 {
		return nil, nil
	}
	owner := target.Clone()
	owner.Pop()
	symbol := target.Segments()[target.Len()-1]

	ownerID := tbl.Intern(owner)
	mod := modules[ownerID]
	if mod == nil || mod.Kind == ast.ModuleForeign {
		return nil, nil
	}
	for i := range mod.Locals {
		if mod.Locals[i].Name == symbol && mod.Locals[i].Def.Kind == ast.DefMacro {
			return &mod.Locals[i], mod
		}
	}
	return nil, nil
}
