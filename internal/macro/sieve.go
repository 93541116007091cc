// Package macro implements the macro sieve and a restricted expander:
// macro definitions are identified per module and their call sites are
// substituted by the expansion a Runner produces. Macros are not compiled
// or run as separate artifacts.
package macro

import "zzc/internal/ast"

// Sieve identifies every Def::Macro local in a module. The driver does not
// build these as artifacts; it only asks HasMacros whether a module has
// any, and expands call sites through ExpandCallSites.
func Sieve(mod *ast.Module) []*ast.Local {
	var out []*ast.Local
	for i := range mod.Locals {
		if mod.Locals[i].Def.Kind == ast.DefMacro {
			out = append(out, &mod.Locals[i])
		}
	}
	return out
}

// HasMacros reports whether mod declares any macro locals.
func HasMacros(mod *ast.Module) bool {
	for _, l := range mod.Locals {
		if l.Def.Kind == ast.DefMacro {
			return true
		}
	}
	return false
}
