// Package flatten implements the Flattener: it walks a module's transitive
// dependency closure, orders the result so that every type precedes its
// by-value users, and synthesizes variant names for structs with a fixed
// tail size.
package flatten

import (
	"fmt"

	"zzc/internal/ast"
	"zzc/internal/name"
	"zzc/internal/project/dag"
)

// Completeness annotates whether a FlatLocal carries its full definition
// or only enough to forward-declare it: Incomplete stands for a forward
// declaration only, where the size is not required.
type Completeness uint8

const (
	Complete Completeness = iota
	Incomplete
)

func (c Completeness) String() string {
	if c == Complete {
		return "complete"
	}
	return "incomplete"
}

// FlatLocal is one definition included in a flattened module, together with
// the module it was originally defined in (it may not be Root's own) and
// whether the closure needed its full body.
type FlatLocal struct {
	Module       name.Name
	Local        ast.Local
	Completeness Completeness
	// VariantName is set when Local is a struct with a static tail: the
	// synthesized base_<tailvalue> emission name.
	VariantName string
}

// TypeVariant records one (base type, tail value) instantiation, grounded on
// emitter_rs.rs's `flatten::Module.typevariants` map.
type TypeVariant struct {
	BaseName    name.Name
	TailValue   uint64
	VariantName string
	Loc         ast.Location
}

// FlatModule is flatten's output for one root module.
type FlatModule struct {
	Root         name.Name
	Locals       []FlatLocal
	TypeVariants map[string][]TypeVariant
}

type required uint8

const (
	reqNone required = iota
	reqIncomplete
	reqComplete
)

type closureKey struct {
	owner  name.ID
	symbol string
}

// Flatten computes the FlatModule for rootID. modules must contain every
// module (native and foreign) the closure might reach; tbl is the Name
// interner shared across the build.
func Flatten(tbl *name.Table, modules map[name.ID]*ast.Module, rootID name.ID) (*FlatModule, error) {
	root := modules[rootID]
	if root == nil {
		return nil, fmt.Errorf("flatten: unknown root module")
	}

	status := make(map[closureKey]required)
	order := make([]closureKey, 0, len(root.Locals))

	var queue []struct {
		key closureKey
		req required
	}
	for _, l := range root.Locals {
		queue = append(queue, struct {
			key closureKey
			req required
		}{closureKey{rootID, l.Name}, reqComplete})
	}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		if status[item.key] >= item.req {
			continue
		}
		if status[item.key] == reqNone {
			order = append(order, item.key)
		}
		status[item.key] = item.req

		if item.req != reqComplete {
			continue
		}

		mod := modules[item.key.owner]
		if mod == nil || mod.Kind == ast.ModuleForeign {
			continue
		}
		local := findByName(mod, item.key.symbol)
		if local == nil {
			continue
		}
		for _, dep := range typeDeps(local) {
			ownerID := tbl.Intern(ownerOf(dep.name))
			sym := lastSegment(dep.name)
			depKey := closureKey{ownerID, sym}
			req := reqIncomplete
			if dep.byValue {
				req = reqComplete
			}
			queue = append(queue, struct {
				key closureKey
				req required
			}{depKey, req})
		}
	}

	flat := &FlatModule{Root: root.AbsName, TypeVariants: make(map[string][]TypeVariant)}

	completeKeys := make([]closureKey, 0, len(order))
	byKey := make(map[closureKey]*ast.Local, len(order))
	ownerName := make(map[closureKey]name.Name, len(order))

	for _, key := range order {
		mod := modules[key.owner]
		if mod == nil {
			continue
		}
		if mod.Kind == ast.ModuleForeign {
			flat.Locals = append(flat.Locals, FlatLocal{
				Module:       mod.AbsName,
				Local:        ast.Local{Name: key.symbol},
				Completeness: Incomplete,
			})
			continue
		}
		local := findByName(mod, key.symbol)
		if local == nil {
			continue
		}
		if status[key] == reqComplete {
			completeKeys = append(completeKeys, key)
			byKey[key] = local
			ownerName[key] = mod.AbsName
		} else {
			flat.Locals = append(flat.Locals, FlatLocal{
				Module:       mod.AbsName,
				Local:        *local,
				Completeness: Incomplete,
			})
		}
	}

	topoOrder, err := topoSortLocals(tbl, modules, completeKeys, byKey)
	if err != nil {
		return nil, err
	}

	for _, key := range topoOrder {
		local := byKey[key]
		fl := FlatLocal{Module: ownerName[key], Local: *local, Completeness: Complete}
		if local.Def.Kind == ast.DefStruct && local.Def.Tail == ast.TailStatic {
			variantName := fmt.Sprintf("%s_%d", local.Name, local.Def.TailN)
			fl.VariantName = variantName
			baseName := ownerName[key].Join(local.Name)
			flat.TypeVariants[baseName.String()] = append(flat.TypeVariants[baseName.String()], TypeVariant{
				BaseName:    baseName,
				TailValue:   local.Def.TailN,
				VariantName: variantName,
				Loc:         local.Loc,
			})
		}
		flat.Locals = append(flat.Locals, fl)
	}

	return flat, nil
}

func findByName(mod *ast.Module, symbol string) *ast.Local {
	for i := range mod.Locals {
		if mod.Locals[i].Name == symbol {
			return &mod.Locals[i]
		}
	}
	return nil
}

func ownerOf(n name.Name) name.Name {
	owner := n.Clone()
	owner.Pop()
	return owner
}

func lastSegment(n name.Name) string {
	segs := n.Segments()
	if len(segs) == 0 {
		return ""
	}
	return segs[len(segs)-1]
}

type typeDep struct {
	name    name.Name
	byValue bool
}

// typeDeps lists every user-defined type a Local's own Def references,
// marking whether the reference is by value (forces a Complete
// dependency, per the emission ordering rule) or by pointer (an
// Incomplete forward declaration is enough).
func typeDeps(l *ast.Local) []typeDep {
	var deps []typeDep
	add := func(t ast.Typed) {
		if t.IsPrimitive() || t.TypeName.Len() == 0 {
			return
		}
		deps = append(deps, typeDep{name: t.TypeName, byValue: t.Depth() == 0})
	}

	switch l.Def.Kind {
	case ast.DefStatic, ast.DefConst:
		add(l.Def.Typed)

	case ast.DefFunction, ast.DefClosure:
		if l.Def.Ret != nil {
			add(l.Def.Ret.Typed)
		}
		for _, a := range l.Def.Args {
			add(a.Typed)
		}

	case ast.DefStruct:
		for _, f := range l.Def.Fields {
			add(f.Typed)
		}
	}
	return deps
}

// topoSortLocals orders keys so that every type precedes its by-value users,
// via internal/project/dag's Kahn sort, then returns them in that order.
func topoSortLocals(tbl *name.Table, modules map[name.ID]*ast.Module, keys []closureKey, byKey map[closureKey]*ast.Local) ([]closureKey, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	ids := make([]name.ID, len(keys))
	keyForID := make(map[name.ID]closureKey, len(keys))
	for i, k := range keys {
		mod := modules[k.owner]
		qualified := mod.AbsName.Join(k.symbol)
		id := tbl.Intern(qualified)
		ids[i] = id
		keyForID[id] = k
	}

	idx := dag.NewIndex(tbl, ids)
	g := dag.NewGraph(idx.Len())

	nodeForKey := make(map[closureKey]dag.NodeID, len(keys))
	for _, k := range keys {
		mod := modules[k.owner]
		qualified := mod.AbsName.Join(k.symbol)
		id := tbl.Intern(qualified)
		node, _ := idx.NodeOf(id)
		nodeForKey[k] = node
	}

	for _, k := range keys {
		local := byKey[k]
		from := nodeForKey[k]
		for _, dep := range typeDeps(local) {
			if !dep.byValue {
				continue
			}
			depKey := closureKey{tbl.Intern(ownerOf(dep.name)), lastSegment(dep.name)}
			to, ok := nodeForKey[depKey]
			if !ok {
				continue
			}
			g.AddEdge(from, to)
		}
	}
	g.SortEdges()

	topo := dag.ToposortKahn(g)
	if topo.Cyclic {
		return nil, fmt.Errorf("flatten: cyclic by-value type dependency")
	}

	result := make([]closureKey, 0, len(topo.Order))
	for _, node := range topo.Order {
		id := idx.NameOf(node)
		result = append(result, keyForID[id])
	}
	return result, nil
}
