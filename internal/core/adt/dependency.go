// Copyright 2020 CUE Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package adt

import (
	"github.com/joshua-maros/scarlet/cue/errors"
	"github.com/joshua-maros/scarlet/cue/token"
)

// This file implements the dependency engine, §4.2: the ordered
// multiset of free variables of a term, computed with recursion skipping
// and error propagation.

// Dep is one entry of a Dependencies set.
type Dep struct {
	Var                VariableId
	Swallow             map[VariableId]bool
	AffectsReturnValue  bool

	order     int
	insertion int
}

// Dependencies is the totally ordered set §4.2 describes, plus its two
// sidebands.
type Dependencies struct {
	list []Dep

	SkippedDueToRecursion  map[ItemId]bool
	SkippedDueToUnresolved errors.Error
}

// Slice returns the dependencies in their totalised order: by (order,
// insertion), per §4.2's ordering rule.
func (d Dependencies) Slice() []Dep {
	out := make([]Dep, len(d.list))
	copy(out, d.list)
	return out
}

// Has reports whether v appears in d.
func (d Dependencies) Has(v VariableId) bool {
	for _, e := range d.list {
		if e.Var == v {
			return true
		}
	}
	return false
}

func (d Dependencies) find(v VariableId) (Dep, bool) {
	for _, e := range d.list {
		if e.Var == v {
			return e, true
		}
	}
	return Dep{}, false
}

// append is the stable merge of §4.2: it preserves the first occurrence of
// each variable and takes the maximum AffectsReturnValue. A poisoned
// receiver short-circuits: once SkippedDueToUnresolved is set, further
// appends are no-ops.
func (d *Dependencies) append(o Dependencies) {
	if d.SkippedDueToUnresolved != nil {
		return
	}
	if o.SkippedDueToUnresolved != nil {
		d.SkippedDueToUnresolved = o.SkippedDueToUnresolved
		return
	}
	for id := range o.SkippedDueToRecursion {
		if d.SkippedDueToRecursion == nil {
			d.SkippedDueToRecursion = map[ItemId]bool{}
		}
		d.SkippedDueToRecursion[id] = true
	}
	for _, e := range o.list {
		if i := d.indexOf(e.Var); i >= 0 {
			if e.AffectsReturnValue && !d.list[i].AffectsReturnValue {
				d.list[i].AffectsReturnValue = true
			}
			continue
		}
		e.insertion = len(d.list)
		d.list = append(d.list, e)
	}
}

func (d *Dependencies) indexOf(v VariableId) int {
	for i, e := range d.list {
		if e.Var == v {
			return i
		}
	}
	return -1
}

// addVar appends a single variable dependency.
func (d *Dependencies) addVar(v VariableId, order int, affects bool) {
	if d.SkippedDueToUnresolved != nil {
		return
	}
	if i := d.indexOf(v); i >= 0 {
		if affects && !d.list[i].AffectsReturnValue {
			d.list[i].AffectsReturnValue = true
		}
		return
	}
	d.list = append(d.list, Dep{Var: v, order: order, insertion: len(d.list), AffectsReturnValue: affects})
}

func (d *Dependencies) sortByOrder() {
	// Insertion sort: dependency lists are small, and this keeps the sort
	// stable on (order, insertion) ties without pulling in sort.Slice's
	// indirection.
	for i := 1; i < len(d.list); i++ {
		for j := i; j > 0 && depLess(d.list[j], d.list[j-1]); j-- {
			d.list[j], d.list[j-1] = d.list[j-1], d.list[j]
		}
	}
}

func depLess(a, b Dep) bool {
	if a.order != b.order {
		return a.order < b.order
	}
	return a.insertion < b.insertion
}

// depResolver carries the per-call recursion stack, §4.2 and §5's
// dep_res_stack. It is pure, in-process state released on every return
// path — never stored on *Store.
type depResolver struct {
	s     *Store
	stack map[ItemId]bool
}

// Dependencies computes the free-variable set of id (§4.2).
func (s *Store) Dependencies(id ItemId) Dependencies {
	r := &depResolver{s: s, stack: map[ItemId]bool{}}
	return r.deps(id)
}

func (r *depResolver) deps(id ItemId) Dependencies {
	if r.s.IsResolvable(id) {
		return Dependencies{SkippedDueToUnresolved: errors.Newf(token.NoPos, "unresolved item %d", id)}
	}
	if r.stack[id] {
		return Dependencies{SkippedDueToRecursion: map[ItemId]bool{id: true}}
	}
	r.stack[id] = true
	defer delete(r.stack, id)

	out := r.computeFor(id)
	delete(out.SkippedDueToRecursion, id)
	out.sortByOrder()
	return out
}

func (r *depResolver) computeFor(id ItemId) Dependencies {
	var out Dependencies
	switch x := r.s.Def(id).(type) {
	case Variable:
		out.addVar(x.Var, x.Order, true)
		for _, inv := range x.Invariants {
			out.append(r.deps(inv))
		}
		for _, dep := range x.Dependencies {
			out.append(r.deps(dep))
		}

	case Unique, BuiltinValue:
		// empty

	case Axiom:
		out.append(r.deps(x.Statement))

	case Struct:
		out.append(r.deps(x.Value))
		out.append(r.deps(x.Rest))

	case AtomicMember:
		out.append(r.deps(x.Base))

	case Decision:
		out.append(r.deps(x.L))
		out.append(r.deps(x.R))
		out.append(r.deps(x.Eq))
		out.append(r.deps(x.Neq))

	case Substitution:
		base := r.deps(x.Base)
		for _, d := range base.list {
			if val, ok := x.lookup(d.Var); ok {
				repl := r.deps(val)
				filtered := repl
				filtered.list = nil
				for _, rd := range repl.list {
					if d.Swallow != nil && d.Swallow[rd.Var] {
						continue
					}
					filtered.list = append(filtered.list, rd)
				}
				out.append(filtered)
			} else {
				single := Dependencies{list: []Dep{d}}
				out.append(single)
			}
		}
		if base.SkippedDueToUnresolved != nil {
			out.SkippedDueToUnresolved = base.SkippedDueToUnresolved
		}
		for id := range base.SkippedDueToRecursion {
			if out.SkippedDueToRecursion == nil {
				out.SkippedDueToRecursion = map[ItemId]bool{}
			}
			out.SkippedDueToRecursion[id] = true
		}
		for _, inv := range x.Invs {
			out.append(r.deps(inv))
		}

	case WithDependencies:
		base := r.deps(x.Base)
		out = reorderByPriority(r.s, base, x.Prio)

	case IsPopulatedStruct:
		out.append(r.deps(x.Base))

	case PrimitiveOperation:
		out.append(r.deps(x.Lhs))
		out.append(r.deps(x.Rhs))

	case Other:
		if x.Recursive {
			out.SkippedDueToRecursion = map[ItemId]bool{x.Target: true}
		} else {
			out.append(r.deps(x.Target))
		}

	default:
		panic("adt: unhandled Node variant in Dependencies")
	}
	return out
}

// reorderByPriority implements WithDependencies' reordering rule: the
// variables named by prio (items expected to be Variables) come first, in
// the order given, followed by the rest of base's deps in their own
// order. A prio entry absent from base, when base carries no error, is
// silently dropped (§9, open question (b)).
func reorderByPriority(s *Store, base Dependencies, prio []ItemId) Dependencies {
	out := Dependencies{
		SkippedDueToRecursion:  base.SkippedDueToRecursion,
		SkippedDueToUnresolved: base.SkippedDueToUnresolved,
	}
	seen := map[VariableId]bool{}
	for _, p := range prio {
		v, ok := s.Def(s.Dereference(p)).(Variable)
		if !ok {
			continue
		}
		if d, ok := base.find(v.Var); ok {
			out.list = append(out.list, d)
			seen[v.Var] = true
		}
		// else: silently dropped, per spec.
	}
	for _, d := range base.list {
		if seen[d.Var] {
			continue
		}
		out.list = append(out.list, d)
	}
	// This reordering is the final shape of the set: pin order/insertion
	// to the new positions so the generic (order, insertion) totalisation
	// in deps() does not undo the requested priority.
	for i := range out.list {
		out.list[i].order = i
		out.list[i].insertion = i
	}
	return out
}
