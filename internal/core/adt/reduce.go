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

// This file is the Reducer, §4.4: it drives a term to its weak head
// normal form — far enough that a caller can tell which variant it actually
// is, without eagerly forcing every subterm. Reduce is idempotent
// (Reduce(Reduce(x)) == Reduce(x)) and dependency-monotone (reducing never
// introduces a free variable that was not already free in the input).

// reduceResolver carries the per-call recursion guard, mirroring
// depResolver (§5: never stored on *Store).
type reduceResolver struct {
	s     *Store
	stack map[ItemId]bool
}

// Reduce computes id's weak head normal form.
func (s *Store) Reduce(id ItemId) (ItemId, errors.Error) {
	r := &reduceResolver{s: s, stack: map[ItemId]bool{}}
	return r.reduce(id)
}

func (r *reduceResolver) reduce(id ItemId) (ItemId, errors.Error) {
	if r.s.IsResolvable(id) {
		return 0, errors.Newf(token.NoPos, "reduce over unresolved item %d", id)
	}
	if r.stack[id] {
		return id, nil
	}
	r.stack[id] = true
	defer delete(r.stack, id)
	return r.reduceOnce(id)
}

func (r *reduceResolver) reduceOnce(id ItemId) (ItemId, errors.Error) {
	s := r.s
	if s.Trace {
		defer s.enter("reduce %s", s.debugRef(id))()
	}
	switch x := s.Def(id).(type) {
	case Variable, Unique, BuiltinValue, Axiom:
		// Terminal: already as reduced as these variants can be.
		return id, nil

	case Struct:
		// A Struct is already its own weak head normal form; fields are
		// reduced lazily, on demand, by whoever projects them.
		return id, nil

	case AtomicMember:
		return r.reduceAtomicMember(id, x)

	case Decision:
		return r.reduceDecision(id, x)

	case Substitution:
		return r.reduceSubstitution(x)

	case WithDependencies:
		return r.reduceWithDependencies(id, x)

	case IsPopulatedStruct:
		return r.reduceIsPopulatedStruct(x)

	case PrimitiveOperation:
		return r.reducePrimitiveOperation(id, x)

	case Other:
		if x.Recursive {
			return id, nil
		}
		return r.reduce(x.Target)

	default:
		panic("adt: unhandled Node variant in Reduce")
	}
}

func (r *reduceResolver) reduceAtomicMember(id ItemId, x AtomicMember) (ItemId, errors.Error) {
	s := r.s
	base, err := r.reduce(x.Base)
	if err != nil {
		return 0, err
	}
	if st, ok := s.Def(s.Dereference(base)).(Struct); ok {
		switch x.Which {
		case Value:
			return r.reduce(st.Value)
		case Rest:
			return r.reduce(st.Rest)
		case Label:
			// Struct labels are compile-time names, not arena items; there
			// is no term to project them into (leaves this open).
			return reinsertIfChanged(s, id, base == x.Base, AtomicMember{Base: base, Which: x.Which}), nil
		}
	}
	return reinsertIfChanged(s, id, base == x.Base, AtomicMember{Base: base, Which: x.Which}), nil
}

func (r *reduceResolver) reduceDecision(id ItemId, x Decision) (ItemId, errors.Error) {
	s := r.s
	l, err := r.reduce(x.L)
	if err != nil {
		return 0, err
	}
	rr, err := r.reduce(x.R)
	if err != nil {
		return 0, err
	}
	eq := s.Equal(l, rr, s.DefaultLimit)
	switch {
	case eq.Kind == EYes && len(eq.LSubs.Vars) == 0 && len(eq.RSubs.Vars) == 0:
		// Equal without binding anything: the operands are trivially equal.
		return r.reduce(x.Eq)
	case eq.Kind == ENo:
		return r.reduce(x.Neq)
	default:
		// Unknown, NeedsHigherLimit, or equal only under a substitution.
		return reinsertIfChanged(s, id, l == x.L && rr == x.R, Decision{L: l, R: rr, Eq: x.Eq, Neq: x.Neq}), nil
	}
}

func (r *reduceResolver) reduceSubstitution(x Substitution) (ItemId, errors.Error) {
	s := r.s
	base, err := r.reduce(x.Base)
	if err != nil {
		return 0, err
	}
	applied, err := s.uncheckedSubstitution(base, x.Vars, x.Vals)
	if err != nil {
		return 0, err
	}
	return r.reduce(applied)
}

func (r *reduceResolver) reduceWithDependencies(id ItemId, x WithDependencies) (ItemId, errors.Error) {
	s := r.s
	base, err := r.reduce(x.Base)
	if err != nil {
		return 0, err
	}
	deps := s.Dependencies(base)
	if deps.SkippedDueToUnresolved == nil && withDependenciesIsNoOp(s, deps, x.Prio) {
		return base, nil
	}
	return reinsertIfChanged(s, id, base == x.Base, WithDependencies{Base: base, Prio: x.Prio}), nil
}

// withDependenciesIsNoOp reports whether reordering deps by prio would not
// change deps' existing order, i.e. the prefix of deps already named by
// prio (skipping prio entries that are not among deps, as reorderByPriority
// does) already appears first and in the given order.
func withDependenciesIsNoOp(s *Store, deps Dependencies, prio []ItemId) bool {
	list := deps.Slice()
	i := 0
	for _, p := range prio {
		v, ok := s.Def(s.Dereference(p)).(Variable)
		if !ok {
			continue
		}
		if i >= len(list) || list[i].Var != v.Var {
			return false
		}
		i++
	}
	return true
}

func (r *reduceResolver) reduceIsPopulatedStruct(x IsPopulatedStruct) (ItemId, errors.Error) {
	s := r.s
	base, err := r.reduce(x.Base)
	if err != nil {
		return 0, err
	}
	def := s.Def(s.Dereference(base))
	switch def.(type) {
	case Struct:
		return s.LanguageItem("true")
	case Variable, Decision, AtomicMember, WithDependencies, IsPopulatedStruct, PrimitiveOperation:
		// Still abstract, or another predicate: cannot decide yet.
		return s.Insert(IsPopulatedStruct{Base: base}, Root()), nil
	default:
		return s.LanguageItem("false")
	}
}

func (r *reduceResolver) reducePrimitiveOperation(id ItemId, x PrimitiveOperation) (ItemId, errors.Error) {
	s := r.s
	lhs, err := r.reduce(x.Lhs)
	if err != nil {
		return 0, err
	}
	rhs, err := r.reduce(x.Rhs)
	if err != nil {
		return 0, err
	}
	_, lok := s.Def(s.Dereference(lhs)).(BuiltinValue)
	_, rok := s.Def(s.Dereference(rhs)).(BuiltinValue)
	if lok && rok {
		return s.evalPrimitiveOperation(x.Op, lhs, rhs)
	}
	return reinsertIfChanged(s, id, lhs == x.Lhs && rhs == x.Rhs, PrimitiveOperation{Op: x.Op, Lhs: lhs, Rhs: rhs}), nil
}
