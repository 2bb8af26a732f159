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

// This file is the Substituter, §4.3. Substitute is the checked,
// public entry point: it builds a lazy Substitution term and attaches the
// assignment-justification obligations the invariant engine must later
// discharge. uncheckedSubstitution performs the actual structural rewrite —
// recursing into a definition and replacing free VariableId occurrences —
// and is also reused internally by reduce.go and equality.go, which is why
// calls out that it "skips the assignment justifications".

// Substitute builds base with vars replaced by vals (parallel slices,
// preserving the order they were given in). The result is interned via
// Insert, so calling Substitute twice with equal arguments returns the same
// id. Each bound variable also contributes an assignment-justification
// requirement: a proposition that its value satisfies the invariants
// declared on the variable, expressed by replacing the variable's own SELF
// reference with the value inside each declared invariant.
func (s *Store) Substitute(base ItemId, vars []VariableId, vals []ItemId) (ItemId, errors.Error) {
	if len(vars) == 0 {
		return base, nil
	}
	invs, err := s.assignmentObligations(vars, vals)
	if err != nil {
		return 0, err
	}
	return s.Insert(Substitution{Base: base, Vars: vars, Vals: vals, Invs: invs}, Root()), nil
}

// assignmentObligations builds one obligation statement per declared
// invariant of each bound variable: the invariant with the variable's own
// SELF reference (i.e. its own item id) replaced by the bound value. A
// variable with no declared invariants contributes none.
func (s *Store) assignmentObligations(vars []VariableId, vals []ItemId) ([]ItemId, errors.Error) {
	var out []ItemId
	for i, v := range vars {
		target, ok := s.varItemId(v)
		if !ok {
			return nil, errors.Newf(token.NoPos, "substitution names unknown variable %d", v)
		}
		decl, ok := s.Def(target).(Variable)
		if !ok {
			return nil, errors.Newf(token.NoPos, "substitution target %d is not a variable", v)
		}
		memo := map[ItemId]ItemId{}
		for _, inv := range decl.Invariants {
			out = append(out, replaceItemRef(s, inv, target, vals[i], memo))
		}
	}
	return out, nil
}

// replaceItemRef rewrites id, replacing every occurrence of the item from
// with to. Unlike uncheckedSubstitution, this operates on item identity
// rather than VariableId, because SELF references resolve to the variable's
// own item id (§4.7), not to a free Variable occurrence of its VariableId.
func replaceItemRef(s *Store, id, from, to ItemId, memo map[ItemId]ItemId) ItemId {
	if id == from {
		return to
	}
	if v, ok := memo[id]; ok {
		return v
	}
	if s.IsResolvable(id) {
		return id
	}
	rewrite := func(child ItemId) ItemId { return replaceItemRef(s, child, from, to, memo) }

	var result ItemId
	switch x := s.Def(id).(type) {
	case Variable:
		result = id // a variable's own identity can't contain `from` as a sub-item other than via its own fields; leave the binder alone and let callers target invariants directly.
	case Unique, BuiltinValue:
		result = id
	case Axiom:
		n := rewrite(x.Statement)
		if n == x.Statement {
			result = id
		} else {
			result = s.Insert(Axiom{Statement: n}, Root())
		}
	case Struct:
		v, r := rewrite(x.Value), rewrite(x.Rest)
		if v == x.Value && r == x.Rest {
			result = id
		} else {
			result = s.Insert(Struct{Label: x.Label, Value: v, Rest: r}, Root())
		}
	case AtomicMember:
		b := rewrite(x.Base)
		if b == x.Base {
			result = id
		} else {
			result = s.Insert(AtomicMember{Base: b, Which: x.Which}, Root())
		}
	case Decision:
		l, r, eq, neq := rewrite(x.L), rewrite(x.R), rewrite(x.Eq), rewrite(x.Neq)
		if l == x.L && r == x.R && eq == x.Eq && neq == x.Neq {
			result = id
		} else {
			result = s.Insert(Decision{L: l, R: r, Eq: eq, Neq: neq}, Root())
		}
	case Substitution:
		b := rewrite(x.Base)
		vals := make([]ItemId, len(x.Vals))
		changed := b != x.Base
		for i, val := range x.Vals {
			vals[i] = rewrite(val)
			changed = changed || vals[i] != val
		}
		if !changed {
			result = id
		} else {
			result = s.Insert(Substitution{Base: b, Vars: x.Vars, Vals: vals, Invs: x.Invs}, Root())
		}
	case WithDependencies:
		b := rewrite(x.Base)
		prio := make([]ItemId, len(x.Prio))
		changed := b != x.Base
		for i, p := range x.Prio {
			prio[i] = rewrite(p)
			changed = changed || prio[i] != p
		}
		if !changed {
			result = id
		} else {
			result = s.Insert(WithDependencies{Base: b, Prio: prio}, Root())
		}
	case IsPopulatedStruct:
		b := rewrite(x.Base)
		if b == x.Base {
			result = id
		} else {
			result = s.Insert(IsPopulatedStruct{Base: b}, Root())
		}
	case PrimitiveOperation:
		l, r := rewrite(x.Lhs), rewrite(x.Rhs)
		if l == x.Lhs && r == x.Rhs {
			result = id
		} else {
			result = s.Insert(PrimitiveOperation{Op: x.Op, Lhs: l, Rhs: r}, Root())
		}
	case Other:
		if x.Recursive {
			result = id
		} else {
			result = rewrite(x.Target)
		}
	default:
		panic("adt: unhandled Node variant in replaceItemRef")
	}
	memo[id] = result
	return result
}

// uncheckedSubstitution performs the structural rewrite of base with vars
// bound to vals, without attaching any assignment-justification obligation.
// It is the primitive reduce.go forces a Substitution term down to, and the
// one equality.go's substitution dispatcher reasons about directly.
func (s *Store) uncheckedSubstitution(base ItemId, vars []VariableId, vals []ItemId) (ItemId, errors.Error) {
	if len(vars) == 0 {
		return base, nil
	}
	memo := map[ItemId]ItemId{}
	return applySubst(s, base, vars, vals, memo)
}

func applySubst(s *Store, id ItemId, vars []VariableId, vals []ItemId, memo map[ItemId]ItemId) (ItemId, errors.Error) {
	if v, ok := memo[id]; ok {
		return v, nil
	}
	if s.IsResolvable(id) {
		return 0, errors.Newf(token.NoPos, "substitution over unresolved item %d", id)
	}

	rewrite := func(child ItemId) (ItemId, errors.Error) {
		return applySubst(s, child, vars, vals, memo)
	}

	var result ItemId
	var err errors.Error

	switch x := s.Def(id).(type) {
	case Variable:
		val, bound := lookupVar(vars, vals, x.Var)
		if !bound {
			result = id
			break
		}
		if len(x.Dependencies) == 0 {
			result = val
			break
		}
		valDeps := s.Dependencies(val)
		if valDeps.SkippedDueToUnresolved != nil {
			err = valDeps.SkippedDueToUnresolved
			break
		}
		if len(valDeps.Slice()) != len(x.Dependencies) {
			err = errors.Newf(token.NoPos, "substitution arity mismatch: variable %d declares %d dependencies, value has %d", x.Var, len(x.Dependencies), len(valDeps.Slice()))
			break
		}
		renameVars := make([]VariableId, len(x.Dependencies))
		renameVals := make([]ItemId, len(x.Dependencies))
		for i, d := range valDeps.Slice() {
			renameVars[i] = d.Var
			renameVals[i] = x.Dependencies[i]
		}
		result = s.Insert(Substitution{Base: val, Vars: renameVars, Vals: renameVals}, Root())

	case Unique, BuiltinValue:
		result = id

	case Axiom:
		var n ItemId
		n, err = rewrite(x.Statement)
		if err == nil {
			result = reinsertIfChanged(s, id, n == x.Statement, Axiom{Statement: n})
		}

	case Struct:
		var v, r ItemId
		if v, err = rewrite(x.Value); err == nil {
			if r, err = rewrite(x.Rest); err == nil {
				result = reinsertIfChanged(s, id, v == x.Value && r == x.Rest, Struct{Label: x.Label, Value: v, Rest: r})
			}
		}

	case AtomicMember:
		var b ItemId
		if b, err = rewrite(x.Base); err == nil {
			result = reinsertIfChanged(s, id, b == x.Base, AtomicMember{Base: b, Which: x.Which})
		}

	case Decision:
		var l, r, eq, neq ItemId
		if l, err = rewrite(x.L); err == nil {
			if r, err = rewrite(x.R); err == nil {
				if eq, err = rewrite(x.Eq); err == nil {
					if neq, err = rewrite(x.Neq); err == nil {
						result = reinsertIfChanged(s, id, l == x.L && r == x.R && eq == x.Eq && neq == x.Neq,
							Decision{L: l, R: r, Eq: eq, Neq: neq})
					}
				}
			}
		}

	case Substitution:
		result, err = fuseSubstitution(s, x, vars, vals, memo)

	case WithDependencies:
		var b ItemId
		if b, err = rewrite(x.Base); err == nil {
			prio := make([]ItemId, len(x.Prio))
			changed := b != x.Base
			for i, p := range x.Prio {
				var np ItemId
				if np, err = rewrite(p); err != nil {
					break
				}
				prio[i] = np
				changed = changed || np != p
			}
			if err == nil {
				result = reinsertIfChanged(s, id, !changed, WithDependencies{Base: b, Prio: prio})
			}
		}

	case IsPopulatedStruct:
		var b ItemId
		if b, err = rewrite(x.Base); err == nil {
			result = reinsertIfChanged(s, id, b == x.Base, IsPopulatedStruct{Base: b})
		}

	case PrimitiveOperation:
		var l, r ItemId
		if l, err = rewrite(x.Lhs); err == nil {
			if r, err = rewrite(x.Rhs); err == nil {
				result = reinsertIfChanged(s, id, l == x.Lhs && r == x.Rhs, PrimitiveOperation{Op: x.Op, Lhs: l, Rhs: r})
			}
		}

	case Other:
		if x.Recursive {
			result = id
		} else {
			result, err = rewrite(x.Target)
		}

	default:
		panic("adt: unhandled Node variant in uncheckedSubstitution")
	}

	if err != nil {
		return 0, err
	}
	memo[id] = result
	return result, nil
}

// fuseSubstitution applies an outer substitution to a nested Substitution
// term. Variables the inner term already binds (x.Vars) shadow the outer
// substitution inside Base, so the outer map is only pushed into the
// inner's bound values; any outer variable not shadowed is appended as an
// extra binding applied to the same Base, giving a single-layer
// Substitution. The inner term's Invs are not carried over.
func fuseSubstitution(s *Store, x Substitution, vars []VariableId, vals []ItemId, memo map[ItemId]ItemId) (ItemId, errors.Error) {
	newVals := make([]ItemId, len(x.Vals))
	for i, val := range x.Vals {
		nv, err := applySubst(s, val, vars, vals, memo)
		if err != nil {
			return 0, err
		}
		newVals[i] = nv
	}
	newVars := append([]VariableId(nil), x.Vars...)
	newVals2 := append([]ItemId(nil), newVals...)
	for i, v := range vars {
		if containsVar(x.Vars, v) {
			continue
		}
		newVars = append(newVars, v)
		newVals2 = append(newVals2, vals[i])
	}
	if len(newVars) == 0 {
		return x.Base, nil
	}
	return s.Insert(Substitution{Base: x.Base, Vars: newVars, Vals: newVals2}, Root()), nil
}

func containsVar(vars []VariableId, v VariableId) bool {
	for _, w := range vars {
		if w == v {
			return true
		}
	}
	return false
}

func lookupVar(vars []VariableId, vals []ItemId, v VariableId) (ItemId, bool) {
	for i, w := range vars {
		if w == v {
			return vals[i], true
		}
	}
	return 0, false
}

// reinsertIfChanged returns id unchanged when unchanged is true, otherwise
// interns def as a fresh item. Used by every structural case of
// uncheckedSubstitution to avoid reinterning subtrees the substitution did
// not actually touch.
func reinsertIfChanged(s *Store, id ItemId, unchanged bool, def Node) ItemId {
	if unchanged {
		return id
	}
	return s.Insert(def, Root())
}
