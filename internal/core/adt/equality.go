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

// This file is the definitional equality engine, §4.5. Equal
// answers whether two items denote the same value, within a recursion
// budget, and — when they do because one side is an unbound variable —
// which substitution would witness it. The dispatcher tries, in order:
// identity, variable binding, the substitution forcer, then a structural
// comparison of matching head shapes; anything it cannot decide within
// budget comes back Unknown or NeedsHigherLimit rather than guessing.

// EqualKind tags which of the four outcomes §4.5 allows.
type EqualKind uint8

const (
	EUnknown EqualKind = iota
	EYes
	ENo
	ENeedsHigherLimit
)

// Substitutions is the ordered variable-to-item binding Equal discovers
// when one side of a comparison is an unbound Variable.
type Substitutions struct {
	Vars []VariableId
	Vals []ItemId
}

func (su Substitutions) lookup(v VariableId) (ItemId, bool) {
	for i, w := range su.Vars {
		if w == v {
			return su.Vals[i], true
		}
	}
	return 0, false
}

func (su Substitutions) bind(v VariableId, val ItemId) Substitutions {
	return Substitutions{Vars: append(append([]VariableId(nil), su.Vars...), v), Vals: append(append([]ItemId(nil), su.Vals...), val)}
}

// mergeSubstitutions combines two Substitutions sets, conflict meaning "a
// variable occurs bound to two different items in the two operands"; a
// conflict makes the merge fail.
func mergeSubstitutions(a, b Substitutions) (Substitutions, bool) {
	out := Substitutions{Vars: append([]VariableId(nil), a.Vars...), Vals: append([]ItemId(nil), a.Vals...)}
	for i, v := range b.Vars {
		if existing, ok := out.lookup(v); ok {
			if existing != b.Vals[i] {
				return Substitutions{}, false
			}
			continue
		}
		out.Vars = append(out.Vars, v)
		out.Vals = append(out.Vals, b.Vals[i])
	}
	return out, true
}

// Equal is the result of a definitional-equality query.
type Equal struct {
	Kind  EqualKind
	LSubs Substitutions
	RSubs Substitutions
}

func (e Equal) isYes() bool { return e.Kind == EYes }

// Unknown, No, NeedsHigherLimit are the three substitution-free outcomes;
// Yes always carries the bindings discovered to produce it, so it is built
// with yesEqual rather than exposed as a bare value.
var (
	Unknown          = Equal{Kind: EUnknown}
	No               = Equal{Kind: ENo}
	NeedsHigherLimit = Equal{Kind: ENeedsHigherLimit}
)

func yesEqual(l, r Substitutions) Equal {
	return Equal{Kind: EYes, LSubs: l, RSubs: r}
}

// and is the conjunction combinator (§4.5): both sides must hold, and their
// discovered bindings must agree.
func (a Equal) and(b Equal) Equal {
	if a.Kind == ENo || b.Kind == ENo {
		return No
	}
	if a.Kind == EYes && b.Kind == EYes {
		l, ok := mergeSubstitutions(a.LSubs, b.LSubs)
		if !ok {
			return No
		}
		r, ok := mergeSubstitutions(a.RSubs, b.RSubs)
		if !ok {
			return No
		}
		return yesEqual(l, r)
	}
	if a.Kind == ENeedsHigherLimit || b.Kind == ENeedsHigherLimit {
		return NeedsHigherLimit
	}
	return Unknown
}

// or is the disjunction combinator: either side holding is enough.
func (a Equal) or(b Equal) Equal {
	if a.Kind == EYes {
		return a
	}
	if b.Kind == EYes {
		return b
	}
	if a.Kind == ENo && b.Kind == ENo {
		return No
	}
	if a.Kind == ENeedsHigherLimit || b.Kind == ENeedsHigherLimit {
		return NeedsHigherLimit
	}
	return Unknown
}

// eqResolver carries the recursion guard for one top-level Equal call; the
// remaining budget is passed down by value as equal's limit argument.
type eqResolver struct {
	s     *Store
	stack map[[2]ItemId]bool
}

// Equal reports whether a and b denote the same value, spending at most
// limit levels of recursive comparison before giving up with
// NeedsHigherLimit.
func (s *Store) Equal(a, b ItemId, limit uint32) Equal {
	r := &eqResolver{s: s, stack: map[[2]ItemId]bool{}}
	return r.equal(a, b, limit)
}

func pairKey(a, b ItemId) [2]ItemId {
	if a <= b {
		return [2]ItemId{a, b}
	}
	return [2]ItemId{b, a}
}

func (r *eqResolver) equal(a, b ItemId, limit uint32) Equal {
	s := r.s
	if s.Trace {
		defer s.enter("equal %s %s (limit %d)", s.debugRef(a), s.debugRef(b), limit)()
	}
	if s.IsResolvable(a) || s.IsResolvable(b) {
		return Unknown
	}

	wa, errA := s.Reduce(a)
	wb, errB := s.Reduce(b)
	if errA != nil || errB != nil {
		return Unknown
	}
	ida := s.Dereference(wa)
	idb := s.Dereference(wb)

	// Identity.
	if ida == idb {
		return yesEqual(Substitutions{}, Substitutions{})
	}

	// Variable binding: an unbound variable on either side is equal to
	// whatever the other side turns out to be, witnessed by that binding —
	// but only when the other side's free variables do not include it (§4.5
	// step 2's occurs check); binding v to a term containing v would make the
	// substitution non-terminating and is never sound.
	if v, ok := s.Def(ida).(Variable); ok && !s.Dependencies(idb).Has(v.Var) {
		if w, ok := s.Def(idb).(Variable); ok && len(v.Dependencies) > 0 && len(v.Dependencies) == len(w.Dependencies) {
			return r.equalDependentVariables(v, w, idb)
		}
		return yesEqual(Substitutions{}.bind(v.Var, idb), Substitutions{})
	}
	if v, ok := s.Def(idb).(Variable); ok && !s.Dependencies(ida).Has(v.Var) {
		return yesEqual(Substitutions{}, Substitutions{}.bind(v.Var, ida))
	}

	if limit == 0 {
		return NeedsHigherLimit
	}

	key := pairKey(ida, idb)
	if r.stack[key] {
		return Unknown
	}
	r.stack[key] = true
	defer delete(r.stack, key)

	// Substitution dispatcher: Reduce already forces most Substitution
	// heads away, but its own recursion guard can leave one in place; give
	// it one more explicit chance here before falling back to structural
	// comparison.
	if sub, ok := s.Def(ida).(Substitution); ok {
		forced, err := s.uncheckedSubstitution(sub.Base, sub.Vars, sub.Vals)
		if err == nil && forced != ida {
			return r.equal(forced, idb, limit-1)
		}
	}
	if sub, ok := s.Def(idb).(Substitution); ok {
		forced, err := s.uncheckedSubstitution(sub.Base, sub.Vars, sub.Vals)
		if err == nil && forced != idb {
			return r.equal(ida, forced, limit-1)
		}
	}

	// WithDependencies and non-recursive Other are transparent wrappers:
	// strip them before the structural dispatcher sees them.
	if wd, ok := s.Def(ida).(WithDependencies); ok {
		return r.equal(wd.Base, idb, limit-1)
	}
	if wd, ok := s.Def(idb).(WithDependencies); ok {
		return r.equal(ida, wd.Base, limit-1)
	}

	return r.structural(ida, idb, limit)
}

// equalDependentVariables implements scenario S4 of §4.5 step 2: two bare
// variables that each declare the same number of dependencies are equal by
// pairing those dependencies up positionally, not by bluntly binding one
// variable's whole identity to the other's. Binding f to g's bare id would
// forget that a later use of f still expects g's dependency reindexed to
// f's own — Substitution(g, {y↦x}) carries that reindexing forward so
// Substitute on the result still dependency-checks.
func (r *eqResolver) equalDependentVariables(v, w Variable, wId ItemId) Equal {
	s := r.s
	lsubs := Substitutions{}
	wVars := make([]VariableId, 0, len(w.Dependencies))
	wVals := make([]ItemId, 0, len(w.Dependencies))
	for i := range v.Dependencies {
		vdep, ok := s.Def(v.Dependencies[i]).(Variable)
		if !ok {
			return yesEqual(Substitutions{}.bind(v.Var, wId), Substitutions{})
		}
		wdep, ok := s.Def(w.Dependencies[i]).(Variable)
		if !ok {
			return yesEqual(Substitutions{}.bind(v.Var, wId), Substitutions{})
		}
		lsubs = lsubs.bind(vdep.Var, w.Dependencies[i])
		wVars = append(wVars, wdep.Var)
		wVals = append(wVals, v.Dependencies[i])
	}
	sub := s.Insert(Substitution{Base: wId, Vars: wVars, Vals: wVals}, Root())
	lsubs = lsubs.bind(v.Var, sub)
	return yesEqual(lsubs, Substitutions{})
}

func (r *eqResolver) structural(ida, idb ItemId, limit uint32) Equal {
	s := r.s
	da := s.Def(ida)
	db := s.Def(idb)

	switch x := da.(type) {
	case Unique:
		if _, ok := db.(Unique); ok {
			return No // distinct ids already ruled out by identity.
		}
		return No

	case BuiltinValue:
		y, ok := db.(BuiltinValue)
		if !ok {
			return No
		}
		if x.N.Cmp(&y.N) == 0 {
			return yesEqual(Substitutions{}, Substitutions{})
		}
		return No

	case Axiom:
		y, ok := db.(Axiom)
		if !ok {
			return No
		}
		return r.equal(x.Statement, y.Statement, limit-1)

	case Struct:
		y, ok := db.(Struct)
		if !ok {
			return No
		}
		if x.Label != y.Label {
			return No
		}
		return r.equal(x.Value, y.Value, limit-1).and(r.equal(x.Rest, y.Rest, limit-1))

	case AtomicMember:
		y, ok := db.(AtomicMember)
		if !ok {
			return No
		}
		if x.Which != y.Which {
			return No
		}
		return r.equal(x.Base, y.Base, limit-1)

	case Decision:
		y, ok := db.(Decision)
		if !ok {
			return No
		}
		return r.equal(x.L, y.L, limit-1).
			and(r.equal(x.R, y.R, limit-1)).
			and(r.equal(x.Eq, y.Eq, limit-1)).
			and(r.equal(x.Neq, y.Neq, limit-1))

	case IsPopulatedStruct:
		y, ok := db.(IsPopulatedStruct)
		if !ok {
			return No
		}
		return r.equal(x.Base, y.Base, limit-1)

	case PrimitiveOperation:
		y, ok := db.(PrimitiveOperation)
		if !ok {
			return No
		}
		if x.Op != y.Op {
			return Unknown
		}
		return r.equal(x.Lhs, y.Lhs, limit-1).and(r.equal(x.Rhs, y.Rhs, limit-1))

	case Other:
		if _, ok := db.(Other); ok {
			return Unknown // two distinct recursion markers: can't compare safely.
		}
		return Unknown

	default:
		return No // distinct head shapes are never equal.
	}
}
