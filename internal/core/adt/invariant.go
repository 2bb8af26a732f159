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

// This file is the invariant/justification engine, §4.6: it
// collects the facts a term generates (an Axiom's statement, a Variable's
// declared invariants, a Substitution's assignment obligations) into an
// InvariantSet, and searches the scope chain, plus the ambient auto-theorem
// pool, for a witness that a given statement holds.

// InvariantSet is everything the kernel knows an item asserts (§3.3):
// Statements are facts taken as already established; Requirements are
// obligations that must themselves be justified before the item they came
// from can be trusted (produced, for example, by a Substitution's
// assignment obligations — §4.3). Required and ConnectedToRoot back
// JustifyAll's batch fixed point: a set is Required when it actually has
// obligations to discharge, and ConnectedToRoot once every one of them has
// been (directly, or because the set is itself a justified recursive
// obligation).
type InvariantSet struct {
	Context         ItemId
	Statements      []ItemId
	Requirements    []ItemId
	Required        bool
	ConnectedToRoot bool

	// directlyJustified is set by JustifyAll's per-limit pass and consumed by
	// propagateRootConnectedness; it never escapes this file.
	directlyJustified bool
}

// GeneratedInvariants computes id's InvariantSet, caching the result on its
// slot (§3.4.4) and registering it with the store's program-wide set
// registry when it carries obligations JustifyAll must eventually discharge.
func (s *Store) GeneratedInvariants(id ItemId) InvariantSet {
	sl := s.slot(id)
	if sl.cachedInvariants != nil {
		return *sl.cachedInvariants
	}
	computed := s.computeInvariants(id, map[ItemId]bool{})
	out := &InvariantSet{
		Context:         id,
		Statements:      computed.Statements,
		Requirements:    computed.Requirements,
		Required:        len(computed.Requirements) > 0,
		ConnectedToRoot: len(computed.Requirements) == 0,
	}
	sl.cachedInvariants = out
	if out.Required {
		s.invariantSets = append(s.invariantSets, out)
	}
	return *out
}

func (s *Store) computeInvariants(id ItemId, stack map[ItemId]bool) InvariantSet {
	if s.IsResolvable(id) || stack[id] {
		return InvariantSet{}
	}
	stack[id] = true
	defer delete(stack, id)

	switch x := s.Def(id).(type) {
	case Axiom:
		return InvariantSet{Statements: []ItemId{x.Statement}}

	case Variable:
		return InvariantSet{Statements: append([]ItemId(nil), x.Invariants...)}

	case Struct:
		return mergeInvariantSets(s.computeInvariants(x.Value, stack), s.computeInvariants(x.Rest, stack))

	case AtomicMember:
		return s.computeInvariants(x.Base, stack)

	case Substitution:
		base := s.computeInvariants(x.Base, stack)
		memo := map[ItemId]ItemId{}
		stmts := make([]ItemId, len(base.Statements))
		for i, stmt := range base.Statements {
			applied, err := applySubst(s, stmt, x.Vars, x.Vals, memo)
			if err != nil {
				stmts[i] = stmt
				continue
			}
			stmts[i] = applied
		}
		reqs := make([]ItemId, len(base.Requirements))
		for i, req := range base.Requirements {
			applied, err := applySubst(s, req, x.Vars, x.Vals, memo)
			if err != nil {
				reqs[i] = req
				continue
			}
			reqs[i] = applied
		}
		reqs = append(reqs, x.Invs...)
		return InvariantSet{Statements: stmts, Requirements: reqs}

	case WithDependencies:
		return s.computeInvariants(x.Base, stack)

	case Other:
		if x.Recursive {
			return InvariantSet{}
		}
		return s.computeInvariants(x.Target, stack)

	case Unique, BuiltinValue, Decision, IsPopulatedStruct, PrimitiveOperation:
		return InvariantSet{}

	default:
		panic("adt: unhandled Node variant in GeneratedInvariants")
	}
}

func mergeInvariantSets(a, b InvariantSet) InvariantSet {
	return InvariantSet{
		Statements:   append(append([]ItemId(nil), a.Statements...), b.Statements...),
		Requirements: append(append([]ItemId(nil), a.Requirements...), b.Requirements...),
	}
}

// JustifyOutcome is the failure taxonomy §4.6/§9 distinguishes:
// a statement can hold, definitely not hold, merely not be provable with
// the budget and facts at hand, or be blocked on an unresolved item.
type JustifyOutcome uint8

const (
	Justified JustifyOutcome = iota
	DefinitelyNotJustified
	MightNotBeJustified
	UnresolvedJustification
)

// JustifyResult reports whether a statement holds in a scope, and, when it
// does, the fact that witnessed it.
type JustifyResult struct {
	Outcome JustifyOutcome
	Witness ItemId
}

type justifyResolver struct {
	s     *Store
	stack map[ItemId]bool // statements currently being justified (recursive-justification detection).
}

// Justify searches sc and its ancestors, plus the auto-theorem pool, for a
// fact definitionally equal to statement, spending at most limit levels of
// equality recursion per candidate.
func (s *Store) Justify(sc Scope, statement ItemId, limit uint32) JustifyResult {
	r := &justifyResolver{s: s, stack: map[ItemId]bool{}}
	return r.justify(sc, statement, limit)
}

// justify implements §4.6's justify(statement, context, limit): try
// producedInvariant; if it matched with no left substitutions left open,
// accept outright. Otherwise search the auto-theorem pool for a generated
// invariant definitionally equal to statement under some substitution σ,
// recursively discharging, for every (t, v) ∈ σ, each of t's own invariants
// rewritten by σ — the obligation a non-trivial schema match incurs.
func (r *justifyResolver) justify(sc Scope, statement ItemId, limit uint32) JustifyResult {
	s := r.s
	if s.Trace {
		defer s.enter("justify %s (limit %d)", s.debugRef(statement), limit)()
	}
	if s.IsResolvable(statement) {
		return JustifyResult{Outcome: UnresolvedJustification}
	}
	key := s.Dereference(statement)
	if r.stack[key] {
		// Recursive justification (§4.6): proving this statement bottomed out
		// by needing itself again under the substitutions accumulated so
		// far. Accept this once rather than looping; the enclosing
		// frame is what ultimately gets marked connected_to_root.
		return JustifyResult{Outcome: Justified, Witness: statement}
	}

	if eq, inv, ok := s.producedInvariant(sc, statement, limit); ok && len(eq.LSubs.Vars) == 0 {
		return JustifyResult{Outcome: Justified, Witness: inv}
	}

	r.stack[key] = true
	defer delete(r.stack, key)

	if w, ok := r.searchAutoTheorems(sc, statement, limit); ok {
		return JustifyResult{Outcome: Justified, Witness: w}
	}

	if sc.HasParent {
		return r.justify(s.slot(sc.Parent).scope, statement, limit)
	}

	if limit == 0 {
		return JustifyResult{Outcome: MightNotBeJustified}
	}
	return JustifyResult{Outcome: DefinitelyNotJustified}
}

// producedInvariant implements §4.6's produced_invariant: the
// best-matching generated invariant of the scope's local context (fewest
// left substitutions, no right substitutions at all — a right substitution
// would mean the candidate itself is only conditionally true), falling back
// to the scope's own local_lookup_invariant when no local fact matches.
func (s *Store) producedInvariant(sc Scope, statement ItemId, limit uint32) (Equal, ItemId, bool) {
	var best Equal
	var bestInv ItemId
	found := false
	for _, inv := range s.localFacts(sc) {
		eq := s.Equal(inv, statement, limit)
		if !eq.isYes() || len(eq.RSubs.Vars) > 0 {
			continue
		}
		if !found || len(eq.LSubs.Vars) < len(best.LSubs.Vars) {
			best, bestInv, found = eq, inv, true
		}
	}
	if found {
		return best, bestInv, true
	}
	if eq, ok := s.LocalLookupInvariant(sc, statement, limit); ok {
		return eq, statement, true
	}
	return Equal{}, 0, false
}

// searchAutoTheorems is the auto-theorem half of justify: find a generated
// invariant of some elevated theorem definitionally equal to statement under
// a substitution σ, then recursively justify, for every (t, v) ∈ σ in turn,
// each of t's declared invariants rewritten by σ as it is built up so far.
func (r *justifyResolver) searchAutoTheorems(sc Scope, statement ItemId, limit uint32) (ItemId, bool) {
	s := r.s
	if limit == 0 {
		return 0, false
	}
	for _, theorem := range s.AutoTheorems() {
		for _, inv := range s.GeneratedInvariants(theorem).Statements {
			eq := s.Equal(inv, statement, limit-1)
			if !eq.isYes() {
				continue
			}
			if len(eq.LSubs.Vars) == 0 {
				return inv, true
			}
			if r.dischargeSubstitutionObligations(sc, eq.LSubs, limit) {
				return inv, true
			}
		}
	}
	return 0, false
}

// dischargeSubstitutionObligations is §4.6's "recursively justify, for every
// (t, v) ∈ σ, each of t's invariants rewritten by σ": σ is built up one
// binding at a time so each obligation sees every binding discovered before
// it, matching the schema-matching behaviour the original substitution
// would have produced.
func (r *justifyResolver) dischargeSubstitutionObligations(sc Scope, sigma Substitutions, limit uint32) bool {
	s := r.s
	built := Substitutions{}
	for i, t := range sigma.Vars {
		built = built.bind(t, sigma.Vals[i])
		varItem, ok := s.varItemId(t)
		if !ok {
			continue
		}
		decl, ok := s.Def(varItem).(Variable)
		if !ok {
			continue
		}
		for _, invv := range decl.Invariants {
			rewritten, err := s.uncheckedSubstitution(invv, built.Vars, built.Vals)
			if err != nil {
				rewritten = invv
			}
			if r.justify(sc, rewritten, limit-1).Outcome != Justified {
				return false
			}
		}
	}
	return true
}

// localFacts returns the statements a scope makes directly available: the
// generated invariants of whatever item the scope is local to, if any.
func (s *Store) localFacts(sc Scope) []ItemId {
	switch sc.Kind {
	case ScopeField, ScopeFieldAndRest:
		return s.GeneratedInvariants(sc.StructItem).Statements
	case ScopeVariableInvariants:
		return s.GeneratedInvariants(sc.VarItem).Statements
	case ScopeWithInvariant:
		return []ItemId{sc.Invariant}
	default:
		return nil
	}
}

// JustifyEscalating retries Justify against a single statement with an
// escalating recursion limit, stopping as soon as the outcome is no longer
// budget-limited or a small number of escalations have been tried. This is
// a convenience single-statement helper, not §4.6's batch justify_all (see
// JustifyAll for that).
func (s *Store) JustifyEscalating(sc Scope, statement ItemId) JustifyResult {
	limit := s.DefaultLimit
	if limit == 0 {
		limit = 8
	}
	var last JustifyResult
	for i := 0; i < 4; i++ {
		last = s.Justify(sc, statement, limit)
		if last.Outcome != MightNotBeJustified {
			return last
		}
		limit *= 2
	}
	return last
}

// JustifyAllFailure names one required invariant set that JustifyAll could
// not connect to the root within the limit ceiling (§4.6 batch entry point,
// step 3: "fail at MAX otherwise, reporting each unconnected required set").
type JustifyAllFailure struct {
	Context      ItemId
	Statements   []ItemId
	Requirements []ItemId
}

// JustifyAll is §4.6's batch entry point: for limit = 0, 1, 2, … MAX, every
// non-root-connected required invariant set registered with the store is
// (re)justified at that limit; a fixed-point root-connectedness propagation
// pass then runs over every registered set. It stops as soon as every
// required set is connected, and otherwise, at MAX, reports each one that
// still isn't.
func (s *Store) JustifyAll() []JustifyAllFailure {
	const maxLimit = 8
	for limit := uint32(0); limit < maxLimit; limit++ {
		for _, set := range s.invariantSets {
			if !set.Required || set.ConnectedToRoot {
				continue
			}
			sc := s.slot(set.Context).scope
			allJustified := true
			for _, req := range set.Requirements {
				if s.Justify(sc, req, limit).Outcome != Justified {
					allJustified = false
				}
			}
			set.directlyJustified = allJustified
		}
		s.propagateRootConnectedness()

		var failures []JustifyAllFailure
		for _, set := range s.invariantSets {
			if set.Required && !set.ConnectedToRoot {
				failures = append(failures, JustifyAllFailure{
					Context:      set.Context,
					Statements:   set.Statements,
					Requirements: set.Requirements,
				})
			}
		}
		if len(failures) == 0 {
			return nil
		}
		if limit == maxLimit-1 {
			return failures
		}
	}
	return nil
}

// propagateRootConnectedness is §4.6 step 2's fixed point: a set becomes
// root-connected once every one of its requirements justified this round —
// directly, or because justify's own per-call stack accepted it as a
// recursive obligation — looping until a full pass makes no further
// progress, per the "always-true root set" base case.
func (s *Store) propagateRootConnectedness() {
	for {
		progress := false
		for _, set := range s.invariantSets {
			if set.ConnectedToRoot {
				continue
			}
			if set.directlyJustified {
				set.ConnectedToRoot = true
				progress = true
			}
		}
		if !progress {
			break
		}
	}
}
