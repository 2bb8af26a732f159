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
	"fmt"
	"strings"

	"github.com/joshua-maros/scarlet/cue/errors"
	"github.com/joshua-maros/scarlet/cue/token"
)

// slot is one entry of the arena: a definition, the scope it was created
// in, and the caches §3.4.4 allows the kernel to keep coherent.
type slot struct {
	def    Node
	scope  Scope
	cachedType       ItemId
	hasCachedType    bool
	cachedReduction  ItemId
	hasCachedReduction bool
	cachedInvariants   *InvariantSet
}

// store is a package-internal alias of Store (exported below); debug.go's
// and resolvable.go's defString methods take *store.
type store = Store

// Store is the kernel's arena: it owns every item, drives construction
// (§6 Construction API) and every query (§6 Queries). It is single-
// threaded cooperative (§5): one logical owner borrows it exclusively for
// the duration of each call.
type Store struct {
	slots []slot

	// intern maps a structural fingerprint of a definition to the id that
	// already holds it (§3.4.1). Resolvable definitions are never entered
	// here (§4.1: "Resolvable placeholders are not interned").
	intern map[string]ItemId

	nextVar    VariableId
	nextUnique UniqueId
	varItem    map[VariableId]ItemId

	languageItems map[string]ItemId
	autoTheorems  []ItemId

	// invariantSets is the program-wide registry §3.3/§4.6 batch
	// justification walks: every InvariantSet computed by GeneratedInvariants
	// with at least one Requirement is registered here so JustifyAll can find
	// it without the caller threading it through by hand.
	invariantSets []*InvariantSet

	// DefaultLimit is the equality/justification recursion ceiling used
	// when a caller does not supply one explicitly (§9: "Fixing a
	// conservative default (≈8) is acceptable; exposing it on the public
	// API is mandatory" — callers may always pass their own).
	DefaultLimit uint32

	// Trace, when true, makes Equal/Reduce/Justify print an s-expression
	// trace of their recursion to Tracer (see kernellog.go). Off by
	// default; this is the ambient logging concern of §A.2.
	Trace  bool
	Tracer func(string)

	// debugVisiting is the transient recursion guard DebugStr/debugRef use
	// to print cyclic (Other{Recursive: true}) terms as a numbered back-
	// reference instead of looping forever. Set up and torn down within a
	// single DebugStr call; never left populated between calls (§5).
	debugVisiting map[ItemId]bool

	// traceNest is the current indentation level for kernellog.go's tracer.
	traceNest int
}

// Config configures a new Store (§A.3).
type Config struct {
	// DefaultLimit is the equality/justification recursion ceiling. Zero
	// means "use the kernel default" (8, per §9).
	DefaultLimit uint32
	Trace        bool
	Tracer       func(string)
}

// NewStore allocates an empty arena ready to accept Placeholder/Insert
// calls.
func NewStore(cfg Config) *Store {
	limit := cfg.DefaultLimit
	if limit == 0 {
		limit = 8
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = func(string) {}
	}
	return &Store{
		slots:         []slot{{}}, // slot 0 is never valid; ids start at 1.
		intern:        map[string]ItemId{},
		varItem:       map[VariableId]ItemId{},
		languageItems: map[string]ItemId{},
		DefaultLimit:  limit,
		Trace:         cfg.Trace,
		Tracer:        tracer,
	}
}

func (s *Store) slot(id ItemId) *slot {
	if id == 0 || int(id) >= len(s.slots) {
		panic(fmt.Sprintf("adt: dereferencing never-allocated item %d", id))
	}
	return &s.slots[id]
}

// Def returns the raw definition stored at id. Exported for components
// (dependency, reduce, equality, invariant) that live in this package but
// in separate files; external callers should prefer the Queries in §6.
func (s *Store) Def(id ItemId) Node {
	return s.slot(id).def
}

// Scope returns the scope an item was created with.
func (s *Store) Scope(id ItemId) Scope {
	return s.slot(id).scope
}

// Placeholder allocates an as-yet-undefined slot with a Resolvable
// placeholder payload; the resolver later rewrites it (§4.1).
func (s *Store) Placeholder(sc Scope) ItemId {
	s.slots = append(s.slots, slot{def: Resolvable{Kind: ResPlaceholder}, scope: sc})
	return ItemId(len(s.slots) - 1)
}

// resolvablePlaceholder allocates a fresh Resolvable id of any kind; these
// are never interned, mirroring Placeholder.
func (s *Store) resolvablePlaceholder(def Resolvable, sc Scope) ItemId {
	s.slots = append(s.slots, slot{def: def, scope: sc})
	return ItemId(len(s.slots) - 1)
}

// Insert interns def under scope, returning the existing id if an equal
// definition is already stored (§3.4.1, §4.1). Resolvable definitions
// bypass interning entirely and always get a fresh id.
func (s *Store) Insert(def Node, sc Scope) ItemId {
	if r, ok := def.(Resolvable); ok {
		return s.resolvablePlaceholder(r, sc)
	}
	key := internKey(def)
	if id, ok := s.intern[key]; ok {
		return id
	}
	s.slots = append(s.slots, slot{def: def, scope: sc})
	id := ItemId(len(s.slots) - 1)
	s.intern[key] = id
	return id
}

// SetScope replaces the scope of id. Permitted only while id is still
// Resolvable (§3.4.3, §4.1).
func (s *Store) SetScope(id ItemId, sc Scope) {
	sl := s.slot(id)
	if _, ok := sl.def.(Resolvable); !ok {
		panic(fmt.Sprintf("adt: SetScope on already-resolved item %d", id))
	}
	sl.scope = sc
}

// setResolved rewrites a Resolvable slot's definition in place once the
// resolver has determined its concrete meaning. The id is preserved, so
// everything that already referenced it keeps working (§4.1, §4.7). If an
// equal definition is already interned elsewhere, this slot becomes an
// Other alias to it instead of a duplicate, preserving the "at most one
// slot per distinct definition" invariant for everything reachable after
// resolution.
func (s *Store) setResolved(id ItemId, def Node) {
	sl := s.slot(id)
	if _, ok := sl.def.(Resolvable); !ok {
		panic(fmt.Sprintf("adt: setResolved on already-resolved item %d", id))
	}
	if _, ok := def.(Resolvable); ok {
		sl.def = def
		return
	}
	key := internKey(def)
	if existing, ok := s.intern[key]; ok && existing != id {
		sl.def = Other{Target: existing}
		return
	}
	sl.def = def
	s.intern[key] = id
}

// Dereference walks transparent Other wrappers until it hits a non-Other
// definition or a recursion marker, returning the id it stopped at (§4.1).
func (s *Store) Dereference(id ItemId) ItemId {
	seen := map[ItemId]bool{}
	for {
		o, ok := s.slot(id).def.(Other)
		if !ok || o.Recursive {
			return id
		}
		if seen[id] {
			return id // defensive: acyclicity (§3.4.2) should prevent this.
		}
		seen[id] = true
		id = o.Target
	}
}

// PushUnique allocates a fresh, globally distinct Unique value.
func (s *Store) PushUnique() ItemId {
	s.nextUnique++
	return s.Insert(Unique{Id: s.nextUnique}, Root())
}

// PushVariable allocates a fresh Variable with the given invariants,
// declared dependencies, and order index (§6 Construction API). Every
// call mints a brand new VariableId, so the definition can never collide
// with one already in the intern table; the slot is appended directly so
// the scope can reference the variable's own (now-known) id.
func (s *Store) PushVariable(invariants, deps []ItemId, order int) ItemId {
	s.nextVar++
	v := Variable{Var: s.nextVar, Invariants: invariants, Dependencies: deps, Order: order}
	s.slots = append(s.slots, slot{def: v})
	id := ItemId(len(s.slots) - 1)
	s.slot(id).scope = Scope{Kind: ScopeVariableInvariants, VarItem: id}
	s.intern[internKey(v)] = id
	s.varItem[v.Var] = id
	return id
}

// varItemId returns the arena item that defines v, i.e. the id PushVariable
// returned when v was minted. Used by the substituter to build
// assignment-justification obligations, which are stated in terms of the
// variable's own item identity (its SELF reference) rather than its
// VariableId (§4.3).
func (s *Store) varItemId(v VariableId) (ItemId, bool) {
	id, ok := s.varItem[v]
	return id, ok
}

// DefineLanguageItem registers id under name in the fixed dictionary of
// well-known names the resolver/frontend may bind (§6).
func (s *Store) DefineLanguageItem(name string, id ItemId) {
	s.languageItems[name] = id
}

// LanguageItem looks up a well-known name. Missing language items produce a
// recoverable NoSuchLanguageItem diagnostic (§6, §7).
func (s *Store) LanguageItem(name string) (ItemId, errors.Error) {
	id, ok := s.languageItems[name]
	if !ok {
		return 0, errors.Newf(token.NoPos, "no such language item: %s", name)
	}
	return id, nil
}

// AddAutoTheorem elevates id into the ambient pool of available
// justifications for proof search (§4.6, §9 "Global state").
func (s *Store) AddAutoTheorem(id ItemId) {
	s.autoTheorems = append(s.autoTheorems, id)
}

// AutoTheorems returns a read-only snapshot of the elevated theorem pool
// (§C.2).
func (s *Store) AutoTheorems() []ItemId {
	out := make([]ItemId, len(s.autoTheorems))
	copy(out, s.autoTheorems)
	return out
}

// internKey computes a structural fingerprint of def, used as the
// interning map's key. It deliberately avoids reflection: the grammar is
// closed (§9), so a type switch is exhaustive and fast.
func internKey(def Node) string {
	var b strings.Builder
	writeKey(&b, def)
	return b.String()
}

func writeKey(b *strings.Builder, def Node) {
	switch x := def.(type) {
	case Variable:
		fmt.Fprintf(b, "Var(%d,%d,", x.Var, x.Order)
		writeIds(b, x.Invariants)
		b.WriteByte(';')
		writeIds(b, x.Dependencies)
		b.WriteByte(')')
	case Unique:
		fmt.Fprintf(b, "Uniq(%d)", x.Id)
	case Axiom:
		fmt.Fprintf(b, "Axiom(%d)", x.Statement)
	case Struct:
		fmt.Fprintf(b, "Struct(%q,%d,%d)", x.Label, x.Value, x.Rest)
	case AtomicMember:
		fmt.Fprintf(b, "Atomic(%d,%d)", x.Base, x.Which)
	case Decision:
		fmt.Fprintf(b, "Dec(%d,%d,%d,%d)", x.L, x.R, x.Eq, x.Neq)
	case Substitution:
		b.WriteString("Subst(")
		fmt.Fprintf(b, "%d;", x.Base)
		for i := range x.Vars {
			fmt.Fprintf(b, "%d=%d,", x.Vars[i], x.Vals[i])
		}
		b.WriteByte(';')
		writeIds(b, x.Invs)
		b.WriteByte(')')
	case WithDependencies:
		fmt.Fprintf(b, "WithDeps(%d;", x.Base)
		writeIds(b, x.Prio)
		b.WriteByte(')')
	case IsPopulatedStruct:
		fmt.Fprintf(b, "IsPop(%d)", x.Base)
	case Other:
		fmt.Fprintf(b, "Other(%d,%v)", x.Target, x.Recursive)
	case BuiltinValue:
		fmt.Fprintf(b, "Num(%s)", x.N.String())
	case PrimitiveOperation:
		fmt.Fprintf(b, "PrimOp(%d,%d,%d)", x.Op, x.Lhs, x.Rhs)
	case Resolvable:
		panic("adt: resolvable definitions must not be interned")
	default:
		panic(fmt.Sprintf("adt: unhandled Node variant %T in internKey", def))
	}
}

func writeIds(b *strings.Builder, ids []ItemId) {
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(b, "%d", id)
	}
}
