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

// This file holds the term grammar, §3.2: the variants an arena
// slot's definition may take. Each is a small, comparable-by-value struct so
// that the arena's interning table (store.intern) can use them directly as
// map keys.

// AtomicWhich selects a projection performed by AtomicMember.
type AtomicWhich uint8

const (
	Label AtomicWhich = iota
	Value
	Rest
)

// Variable is a bindable placeholder. Its type is the conjunction of its
// invariants. Dependencies declared on it participate in Substitution's
// arity-matched remapping (§4.3).
type Variable struct {
	Var          VariableId
	Invariants   []ItemId
	Dependencies []ItemId
	Order        int
}

func (Variable) node() {}

// Unique is an opaque value equal only to itself.
type Unique struct {
	Id UniqueId
}

func (Unique) node() {}

// Axiom asserts its statement as an invariant wherever it appears.
type Axiom struct {
	Statement ItemId
}

func (Axiom) node() {}

// Struct is a single field cons'd onto another struct; a Struct whose Rest
// is the language item "void" terminates the chain.
type Struct struct {
	Label string
	Value ItemId
	Rest  ItemId
}

func (Struct) node() {}

// AtomicMember projects a field out of a (possibly not yet reduced) Struct.
type AtomicMember struct {
	Base  ItemId
	Which AtomicWhich
}

func (AtomicMember) node() {}

// Decision is the sole branching primitive: if L and R are definitionally
// equal, the value is Eq, otherwise Neq.
type Decision struct {
	L, R, Eq, Neq ItemId
}

func (Decision) node() {}

// Substitution replaces variables in Base according to Subs, an ordered
// map (kept as parallel slices to preserve iteration order, §4.3).
// Invs holds invariant statements already rewritten for this substitution,
// populated by the substituter; nil means "not yet computed".
type Substitution struct {
	Base ItemId
	Vars []VariableId
	Vals []ItemId
	Invs []ItemId
}

func (Substitution) node() {}

// WithDependencies reorders/augments Base's dependency list so that the
// variables named in Prio come first, in the order given (§4.2).
type WithDependencies struct {
	Base ItemId
	Prio []ItemId
}

func (WithDependencies) node() {}

// IsPopulatedStruct is the predicate "base, once reduced, is a Struct".
type IsPopulatedStruct struct {
	Base ItemId
}

func (IsPopulatedStruct) node() {}

// Other is a transparent alias for Target. When Recursive is true it is the
// one sanctioned way for a term to refer to an ancestor (§9): traversal
// treats it as a recursion marker rather than following Target.
type Other struct {
	Target    ItemId
	Recursive bool
}

func (Other) node() {}

// at returns the i-th ordered (VariableId, ItemId) substitution pair as a
// convenience for iterating Substitution.Vars/Vals together.
func (s *Substitution) at(i int) (VariableId, ItemId) {
	return s.Vars[i], s.Vals[i]
}

// lookup returns the value bound to v and whether it was present.
func (s *Substitution) lookup(v VariableId) (ItemId, bool) {
	for i, w := range s.Vars {
		if w == v {
			return s.Vals[i], true
		}
	}
	return 0, false
}
