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

// This file implements the scope model of §4.7. A Scope is cheap to
// clone and stored by value on each arena slot (scope monotonicity, §3.4.3):
// an item's scope is fixed at creation and may only be replaced while the
// item is still Resolvable.

// ScopeKind tags which of the standard scope behaviours a Scope value
// implements.
type ScopeKind uint8

const (
	ScopeRoot ScopeKind = iota
	ScopePlain
	ScopeField
	ScopeFieldAndRest
	ScopeVariableInvariants
	ScopeWithInvariant
	ScopePlaceholder
)

// Scope is the lookup environment attached to an arena slot. It is a small
// value type (no pointers to mutable state other than item ids), matching
// §4.7 ("Scopes are cheap to clone").
type Scope struct {
	Kind ScopeKind

	// Parent is used by Plain, WithInvariant, and as the scope chain root
	// for Field/FieldAndRest/VariableInvariants (those also chain to
	// Parent once their local lookup fails).
	Parent ItemId
	HasParent bool

	// Field/FieldAndRest: the struct item to look inside.
	StructItem ItemId

	// VariableInvariants: the variable item this scope serves SELF for.
	VarItem ItemId

	// WithInvariant: the known invariant statement injected into lookup.
	Invariant ItemId
}

// Root returns the root scope: empty identifier lookup, and local invariant
// lookup succeeds exactly when the statement is the language item "true".
func Root() Scope { return Scope{Kind: ScopeRoot} }

// Plain returns a scope with nothing local that chains upward to parent.
func Plain(parent ItemId) Scope {
	return Scope{Kind: ScopePlain, Parent: parent, HasParent: true}
}

// FieldScope looks up name inside the value slot of the named struct field.
func FieldScope(structItem, parent ItemId) Scope {
	return Scope{Kind: ScopeField, StructItem: structItem, Parent: parent, HasParent: true}
}

// FieldAndRestScope looks up through the entire struct, descending into
// rest.
func FieldAndRestScope(structItem, parent ItemId) Scope {
	return Scope{Kind: ScopeFieldAndRest, StructItem: structItem, Parent: parent, HasParent: true}
}

// VariableInvariantsScope serves the variable's own in-scope identifier
// SELF.
func VariableInvariantsScope(varItem, parent ItemId) Scope {
	return Scope{Kind: ScopeVariableInvariants, VarItem: varItem, Parent: parent, HasParent: true}
}

// WithInvariantScope injects a known invariant, matched by equality, ahead
// of parent.
func WithInvariantScope(inv ItemId, parent ItemId) Scope {
	return Scope{Kind: ScopeWithInvariant, Invariant: inv, Parent: parent, HasParent: true}
}

// PlaceholderScope panics if queried; used pre-resolution.
func PlaceholderScope() Scope { return Scope{Kind: ScopePlaceholder} }

// selfName is the identifier a VariableInvariantsScope serves for a
// variable to refer to itself within its own invariants.
const selfName = "SELF"

// localLookupIdent implements the local (non-chaining) part of identifier
// lookup for each scope kind.
func (s *Store) localLookupIdent(sc Scope, name string) (ItemId, bool) {
	switch sc.Kind {
	case ScopeRoot, ScopePlain, ScopeWithInvariant:
		return 0, false
	case ScopePlaceholder:
		panic("adt: lookup on a Placeholder scope")
	case ScopeVariableInvariants:
		if name == selfName {
			return sc.VarItem, true
		}
		return 0, false
	case ScopeField:
		return s.lookupFieldOnly(sc.StructItem, name)
	case ScopeFieldAndRest:
		return s.lookupFieldAndRest(sc.StructItem, name)
	default:
		return 0, false
	}
}

func (s *Store) lookupFieldOnly(structItem ItemId, name string) (ItemId, bool) {
	def, ok := s.slot(structItem).def.(Struct)
	if !ok {
		return 0, false
	}
	if def.Label == name {
		return def.Value, true
	}
	return 0, false
}

func (s *Store) lookupFieldAndRest(structItem ItemId, name string) (ItemId, bool) {
	cur := structItem
	for {
		def, ok := s.slot(cur).def.(Struct)
		if !ok {
			return 0, false
		}
		if def.Label == name {
			return def.Value, true
		}
		cur = def.Rest
	}
}

// LookupIdent resolves name starting at scope sc, walking up the parent
// chain on local failure (§4.7: "Non-local lookups walk up via parent();
// local failures bubble only if all ancestors also fail").
func (s *Store) LookupIdent(sc Scope, name string) (ItemId, bool) {
	if id, ok := s.localLookupIdent(sc, name); ok {
		return id, true
	}
	if !sc.HasParent {
		return 0, false
	}
	return s.LookupIdent(s.slot(sc.Parent).scope, name)
}

// ReverseLookupIdent finds a name in sc (or an ancestor) that resolves to
// id, if any.
func (s *Store) ReverseLookupIdent(sc Scope, id ItemId) (string, bool) {
	switch sc.Kind {
	case ScopeField:
		if def, ok := s.slot(sc.StructItem).def.(Struct); ok && def.Value == id {
			return def.Label, true
		}
	case ScopeFieldAndRest:
		cur := sc.StructItem
		for {
			def, ok := s.slot(cur).def.(Struct)
			if !ok {
				break
			}
			if def.Value == id {
				return def.Label, true
			}
			cur = def.Rest
		}
	case ScopeVariableInvariants:
		if sc.VarItem == id {
			return selfName, true
		}
	}
	if sc.HasParent {
		return s.ReverseLookupIdent(s.slot(sc.Parent).scope, id)
	}
	return "", false
}

// LocalLookupInvariant implements the local invariant search for Root and
// WithInvariant scopes; other scopes have no local invariants and defer
// entirely to the recursive search in the invariant engine (§4.6).
func (s *Store) LocalLookupInvariant(sc Scope, statement ItemId, limit uint32) (Equal, bool) {
	switch sc.Kind {
	case ScopeRoot:
		trueId, err := s.LanguageItem("true")
		if err != nil {
			return Unknown, false
		}
		eq := s.Equal(statement, trueId, limit)
		return eq, eq.isYes()
	case ScopeWithInvariant:
		eq := s.Equal(statement, sc.Invariant, limit)
		return eq, eq.isYes()
	default:
		return Unknown, false
	}
}
