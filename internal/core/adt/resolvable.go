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

// This file holds the Resolvable payloads of §3.2 and §4.1/§4.7: a
// slot holding one of these is not yet a concrete term. Resolvable items
// are never interned (each Placeholder call allocates a fresh id, §4.1);
// once the resolver rewrites a slot's definition, the id is reused for the
// resolved term.

// ResolvableKind tags which placeholder payload a Resolvable item carries.
type ResolvableKind uint8

const (
	// ResPlaceholder is an as-yet-undefined slot; any query on it yields
	// UnresolvedItem.
	ResPlaceholder ResolvableKind = iota
	// ResIdentifier stands for a name looked up in a scope.
	ResIdentifier
	// ResNamedMember stands for a named-member access awaiting its base's
	// resolution; Resolve rewrites it into an AtomicMember(Rest)*; Value
	// projection chain (resolver.go).
	ResNamedMember
	// ResSubstitutionShell stands for a substitution expression whose base
	// and/or values are themselves still unresolved identifiers.
	ResSubstitutionShell
)

// Resolvable is the definition of a not-yet-resolved arena slot.
type Resolvable struct {
	Kind ResolvableKind

	// ResIdentifier
	Name string

	// ResNamedMember
	Base ItemId

	// ResSubstitutionShell
	ShellBase ItemId
	ShellVars []string
	ShellVals []ItemId
}

func (Resolvable) node() {}

func (r Resolvable) defString(s *store) string {
	switch r.Kind {
	case ResPlaceholder:
		return "<placeholder>"
	case ResIdentifier:
		return "<unresolved:" + r.Name + ">"
	case ResNamedMember:
		return "<unresolved:" + s.debugRef(r.Base) + "." + r.Name + ">"
	case ResSubstitutionShell:
		return "<unresolved-subst>"
	default:
		return "<resolvable?>"
	}
}

// IsResolvable reports whether id still carries a Resolvable definition.
func (s *Store) IsResolvable(id ItemId) bool {
	_, ok := s.slot(id).def.(Resolvable)
	return ok
}
