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

// This file is the Resolver, §2 component 2 and §4.1/§4.7: it
// replaces unresolved placeholders with concrete item definitions using
// the scope attached to each item. It is a leaf — called before anything
// else in the pipeline touches a term — and it never interns its own
// rewrite target directly; it installs an Other alias so that every
// pre-existing reference to the placeholder's id keeps working.

// Resolve rewrites the Resolvable definition at id in place, if any. It is
// idempotent: resolving an already-resolved id is a no-op. Resolving a
// ResIdentifier or ResNamedMember recursively resolves its dependencies
// first, so a frontend may call Resolve on items in any order as long as
// every reachable placeholder is eventually visited.
func (s *Store) Resolve(id ItemId) errors.Error {
	sl := s.slot(id)
	r, ok := sl.def.(Resolvable)
	if !ok {
		return nil
	}

	switch r.Kind {
	case ResPlaceholder:
		return errors.Newf(token.NoPos, "item %d is an unbound placeholder", id)

	case ResIdentifier:
		target, found := s.LookupIdent(sl.scope, r.Name)
		if !found {
			return errors.Newf(token.NoPos, "identifier not found: %s", r.Name)
		}
		if s.IsResolvable(target) {
			if err := s.Resolve(target); err != nil {
				return err
			}
		}
		s.setResolved(id, Other{Target: target})
		return nil

	case ResNamedMember:
		if s.IsResolvable(r.Base) {
			if err := s.Resolve(r.Base); err != nil {
				return err
			}
		}
		chain, err := s.resolveNamedMemberChain(r.Base, r.Name)
		if err != nil {
			return err
		}
		s.setResolved(id, Other{Target: chain})
		return nil

	case ResSubstitutionShell:
		return s.resolveSubstitutionShell(id, sl.scope, r)

	default:
		return errors.Newf(token.NoPos, "unknown resolvable kind")
	}
}

// resolveNamedMemberChain finds name among base's struct fields, building
// the nested AtomicMember(Rest)*; Value chain §3.2 describes.
func (s *Store) resolveNamedMemberChain(base ItemId, name string) (ItemId, errors.Error) {
	// symbolic is the lazy AtomicMember(Rest)* chain built so far (what the
	// final projection's Base will be); concrete is the already-dereferenced
	// Struct symbolic currently denotes, kept alongside so each iteration can
	// inspect the next field without forcing a Reduce of the chain itself.
	symbolic := base
	concrete := s.Dereference(base)
	for {
		def, ok := s.Def(concrete).(Struct)
		if !ok {
			return 0, errors.Newf(token.NoPos, "named member %q: base is not a struct", name)
		}
		if def.Label == name {
			return s.Insert(AtomicMember{Base: symbolic, Which: Value}, Root()), nil
		}
		rest := s.Dereference(def.Rest)
		if _, ok := s.Def(rest).(Struct); !ok {
			return 0, errors.Newf(token.NoPos, "no such field: %s", name)
		}
		symbolic = s.Insert(AtomicMember{Base: symbolic, Which: Rest}, Root())
		concrete = rest
	}
}

// resolveSubstitutionShell turns a ResSubstitutionShell into a real
// Substitution once its base and every bound value resolve, looking each
// variable name up against the shell's own scope to find the VariableId it
// names.
func (s *Store) resolveSubstitutionShell(id ItemId, sc Scope, r Resolvable) errors.Error {
	if s.IsResolvable(r.ShellBase) {
		if err := s.Resolve(r.ShellBase); err != nil {
			return err
		}
	}
	vars := make([]VariableId, len(r.ShellVars))
	vals := make([]ItemId, len(r.ShellVals))
	for i, name := range r.ShellVars {
		target, found := s.LookupIdent(sc, name)
		if !found {
			return errors.Newf(token.NoPos, "identifier not found: %s", name)
		}
		if s.IsResolvable(target) {
			if err := s.Resolve(target); err != nil {
				return err
			}
		}
		v, ok := s.Def(s.Dereference(target)).(Variable)
		if !ok {
			return errors.Newf(token.NoPos, "substitution target %q does not name a variable", name)
		}
		vars[i] = v.Var

		val := r.ShellVals[i]
		if s.IsResolvable(val) {
			if err := s.Resolve(val); err != nil {
				return err
			}
		}
		vals[i] = val
	}
	sub, err := s.Substitute(r.ShellBase, vars, vals)
	if err != nil {
		return err
	}
	s.setResolved(id, Other{Target: sub})
	return nil
}
