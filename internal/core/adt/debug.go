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

import "fmt"

// This file gives every Node variant a defString, §C.3's
// debug renderer. It is deliberately not a surface-syntax pretty-printer —
// there is no surface syntax at this layer (§1) — just an s-expression
// dump a frontend or test can use to see what an item actually contains.

// DebugStr renders id as an s-expression, following Other aliases and
// numbering any recursive back-reference it runs into so cyclic terms
// print instead of looping forever.
func (s *Store) DebugStr(id ItemId) string {
	s.debugVisiting = map[ItemId]bool{}
	defer func() { s.debugVisiting = nil }()
	return s.debugRef(id)
}

// debugRef renders id, guarding against the recursion markers cyclic Other
// terms introduce. Safe to call re-entrantly from another defString
// implementation, whether or not DebugStr set up the guard.
func (s *Store) debugRef(id ItemId) string {
	if s.debugVisiting == nil {
		s.debugVisiting = map[ItemId]bool{}
	}
	if s.debugVisiting[id] {
		return fmt.Sprintf("#%d", id)
	}
	s.debugVisiting[id] = true
	defer delete(s.debugVisiting, id)

	if s.IsResolvable(id) {
		return s.slot(id).def.(Resolvable).defString(s)
	}
	return s.Def(id).defString(s)
}

func (v Variable) defString(s *store) string {
	return fmt.Sprintf("(var %d :deps %s :invs %s)", v.Var, idList(s, v.Dependencies), idList(s, v.Invariants))
}

func (u Unique) defString(s *store) string {
	return fmt.Sprintf("(unique %d)", u.Id)
}

func (a Axiom) defString(s *store) string {
	return fmt.Sprintf("(axiom %s)", s.debugRef(a.Statement))
}

func (x Struct) defString(s *store) string {
	return fmt.Sprintf("(struct %q %s %s)", x.Label, s.debugRef(x.Value), s.debugRef(x.Rest))
}

func (x AtomicMember) defString(s *store) string {
	names := [...]string{"label", "value", "rest"}
	which := "?"
	if int(x.Which) < len(names) {
		which = names[x.Which]
	}
	return fmt.Sprintf("(.%s %s)", which, s.debugRef(x.Base))
}

func (x Decision) defString(s *store) string {
	return fmt.Sprintf("(decision %s %s => %s | %s)", s.debugRef(x.L), s.debugRef(x.R), s.debugRef(x.Eq), s.debugRef(x.Neq))
}

func (x Substitution) defString(s *store) string {
	var b string
	for i := range x.Vars {
		if i > 0 {
			b += ", "
		}
		b += fmt.Sprintf("%d:=%s", x.Vars[i], s.debugRef(x.Vals[i]))
	}
	return fmt.Sprintf("(subst %s {%s})", s.debugRef(x.Base), b)
}

func (x WithDependencies) defString(s *store) string {
	return fmt.Sprintf("(with-deps %s %s)", s.debugRef(x.Base), idList(s, x.Prio))
}

func (x IsPopulatedStruct) defString(s *store) string {
	return fmt.Sprintf("(is-populated-struct %s)", s.debugRef(x.Base))
}

func (x Other) defString(s *store) string {
	if x.Recursive {
		return fmt.Sprintf("(rec -> %s)", s.debugRef(x.Target))
	}
	return s.debugRef(x.Target)
}

func (x BuiltinValue) defString(s *store) string {
	return x.N.String()
}

func (x PrimitiveOperation) defString(s *store) string {
	names := [...]string{"+", "-", "*", "/", "<", "<=", "==", "!="}
	op := "?"
	if int(x.Op) < len(names) {
		op = names[x.Op]
	}
	return fmt.Sprintf("(%s %s %s)", op, s.debugRef(x.Lhs), s.debugRef(x.Rhs))
}

func idList(s *store, ids []ItemId) string {
	out := "["
	for i, id := range ids {
		if i > 0 {
			out += " "
		}
		out += s.debugRef(id)
	}
	return out + "]"
}
