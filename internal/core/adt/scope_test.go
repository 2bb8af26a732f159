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

import "testing"

func TestLookupIdentWalksParentChain(t *testing.T) {
	s := newTestStore()
	outerTarget := s.PushUnique()
	outerStruct := s.Insert(Struct{Label: "outer", Value: outerTarget, Rest: s.PushUnique()}, Root())
	outerItem := s.resolvablePlaceholder(Resolvable{Kind: ResPlaceholder}, FieldAndRestScope(outerStruct, 0))

	inner := Plain(outerItem)
	got, ok := s.LookupIdent(inner, "outer")
	if !ok || got != outerTarget {
		t.Fatalf("LookupIdent should bubble up through a Plain scope to find an ancestor's field, got (%d, %v)", got, ok)
	}
}

func TestLookupIdentLocalShadowsParent(t *testing.T) {
	s := newTestStore()
	outer := s.PushUnique()
	outerStruct := s.Insert(Struct{Label: "x", Value: outer, Rest: s.PushUnique()}, Root())
	outerItem := s.resolvablePlaceholder(Resolvable{Kind: ResPlaceholder}, FieldAndRestScope(outerStruct, 0))

	inner := s.PushUnique()
	innerStruct := s.Insert(Struct{Label: "x", Value: inner, Rest: s.PushUnique()}, Root())
	innerScope := FieldAndRestScope(innerStruct, outerItem)

	got, ok := s.LookupIdent(innerScope, "x")
	if !ok || got != inner {
		t.Fatalf("local field should shadow the ancestor's same-named field: got (%d, %v), want %d", got, ok, inner)
	}
}

func TestLookupIdentMissingReturnsFalse(t *testing.T) {
	s := newTestStore()
	_, ok := s.LookupIdent(Root(), "nonexistent")
	if ok {
		t.Fatalf("LookupIdent on the root scope should never find anything")
	}
}

func TestVariableInvariantsScopeServesSelf(t *testing.T) {
	s := newTestStore()
	v := s.PushVariable(nil, nil, 0)
	got, ok := s.LookupIdent(s.Scope(v), "SELF")
	if !ok || got != v {
		t.Fatalf("LookupIdent(var scope, SELF) = (%d, %v), want (%d, true)", got, ok, v)
	}
}

func TestReverseLookupIdentFindsFieldName(t *testing.T) {
	s := newTestStore()
	val := s.PushUnique()
	st := s.Insert(Struct{Label: "named", Value: val, Rest: s.PushUnique()}, Root())
	sc := FieldAndRestScope(st, 0)
	name, ok := s.ReverseLookupIdent(sc, val)
	if !ok || name != "named" {
		t.Fatalf("ReverseLookupIdent(struct scope, val) = (%q, %v), want (\"named\", true)", name, ok)
	}
}

func TestLocalLookupInvariantRootAcceptsTrue(t *testing.T) {
	s := newTestStore()
	trueId, _ := s.LanguageItem("true")
	eq, ok := s.LocalLookupInvariant(Root(), trueId, s.DefaultLimit)
	if !ok || !eq.isYes() {
		t.Fatalf("LocalLookupInvariant(root, true) = (%+v, %v), want (Yes, true)", eq, ok)
	}
}

func TestLocalLookupInvariantWithInvariantScope(t *testing.T) {
	s := newTestStore()
	claim := s.PushUnique()
	sc := WithInvariantScope(claim, Root())
	eq, ok := s.LocalLookupInvariant(sc, claim, s.DefaultLimit)
	if !ok || !eq.isYes() {
		t.Fatalf("LocalLookupInvariant(with-invariant scope, its own claim) = (%+v, %v), want (Yes, true)", eq, ok)
	}
}
