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

func TestResolveIdentifier(t *testing.T) {
	s := newTestStore()
	target := s.PushUnique()
	seven := s.NewBuiltinInt(7)
	st := s.Insert(Struct{Label: "x", Value: seven, Rest: target}, Root())

	ident := s.resolvablePlaceholder(Resolvable{Kind: ResIdentifier, Name: "x"}, FieldAndRestScope(st, 0))
	if err := s.Resolve(ident); err != nil {
		t.Fatal(err)
	}
	if s.IsResolvable(ident) {
		t.Fatalf("Resolve should have cleared the Resolvable state")
	}
	if got := s.Dereference(ident); got != seven {
		t.Fatalf("Resolve(identifier x) = %d, want %d", got, seven)
	}
}

func TestResolveIdentifierMissingErrors(t *testing.T) {
	s := newTestStore()
	ident := s.resolvablePlaceholder(Resolvable{Kind: ResIdentifier, Name: "nope"}, Root())
	if err := s.Resolve(ident); err == nil {
		t.Fatalf("expected an error resolving an identifier absent from scope")
	}
}

func TestResolveNamedMemberBuildsProjectionChain(t *testing.T) {
	s := newTestStore()
	seven := s.NewBuiltinInt(7)
	void := s.PushUnique()
	inner := s.Insert(Struct{Label: "b", Value: seven, Rest: void}, Root())
	base := s.Insert(Struct{Label: "a", Value: s.NewBuiltinInt(1), Rest: inner}, Root())

	nm := s.resolvablePlaceholder(Resolvable{Kind: ResNamedMember, Base: base, Name: "b"}, Root())
	if err := s.Resolve(nm); err != nil {
		t.Fatal(err)
	}
	got := mustReduce(t, s, s.Dereference(nm))
	if got != seven {
		t.Fatalf("resolving .b on {a:1, b:7} = %d, want %d", got, seven)
	}
}

func TestResolveSubstitutionShell(t *testing.T) {
	s := newTestStore()
	x := s.PushVariable(nil, nil, 0)

	structScope := FieldAndRestScope(s.Insert(Struct{Label: "x", Value: x, Rest: s.PushUnique()}, Root()), 0)
	base := x
	seven := s.NewBuiltinInt(7)

	shell := s.resolvablePlaceholder(Resolvable{
		Kind:      ResSubstitutionShell,
		ShellBase: base,
		ShellVars: []string{"x"},
		ShellVals: []ItemId{seven},
	}, structScope)

	if err := s.Resolve(shell); err != nil {
		t.Fatal(err)
	}
	got := mustReduce(t, s, s.Dereference(shell))
	if got != seven {
		t.Fatalf("resolving substitution shell {x:=7}(x) = %d, want %d", got, seven)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	s := newTestStore()
	target := s.PushUnique()
	ident := s.resolvablePlaceholder(Resolvable{Kind: ResIdentifier, Name: "y"}, FieldScope(s.Insert(Struct{Label: "y", Value: target, Rest: s.PushUnique()}, Root()), 0))
	if err := s.Resolve(ident); err != nil {
		t.Fatal(err)
	}
	if err := s.Resolve(ident); err != nil {
		t.Fatalf("Resolve on an already-resolved item should be a no-op, got error: %v", err)
	}
}
