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

func TestEqualIdentity(t *testing.T) {
	s := newTestStore()
	x := s.PushUnique()
	if eq := s.Equal(x, x, s.DefaultLimit); !eq.isYes() {
		t.Fatalf("Equal(x, x) = %+v, want Yes", eq)
	}
}

func TestEqualDistinctUniquesAreNo(t *testing.T) {
	s := newTestStore()
	a := s.PushUnique()
	b := s.PushUnique()
	if eq := s.Equal(a, b, s.DefaultLimit); eq.Kind != ENo {
		t.Fatalf("Equal(distinct uniques) = %+v, want No", eq)
	}
}

func TestEqualUnboundVariableBindsOpposite(t *testing.T) {
	s := newTestStore()
	x := s.PushVariable(nil, nil, 0)
	xv := s.Def(x).(Variable).Var
	seven := s.NewBuiltinInt(7)

	eq := s.Equal(x, seven, s.DefaultLimit)
	if !eq.isYes() {
		t.Fatalf("Equal(x, 7) = %+v, want Yes with x bound to 7", eq)
	}
	val, ok := eq.LSubs.lookup(xv)
	if !ok || val != seven {
		t.Fatalf("Equal(x, 7) discovered bindings = %+v, want x:=7", eq.LSubs)
	}
}

func TestEqualStructuralMatchOnStructs(t *testing.T) {
	s := newTestStore()
	seven := s.NewBuiltinInt(7)
	void := s.PushUnique()
	a := s.Insert(Struct{Label: "f", Value: seven, Rest: void}, Root())
	b := s.Insert(Struct{Label: "f", Value: seven, Rest: void}, Root())

	// a and b intern to the same id, so this is really exercising identity,
	// not the structural dispatcher; build a second struct whose value field
	// is an unreduced Substitution that forces to 7. Reduce leaves a Struct's
	// fields alone, so the two ids stay distinct and the structural
	// dispatcher has to compare the fields.
	x := s.PushVariable(nil, nil, 0)
	xv := s.Def(x).(Variable).Var
	forcedSeven, err := s.Substitute(x, []VariableId{xv}, []ItemId{seven})
	if err != nil {
		t.Fatal(err)
	}
	subId := s.Insert(Struct{Label: "f", Value: forcedSeven, Rest: void}, Root())

	if a != b {
		t.Fatalf("interning should have unified a and b")
	}
	if eq := s.Equal(a, subId, s.DefaultLimit); !eq.isYes() {
		t.Fatalf("Equal(struct, equivalent-but-not-interned struct) = %+v, want Yes", eq)
	}
}

func TestEqualDifferentLabelsAreNo(t *testing.T) {
	s := newTestStore()
	seven := s.NewBuiltinInt(7)
	void := s.PushUnique()
	a := s.Insert(Struct{Label: "f", Value: seven, Rest: void}, Root())
	b := s.Insert(Struct{Label: "g", Value: seven, Rest: void}, Root())
	if eq := s.Equal(a, b, s.DefaultLimit); eq.Kind != ENo {
		t.Fatalf("Equal(structs with different labels) = %+v, want No", eq)
	}
}

func TestEqualNeedsHigherLimitAtZero(t *testing.T) {
	s := newTestStore()
	void := s.PushUnique()
	a := s.Insert(Struct{Label: "f", Value: s.NewBuiltinInt(1), Rest: void}, Root())
	b := s.Insert(Struct{Label: "f", Value: s.NewBuiltinInt(2), Rest: void}, Root())
	// Force the structural dispatcher by going through non-identical ids
	// with a zero budget: with no budget left, a non-identity, non-variable
	// comparison must report NeedsHigherLimit rather than guessing.
	if eq := s.Equal(a, b, 0); eq.Kind != ENeedsHigherLimit {
		t.Fatalf("Equal at limit 0 = %+v, want NeedsHigherLimit", eq)
	}
}

func TestEqualBuiltinValuesInternToSameId(t *testing.T) {
	s := newTestStore()
	a := s.NewBuiltinInt(7)
	b := s.NewBuiltinInt(7)
	if a != b {
		t.Fatalf("NewBuiltinInt(7) twice should intern to the same slot, got %d and %d", a, b)
	}
	if eq := s.Equal(a, b, s.DefaultLimit); !eq.isYes() {
		t.Fatalf("Equal(7, 7) = %+v, want Yes", eq)
	}
}
