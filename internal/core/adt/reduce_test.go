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

func mustReduce(t *testing.T, s *Store, id ItemId) ItemId {
	t.Helper()
	got, err := s.Reduce(id)
	if err != nil {
		t.Fatalf("Reduce(%d): %v", id, err)
	}
	return got
}

func TestReduceIsIdempotent(t *testing.T) {
	s := newTestStore()
	x := s.PushVariable(nil, nil, 0)
	st := s.Insert(Struct{Label: "f", Value: x, Rest: x}, Root())

	once := mustReduce(t, s, st)
	twice := mustReduce(t, s, once)
	if once != twice {
		t.Fatalf("Reduce is not idempotent: Reduce(x)=%d, Reduce(Reduce(x))=%d", once, twice)
	}
}

func TestReduceAtomicMemberProjectsField(t *testing.T) {
	s := newTestStore()
	seven := s.NewBuiltinInt(7)
	st := s.Insert(Struct{Label: "f", Value: seven, Rest: s.Insert(Unique{Id: 1}, Root())}, Root())

	value := s.Insert(AtomicMember{Base: st, Which: Value}, Root())
	got := mustReduce(t, s, value)
	if got != seven {
		t.Fatalf("projecting .value of {f: 7, ...} = %d, want %d", got, seven)
	}
}

func TestReduceDecisionCollapsesOnEqualOperands(t *testing.T) {
	s := newTestStore()
	seven := s.NewBuiltinInt(7)
	alsoSeven := s.NewBuiltinInt(7)
	yes := s.Insert(Unique{Id: 100}, Root())
	no := s.Insert(Unique{Id: 200}, Root())

	dec := s.Insert(Decision{L: seven, R: alsoSeven, Eq: yes, Neq: no}, Root())
	got := mustReduce(t, s, dec)
	if got != yes {
		t.Fatalf("Decision(7, 7, yes, no) reduced to %d, want %d (yes branch)", got, yes)
	}
}

func TestReduceDecisionCollapsesOnUnequalOperands(t *testing.T) {
	s := newTestStore()
	seven := s.NewBuiltinInt(7)
	eight := s.NewBuiltinInt(8)
	yes := s.Insert(Unique{Id: 100}, Root())
	no := s.Insert(Unique{Id: 200}, Root())

	dec := s.Insert(Decision{L: seven, R: eight, Eq: yes, Neq: no}, Root())
	got := mustReduce(t, s, dec)
	if got != no {
		t.Fatalf("Decision(7, 8, yes, no) reduced to %d, want %d (no branch)", got, no)
	}
}

func TestReduceDecisionLeavesUndecidedOpen(t *testing.T) {
	s := newTestStore()
	x := s.PushVariable(nil, nil, 0)
	y := s.PushVariable(nil, nil, 1)
	yes := s.Insert(Unique{Id: 100}, Root())
	no := s.Insert(Unique{Id: 200}, Root())

	dec := s.Insert(Decision{L: x, R: y, Eq: yes, Neq: no}, Root())
	got := mustReduce(t, s, dec)
	if _, ok := s.Def(got).(Decision); !ok {
		t.Fatalf("Decision over two distinct free variables should stay open, got %T", s.Def(got))
	}
}

func TestReduceSubstitutionForcesToNormalForm(t *testing.T) {
	s := newTestStore()
	x := s.PushVariable(nil, nil, 0)
	xv := s.Def(x).(Variable).Var
	seven := s.NewBuiltinInt(7)

	subId, err := s.Substitute(x, []VariableId{xv}, []ItemId{seven})
	if err != nil {
		t.Fatal(err)
	}
	got := mustReduce(t, s, subId)
	if got != seven {
		t.Fatalf("reducing Substitution{x, x:=7} = %d, want %d", got, seven)
	}
}

func TestReduceIsPopulatedStructTrichotomy(t *testing.T) {
	s := newTestStore()
	trueId, _ := s.LanguageItem("true")
	falseId, _ := s.LanguageItem("false")

	st := s.Insert(Struct{Label: "f", Value: trueId, Rest: falseId}, Root())
	got := mustReduce(t, s, s.Insert(IsPopulatedStruct{Base: st}, Root()))
	if got != trueId {
		t.Fatalf("IsPopulatedStruct(struct) = %d, want language item true (%d)", got, trueId)
	}

	notAStruct := s.PushUnique()
	got = mustReduce(t, s, s.Insert(IsPopulatedStruct{Base: notAStruct}, Root()))
	if got != falseId {
		t.Fatalf("IsPopulatedStruct(unique) = %d, want language item false (%d)", got, falseId)
	}

	abstract := s.PushVariable(nil, nil, 0)
	got = mustReduce(t, s, s.Insert(IsPopulatedStruct{Base: abstract}, Root()))
	if _, ok := s.Def(got).(IsPopulatedStruct); !ok {
		t.Fatalf("IsPopulatedStruct(free variable) should stay open, got %T", s.Def(got))
	}
}

func TestReducePrimitiveOperationEvaluatesWhenConcrete(t *testing.T) {
	s := newTestStore()
	three := s.NewBuiltinInt(3)
	four := s.NewBuiltinInt(4)
	op := s.Insert(PrimitiveOperation{Op: OpAdd, Lhs: three, Rhs: four}, Root())

	got := mustReduce(t, s, op)
	bv, ok := s.Def(got).(BuiltinValue)
	if !ok {
		t.Fatalf("3+4 should reduce to a BuiltinValue, got %T", s.Def(got))
	}
	if bv.N.String() != "7" {
		t.Fatalf("3+4 = %s, want 7", bv.N.String())
	}
}

func TestReducePrimitiveOperationStaysOpenOnFreeOperand(t *testing.T) {
	s := newTestStore()
	x := s.PushVariable(nil, nil, 0)
	four := s.NewBuiltinInt(4)
	op := s.Insert(PrimitiveOperation{Op: OpAdd, Lhs: x, Rhs: four}, Root())

	got := mustReduce(t, s, op)
	if _, ok := s.Def(got).(PrimitiveOperation); !ok {
		t.Fatalf("x+4 with x free should stay an open PrimitiveOperation, got %T", s.Def(got))
	}
}
