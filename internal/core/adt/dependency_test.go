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

func TestDependenciesOfUniqueIsEmpty(t *testing.T) {
	s := newTestStore()
	u := s.PushUnique()
	if deps := s.Dependencies(u).Slice(); len(deps) != 0 {
		t.Fatalf("Dependencies(unique) = %v, want empty", deps)
	}
}

func TestDependenciesOfVariableIsItself(t *testing.T) {
	s := newTestStore()
	v := s.PushVariable(nil, nil, 0)
	deps := s.Dependencies(v).Slice()
	if len(deps) != 1 {
		t.Fatalf("Dependencies(var) = %v, want exactly the variable itself", deps)
	}
	vv := s.Def(v).(Variable).Var
	if deps[0].Var != vv || !deps[0].AffectsReturnValue {
		t.Fatalf("Dependencies(var) entry = %+v, want {Var:%d AffectsReturnValue:true}", deps[0], vv)
	}
}

func TestDependenciesPreservesFirstOccurrenceOrder(t *testing.T) {
	s := newTestStore()
	x := s.PushVariable(nil, nil, 0)
	y := s.PushVariable(nil, nil, 1)
	st := s.Insert(Struct{Label: "a", Value: x, Rest: s.Insert(Struct{Label: "b", Value: y, Rest: x}, Root())}, Root())

	deps := s.Dependencies(st).Slice()
	if len(deps) != 2 {
		t.Fatalf("Dependencies(struct) has %d entries, want 2 (x, y each once)", len(deps))
	}
	xv := s.Def(x).(Variable).Var
	yv := s.Def(y).(Variable).Var
	if deps[0].Var != xv || deps[1].Var != yv {
		t.Fatalf("Dependencies order = [%d %d], want [%d %d] (x before y, first occurrence)", deps[0].Var, deps[1].Var, xv, yv)
	}
}

func TestDependenciesSkipsDueToRecursion(t *testing.T) {
	s := newTestStore()
	ph := s.Placeholder(Root())
	rec := s.Insert(Other{Target: ph, Recursive: true}, Root())
	s.setResolved(ph, Struct{Label: "self", Value: rec, Rest: rec})

	deps := s.Dependencies(ph)
	if len(deps.Slice()) != 0 {
		t.Fatalf("Dependencies(cyclic struct) = %v, want empty (no free variables)", deps.Slice())
	}
}

func TestDependenciesSkippedDueToUnresolvedPoisons(t *testing.T) {
	s := newTestStore()
	ph := s.Placeholder(Root())
	axiom := s.Insert(Axiom{Statement: ph}, Root())
	deps := s.Dependencies(axiom)
	if deps.SkippedDueToUnresolved == nil {
		t.Fatalf("Dependencies over an unresolved sub-item should report SkippedDueToUnresolved")
	}
}

func TestWithDependenciesReordersByPriority(t *testing.T) {
	s := newTestStore()
	x := s.PushVariable(nil, nil, 0)
	y := s.PushVariable(nil, nil, 1)
	z := s.PushVariable(nil, nil, 2)
	st := s.Insert(Struct{
		Label: "a", Value: x,
		Rest: s.Insert(Struct{Label: "b", Value: y, Rest: s.Insert(Struct{Label: "c", Value: z, Rest: x}, Root())}, Root()),
	}, Root())

	withDeps := s.Insert(WithDependencies{Base: st, Prio: []ItemId{z, x}}, Root())
	deps := s.Dependencies(withDeps).Slice()
	if len(deps) != 3 {
		t.Fatalf("got %d deps, want 3", len(deps))
	}
	zv := s.Def(z).(Variable).Var
	xv := s.Def(x).(Variable).Var
	yv := s.Def(y).(Variable).Var
	if deps[0].Var != zv || deps[1].Var != xv || deps[2].Var != yv {
		t.Fatalf("WithDependencies order = [%d %d %d], want [z=%d x=%d y=%d]", deps[0].Var, deps[1].Var, deps[2].Var, zv, xv, yv)
	}
}

func TestWithDependenciesSilentlyDropsUnknownPriorityEntry(t *testing.T) {
	s := newTestStore()
	x := s.PushVariable(nil, nil, 0)
	notAVariable := s.PushUnique()
	withDeps := s.Insert(WithDependencies{Base: x, Prio: []ItemId{notAVariable}}, Root())
	deps := s.Dependencies(withDeps).Slice()
	if len(deps) != 1 || deps[0].Var != s.Def(x).(Variable).Var {
		t.Fatalf("Dependencies(with-deps) = %v, want just x unaffected by the bogus priority entry", deps)
	}
}
