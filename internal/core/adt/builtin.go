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
	"github.com/cockroachdb/apd/v3"

	"github.com/joshua-maros/scarlet/cue/errors"
	"github.com/joshua-maros/scarlet/cue/token"
)

// This file holds the two term variants §C.1 adds to the
// grammar to give programs a concrete notion of number: BuiltinValue, a
// machine-integer constant, and PrimitiveOperation, the arithmetic and
// comparison ops closed terms reduce through. Both are ordinary Node
// variants: they intern, have dependencies (none, and the operands'
// respectively), reduce, and compare for equality exactly like any other
// term, so the rest of the kernel never special-cases them except to
// perform the arithmetic itself.

var arithCtx apd.Context

func init() {
	arithCtx = apd.BaseContext
	arithCtx.Precision = 40
}

// BuiltinValue is a concrete machine-integer constant.
type BuiltinValue struct {
	N apd.Decimal
}

func (BuiltinValue) node() {}

// PrimOp names the arithmetic or comparison a PrimitiveOperation performs.
type PrimOp uint8

const (
	OpAdd PrimOp = iota
	OpSub
	OpMul
	OpDiv
	OpLess
	OpLessEqual
	OpEqual
	OpNotEqual
)

// PrimitiveOperation applies Op to Lhs and Rhs. Reducing it to normal form
// (reduce.go) forces both operands and performs the arithmetic; comparisons
// collapse to the "true"/"false" language items, matching Decision's use of
// those same items as its Eq/Neq results would for a boolean-shaped term.
type PrimitiveOperation struct {
	Op       PrimOp
	Lhs, Rhs ItemId
}

func (PrimitiveOperation) node() {}

// NewBuiltinInt interns the machine-integer value n.
func (s *Store) NewBuiltinInt(n int64) ItemId {
	var d apd.Decimal
	d.SetInt64(n)
	return s.Insert(BuiltinValue{N: d}, Root())
}

// evalPrimitiveOperation computes the result of a fully-reduced
// PrimitiveOperation, returning the id of a BuiltinValue (for the
// arithmetic ops) or a boolean language item (for the comparison ops). A
// division by zero is reported through the same diagnostic-as-value
// discipline as the rest of the kernel (§7), not a panic.
func (s *Store) evalPrimitiveOperation(op PrimOp, lhs, rhs ItemId) (ItemId, errors.Error) {
	l, lok := s.Def(s.Dereference(lhs)).(BuiltinValue)
	r, rok := s.Def(s.Dereference(rhs)).(BuiltinValue)
	if !lok || !rok {
		return 0, errors.Newf(token.NoPos, "primitive operation over non-numeric operand")
	}

	switch op {
	case OpAdd, OpSub, OpMul, OpDiv:
		var d apd.Decimal
		var cond apd.Condition
		var err error
		switch op {
		case OpAdd:
			cond, err = arithCtx.Add(&d, &l.N, &r.N)
		case OpSub:
			cond, err = arithCtx.Sub(&d, &l.N, &r.N)
		case OpMul:
			cond, err = arithCtx.Mul(&d, &l.N, &r.N)
		case OpDiv:
			cond, err = arithCtx.QuoInteger(&d, &l.N, &r.N)
		}
		if cond.DivisionByZero() {
			return 0, errors.Newf(token.NoPos, "division by zero")
		}
		if err != nil {
			return 0, errors.Newf(token.NoPos, "arithmetic fault: %v", err)
		}
		return s.Insert(BuiltinValue{N: d}, Root()), nil

	case OpLess, OpLessEqual, OpEqual, OpNotEqual:
		cmp := l.N.Cmp(&r.N)
		var result bool
		switch op {
		case OpLess:
			result = cmp < 0
		case OpLessEqual:
			result = cmp <= 0
		case OpEqual:
			result = cmp == 0
		case OpNotEqual:
			result = cmp != 0
		}
		name := "false"
		if result {
			name = "true"
		}
		return s.LanguageItem(name)

	default:
		return 0, errors.Newf(token.NoPos, "unknown primitive operation")
	}
}
