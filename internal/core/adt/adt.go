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

// Package adt implements the semantic kernel of the scarlet expression
// language: a global arena of interned items, a resolver, and the
// dependency, substitution, reduction, equality, and invariant engines that
// operate over it. See for the language-independent specification;
// this package is the "core" it describes.
package adt

// ItemId is an opaque, stable handle into the arena. Equal ids denote the
// same term; distinct ids may still be definitionally equal (see Equal).
// The zero value is never a valid id.
type ItemId uint32

// VariableId is the identity of a bindable variable, independent of its
// invariants and dependencies. Two Variable terms with the same VariableId
// are the same variable wherever they occur.
type VariableId uint32

// UniqueId is the identity of an opaque, inequal-to-anything-else value: a
// fresh constant used to seed uninhabited types and axiom statements. Two
// Unique terms are equal iff they share a UniqueId.
type UniqueId uint32

// Node is implemented by everything that can be the definition carried by
// an arena slot.
type Node interface {
	// defString renders the node for debugging (see debug.go). It must not
	// be used for anything but diagnostics: it is not a surface-syntax
	// pretty-printer (that lives outside the kernel, §1).
	defString(s *store) string

	// node is unexported to keep Node a closed sum, mirroring the tagged
	// dispatch §9 recommends over a polymorphic method table.
	node()
}
