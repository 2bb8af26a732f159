// Copyright 2018 The CUE Authors
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

// Package token holds the position type that the kernel threads through its
// diagnostics. The kernel never produces positions itself — it has no lexer
// or parser (those are external collaborators, see §1) — so Pos is
// opaque cargo the kernel carries on behalf of whatever frontend called it.
package token

import "fmt"

// Position describes an arbitrary, printable source position: a filename,
// byte offset, and line/column pair. The kernel never constructs one of
// these itself; a frontend fills one in and passes it down to Newf/Wrapf.
//
// A Position is valid if the line number is > 0.
type Position struct {
	Filename string
	Offset   int
	Line     int
	Column   int
}

// IsValid reports whether the position is valid.
func (pos *Position) IsValid() bool { return pos.Line > 0 }

// String returns a human-readable form of a position in one of several forms:
//
//	file:line:column    valid position with file name
//	line:column         valid position without file name
//	file                invalid position with file name
//	-                   invalid position without file name
func (pos Position) String() string {
	s := pos.Filename
	if pos.IsValid() {
		if s != "" {
			s += ":"
		}
		s += fmt.Sprintf("%d:%d", pos.Line, pos.Column)
	}
	if s == "" {
		s = "-"
	}
	return s
}

// Pos is the value the kernel threads through as a "principal position".
// It is a thin, comparable wrapper around a Position; the kernel treats it
// as opaque and only ever stores, compares, or hands it back to the caller.
type Pos struct {
	pos   Position
	valid bool
}

// NoPos is the zero value for Pos; it means "no position was supplied".
var NoPos = Pos{}

// Of wraps a concrete Position as a Pos. Frontends call this; the kernel
// never does.
func Of(p Position) Pos {
	return Pos{pos: p, valid: true}
}

// IsValid reports whether the position is present.
func (p Pos) IsValid() bool { return p.valid }

// Position returns the underlying printable position.
func (p Pos) Position() Position { return p.pos }

// Compare orders positions for stable diagnostic sorting: NoPos sorts first,
// then by filename, offset.
func (p Pos) Compare(q Pos) int {
	switch {
	case p == q:
		return 0
	case !p.valid:
		return -1
	case !q.valid:
		return 1
	case p.pos.Filename != q.pos.Filename:
		if p.pos.Filename < q.pos.Filename {
			return -1
		}
		return 1
	case p.pos.Offset != q.pos.Offset:
		if p.pos.Offset < q.pos.Offset {
			return -1
		}
		return 1
	default:
		return 0
	}
}

func (p Pos) String() string {
	if !p.valid {
		return "-"
	}
	return p.pos.String()
}
