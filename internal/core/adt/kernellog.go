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
	"fmt"
	"strings"
)

// This file is the kernel's tracer, §A.2: a cheap,
// allocation-avoiding-when-disabled logger gated by Store.Trace, modeled on
// the indentation-nested OpContext.Indentf/Logf pattern. It uses only fmt
// and strings — no external logging library, since the ambient concern
// here is small enough that a third-party logger would add indirection
// without buying anything (see DESIGN.md).

// logf prints an indented trace line through Tracer if tracing is enabled.
// The call is cheap but not free when disabled, so callers on a hot path
// should still guard with `if s.Trace` before building expensive arguments.
func (s *Store) logf(format string, args ...any) {
	if !s.Trace {
		return
	}
	s.Tracer(strings.Repeat("  ", s.traceNest) + fmt.Sprintf(format, args...))
}

// enter logs format and increases the nesting level; the returned function
// restores it. Typical use: `defer s.enter("reduce %s", s.debugRef(id))()`.
func (s *Store) enter(format string, args ...any) func() {
	s.logf(format, args...)
	s.traceNest++
	return func() { s.traceNest-- }
}
