// Copyright 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: Apache-2.0
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

package lockhierarchy

import (
	"fmt"

	"github.com/ZaparooProject/go-lockhierarchy/internal/debug"
	"github.com/ZaparooProject/go-lockhierarchy/level"
)

// slot is the hierarchy half of a combined guard.
type slot struct {
	level    level.Guard
	released bool
}

func (s *slot) mustHold(op string) {
	if s.released {
		panic("lockhierarchy: " + op + " on unlocked guard")
	}
}

// unlock releases the primitive with unlockFn and then the level. Ownership
// is checked first, so a foreign Unlock leaves the guard, the primitive and
// the owner's stack untouched.
func (s *slot) unlock(unlockFn func()) {
	s.mustHold("Unlock")
	s.level.CheckOwner()
	s.released = true
	unlockFn()
	s.level.Release()
}

// formatValue forwards a formatting directive unchanged to v.
func formatValue(f fmt.State, verb rune, v any) {
	_, _ = fmt.Fprintf(f, fmt.FormatString(f, verb), v)
}

func logPoisoned(kind string, lvl uint32) {
	debug.Debugf("%s with level %d poisoned by a panic while held", kind, lvl)
}
