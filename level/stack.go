//go:build !nolockcheck

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

package level

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/puzpuzpuz/xsync/v3"
)

// stacks maps a goroutine ID to the levels that goroutine holds. Only the owning
// goroutine reads or writes its own stack, so stacks themselves are unguarded.
// Empty stacks are deleted so exited goroutines leave nothing behind.
var stacks = xsync.NewMapOf[int64, *stack]()

// siteDepth is how many frames of the acquiring call chain are kept per entry.
const siteDepth = 4

type entry struct {
	site  [siteDepth]uintptr
	level uint32
}

// stack holds levels in acquisition order. Each entry is strictly lower than
// every entry before it, so the last entry is the minimum.
type stack struct {
	entries []entry
}

func newStack() *stack {
	return &stack{}
}

func (s *stack) push(lvl uint32, site [siteDepth]uintptr) *Violation {
	if n := len(s.entries); n > 0 {
		if lowest := s.entries[n-1]; lowest.level <= lvl {
			return &Violation{Requested: lvl, Held: lowest.level, HeldAt: describe(lowest.site)}
		}
	}
	s.entries = append(s.entries, entry{level: lvl, site: site})
	return nil
}

// remove deletes the newest entry equal to lvl. Entries are unique, but the
// scan still starts at the newest since that is where a release usually lands.
func (s *stack) remove(lvl uint32) bool {
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].level == lvl {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (s *stack) empty() bool {
	return len(s.entries) == 0
}

func (s *stack) levels() []uint32 {
	out := make([]uint32, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.level
	}
	return out
}

// callers captures the call chain above Acquire.
func callers() [siteDepth]uintptr {
	var pcs [siteDepth]uintptr
	runtime.Callers(3, pcs[:])
	return pcs
}

func describe(site [siteDepth]uintptr) string {
	n := 0
	for n < len(site) && site[n] != 0 {
		n++
	}
	if n == 0 {
		return "unknown"
	}
	frames := runtime.CallersFrames(site[:n])
	var parts []string
	for {
		frame, more := frames.Next()
		parts = append(parts, fmt.Sprintf("%s (%s:%d)", frame.Function, frame.File, frame.Line))
		if !more {
			break
		}
	}
	return strings.Join(parts, " <- ")
}
