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
	"github.com/petermattis/goid"

	"github.com/ZaparooProject/go-lockhierarchy/internal/debug"
)

// Checked reports whether the ordering check is compiled in.
const Checked = true

// Level is the rank of a lock in the hierarchy. The zero value is level 0.
type Level struct {
	value uint32
}

// New returns the level v.
func New(v uint32) Level {
	return Level{value: v}
}

// Value returns the numeric rank.
func (l Level) Value() uint32 {
	return l.value
}

// Acquire records l as held by the calling goroutine and returns the guard that
// releases it. It panics with a *Violation, without recording anything, if the
// goroutine already holds a level lower than or equal to l.
//
// Acquire never blocks. Callers must invoke it before blocking on the lock the
// level belongs to.
func (l Level) Acquire() Guard {
	id := goid.Get()
	s, _ := stacks.LoadOrCompute(id, newStack)
	if v := s.push(l.value, callers()); v != nil {
		debug.Debugf("goroutine %d: lock level %d requested while holding level %d acquired at %s",
			id, v.Requested, v.Held, v.HeldAt)
		panic(v)
	}
	return Guard{level: l.value, owner: id}
}

// Guard is the capability for one held level.
type Guard struct {
	level uint32
	owner int64
}

// Level returns the level the guard holds.
func (g Guard) Level() uint32 {
	return g.level
}

// CheckOwner panics with an *InvariantError if the calling goroutine is not
// the one that acquired g. Nothing is modified.
func (g Guard) CheckOwner() {
	g.checkOwner(goid.Get())
}

func (g Guard) checkOwner(id int64) {
	if id != g.owner {
		fail(&InvariantError{Level: g.level, Acquirer: g.owner, Releaser: id})
	}
}

// Release removes the guard's level from the calling goroutine's stack. It
// panics with an *InvariantError if called on a goroutine other than the one
// that acquired the guard, or if the level is not held (double release).
func (g Guard) Release() {
	id := goid.Get()
	g.checkOwner(id)
	s, ok := stacks.Load(id)
	if !ok || !s.remove(g.level) {
		fail(&InvariantError{Level: g.level, Acquirer: g.owner, Releaser: id})
	}
	if s.empty() {
		stacks.Delete(id)
	}
}

// Held returns the levels held by the calling goroutine, oldest first.
func Held() []uint32 {
	s, ok := stacks.Load(goid.Get())
	if !ok {
		return nil
	}
	return s.levels()
}

func fail(err *InvariantError) {
	debug.Debugln(err.Error())
	panic(err)
}
