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

	"github.com/ZaparooProject/go-lockhierarchy/internal/syncutil"
	"github.com/ZaparooProject/go-lockhierarchy/level"
)

// RWMutex is a reader/writer lock protecting a value of type T, with a level
// in the lock hierarchy. The zero value is an unlocked lock at level 0 holding
// the zero T.
//
// Read and write acquisitions are checked alike: a goroutine holding a read
// lock at some level cannot take another read lock at that level, because
// recursive read locking deadlocks once a writer is waiting.
//
// An RWMutex must not be copied after first use.
type RWMutex[T any] struct {
	mu     syncutil.RWMutex
	poison syncutil.Poison
	level  level.Level
	value  T
}

// NewRWMutex returns a lock holding v at level 0.
func NewRWMutex[T any](v T) *RWMutex[T] {
	return NewRWMutexWithLevel(v, 0)
}

// NewRWMutexWithLevel returns a lock holding v at the given level. Locks with
// higher levels must be acquired first if locks are to be held together.
func NewRWMutexWithLevel[T any](v T, lvl uint32) *RWMutex[T] {
	return &RWMutex[T]{value: v, level: level.New(lvl)}
}

// Level returns the lock's level, or 0 if checks are compiled out.
func (rw *RWMutex[T]) Level() uint32 {
	return rw.level.Value()
}

// RLock checks the hierarchy, then blocks until rw can be read-locked.
// Hierarchy violations and poisoning are handled as in Mutex.Lock.
func (rw *RWMutex[T]) RLock() (*RWMutexReadGuard[T], error) {
	lg := rw.level.Acquire()
	rw.mu.RLock()
	g := &RWMutexReadGuard[T]{rw: rw, slot: slot{level: lg}}
	if rw.poison.Poisoned() {
		return g, &PoisonError[*RWMutexReadGuard[T]]{inner: g}
	}
	return g, nil
}

// Lock checks the hierarchy, then blocks until rw can be write-locked.
// Hierarchy violations and poisoning are handled as in Mutex.Lock; only
// WithLock poisons.
func (rw *RWMutex[T]) Lock() (*RWMutexWriteGuard[T], error) {
	lg := rw.level.Acquire()
	rw.mu.Lock()
	g := &RWMutexWriteGuard[T]{rw: rw, slot: slot{level: lg}}
	if rw.poison.Poisoned() {
		return g, &PoisonError[*RWMutexWriteGuard[T]]{inner: g}
	}
	return g, nil
}

// WithRLock read-locks rw, calls fn with a copy of the protected value and
// unlocks rw, also when fn panics. Panics under a read lock do not poison.
// If rw is poisoned fn is not called and a *PoisonError is returned.
func (rw *RWMutex[T]) WithRLock(fn func(v T)) error {
	g, err := rw.RLock()
	if err != nil {
		g.Unlock()
		return err
	}
	defer g.Unlock()
	fn(rw.value)
	return nil
}

// WithLock write-locks rw, calls fn with the protected value and unlocks rw,
// also when fn panics. A panic escaping fn poisons rw and keeps unwinding.
// If rw is poisoned fn is not called and a *PoisonError is returned.
func (rw *RWMutex[T]) WithLock(fn func(v *T)) error {
	g, err := rw.Lock()
	if err != nil {
		g.Unlock()
		return err
	}

	panicked := true
	defer func() {
		if panicked {
			rw.poison.Mark()
			logPoisoned("rwmutex", rw.Level())
		}
		g.Unlock()
	}()
	fn(&rw.value)
	panicked = false
	return nil
}

// GetMut returns a pointer to the protected value without locking or
// checking the hierarchy. The caller must guarantee that nothing else uses rw.
func (rw *RWMutex[T]) GetMut() (*T, error) {
	if rw.poison.Poisoned() {
		return &rw.value, &PoisonError[*T]{inner: &rw.value}
	}
	return &rw.value, nil
}

// IntoInner returns the protected value without locking or checking the
// hierarchy. The caller must guarantee that nothing else uses rw.
func (rw *RWMutex[T]) IntoInner() (T, error) {
	if rw.poison.Poisoned() {
		return rw.value, &PoisonError[T]{inner: rw.value}
	}
	return rw.value, nil
}

// IsPoisoned reports whether a panic escaped a WithLock call.
func (rw *RWMutex[T]) IsPoisoned() bool {
	return rw.poison.Poisoned()
}

// ClearPoison marks the lock as no longer poisoned.
func (rw *RWMutex[T]) ClearPoison() {
	rw.poison.Clear()
}

// RWMutexReadGuard grants shared access to the value of a read-locked RWMutex.
type RWMutexReadGuard[T any] struct {
	rw   *RWMutex[T]
	slot slot
}

// Get returns a copy of the protected value.
func (g *RWMutexReadGuard[T]) Get() T {
	g.slot.mustHold("Get")
	return g.rw.value
}

// Unlock releases the read lock and then the guard's hierarchy slot.
func (g *RWMutexReadGuard[T]) Unlock() {
	g.slot.unlock(g.rw.mu.RUnlock)
}

func (g *RWMutexReadGuard[T]) String() string {
	g.slot.mustHold("String")
	return fmt.Sprint(g.rw.value)
}

// Format formats the protected value as if it had been passed directly.
func (g *RWMutexReadGuard[T]) Format(f fmt.State, verb rune) {
	g.slot.mustHold("Format")
	formatValue(f, verb, g.rw.value)
}

// RWMutexWriteGuard grants exclusive access to the value of a write-locked
// RWMutex.
type RWMutexWriteGuard[T any] struct {
	rw   *RWMutex[T]
	slot slot
}

// Get returns a copy of the protected value.
func (g *RWMutexWriteGuard[T]) Get() T {
	g.slot.mustHold("Get")
	return g.rw.value
}

// Set replaces the protected value.
func (g *RWMutexWriteGuard[T]) Set(v T) {
	g.slot.mustHold("Set")
	g.rw.value = v
}

// Value returns a pointer to the protected value. It must not be used after
// Unlock.
func (g *RWMutexWriteGuard[T]) Value() *T {
	g.slot.mustHold("Value")
	return &g.rw.value
}

// Unlock releases the write lock and then the guard's hierarchy slot.
func (g *RWMutexWriteGuard[T]) Unlock() {
	g.slot.unlock(g.rw.mu.Unlock)
}

func (g *RWMutexWriteGuard[T]) String() string {
	g.slot.mustHold("String")
	return fmt.Sprint(g.rw.value)
}

// Format formats the protected value as if it had been passed directly.
func (g *RWMutexWriteGuard[T]) Format(f fmt.State, verb rune) {
	g.slot.mustHold("Format")
	formatValue(f, verb, g.rw.value)
}
