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

// Mutex is a mutual exclusion lock protecting a value of type T, with a level
// in the lock hierarchy. The zero value is an unlocked mutex at level 0
// holding the zero T.
//
// A Mutex must not be copied after first use.
type Mutex[T any] struct {
	mu     syncutil.Mutex
	poison syncutil.Poison
	level  level.Level
	value  T
}

// NewMutex returns a mutex holding v at level 0. Use level 0 for locks that
// must never be held while acquiring another lock.
func NewMutex[T any](v T) *Mutex[T] {
	return NewMutexWithLevel(v, 0)
}

// NewMutexWithLevel returns a mutex holding v at the given level. Locks with
// higher levels must be acquired first if locks are to be held together.
func NewMutexWithLevel[T any](v T, lvl uint32) *Mutex[T] {
	return &Mutex[T]{value: v, level: level.New(lvl)}
}

// Level returns the mutex's level, or 0 if checks are compiled out.
func (m *Mutex[T]) Level() uint32 {
	return m.level.Value()
}

// Lock checks the hierarchy, then blocks until the mutex is available.
//
// It panics with a *HierarchyViolation if the calling goroutine holds a lock
// at the same or a lower level; in that case the mutex is never touched.
// If the mutex is poisoned, Lock still acquires it and returns the guard
// together with a *PoisonError carrying the same guard.
//
// Guards acquired with Lock never poison the mutex, even when Unlock runs
// from a deferred call during a panic. Use WithLock to poison on panic.
func (m *Mutex[T]) Lock() (*MutexGuard[T], error) {
	lg := m.level.Acquire()
	m.mu.Lock()
	g := &MutexGuard[T]{mu: m, slot: slot{level: lg}}
	if m.poison.Poisoned() {
		return g, &PoisonError[*MutexGuard[T]]{inner: g}
	}
	return g, nil
}

// WithLock locks m, calls fn with the protected value and unlocks m, also when
// fn panics. A panic escaping fn poisons the mutex and keeps unwinding.
// If m is already poisoned fn is not called and a *PoisonError is returned.
func (m *Mutex[T]) WithLock(fn func(v *T)) error {
	g, err := m.Lock()
	if err != nil {
		g.Unlock()
		return err
	}

	panicked := true
	defer func() {
		if panicked {
			m.poison.Mark()
			logPoisoned("mutex", m.Level())
		}
		g.Unlock()
	}()
	fn(&m.value)
	panicked = false
	return nil
}

// GetMut returns a pointer to the protected value without locking or
// checking the hierarchy. The caller must guarantee that nothing else uses m,
// for example while it is still being set up.
func (m *Mutex[T]) GetMut() (*T, error) {
	if m.poison.Poisoned() {
		return &m.value, &PoisonError[*T]{inner: &m.value}
	}
	return &m.value, nil
}

// IntoInner returns the protected value without locking or checking the
// hierarchy. It is meant for when m is being discarded; the caller must
// guarantee that nothing else uses m.
func (m *Mutex[T]) IntoInner() (T, error) {
	if m.poison.Poisoned() {
		return m.value, &PoisonError[T]{inner: m.value}
	}
	return m.value, nil
}

// IsPoisoned reports whether a panic escaped a WithLock call.
func (m *Mutex[T]) IsPoisoned() bool {
	return m.poison.Poisoned()
}

// ClearPoison marks the mutex as no longer poisoned.
func (m *Mutex[T]) ClearPoison() {
	m.poison.Clear()
}

// MutexGuard grants exclusive access to the value of a locked Mutex. It must
// be unlocked exactly once, on the goroutine that locked it.
type MutexGuard[T any] struct {
	mu   *Mutex[T]
	slot slot
}

// Get returns a copy of the protected value.
func (g *MutexGuard[T]) Get() T {
	g.slot.mustHold("Get")
	return g.mu.value
}

// Set replaces the protected value.
func (g *MutexGuard[T]) Set(v T) {
	g.slot.mustHold("Set")
	g.mu.value = v
}

// Value returns a pointer to the protected value. It must not be used after
// Unlock.
func (g *MutexGuard[T]) Value() *T {
	g.slot.mustHold("Value")
	return &g.mu.value
}

// Unlock releases the mutex and then the guard's hierarchy slot.
func (g *MutexGuard[T]) Unlock() {
	g.slot.unlock(g.mu.mu.Unlock)
}

func (g *MutexGuard[T]) String() string {
	g.slot.mustHold("String")
	return fmt.Sprint(g.mu.value)
}

// Format formats the protected value as if it had been passed directly.
func (g *MutexGuard[T]) Format(f fmt.State, verb rune) {
	g.slot.mustHold("Format")
	formatValue(f, verb, g.mu.value)
}
