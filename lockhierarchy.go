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

// Package lockhierarchy provides Mutex and RWMutex wrappers that check, per
// goroutine, that locks are acquired in a fixed hierarchy.
//
// Every lock is assigned a level when it is created (0 by default). While a
// goroutine holds locks, it may only acquire a lock whose level is strictly
// lower than all levels it already holds. Acquiring a lock out of order, or a
// second lock at a level the goroutine already holds, panics with a
// *HierarchyViolation before the underlying lock is touched. Violating the
// hierarchy is a precondition for lock-order deadlocks, so this turns a rare
// hang into an immediate failure at the offending call.
//
// The check is on by default. Build with -tags=nolockcheck to compile it out;
// the wrappers then behave exactly like the plain sync primitives. Build with
// -tags=deadlock to additionally back the wrappers with
// github.com/sasha-s/go-deadlock.
//
//	config := lockhierarchy.NewMutexWithLevel(Config{}, 1)
//	stats := lockhierarchy.NewMutex(Stats{}) // level 0
//
//	c, _ := config.Lock()
//	defer c.Unlock()
//	s, _ := stats.Lock() // fine: 0 < 1
//	defer s.Unlock()
//
// Locking config while holding stats panics.
//
// Guards must be unlocked on the goroutine that locked them. Unlocking a guard
// on another goroutine panics with an *InvariantError.
package lockhierarchy

import (
	"io"

	"github.com/ZaparooProject/go-lockhierarchy/internal/debug"
	"github.com/ZaparooProject/go-lockhierarchy/internal/syncutil"
	"github.com/ZaparooProject/go-lockhierarchy/level"
)

// Checked reports whether hierarchy checks are compiled in.
const Checked = level.Checked

// DeadlockEnabled reports whether the locks are backed by go-deadlock.
const DeadlockEnabled = syncutil.DeadlockEnabled

// HierarchyViolation is the panic value raised when a goroutine acquires a lock
// out of hierarchy order.
type HierarchyViolation = level.Violation

// InvariantError is the panic value raised when a guard is released on the
// wrong goroutine or its level is no longer tracked.
type InvariantError = level.InvariantError

// SetDebugEnabled turns console debug logging on or off. It can also be
// enabled with the LOCKHIERARCHY_DEBUG environment variable.
func SetDebugEnabled(enabled bool) {
	debug.SetEnabled(enabled)
}

// SetDebugOutput sends timestamped debug lines to w and returns the previous
// writer. Pass nil to stop.
func SetDebugOutput(w io.Writer) io.Writer {
	return debug.SetOutput(w)
}
