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

// Package level implements the lock-hierarchy ordering check.
//
// Every lock carries a Level. A goroutine may only acquire a level that is
// strictly lower than every level it already holds. Each goroutine keeps a
// stack of the levels it holds, newest last, so the newest entry is always the
// minimum and the check is a single comparison. Guards may be released in any
// order.
//
// The check is compiled in by default. Building with -tags=nolockcheck turns
// Level and Guard into zero-sized types whose methods do nothing.
//
// A Guard must be released on the goroutine that acquired it. Releasing it
// anywhere else panics with an *InvariantError rather than touching another
// goroutine's stack.
package level

import "fmt"

// Violation is the panic value raised when a goroutine acquires a level that is
// not strictly lower than the lowest level it already holds.
type Violation struct {
	// HeldAt describes where the conflicting level was acquired, if known.
	HeldAt string
	// Requested is the level the goroutine tried to acquire.
	Requested uint32
	// Held is the lowest level the goroutine already held.
	Held uint32
}

func (v *Violation) Error() string {
	return fmt.Sprintf("lockhierarchy: tried to acquire lock with level %d while a lock with level %d is acquired; "+
		"this violates the lock hierarchy and could lead to deadlocks", v.Requested, v.Held)
}

// InvariantError is the panic value raised when the tracking state is found to
// be inconsistent on release. It is never expected under correct guard use.
type InvariantError struct {
	Level    uint32
	Acquirer int64
	Releaser int64
}

func (e *InvariantError) Error() string {
	if e.Acquirer != e.Releaser {
		return fmt.Sprintf("lockhierarchy: guard for level %d acquired on goroutine %d released on goroutine %d",
			e.Level, e.Acquirer, e.Releaser)
	}
	return fmt.Sprintf("lockhierarchy: level %d released but not held by goroutine %d", e.Level, e.Releaser)
}
