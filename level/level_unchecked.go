//go:build nolockcheck

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

// Checked reports whether the ordering check is compiled in.
const Checked = false

// Level is the rank of a lock in the hierarchy. With nolockcheck it stores nothing.
type Level struct{}

// New returns a level. The rank is discarded.
func New(uint32) Level {
	return Level{}
}

// Value always returns 0.
func (Level) Value() uint32 {
	return 0
}

// Acquire does nothing.
func (Level) Acquire() Guard {
	return Guard{}
}

// Guard is the capability for one held level. With nolockcheck it stores nothing.
type Guard struct{}

// Level always returns 0.
func (Guard) Level() uint32 {
	return 0
}

// Release does nothing.
func (Guard) CheckOwner() {}

func (Guard) Release() {}

// Held always returns nil.
func Held() []uint32 {
	return nil
}
