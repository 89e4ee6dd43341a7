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

package syncutil

import "sync/atomic"

// Poison records that a holder of a lock panicked while holding it.
// The zero value is not poisoned.
type Poison struct {
	failed atomic.Bool
}

// Mark flags the lock as poisoned.
func (p *Poison) Mark() {
	p.failed.Store(true)
}

// Clear resets the poisoned flag.
func (p *Poison) Clear() {
	p.failed.Store(false)
}

// Poisoned reports whether Mark was called since the last Clear.
func (p *Poison) Poisoned() bool {
	return p.failed.Load()
}
