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

import "errors"

// ErrPoisoned is matched by every PoisonError.
var ErrPoisoned = errors.New("poisoned lock: another goroutine panicked while holding it")

// PoisonError is returned when a lock is acquired after a previous holder
// panicked inside a scoped call. It carries what the call would have returned
// had the lock not been poisoned, so the caller can accept the state and go on.
type PoisonError[G any] struct {
	inner G
}

func (e *PoisonError[G]) Error() string {
	return ErrPoisoned.Error()
}

func (e *PoisonError[G]) Unwrap() error {
	return ErrPoisoned
}

// Inner returns the guard or value the failed call carried.
func (e *PoisonError[G]) Inner() G {
	return e.inner
}
