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

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func TestUnchecked_ZeroSized(t *testing.T) {
	t.Parallel()

	assert.Zero(t, unsafe.Sizeof(Level{}))
	assert.Zero(t, unsafe.Sizeof(Guard{}))
	assert.False(t, Checked)
}

func TestUnchecked_NeverPanics(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() {
		g0 := New(0).Acquire()
		g1 := New(0).Acquire()
		g2 := New(5).Acquire()
		g0.Release()
		g0.Release()
		g1.Release()
		g2.Release()
	})
	assert.Nil(t, Held())
	assert.Zero(t, New(9).Value())
}
