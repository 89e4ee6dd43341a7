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

package lockhierarchy

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZaparooProject/go-lockhierarchy/level"
)

const violation00 = "lockhierarchy: tried to acquire lock with level 0 while a lock with level 0 is acquired; " +
	"this violates the lock hierarchy and could lead to deadlocks"

func TestChecked(t *testing.T) {
	t.Parallel()

	assert.True(t, Checked)
}

func TestHierarchy_SelfDeadlock(t *testing.T) {
	t.Parallel()

	// The check runs before the underlying Lock, otherwise this would hang.
	m := NewMutex(0)
	g, err := m.Lock()
	require.NoError(t, err)
	defer g.Unlock()

	assert.PanicsWithError(t, violation00, func() {
		_, _ = m.Lock()
	})
}

func TestHierarchy_TwoMutexesAtLevelZero(t *testing.T) {
	t.Parallel()

	a := NewMutex(5)
	b := NewMutex(42)
	ga, err := a.Lock()
	require.NoError(t, err)
	defer ga.Unlock()

	assert.PanicsWithError(t, violation00, func() {
		_, _ = b.Lock()
	})
}

func TestHierarchy_ZeroBeforeOne(t *testing.T) {
	t.Parallel()

	a := NewMutex(0)
	b := NewMutexWithLevel(0, 1)
	ga, err := a.Lock()
	require.NoError(t, err)
	defer ga.Unlock()

	assert.PanicsWithError(t, "lockhierarchy: tried to acquire lock with level 1 while a lock with level 0 is acquired; "+
		"this violates the lock hierarchy and could lead to deadlocks", func() {
		_, _ = b.Lock()
	})
}

func TestHierarchy_HigherFirst(t *testing.T) {
	t.Parallel()

	a := NewMutexWithLevel(5, 1)
	b := NewMutex(42)
	ga, err := a.Lock()
	require.NoError(t, err)
	gb, err := b.Lock()
	require.NoError(t, err)

	assert.Equal(t, []uint32{1, 0}, level.Held())
	gb.Unlock()
	ga.Unlock()
}

func TestHierarchy_LevelZeroInSuccession(t *testing.T) {
	t.Parallel()

	a := NewMutex(5)
	b := NewMutex(42)
	ga, err := a.Lock()
	require.NoError(t, err)
	ga.Unlock()

	gb, err := b.Lock()
	require.NoError(t, err)
	gb.Unlock()
	assert.Empty(t, level.Held())
}

func TestHierarchy_AnyReleaseOrder(t *testing.T) {
	t.Parallel()

	a := NewMutexWithLevel(struct{}{}, 2)
	b := NewMutexWithLevel(struct{}{}, 1)
	c := NewMutex(struct{}{})

	ga, err := a.Lock()
	require.NoError(t, err)
	gb, err := b.Lock()
	require.NoError(t, err)
	gc, err := c.Lock()
	require.NoError(t, err)

	gb.Unlock()
	assert.Equal(t, []uint32{2, 0}, level.Held())
	gc.Unlock()
	ga.Unlock()
	assert.Empty(t, level.Held())
}

func TestHierarchy_ReadAfterReadSameLock(t *testing.T) {
	t.Parallel()

	rw := NewRWMutex(struct{}{})
	r, err := rw.RLock()
	require.NoError(t, err)
	defer r.Unlock()

	assert.PanicsWithError(t, violation00, func() {
		_, _ = rw.RLock()
	})
}

func TestHierarchy_WriteAfterRead(t *testing.T) {
	t.Parallel()

	rw := NewRWMutex(struct{}{})
	r, err := rw.RLock()
	require.NoError(t, err)
	defer r.Unlock()

	assert.PanicsWithError(t, violation00, func() {
		_, _ = rw.Lock()
	})
}

func TestHierarchy_MixedWrappers(t *testing.T) {
	t.Parallel()

	outer := NewRWMutexWithLevel("outer", 10)
	middle := NewMutexWithLevel("middle", 5)
	inner := NewRWMutexWithLevel("inner", 1)

	err := outer.WithRLock(func(string) {
		assert.NoError(t, middle.WithLock(func(*string) {
			assert.NoError(t, inner.WithLock(func(v *string) {
				assert.Equal(t, []uint32{10, 5, 1}, level.Held())
				*v = "written"
			}))
			assert.Panics(t, func() { _ = outer.WithLock(func(*string) {}) })
		}))
	})
	require.NoError(t, err)
	assert.Empty(t, level.Held())

	v, err := inner.IntoInner()
	require.NoError(t, err)
	assert.Equal(t, "written", v)
}

func TestHierarchy_ViolationInsideWithLockPoisons(t *testing.T) {
	t.Parallel()

	a := NewMutex(1)
	b := NewMutex(2)

	assert.PanicsWithError(t, violation00, func() {
		_ = a.WithLock(func(*int) {
			_ = b.WithLock(func(*int) {})
		})
	})
	assert.True(t, a.IsPoisoned())
	assert.False(t, b.IsPoisoned(), "b was never locked")
	assert.Empty(t, level.Held())
}

func TestHierarchy_PoisonedMutexStillChecked(t *testing.T) {
	t.Parallel()

	m := poisonMutex(t, struct{}{})
	_, err := m.Lock()
	require.ErrorIs(t, err, ErrPoisoned)

	var perr *PoisonError[*MutexGuard[struct{}]]
	require.ErrorAs(t, err, &perr)
	g := perr.Inner()
	defer g.Unlock()

	assert.PanicsWithError(t, violation00, func() {
		_, _ = m.Lock()
	})
}

func TestHierarchy_PoisonedRWMutexStillChecked(t *testing.T) {
	t.Parallel()

	t.Run("read", func(t *testing.T) {
		t.Parallel()
		rw := poisonRWMutex(t, struct{}{})
		r, err := rw.RLock()
		require.ErrorIs(t, err, ErrPoisoned)
		defer r.Unlock()
		assert.PanicsWithError(t, violation00, func() { _, _ = rw.RLock() })
	})

	t.Run("write", func(t *testing.T) {
		t.Parallel()
		rw := poisonRWMutex(t, struct{}{})
		w, err := rw.Lock()
		require.ErrorIs(t, err, ErrPoisoned)
		defer w.Unlock()
		assert.PanicsWithError(t, violation00, func() { _, _ = rw.Lock() })
	})
}

func TestHierarchy_CorrectLevelLocked(t *testing.T) {
	t.Parallel()

	m := NewMutexWithLevel(struct{}{}, 1)
	g, err := m.Lock()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), g.slot.level.Level())
	g.Unlock()

	rw := NewRWMutexWithLevel(struct{}{}, 1)
	r, err := rw.RLock()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), r.slot.level.Level())
	r.Unlock()
	w, err := rw.Lock()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), w.slot.level.Level())
	w.Unlock()

	g0, err := NewMutex(struct{}{}).Lock()
	require.NoError(t, err)
	assert.Equal(t, uint32(0), g0.slot.level.Level())
	g0.Unlock()
}

func TestHierarchy_DefaultsAreLevelZero(t *testing.T) {
	t.Parallel()

	var zeroMutex Mutex[int]
	var zeroRW RWMutex[int]
	assert.Equal(t, uint32(0), zeroMutex.Level())
	assert.Equal(t, uint32(0), zeroRW.Level())
	assert.Equal(t, uint32(0), NewMutex(42).Level())
	assert.Equal(t, uint32(0), NewRWMutex(42).Level())
	assert.Equal(t, uint32(7), NewMutexWithLevel(42, 7).Level())
	assert.Equal(t, uint32(7), NewRWMutexWithLevel(42, 7).Level())

	// A default mutex conflicts with an explicit level-0 one.
	g, err := zeroMutex.Lock()
	require.NoError(t, err)
	defer g.Unlock()
	assert.PanicsWithError(t, violation00, func() {
		_, _ = NewMutexWithLevel(5, 0).Lock()
	})
}

func TestHierarchy_GetMutAndIntoInnerSkipCheck(t *testing.T) {
	t.Parallel()

	held := NewMutex(0)
	other := NewMutex(1)
	otherRW := NewRWMutex(2)

	g, err := held.Lock()
	require.NoError(t, err)
	defer g.Unlock()

	assert.NotPanics(t, func() {
		_, _ = other.GetMut()
		_, _ = other.IntoInner()
		_, _ = otherRW.GetMut()
		_, _ = otherRW.IntoInner()
	})
}

func TestHierarchy_PerGoroutine(t *testing.T) {
	t.Parallel()

	a := NewMutexWithLevel(0, 1)
	b := NewMutex(0)

	// Goroutines taking the locks in the same order never interfere with each other.
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				assert.NoError(t, a.WithLock(func(av *int) {
					assert.NoError(t, b.WithLock(func(bv *int) {
						*av++
						*bv++
					}))
				}))
			}
		}()
	}
	wg.Wait()

	av, _ := a.IntoInner()
	bv, _ := b.IntoInner()
	assert.Equal(t, 400, av)
	assert.Equal(t, 400, bv)
}

func TestHierarchy_UnlockOnOtherGoroutine(t *testing.T) {
	t.Parallel()

	m := NewMutexWithLevel(0, 3)
	g, err := m.Lock()
	require.NoError(t, err)

	recovered := make(chan any)
	go func() {
		defer func() { recovered <- recover() }()
		g.Unlock()
	}()

	r := <-recovered
	ierr, ok := r.(*InvariantError)
	require.True(t, ok, "expected *InvariantError, got %T", r)
	assert.Equal(t, uint32(3), ierr.Level)
	assert.NotEqual(t, ierr.Acquirer, ierr.Releaser)

	// The failed Unlock must leave the owner's state intact.
	assert.Equal(t, []uint32{3}, level.Held())
	assert.Equal(t, 0, g.Get())
	g.Unlock()
	assert.Empty(t, level.Held())

	g, err = m.Lock()
	require.NoError(t, err)
	g.Unlock()
}

func TestHierarchy_RWUnlockOnOtherGoroutine(t *testing.T) {
	t.Parallel()

	rw := NewRWMutexWithLevel(0, 4)
	foreignUnlock := func(unlock func()) any {
		recovered := make(chan any)
		go func() {
			defer func() { recovered <- recover() }()
			unlock()
		}()
		return <-recovered
	}

	r, err := rw.RLock()
	require.NoError(t, err)
	assert.IsType(t, &InvariantError{}, foreignUnlock(r.Unlock))
	assert.Equal(t, []uint32{4}, level.Held())
	r.Unlock()
	assert.Empty(t, level.Held())

	w, err := rw.Lock()
	require.NoError(t, err)
	assert.IsType(t, &InvariantError{}, foreignUnlock(w.Unlock))
	assert.Equal(t, []uint32{4}, level.Held())
	w.Set(9)
	w.Unlock()
	assert.Empty(t, level.Held())

	require.NoError(t, rw.WithRLock(func(v int) { assert.Equal(t, 9, v) }))
}
