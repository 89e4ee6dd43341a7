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

package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	lockhierarchy "github.com/ZaparooProject/go-lockhierarchy"
	"github.com/ZaparooProject/go-lockhierarchy/internal/syncutil"
)

// StressResult holds the outcome of a stress run.
type StressResult struct {
	Errors             []string      `json:"errors,omitempty"`
	Counters           []int         `json:"counters"`
	Duration           time.Duration `json:"duration_ns"`
	Goroutines         int           `json:"goroutines"`
	Depth              int           `json:"depth"`
	Iterations         int           `json:"iterations"`
	Completed          int64         `json:"completed_iterations"`
	Acquisitions       int64         `json:"acquisitions"`
	ViolationsDetected int64         `json:"violations_detected"`
	ViolationsExpected int64         `json:"violations_expected"`
	Checked            bool          `json:"checked"`
	DeadlockDetector   bool          `json:"deadlock_detector"`
	Interrupted        bool          `json:"interrupted"`
	Success            bool          `json:"success"`
}

// link is one lock of the chain. Even positions are Mutexes, odd ones RWMutexes.
type link interface {
	// increment locks the link, bumps its counter and returns the unlock func.
	increment() (func(), error)
	// read returns the counter under a read or exclusive lock.
	read() (int, error)
}

type mutexLink struct {
	m *lockhierarchy.Mutex[int]
}

func (l mutexLink) increment() (func(), error) {
	g, err := l.m.Lock()
	if err != nil {
		g.Unlock()
		return nil, fmt.Errorf("mutex level %d: %w", l.m.Level(), err)
	}
	*g.Value()++
	return g.Unlock, nil
}

func (l mutexLink) read() (int, error) {
	var v int
	err := l.m.WithLock(func(p *int) { v = *p })
	return v, err
}

type rwLink struct {
	rw *lockhierarchy.RWMutex[int]
}

func (l rwLink) increment() (func(), error) {
	g, err := l.rw.Lock()
	if err != nil {
		g.Unlock()
		return nil, fmt.Errorf("rwmutex level %d: %w", l.rw.Level(), err)
	}
	g.Set(g.Get() + 1)
	return g.Unlock, nil
}

func (l rwLink) read() (int, error) {
	var v int
	err := l.rw.WithRLock(func(c int) { v = c })
	return v, err
}

// newChain builds depth locks with levels depth-1 down to 0, in acquisition order.
func newChain(depth int) []link {
	chain := make([]link, depth)
	for i := range chain {
		lvl := uint32(depth - 1 - i) //nolint:gosec // depth is validated positive
		if i%2 == 0 {
			chain[i] = mutexLink{m: lockhierarchy.NewMutexWithLevel(0, lvl)}
		} else {
			chain[i] = rwLink{rw: lockhierarchy.NewRWMutexWithLevel(0, lvl)}
		}
	}
	return chain
}

// stressRun is the shared state of one run.
type stressRun struct {
	cfg          *config
	chain        []link
	errs         []string
	errsMu       syncutil.Mutex
	completed    atomic.Int64
	acquisitions atomic.Int64
	violations   atomic.Int64
}

func (s *stressRun) fail(err error) {
	s.errsMu.Lock()
	s.errs = append(s.errs, err.Error())
	s.errsMu.Unlock()
}

func runStress(ctx context.Context, cfg *config) *StressResult {
	s := &stressRun{cfg: cfg, chain: newChain(cfg.depth)}
	started := time.Now()

	var wg sync.WaitGroup
	for range cfg.goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.worker(ctx)
		}()
	}
	wg.Wait()

	result := &StressResult{
		Goroutines:         cfg.goroutines,
		Depth:              cfg.depth,
		Iterations:         cfg.iterations,
		Checked:            lockhierarchy.Checked,
		DeadlockDetector:   lockhierarchy.DeadlockEnabled,
		Completed:          s.completed.Load(),
		Acquisitions:       s.acquisitions.Load(),
		ViolationsDetected: s.violations.Load(),
		Interrupted:        ctx.Err() != nil,
		Duration:           time.Since(started),
		Errors:             s.errs,
	}
	if cfg.violate && lockhierarchy.Checked {
		result.ViolationsExpected = result.Completed
	}

	result.Success = s.verify(result)
	return result
}

func (s *stressRun) worker(ctx context.Context) {
	// Private pair for provoking violations, so an unchecked build cannot deadlock on it.
	first := lockhierarchy.NewMutex(0)
	second := lockhierarchy.NewMutex(0)
	unlocks := make([]func(), 0, len(s.chain))

	for range s.cfg.iterations {
		if ctx.Err() != nil {
			return
		}

		unlocks = unlocks[:0]
		for _, l := range s.chain {
			unlock, err := l.increment()
			if err != nil {
				s.fail(err)
				break
			}
			unlocks = append(unlocks, unlock)
			s.acquisitions.Add(1)
		}
		s.release(unlocks)
		if s.cfg.violate && provokeViolation(first, second) {
			s.violations.Add(1)
		}
		s.completed.Add(1)
	}
}

func (s *stressRun) release(unlocks []func()) {
	if s.cfg.shuffle {
		rand.Shuffle(len(unlocks), func(i, j int) {
			unlocks[i], unlocks[j] = unlocks[j], unlocks[i]
		})
	} else {
		for i, j := 0, len(unlocks)-1; i < j; i, j = i+1, j-1 {
			unlocks[i], unlocks[j] = unlocks[j], unlocks[i]
		}
	}
	for _, unlock := range unlocks {
		unlock()
	}
}

// provokeViolation locks b while holding a, both at level 0. It reports whether
// the checker rejected the second acquisition. Any other panic is re-raised.
func provokeViolation(a, b *lockhierarchy.Mutex[int]) (detected bool) {
	ga, _ := a.Lock()
	defer ga.Unlock()
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		var v *lockhierarchy.HierarchyViolation
		if err, ok := r.(error); ok && errors.As(err, &v) {
			detected = true
			return
		}
		panic(r)
	}()

	gb, _ := b.Lock()
	gb.Unlock()
	return false
}

func (s *stressRun) verify(result *StressResult) bool {
	ok := len(result.Errors) == 0
	result.Counters = make([]int, len(s.chain))
	for i, l := range s.chain {
		v, err := l.read()
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			ok = false
		}
		result.Counters[i] = v
		if int64(v) != result.Completed {
			result.Errors = append(result.Errors,
				fmt.Sprintf("lock %d: counter %d, want %d", i, v, result.Completed))
			ok = false
		}
	}
	if result.ViolationsDetected != result.ViolationsExpected {
		result.Errors = append(result.Errors, fmt.Sprintf("detected %d violations, want %d",
			result.ViolationsDetected, result.ViolationsExpected))
		ok = false
	}
	return ok
}

func printBanner(cfg *config) {
	_, _ = fmt.Println("================================================================================")
	_, _ = fmt.Println("                        Lock Hierarchy Stress Test Mode")
	_, _ = fmt.Println("================================================================================")
	_, _ = fmt.Printf("Workers: %d  Chain depth: %d  Iterations: %d  Shuffled release: %t\n",
		cfg.goroutines, cfg.depth, cfg.iterations, cfg.shuffle)
	_, _ = fmt.Printf("Hierarchy checks: %t  Deadlock detector: %t\n",
		lockhierarchy.Checked, lockhierarchy.DeadlockEnabled)
}

func printSummary(result *StressResult) {
	_, _ = fmt.Println("--------------------------------------------------------------------------------")
	_, _ = fmt.Printf("Completed iterations: %d  Acquisitions: %d  Duration: %s\n",
		result.Completed, result.Acquisitions, result.Duration.Round(time.Millisecond))
	_, _ = fmt.Printf("Violations detected: %d (expected %d)\n",
		result.ViolationsDetected, result.ViolationsExpected)
	if result.Interrupted {
		_, _ = fmt.Println("Interrupted before all iterations ran")
	}
	for _, e := range result.Errors {
		_, _ = fmt.Printf("  [!] %s\n", e)
	}
	if result.Success {
		_, _ = fmt.Println("PASS")
	} else {
		_, _ = fmt.Println("FAIL")
	}
}
