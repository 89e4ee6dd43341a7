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

// Command hierarchystress hammers a chain of hierarchy-checked locks from many
// goroutines and verifies that ordered acquisition never trips the checker,
// that out-of-order acquisition always does, and that no update is lost.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	lockhierarchy "github.com/ZaparooProject/go-lockhierarchy"
)

type config struct {
	goroutines int
	depth      int
	iterations int
	shuffle    bool
	violate    bool
	jsonOutput bool
	debug      bool
	sessionLog bool
}

// Package-level flag variables
var (
	flagGoroutines int
	flagDepth      int
	flagIterations int
	flagShuffle    bool
	flagViolate    bool
	flagJSON       bool
	flagDebug      bool
	flagLog        bool
)

func init() {
	flag.IntVar(&flagGoroutines, "goroutines", 16, "Number of concurrent workers")
	flag.IntVar(&flagDepth, "depth", 4, "Number of locks in the chain (levels depth-1 down to 0)")
	flag.IntVar(&flagIterations, "iterations", 1000, "Chain acquisitions per worker")
	flag.BoolVar(&flagShuffle, "shuffle", true, "Release locks in random order instead of reverse order")
	flag.BoolVar(&flagViolate, "violate", false, "Also attempt an out-of-order acquisition every iteration")
	flag.BoolVar(&flagJSON, "json", false, "Print the result as JSON")
	flag.BoolVar(&flagDebug, "debug", false, "Enable debug output")
	flag.BoolVar(&flagLog, "log", false, "Write debug output to a session log file in the current directory")
}

var errInvalidConfig = errors.New("invalid configuration")

func parseConfig() (*config, error) {
	cfg := &config{
		goroutines: flagGoroutines,
		depth:      flagDepth,
		iterations: flagIterations,
		shuffle:    flagShuffle,
		violate:    flagViolate,
		jsonOutput: flagJSON,
		debug:      flagDebug,
		sessionLog: flagLog,
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Enable debug output if --debug flag is set
	if cfg.debug {
		lockhierarchy.SetDebugEnabled(true)
	}

	return cfg, nil
}

func (c *config) validate() error {
	switch {
	case c.goroutines < 1:
		return fmt.Errorf("%w: -goroutines must be at least 1", errInvalidConfig)
	case c.depth < 1:
		return fmt.Errorf("%w: -depth must be at least 1", errInvalidConfig)
	case c.iterations < 0:
		return fmt.Errorf("%w: -iterations must not be negative", errInvalidConfig)
	}
	return nil
}

func run(ctx context.Context, cfg *config) error {
	if cfg.sessionLog {
		path, err := initSessionLog()
		if err != nil {
			return err
		}
		defer func() {
			if err := closeSessionLog(); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "Failed to close session log: %v\n", err)
			}
		}()
		_, _ = fmt.Fprintf(os.Stderr, "Session log: %s\n", path)
	}

	if !cfg.jsonOutput {
		printBanner(cfg)
	}

	result := runStress(ctx, cfg)

	if cfg.jsonOutput {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		_, _ = fmt.Println(string(out))
	} else {
		printSummary(result)
	}

	if !result.Success {
		return errors.New("stress test failed")
	}
	return nil
}

func main() {
	flag.Parse()

	cfg, err := parseConfig()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg)
	stop()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
