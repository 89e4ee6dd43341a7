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

// Package debug holds the diagnostic logging shared by the lock hierarchy packages.
package debug

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	// mu guards enabled and output. Plain sync.Mutex: the logger is called from
	// inside the hierarchy checker and must not be checked itself.
	mu      sync.Mutex
	enabled bool
	output  io.Writer
)

func init() {
	// Enable debug logging if DEBUG environment variable is set
	if os.Getenv("LOCKHIERARCHY_DEBUG") != "" || os.Getenv("DEBUG") != "" {
		enabled = true
	}
}

// Debugf prints debug information.
// Always writes to the configured output (if any) with timestamp.
// Only prints to console when debug mode is enabled.
func Debugf(format string, args ...any) {
	write(fmt.Sprintf(format, args...))
}

// Debugln prints debug information.
// Always writes to the configured output (if any) with timestamp.
// Only prints to console when debug mode is enabled.
func Debugln(args ...any) {
	write(fmt.Sprint(args...))
}

func write(message string) {
	mu.Lock()
	defer mu.Unlock()

	if output != nil {
		timestamp := time.Now().Format("15:04:05.000")
		_, _ = fmt.Fprintf(output, "%s DEBUG: %s\n", timestamp, message)
	}

	if enabled {
		_, _ = fmt.Printf("DEBUG: %s\n", message)
	}
}

// SetEnabled allows programmatic control of console debug logging.
func SetEnabled(on bool) {
	mu.Lock()
	enabled = on
	mu.Unlock()
}

// Enabled reports whether console debug logging is on.
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// SetOutput directs timestamped debug lines to w. A nil writer disables it.
// It returns the previously configured writer.
func SetOutput(w io.Writer) io.Writer {
	mu.Lock()
	defer mu.Unlock()
	prev := output
	output = w
	return prev
}
