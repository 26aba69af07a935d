// Copyright 2024 The Transmog Authors
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

// Package writer defines the Writer contract every output format
// satisfies and the registry concrete format packages register
// themselves into, mirroring the kind->factory registries in the
// teacher's internal/sources and internal/tools packages.
package writer

import (
	"context"
	"fmt"

	"github.com/scottdraper8/transmog/internal/engine"
)

// State models the writer lifecycle (spec.md §4.8):
// Uninitialized -> Open -> Locked -> Finalized, with Failed reachable
// from any state on error.
type State int

const (
	Uninitialized State = iota
	Open
	Locked
	Finalized
	Failed
)

// Writer is satisfied by every output format backend. Open is called
// once per output path before the first Append; Append may be called
// any number of times with successive flush groups; Finalize is
// called exactly once, after the last Append, and must close any
// underlying files even if no rows were ever appended.
type Writer interface {
	// Open prepares destDir for writing, given the tables that are
	// already known to exist (tableHint may be empty — the orchestrator
	// doesn't always know every table name ahead of the first batch).
	Open(ctx context.Context, destDir string, tableHint []string) error
	// Append writes one flush group. The first non-empty batch for a
	// given table locks that table's schema (spec.md §4.7); a later
	// batch introducing unseen columns is a schema-drift OutputError
	// unless the format's drift policy discards them (CSV's drop mode).
	Append(ctx context.Context, group *engine.FlushGroup) error
	// Finalize closes every open file and transitions to Finalized.
	// Calling Open or Append afterward returns an OutputError; calling
	// Finalize again is a no-op.
	Finalize(ctx context.Context) error
}

// Factory builds a Writer for one format, given the engine.Config a
// run was configured with (schema_drift policy, separator, etc. a
// writer may need).
type Factory func(cfg engine.Config) Writer

var registry = make(map[string]Factory)

// Register associates a format name ("csv", "parquet", "orc", "avro")
// with a factory. Called from each format package's init(), the same
// way every internal/sources/<kind> package calls sources.Register.
// Returns false without overwriting if the format is already
// registered.
func Register(format string, factory Factory) bool {
	if _, exists := registry[format]; exists {
		return false
	}
	registry[format] = factory
	return true
}

// New looks up the registered factory for format and builds a Writer.
func New(format string, cfg engine.Config) (Writer, error) {
	factory, ok := registry[format]
	if !ok {
		return nil, fmt.Errorf("unknown output format: %q", format)
	}
	return factory(cfg), nil
}

// Formats returns every registered format name, for CLI help text and
// validation error messages.
func Formats() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	return out
}
