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

package transmog

import (
	"context"

	"github.com/scottdraper8/transmog/internal/engine"
	"github.com/scottdraper8/transmog/internal/writer"
)

// Result holds every table produced by an in-memory Flatten or
// FlattenFile run.
type Result struct {
	entity string
	order  []string
	tables map[string]engine.Batch
	stats  engine.Stats
}

// Main returns the main entity's rows, one per input record.
func (r *Result) Main() []engine.FlatRow {
	return r.tables[r.entity]
}

// Child returns the rows of an extracted child table, or nil if no
// table by that name exists.
func (r *Result) Child(table string) []engine.FlatRow {
	return r.tables[table]
}

// Tables returns every table name in first-seen order, main table
// first.
func (r *Result) Tables() []string {
	return r.order
}

// DepthExceeded reports how many branches were dropped for exceeding
// max_depth across the run.
func (r *Result) DepthExceeded() int {
	return r.stats.DepthExceeded
}

// Save writes every table to path in the given format, applying opts
// on top of the streaming defaults (spec.md §6): a single file when
// there is exactly one table and path carries an extension, or a
// directory of "<table>.<ext>" files otherwise.
func (r *Result) Save(path, format string, opts ...Option) error {
	cfg, err := applyOptions(engine.DefaultStreaming(), opts)
	if err != nil {
		return err
	}

	w, err := writer.New(format, cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if err := w.Open(ctx, path, r.order); err != nil {
		return err
	}

	group := &engine.FlushGroup{TableOrder: r.order, Tables: r.tables}
	if err := w.Append(ctx, group); err != nil {
		_ = w.Finalize(ctx)
		return err
	}
	return w.Finalize(ctx)
}
