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

// Package csv implements the CSV output format: one file per table,
// schema locked on the first non-empty batch (spec.md §4.7.1).
package csv

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"

	"github.com/scottdraper8/transmog/internal/engine"
	"github.com/scottdraper8/transmog/internal/writer"
	"github.com/scottdraper8/transmog/internal/xerrors"
)

func init() {
	writer.Register("csv", func(cfg engine.Config) writer.Writer {
		return New(cfg)
	})
}

type tableState struct {
	file    *os.File
	w       *csv.Writer
	columns []string
}

// Writer is the CSV backend. Not safe for concurrent use.
type Writer struct {
	cfg    engine.Config
	layout *writer.Layout
	state  State
	tables map[string]*tableState
}

// State is the writer's current lifecycle state.
type State = writer.State

// New builds a CSV writer for cfg.
func New(cfg engine.Config) *Writer {
	return &Writer{cfg: cfg, tables: make(map[string]*tableState)}
}

func (w *Writer) Open(ctx context.Context, destDir string, tableHint []string) error {
	_, span := writer.InitWriterSpan(ctx, "csv", "open")
	defer span.End()

	if w.state != writer.Uninitialized {
		return xerrors.Output("csv writer already open", nil)
	}
	w.layout = writer.NewLayout(destDir, "csv")
	w.state = writer.Open
	return nil
}

func (w *Writer) Append(ctx context.Context, group *engine.FlushGroup) error {
	if w.state != writer.Open && w.state != writer.Locked {
		return xerrors.Output("csv writer append called outside Open/Locked state", nil)
	}

	paths, err := w.layout.PathsFor(group.TableOrder)
	if err != nil {
		w.state = writer.Failed
		return err
	}

	for _, table := range group.TableOrder {
		rows := group.Tables[table]
		if len(rows) == 0 {
			continue
		}
		ts, ok := w.tables[table]
		if !ok {
			ts, err = w.lockTable(table, paths[table], rows)
			if err != nil {
				w.state = writer.Failed
				return err
			}
			w.tables[table] = ts
		}
		for _, row := range rows {
			record, err := w.render(ts, row, table)
			if err != nil {
				w.state = writer.Failed
				return err
			}
			if err := ts.w.Write(record); err != nil {
				w.state = writer.Failed
				return xerrors.Output(fmt.Sprintf("writing csv row for table %q", table), err)
			}
		}
		ts.w.Flush()
		if err := ts.w.Error(); err != nil {
			w.state = writer.Failed
			return xerrors.Output(fmt.Sprintf("flushing csv writer for table %q", table), err)
		}
	}

	w.state = writer.Locked
	return nil
}

func (w *Writer) lockTable(table, path string, rows engine.Batch) (*tableState, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, xerrors.Output(fmt.Sprintf("creating csv file for table %q", table), err)
	}
	cw := csv.NewWriter(f)
	var columns []string
	seen := make(map[string]bool)
	for _, row := range rows {
		for _, k := range row.Keys() {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
	}
	if err := cw.Write(columns); err != nil {
		return nil, xerrors.Output(fmt.Sprintf("writing csv header for table %q", table), err)
	}
	return &tableState{file: f, w: cw, columns: columns}, nil
}

// render builds one CSV record honoring the schema-drift policy: a
// later row carrying a column outside the locked set is either an
// OutputError (strict) or silently discarded (drop); a row missing a
// locked column renders it as empty string.
func (w *Writer) render(ts *tableState, row engine.FlatRow, table string) ([]string, error) {
	if w.cfg.SchemaDrift == engine.DriftStrict {
		for _, k := range row.Keys() {
			if !contains(ts.columns, k) {
				return nil, xerrors.Output(
					fmt.Sprintf("schema drift in table %q: unexpected column %q", table, k), nil)
			}
		}
	}

	out := make([]string, len(ts.columns))
	for i, col := range ts.columns {
		v, ok := row.Get(col)
		if !ok || v == nil {
			out[i] = ""
			continue
		}
		out[i] = renderCell(v)
	}
	return out, nil
}

func renderCell(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any, map[string]any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func contains(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}

func (w *Writer) Finalize(ctx context.Context) error {
	_, span := writer.InitWriterSpan(ctx, "csv", "finalize")
	defer span.End()

	if w.state == writer.Finalized {
		return nil
	}
	var firstErr error
	for table, ts := range w.tables {
		ts.w.Flush()
		if err := ts.w.Error(); err != nil && firstErr == nil {
			firstErr = xerrors.Output(fmt.Sprintf("flushing csv writer for table %q", table), err)
		}
		if err := ts.file.Close(); err != nil && firstErr == nil {
			firstErr = xerrors.Output(fmt.Sprintf("closing csv file for table %q", table), err)
		}
	}
	if firstErr != nil {
		w.state = writer.Failed
		return firstErr
	}
	w.state = writer.Finalized
	return nil
}
