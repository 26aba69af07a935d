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

package columnar

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/scritchley/orc"

	"github.com/scottdraper8/transmog/internal/engine"
	"github.com/scottdraper8/transmog/internal/writer"
	"github.com/scottdraper8/transmog/internal/xerrors"
)

func init() {
	writer.Register("orc", func(cfg engine.Config) writer.Writer {
		return NewORCWriter(cfg)
	})
}

type orcTable struct {
	file   *os.File
	w      *orc.Writer
	schema []Column
}

// ORCWriter is the ORC backend (spec.md §4.7.2). ORC's column writer
// does not support adding columns once a file is opened, so schema is
// always locked on the first non-empty batch — the library-dependent
// choice spec.md §9 allows.
type ORCWriter struct {
	cfg    engine.Config
	layout *writer.Layout
	state  writer.State
	tables map[string]*orcTable
}

// NewORCWriter builds an ORC writer for cfg.
func NewORCWriter(cfg engine.Config) *ORCWriter {
	return &ORCWriter{cfg: cfg, tables: make(map[string]*orcTable)}
}

func (w *ORCWriter) Open(ctx context.Context, destDir string, tableHint []string) error {
	_, span := writer.InitWriterSpan(ctx, "orc", "open")
	defer span.End()

	if w.state != writer.Uninitialized {
		return xerrors.Output("orc writer already open", nil)
	}
	w.layout = writer.NewLayout(destDir, "orc")
	w.state = writer.Open
	return nil
}

func (w *ORCWriter) Append(ctx context.Context, group *engine.FlushGroup) error {
	if w.state != writer.Open && w.state != writer.Locked {
		return xerrors.Output("orc writer append called outside Open/Locked state", nil)
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
		ot, ok := w.tables[table]
		if !ok {
			ot, err = w.lockTable(table, paths[table], rows)
			if err != nil {
				w.state = writer.Failed
				return err
			}
			w.tables[table] = ot
		} else if err := checkDrift(ot.schema, rows); err != nil {
			w.state = writer.Failed
			return err
		}

		for _, row := range rows {
			values := make([]any, len(ot.schema))
			for i, col := range ot.schema {
				v, _ := row.Get(col.Name)
				values[i] = Coerce(col.Kind, v)
			}
			if err := ot.w.Write(values...); err != nil {
				w.state = writer.Failed
				return xerrors.Output(fmt.Sprintf("writing orc row for table %q", table), err)
			}
		}
	}

	w.state = writer.Locked
	return nil
}

func (w *ORCWriter) lockTable(table, path string, rows engine.Batch) (*orcTable, error) {
	schema := InferSchema(rows)

	f, err := os.Create(path)
	if err != nil {
		return nil, xerrors.Output(fmt.Sprintf("creating orc file for table %q", table), err)
	}

	td, err := orc.ParseSchema(orcDDL(schema))
	if err != nil {
		f.Close()
		return nil, xerrors.Output(fmt.Sprintf("building orc schema for table %q", table), err)
	}

	ow, err := orc.NewWriter(f, orc.SetSchema(td))
	if err != nil {
		f.Close()
		return nil, xerrors.Output(fmt.Sprintf("opening orc writer for table %q", table), err)
	}

	return &orcTable{file: f, w: ow, schema: schema}, nil
}

// orcDDL renders cols as a Hive-style struct type string, e.g.
// "struct<id:string,count:bigint>", the form orc.ParseSchema accepts.
func orcDDL(cols []Column) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		var t string
		switch c.Kind {
		case KindInt64:
			t = "bigint"
		case KindFloat64:
			t = "double"
		case KindBool:
			t = "boolean"
		default:
			t = "string"
		}
		parts[i] = fmt.Sprintf("%s:%s", c.Name, t)
	}
	return "struct<" + strings.Join(parts, ",") + ">"
}

func (w *ORCWriter) Finalize(ctx context.Context) error {
	_, span := writer.InitWriterSpan(ctx, "orc", "finalize")
	defer span.End()

	if w.state == writer.Finalized {
		return nil
	}
	var firstErr error
	for table, ot := range w.tables {
		if err := ot.w.Close(); err != nil && firstErr == nil {
			firstErr = xerrors.Output(fmt.Sprintf("closing orc writer for table %q", table), err)
		}
		if err := ot.file.Close(); err != nil && firstErr == nil {
			firstErr = xerrors.Output(fmt.Sprintf("closing orc file for table %q", table), err)
		}
	}
	if firstErr != nil {
		w.state = writer.Failed
		return firstErr
	}
	w.state = writer.Finalized
	return nil
}
