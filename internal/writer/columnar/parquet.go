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

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/scottdraper8/transmog/internal/engine"
	"github.com/scottdraper8/transmog/internal/writer"
	"github.com/scottdraper8/transmog/internal/xerrors"
)

func init() {
	writer.Register("parquet", func(cfg engine.Config) writer.Writer {
		return NewParquetWriter(cfg)
	})
}

type parquetTable struct {
	file    *os.File
	fw      *pqarrow.FileWriter
	schema  []Column
	arrowSc *arrow.Schema
}

// ParquetWriter is the Parquet backend (spec.md §4.7.2), built on
// arrow-go's pqarrow file writer.
type ParquetWriter struct {
	cfg    engine.Config
	layout *writer.Layout
	state  writer.State
	tables map[string]*parquetTable
}

// NewParquetWriter builds a Parquet writer for cfg.
func NewParquetWriter(cfg engine.Config) *ParquetWriter {
	return &ParquetWriter{cfg: cfg, tables: make(map[string]*parquetTable)}
}

func (w *ParquetWriter) Open(ctx context.Context, destDir string, tableHint []string) error {
	_, span := writer.InitWriterSpan(ctx, "parquet", "open")
	defer span.End()

	if w.state != writer.Uninitialized {
		return xerrors.Output("parquet writer already open", nil)
	}
	w.layout = writer.NewLayout(destDir, "parquet")
	w.state = writer.Open
	return nil
}

func (w *ParquetWriter) Append(ctx context.Context, group *engine.FlushGroup) error {
	if w.state != writer.Open && w.state != writer.Locked {
		return xerrors.Output("parquet writer append called outside Open/Locked state", nil)
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
		pt, ok := w.tables[table]
		if !ok {
			pt, err = w.lockTable(table, paths[table], rows)
			if err != nil {
				w.state = writer.Failed
				return err
			}
			w.tables[table] = pt
		} else if err := checkDrift(pt.schema, rows); err != nil {
			w.state = writer.Failed
			return err
		}

		rec := buildRecord(pt.arrowSc, pt.schema, rows)
		if err := pt.fw.Write(rec); err != nil {
			rec.Release()
			w.state = writer.Failed
			return xerrors.Output(fmt.Sprintf("writing parquet record batch for table %q", table), err)
		}
		rec.Release()
	}

	w.state = writer.Locked
	return nil
}

func (w *ParquetWriter) lockTable(table, path string, rows engine.Batch) (*parquetTable, error) {
	schema := InferSchema(rows)
	arrowSc := toArrowSchema(schema)

	f, err := os.Create(path)
	if err != nil {
		return nil, xerrors.Output(fmt.Sprintf("creating parquet file for table %q", table), err)
	}

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	fw, err := pqarrow.NewFileWriter(arrowSc, f, props, pqarrow.DefaultWriterProps())
	if err != nil {
		f.Close()
		return nil, xerrors.Output(fmt.Sprintf("opening parquet file writer for table %q", table), err)
	}

	return &parquetTable{file: f, fw: fw, schema: schema, arrowSc: arrowSc}, nil
}

func toArrowSchema(cols []Column) *arrow.Schema {
	fields := make([]arrow.Field, len(cols))
	for i, c := range cols {
		var t arrow.DataType
		switch c.Kind {
		case KindInt64:
			t = arrow.PrimitiveTypes.Int64
		case KindFloat64:
			t = arrow.PrimitiveTypes.Float64
		case KindBool:
			t = arrow.FixedWidthTypes.Boolean
		default:
			t = arrow.BinaryTypes.String
		}
		fields[i] = arrow.Field{Name: c.Name, Type: t, Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

func buildRecord(sc *arrow.Schema, cols []Column, rows engine.Batch) arrow.Record {
	b := array.NewRecordBuilder(memory.DefaultAllocator, sc)
	defer b.Release()

	for i, col := range cols {
		fb := b.Field(i)
		for _, row := range rows {
			v, ok := row.Get(col.Name)
			if !ok || v == nil {
				fb.AppendNull()
				continue
			}
			switch col.Kind {
			case KindInt64:
				fb.(*array.Int64Builder).Append(Coerce(col.Kind, v).(int64))
			case KindFloat64:
				fb.(*array.Float64Builder).Append(Coerce(col.Kind, v).(float64))
			case KindBool:
				fb.(*array.BooleanBuilder).Append(Coerce(col.Kind, v).(bool))
			default:
				fb.(*array.StringBuilder).Append(Coerce(col.Kind, v).(string))
			}
		}
	}
	return b.NewRecord()
}

// checkDrift enforces schema drift against a table's already locked
// column set. Unlike the CSV writer, schema_drift's drop mode has no
// meaning here: Parquet/ORC lock the physical schema on the first
// batch (spec.md §4.7.2), so an unseen column in a later batch always
// raises OutputError regardless of config.
func checkDrift(locked []Column, rows engine.Batch) error {
	known := make(map[string]bool, len(locked))
	for _, c := range locked {
		known[c.Name] = true
	}
	for _, row := range rows {
		for _, k := range row.Keys() {
			if !known[k] {
				return xerrors.Output(fmt.Sprintf("schema drift: unexpected column %q", k), nil)
			}
		}
	}
	return nil
}

func (w *ParquetWriter) Finalize(ctx context.Context) error {
	_, span := writer.InitWriterSpan(ctx, "parquet", "finalize")
	defer span.End()

	if w.state == writer.Finalized {
		return nil
	}
	var firstErr error
	for table, pt := range w.tables {
		if err := pt.fw.Close(); err != nil && firstErr == nil {
			firstErr = xerrors.Output(fmt.Sprintf("closing parquet writer for table %q", table), err)
		}
		if err := pt.file.Close(); err != nil && firstErr == nil {
			firstErr = xerrors.Output(fmt.Sprintf("closing parquet file for table %q", table), err)
		}
	}
	if firstErr != nil {
		w.state = writer.Failed
		return firstErr
	}
	w.state = writer.Finalized
	return nil
}
