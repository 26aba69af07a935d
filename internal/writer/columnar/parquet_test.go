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
	"os"
	"path/filepath"
	"testing"

	"github.com/scottdraper8/transmog/internal/engine"
)

func groupOf(table string, rows ...engine.FlatRow) *engine.FlushGroup {
	g := engine.NewFlushGroup()
	for _, r := range rows {
		g.Append(table, r)
	}
	return g
}

func TestParquetWriterEndToEnd(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.parquet")
	w := NewParquetWriter(engine.DefaultInMemory())
	ctx := context.Background()

	if err := w.Open(ctx, dest, []string{"things"}); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := w.Append(ctx, groupOf("things", rowOf("name", "a", "count", int64(1)))); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := w.Finalize(ctx); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	info, err := os.Stat(dest)
	if err != nil {
		t.Fatalf("stat output: %v", err)
	}
	if info.Size() == 0 {
		t.Error("parquet output file should be non-empty")
	}
}

func TestParquetWriterStrictDriftRejectsNewColumn(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.parquet")
	cfg := engine.DefaultInMemory()
	cfg.SchemaDrift = engine.DriftStrict
	w := NewParquetWriter(cfg)
	ctx := context.Background()

	if err := w.Open(ctx, dest, nil); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := w.Append(ctx, groupOf("things", rowOf("name", "a"))); err != nil {
		t.Fatalf("first Append: %v", err)
	}
	if err := w.Append(ctx, groupOf("things", rowOf("name", "b", "extra", "x"))); err == nil {
		t.Error("expected schema drift error under strict policy")
	}
}

func TestParquetWriterDriftRejectsNewColumnRegardlessOfPolicy(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.parquet")
	cfg := engine.DefaultInMemory()
	cfg.SchemaDrift = engine.DriftDrop
	w := NewParquetWriter(cfg)
	ctx := context.Background()

	if err := w.Open(ctx, dest, nil); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := w.Append(ctx, groupOf("things", rowOf("name", "a"))); err != nil {
		t.Fatalf("first Append: %v", err)
	}
	if err := w.Append(ctx, groupOf("things", rowOf("name", "b", "extra", "x"))); err == nil {
		t.Error("Parquet's schema is locked on first batch regardless of schema_drift, which is a CSV-only policy")
	}
}

func TestParquetWriterDoubleOpenFails(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.parquet")
	w := NewParquetWriter(engine.DefaultInMemory())
	ctx := context.Background()
	if err := w.Open(ctx, dest, nil); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := w.Open(ctx, dest, nil); err == nil {
		t.Error("expected an error opening an already-open writer")
	}
}
