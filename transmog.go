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

// Package transmog flattens deeply nested, semi-structured records
// into flat relational tables suitable for CSV, Parquet, ORC, or Avro
// export, linking child rows to their parent via generated
// identifiers.
package transmog

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/scottdraper8/transmog/internal/engine"
	"github.com/scottdraper8/transmog/internal/pipeline"
	"github.com/scottdraper8/transmog/internal/writer"
	"github.com/scottdraper8/transmog/internal/xlog"

	_ "github.com/scottdraper8/transmog/internal/writer/avro"
	_ "github.com/scottdraper8/transmog/internal/writer/columnar"
	_ "github.com/scottdraper8/transmog/internal/writer/csv"
)

// Flatten walks input — a single record, or a slice of records — and
// returns every table produced under the main entity name. The clock
// is read once for the whole call, so every row shares one
// _timestamp (spec.md §3).
func Flatten(input any, name string, opts ...Option) (*Result, error) {
	cfg, err := applyOptions(engine.DefaultInMemory(), opts)
	if err != nil {
		return nil, err
	}
	records, err := normalizeInput(input)
	if err != nil {
		return nil, err
	}
	return flattenAll(records, name, cfg)
}

// FlattenFile parses path (auto-detected by extension: ".jsonl" is
// newline-delimited, anything else a single top-level JSON array) and
// flattens every record it contains.
func FlattenFile(path, name string, opts ...Option) (*Result, error) {
	cfg, err := applyOptions(engine.DefaultInMemory(), opts)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src, closer, err := pipeline.NewFileSource(path, f)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		defer closer.Close()
	}

	ctx := context.Background()
	var records []any
	for {
		rec, ok, err := src.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		records = append(records, rec)
	}

	return flattenAll(records, name, cfg)
}

func flattenAll(records []any, name string, cfg engine.Config) (*Result, error) {
	now := ""
	if cfg.TimeField != "" {
		now = time.Now().UTC().Format(time.RFC3339Nano)
	}

	flattener := engine.NewFlattener(cfg, now)
	order := []string{name}
	tables := map[string]engine.Batch{}

	for _, rec := range records {
		row, group, err := flattener.Flatten(rec, name)
		if err != nil {
			return nil, err
		}
		tables[name] = append(tables[name], row)
		for _, t := range group.TableOrder {
			if _, exists := tables[t]; !exists {
				order = append(order, t)
			}
			tables[t] = append(tables[t], group.Tables[t]...)
		}
	}

	return &Result{entity: name, order: order, tables: tables, stats: flattener.Stats}, nil
}

func normalizeInput(input any) ([]any, error) {
	switch v := input.(type) {
	case []any:
		return v, nil
	case []map[string]any:
		out := make([]any, len(v))
		for i, m := range v {
			out[i] = m
		}
		return out, nil
	default:
		return []any{input}, nil
	}
}

// FlattenStream pulls records from input, drives the flattener in
// batches, and writes them straight to outputFormat files under
// outputPath without holding a full in-memory Result (spec.md §6).
// Cancellation is observed between records.
func FlattenStream(ctx context.Context, input Source, outputPath, name, outputFormat string, opts ...Option) error {
	cfg, err := applyOptions(engine.DefaultStreaming(), opts)
	if err != nil {
		return err
	}

	w, err := writer.New(strings.ToLower(outputFormat), cfg)
	if err != nil {
		return err
	}

	now := ""
	if cfg.TimeField != "" {
		now = time.Now().UTC().Format(time.RFC3339Nano)
	}

	_, err = pipeline.Run(ctx, input, destWriter{Writer: w, dest: outputPath}, cfg, name, now, xlog.Noop)
	return err
}

// destWriter opens the wrapped writer at dest: pipeline.Run opens its
// writer without a destination of its own.
type destWriter struct {
	writer.Writer
	dest string
}

func (d destWriter) Open(ctx context.Context, _ string, tableHint []string) error {
	return d.Writer.Open(ctx, d.dest, tableHint)
}
