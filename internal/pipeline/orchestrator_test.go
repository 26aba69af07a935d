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

package pipeline

import (
	"context"
	"testing"

	"github.com/scottdraper8/transmog/internal/engine"
)

// fakeWriter records every call it receives, for orchestrator
// assertions, without touching the filesystem.
type fakeWriter struct {
	opened    bool
	finalized bool
	appends   []*engine.FlushGroup
}

func (w *fakeWriter) Open(ctx context.Context, destDir string, tableHint []string) error {
	w.opened = true
	return nil
}

func (w *fakeWriter) Append(ctx context.Context, group *engine.FlushGroup) error {
	w.appends = append(w.appends, group)
	return nil
}

func (w *fakeWriter) Finalize(ctx context.Context) error {
	w.finalized = true
	return nil
}

func TestRunFlushesAtBatchBoundaryAndEndOfInput(t *testing.T) {
	cfg := engine.DefaultStreaming()
	cfg.BatchSize = 2

	records := []Record{
		map[string]any{"name": "a"},
		map[string]any{"name": "b"},
		map[string]any{"name": "c"},
	}
	src := NewSliceSource(records)
	w := &fakeWriter{}

	stats, err := Run(context.Background(), src, w, cfg, "things", "", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !w.opened || !w.finalized {
		t.Fatal("writer should be opened and finalized")
	}
	if len(w.appends) != 2 {
		t.Fatalf("expected 2 Append calls (one batch boundary + one end-of-input flush), got %d", len(w.appends))
	}
	if len(w.appends[0].Tables["things"]) != 2 {
		t.Errorf("first append should carry 2 rows, got %d", len(w.appends[0].Tables["things"]))
	}
	if len(w.appends[1].Tables["things"]) != 1 {
		t.Errorf("second append should carry the 1 remaining row, got %d", len(w.appends[1].Tables["things"]))
	}
	if stats.DepthExceeded != 0 {
		t.Errorf("DepthExceeded = %d, want 0", stats.DepthExceeded)
	}
}

func TestRunMainTableOrderedFirst(t *testing.T) {
	cfg := engine.DefaultStreaming()
	cfg.BatchSize = 100

	records := []Record{
		map[string]any{"name": "a", "items": []any{map[string]any{"x": 1}}},
	}
	src := NewSliceSource(records)
	w := &fakeWriter{}

	if _, err := Run(context.Background(), src, w, cfg, "orders", "", nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(w.appends) != 1 {
		t.Fatalf("expected 1 append at end-of-input, got %d", len(w.appends))
	}
	order := w.appends[0].TableOrder
	if len(order) == 0 || order[0] != "orders" {
		t.Errorf("TableOrder = %v, want main table %q first", order, "orders")
	}
}

func TestRunStopsOnCanceledContext(t *testing.T) {
	cfg := engine.DefaultStreaming()
	src := NewSliceSource([]Record{map[string]any{"name": "a"}})
	w := &fakeWriter{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, src, w, cfg, "things", "", nil)
	if err == nil {
		t.Error("expected an error when the context is already canceled")
	}
	if !w.finalized {
		t.Error("writer should still be finalized on a canceled run")
	}
}

func TestRunPropagatesSourceError(t *testing.T) {
	cfg := engine.DefaultStreaming()
	w := &fakeWriter{}
	_, err := Run(context.Background(), &erroringSource{}, w, cfg, "things", "", nil)
	if err == nil {
		t.Error("expected the source's error to propagate")
	}
}

type erroringSource struct{}

func (erroringSource) Next(ctx context.Context) (Record, bool, error) {
	return nil, false, context.DeadlineExceeded
}
