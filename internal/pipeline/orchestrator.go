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

	"github.com/scottdraper8/transmog/internal/engine"
	"github.com/scottdraper8/transmog/internal/writer"
	"github.com/scottdraper8/transmog/internal/xlog"
)

// Run drives the single-threaded pull loop: open -> pull -> flatten
// -> assemble -> append -> finalize (spec.md §4.6). Cancellation is
// observed between records, never mid-record, by checking ctx.Err()
// once per loop iteration before pulling the next record — the same
// granularity the teacher threads context through a results.Scan
// loop.
func Run(ctx context.Context, src Source, w writer.Writer, cfg engine.Config, entityName string, now string, log xlog.Logger) (engine.Stats, error) {
	if log == nil {
		log = xlog.Noop
	}

	flattener := engine.NewFlattener(cfg, now)
	assembler := engine.NewAssembler(cfg)

	if err := w.Open(ctx, "", []string{entityName}); err != nil {
		return flattener.Stats, err
	}

	for {
		if err := ctx.Err(); err != nil {
			_ = w.Finalize(ctx)
			return flattener.Stats, err
		}

		record, ok, err := src.Next(ctx)
		if err != nil {
			_ = w.Finalize(ctx)
			return flattener.Stats, err
		}
		if !ok {
			break
		}

		row, group, err := flattener.Flatten(record, entityName)
		if err != nil {
			_ = w.Finalize(ctx)
			return flattener.Stats, err
		}
		group.Append(entityName, row)
		reorderMainFirst(group, entityName)

		if ready, triggered := assembler.Add(group); triggered {
			log.DebugContext(ctx, "flushing batch", "rows", ready.Len(), "tables", len(ready.TableOrder))
			if err := w.Append(ctx, ready); err != nil {
				_ = w.Finalize(ctx)
				return flattener.Stats, err
			}
		}
	}

	if rest := assembler.Flush(); rest != nil {
		log.DebugContext(ctx, "flushing final batch", "rows", rest.Len(), "tables", len(rest.TableOrder))
		if err := w.Append(ctx, rest); err != nil {
			_ = w.Finalize(ctx)
			return flattener.Stats, err
		}
	}

	return flattener.Stats, w.Finalize(ctx)
}

// reorderMainFirst moves entityName to the front of group's table
// order when Flatten appended it after child tables were already
// registered by array extraction — group.Append only tracks
// first-seen order, and the main row is appended to the group after
// its own extractions run, so without this it would otherwise sort
// behind its own children.
func reorderMainFirst(group *engine.FlushGroup, entityName string) {
	order := group.TableOrder
	for i, t := range order {
		if t == entityName && i != 0 {
			copy(order[1:i+1], order[:i])
			order[0] = entityName
			return
		}
	}
}
