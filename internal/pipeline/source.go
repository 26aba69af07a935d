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

// Package pipeline is the streaming orchestrator: a single-threaded
// pull loop that reads records from a Source, drives the flattener in
// batches, and hands finished flush groups to a writer.
package pipeline

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/scottdraper8/transmog/internal/engine"
	"github.com/scottdraper8/transmog/internal/xerrors"
)

// Record is one input value, pre-normalization. It is typically
// map[string]any or *engine.Object; engine.ToRecord handles both.
type Record = any

// Source is the pull-based iterator the orchestrator consumes. Next
// returns (record, true, nil) for each available record, (zero-value,
// false, nil) at clean end-of-input, or a non-nil error to abort the
// run. Implementations must be safe to call repeatedly until ok is
// false or err is non-nil.
type Source interface {
	Next(ctx context.Context) (Record, bool, error)
}

// SliceSource adapts an in-memory slice of records to Source.
type SliceSource struct {
	records []Record
	pos     int
}

// NewSliceSource wraps records for streaming consumption in order.
func NewSliceSource(records []Record) *SliceSource {
	return &SliceSource{records: records}
}

func (s *SliceSource) Next(ctx context.Context) (Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if s.pos >= len(s.records) {
		return nil, false, nil
	}
	r := s.records[s.pos]
	s.pos++
	return r, true, nil
}

// jsonArraySource streams the elements of a single top-level JSON
// array, one record at a time, without holding the whole decoded
// array in memory at once.
type jsonArraySource struct {
	dec    *json.Decoder
	closer io.Closer
	opened bool
}

func (s *jsonArraySource) Next(ctx context.Context) (Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if !s.opened {
		tok, err := s.dec.Token()
		if err != nil {
			return nil, false, xerrors.Validation("expected a top-level JSON array", err)
		}
		if d, ok := tok.(json.Delim); !ok || d != '[' {
			return nil, false, xerrors.Validation("expected a top-level JSON array", nil)
		}
		s.opened = true
	}
	if !s.dec.More() {
		// consume the closing ']'
		if _, err := s.dec.Token(); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}
	v, err := engine.DecodeJSONValue(s.dec)
	if err != nil {
		return nil, false, xerrors.Validation("malformed record in JSON array", err)
	}
	return v, true, nil
}

// jsonlSource streams one JSON value per newline-delimited line.
type jsonlSource struct {
	scanner *bufio.Scanner
}

func (s *jsonlSource) Next(ctx context.Context) (Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			continue
		}
		v, err := engine.DecodeJSON(strings.NewReader(line))
		if err != nil {
			return nil, false, xerrors.Validation("malformed JSONL record", err)
		}
		return v, true, nil
	}
	if err := s.scanner.Err(); err != nil {
		return nil, false, xerrors.Validation("error reading JSONL source", err)
	}
	return nil, false, nil
}

// NewFileSource opens path and returns a Source auto-detected by
// extension: ".jsonl" streams newline-delimited records, anything
// else (".json" included) is parsed as a single top-level JSON array
// (spec.md §6, "auto-detected by extension").
func NewFileSource(path string, f io.Reader) (Source, io.Closer, error) {
	rc, ok := f.(io.Closer)
	var closer io.Closer
	if ok {
		closer = rc
	}

	if strings.HasSuffix(strings.ToLower(path), ".jsonl") {
		buf := bufio.NewScanner(f)
		buf.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		return &jsonlSource{scanner: buf}, closer, nil
	}

	dec := json.NewDecoder(f)
	dec.UseNumber()
	return &jsonArraySource{dec: dec}, closer, nil
}
