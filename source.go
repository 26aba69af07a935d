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
	"os"

	"github.com/scottdraper8/transmog/internal/pipeline"
)

// Source is the pull-based iterator FlattenStream consumes.
type Source = pipeline.Source

// Record is one input value, pre-normalization.
type Record = pipeline.Record

// NewSliceSource adapts an in-memory slice of records to Source, for
// callers of FlattenStream that already hold records in memory but
// want the bounded-memory streaming writer path.
func NewSliceSource(records []Record) Source {
	return pipeline.NewSliceSource(records)
}

// NewFileSource opens path (auto-detected by extension: ".jsonl" is
// newline-delimited, anything else is a single top-level JSON array)
// and returns a Source over its records plus a closer the caller must
// invoke once streaming completes.
func NewFileSource(path string) (Source, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	src, closer, err := pipeline.NewFileSource(path, f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	closeFn := func() error {
		if closer != nil {
			return closer.Close()
		}
		return f.Close()
	}
	return src, closeFn, nil
}
