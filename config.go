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

import "github.com/scottdraper8/transmog/internal/engine"

// Re-exported so callers configuring a run never need to import
// internal/engine directly.
type (
	ArrayMode   = engine.ArrayMode
	IDStrategy  = engine.IDStrategy
	SchemaDrift = engine.SchemaDrift
)

const (
	ArraySmart    = engine.ArraySmart
	ArraySeparate = engine.ArraySeparate
	ArrayInline   = engine.ArrayInline
	ArraySkip     = engine.ArraySkip

	IDRandom     = engine.IDRandom
	IDNatural    = engine.IDNatural
	IDHashWhole  = engine.IDHashWhole
	IDHashFields = engine.IDHashFields

	DriftStrict = engine.DriftStrict
	DriftDrop   = engine.DriftDrop
)

// Option configures a run. Options are applied in order over a
// format-appropriate default (DefaultInMemory for Flatten/FlattenFile,
// DefaultStreaming for FlattenStream) and the result is validated once
// before the run starts (spec.md §5: "configuration is read-only after
// run start").
type Option func(*engine.Config)

// WithArrayMode overrides the array extraction policy (default Smart).
func WithArrayMode(m ArrayMode) Option {
	return func(c *engine.Config) { c.ArrayMode = m }
}

// WithIncludeNulls keeps null/empty-string leaves as columns instead
// of omitting them (default false).
func WithIncludeNulls(include bool) Option {
	return func(c *engine.Config) { c.IncludeNulls = include }
}

// WithStringifyValues renders every scalar as a string, booleans as
// "True"/"False" (default false).
func WithStringifyValues(stringify bool) Option {
	return func(c *engine.Config) { c.StringifyValues = stringify }
}

// WithMaxDepth caps recursion depth; deeper branches are dropped and
// counted in Result.DepthExceeded (default 100).
func WithMaxDepth(depth int) Option {
	return func(c *engine.Config) { c.MaxDepth = depth }
}

// WithIDStrategy selects how row identifiers are generated (default
// Random).
func WithIDStrategy(s IDStrategy) Option {
	return func(c *engine.Config) { c.IDStrategy = s }
}

// WithIDField names the identifier metadata column (default "_id").
func WithIDField(field string) Option {
	return func(c *engine.Config) { c.IDField = field }
}

// WithIDFieldForTable overrides the natural-id lookup field for one
// table only, for records whose child tables carry their own
// identifier under a different key than the main table's (spec.md
// scenario S3).
func WithIDFieldForTable(table, field string) Option {
	return func(c *engine.Config) {
		if c.IDFieldByTable == nil {
			c.IDFieldByTable = make(map[string]string)
		}
		c.IDFieldByTable[table] = field
	}
}

// WithIDHashFields selects the fields hashed under the HashFields
// strategy.
func WithIDHashFields(fields ...string) Option {
	return func(c *engine.Config) { c.IDHashFields = fields }
}

// WithParentField names the parent-link metadata column on child
// rows (default "_parent_id").
func WithParentField(field string) Option {
	return func(c *engine.Config) { c.ParentField = field }
}

// WithTimeField names the run-timestamp metadata column; an empty
// string disables it (default "_timestamp").
func WithTimeField(field string) Option {
	return func(c *engine.Config) { c.TimeField = field }
}

// WithBatchSize sets the row count per table that triggers a flush
// group (default 1000 in-memory, 100 streaming).
func WithBatchSize(n int) Option {
	return func(c *engine.Config) { c.BatchSize = n }
}

// WithSeparator sets the join character between path components in
// generated column/table names (default "_").
func WithSeparator(sep string) Option {
	return func(c *engine.Config) { c.Separator = sep }
}

// WithDeepNestingThreshold sets the component count above which
// column and table names are simplified (default 4).
func WithDeepNestingThreshold(n int) Option {
	return func(c *engine.Config) { c.DeepNestingThreshold = n }
}

// WithSchemaDrift selects what the CSV writer does when a later batch
// introduces a column its locked schema doesn't have (default Strict).
// The Parquet, ORC and Avro writers reject such a column whatever this
// is set to.
func WithSchemaDrift(d SchemaDrift) Option {
	return func(c *engine.Config) { c.SchemaDrift = d }
}

func applyOptions(base engine.Config, opts []Option) (engine.Config, error) {
	for _, opt := range opts {
		opt(&base)
	}
	if err := base.Validate(); err != nil {
		return engine.Config{}, err
	}
	return base, nil
}
