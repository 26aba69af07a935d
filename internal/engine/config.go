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

package engine

import (
	"github.com/go-playground/validator/v10"

	"github.com/scottdraper8/transmog/internal/xerrors"
)

// ArrayMode selects the per-array extraction policy (§4.4).
type ArrayMode string

const (
	ArraySmart    ArrayMode = "smart"
	ArraySeparate ArrayMode = "separate"
	ArrayInline   ArrayMode = "inline"
	ArraySkip     ArrayMode = "skip"
)

// IDStrategy selects how record identifiers are generated (§4.2).
type IDStrategy string

const (
	IDRandom      IDStrategy = "random"
	IDNatural     IDStrategy = "natural"
	IDHashWhole   IDStrategy = "hash_whole"
	IDHashFields  IDStrategy = "hash_fields"
)

// SchemaDrift selects what the CSV writer does when a later batch
// introduces a column the locked schema doesn't have.
type SchemaDrift string

const (
	DriftStrict SchemaDrift = "strict"
	DriftDrop   SchemaDrift = "drop"
)

// Config carries every option in the flattener/pipeline/writer
// contract. It is validated once, at the start of a run, via
// Validate — never mutated afterward (§5, "configuration is
// read-only after run start").
type Config struct {
	ArrayMode   ArrayMode `yaml:"arrayMode" validate:"omitempty,oneof=smart separate inline skip"`
	IncludeNulls     bool      `yaml:"includeNulls"`
	StringifyValues  bool      `yaml:"stringifyValues"`
	MaxDepth         int       `yaml:"maxDepth" validate:"min=0"`

	IDStrategy   IDStrategy `yaml:"idStrategy" validate:"omitempty,oneof=random natural hash_whole hash_fields"`
	IDField      string     `yaml:"idField" validate:"required"`
	// IDFieldByTable overrides IDField per table name, for the Natural
	// strategy: each extracted array commonly carries its own
	// already-present identifier under a different key than the main
	// table's (spec.md S3: "product_id" on the main table, "review_id"
	// on products_reviews). Tables not present here use IDField.
	IDFieldByTable map[string]string `yaml:"idFieldByTable"`
	IDHashFields   []string          `yaml:"idHashFields"`

	ParentField string `yaml:"parentField" validate:"required"`
	TimeField   string `yaml:"timeField"`

	BatchSize             int    `yaml:"batchSize" validate:"min=1"`
	Separator             string `yaml:"separator" validate:"required"`
	DeepNestingThreshold  int    `yaml:"deepNestingThreshold" validate:"min=0"`

	SchemaDrift SchemaDrift `yaml:"schemaDrift" validate:"omitempty,oneof=strict drop"`
}

// DefaultInMemory returns the defaults used by the in-memory Flatten
// entry point (batch_size 1000, per spec.md §6).
func DefaultInMemory() Config {
	c := defaults()
	c.BatchSize = 1000
	return c
}

// DefaultStreaming returns the defaults used by the streaming writer
// entry point (batch_size 100, per spec.md §6).
func DefaultStreaming() Config {
	c := defaults()
	c.BatchSize = 100
	return c
}

func defaults() Config {
	return Config{
		ArrayMode:            ArraySmart,
		IncludeNulls:         false,
		StringifyValues:      false,
		MaxDepth:             100,
		IDStrategy:           IDRandom,
		IDField:              "_id",
		ParentField:          "_parent_id",
		TimeField:            "_timestamp",
		Separator:            "_",
		DeepNestingThreshold: 4,
		SchemaDrift:          DriftStrict,
	}
}

var validate = validator.New()

// Validate checks the invariants the core itself depends on: a
// positive batch size, non-negative depth/threshold, a recognized
// enum value wherever one was set, and (for Natural/HashFields id
// strategies) the supporting field data being present. Broader
// config-schema validation (e.g. CLI flag parsing) is left to
// callers — see SPEC_FULL.md §6.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return xerrors.Validation("invalid configuration", err)
	}
	if c.IDField == c.ParentField {
		return xerrors.Validation("idField and parentField must differ", nil)
	}
	if c.IDStrategy == IDHashFields && len(c.IDHashFields) == 0 {
		return xerrors.Validation("idHashFields must be non-empty when idStrategy is hash_fields", nil)
	}
	return nil
}

// IDFieldFor returns the metadata id column name / natural-lookup key
// for the given table, honoring any per-table override.
func (c Config) IDFieldFor(table string) string {
	if f, ok := c.IDFieldByTable[table]; ok && f != "" {
		return f
	}
	return c.IDField
}
