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
	"context"
	"os"

	yaml "github.com/goccy/go-yaml"

	"github.com/scottdraper8/transmog/internal/engine"
	"github.com/scottdraper8/transmog/internal/xerrors"
)

// OptionsFromYAML decodes a declarative run configuration from path —
// a YAML document matching engine.Config's field tags (arrayMode,
// includeNulls, idStrategy, batchSize, and so on) — and returns it as
// a single Option, the "decoder.DecodeContext over a typed struct"
// idiom the teacher uses for tool/source config
// (internal/tools/tools.go). The document is decoded into a separate
// Config and only its non-zero fields are copied onto the in-progress
// one (see mergeOverlay), so a field the document omits, or sets to
// its zero value, keeps whatever the base default or an earlier Option
// already set.
func OptionsFromYAML(path string) (Option, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.Validation("unable to open config file", err)
	}
	defer f.Close()

	var overlay engine.Config
	dec := yaml.NewDecoder(f)
	if err := dec.DecodeContext(context.Background(), &overlay); err != nil {
		return nil, xerrors.Validation("unable to parse config file", err)
	}

	return func(c *engine.Config) { mergeOverlay(c, overlay) }, nil
}

// mergeOverlay copies every field overlay set (non-zero value) onto
// c, leaving c's existing value where overlay's is the zero value —
// that's the only way to tell "absent from the document" from "user
// said 0/false/empty" without a second decode pass over *map[string]any.
func mergeOverlay(c *engine.Config, overlay engine.Config) {
	if overlay.ArrayMode != "" {
		c.ArrayMode = overlay.ArrayMode
	}
	if overlay.IncludeNulls {
		c.IncludeNulls = true
	}
	if overlay.StringifyValues {
		c.StringifyValues = true
	}
	if overlay.MaxDepth != 0 {
		c.MaxDepth = overlay.MaxDepth
	}
	if overlay.IDStrategy != "" {
		c.IDStrategy = overlay.IDStrategy
	}
	if overlay.IDField != "" {
		c.IDField = overlay.IDField
	}
	for table, field := range overlay.IDFieldByTable {
		if c.IDFieldByTable == nil {
			c.IDFieldByTable = make(map[string]string)
		}
		c.IDFieldByTable[table] = field
	}
	if len(overlay.IDHashFields) > 0 {
		c.IDHashFields = overlay.IDHashFields
	}
	if overlay.ParentField != "" {
		c.ParentField = overlay.ParentField
	}
	if overlay.TimeField != "" {
		c.TimeField = overlay.TimeField
	}
	if overlay.BatchSize != 0 {
		c.BatchSize = overlay.BatchSize
	}
	if overlay.Separator != "" {
		c.Separator = overlay.Separator
	}
	if overlay.DeepNestingThreshold != 0 {
		c.DeepNestingThreshold = overlay.DeepNestingThreshold
	}
	if overlay.SchemaDrift != "" {
		c.SchemaDrift = overlay.SchemaDrift
	}
}
