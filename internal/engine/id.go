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
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/scottdraper8/transmog/internal/xerrors"
)

// idGenerator produces the id_field value for one row. table is the
// destination table name (main table name or a child table name),
// used to resolve per-table Natural field overrides. row is the
// flattened row (without metadata columns yet injected) the id is
// being produced for.
type idGenerator struct {
	cfg Config
}

func newIDGenerator(cfg Config) *idGenerator {
	return &idGenerator{cfg: cfg}
}

// generate returns the id string for row in table, or an error if the
// Natural strategy's field is missing or null.
func (g *idGenerator) generate(table string, row FlatRow) (string, error) {
	switch g.cfg.IDStrategy {
	case IDNatural:
		field := g.cfg.IDFieldFor(table)
		v, ok := row.Get(field)
		if !ok || v == nil {
			return "", xerrors.Validation(
				fmt.Sprintf("natural id field %q is missing or null in table %q", field, table), nil)
		}
		return fmt.Sprintf("%v", v), nil
	case IDHashWhole:
		return g.hash(table, row, nil), nil
	case IDHashFields:
		return g.hash(table, row, g.cfg.IDHashFields), nil
	default: // IDRandom, or unset
		return uuid.New().String(), nil
	}
}

// hash implements HashWhole (fields == nil, over every non-metadata
// column) and HashFields (over exactly the listed fields; a field
// absent from row contributes an explicit null sentinel so the hash
// still changes shape between "missing" and "present but empty").
func (g *idGenerator) hash(table string, row FlatRow, fields []string) string {
	canon := map[string]any{}
	idField := g.cfg.IDFieldFor(table)
	if fields == nil {
		for _, k := range row.Keys() {
			if k == idField || k == g.cfg.ParentField || k == g.cfg.TimeField {
				continue
			}
			v, _ := row.Get(k)
			canon[k] = v
		}
	} else {
		for _, f := range fields {
			if v, ok := row.Get(f); ok {
				canon[f] = v
			} else {
				canon[f] = nil
			}
		}
	}

	// encoding/json sorts map[string]any keys lexicographically; this
	// is a documented stdlib guarantee and is what makes the hash
	// deterministic across runs, not an incidental property of
	// whichever JSON library happens to be linked in.
	data, err := json.Marshal(canon)
	if err != nil {
		// canon only ever holds JSON-safe scalars/slices/maps produced
		// by the flattener; a marshal failure here is unreachable.
		data = []byte(fmt.Sprintf("%v", canon))
	}

	id := uuid.NewHash(sha256.New(), uuid.Nil, data, 5)
	return id.String()
}
