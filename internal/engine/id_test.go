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

import "testing"

func rowFrom(pairs ...any) FlatRow {
	row := NewFlatRow()
	for i := 0; i < len(pairs); i += 2 {
		row.Set(pairs[i].(string), pairs[i+1])
	}
	return row
}

func TestIDGeneratorRandomIsUnique(t *testing.T) {
	cfg := defaults()
	g := newIDGenerator(cfg)
	row := rowFrom("name", "a")

	a, err := g.generate("widgets", row)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	b, err := g.generate("widgets", row)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if a == b {
		t.Errorf("random ids should differ across calls, got %q twice", a)
	}
}

func TestIDGeneratorNatural(t *testing.T) {
	cfg := defaults()
	cfg.IDStrategy = IDNatural
	cfg.IDField = "sku"
	g := newIDGenerator(cfg)

	row := rowFrom("sku", "ABC-123", "name", "widget")
	id, err := g.generate("widgets", row)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if id != "ABC-123" {
		t.Errorf("natural id = %q, want %q", id, "ABC-123")
	}
}

func TestIDGeneratorNaturalMissingField(t *testing.T) {
	cfg := defaults()
	cfg.IDStrategy = IDNatural
	cfg.IDField = "sku"
	g := newIDGenerator(cfg)

	row := rowFrom("name", "widget")
	if _, err := g.generate("widgets", row); err == nil {
		t.Error("expected error when natural id field is missing, got nil")
	}
}

func TestIDGeneratorNaturalPerTableOverride(t *testing.T) {
	cfg := defaults()
	cfg.IDStrategy = IDNatural
	cfg.IDField = "product_id"
	cfg.IDFieldByTable = map[string]string{"products_reviews": "review_id"}
	g := newIDGenerator(cfg)

	mainRow := rowFrom("product_id", "P1")
	id, err := g.generate("products", mainRow)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if id != "P1" {
		t.Errorf("main table id = %q, want %q", id, "P1")
	}

	childRow := rowFrom("review_id", "R9")
	id, err = g.generate("products_reviews", childRow)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if id != "R9" {
		t.Errorf("child table id = %q, want %q", id, "R9")
	}
}

func TestIDGeneratorHashWholeDeterministic(t *testing.T) {
	cfg := defaults()
	cfg.IDStrategy = IDHashWhole
	g := newIDGenerator(cfg)

	row := rowFrom("name", "widget", "count", 3)
	a := g.hash("widgets", row, nil)
	b := g.hash("widgets", row, nil)
	if a != b {
		t.Errorf("hash_whole should be deterministic for identical rows, got %q and %q", a, b)
	}

	other := rowFrom("name", "widget", "count", 4)
	c := g.hash("widgets", other, nil)
	if a == c {
		t.Error("hash_whole should differ when row contents differ")
	}
}

func TestIDGeneratorHashWholeExcludesMetadata(t *testing.T) {
	cfg := defaults()
	cfg.IDStrategy = IDHashWhole
	g := newIDGenerator(cfg)

	row := rowFrom("name", "widget")
	row.Set(cfg.IDField, "some-random-id")
	row.Set(cfg.ParentField, "some-parent-id")

	withMeta := g.hash("widgets", row, nil)

	plain := rowFrom("name", "widget")
	withoutMeta := g.hash("widgets", plain, nil)

	if withMeta != withoutMeta {
		t.Error("hash_whole must exclude id/parent/time metadata columns from its input")
	}
}

func TestIDGeneratorHashFieldsMissingFieldIsNullSentinel(t *testing.T) {
	cfg := defaults()
	cfg.IDStrategy = IDHashFields
	cfg.IDHashFields = []string{"sku", "region"}
	g := newIDGenerator(cfg)

	present := rowFrom("sku", "ABC", "region", "us")
	absent := rowFrom("sku", "ABC")

	a := g.hash("widgets", present, cfg.IDHashFields)
	b := g.hash("widgets", absent, cfg.IDHashFields)
	if a == b {
		t.Error("hash_fields must distinguish a present field from an absent one")
	}
}
