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
	"path/filepath"
	"testing"

	"github.com/scottdraper8/transmog/internal/engine"
)

func TestOptionsFromYAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	doc := "arrayMode: separate\nbatchSize: 50\nidStrategy: natural\nidField: sku\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	opt, err := OptionsFromYAML(path)
	if err != nil {
		t.Fatalf("OptionsFromYAML: %v", err)
	}

	cfg := engine.DefaultStreaming()
	opt(&cfg)

	if cfg.ArrayMode != engine.ArraySeparate {
		t.Errorf("ArrayMode = %v, want separate", cfg.ArrayMode)
	}
	if cfg.BatchSize != 50 {
		t.Errorf("BatchSize = %d, want 50", cfg.BatchSize)
	}
	if cfg.IDStrategy != engine.IDNatural || cfg.IDField != "sku" {
		t.Errorf("IDStrategy/IDField = %v/%v, want natural/sku", cfg.IDStrategy, cfg.IDField)
	}
}

func TestOptionsFromYAMLLeavesOmittedFieldsAlone(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("batchSize: 7\n"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	opt, err := OptionsFromYAML(path)
	if err != nil {
		t.Fatalf("OptionsFromYAML: %v", err)
	}

	cfg := engine.DefaultStreaming()
	originalSeparator := cfg.Separator
	opt(&cfg)

	if cfg.Separator != originalSeparator {
		t.Errorf("Separator changed to %q despite the document not mentioning it", cfg.Separator)
	}
	if cfg.BatchSize != 7 {
		t.Errorf("BatchSize = %d, want 7", cfg.BatchSize)
	}
}

func TestOptionsFromYAMLMissingFileErrors(t *testing.T) {
	_, err := OptionsFromYAML(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Error("expected an error for a missing config file")
	}
}

func TestOptionsFromYAMLMalformedDocumentErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("batchSize: [this is not an int\n"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	_, err := OptionsFromYAML(path)
	if err == nil {
		t.Error("expected an error for a malformed YAML document")
	}
}
