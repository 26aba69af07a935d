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

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewCommandRequiresOutputFlag(t *testing.T) {
	c := NewCommand()
	c.SetArgs([]string{"somefile.json"})
	var stderr bytes.Buffer
	c.SetErr(&stderr)
	c.SetOut(&bytes.Buffer{})

	if err := c.Execute(); err == nil {
		t.Error("expected an error when --output is not supplied")
	}
}

func TestNewCommandDefaults(t *testing.T) {
	c := NewCommand()
	if c.format != "csv" {
		t.Errorf("default format = %q, want csv", c.format)
	}
	if c.batchSize != 100 {
		t.Errorf("default batch size = %d, want 100", c.batchSize)
	}
	if c.arrayMode != "smart" {
		t.Errorf("default array mode = %q, want smart", c.arrayMode)
	}
}

func TestCommandRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "in.json")
	if err := os.WriteFile(inputPath, []byte(`[{"name":"a"},{"name":"b"}]`), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	outputPath := filepath.Join(dir, "out.csv")

	c := NewCommand()
	c.SetArgs([]string{"--output", outputPath, inputPath})
	var stdout, stderr bytes.Buffer
	c.SetOut(&stdout)
	c.SetErr(&stderr)
	c.Command.SetContext(context.Background())

	if err := c.Execute(); err != nil {
		t.Fatalf("Execute: %v, stderr=%s", err, stderr.String())
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !strings.Contains(string(data), "name") {
		t.Errorf("output missing expected header, got:\n%s", data)
	}
}

func TestCommandRunWithYAMLConfigOverride(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "in.json")
	if err := os.WriteFile(inputPath, []byte(`[{"sku":"ABC"}]`), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("idStrategy: natural\nidField: sku\n"), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	outputPath := filepath.Join(dir, "out.csv")

	c := NewCommand()
	c.SetArgs([]string{"--output", outputPath, "--config", configPath, inputPath})
	c.SetOut(&bytes.Buffer{})
	c.SetErr(&bytes.Buffer{})
	c.Command.SetContext(context.Background())

	if err := c.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !strings.Contains(string(data), "ABC") {
		t.Errorf("expected the natural id value to appear in output, got:\n%s", data)
	}
}
