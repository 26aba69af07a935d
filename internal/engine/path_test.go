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

func TestJoin(t *testing.T) {
	tests := []struct {
		name       string
		components []string
		threshold  int
		kind       PathKind
		want       string
	}{
		{
			name:       "below threshold joins in full",
			components: []string{"order", "items", "sku"},
			threshold:  5,
			kind:       ColumnPath,
			want:       "order_items_sku",
		},
		{
			name:       "empty components skipped",
			components: []string{"order", "", "sku"},
			threshold:  5,
			kind:       ColumnPath,
			want:       "order_sku",
		},
		{
			name:       "no components yields empty string",
			components: nil,
			threshold:  5,
			kind:       ColumnPath,
			want:       "",
		},
		{
			name:       "zero threshold never simplifies",
			components: []string{"a", "b", "c", "d", "e", "f"},
			threshold:  0,
			kind:       ColumnPath,
			want:       "a_b_c_d_e_f",
		},
		{
			name:       "column path above threshold uses first, second-to-last, last",
			components: []string{"order", "customer", "address", "geo", "lat"},
			threshold:  3,
			kind:       ColumnPath,
			want:       "order_geo_lat",
		},
		{
			name:       "table path above threshold uses first, nested, last",
			components: []string{"order", "customer", "address", "geo", "lat"},
			threshold:  3,
			kind:       TablePath,
			want:       "order_nested_lat",
		},
		{
			name:       "exactly at threshold does not simplify",
			components: []string{"a", "b", "c"},
			threshold:  3,
			kind:       ColumnPath,
			want:       "a_b_c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Join(tt.components, "_", tt.threshold, tt.kind)
			if got != tt.want {
				t.Errorf("Join(%v, threshold=%d, kind=%v) = %q, want %q",
					tt.components, tt.threshold, tt.kind, got, tt.want)
			}
		})
	}
}

func TestJoinCustomSeparator(t *testing.T) {
	got := Join([]string{"a", "b"}, ".", 5, ColumnPath)
	want := "a.b"
	if got != want {
		t.Errorf("Join with custom separator = %q, want %q", got, want)
	}
}
