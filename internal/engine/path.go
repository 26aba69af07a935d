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

import "strings"

// PathKind selects which deep-nesting simplification rule Join
// applies once the component count exceeds the threshold.
type PathKind int

const (
	// ColumnPath names a column inside one table.
	ColumnPath PathKind = iota
	// TablePath names a child table derived from an extracted array.
	TablePath
)

// Join combines path components into a single column or table name,
// applying deep-nesting simplification above threshold components.
// Empty components are skipped; components are not escaped even if
// they contain sep — the caller controls the keys that feed this.
func Join(components []string, sep string, threshold int, kind PathKind) string {
	parts := make([]string, 0, len(components))
	for _, c := range components {
		if c == "" {
			continue
		}
		parts = append(parts, c)
	}
	if len(parts) == 0 {
		return ""
	}
	if threshold > 0 && len(parts) > threshold {
		first := parts[0]
		last := parts[len(parts)-1]
		switch kind {
		case TablePath:
			return strings.Join([]string{first, "nested", last}, sep)
		default:
			secondToLast := parts[len(parts)-2]
			return strings.Join([]string{first, secondToLast, last}, sep)
		}
	}
	return strings.Join(parts, sep)
}
