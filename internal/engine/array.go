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

// extractArray turns one deferred array into rows in a child table,
// appending each to group. parentID is the enclosing row's own id —
// by the time this runs, processRecord has already finalized it, so
// every child row carries a correct parent_field (spec.md §4.4 step
// 3). childTablePath extends the enclosing table's ancestry with the
// field path the array was found at, so a further-nested array inside
// one of these elements keeps accumulating the same ancestry chain
// the table-name deep-nesting rule renders against.
func (f *Flattener) extractArray(ext pendingExtraction, tablePath []string, parentID string, group *FlushGroup) error {
	childTablePath := make([]string, 0, len(tablePath)+len(ext.path))
	childTablePath = append(childTablePath, tablePath...)
	childTablePath = append(childTablePath, ext.path...)
	childTable := f.tableName(childTablePath)

	// register the child table before any grandchild table its elements
	// extract, so group's table order stays parent-first.
	if _, ok := group.Tables[childTable]; !ok && len(ext.elements) > 0 {
		group.TableOrder = append(group.TableOrder, childTable)
		group.Tables[childTable] = Batch{}
	}

	for _, elem := range ext.elements {
		obj, ok := elem.(*Object)
		if !ok {
			// a non-object element (scalar, or a nested array) gets a
			// single synthetic column so it still becomes a row rather
			// than being silently dropped.
			wrapped := NewObject()
			wrapped.Set("value", elem)
			obj = wrapped
		}

		row, err := f.processRecord(obj, childTablePath, parentID, true, group)
		if err != nil {
			return err
		}
		group.Append(childTable, row)
	}
	return nil
}
