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

package columnar

import (
	"testing"
)

func TestORCDDLRendersHiveStructType(t *testing.T) {
	cols := []Column{
		{Name: "id", Kind: KindString},
		{Name: "count", Kind: KindInt64},
		{Name: "ratio", Kind: KindFloat64},
		{Name: "flag", Kind: KindBool},
	}
	got := orcDDL(cols)
	want := "struct<id:string,count:bigint,ratio:double,flag:boolean>"
	if got != want {
		t.Errorf("orcDDL = %q, want %q", got, want)
	}
}

func TestORCDDLEmptySchema(t *testing.T) {
	got := orcDDL(nil)
	if got != "struct<>" {
		t.Errorf("orcDDL(nil) = %q, want %q", got, "struct<>")
	}
}
