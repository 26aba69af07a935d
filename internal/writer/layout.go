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

package writer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/scottdraper8/transmog/internal/xerrors"
)

// Layout resolves the single-file-vs-directory output rule shared by
// every concrete writer (spec.md §6: "single file when there are no
// child tables and the save path carries an extension; directory of
// <table>.<ext> files otherwise"). The decision locks in on the first
// call to PathsFor, since that's the first point a writer actually
// knows which tables exist — exactly when schema also locks.
type Layout struct {
	dest   string
	ext    string
	locked bool
	single bool
	table  string
}

// NewLayout prepares a layout for dest (the path a caller passed to
// Open) and ext (the format's file extension, without the dot).
func NewLayout(dest, ext string) *Layout {
	return &Layout{dest: dest, ext: ext}
}

// PathsFor locks the layout against tables (in table order) the first
// time it's called, and returns the file path each table writes to.
// A later call in multi-file mode is always safe; a later call naming
// any table other than the locked one while in single-file mode is an
// OutputError — the format committed to one file before the extra
// table appeared.
func (l *Layout) PathsFor(tables []string) (map[string]string, error) {
	if !l.locked {
		l.locked = true
		l.single = len(tables) <= 1 && filepath.Ext(l.dest) != ""
		if l.single && len(tables) == 1 {
			l.table = tables[0]
		}
		if !l.single {
			if err := os.MkdirAll(l.dest, 0o755); err != nil {
				return nil, xerrors.Output("unable to create output directory", err)
			}
		}
	}

	out := make(map[string]string, len(tables))
	for _, t := range tables {
		if l.single {
			if t != l.table {
				return nil, xerrors.Output(fmt.Sprintf("output layout drift: additional table %q after single-file lock", t), nil)
			}
			out[t] = l.dest
			continue
		}
		out[t] = filepath.Join(l.dest, t+"."+l.ext)
	}
	return out, nil
}

// IsSingleFile reports whether the layout locked into single-file
// mode (valid only after the first PathsFor call).
func (l *Layout) IsSingleFile() bool {
	return l.single
}
