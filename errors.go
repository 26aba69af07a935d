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

import "github.com/scottdraper8/transmog/internal/xerrors"

// Error is the interface every error this module returns across its
// public API satisfies — callers can errors.As into it to inspect
// Kind() (spec.md §7).
type Error = xerrors.TransmogError

// ErrorKind names one of the four failure categories a run can end
// in.
type ErrorKind = xerrors.Kind

const (
	ErrValidation = xerrors.KindValidation
	ErrProcessing = xerrors.KindProcessing
	ErrOutput     = xerrors.KindOutput
	ErrDependency = xerrors.KindDependency
)

// IsKind reports whether err (or something it wraps) carries the
// given ErrorKind.
func IsKind(err error, kind ErrorKind) bool {
	return xerrors.Is(err, kind)
}
