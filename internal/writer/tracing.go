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
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// tracer is shared across every format backend's Open/Finalize spans,
// the same role each internal/sources/<kind> package's package-level
// tracer plays around InitConnectionSpan.
var tracer = otel.Tracer("github.com/scottdraper8/transmog/internal/writer")

// InitWriterSpan starts a span around one writer lifecycle call, the
// same shape as the teacher's sources.InitConnectionSpan: a format
// name and an operation name, not a SQL source kind and connection
// name, but the same "span per lifecycle transition" idea.
func InitWriterSpan(ctx context.Context, format, op string) (context.Context, trace.Span) {
	return tracer.Start(ctx, fmt.Sprintf("writer.%s.%s", format, op))
}
