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

// Package xlog is the structured logger used across the engine,
// pipeline, and writer packages. It mirrors the standard-vs-error
// stream split every run uses: progress and diagnostics go to one
// writer, warnings and failures to another.
package xlog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

const (
	Debug = "DEBUG"
	Info  = "INFO"
	Warn  = "WARN"
	Error = "ERROR"
)

// Logger is satisfied by both the structured and standard
// implementations below.
type Logger interface {
	DebugContext(ctx context.Context, msg string, keysAndValues ...any)
	InfoContext(ctx context.Context, msg string, keysAndValues ...any)
	WarnContext(ctx context.Context, msg string, keysAndValues ...any)
	ErrorContext(ctx context.Context, msg string, keysAndValues ...any)
}

// New creates a Logger based on the requested format ("json" or
// "standard").
func New(format, level string, out, err io.Writer) (Logger, error) {
	switch strings.ToLower(format) {
	case "json":
		return newStructured(out, err, level)
	case "standard", "":
		return newStandard(out, err, level)
	default:
		return nil, fmt.Errorf("logging format invalid: %s", format)
	}
}

func severityToLevel(s string) (slog.Level, error) {
	switch strings.ToUpper(s) {
	case Debug:
		return slog.LevelDebug, nil
	case Info, "":
		return slog.LevelInfo, nil
	case Warn:
		return slog.LevelWarn, nil
	case Error:
		return slog.LevelError, nil
	default:
		return slog.Level(0), fmt.Errorf("invalid log level: %s", s)
	}
}

type splitLogger struct {
	out *slog.Logger
	err *slog.Logger
}

func (l *splitLogger) DebugContext(ctx context.Context, msg string, kv ...any) {
	l.out.DebugContext(ctx, msg, kv...)
}

func (l *splitLogger) InfoContext(ctx context.Context, msg string, kv ...any) {
	l.out.InfoContext(ctx, msg, kv...)
}

func (l *splitLogger) WarnContext(ctx context.Context, msg string, kv ...any) {
	l.err.WarnContext(ctx, msg, kv...)
}

func (l *splitLogger) ErrorContext(ctx context.Context, msg string, kv ...any) {
	l.err.ErrorContext(ctx, msg, kv...)
}

func newStandard(out, err io.Writer, level string) (Logger, error) {
	lvl, lerr := severityToLevel(level)
	if lerr != nil {
		return nil, lerr
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(lvl)
	opts := &slog.HandlerOptions{Level: programLevel}
	return &splitLogger{
		out: slog.New(slog.NewTextHandler(out, opts)),
		err: slog.New(slog.NewTextHandler(err, opts)),
	}, nil
}

func newStructured(out, err io.Writer, level string) (Logger, error) {
	lvl, lerr := severityToLevel(level)
	if lerr != nil {
		return nil, lerr
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(lvl)
	opts := &slog.HandlerOptions{Level: programLevel}
	return &splitLogger{
		out: slog.New(slog.NewJSONHandler(out, opts)),
		err: slog.New(slog.NewJSONHandler(err, opts)),
	}, nil
}

// Noop is a Logger that discards everything; used as the default when
// no logger is configured on a run.
var Noop Logger = &splitLogger{
	out: slog.New(slog.NewTextHandler(io.Discard, nil)),
	err: slog.New(slog.NewTextHandler(io.Discard, nil)),
}
