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

// Command transmog is a thin CLI wrapper over the public transmog
// package: it parses flags, builds a Source from the input path, and
// calls transmog.FlattenStream. It has no logic of its own beyond
// that — the core engine never imports this package.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/scottdraper8/transmog/internal/xlog"

	"github.com/scottdraper8/transmog"
)

// Command wraps a cobra.Command with the flag-bound fields FlattenStream
// needs, the same "struct embeds *cobra.Command" shape the teacher's
// cmd.Command uses.
type Command struct {
	*cobra.Command

	inputPath       string
	configPath      string
	outputPath      string
	name            string
	format          string
	arrayMode       string
	idStrategy      string
	idField         string
	batchSize       int
	separator       string
	includeNulls    bool
	stringifyValues bool
	loggingFormat   string
	logLevel        string
}

// NewCommand builds the root transmog command.
func NewCommand() *Command {
	c := &Command{}
	c.Command = &cobra.Command{
		Use:   "transmog <input>",
		Short: "Flatten nested JSON/JSONL records into flat relational tables",
		Long: `transmog reads a JSON array or JSONL file of semi-structured
records and writes one flat table per entity, linked by generated
identifiers, in CSV, Parquet, ORC, or Avro form.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.inputPath = args[0]
			return c.run(cmd.Context())
		},
	}

	flags := c.Command.Flags()
	flags.StringVar(&c.outputPath, "output", "", "output file or directory (required)")
	flags.StringVar(&c.configPath, "config", "", "optional YAML file overriding run configuration")
	flags.StringVar(&c.name, "name", "record", "main table / entity name")
	flags.StringVar(&c.format, "format", "csv", "output format: csv, parquet, orc, avro")
	flags.StringVar(&c.arrayMode, "array-mode", "smart", "array extraction policy: smart, separate, inline, skip")
	flags.StringVar(&c.idStrategy, "id", "random", "id strategy: random, natural, hash_whole, hash_fields")
	flags.StringVar(&c.idField, "id-field", "_id", "natural id lookup field, when --id=natural")
	flags.IntVar(&c.batchSize, "batch-size", 100, "rows per flush group boundary")
	flags.StringVar(&c.separator, "separator", "_", "path-name joiner")
	flags.BoolVar(&c.includeNulls, "include-nulls", false, "keep null/empty leaves as columns")
	flags.BoolVar(&c.stringifyValues, "stringify", false, "render every scalar as a string")
	flags.StringVar(&c.loggingFormat, "logging-format", "standard", "logging format: standard, json")
	flags.StringVar(&c.logLevel, "log-level", "INFO", "logging level: DEBUG, INFO, WARN, ERROR")
	_ = c.Command.MarkFlagRequired("output")

	return c
}

func (c *Command) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	log, err := xlog.New(c.loggingFormat, c.logLevel, c.OutOrStdout(), c.ErrOrStderr())
	if err != nil {
		return err
	}

	src, closer, err := transmog.NewFileSource(c.inputPath)
	if err != nil {
		return fmt.Errorf("opening input %q: %w", c.inputPath, err)
	}
	defer closer()

	opts := []transmog.Option{
		transmog.WithArrayMode(transmog.ArrayMode(c.arrayMode)),
		transmog.WithIDStrategy(transmog.IDStrategy(c.idStrategy)),
		transmog.WithIDField(c.idField),
		transmog.WithBatchSize(c.batchSize),
		transmog.WithSeparator(c.separator),
		transmog.WithIncludeNulls(c.includeNulls),
		transmog.WithStringifyValues(c.stringifyValues),
	}

	if c.configPath != "" {
		fileOpt, err := transmog.OptionsFromYAML(c.configPath)
		if err != nil {
			return err
		}
		opts = append(opts, fileOpt)
	}

	if err := transmog.FlattenStream(ctx, src, c.outputPath, c.name, c.format, opts...); err != nil {
		log.ErrorContext(ctx, "flatten stream failed", "error", err)
		return err
	}
	log.InfoContext(ctx, "flatten stream complete", "input", c.inputPath, "output", c.outputPath)
	return nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	root := NewCommand()
	root.Command.SetContext(ctx)
	if err := root.Command.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
