// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package parquetwriter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/parquet-go/parquet-go"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var ErrSchemaViolation = errors.New("parquetwriter: row violates schema")

// Sink receives the files of a table. ClearTable is called before any file
// is put and MarkComplete only after every file was put successfully.
type Sink interface {
	ClearTable(ctx context.Context, table string) error
	PutFile(ctx context.Context, key string, localPath string) error
	MarkComplete(ctx context.Context, table string) error
}

type Options struct {
	// TmpDir holds the local files and page buffers while a table is written.
	TmpDir string
	// Concurrency bounds the partitions written at once. Zero means 1.
	Concurrency int
}

// Result describes a written table.
type Result struct {
	Table      string
	Rows       int
	Partitions int
	// Files are the keys of the uploaded files, sorted.
	Files []string
}

const writeBatchSize = 1000

// Write replaces the table described by spec with rows. Rows are grouped by
// the spec's partition columns, and one parquet file is written per
// partition. Any error aborts the table before it is marked complete.
func Write(ctx context.Context, spec TableSpec, rows []map[string]any, sink Sink, opts Options) (*Result, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	ctx, span := tracer.Start(ctx, "parquetwriter.Write", trace.WithAttributes(
		attribute.String("table", spec.Name),
		attribute.Int("rows", len(rows)),
	))
	defer span.End()

	schema, err := BuildSchema(spec)
	if err != nil {
		return nil, err
	}

	parts, err := splitPartitions(spec, rows)
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 && len(spec.PartitionBy) == 0 {
		// An empty unpartitioned table still gets a file so the schema is readable.
		parts = []*partition{{}}
	}

	tmpdir := opts.TmpDir
	if tmpdir == "" {
		tmpdir = os.TempDir()
	}
	workdir, err := os.MkdirTemp(tmpdir, "table-"+spec.Name+"-")
	if err != nil {
		return nil, fmt.Errorf("create work dir for table %s: %w", spec.Name, err)
	}
	defer func() {
		if err := os.RemoveAll(workdir); err != nil {
			slog.Warn("Failed to remove work dir", slog.String("dir", workdir), slog.Any("error", err))
		}
	}()

	if err := sink.ClearTable(ctx, spec.Name); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("clear table %s: %w", spec.Name, err)
	}

	limit := opts.Concurrency
	if limit <= 0 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	attrs := otelmetric.WithAttributes(attribute.String("table", spec.Name))
	files := make([]string, len(parts))
	for i, p := range parts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			localPath, err := writeLocalFile(workdir, schema, p.rows)
			if err != nil {
				return fmt.Errorf("table %s partition %q: %w", spec.Name, p.dir, err)
			}
			defer os.Remove(localPath)

			key := p.fileKey(spec.Name)
			if err := sink.PutFile(gctx, key, localPath); err != nil {
				return fmt.Errorf("upload %s: %w", key, err)
			}
			files[i] = key
			rowsWrittenCounter.Add(gctx, int64(len(p.rows)), attrs)
			filesWrittenCounter.Add(gctx, 1, attrs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	if err := sink.MarkComplete(ctx, spec.Name); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("mark table %s complete: %w", spec.Name, err)
	}

	slog.InfoContext(ctx, "Wrote table",
		slog.String("table", spec.Name),
		slog.Int("rows", len(rows)),
		slog.Int("partitions", len(parts)))

	return &Result{
		Table:      spec.Name,
		Rows:       len(rows),
		Partitions: len(parts),
		Files:      files,
	}, nil
}

// writeLocalFile writes rows to a new parquet file in dir and returns its path.
func writeLocalFile(dir string, schema *parquet.Schema, rows []map[string]any) (string, error) {
	f, err := os.CreateTemp(dir, "part-*.parquet")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	name := f.Name()
	fail := func(err error) (string, error) {
		_ = f.Close()
		_ = os.Remove(name)
		return "", err
	}

	w := parquet.NewGenericWriter[map[string]any](f, WriterOptions(dir, schema)...)
	for start := 0; start < len(rows); start += writeBatchSize {
		end := min(start+writeBatchSize, len(rows))
		if _, err := w.Write(rows[start:end]); err != nil {
			return fail(fmt.Errorf("write rows: %w", err))
		}
	}
	if err := w.Close(); err != nil {
		return fail(fmt.Errorf("close parquet writer: %w", err))
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("close file: %w", err)
	}
	return name, nil
}
