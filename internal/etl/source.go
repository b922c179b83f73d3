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

package etl

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/cardinalhq/playlake/internal/cloudstorage"
	"github.com/cardinalhq/playlake/internal/filereader"
)

const (
	songDataPrefix = "song_data"
	logDataPrefix  = "log_data"
)

// fetchRecordFiles downloads every record file under loc into dir and
// returns the local paths in key order.
func fetchRecordFiles(ctx context.Context, client cloudstorage.Client, loc cloudstorage.Location, dir string, limit int) ([]string, error) {
	prefix := loc.Prefix
	if prefix != "" {
		prefix += "/"
	}
	keys, err := client.ListObjects(ctx, loc.Bucket, prefix)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", loc, err)
	}

	var recordKeys []string
	for _, k := range keys {
		if filereader.IsRecordFile(k) {
			recordKeys = append(recordKeys, k)
		}
	}
	slog.InfoContext(ctx, "Found record files",
		slog.String("location", loc.String()),
		slog.Int("objects", len(keys)),
		slog.Int("recordFiles", len(recordKeys)))

	files := make([]string, len(recordKeys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(limit, 1))
	for i, key := range recordKeys {
		g.Go(func() error {
			fn, _, notFound, err := client.DownloadObject(gctx, dir, loc.Bucket, key)
			if err != nil {
				return fmt.Errorf("download %s: %w", key, err)
			}
			if notFound {
				return fmt.Errorf("download %s: object disappeared after listing", key)
			}
			files[i] = fn
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

type readCounts struct {
	malformed  int64
	mismatches int64
}

// openFilesPerBatch bounds the files held open by one MultiReader.
const openFilesPerBatch = 64

// readRecords parses files against schema and converts each row with conv.
func readRecords[T any](files []string, schema *filereader.Schema, conv func(filereader.Row) T) ([]T, readCounts, error) {
	var (
		out    []T
		counts readCounts
	)
	for start := 0; start < len(files); start += openFilesPerBatch {
		batch := files[start:min(start+openFilesPerBatch, len(files))]
		reader, err := filereader.ReaderForFiles(batch, schema)
		if err != nil {
			return nil, counts, err
		}
		recs, err := filereader.ReadAll(reader, conv)
		counts.malformed += reader.MalformedRows()
		counts.mismatches += reader.SchemaMismatches()
		_ = reader.Close()
		if err != nil {
			return nil, counts, err
		}
		out = append(out, recs...)
	}
	return out, counts, nil
}
