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

// Package etl rebuilds the songplay star schema from raw song metadata and
// listening event logs.
package etl

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/cardinalhq/playlake/internal/catalog"
	"github.com/cardinalhq/playlake/internal/cloudstorage"
	"github.com/cardinalhq/playlake/internal/eventlog"
	"github.com/cardinalhq/playlake/internal/filereader"
	"github.com/cardinalhq/playlake/internal/helpers"
	"github.com/cardinalhq/playlake/internal/parquetwriter"
	"github.com/cardinalhq/playlake/internal/records"
	"github.com/cardinalhq/playlake/internal/songplays"
	"github.com/cardinalhq/playlake/internal/timedim"
)

type Options struct {
	RunID string
	// Input holds the song_data/ and log_data/ prefixes.
	Input  cloudstorage.Location
	TmpDir string
	// Readers bounds concurrent source downloads.
	Readers int
	// Writers bounds concurrent partition writes within a table.
	Writers int
	IDs     songplays.IDGenerator
}

type TableStats struct {
	Rows       int `json:"rows"`
	Partitions int `json:"partitions"`
	Files      int `json:"files"`
}

// Stats summarizes a run.
type Stats struct {
	RunID            string                `json:"run_id"`
	MetadataFiles    int                   `json:"metadata_files"`
	EventFiles       int                   `json:"event_files"`
	MetadataRecords  int                   `json:"metadata_records"`
	Events           int                   `json:"events"`
	SongPlayEvents   int                   `json:"songplay_events"`
	UntimedPlays     int                   `json:"untimed_plays"`
	MalformedRows    int64                 `json:"malformed_rows"`
	SchemaMismatches int64                 `json:"schema_mismatches"`
	Matched          int64                 `json:"matched"`
	Unmatched        int64                 `json:"unmatched"`
	MatchRatio       float64               `json:"match_ratio"`
	Tables           map[string]TableStats `json:"tables"`
	Elapsed          time.Duration         `json:"elapsed_ns"`
}

// Run reads the sources under opts.Input through source, derives the five
// tables and writes each of them through sink. Nothing is written unless
// every table was derived successfully.
func Run(ctx context.Context, source cloudstorage.Client, sink parquetwriter.Sink, opts Options) (*Stats, error) {
	start := time.Now()
	if opts.IDs == nil {
		return nil, fmt.Errorf("songplay id generator is required")
	}
	ll := slog.Default().With(slog.String("runID", opts.RunID))
	stats := &Stats{RunID: opts.RunID, Tables: map[string]TableStats{}}

	workdir, err := os.MkdirTemp(opts.TmpDir, "playlake-")
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(workdir); err != nil {
			ll.Warn("Failed to remove work dir", slog.String("dir", workdir), slog.Any("error", err))
		}
	}()

	metaFiles, err := fetchRecordFiles(ctx, source, opts.Input.Join(songDataPrefix), workdir, opts.Readers)
	if err != nil {
		return nil, fmt.Errorf("fetch song metadata: %w", err)
	}
	eventFiles, err := fetchRecordFiles(ctx, source, opts.Input.Join(logDataPrefix), workdir, opts.Readers)
	if err != nil {
		return nil, fmt.Errorf("fetch event logs: %w", err)
	}
	stats.MetadataFiles = len(metaFiles)
	stats.EventFiles = len(eventFiles)

	meta, metaCounts, err := readRecords(metaFiles, filereader.MetadataSchema, filereader.MetadataFromRow)
	if err != nil {
		return nil, fmt.Errorf("read song metadata: %w", err)
	}
	events, eventCounts, err := readRecords(eventFiles, filereader.EventSchema, filereader.EventFromRow)
	if err != nil {
		return nil, fmt.Errorf("read event logs: %w", err)
	}
	stats.MetadataRecords = len(meta)
	stats.Events = len(events)
	stats.MalformedRows = metaCounts.malformed + eventCounts.malformed
	stats.SchemaMismatches = metaCounts.mismatches + eventCounts.mismatches
	ll.InfoContext(ctx, "Read sources",
		slog.Int("metadataRecords", len(meta)),
		slog.Int("events", len(events)),
		slog.Int64("malformedRows", stats.MalformedRows),
		slog.Int64("schemaMismatches", stats.SchemaMismatches))

	cat, err := catalog.Build(meta)
	if err != nil {
		return nil, fmt.Errorf("build song catalog: %w", err)
	}

	plays := eventlog.FilterSongPlays(events)
	stats.SongPlayEvents = len(plays)
	plays, stats.UntimedPlays = eventlog.DropUntimed(plays)
	if stats.UntimedPlays > 0 {
		ll.WarnContext(ctx, "Dropped song plays without a timestamp", slog.Int("count", stats.UntimedPlays))
	}
	users := eventlog.BuildUsers(plays)
	times := timedim.Build(plays)

	facts, completeness, err := songplays.NewResolver(cat, opts.IDs).Resolve(ctx, plays, timedim.NewIndex(times))
	if err != nil {
		return nil, fmt.Errorf("resolve songplays: %w", err)
	}
	stats.Matched = completeness.Matched
	stats.Unmatched = completeness.Unmatched()
	stats.MatchRatio = completeness.Ratio()

	tables := []struct {
		spec parquetwriter.TableSpec
		rows []records.Row
	}{
		{SongsTable, records.Rows(cat.Songs)},
		{ArtistsTable, records.Rows(cat.Artists)},
		{UsersTable, records.Rows(users)},
		{TimeTable, records.Rows(times)},
		{SongplaysTable, records.Rows(facts)},
	}
	for _, t := range tables {
		res, err := parquetwriter.Write(ctx, t.spec, t.rows, sink, parquetwriter.Options{
			TmpDir:      workdir,
			Concurrency: opts.Writers,
		})
		if err != nil {
			return nil, fmt.Errorf("write table %s: %w", t.spec.Name, err)
		}
		stats.Tables[t.spec.Name] = TableStats{
			Rows:       res.Rows,
			Partitions: res.Partitions,
			Files:      len(res.Files),
		}
	}

	stats.Elapsed = time.Since(start)
	ll.InfoContext(ctx, "Rebuilt star schema",
		slog.Int("songs", len(cat.Songs)),
		slog.Int("artists", len(cat.Artists)),
		slog.Int("users", len(users)),
		slog.Int("timeRows", len(times)),
		slog.Int("songplays", len(facts)),
		slog.Float64("matchRatio", stats.MatchRatio),
		slog.String("elapsed", helpers.FormatDuration(stats.Elapsed)))

	return stats, nil
}
