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

// Package songplays builds the songplays fact table by resolving each
// song-play event against the song catalog and the time dimension.
package songplays

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"

	"github.com/cardinalhq/playlake/internal/catalog"
	"github.com/cardinalhq/playlake/internal/records"
	"github.com/cardinalhq/playlake/internal/timedim"
)

// ErrMissingTimeDimension means an event's timestamp has no time dimension
// row. The time dimension is built from the same events, so this is an
// internal inconsistency and the run must stop.
var ErrMissingTimeDimension = errors.New("event has no time dimension row")

// IntegrityError reports which event failed the time dimension join.
type IntegrityError struct {
	EventIndex int
	TS         *int64
}

func (e *IntegrityError) Error() string {
	if e.TS == nil {
		return fmt.Sprintf("%s: event %d has a null ts", ErrMissingTimeDimension, e.EventIndex)
	}
	return fmt.Sprintf("%s: event %d ts=%d", ErrMissingTimeDimension, e.EventIndex, *e.TS)
}

func (e *IntegrityError) Unwrap() error {
	return ErrMissingTimeDimension
}

// IDGenerator hands out songplay ids. Ids only need to be unique within a run.
type IDGenerator interface {
	NextID() int64
}

type songRef struct {
	songID   string
	artistID string
}

// Resolver matches events to catalog songs. Matching is exact, case-sensitive
// string equality on (event.song, song.title) and (event.artist, artist.name),
// with no trimming; null never matches.
type Resolver struct {
	ids         IDGenerator
	byTitle     map[string][]songRef
	artistNames map[string]string
}

func NewResolver(cat catalog.Catalog, ids IDGenerator) *Resolver {
	r := &Resolver{
		ids:         ids,
		byTitle:     make(map[string][]songRef, len(cat.Songs)),
		artistNames: make(map[string]string, len(cat.Artists)),
	}
	for _, s := range cat.Songs {
		if s.Title == nil || s.ArtistID == nil {
			continue
		}
		r.byTitle[*s.Title] = append(r.byTitle[*s.Title], songRef{songID: s.SongID, artistID: *s.ArtistID})
	}
	for title := range r.byTitle {
		refs := r.byTitle[title]
		sort.Slice(refs, func(i, j int) bool { return refs[i].songID < refs[j].songID })
	}
	for _, a := range cat.Artists {
		if a.ArtistID == nil || a.Name == nil {
			continue
		}
		r.artistNames[*a.ArtistID] = *a.Name
	}
	return r
}

// Match returns the song and artist ids for an event, or nils when the
// catalog has no song with that title by an artist of that name. When
// several songs qualify, the smallest song id wins.
func (r *Resolver) Match(e records.EventRecord) (songID, artistID *string) {
	if e.Song == nil || e.Artist == nil {
		return nil, nil
	}
	for _, ref := range r.byTitle[*e.Song] {
		if name, ok := r.artistNames[ref.artistID]; ok && name == *e.Artist {
			return &ref.songID, &ref.artistID
		}
	}
	return nil, nil
}

// Resolve left-joins song-play events to the catalog and joins them to the
// time dimension, producing one fact row per event. Unmatched catalog lookups
// yield null song and artist ids; a missing time row is an *IntegrityError.
func (r *Resolver) Resolve(ctx context.Context, plays []records.EventRecord, times timedim.Index) ([]records.SongPlay, Completeness, error) {
	out := make([]records.SongPlay, 0, len(plays))
	var comp Completeness

	for i, e := range plays {
		if i%10_000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, comp, err
			}
		}

		if e.TS == nil {
			return nil, comp, &IntegrityError{EventIndex: i}
		}
		tr, ok := times[*e.TS]
		if !ok {
			return nil, comp, &IntegrityError{EventIndex: i, TS: e.TS}
		}

		songID, artistID := r.Match(e)
		comp.Total++
		if songID != nil {
			comp.Matched++
		}

		out = append(out, records.SongPlay{
			SongplayID: r.ids.NextID(),
			StartTime:  tr.StartTime,
			UserID:     e.UserID,
			Level:      e.Level,
			SongID:     songID,
			ArtistID:   artistID,
			SessionID:  e.SessionID,
			Location:   e.Location,
			UserAgent:  e.UserAgent,
			Year:       tr.Year,
			Month:      tr.Month,
		})
	}

	attrs := otelmetric.WithAttributes(attribute.String("table", "songplays"))
	matchedCounter.Add(ctx, comp.Matched, attrs)
	unmatchedCounter.Add(ctx, comp.Unmatched(), attrs)
	slog.InfoContext(ctx, "Resolved songplays",
		slog.Int64("total", comp.Total),
		slog.Int64("matched", comp.Matched),
		slog.Float64("completeness", comp.Ratio()))

	return out, comp, nil
}

// Completeness measures catalog coverage of the fact table.
type Completeness struct {
	Total   int64 `json:"total"`
	Matched int64 `json:"matched"`
}

func (c Completeness) Unmatched() int64 {
	return c.Total - c.Matched
}

// Ratio is the matched share of fact rows; an empty table is fully complete.
func (c Completeness) Ratio() float64 {
	if c.Total == 0 {
		return 1
	}
	return float64(c.Matched) / float64(c.Total)
}
