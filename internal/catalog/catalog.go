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

// Package catalog derives the songs and artists dimensions from song metadata.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/cardinalhq/playlake/internal/helpers"
	"github.com/cardinalhq/playlake/internal/records"
)

// ErrSurrogateCollision is returned when two distinct song tuples hash to the
// same song id.
var ErrSurrogateCollision = errors.New("song id collision")

// Catalog is the deduplicated song and artist dimensions.
type Catalog struct {
	Songs   []records.SongRecord
	Artists []records.ArtistRecord
}

// Build derives both dimensions from the full metadata stream.
func Build(meta []records.MetadataRecord) (Catalog, error) {
	songs, err := BuildSongs(meta)
	if err != nil {
		return Catalog{}, err
	}
	return Catalog{
		Songs:   songs,
		Artists: BuildArtists(meta),
	}, nil
}

func songKey(m records.MetadataRecord) *helpers.TupleKey {
	return helpers.NewTupleKey().
		String(m.Title).
		String(m.ArtistID).
		Int32(m.Year).
		Float64(m.Duration)
}

// SongID returns the surrogate id for a (title, artistId, year, duration) tuple.
// It depends only on the tuple, so it is the same on every run.
func SongID(title, artistID *string, year *int32, duration *float64) string {
	k := helpers.NewTupleKey().String(title).String(artistID).Int32(year).Float64(duration)
	return formatID(k.Hash())
}

func formatID(h uint64) string {
	return fmt.Sprintf("%016x", h)
}

// BuildSongs projects metadata onto (title, artistId, year, duration), keeps one
// row per distinct tuple, and assigns each a hash-derived song id. The result
// is sorted by song id and does not depend on input order.
func BuildSongs(meta []records.MetadataRecord) ([]records.SongRecord, error) {
	byKey := make(map[string]records.SongRecord, len(meta))
	keyByID := make(map[string]string, len(meta))

	for _, m := range meta {
		k := songKey(m)
		key := k.Key()
		if _, seen := byKey[key]; seen {
			continue
		}
		id := formatID(k.Hash())
		if other, taken := keyByID[id]; taken && other != key {
			return nil, fmt.Errorf("%w: %s", ErrSurrogateCollision, id)
		}
		keyByID[id] = key
		byKey[key] = records.SongRecord{
			SongID:   id,
			Title:    m.Title,
			ArtistID: m.ArtistID,
			Year:     m.Year,
			Duration: m.Duration,
		}
	}

	songs := make([]records.SongRecord, 0, len(byKey))
	for _, s := range byKey {
		songs = append(songs, s)
	}
	sort.Slice(songs, func(i, j int) bool { return songs[i].SongID < songs[j].SongID })
	return songs, nil
}

type artistCandidate struct {
	rec  records.ArtistRecord
	key  string
	hash uint64
}

// less orders candidates by attribute hash, then by encoding, so the winner of
// a conflict is independent of processing order.
func (c artistCandidate) less(o artistCandidate) bool {
	if c.hash != o.hash {
		return c.hash < o.hash
	}
	return c.key < o.key
}

// BuildArtists keeps one row per artist id. When the same artist id carries
// different attributes, the attribute tuple with the smallest hash wins.
// The result is sorted by artist id with the null id, if any, first.
func BuildArtists(meta []records.MetadataRecord) []records.ArtistRecord {
	winners := make(map[string]artistCandidate)

	for _, m := range meta {
		rec := records.ArtistRecord{
			ArtistID:  m.ArtistID,
			Name:      m.ArtistName,
			Location:  m.ArtistLocation,
			Latitude:  m.ArtistLatitude,
			Longitude: m.ArtistLongitude,
		}
		attrs := helpers.NewTupleKey().
			String(rec.Name).
			String(rec.Location).
			Float64(rec.Latitude).
			Float64(rec.Longitude)
		cand := artistCandidate{rec: rec, key: attrs.Key(), hash: attrs.Hash()}

		group := helpers.NewTupleKey().String(m.ArtistID).Key()
		if cur, ok := winners[group]; !ok || cand.less(cur) {
			winners[group] = cand
		}
	}

	artists := make([]records.ArtistRecord, 0, len(winners))
	for _, c := range winners {
		artists = append(artists, c.rec)
	}
	sort.Slice(artists, func(i, j int) bool {
		a, b := artists[i].ArtistID, artists[j].ArtistID
		if a == nil || b == nil {
			return a == nil && b != nil
		}
		return strings.Compare(*a, *b) < 0
	})
	return artists
}
