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

package catalog

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/playlake/internal/records"
)

func meta(title, artistID, artistName string, year int32, duration float64) records.MetadataRecord {
	return records.MetadataRecord{
		Title:      records.Ptr(title),
		ArtistID:   records.Ptr(artistID),
		ArtistName: records.Ptr(artistName),
		Year:       records.Ptr(year),
		Duration:   records.Ptr(duration),
		NumSongs:   records.Ptr(int32(1)),
	}
}

func sampleMetadata() []records.MetadataRecord {
	return []records.MetadataRecord{
		meta("Sehr kosmisch", "AR1", "Harmonia", 1974, 655.77),
		meta("Sehr kosmisch", "AR1", "Harmonia", 1974, 655.77),
		meta("Deluxe", "AR1", "Harmonia", 1975, 312.1),
		meta("Sehr kosmisch", "AR1", "Harmonia", 0, 655.77),
		meta("Intro", "AR2", "Someone", 2003, 90),
		meta("Intro", "AR3", "Someone Else", 2003, 90),
		{Title: nil, ArtistID: records.Ptr("AR4"), ArtistName: records.Ptr("Nameless")},
		{Title: records.Ptr("Orphan"), ArtistID: nil},
	}
}

type songTuple struct {
	title, artist string
	year          int32
	duration      float64
}

func tuples(songs []records.SongRecord) map[songTuple]string {
	out := make(map[songTuple]string)
	for _, s := range songs {
		var tu songTuple
		if s.Title != nil {
			tu.title = *s.Title
		}
		if s.ArtistID != nil {
			tu.artist = *s.ArtistID
		}
		if s.Year != nil {
			tu.year = *s.Year
		}
		if s.Duration != nil {
			tu.duration = *s.Duration
		}
		out[tu] = s.SongID
	}
	return out
}

func TestBuildSongsDeduplicates(t *testing.T) {
	songs, err := BuildSongs(sampleMetadata())
	require.NoError(t, err)

	// 8 records, one exact duplicate
	assert.Len(t, songs, 7)

	ids := make(map[string]bool)
	for _, s := range songs {
		assert.False(t, ids[s.SongID], "duplicate song id %s", s.SongID)
		ids[s.SongID] = true
	}
}

func TestBuildSongsIsOrderIndependent(t *testing.T) {
	in := sampleMetadata()
	first, err := BuildSongs(in)
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(1, 2))
	for range 10 {
		shuffled := append([]records.MetadataRecord(nil), in...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		again, err := BuildSongs(shuffled)
		require.NoError(t, err)
		assert.Equal(t, first, again)
		assert.Equal(t, tuples(first), tuples(again))
	}
}

func TestSongIDIsStable(t *testing.T) {
	songs, err := BuildSongs([]records.MetadataRecord{meta("Deluxe", "AR1", "Harmonia", 1975, 312.1)})
	require.NoError(t, err)
	require.Len(t, songs, 1)

	want := SongID(records.Ptr("Deluxe"), records.Ptr("AR1"), records.Ptr(int32(1975)), records.Ptr(312.1))
	assert.Equal(t, want, songs[0].SongID)
	assert.Len(t, want, 16)
}

func TestBuildSongsKeepsNullTitleAndArtist(t *testing.T) {
	songs, err := BuildSongs(sampleMetadata())
	require.NoError(t, err)

	var nullTitle, nullArtist int
	for _, s := range songs {
		if s.Title == nil {
			nullTitle++
		}
		if s.ArtistID == nil {
			nullArtist++
		}
	}
	assert.Equal(t, 1, nullTitle)
	assert.Equal(t, 1, nullArtist)
}

func TestBuildArtistsUniquePerID(t *testing.T) {
	artists := BuildArtists(sampleMetadata())

	seen := make(map[string]int)
	nullIDs := 0
	for _, a := range artists {
		if a.ArtistID == nil {
			nullIDs++
			continue
		}
		seen[*a.ArtistID]++
	}
	assert.Equal(t, 1, nullIDs)
	assert.Equal(t, map[string]int{"AR1": 1, "AR2": 1, "AR3": 1, "AR4": 1}, seen)

	// null id sorts first, the rest ascending
	require.Len(t, artists, 5)
	assert.Nil(t, artists[0].ArtistID)
	assert.Equal(t, "AR1", *artists[1].ArtistID)
	assert.Equal(t, "AR4", *artists[4].ArtistID)
}

func TestBuildArtistsConflictTieBreakIsOrderIndependent(t *testing.T) {
	a := records.MetadataRecord{ArtistID: records.Ptr("AR9"), ArtistName: records.Ptr("The Band"), ArtistLocation: records.Ptr("Leeds")}
	b := records.MetadataRecord{ArtistID: records.Ptr("AR9"), ArtistName: records.Ptr("The Band"), ArtistLocation: records.Ptr("London")}
	c := records.MetadataRecord{ArtistID: records.Ptr("AR9"), ArtistName: records.Ptr("Band, The")}

	want := BuildArtists([]records.MetadataRecord{a, b, c})
	require.Len(t, want, 1)

	for _, order := range [][]records.MetadataRecord{{b, a, c}, {c, b, a}, {a, c, b}} {
		assert.Equal(t, want, BuildArtists(order))
	}
}

func TestBuildCatalog(t *testing.T) {
	cat, err := Build(sampleMetadata())
	require.NoError(t, err)
	assert.Len(t, cat.Songs, 7)
	assert.Len(t, cat.Artists, 5)
}

func TestBuildEmpty(t *testing.T) {
	cat, err := Build(nil)
	require.NoError(t, err)
	assert.Empty(t, cat.Songs)
	assert.Empty(t, cat.Artists)
}
