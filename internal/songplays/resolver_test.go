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

package songplays

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/playlake/internal/catalog"
	"github.com/cardinalhq/playlake/internal/records"
	"github.com/cardinalhq/playlake/internal/timedim"
)

type counterIDs struct{ next int64 }

func (c *counterIDs) NextID() int64 {
	c.next++
	return c.next
}

func play(song, artist string, ts int64) records.EventRecord {
	return records.EventRecord{
		Page:      records.Ptr("NextSong"),
		UserID:    records.Ptr("26"),
		Level:     records.Ptr("free"),
		Song:      records.Ptr(song),
		Artist:    records.Ptr(artist),
		SessionID: records.Ptr(int64(583)),
		Location:  records.Ptr("San Jose-Sunnyvale-Santa Clara, CA"),
		UserAgent: records.Ptr("Mozilla/5.0"),
		TS:        records.Ptr(ts),
	}
}

func testCatalog(t *testing.T) catalog.Catalog {
	t.Helper()
	cat, err := catalog.Build([]records.MetadataRecord{
		{Title: records.Ptr("Sehr kosmisch"), ArtistID: records.Ptr("AR1"), ArtistName: records.Ptr("Harmonia"), Year: records.Ptr(int32(1974)), Duration: records.Ptr(655.77)},
		{Title: records.Ptr("Intro"), ArtistID: records.Ptr("AR2"), ArtistName: records.Ptr("The xx"), Year: records.Ptr(int32(2009)), Duration: records.Ptr(127.0)},
		{Title: records.Ptr("Intro"), ArtistID: records.Ptr("AR3"), ArtistName: records.Ptr("M83"), Year: records.Ptr(int32(2011)), Duration: records.Ptr(322.0)},
	})
	require.NoError(t, err)
	return cat
}

func TestResolveMatchesOnTitleAndArtistName(t *testing.T) {
	cat := testCatalog(t)
	plays := []records.EventRecord{
		play("Sehr kosmisch", "Harmonia", 1541106106796),
		play("Intro", "M83", 1541121934796),
		play("Intro", "Harmonia", 1541121934796),
		play("sehr kosmisch", "Harmonia", 1541106106796),
		play("Sehr kosmisch ", "Harmonia", 1541106106796),
	}
	times := timedim.NewIndex(timedim.Build(plays))

	rows, comp, err := NewResolver(cat, &counterIDs{}).Resolve(context.Background(), plays, times)
	require.NoError(t, err)
	require.Len(t, rows, 5)

	assert.Equal(t, catalog.SongID(records.Ptr("Sehr kosmisch"), records.Ptr("AR1"), records.Ptr(int32(1974)), records.Ptr(655.77)), *rows[0].SongID)
	assert.Equal(t, "AR1", *rows[0].ArtistID)
	assert.Equal(t, "AR3", *rows[1].ArtistID)

	// title matches but the artist does not, then case and whitespace differences
	for _, r := range rows[2:] {
		assert.Nil(t, r.SongID)
		assert.Nil(t, r.ArtistID)
	}

	assert.Equal(t, Completeness{Total: 5, Matched: 2}, comp)
	assert.Equal(t, int64(3), comp.Unmatched())
	assert.InDelta(t, 0.4, comp.Ratio(), 1e-9)

	r := rows[0]
	assert.Equal(t, int64(1), r.SongplayID)
	assert.Equal(t, int64(1541106106796), r.StartTime)
	assert.Equal(t, "26", *r.UserID)
	assert.Equal(t, "free", *r.Level)
	assert.Equal(t, int64(583), *r.SessionID)
	assert.Equal(t, int32(2018), r.Year)
	assert.Equal(t, int32(11), r.Month)
}

func TestResolveKeepsEveryEventWithEmptyCatalog(t *testing.T) {
	plays := []records.EventRecord{
		play("A", "X", 1000),
		play("B", "Y", 2000),
		play("C", "Z", 2000),
		{Page: records.Ptr("NextSong"), TS: records.Ptr(int64(3000))},
	}
	times := timedim.NewIndex(timedim.Build(plays))

	rows, comp, err := NewResolver(catalog.Catalog{}, &counterIDs{}).Resolve(context.Background(), plays, times)
	require.NoError(t, err)
	require.Len(t, rows, len(plays))
	for _, r := range rows {
		assert.Nil(t, r.SongID)
		assert.Nil(t, r.ArtistID)
	}
	assert.Equal(t, int64(0), comp.Matched)
	assert.Equal(t, 0.0, comp.Ratio())
}

func TestResolveMissingTimeRowIsIntegrityError(t *testing.T) {
	plays := []records.EventRecord{play("A", "X", 1000), play("B", "Y", 2000)}
	times := timedim.NewIndex(timedim.Build(plays[:1]))

	_, _, err := NewResolver(catalog.Catalog{}, &counterIDs{}).Resolve(context.Background(), plays, times)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingTimeDimension)

	var ie *IntegrityError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, 1, ie.EventIndex)
	assert.Equal(t, int64(2000), *ie.TS)
}

func TestResolveNullTimestampIsIntegrityError(t *testing.T) {
	plays := []records.EventRecord{{Page: records.Ptr("NextSong")}}
	_, _, err := NewResolver(catalog.Catalog{}, &counterIDs{}).Resolve(context.Background(), plays, timedim.Index{})
	assert.ErrorIs(t, err, ErrMissingTimeDimension)
	assert.Contains(t, err.Error(), "null ts")
}

func TestResolveIsInsensitiveToCatalogOrder(t *testing.T) {
	meta := []records.MetadataRecord{
		{Title: records.Ptr("Home"), ArtistID: records.Ptr("AR1"), ArtistName: records.Ptr("Dup"), Year: records.Ptr(int32(2001)), Duration: records.Ptr(200.0)},
		{Title: records.Ptr("Home"), ArtistID: records.Ptr("AR1"), ArtistName: records.Ptr("Dup"), Year: records.Ptr(int32(2004)), Duration: records.Ptr(201.0)},
		{Title: records.Ptr("Home"), ArtistID: records.Ptr("AR2"), ArtistName: records.Ptr("Dup"), Year: records.Ptr(int32(1999)), Duration: records.Ptr(180.0)},
		{Title: records.Ptr("Away"), ArtistID: records.Ptr("AR2"), ArtistName: records.Ptr("Dup"), Year: records.Ptr(int32(1999)), Duration: records.Ptr(181.0)},
	}
	plays := []records.EventRecord{play("Home", "Dup", 1), play("Away", "Dup", 2), play("Gone", "Dup", 3)}
	times := timedim.NewIndex(timedim.Build(plays))

	resolve := func(m []records.MetadataRecord) []records.SongPlay {
		cat, err := catalog.Build(m)
		require.NoError(t, err)
		rows, _, err := NewResolver(cat, &counterIDs{}).Resolve(context.Background(), plays, times)
		require.NoError(t, err)
		return rows
	}

	want := resolve(meta)
	require.NotNil(t, want[0].SongID)
	require.NotNil(t, want[1].SongID)
	require.Nil(t, want[2].SongID)

	rng := rand.New(rand.NewPCG(5, 6))
	for range 20 {
		shuffled := append([]records.MetadataRecord(nil), meta...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assert.Equal(t, want, resolve(shuffled))
	}
}

func TestResolveHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	plays := []records.EventRecord{play("A", "X", 1)}
	_, _, err := NewResolver(catalog.Catalog{}, &counterIDs{}).Resolve(ctx, plays, timedim.NewIndex(timedim.Build(plays)))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompletenessRatioOfEmptyTable(t *testing.T) {
	assert.Equal(t, 1.0, Completeness{}.Ratio())
}
