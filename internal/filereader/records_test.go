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

package filereader

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMetadataRecords(t *testing.T) {
	data := `{"num_songs": 1, "artist_id": "ARJIE2Y1187B994AB7", "artist_latitude": null, "artist_longitude": null, "artist_location": "", "artist_name": "Line Renaud", "song_id": "SOUPIRU12A6D4FA1E1", "title": "Der Kleine Dompfaff", "duration": 152.92036, "year": 0}`

	reader, err := NewJSONLinesReader(io.NopCloser(bytes.NewReader([]byte(data))), MetadataSchema)
	require.NoError(t, err)
	defer func() { _ = reader.Close() }()

	meta, err := ReadAll(reader, MetadataFromRow)
	require.NoError(t, err)
	require.Len(t, meta, 1)

	m := meta[0]
	require.NotNil(t, m.Title)
	assert.Equal(t, "Der Kleine Dompfaff", *m.Title)
	assert.Equal(t, "ARJIE2Y1187B994AB7", *m.ArtistID)
	assert.Equal(t, "Line Renaud", *m.ArtistName)
	assert.Equal(t, "", *m.ArtistLocation)
	assert.Nil(t, m.ArtistLatitude)
	assert.Nil(t, m.ArtistLongitude)
	assert.Equal(t, 152.92036, *m.Duration)
	assert.Equal(t, int32(0), *m.Year)
	assert.Equal(t, int32(1), *m.NumSongs)
}

func TestReadEventRecords(t *testing.T) {
	data := `{"artist":"Harmonia","auth":"Logged In","firstName":"Ryan","gender":"M","itemInSession":0,"lastName":"Smith","length":655.77751,"level":"free","location":"San Jose-Sunnyvale-Santa Clara, CA","method":"PUT","page":"NextSong","registration":1541016707796.0,"sessionId":583,"song":"Sehr kosmisch","status":200,"ts":1542241826796,"userAgent":"Mozilla/5.0","userId":"26"}
{"artist":null,"auth":"Logged Out","firstName":null,"gender":null,"itemInSession":0,"lastName":null,"length":null,"level":"free","location":null,"method":"PUT","page":"Login","registration":null,"sessionId":52,"song":null,"status":307,"ts":1541207073796,"userAgent":null,"userId":""}`

	reader, err := NewJSONLinesReader(io.NopCloser(bytes.NewReader([]byte(data))), EventSchema)
	require.NoError(t, err)
	defer func() { _ = reader.Close() }()

	events, err := ReadAll(reader, EventFromRow)
	require.NoError(t, err)
	require.Len(t, events, 2)

	e := events[0]
	assert.Equal(t, "NextSong", *e.Page)
	assert.Equal(t, "26", *e.UserID)
	assert.Equal(t, "Ryan", *e.FirstName)
	assert.Equal(t, "Sehr kosmisch", *e.Song)
	assert.Equal(t, "Harmonia", *e.Artist)
	assert.Equal(t, int64(583), *e.SessionID)
	assert.Equal(t, int64(1542241826796), *e.TS)

	anon := events[1]
	assert.Equal(t, "Login", *anon.Page)
	assert.Nil(t, anon.UserID)
	assert.Nil(t, anon.Song)
}

func TestEventFromRowFormatsNumericUserID(t *testing.T) {
	data := `{"page":"NextSong","userId":91,"ts":1}`
	reader, err := NewJSONLinesReader(io.NopCloser(bytes.NewReader([]byte(data))), EventSchema)
	require.NoError(t, err)
	defer func() { _ = reader.Close() }()

	events, err := ReadAll(reader, EventFromRow)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "91", *events[0].UserID)
}
