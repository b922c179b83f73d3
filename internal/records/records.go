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

// Package records defines the raw and derived row types of the song-play
// star schema.
package records

// MetadataRecord is one song's catalog entry as read from the song data.
// Every field is nullable because ingest is permissive.
type MetadataRecord struct {
	Title           *string
	ArtistID        *string
	ArtistName      *string
	ArtistLocation  *string
	ArtistLatitude  *float64
	ArtistLongitude *float64
	Duration        *float64
	Year            *int32
	NumSongs        *int32
}

// EventRecord is one raw listening-log line.
type EventRecord struct {
	Page      *string
	UserID    *string
	FirstName *string
	LastName  *string
	Gender    *string
	Level     *string
	Song      *string
	Artist    *string
	SessionID *int64
	Location  *string
	UserAgent *string
	TS        *int64
}

// SongRecord is a row of the songs dimension.
type SongRecord struct {
	SongID   string
	Title    *string
	ArtistID *string
	Year     *int32
	Duration *float64
}

// ArtistRecord is a row of the artists dimension.
type ArtistRecord struct {
	ArtistID  *string
	Name      *string
	Location  *string
	Latitude  *float64
	Longitude *float64
}

// UserRecord is a row of the users dimension.
type UserRecord struct {
	UserID    string
	FirstName *string
	LastName  *string
	Gender    *string
	Level     *string
}

// TimeRecord is a row of the time dimension. StartTime is epoch milliseconds.
type TimeRecord struct {
	StartTime int64
	Hour      int32
	Day       int32
	Week      int32
	Month     int32
	Year      int32
	Weekday   string
}

// SongPlay is a row of the songplays fact table. SongID and ArtistID are nil
// when the event could not be matched against the catalog.
type SongPlay struct {
	SongplayID int64
	StartTime  int64
	UserID     *string
	Level      *string
	SongID     *string
	ArtistID   *string
	SessionID  *int64
	Location   *string
	UserAgent  *string
	Year       int32
	Month      int32
}
