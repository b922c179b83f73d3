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
	"errors"
	"fmt"
	"io"

	"github.com/cardinalhq/playlake/internal/records"
)

// MetadataSchema is the declared schema of the song metadata source.
var MetadataSchema = NewSchema(
	Field{Name: "artist_id", Type: DataTypeString, Nullable: true},
	Field{Name: "artist_latitude", Type: DataTypeFloat64, Nullable: true},
	Field{Name: "artist_location", Type: DataTypeString, Nullable: true},
	Field{Name: "artist_longitude", Type: DataTypeFloat64, Nullable: true},
	Field{Name: "artist_name", Type: DataTypeString, Nullable: true},
	Field{Name: "duration", Type: DataTypeFloat64, Nullable: true},
	Field{Name: "num_songs", Type: DataTypeInt32, Nullable: true},
	Field{Name: "title", Type: DataTypeString, Nullable: true},
	Field{Name: "year", Type: DataTypeInt32, Nullable: true},
)

// EventSchema is the declared schema of the listening event log source.
var EventSchema = NewSchema(
	Field{Name: "artist", Type: DataTypeString, Nullable: true},
	Field{Name: "firstName", Type: DataTypeString, Nullable: true},
	Field{Name: "gender", Type: DataTypeString, Nullable: true},
	Field{Name: "lastName", Type: DataTypeString, Nullable: true},
	Field{Name: "level", Type: DataTypeString, Nullable: true},
	Field{Name: "location", Type: DataTypeString, Nullable: true},
	Field{Name: "page", Type: DataTypeString, Nullable: true},
	Field{Name: "sessionId", Type: DataTypeInt64, Nullable: true},
	Field{Name: "song", Type: DataTypeString, Nullable: true},
	Field{Name: "ts", Type: DataTypeInt64, Nullable: true},
	Field{Name: "userAgent", Type: DataTypeString, Nullable: true},
	Field{Name: "userId", Type: DataTypeString, Nullable: true},
)

func field[T any](row Row, name string) *T {
	v, ok := row[name].(T)
	if !ok {
		return nil
	}
	return &v
}

// MetadataFromRow maps a row read against MetadataSchema to a MetadataRecord.
func MetadataFromRow(row Row) records.MetadataRecord {
	return records.MetadataRecord{
		Title:           field[string](row, "title"),
		ArtistID:        field[string](row, "artist_id"),
		ArtistName:      field[string](row, "artist_name"),
		ArtistLocation:  field[string](row, "artist_location"),
		ArtistLatitude:  field[float64](row, "artist_latitude"),
		ArtistLongitude: field[float64](row, "artist_longitude"),
		Duration:        field[float64](row, "duration"),
		Year:            field[int32](row, "year"),
		NumSongs:        field[int32](row, "num_songs"),
	}
}

// EventFromRow maps a row read against EventSchema to an EventRecord.
// An empty userId marks an anonymous visitor and becomes null.
func EventFromRow(row Row) records.EventRecord {
	userID := field[string](row, "userId")
	if userID != nil && *userID == "" {
		userID = nil
	}
	return records.EventRecord{
		Page:      field[string](row, "page"),
		UserID:    userID,
		FirstName: field[string](row, "firstName"),
		LastName:  field[string](row, "lastName"),
		Gender:    field[string](row, "gender"),
		Level:     field[string](row, "level"),
		Song:      field[string](row, "song"),
		Artist:    field[string](row, "artist"),
		SessionID: field[int64](row, "sessionId"),
		Location:  field[string](row, "location"),
		UserAgent: field[string](row, "userAgent"),
		TS:        field[int64](row, "ts"),
	}
}

// ReadAll drains reader, converting every row with conv.
func ReadAll[T any](reader Reader, conv func(Row) T) ([]T, error) {
	var out []T
	for {
		row, err := reader.GetRow()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("read row %d: %w", len(out), err)
		}
		out = append(out, conv(row))
	}
}
