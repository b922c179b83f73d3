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
	"github.com/cardinalhq/playlake/internal/parquetwriter"
)

var SongsTable = parquetwriter.TableSpec{
	Name: "songs",
	Columns: []parquetwriter.Column{
		{Name: "song_id", Type: parquetwriter.ColumnString},
		{Name: "title", Type: parquetwriter.ColumnString},
		{Name: "artist_id", Type: parquetwriter.ColumnString},
		{Name: "year", Type: parquetwriter.ColumnInt32},
		{Name: "duration", Type: parquetwriter.ColumnFloat64},
	},
	PartitionBy: []string{"year", "artist_id"},
}

var ArtistsTable = parquetwriter.TableSpec{
	Name: "artists",
	Columns: []parquetwriter.Column{
		{Name: "artist_id", Type: parquetwriter.ColumnString},
		{Name: "name", Type: parquetwriter.ColumnString},
		{Name: "location", Type: parquetwriter.ColumnString},
		{Name: "latitude", Type: parquetwriter.ColumnFloat64},
		{Name: "longitude", Type: parquetwriter.ColumnFloat64},
	},
}

var UsersTable = parquetwriter.TableSpec{
	Name: "users",
	Columns: []parquetwriter.Column{
		{Name: "user_id", Type: parquetwriter.ColumnString},
		{Name: "first_name", Type: parquetwriter.ColumnString},
		{Name: "last_name", Type: parquetwriter.ColumnString},
		{Name: "gender", Type: parquetwriter.ColumnString},
		{Name: "level", Type: parquetwriter.ColumnString},
	},
}

var TimeTable = parquetwriter.TableSpec{
	Name: "time",
	Columns: []parquetwriter.Column{
		{Name: "start_time", Type: parquetwriter.ColumnInt64},
		{Name: "hour", Type: parquetwriter.ColumnInt32},
		{Name: "day", Type: parquetwriter.ColumnInt32},
		{Name: "week", Type: parquetwriter.ColumnInt32},
		{Name: "month", Type: parquetwriter.ColumnInt32},
		{Name: "year", Type: parquetwriter.ColumnInt32},
		{Name: "weekday", Type: parquetwriter.ColumnString},
	},
	PartitionBy: []string{"year", "month"},
}

var SongplaysTable = parquetwriter.TableSpec{
	Name: "songplays",
	Columns: []parquetwriter.Column{
		{Name: "songplay_id", Type: parquetwriter.ColumnInt64},
		{Name: "start_time", Type: parquetwriter.ColumnInt64},
		{Name: "user_id", Type: parquetwriter.ColumnString},
		{Name: "level", Type: parquetwriter.ColumnString},
		{Name: "song_id", Type: parquetwriter.ColumnString},
		{Name: "artist_id", Type: parquetwriter.ColumnString},
		{Name: "session_id", Type: parquetwriter.ColumnInt64},
		{Name: "location", Type: parquetwriter.ColumnString},
		{Name: "user_agent", Type: parquetwriter.ColumnString},
		{Name: "year", Type: parquetwriter.ColumnInt32},
		{Name: "month", Type: parquetwriter.ColumnInt32},
	},
	PartitionBy: []string{"year", "month"},
}

// Tables lists every table the job writes, in write order.
func Tables() []parquetwriter.TableSpec {
	return []parquetwriter.TableSpec{SongsTable, ArtistsTable, UsersTable, TimeTable, SongplaysTable}
}
