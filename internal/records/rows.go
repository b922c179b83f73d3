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

package records

// Row is a column-name keyed view of a record, as handed to the table writer.
// A nil value is a null column.
type Row = map[string]any

func optional[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func (s SongRecord) Row() Row {
	return Row{
		"song_id":   s.SongID,
		"title":     optional(s.Title),
		"artist_id": optional(s.ArtistID),
		"year":      optional(s.Year),
		"duration":  optional(s.Duration),
	}
}

func (a ArtistRecord) Row() Row {
	return Row{
		"artist_id": optional(a.ArtistID),
		"name":      optional(a.Name),
		"location":  optional(a.Location),
		"latitude":  optional(a.Latitude),
		"longitude": optional(a.Longitude),
	}
}

func (u UserRecord) Row() Row {
	return Row{
		"user_id":    u.UserID,
		"first_name": optional(u.FirstName),
		"last_name":  optional(u.LastName),
		"gender":     optional(u.Gender),
		"level":      optional(u.Level),
	}
}

func (t TimeRecord) Row() Row {
	return Row{
		"start_time": t.StartTime,
		"hour":       t.Hour,
		"day":        t.Day,
		"week":       t.Week,
		"month":      t.Month,
		"year":       t.Year,
		"weekday":    t.Weekday,
	}
}

func (p SongPlay) Row() Row {
	return Row{
		"songplay_id": p.SongplayID,
		"start_time":  p.StartTime,
		"user_id":     optional(p.UserID),
		"level":       optional(p.Level),
		"song_id":     optional(p.SongID),
		"artist_id":   optional(p.ArtistID),
		"session_id":  optional(p.SessionID),
		"location":    optional(p.Location),
		"user_agent":  optional(p.UserAgent),
		"year":        p.Year,
		"month":       p.Month,
	}
}

// Rows converts a slice of records into their row form.
func Rows[T interface{ Row() Row }](in []T) []Row {
	out := make([]Row, len(in))
	for i, r := range in {
		out[i] = r.Row()
	}
	return out
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
