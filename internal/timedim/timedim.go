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

// Package timedim derives the calendar (time) dimension from event timestamps.
// All calendar fields are computed in UTC.
package timedim

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/cardinalhq/playlake/internal/helpers"
	"github.com/cardinalhq/playlake/internal/records"
)

// Decompose splits an epoch-millisecond timestamp into its UTC calendar fields.
// Week is the ISO-8601 week number and Weekday the three letter abbreviation.
func Decompose(ms int64) records.TimeRecord {
	t := helpers.UnixMillisToTime(ms)
	_, week := t.ISOWeek()
	return records.TimeRecord{
		StartTime: ms,
		Hour:      int32(t.Hour()),
		Day:       int32(t.Day()),
		Week:      int32(week),
		Month:     int32(t.Month()),
		Year:      int32(t.Year()),
		Weekday:   t.Format("Mon"),
	}
}

// DistinctTimestamps returns the set of non-null timestamps among events.
func DistinctTimestamps(events []records.EventRecord) mapset.Set[int64] {
	set := mapset.NewThreadUnsafeSetWithSize[int64](len(events))
	for _, e := range events {
		if e.TS != nil {
			set.Add(*e.TS)
		}
	}
	return set
}

// Build returns one TimeRecord per distinct event timestamp, sorted by start time.
func Build(events []records.EventRecord) []records.TimeRecord {
	stamps := DistinctTimestamps(events).ToSlice()
	sort.Slice(stamps, func(i, j int) bool { return stamps[i] < stamps[j] })

	out := make([]records.TimeRecord, len(stamps))
	for i, ms := range stamps {
		out[i] = Decompose(ms)
	}
	return out
}

// Index maps start time to its TimeRecord.
type Index map[int64]records.TimeRecord

func NewIndex(rows []records.TimeRecord) Index {
	idx := make(Index, len(rows))
	for _, r := range rows {
		idx[r.StartTime] = r
	}
	return idx
}
