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

package eventlog

import (
	"sort"

	"github.com/cardinalhq/playlake/internal/helpers"
	"github.com/cardinalhq/playlake/internal/records"
)

type userSnapshot struct {
	rec   records.UserRecord
	ts    *int64
	attrs string
}

// newer reports whether s should replace o as the representative row.
// Latest ts wins, a null ts loses to any ts, and equal timestamps fall back
// to the larger attribute encoding.
func (s userSnapshot) newer(o userSnapshot) bool {
	switch {
	case s.ts != nil && o.ts == nil:
		return true
	case s.ts == nil && o.ts != nil:
		return false
	case s.ts != nil && *s.ts != *o.ts:
		return *s.ts > *o.ts
	}
	return s.attrs > o.attrs
}

// BuildUsers keeps one row per user id from the song-play events, taking the
// attributes from the user's most recent event. Events without a user id are
// discarded. The result is sorted by user id.
func BuildUsers(plays []records.EventRecord) []records.UserRecord {
	latest := make(map[string]userSnapshot)

	for _, e := range plays {
		if e.UserID == nil {
			continue
		}
		snap := userSnapshot{
			rec: records.UserRecord{
				UserID:    *e.UserID,
				FirstName: e.FirstName,
				LastName:  e.LastName,
				Gender:    e.Gender,
				Level:     e.Level,
			},
			ts: e.TS,
			attrs: helpers.NewTupleKey().
				String(e.FirstName).
				String(e.LastName).
				String(e.Gender).
				String(e.Level).
				Key(),
		}
		if cur, ok := latest[*e.UserID]; !ok || snap.newer(cur) {
			latest[*e.UserID] = snap
		}
	}

	users := make([]records.UserRecord, 0, len(latest))
	for _, s := range latest {
		users = append(users, s.rec)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].UserID < users[j].UserID })
	return users
}
