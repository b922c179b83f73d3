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

// Package eventlog narrows the raw listening log to song plays and derives
// the users dimension from them.
package eventlog

import "github.com/cardinalhq/playlake/internal/records"

// NextSongPage is the page value of a "track played" event.
const NextSongPage = "NextSong"

// IsSongPlay reports whether an event is a track play.
func IsSongPlay(e records.EventRecord) bool {
	return e.Page != nil && *e.Page == NextSongPage
}

// FilterSongPlays keeps only track-play events, preserving their order.
func FilterSongPlays(events []records.EventRecord) []records.EventRecord {
	out := make([]records.EventRecord, 0, len(events))
	for _, e := range events {
		if IsSongPlay(e) {
			out = append(out, e)
		}
	}
	return out
}

// DropUntimed removes plays without a timestamp, preserving order, and
// returns how many were removed. A play whose ts failed to parse arrives
// here with a null ts and cannot be placed in the time dimension.
func DropUntimed(plays []records.EventRecord) ([]records.EventRecord, int) {
	out := make([]records.EventRecord, 0, len(plays))
	for _, e := range plays {
		if e.TS != nil {
			out = append(out, e)
		}
	}
	return out, len(plays) - len(out)
}
