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
	"fmt"

	"go.opentelemetry.io/otel"
	otelmetric "go.opentelemetry.io/otel/metric"
)

var (
	matchedCounter   otelmetric.Int64Counter
	unmatchedCounter otelmetric.Int64Counter
)

func init() {
	meter := otel.Meter("github.com/cardinalhq/playlake/internal/songplays")

	var err error
	matchedCounter, err = meter.Int64Counter(
		"playlake.songplays.matched",
		otelmetric.WithDescription("Number of songplay rows resolved to a catalog song and artist"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create songplays.matched counter: %w", err))
	}

	unmatchedCounter, err = meter.Int64Counter(
		"playlake.songplays.unmatched",
		otelmetric.WithDescription("Number of songplay rows with no catalog match, written with null song and artist ids"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create songplays.unmatched counter: %w", err))
	}
}
