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

package parquetwriter

import (
	"fmt"

	"go.opentelemetry.io/otel"
	otelmetric "go.opentelemetry.io/otel/metric"
)

var (
	tracer = otel.Tracer("github.com/cardinalhq/playlake/internal/parquetwriter")

	rowsWrittenCounter  otelmetric.Int64Counter
	filesWrittenCounter otelmetric.Int64Counter
)

func init() {
	meter := otel.Meter("github.com/cardinalhq/playlake/internal/parquetwriter")

	var err error
	rowsWrittenCounter, err = meter.Int64Counter(
		"playlake.writer.rows.written",
		otelmetric.WithDescription("Number of rows written to parquet table files"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create rows.written counter: %w", err))
	}

	filesWrittenCounter, err = meter.Int64Counter(
		"playlake.writer.files.written",
		otelmetric.WithDescription("Number of parquet files uploaded to the table sink"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create files.written counter: %w", err))
	}
}
