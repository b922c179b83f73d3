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

package constants

const (
	MaxLineSizeBytes   = 1024 * 1024 // longer input lines are skipped as malformed
	MaxRowsPerRowGroup = 80_000

	// SuccessMarker is written last into a table's prefix; a table without it
	// is an incomplete write.
	SuccessMarker = "_SUCCESS"

	// DefaultPartitionValue stands in for a null partition column value.
	DefaultPartitionValue = "__HIVE_DEFAULT_PARTITION__"

	ParquetContentType = "application/vnd.apache.parquet"
)
