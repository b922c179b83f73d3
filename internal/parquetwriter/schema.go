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

	"github.com/parquet-go/parquet-go"

	"github.com/cardinalhq/playlake/internal/constants"
)

// WriterOptions are the parquet writer settings used for every table file.
func WriterOptions(tmpdir string, schema *parquet.Schema) []parquet.WriterOption {
	return []parquet.WriterOption{
		schema,
		parquet.Compression(&parquet.Zstd),
		parquet.PageBufferSize(32 * 1024),
		parquet.MaxRowsPerRowGroup(constants.MaxRowsPerRowGroup),
		parquet.ColumnPageBuffers(
			parquet.NewFileBufferPool(tmpdir, "buffers.*"),
		),
	}
}

// nodeForColumn returns the optional parquet node for a column.
// Strings and 32-bit ints are dictionary encoded.
func nodeForColumn(c Column) (parquet.Node, error) {
	dict := func(n parquet.Node) parquet.Node {
		return parquet.Encoded(n, &parquet.RLEDictionary)
	}

	switch c.Type {
	case ColumnString:
		return parquet.Optional(dict(parquet.String())), nil
	case ColumnInt32:
		return parquet.Optional(dict(parquet.Int(32))), nil
	case ColumnInt64:
		return parquet.Optional(parquet.Int(64)), nil
	case ColumnFloat64:
		return parquet.Optional(parquet.Leaf(parquet.DoubleType)), nil
	default:
		return nil, fmt.Errorf("column %q: unsupported type %s", c.Name, c.Type)
	}
}

// BuildSchema returns the parquet schema of the files of a table.
func BuildSchema(spec TableSpec) (*parquet.Schema, error) {
	nodes := make(parquet.Group)
	for _, c := range spec.DataColumns() {
		n, err := nodeForColumn(c)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", spec.Name, err)
		}
		nodes[c.Name] = n
	}
	return parquet.NewSchema(spec.Name, nodes), nil
}
