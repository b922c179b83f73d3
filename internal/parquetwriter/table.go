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

// Package parquetwriter persists tables as Hive-partitioned Parquet.
package parquetwriter

import (
	"fmt"
	"slices"
)

type ColumnType int

const (
	ColumnString ColumnType = iota + 1
	ColumnInt32
	ColumnInt64
	ColumnFloat64
)

func (ct ColumnType) String() string {
	switch ct {
	case ColumnString:
		return "string"
	case ColumnInt32:
		return "int32"
	case ColumnInt64:
		return "int64"
	case ColumnFloat64:
		return "float64"
	default:
		return "unknown"
	}
}

// accepts reports whether v is the Go type a column of this type holds.
func (ct ColumnType) accepts(v any) bool {
	switch v.(type) {
	case string:
		return ct == ColumnString
	case int32:
		return ct == ColumnInt32
	case int64:
		return ct == ColumnInt64
	case float64:
		return ct == ColumnFloat64
	}
	return false
}

// Column is one column of a table. Every column is nullable.
type Column struct {
	Name string
	Type ColumnType
}

// TableSpec describes a table and how it is laid out in storage.
type TableSpec struct {
	Name        string
	Columns     []Column
	PartitionBy []string
}

// Validate checks that column names are unique and that every partition key
// names a column.
func (s TableSpec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("table name is required")
	}
	if len(s.Columns) == 0 {
		return fmt.Errorf("table %s has no columns", s.Name)
	}
	seen := make(map[string]bool, len(s.Columns))
	for _, c := range s.Columns {
		if seen[c.Name] {
			return fmt.Errorf("table %s: duplicate column %q", s.Name, c.Name)
		}
		seen[c.Name] = true
	}
	for _, p := range s.PartitionBy {
		if !seen[p] {
			return fmt.Errorf("table %s: partition column %q is not a column", s.Name, p)
		}
	}
	if len(s.PartitionBy) == len(s.Columns) {
		return fmt.Errorf("table %s: every column is a partition column", s.Name)
	}
	return nil
}

// DataColumns returns the columns stored inside the files, which excludes
// the partition columns encoded in the path.
func (s TableSpec) DataColumns() []Column {
	out := make([]Column, 0, len(s.Columns))
	for _, c := range s.Columns {
		if !slices.Contains(s.PartitionBy, c.Name) {
			out = append(out, c)
		}
	}
	return out
}

func (s TableSpec) column(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}
