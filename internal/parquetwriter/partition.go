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
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/cardinalhq/playlake/internal/constants"
)

// partition holds the rows that share one combination of partition values.
type partition struct {
	// dir is the Hive-style relative directory, empty when unpartitioned.
	dir  string
	rows []map[string]any
}

// fileKey is the object key of the partition's data file, relative to the
// output root.
func (p *partition) fileKey(table string) string {
	return path.Join(table, p.dir, "part-00000.parquet")
}

// checkRow verifies that every value in row belongs to a declared column and
// has that column's type.
func checkRow(spec TableSpec, row map[string]any) error {
	for k, v := range row {
		c, ok := spec.column(k)
		if !ok {
			return fmt.Errorf("%w: unknown column %q", ErrSchemaViolation, k)
		}
		if v == nil {
			continue
		}
		if !c.Type.accepts(v) {
			return fmt.Errorf("%w: column %q wants %s, got %T", ErrSchemaViolation, k, c.Type, v)
		}
	}
	return nil
}

// splitPartitions groups rows by their partition values. Only combinations
// present in rows produce a partition. The result is sorted by directory.
// Partition columns and nil values are removed from the returned rows.
func splitPartitions(spec TableSpec, rows []map[string]any) ([]*partition, error) {
	byDir := map[string]*partition{}
	for i, row := range rows {
		if err := checkRow(spec, row); err != nil {
			return nil, fmt.Errorf("table %s row %d: %w", spec.Name, i, err)
		}
		dir := partitionDir(spec.PartitionBy, row)
		p, ok := byDir[dir]
		if !ok {
			p = &partition{dir: dir}
			byDir[dir] = p
		}
		p.rows = append(p.rows, dataRow(spec.PartitionBy, row))
	}

	parts := make([]*partition, 0, len(byDir))
	for _, p := range byDir {
		parts = append(parts, p)
	}
	slices.SortFunc(parts, func(a, b *partition) int {
		return strings.Compare(a.dir, b.dir)
	})
	return parts, nil
}

func dataRow(partitionBy []string, row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for k, v := range row {
		if v == nil || slices.Contains(partitionBy, k) {
			continue
		}
		out[k] = v
	}
	return out
}

func partitionDir(partitionBy []string, row map[string]any) string {
	if len(partitionBy) == 0 {
		return ""
	}
	segs := make([]string, len(partitionBy))
	for i, k := range partitionBy {
		segs[i] = escapePathName(k) + "=" + partitionValue(row[k])
	}
	return strings.Join(segs, "/")
}

// partitionValue renders a partition value for a directory name.
func partitionValue(v any) string {
	var s string
	switch t := v.(type) {
	case nil:
		return constants.DefaultPartitionValue
	case string:
		s = t
	case int32:
		s = strconv.FormatInt(int64(t), 10)
	case int64:
		s = strconv.FormatInt(t, 10)
	case float64:
		s = strconv.FormatFloat(t, 'g', -1, 64)
	default:
		s = fmt.Sprint(t)
	}
	if s == "" {
		return constants.DefaultPartitionValue
	}
	return escapePathName(s)
}

// escapePathName percent-encodes the characters Hive escapes in partition
// directory names.
func escapePathName(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if needsEscape(c) {
			fmt.Fprintf(&b, "%%%02X", c)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func needsEscape(c byte) bool {
	if c < 0x20 || c == 0x7f {
		return true
	}
	switch c {
	case '"', '#', '%', '\'', '*', '/', ':', '=', '?', '\\', '{', '[', ']', '^':
		return true
	}
	return false
}
