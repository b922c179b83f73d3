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

package filereader

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

type DataType int

const (
	DataTypeUnknown DataType = iota // Unknown/uninitialized type - should not be used
	DataTypeString
	DataTypeInt32
	DataTypeInt64
	DataTypeFloat64
	DataTypeBool
)

func (dt DataType) String() string {
	switch dt {
	case DataTypeString:
		return "string"
	case DataTypeInt32:
		return "int32"
	case DataTypeInt64:
		return "int64"
	case DataTypeFloat64:
		return "float64"
	case DataTypeBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Field declares one column of a Schema.
type Field struct {
	Name     string
	Type     DataType
	Nullable bool
}

// Schema is an ordered set of fields that raw records are read against.
type Schema struct {
	fields []Field
}

func NewSchema(fields ...Field) *Schema {
	return &Schema{fields: fields}
}

func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Coerce projects a raw decoded record onto the schema. Fields that are absent
// come back nil. Fields whose value cannot be converted to the declared type
// also come back nil and are counted in mismatches. Keys not in the schema
// are dropped.
func (s *Schema) Coerce(raw map[string]any) (row Row, mismatches int) {
	row = make(Row, len(s.fields))
	for _, f := range s.fields {
		v, ok := raw[f.Name]
		if !ok || v == nil {
			row[f.Name] = nil
			continue
		}
		cv, ok := convertValue(v, f.Type)
		if !ok {
			mismatches++
			row[f.Name] = nil
			continue
		}
		row[f.Name] = cv
	}
	return row, mismatches
}

// convertValue converts a JSON decoded value (decoded with UseNumber) to the
// Go type for dt.
func convertValue(v any, dt DataType) (any, bool) {
	switch dt {
	case DataTypeString:
		switch tv := v.(type) {
		case string:
			return tv, true
		case json.Number:
			return tv.String(), true
		case bool:
			return strconv.FormatBool(tv), true
		}
	case DataTypeInt32:
		n, ok := toInt64(v)
		if !ok || n < math.MinInt32 || n > math.MaxInt32 {
			return nil, false
		}
		return int32(n), true
	case DataTypeInt64:
		n, ok := toInt64(v)
		if !ok {
			return nil, false
		}
		return n, true
	case DataTypeFloat64:
		switch tv := v.(type) {
		case json.Number:
			f, err := tv.Float64()
			if err != nil {
				return nil, false
			}
			return f, true
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(tv), 64)
			if err != nil {
				return nil, false
			}
			return f, true
		}
	case DataTypeBool:
		if b, ok := v.(bool); ok {
			return b, true
		}
	}
	return nil, false
}

func toInt64(v any) (int64, bool) {
	var s string
	switch tv := v.(type) {
	case json.Number:
		s = tv.String()
	case string:
		s = strings.TrimSpace(tv)
	default:
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}
