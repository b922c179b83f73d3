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
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"

	"github.com/cardinalhq/playlake/internal/constants"
)

// JSONLinesReader reads one JSON object per line and coerces each onto a Schema.
// Lines that do not parse as a JSON object, or that are longer than
// maxLineSize, are skipped and counted rather than failing the read.
type JSONLinesReader struct {
	br          *bufio.Reader
	line        []byte
	maxLineSize int
	schema      *Schema
	closer   io.Closer
	rowIndex int
	closed   bool

	totalRows   int64
	malformed   int64
	mismatches  int64
	metricAttrs otelmetric.MeasurementOption
}

// NewJSONLinesReader creates a new JSONLinesReader for the given io.ReadCloser.
// The reader takes ownership of the closer and will close it when Close is called.
func NewJSONLinesReader(reader io.ReadCloser, schema *Schema) (*JSONLinesReader, error) {
	if schema == nil {
		return nil, fmt.Errorf("schema is required")
	}
	return &JSONLinesReader{
		br:          bufio.NewReaderSize(reader, 64*1024),
		maxLineSize: constants.MaxLineSizeBytes,
		schema:      schema,
		closer:      reader,
		metricAttrs: otelmetric.WithAttributes(attribute.String("reader", "JSONLinesReader")),
	}, nil
}

func (r *JSONLinesReader) GetRow() (Row, error) {
	if r.closed {
		return nil, io.EOF
	}

	for {
		line, oversized, err := r.readLine()
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("read error at line %d: %w", r.rowIndex+1, err)
		}
		r.rowIndex++

		if oversized {
			rowsInCounter.Add(context.Background(), 1, r.metricAttrs)
			r.malformed++
			malformedRowsCounter.Add(context.Background(), 1, r.metricAttrs)
			continue
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		rowsInCounter.Add(context.Background(), 1, r.metricAttrs)

		raw, err := decodeObject(line)
		if err != nil {
			r.malformed++
			malformedRowsCounter.Add(context.Background(), 1, r.metricAttrs)
			continue
		}

		row, mismatches := r.schema.Coerce(raw)
		if mismatches > 0 {
			r.mismatches += int64(mismatches)
			typeConversionFailedCounter.Add(context.Background(), int64(mismatches), r.metricAttrs)
		}
		r.totalRows++
		return row, nil
	}
}

// readLine returns the next line without its terminator. A line longer than
// maxLineSize is consumed up to its newline and reported as oversized with
// no content. io.EOF is returned only when no bytes remain.
func (r *JSONLinesReader) readLine() ([]byte, bool, error) {
	r.line = r.line[:0]
	oversized := false
	for {
		chunk, err := r.br.ReadSlice('\n')
		if !oversized {
			if len(r.line)+len(chunk) > r.maxLineSize+1 {
				oversized = true
				r.line = r.line[:0]
			} else {
				r.line = append(r.line, chunk...)
			}
		}

		switch {
		case err == nil:
			return bytes.TrimSuffix(r.line, []byte{'\n'}), oversized, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if len(r.line) == 0 && !oversized && len(chunk) == 0 {
				return nil, false, io.EOF
			}
			return r.line, oversized, nil
		default:
			return nil, false, err
		}
	}
}

// decodeObject parses a single JSON object, keeping numbers as json.Number so
// integer columns survive without float rounding.
func decodeObject(line []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf("not a JSON object")
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after JSON object")
	}
	return obj, nil
}

// Close closes the reader and the underlying io.ReadCloser.
func (r *JSONLinesReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	var err error
	if r.closer != nil {
		err = r.closer.Close()
		r.closer = nil
	}
	r.br = nil
	return err
}

// TotalRowsReturned returns the number of rows successfully returned via GetRow().
func (r *JSONLinesReader) TotalRowsReturned() int64 {
	return r.totalRows
}

// MalformedRows returns the number of lines skipped because they did not parse.
func (r *JSONLinesReader) MalformedRows() int64 {
	return r.malformed
}

// SchemaMismatches returns the number of fields nulled because of a type mismatch.
func (r *JSONLinesReader) SchemaMismatches() int64 {
	return r.mismatches
}
