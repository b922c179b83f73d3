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
	"errors"
	"fmt"
	"io"
)

// MultiReader reads from multiple readers sequentially in the order provided.
// It reads all rows from the first reader, then all rows from the second reader, etc.
type MultiReader struct {
	readers      []Reader
	currentIndex int
	closed       bool
}

// NewMultiReader creates a new MultiReader that reads from the provided readers sequentially.
// Readers will be closed when the MultiReader is closed.
func NewMultiReader(readers []Reader) (*MultiReader, error) {
	for i, reader := range readers {
		if reader == nil {
			return nil, fmt.Errorf("reader at index %d is nil", i)
		}
	}
	return &MultiReader{readers: readers}, nil
}

// GetRow returns the next row from the current reader, advancing to the next reader
// when the current reader is exhausted.
func (mr *MultiReader) GetRow() (Row, error) {
	if mr.closed {
		return nil, errors.New("reader is closed")
	}

	for mr.currentIndex < len(mr.readers) {
		row, err := mr.readers[mr.currentIndex].GetRow()
		if err != nil {
			if errors.Is(err, io.EOF) {
				mr.currentIndex++
				continue
			}
			return nil, fmt.Errorf("error reading from reader %d: %w", mr.currentIndex, err)
		}
		return row, nil
	}

	return nil, io.EOF
}

// Close closes all underlying readers and releases resources.
func (mr *MultiReader) Close() error {
	if mr.closed {
		return nil
	}
	mr.closed = true

	var errs []error
	for i, reader := range mr.readers {
		if err := reader.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close reader %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// MalformedRows sums MalformedRows over the underlying readers that report it.
func (mr *MultiReader) MalformedRows() int64 {
	var n int64
	for _, r := range mr.readers {
		if c, ok := r.(interface{ MalformedRows() int64 }); ok {
			n += c.MalformedRows()
		}
	}
	return n
}

// SchemaMismatches sums SchemaMismatches over the underlying readers that report it.
func (mr *MultiReader) SchemaMismatches() int64 {
	var n int64
	for _, r := range mr.readers {
		if c, ok := r.(interface{ SchemaMismatches() int64 }); ok {
			n += c.SchemaMismatches()
		}
	}
	return n
}
