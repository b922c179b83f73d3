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
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"
)

type multiReadCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiReadCloser) Close() error {
	var firstErr error
	for _, c := range m.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// IsRecordFile reports whether an object name looks like a JSON record file.
func IsRecordFile(name string) bool {
	name = strings.TrimSuffix(name, ".gz")
	return strings.HasSuffix(name, ".json") || strings.HasSuffix(name, ".jsonl")
}

// ReaderForFile opens a JSON lines file, transparently gunzipping files
// ending in .gz, and reads it against schema.
func ReaderForFile(filename string, schema *Schema) (Reader, error) {
	if !IsRecordFile(filename) {
		return nil, fmt.Errorf("unsupported file type: %s", filename)
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", filename, err)
	}

	var rc io.ReadCloser = file
	if strings.HasSuffix(filename, ".gz") {
		gz, err := gzip.NewReader(file)
		if err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("failed to create gzip reader for %s: %w", filename, err)
		}
		rc = &multiReadCloser{Reader: gz, closers: []io.Closer{gz, file}}
	}

	reader, err := NewJSONLinesReader(rc, schema)
	if err != nil {
		_ = rc.Close()
		return nil, err
	}
	return reader, nil
}

// ReaderForFiles opens every file and concatenates them into one reader.
func ReaderForFiles(filenames []string, schema *Schema) (*MultiReader, error) {
	readers := make([]Reader, 0, len(filenames))
	for _, fn := range filenames {
		r, err := ReaderForFile(fn, schema)
		if err != nil {
			for _, opened := range readers {
				_ = opened.Close()
			}
			return nil, err
		}
		readers = append(readers, r)
	}
	return NewMultiReader(readers)
}
