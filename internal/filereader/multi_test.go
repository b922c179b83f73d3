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
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sliceReader struct {
	rows      []Row
	err       error
	closed    bool
	malformed int64
}

func (r *sliceReader) GetRow() (Row, error) {
	if len(r.rows) == 0 {
		if r.err != nil {
			return nil, r.err
		}
		return nil, io.EOF
	}
	row := r.rows[0]
	r.rows = r.rows[1:]
	return row, nil
}

func (r *sliceReader) Close() error {
	r.closed = true
	return nil
}

func (r *sliceReader) MalformedRows() int64 {
	return r.malformed
}

func TestMultiReaderConcatenatesInOrder(t *testing.T) {
	r1 := &sliceReader{rows: []Row{{"n": 1}, {"n": 2}}, malformed: 1}
	empty := &sliceReader{}
	r2 := &sliceReader{rows: []Row{{"n": 3}}, malformed: 2}

	mr, err := NewMultiReader([]Reader{r1, empty, r2})
	require.NoError(t, err)

	var got []any
	for {
		row, err := mr.GetRow()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		got = append(got, row["n"])
	}
	assert.Equal(t, []any{1, 2, 3}, got)
	assert.Equal(t, int64(3), mr.MalformedRows())
	assert.Equal(t, int64(0), mr.SchemaMismatches())

	require.NoError(t, mr.Close())
	assert.True(t, r1.closed)
	assert.True(t, empty.closed)
	assert.True(t, r2.closed)
	require.NoError(t, mr.Close())

	_, err = mr.GetRow()
	assert.Error(t, err)
}

func TestMultiReaderPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	mr, err := NewMultiReader([]Reader{&sliceReader{err: boom}})
	require.NoError(t, err)
	defer mr.Close()

	_, err = mr.GetRow()
	assert.ErrorIs(t, err, boom)
}

func TestNewMultiReaderRejectsNil(t *testing.T) {
	_, err := NewMultiReader([]Reader{&sliceReader{}, nil})
	assert.ErrorContains(t, err, "index 1")
}
