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

package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strp(s string) *string { return &s }

func TestTupleKeyNullIsDistinct(t *testing.T) {
	empty := NewTupleKey().String(strp("")).Key()
	null := NewTupleKey().String(nil).Key()
	assert.NotEqual(t, empty, null)
}

func TestTupleKeyNoConcatenationAmbiguity(t *testing.T) {
	a := NewTupleKey().String(strp("ab")).String(strp("c")).Key()
	b := NewTupleKey().String(strp("a")).String(strp("bc")).Key()
	assert.NotEqual(t, a, b)
}

func TestTupleKeyStableHash(t *testing.T) {
	year := int32(2000)
	dur := 218.5
	k1 := NewTupleKey().String(strp("Song")).String(strp("AR1")).Int32(&year).Float64(&dur)
	k2 := NewTupleKey().String(strp("Song")).String(strp("AR1")).Int32(&year).Float64(&dur)
	assert.Equal(t, k1.Key(), k2.Key())
	assert.Equal(t, k1.Hash(), k2.Hash())

	other := int32(2001)
	k3 := NewTupleKey().String(strp("Song")).String(strp("AR1")).Int32(&other).Float64(&dur)
	assert.NotEqual(t, k1.Key(), k3.Key())
}

func TestTupleKeyInt64(t *testing.T) {
	a, b := int64(1), int64(2)
	assert.NotEqual(t, NewTupleKey().Int64(&a).Key(), NewTupleKey().Int64(&b).Key())
	assert.NotEqual(t, NewTupleKey().Int64(nil).Key(), NewTupleKey().Int64(&a).Key())
}
