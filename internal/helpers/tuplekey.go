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
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// TupleKey builds a canonical byte encoding of a tuple of nullable values.
// Two tuples encode equal exactly when every member is equal, with null
// distinct from every value, so the encoding can be used as a map key for
// set-based dedup and hashed for surrogate keys.
type TupleKey struct {
	buf []byte
}

const (
	tagNull    = 0x00
	tagPresent = 0x01
)

func NewTupleKey() *TupleKey {
	return &TupleKey{buf: make([]byte, 0, 64)}
}

func (k *TupleKey) String(v *string) *TupleKey {
	if v == nil {
		k.buf = append(k.buf, tagNull)
		return k
	}
	k.buf = append(k.buf, tagPresent)
	k.buf = binary.AppendUvarint(k.buf, uint64(len(*v)))
	k.buf = append(k.buf, *v...)
	return k
}

func (k *TupleKey) Int32(v *int32) *TupleKey {
	if v == nil {
		k.buf = append(k.buf, tagNull)
		return k
	}
	k.buf = append(k.buf, tagPresent)
	k.buf = binary.BigEndian.AppendUint32(k.buf, uint32(*v))
	return k
}

func (k *TupleKey) Int64(v *int64) *TupleKey {
	if v == nil {
		k.buf = append(k.buf, tagNull)
		return k
	}
	k.buf = append(k.buf, tagPresent)
	k.buf = binary.BigEndian.AppendUint64(k.buf, uint64(*v))
	return k
}

func (k *TupleKey) Float64(v *float64) *TupleKey {
	if v == nil {
		k.buf = append(k.buf, tagNull)
		return k
	}
	k.buf = append(k.buf, tagPresent)
	k.buf = binary.BigEndian.AppendUint64(k.buf, math.Float64bits(*v))
	return k
}

// Key returns the encoding as a string, suitable as a map key.
func (k *TupleKey) Key() string {
	return string(k.buf)
}

// Hash returns the xxhash64 of the encoding.
func (k *TupleKey) Hash() uint64 {
	return xxhash.Sum64(k.buf)
}
