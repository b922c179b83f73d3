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

package cloudstorage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocation(t *testing.T) {
	abs, err := filepath.Abs("data/out")
	require.NoError(t, err)

	tests := []struct {
		raw     string
		want    Location
		wantErr bool
	}{
		{raw: "s3://udacity-dend/", want: Location{Scheme: SchemeS3, Bucket: "udacity-dend"}},
		{raw: "s3://lake/warehouse/v1/", want: Location{Scheme: SchemeS3, Bucket: "lake", Prefix: "warehouse/v1"}},
		{raw: "file:///var/lib/playlake", want: Location{Scheme: SchemeFile, Bucket: "/var/lib/playlake"}},
		{raw: "data/out", want: Location{Scheme: SchemeFile, Bucket: abs}},
		{raw: "", wantErr: true},
		{raw: "s3:///prefix", wantErr: true},
		{raw: "gs://bucket/x", wantErr: true},
		{raw: "file://remote/x", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseLocation(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocationKeyAndJoin(t *testing.T) {
	loc := Location{Scheme: SchemeS3, Bucket: "lake", Prefix: "out"}
	assert.Equal(t, "out/songs/_SUCCESS", loc.Key("songs", "_SUCCESS"))
	assert.Equal(t, "s3://lake/out/log_data", loc.Join("log_data").String())

	root := Location{Scheme: SchemeS3, Bucket: "lake"}
	assert.Equal(t, "songs", root.Key("songs"))
	assert.Equal(t, "s3://lake", root.String())

	local := Location{Scheme: SchemeFile, Bucket: "/tmp/in"}
	assert.Equal(t, "file:///tmp/in/song_data", local.Join("song_data").String())
}
