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
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/playlake/internal/parquetwriter"
)

var timeSpec = parquetwriter.TableSpec{
	Name: "time",
	Columns: []parquetwriter.Column{
		{Name: "start_time", Type: parquetwriter.ColumnInt64},
		{Name: "hour", Type: parquetwriter.ColumnInt32},
		{Name: "year", Type: parquetwriter.ColumnInt32},
		{Name: "month", Type: parquetwriter.ColumnInt32},
	},
	PartitionBy: []string{"year", "month"},
}

func TestTableSink_WriteAndOverwrite(t *testing.T) {
	ctx := context.Background()
	out := t.TempDir()
	loc, err := ParseLocation("file://" + filepath.ToSlash(out))
	require.NoError(t, err)
	sink := NewTableSink(NewFileClient(), loc.Join("warehouse"), t.TempDir())

	first := []map[string]any{
		{"start_time": int64(1541106106796), "hour": int32(21), "year": int32(2018), "month": int32(11)},
		{"start_time": int64(1543622400000), "hour": int32(0), "year": int32(2018), "month": int32(12)},
	}
	_, err = parquetwriter.Write(ctx, timeSpec, first, sink, parquetwriter.Options{TmpDir: t.TempDir()})
	require.NoError(t, err)

	keys, err := NewFileClient().ListObjects(ctx, out, "warehouse/time/")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"warehouse/time/_SUCCESS",
		"warehouse/time/year=2018/month=11/part-00000.parquet",
		"warehouse/time/year=2018/month=12/part-00000.parquet",
	}, keys)

	complete, err := sink.IsComplete(ctx, "time")
	require.NoError(t, err)
	assert.True(t, complete)

	second := first[:1]
	_, err = parquetwriter.Write(ctx, timeSpec, second, sink, parquetwriter.Options{TmpDir: t.TempDir()})
	require.NoError(t, err)

	keys, err = NewFileClient().ListObjects(ctx, out, "warehouse/time/")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"warehouse/time/_SUCCESS",
		"warehouse/time/year=2018/month=11/part-00000.parquet",
	}, keys)
	_, err = os.Stat(filepath.Join(out, "warehouse", "time", "year=2018", "month=12"))
	assert.True(t, os.IsNotExist(err))
}

type failingUploadClient struct {
	Client
}

func (c failingUploadClient) UploadObject(ctx context.Context, bucket, key, src string) error {
	if filepath.Base(key) == "_SUCCESS" {
		return c.Client.UploadObject(ctx, bucket, key, src)
	}
	return errors.New("access denied")
}

func TestTableSink_FailedWriteLeavesTableIncomplete(t *testing.T) {
	ctx := context.Background()
	out := t.TempDir()
	loc := Location{Scheme: SchemeFile, Bucket: out}

	good := NewTableSink(NewFileClient(), loc, t.TempDir())
	rows := []map[string]any{{"start_time": int64(1), "hour": int32(0), "year": int32(1970), "month": int32(1)}}
	_, err := parquetwriter.Write(ctx, timeSpec, rows, good, parquetwriter.Options{TmpDir: t.TempDir()})
	require.NoError(t, err)

	bad := NewTableSink(failingUploadClient{Client: NewFileClient()}, loc, t.TempDir())
	_, err = parquetwriter.Write(ctx, timeSpec, rows, bad, parquetwriter.Options{TmpDir: t.TempDir()})
	require.ErrorContains(t, err, "access denied")

	complete, err := good.IsComplete(ctx, "time")
	require.NoError(t, err)
	assert.False(t, complete)
}

type stuckDeleteClient struct {
	Client
}

func (c stuckDeleteClient) DeleteObjects(_ context.Context, _ string, keys []string) ([]string, error) {
	return keys, nil
}

func TestTableSink_ClearTableReportsUndeletedKeys(t *testing.T) {
	ctx := context.Background()
	out := t.TempDir()
	src := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(src, nil, 0o644))

	fc := NewFileClient()
	require.NoError(t, fc.UploadObject(ctx, out, "users/a.parquet", src))
	require.NoError(t, fc.UploadObject(ctx, out, "users/b.parquet", src))

	sink := NewTableSink(stuckDeleteClient{Client: fc}, Location{Scheme: SchemeFile, Bucket: out}, t.TempDir())
	err := sink.ClearTable(ctx, "users")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "users/a.parquet")
	assert.Contains(t, err.Error(), "users/b.parquet")
}
