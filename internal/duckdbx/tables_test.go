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

package duckdbx

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/playlake/internal/cloudstorage"
	"github.com/cardinalhq/playlake/internal/parquetwriter"
)

func TestS3SecretStatement(t *testing.T) {
	s := S3Secret{KeyID: "AKID", Secret: "it's", Region: "us-east-1", Endpoint: "localhost:9000", PathStyle: true}
	assert.Equal(t,
		"CREATE OR REPLACE SECRET playlake_s3 (TYPE s3, KEY_ID 'AKID', SECRET 'it''s', REGION 'us-east-1', ENDPOINT 'localhost:9000', USE_SSL false, URL_STYLE 'path');",
		s.statement())

	assert.Equal(t,
		"CREATE OR REPLACE SECRET playlake_s3 (TYPE s3, PROVIDER credential_chain);",
		S3Secret{}.statement())
}

func TestTableGlob(t *testing.T) {
	assert.Equal(t, "s3://lake/out/songs/**/*.parquet", TableGlob("s3://lake/out/", "songs"))
	assert.Equal(t, "/data/time/**/*.parquet", TableGlob("/data", "time"))
}

func TestWithoutExtension(t *testing.T) {
	cfg := Config{Extensions: []ExtensionConfig{{Name: "httpfs"}, {Name: "json"}}}
	WithoutExtension("httpfs")(&cfg)
	assert.Equal(t, []ExtensionConfig{{Name: "json"}}, cfg.Extensions)
	WithoutExtension("missing")(&cfg)
	assert.Len(t, cfg.Extensions, 1)
}

func TestWithExtension(t *testing.T) {
	db, err := Open("", WithExtension("json"), WithExtension("httpfs"), WithExtension("json"))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	assert.Equal(t, []ExtensionConfig{{Name: "httpfs"}, {Name: "json"}}, db.config.Extensions)
}

func TestCreateTableViews_HivePartitions(t *testing.T) {
	ctx := context.Background()
	out := t.TempDir()

	spec := parquetwriter.TableSpec{
		Name: "time",
		Columns: []parquetwriter.Column{
			{Name: "start_time", Type: parquetwriter.ColumnInt64},
			{Name: "weekday", Type: parquetwriter.ColumnString},
			{Name: "year", Type: parquetwriter.ColumnInt32},
			{Name: "month", Type: parquetwriter.ColumnInt32},
		},
		PartitionBy: []string{"year", "month"},
	}
	rows := []map[string]any{
		{"start_time": int64(1541106106796), "weekday": "Thu", "year": int32(2018), "month": int32(11)},
		{"start_time": int64(1541121934796), "weekday": "Fri", "year": int32(2018), "month": int32(11)},
		{"start_time": int64(1543622400000), "weekday": "Sat", "year": int32(2018), "month": int32(12)},
	}
	sink := cloudstorage.NewTableSink(cloudstorage.NewFileClient(),
		cloudstorage.Location{Scheme: cloudstorage.SchemeFile, Bucket: out}, t.TempDir())
	_, err := parquetwriter.Write(ctx, spec, rows, sink, parquetwriter.Options{TmpDir: t.TempDir()})
	require.NoError(t, err)

	db, err := Open("", WithoutExtension("httpfs"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	conn, err := db.Conn(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, CreateTableViews(ctx, conn, filepath.ToSlash(out), []string{"time"}))

	res, err := QueryAll(ctx, conn, `SELECT CAST(month AS INTEGER) AS month, count(*) AS n FROM "time" GROUP BY ALL ORDER BY month`)
	require.NoError(t, err)
	assert.Equal(t, []string{"month", "n"}, res.Columns)
	require.Len(t, res.Rows, 2)
	assert.EqualValues(t, 11, res.Rows[0][0])
	assert.EqualValues(t, 2, res.Rows[0][1])
	assert.EqualValues(t, 12, res.Rows[1][0])
	assert.EqualValues(t, 1, res.Rows[1][1])

	maps := res.Maps()
	assert.EqualValues(t, 12, maps[1]["month"])
}
