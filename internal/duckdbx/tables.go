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
	"database/sql"
	"fmt"
	"strings"
)

// S3Secret holds the credentials DuckDB uses to read s3:// paths.
type S3Secret struct {
	KeyID     string
	Secret    string
	Region    string
	Endpoint  string
	PathStyle bool
	UseSSL    bool
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func (s S3Secret) statement() string {
	parts := []string{"TYPE s3"}
	if s.KeyID != "" {
		parts = append(parts, "KEY_ID "+quoteLiteral(s.KeyID), "SECRET "+quoteLiteral(s.Secret))
	} else {
		parts = append(parts, "PROVIDER credential_chain")
	}
	if s.Region != "" {
		parts = append(parts, "REGION "+quoteLiteral(s.Region))
	}
	if s.Endpoint != "" {
		parts = append(parts, "ENDPOINT "+quoteLiteral(s.Endpoint))
		parts = append(parts, fmt.Sprintf("USE_SSL %t", s.UseSSL))
	}
	if s.PathStyle {
		parts = append(parts, "URL_STYLE 'path'")
	}
	return "CREATE OR REPLACE SECRET playlake_s3 (" + strings.Join(parts, ", ") + ");"
}

// TableGlob is the read_parquet glob of a table written below root.
func TableGlob(root, table string) string {
	return strings.TrimSuffix(root, "/") + "/" + table + "/**/*.parquet"
}

// CreateTableViews creates one view per table over its Hive-partitioned
// parquet files, so partition columns are queryable like stored ones.
func CreateTableViews(ctx context.Context, conn *sql.Conn, root string, tables []string) error {
	for _, t := range tables {
		stmt := fmt.Sprintf(
			"CREATE OR REPLACE VIEW %s AS SELECT * FROM read_parquet(%s, hive_partitioning = true, union_by_name = true);",
			quoteIdent(t), quoteLiteral(TableGlob(root, t)))
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create view %s: %w", t, err)
		}
	}
	return nil
}

// Result is a fully materialized query result.
type Result struct {
	Columns []string
	Rows    [][]any
}

// Maps returns the rows keyed by column name.
func (r *Result) Maps() []map[string]any {
	out := make([]map[string]any, len(r.Rows))
	for i, row := range r.Rows {
		m := make(map[string]any, len(r.Columns))
		for j, c := range r.Columns {
			m[c] = row[j]
		}
		out[i] = m
	}
	return out
}

// QueryAll runs query on conn and reads every row.
func QueryAll(ctx context.Context, conn *sql.Conn, query string, args ...any) (*Result, error) {
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query execution failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	res := &Result{Columns: cols}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		res.Rows = append(res.Rows, vals)
	}
	return res, rows.Err()
}
