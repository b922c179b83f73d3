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

package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cardinalhq/playlake/config"
	"github.com/cardinalhq/playlake/internal/cloudstorage"
	"github.com/cardinalhq/playlake/internal/duckdbx"
	"github.com/cardinalhq/playlake/internal/etl"
)

func init() {
	cmd := &cobra.Command{
		Use:   "query SQL",
		Short: "Run SQL over the tables written by build",
		Long: `Run SQL over the tables written by build. Each complete table
(songs, artists, users, time, songplays) is available as a view, partition
columns included.`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			format, err := c.Flags().GetString("format")
			if err != nil {
				return fmt.Errorf("failed to get format flag: %w", err)
			}
			return runQuery(c, args[0], format)
		},
	}

	cmd.Flags().String("output", "", "Output location the tables were written to")
	cmd.Flags().String("format", "table", "Result format: table or yaml")

	rootCmd.AddCommand(cmd)
}

func runQuery(c *cobra.Command, query string, format string) error {
	if format != "table" && format != "yaml" {
		return fmt.Errorf("unknown format %q", format)
	}

	ctx, doneFx, err := setupTelemetry("playlake-query", uuid.NewString())
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}
	defer func() { _ = doneFx() }()

	cfg, err := config.Load(c.Flags())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Output == "" {
		return fmt.Errorf("output location is required")
	}
	out, err := cloudstorage.ParseLocation(cfg.Output)
	if err != nil {
		return fmt.Errorf("output: %w", err)
	}

	res, err := queryTables(ctx, cfg, out, query)
	if err != nil {
		return err
	}
	if format == "yaml" {
		return renderYAML(c.OutOrStdout(), res)
	}
	return renderTable(c.OutOrStdout(), res)
}

// queryTables registers a view for every complete table under out and runs query.
func queryTables(ctx context.Context, cfg *config.Config, out cloudstorage.Location, query string) (*duckdbx.Result, error) {
	client, err := cloudstorage.NewManagers(cfg.S3, "").NewClient(ctx, out)
	if err != nil {
		return nil, err
	}
	sink := cloudstorage.NewTableSink(client, out, os.TempDir())

	var tables []string
	for _, t := range etl.Tables() {
		complete, err := sink.IsComplete(ctx, t.Name)
		if err != nil {
			return nil, fmt.Errorf("check table %s: %w", t.Name, err)
		}
		if !complete {
			slog.Warn("Skipping incomplete table", slog.String("table", t.Name))
			continue
		}
		tables = append(tables, t.Name)
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("no complete tables under %s", out)
	}

	db, err := openDuckDB(cfg, out)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get duckdb connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if err := duckdbx.CreateTableViews(ctx, conn, queryRoot(out), tables); err != nil {
		return nil, err
	}
	return duckdbx.QueryAll(ctx, conn, query)
}

func openDuckDB(cfg *config.Config, out cloudstorage.Location) (*duckdbx.DB, error) {
	return duckdbx.Open("", duckDBOptions(cfg, out)...)
}

func duckDBOptions(cfg *config.Config, out cloudstorage.Location) []duckdbx.Option {
	var opts []duckdbx.Option
	if cfg.DuckDB.MemoryLimit > 0 {
		opts = append(opts, duckdbx.WithMemoryLimitMB(cfg.DuckDB.MemoryLimit))
	}
	if out.Scheme == cloudstorage.SchemeS3 {
		opts = append(opts, duckdbx.WithS3Secret(s3Secret(cfg)))
	} else {
		opts = append(opts, duckdbx.WithoutExtension("httpfs"))
	}
	for _, ext := range cfg.DuckDB.Extensions {
		opts = append(opts, duckdbx.WithExtension(ext))
	}
	return opts
}

func s3Secret(cfg *config.Config) duckdbx.S3Secret {
	endpoint := cfg.S3.Endpoint
	useSSL := !strings.HasPrefix(endpoint, "http://")
	endpoint = strings.TrimPrefix(strings.TrimPrefix(endpoint, "https://"), "http://")
	return duckdbx.S3Secret{
		KeyID:     cfg.S3.AccessKeyID,
		Secret:    cfg.S3.SecretAccessKey,
		Region:    cfg.S3.Region,
		Endpoint:  endpoint,
		PathStyle: cfg.S3.PathStyle,
		UseSSL:    useSSL,
	}
}

// queryRoot is the path DuckDB reads the tables of out from.
func queryRoot(out cloudstorage.Location) string {
	if out.Scheme == cloudstorage.SchemeFile {
		return filepath.ToSlash(filepath.Join(out.Bucket, filepath.FromSlash(out.Prefix)))
	}
	return out.String()
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(t)
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(t)
	}
}

func renderTable(w io.Writer, res *duckdbx.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(res.Columns, "\t"))
	for _, row := range res.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = formatValue(v)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func renderYAML(w io.Writer, res *duckdbx.Result) error {
	rows := res.Maps()
	for _, r := range rows {
		for k, v := range r {
			switch t := v.(type) {
			case []byte:
				r[k] = string(t)
			case time.Time:
				r[k] = t.UTC().Format(time.RFC3339Nano)
			}
		}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
