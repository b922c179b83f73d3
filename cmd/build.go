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
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/cardinalhq/playlake/config"
	"github.com/cardinalhq/playlake/internal/cloudstorage"
	"github.com/cardinalhq/playlake/internal/etl"
	"github.com/cardinalhq/playlake/internal/idgen"
)

func init() {
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Rebuild all tables from the raw sources",
		RunE: func(c *cobra.Command, _ []string) error {
			statsFile, err := c.Flags().GetString("stats-file")
			if err != nil {
				return fmt.Errorf("failed to get stats-file flag: %w", err)
			}
			return runBuild(c, statsFile)
		},
	}

	cmd.Flags().String("input", "", "Source location holding song_data/ and log_data/ (s3://bucket/prefix or file:///dir)")
	cmd.Flags().String("output", "", "Output location for the tables")
	cmd.Flags().String("tmpdir", "", "Directory for downloaded sources and staged files")
	cmd.Flags().Int("readers", defaults.Concurrency.Readers, "Concurrent source downloads")
	cmd.Flags().Int("writers", defaults.Concurrency.Writers, "Concurrent partition writes per table")
	cmd.Flags().String("stats-file", "", "Write run statistics as JSON to this file (- for stdout)")

	rootCmd.AddCommand(cmd)
}

func runBuild(c *cobra.Command, statsFile string) error {
	runID := uuid.NewString()
	ctx, doneFx, err := setupTelemetry("playlake-build", runID)
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}
	defer func() {
		if err := doneFx(); err != nil {
			slog.Error("Error shutting down telemetry", slog.Any("error", err))
		}
	}()

	cfg, err := config.Load(c.Flags())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	start := time.Now()
	stats, err := build(ctx, cfg, runID)
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	runCounter.Add(ctx, 1, attrs)
	runDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	if err != nil {
		slog.Error("Rebuild failed", slog.Any("error", err))
		return err
	}

	if statsFile == "" {
		return nil
	}
	if statsFile == "-" {
		return writeStats(c.OutOrStdout(), stats)
	}
	f, err := os.Create(statsFile)
	if err != nil {
		return fmt.Errorf("create stats file: %w", err)
	}
	if err := writeStats(f, stats); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// build runs one full rebuild with the locations and clients named by cfg.
func build(ctx context.Context, cfg *config.Config, runID string) (*etl.Stats, error) {
	ctx, span := tracer.Start(ctx, "playlake.build")
	defer span.End()

	in, err := cloudstorage.ParseLocation(cfg.Input)
	if err != nil {
		return nil, fmt.Errorf("input: %w", err)
	}
	out, err := cloudstorage.ParseLocation(cfg.Output)
	if err != nil {
		return nil, fmt.Errorf("output: %w", err)
	}

	managers := cloudstorage.NewManagers(cfg.S3, runID)
	source, err := managers.NewClient(ctx, in)
	if err != nil {
		return nil, err
	}
	target, err := managers.NewClient(ctx, out)
	if err != nil {
		return nil, err
	}

	ids, err := idgen.NewFlakeGenerator()
	if err != nil {
		return nil, fmt.Errorf("create songplay id generator: %w", err)
	}

	tmpdir := cfg.TmpDir
	if tmpdir == "" {
		tmpdir = os.TempDir()
	}

	slog.InfoContext(ctx, "Starting rebuild",
		slog.String("input", in.String()),
		slog.String("output", out.String()))

	stats, err := etl.Run(ctx, source, cloudstorage.NewTableSink(target, out, tmpdir), etl.Options{
		RunID:   runID,
		Input:   in,
		TmpDir:  tmpdir,
		Readers: cfg.Concurrency.Readers,
		Writers: cfg.Concurrency.Writers,
		IDs:     ids,
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return stats, nil
}

func writeStats(w io.Writer, stats *etl.Stats) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(stats); err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	return nil
}
