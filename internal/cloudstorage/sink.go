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
	"fmt"
	"os"
	"slices"

	"github.com/hashicorp/go-multierror"

	"github.com/cardinalhq/playlake/internal/constants"
	"github.com/cardinalhq/playlake/internal/parquetwriter"
)

// TableSink stores tables below an output location, one prefix per table.
// A table is complete only while its _SUCCESS marker exists.
type TableSink struct {
	client Client
	loc    Location
	tmpdir string
}

var _ parquetwriter.Sink = (*TableSink)(nil)

func NewTableSink(client Client, loc Location, tmpdir string) *TableSink {
	return &TableSink{client: client, loc: loc, tmpdir: tmpdir}
}

func (s *TableSink) markerKey(table string) string {
	return s.loc.Key(table, constants.SuccessMarker)
}

// ClearTable removes the marker first, then every other object of the table.
func (s *TableSink) ClearTable(ctx context.Context, table string) error {
	if err := s.client.DeleteObject(ctx, s.loc.Bucket, s.markerKey(table)); err != nil {
		return fmt.Errorf("delete marker: %w", err)
	}

	keys, err := s.client.ListObjects(ctx, s.loc.Bucket, s.loc.Key(table)+"/")
	if err != nil {
		return fmt.Errorf("list table objects: %w", err)
	}
	failed, err := s.client.DeleteObjects(ctx, s.loc.Bucket, keys)
	if err != nil {
		return fmt.Errorf("delete table objects: %w", err)
	}

	var errs *multierror.Error
	for _, key := range failed {
		errs = multierror.Append(errs, fmt.Errorf("could not delete %s", key))
	}
	return errs.ErrorOrNil()
}

func (s *TableSink) PutFile(ctx context.Context, key string, localPath string) error {
	return s.client.UploadObject(ctx, s.loc.Bucket, s.loc.Key(key), localPath)
}

// MarkComplete writes the empty _SUCCESS marker for the table.
func (s *TableSink) MarkComplete(ctx context.Context, table string) error {
	f, err := os.CreateTemp(s.tmpdir, "marker-*")
	if err != nil {
		return fmt.Errorf("create marker file: %w", err)
	}
	name := f.Name()
	defer func() { _ = os.Remove(name) }()
	if err := f.Close(); err != nil {
		return err
	}
	return s.client.UploadObject(ctx, s.loc.Bucket, s.markerKey(table), name)
}

// IsComplete reports whether the table's marker exists.
func (s *TableSink) IsComplete(ctx context.Context, table string) (bool, error) {
	marker := s.markerKey(table)
	keys, err := s.client.ListObjects(ctx, s.loc.Bucket, marker)
	if err != nil {
		return false, err
	}
	return slices.Contains(keys, marker), nil
}
