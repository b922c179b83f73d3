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
	"sync"

	"github.com/cardinalhq/playlake/internal/awsclient"
)

// Client provides a unified interface for object storage operations across
// the local filesystem and S3-compatible stores.
type Client interface {
	// ListObjects returns the keys in bucket that start with prefix, sorted.
	ListObjects(ctx context.Context, bucket, prefix string) ([]string, error)

	// DownloadObject downloads an object from cloud storage to a local file
	// Returns the temp filename, size, whether object was not found, and error
	DownloadObject(ctx context.Context, tmpdir, bucket, key string) (filename string, size int64, notFound bool, err error)

	// UploadObject uploads a local file to cloud storage
	UploadObject(ctx context.Context, bucket, key, sourceFilename string) error

	// DeleteObject deletes an object from cloud storage
	DeleteObject(ctx context.Context, bucket, key string) error

	// DeleteObjects deletes keys and returns the ones that could not be deleted.
	DeleteObjects(ctx context.Context, bucket string, keys []string) ([]string, error)
}

// ClientProvider returns the Client serving a location.
type ClientProvider interface {
	NewClient(ctx context.Context, loc Location) (Client, error)
}

// Managers creates clients for both supported schemes. The AWS manager is
// only initialized once an s3 location is requested.
type Managers struct {
	settings awsclient.Settings
	runID    string

	mu  sync.Mutex
	aws *awsclient.Manager
}

var _ ClientProvider = (*Managers)(nil)

// NewManagers returns a provider configured with the S3 settings of the job.
// runID is attached to every uploaded S3 object as metadata.
func NewManagers(settings awsclient.Settings, runID string) *Managers {
	return &Managers{settings: settings, runID: runID}
}

func (m *Managers) NewClient(ctx context.Context, loc Location) (Client, error) {
	switch loc.Scheme {
	case SchemeFile:
		return &fileClient{}, nil
	case SchemeS3:
		mgr, err := m.awsManager(ctx)
		if err != nil {
			return nil, err
		}
		s3c, err := mgr.GetS3(ctx, m.settings.S3Options()...)
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 client: %w", err)
		}
		return &s3Client{awsS3Client: s3c, runID: m.runID}, nil
	default:
		return nil, fmt.Errorf("unsupported location scheme: %q", loc.Scheme)
	}
}

func (m *Managers) awsManager(ctx context.Context) (*awsclient.Manager, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.aws != nil {
		return m.aws, nil
	}
	mgr, err := awsclient.NewManager(ctx, m.settings.ManagerOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS manager: %w", err)
	}
	m.aws = mgr
	return mgr, nil
}
