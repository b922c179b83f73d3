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
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

const (
	SchemeFile = "file"
	SchemeS3   = "s3"
)

// Location is a parsed storage URL. For file locations Bucket is the
// absolute root directory and Prefix is empty.
type Location struct {
	Scheme string
	Bucket string
	Prefix string
}

// ParseLocation accepts s3://bucket/prefix, file:///dir or a plain path.
func ParseLocation(raw string) (Location, error) {
	if raw == "" {
		return Location{}, fmt.Errorf("empty location")
	}
	if !strings.Contains(raw, "://") {
		return fileLocation(raw)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, fmt.Errorf("parse location %q: %w", raw, err)
	}
	switch u.Scheme {
	case SchemeS3:
		if u.Host == "" {
			return Location{}, fmt.Errorf("location %q has no bucket", raw)
		}
		return Location{
			Scheme: SchemeS3,
			Bucket: u.Host,
			Prefix: strings.Trim(u.Path, "/"),
		}, nil
	case SchemeFile:
		if u.Host != "" && u.Host != "localhost" {
			return Location{}, fmt.Errorf("location %q: file URLs must not name a host", raw)
		}
		if u.Path == "" {
			return Location{}, fmt.Errorf("location %q has no path", raw)
		}
		return fileLocation(u.Path)
	default:
		return Location{}, fmt.Errorf("location %q: unsupported scheme %q", raw, u.Scheme)
	}
}

func fileLocation(p string) (Location, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return Location{}, fmt.Errorf("resolve path %q: %w", p, err)
	}
	return Location{Scheme: SchemeFile, Bucket: abs}, nil
}

// Key joins parts below the location prefix.
func (l Location) Key(parts ...string) string {
	return path.Join(append([]string{l.Prefix}, parts...)...)
}

// Join returns the location of a sub prefix.
func (l Location) Join(parts ...string) Location {
	l.Prefix = l.Key(parts...)
	return l
}

func (l Location) String() string {
	if l.Scheme == SchemeFile {
		return "file://" + filepath.ToSlash(filepath.Join(l.Bucket, filepath.FromSlash(l.Prefix)))
	}
	if l.Prefix == "" {
		return l.Scheme + "://" + l.Bucket
	}
	return l.Scheme + "://" + l.Bucket + "/" + l.Prefix
}
