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

// Package duckdbx runs SQL over the written tables with an embedded DuckDB.
package duckdbx

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb/v2"
)

type Option func(*Config)

type Config struct {
	MemoryLimitMB int64
	Extensions    []ExtensionConfig
	S3            *S3Secret
}

type ExtensionConfig struct {
	Name string
}

// WithMemoryLimitMB sets a memory limit for DuckDB in megabytes.
func WithMemoryLimitMB(limit int64) Option {
	return func(c *Config) {
		c.MemoryLimitMB = limit
	}
}

// WithExtension specifies a DuckDB extension to install and load on connection setup.
// When PLAYLAKE_EXTENSIONS_PATH is set, extensions are loaded from
// pre-installed files only.
func WithExtension(ext string) Option {
	return func(c *Config) {
		for _, existing := range c.Extensions {
			if existing.Name == ext {
				return
			}
		}
		c.Extensions = append(c.Extensions, ExtensionConfig{Name: ext})
	}
}

// WithoutExtension removes an extension from the list of extensions to load.
// If the extension is not in the list, this is a no-op.
func WithoutExtension(ext string) Option {
	return func(c *Config) {
		for i, existing := range c.Extensions {
			if existing.Name == ext {
				c.Extensions = append(c.Extensions[:i], c.Extensions[i+1:]...)
				return
			}
		}
	}
}

// WithS3Secret registers S3 credentials on every connection.
func WithS3Secret(s S3Secret) Option {
	return func(c *Config) {
		c.S3 = &s
	}
}

type DB struct {
	db     *sql.DB
	config Config
}

// Open opens a DuckDB database with the given data source name and options.
// By default, the httpfs extension is loaded on every connection.
func Open(dataSourceName string, opts ...Option) (*DB, error) {
	db, err := sql.Open("duckdb", dataSourceName)
	if err != nil {
		return nil, err
	}

	config := Config{
		Extensions: []ExtensionConfig{
			{Name: "httpfs"},
		},
	}
	for _, opt := range opts {
		opt(&config)
	}

	return &DB{db: db, config: config}, nil
}

// Conn returns a new connection to the database, with any setup
// (such as setting memory limits and loading extensions) already performed.
func (d *DB) Conn(ctx context.Context) (*sql.Conn, error) {
	conn, err := d.db.Conn(ctx)
	if err != nil {
		return nil, err
	}

	if err := d.setupConn(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return conn, nil
}

func (d *DB) setupConn(ctx context.Context, conn *sql.Conn) error {
	if d.config.MemoryLimitMB > 0 {
		stmt := fmt.Sprintf("SET memory_limit='%dMB';", d.config.MemoryLimitMB)
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to set memory limit: %w", err)
		}
	}
	for _, ext := range d.config.Extensions {
		if err := d.loadExtension(ctx, conn, ext.Name); err != nil {
			return fmt.Errorf("failed to load extension '%s': %w", ext.Name, err)
		}
	}
	if d.config.S3 != nil {
		if _, err := conn.ExecContext(ctx, d.config.S3.statement()); err != nil {
			return fmt.Errorf("failed to create s3 secret: %w", err)
		}
	}
	return nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) loadExtension(ctx context.Context, conn *sql.Conn, extensionName string) error {
	extensionsBasePath := os.Getenv("PLAYLAKE_EXTENSIONS_PATH")
	if extensionsBasePath != "" {
		return d.loadAirGappedExtension(ctx, conn, extensionName, extensionsBasePath)
	}
	return d.loadNetworkExtension(ctx, conn, extensionName)
}

// loadAirGappedExtension loads extensions from pre-installed files only
func (d *DB) loadAirGappedExtension(ctx context.Context, conn *sql.Conn, extensionName, basePath string) error {
	specificEnvVar := fmt.Sprintf("PLAYLAKE_%s_EXTENSION", strings.ToUpper(extensionName))
	extensionPath := os.Getenv(specificEnvVar)
	if extensionPath == "" {
		extensionPath = filepath.Join(basePath, extensionName+".duckdb_extension")
	}

	if _, err := os.Stat(extensionPath); os.IsNotExist(err) {
		return fmt.Errorf("extension '%s' not found at %s (air-gapped mode)", extensionName, extensionPath)
	}

	stmt := fmt.Sprintf("LOAD '%s';", extensionPath)
	if _, err := conn.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to load extension from %s: %w", extensionPath, err)
	}
	return nil
}

// loadNetworkExtension loads an extension, installing it first if needed.
func (d *DB) loadNetworkExtension(ctx context.Context, conn *sql.Conn, extensionName string) error {
	if _, err := conn.ExecContext(ctx, fmt.Sprintf("LOAD %s;", extensionName)); err != nil {
		if _, err := conn.ExecContext(ctx, fmt.Sprintf("INSTALL %s", extensionName)); err != nil {
			return fmt.Errorf("failed to install extension: %w", err)
		}
		if _, err := conn.ExecContext(ctx, fmt.Sprintf("LOAD %s;", extensionName)); err != nil {
			return fmt.Errorf("failed to load extension after install: %w", err)
		}
	}
	return nil
}
