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

package config

// DuckDBConfig holds settings of the embedded DuckDB used by the query command.
type DuckDBConfig struct {
	MemoryLimit int64 `mapstructure:"memory_limit"` // Memory limit in MB (0 = unlimited)
	// Extensions are loaded on every connection in addition to httpfs,
	// which is only loaded for s3:// outputs.
	Extensions []string `mapstructure:"extensions"`
}

func DefaultDuckDBConfig() DuckDBConfig {
	return DuckDBConfig{}
}
