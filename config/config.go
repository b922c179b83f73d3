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

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/cardinalhq/playlake/internal/awsclient"
)

// Config aggregates configuration for the application.
// Each field is owned by its respective package.
type Config struct {
	Input       string             `mapstructure:"input"`
	Output      string             `mapstructure:"output"`
	TmpDir      string             `mapstructure:"tmpdir"`
	Concurrency ConcurrencyConfig  `mapstructure:"concurrency"`
	S3          awsclient.Settings `mapstructure:"s3"`
	DuckDB      DuckDBConfig       `mapstructure:"duckdb"`
}

type ConcurrencyConfig struct {
	Readers int `mapstructure:"readers"`
	Writers int `mapstructure:"writers"`
}

func DefaultConfig() *Config {
	return &Config{
		Concurrency: ConcurrencyConfig{
			Readers: 8,
			Writers: 4,
		},
		DuckDB: DefaultDuckDBConfig(),
	}
}

// FlagKeys maps command line flag names to configuration keys.
var FlagKeys = map[string]string{
	"input":   "input",
	"output":  "output",
	"tmpdir":  "tmpdir",
	"readers": "concurrency.readers",
	"writers": "concurrency.writers",
}

// Load reads configuration from files, environment variables and flags.
// Environment variables use the prefix "PLAYLAKE" and the dot character
// in keys is replaced by an underscore. For example, "s3.region" becomes
// "PLAYLAKE_S3_REGION". Flags in fs named in FlagKeys take precedence when
// set; fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.SetEnvPrefix("PLAYLAKE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, cfg)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	if fs != nil {
		for name, key := range FlagKeys {
			f := fs.Lookup(name)
			if f == nil || !f.Changed {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings a build run needs.
func (c *Config) Validate() error {
	if c.Input == "" {
		return errors.New("input location is required")
	}
	if c.Output == "" {
		return errors.New("output location is required")
	}
	if c.Concurrency.Readers < 1 {
		return fmt.Errorf("concurrency.readers must be at least 1, got %d", c.Concurrency.Readers)
	}
	if c.Concurrency.Writers < 1 {
		return fmt.Errorf("concurrency.writers must be at least 1, got %d", c.Concurrency.Writers)
	}
	return nil
}

// bindEnvs registers all keys within cfg so that viper will look up
// corresponding environment variables when unmarshalling.
func bindEnvs(v *viper.Viper, cfg any, parts ...string) {
	val := reflect.ValueOf(cfg)
	typ := reflect.TypeOf(cfg)
	if typ.Kind() == reflect.Ptr {
		val = val.Elem()
		typ = typ.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" {
			tag = strings.ToLower(f.Name)
		}
		key := append(parts, tag)
		if f.Type.Kind() == reflect.Struct {
			bindEnvs(v, val.Field(i).Interface(), key...)
			continue
		}
		_ = v.BindEnv(strings.Join(key, "."))
	}
}
