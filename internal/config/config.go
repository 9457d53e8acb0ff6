// Copyright 2025 the original author or authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the citymesh configuration from file, environment
// and defaults.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// EnvPrefix prefixes every environment variable read, e.g.
	// CITYMESH_LOG_LEVEL.
	EnvPrefix = "CITYMESH"

	// FileName is the configuration file looked up in the working
	// directory when none is given.
	FileName = "citymesh.yaml"
)

// ErrExists is returned when SaveTo would overwrite a file.
var ErrExists = eris.New("config file already exists")

// Config holds the full application configuration.
type Config struct {
	Overpass   OverpassConfig   `yaml:"overpass" mapstructure:"overpass"`
	Terrain    TerrainConfig    `yaml:"terrain" mapstructure:"terrain"`
	Trees      TreesConfig      `yaml:"trees" mapstructure:"trees"`
	Network    NetworkConfig    `yaml:"network" mapstructure:"network"`
	Generation GenerationConfig `yaml:"generation" mapstructure:"generation"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Export     ExportConfig     `yaml:"export" mapstructure:"export"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// OverpassConfig configures the building source.
type OverpassConfig struct {
	URL           string `yaml:"url" mapstructure:"url"`
	RatePerMinute int    `yaml:"rate_per_minute" mapstructure:"rate_per_minute"`
}

// TerrainConfig configures the height map source and the terrain grid.
type TerrainConfig struct {
	URL     string  `yaml:"url" mapstructure:"url"`
	Name    string  `yaml:"name" mapstructure:"name"`
	Spacing float64 `yaml:"spacing" mapstructure:"spacing"`
	Scale   float64 `yaml:"scale" mapstructure:"scale"`
}

// TreesConfig configures the tree source.
type TreesConfig struct {
	URL string `yaml:"url" mapstructure:"url"`
}

// NetworkConfig applies to every remote source.
type NetworkConfig struct {
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent string        `yaml:"user_agent" mapstructure:"user_agent"`
}

// GenerationConfig tunes a generation run.
type GenerationConfig struct {
	Seed           uint64  `yaml:"seed" mapstructure:"seed"`
	HeightPerLevel float64 `yaml:"height_per_level" mapstructure:"height_per_level"`
	MaxExtent      float64 `yaml:"max_extent" mapstructure:"max_extent"`
	Concurrency    int     `yaml:"concurrency" mapstructure:"concurrency"`
}

// CacheConfig configures the response cache. An empty path disables it.
type CacheConfig struct {
	Path string        `yaml:"path" mapstructure:"path"`
	TTL  time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// ExportConfig configures mesh files.
type ExportConfig struct {
	Compression string `yaml:"compression" mapstructure:"compression"`
	SolidLimit  int    `yaml:"solid_limit" mapstructure:"solid_limit"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	File   string `yaml:"file" mapstructure:"file"`
	Format string `yaml:"format" mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("overpass.url", "https://overpass-api.de/api/interpreter")
	v.SetDefault("overpass.rate_per_minute", 10)
	v.SetDefault("terrain.url", "https://terrain.party/api/export")
	v.SetDefault("terrain.name", "map")
	v.SetDefault("terrain.spacing", 4.0)
	v.SetDefault("terrain.scale", 1.0)
	v.SetDefault("trees.url", "https://gis.zrinjevac.hr/stabla_geom.php")
	v.SetDefault("network.timeout", 40*time.Second)
	v.SetDefault("network.user_agent", "citymesh/1.0")
	v.SetDefault("generation.seed", 0)
	v.SetDefault("generation.height_per_level", 4.0)
	v.SetDefault("generation.max_extent", 0.2)
	v.SetDefault("generation.concurrency", 0)
	v.SetDefault("cache.path", "")
	v.SetDefault("cache.ttl", 24*time.Hour)
	v.SetDefault("export.compression", "zstd")
	v.SetDefault("export.solid_limit", 256)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.format", "console")
}

// Load reads configuration from path, or from FileName in the working
// directory when path is empty, and from the environment. A missing
// default file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(strings.TrimSuffix(FileName, ".yaml"))
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Default returns the built-in configuration, ignoring files and
// environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(err)
	}

	return &cfg
}

// SaveTo writes the configuration as YAML. It refuses to overwrite an
// existing file unless force is set.
func (c *Config) SaveTo(path string, force bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !force {
		flags |= os.O_EXCL
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return eris.Wrapf(ErrExists, "%s", path)
		}

		return eris.Wrapf(err, "config: create %s", path)
	}

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)

	if err = enc.Encode(c); err != nil {
		f.Close() //nolint:errcheck
		return eris.Wrapf(err, "config: encode %s", path)
	}

	if err = enc.Close(); err != nil {
		f.Close() //nolint:errcheck
		return eris.Wrapf(err, "config: flush %s", path)
	}

	return f.Close()
}
