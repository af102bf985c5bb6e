// Copyright 2026 The latstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads latstat settings and analysis presets.
//
// Settings come, in increasing precedence, from built-in defaults, a
// YAML file (latstat.yaml in the working directory or the user config
// directory), a .env file and LATSTAT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/uarchlab/latstat/analysis"
)

// File holds global settings and named presets.
type File struct {
	// Workers bounds per-group parallelism.
	Workers int `mapstructure:"workers" yaml:"workers"`

	// Format is the default report format.
	Format string `mapstructure:"format" yaml:"format"`

	// Archive is a "driver:dsn" report archive, or empty.
	Archive string `mapstructure:"archive" yaml:"archive,omitempty"`

	// Codec compresses archived reports: none, zstd or lz4.
	Codec string `mapstructure:"codec" yaml:"codec,omitempty"`

	// Credentials is a service account key file used for gs://
	// outputs. If empty, Application Default Credentials are used.
	Credentials string `mapstructure:"credentials" yaml:"credentials,omitempty"`

	// Presets holds named analyses. User presets replace built-in
	// presets of the same name.
	Presets map[string]analysis.Config `mapstructure:"-" yaml:"presets,omitempty"`

	// Path is the file the settings were read from, if any.
	Path string `mapstructure:"-" yaml:"-"`
}

// Load reads settings from cfgFile, or from the default locations if
// cfgFile is empty. An explicitly named file must exist.
func Load(cfgFile string) (*File, error) {
	// A missing .env is the common case.
	_ = godotenv.Load(".env")

	v := viper.New()
	v.SetEnvPrefix("LATSTAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("workers", 1)
	v.SetDefault("format", "text")
	v.SetDefault("archive", "")
	v.SetDefault("codec", "zstd")
	v.SetDefault("credentials", "")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "latstat"))
		}
		v.SetConfigName("latstat")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var f File
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	f.Path = v.ConfigFileUsed()

	f.Presets = Builtin()
	for name := range v.GetStringMap("presets") {
		sub := v.Sub("presets." + name)
		if sub == nil {
			return nil, fmt.Errorf("preset %s: not a mapping", name)
		}
		// Omitted fields keep their default values.
		c := analysis.DefaultConfig()
		if err := sub.Unmarshal(&c); err != nil {
			return nil, fmt.Errorf("preset %s: %w", name, err)
		}
		if c.Name == "" {
			c.Name = name
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("preset %s: %w", name, err)
		}
		f.Presets[name] = c
	}
	return &f, nil
}

// Preset returns the named preset.
func (f *File) Preset(name string) (analysis.Config, error) {
	c, ok := f.Presets[strings.ToLower(name)]
	if !ok {
		return analysis.Config{}, fmt.Errorf("unknown preset %q (have %s)", name, strings.Join(f.PresetNames(), ", "))
	}
	return c, nil
}

// PresetNames returns the names of all presets in sorted order.
func (f *File) PresetNames() []string {
	names := make([]string, 0, len(f.Presets))
	for name := range f.Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Save writes f to path as YAML.
func Save(f *File, path string) error {
	b, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
