// Copyright 2023-2024 daviszhen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package util

import (
	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
)

type NullPolicy string

const (
	NullPolicySkip   NullPolicy = "skip"
	NullPolicyReject NullPolicy = "reject"
)

type DebugOptions struct {
	ShowRaw     bool `toml:"showRaw"`
	MaxScanRows int  `toml:"maxScanRows"`
	PrintPlan   bool `toml:"printPlan"`
}

type BuildOptions struct {
	Threads    int        `toml:"threads"`
	NullPolicy NullPolicy `toml:"nullPolicy"`
}

type CatalogOptions struct {
	// collations that must be applied even for equality
	EqualityRequiresCollation []string `toml:"equalityRequiresCollation"`
	Languages                 []string `toml:"languages"`
}

type LogOptions struct {
	Level string `toml:"level"`
}

type Config struct {
	Debug   DebugOptions   `toml:"debug"`
	Build   BuildOptions   `toml:"build"`
	Catalog CatalogOptions `toml:"catalog"`
	Log     LogOptions     `toml:"log"`
}

func DefaultConfig() *Config {
	return &Config{
		Build: BuildOptions{
			Threads:    1,
			NullPolicy: NullPolicySkip,
		},
		Catalog: CatalogOptions{
			EqualityRequiresCollation: []string{"da"},
			Languages:                 []string{"da", "de", "en", "fr", "sv"},
		},
		Log: LogOptions{
			Level: "info",
		},
	}
}

// LoadConfig decodes the toml file at path over the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if !FileIsValid(path) {
		return nil, errors.Newf("config file %q does not exist", path)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, errors.Wrapf(err, "decode config %q", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) Validate() error {
	if cfg.Build.Threads <= 0 {
		return errors.Newf("build.threads must be positive, got %d", cfg.Build.Threads)
	}
	switch cfg.Build.NullPolicy {
	case NullPolicySkip, NullPolicyReject:
	default:
		return errors.Newf("unknown build.nullPolicy %q", cfg.Build.NullPolicy)
	}
	if cfg.Debug.MaxScanRows < 0 {
		return errors.Newf("debug.maxScanRows must not be negative")
	}
	return nil
}
