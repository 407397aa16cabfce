// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/vechain/stakepool/thor"
	cli "gopkg.in/urfave/cli.v1"
	"gopkg.in/yaml.v3"
)

// Config is the node configuration. Every field has a command line flag.
type Config struct {
	DataDir     string `yaml:"data-dir"`
	DBEngine    string `yaml:"db-engine"`
	Cache       int    `yaml:"cache"`
	RecordCache int    `yaml:"record-cache"`
	Program     string `yaml:"program"`

	API struct {
		Addr                 string `yaml:"addr"`
		Cors                 string `yaml:"cors"`
		TimeoutMs            int    `yaml:"timeout-ms"`
		Logs                 bool   `yaml:"logs"`
		SlowQueriesThreshold int    `yaml:"slow-queries-threshold-ms"`
		Log5xxErrors         bool   `yaml:"log-5xx-errors"`
	} `yaml:"api"`

	Log struct {
		Verbosity int  `yaml:"verbosity"`
		JSON      bool `yaml:"json"`
	} `yaml:"log"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr"`
	} `yaml:"metrics"`

	Admin struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr"`
	} `yaml:"admin"`
}

// flagger is the part of cli.Context the config reads from.
type flagger interface {
	String(name string) string
	Int(name string) int
	Bool(name string) bool
	IsSet(name string) bool
}

// loadConfig starts from the flag defaults, overlays the config file if any, then the flags
// explicitly set.
func loadConfig(ctx flagger) (*Config, error) {
	var cfg Config
	apply := func(all bool) {
		set := func(name string) bool { return all || ctx.IsSet(name) }
		if set(dataDirFlag.Name) {
			cfg.DataDir = ctx.String(dataDirFlag.Name)
		}
		if set(dbEngineFlag.Name) {
			cfg.DBEngine = ctx.String(dbEngineFlag.Name)
		}
		if set(cacheFlag.Name) {
			cfg.Cache = ctx.Int(cacheFlag.Name)
		}
		if set(recordCacheFlag.Name) {
			cfg.RecordCache = ctx.Int(recordCacheFlag.Name)
		}
		if set(programFlag.Name) {
			cfg.Program = ctx.String(programFlag.Name)
		}
		if set(apiAddrFlag.Name) {
			cfg.API.Addr = ctx.String(apiAddrFlag.Name)
		}
		if set(apiCorsFlag.Name) {
			cfg.API.Cors = ctx.String(apiCorsFlag.Name)
		}
		if set(apiTimeoutFlag.Name) {
			cfg.API.TimeoutMs = ctx.Int(apiTimeoutFlag.Name)
		}
		if set(enableAPILogsFlag.Name) {
			cfg.API.Logs = ctx.Bool(enableAPILogsFlag.Name)
		}
		if set(apiSlowQueriesThresholdFlag.Name) {
			cfg.API.SlowQueriesThreshold = ctx.Int(apiSlowQueriesThresholdFlag.Name)
		}
		if set(apiLog5xxErrorsFlag.Name) {
			cfg.API.Log5xxErrors = ctx.Bool(apiLog5xxErrorsFlag.Name)
		}
		if set(verbosityFlag.Name) {
			cfg.Log.Verbosity = ctx.Int(verbosityFlag.Name)
		}
		if set(jsonLogsFlag.Name) {
			cfg.Log.JSON = ctx.Bool(jsonLogsFlag.Name)
		}
		if set(enableMetricsFlag.Name) {
			cfg.Metrics.Enabled = ctx.Bool(enableMetricsFlag.Name)
		}
		if set(metricsAddrFlag.Name) {
			cfg.Metrics.Addr = ctx.String(metricsAddrFlag.Name)
		}
		if set(enableAdminFlag.Name) {
			cfg.Admin.Enabled = ctx.Bool(enableAdminFlag.Name)
		}
		if set(adminAddrFlag.Name) {
			cfg.Admin.Addr = ctx.String(adminAddrFlag.Name)
		}
	}

	apply(true)
	if path := ctx.String(configFlag.Name); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read config")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(err, "decode config")
		}
		apply(false)
	}
	return &cfg, cfg.validate()
}

func (c *Config) validate() error {
	switch c.DBEngine {
	case "leveldb", "pebble", "memory":
	default:
		return errors.Errorf("unsupported db engine %q", c.DBEngine)
	}
	if c.Cache < 0 || c.RecordCache < 0 {
		return errors.New("cache size must not be negative")
	}
	if c.Log.Verbosity < 0 {
		return errors.New("verbosity must not be negative")
	}
	if _, err := c.ProgramAddress(); err != nil {
		return err
	}
	return nil
}

// ProgramAddress returns the configured program, or the default one.
func (c *Config) ProgramAddress() (thor.Address, error) {
	if c.Program == "" {
		return thor.StakePoolProgram, nil
	}
	addr, err := thor.ParseAddress(c.Program)
	if err != nil {
		return thor.Address{}, errors.WithMessage(err, "program")
	}
	return addr, nil
}

func (c *Config) apiTimeout() time.Duration {
	return time.Duration(c.API.TimeoutMs) * time.Millisecond
}

func (c *Config) slowQueriesThreshold() time.Duration {
	return time.Duration(c.API.SlowQueriesThreshold) * time.Millisecond
}

var _ flagger = (*cli.Context)(nil)
