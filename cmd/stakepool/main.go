// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/vechain/stakepool/api"
	"github.com/vechain/stakepool/cmd/stakepool/httpserver"
	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/metrics"
	"github.com/vechain/stakepool/runtime"
	"github.com/vechain/stakepool/state"
	cli "gopkg.in/urfave/cli.v1"
)

var (
	version   string
	gitCommit string
	gitTag    string

	logger = log.WithContext("pkg", "main")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "stakepool",
		Usage:     "Staking pool ledger node",
		Copyright: "2025 VeChain Foundation <https://vechain.org/>",
		Flags: []cli.Flag{
			configFlag,
			dataDirFlag,
			dbEngineFlag,
			cacheFlag,
			recordCacheFlag,
			programFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiTimeoutFlag,
			enableAPILogsFlag,
			apiSlowQueriesThresholdFlag,
			apiLog5xxErrorsFlag,
			verbosityFlag,
			jsonLogsFlag,
			enableMetricsFlag,
			metricsAddrFlag,
			enableAdminFlag,
			adminAddrFlag,
		},
		Action: defaultAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	exitSignal := handleExitSignal()
	defer func() { logger.Info("exited") }()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	logLevel := initLogger(cfg)

	program, err := cfg.ProgramAddress()
	if err != nil {
		return err
	}

	if cfg.Metrics.Enabled {
		metrics.InitializePrometheusMetrics()
		url, closeFunc, err := httpserver.StartMetricsServer(cfg.Metrics.Addr)
		if err != nil {
			return err
		}
		defer func() { logger.Info("stopping metrics server..."); closeFunc() }()
		logger.Info("metrics server started", "url", url)
	}

	store, dir, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing ledger database..."); store.Close() }()

	rt := runtime.New(state.NewStater(store, cfg.RecordCache), program)
	defer rt.Close()

	var apiLogs atomic.Bool
	apiLogs.Store(cfg.API.Logs)

	if cfg.Admin.Enabled {
		url, closeFunc, err := httpserver.StartAdminServer(cfg.Admin.Addr, logLevel, &apiLogs, rt)
		if err != nil {
			return err
		}
		defer func() { logger.Info("stopping admin server..."); closeFunc() }()
		logger.Info("admin server started", "url", url)
	}

	handler, closeSubs := api.New(rt, api.Options{
		AllowedOrigins:       cfg.API.Cors,
		EnableReqLogger:      &apiLogs,
		SlowQueriesThreshold: cfg.slowQueriesThreshold(),
		Log5xxErrors:         cfg.API.Log5xxErrors,
		EnableMetrics:        cfg.Metrics.Enabled,
	})
	apiURL, closeAPI, err := httpserver.StartAPIServer(cfg.API.Addr, handler, cfg.apiTimeout())
	if err != nil {
		return err
	}
	defer func() { logger.Info("stopping API server..."); closeSubs(); closeAPI() }()

	printStartupMessage(cfg, rt, dir, apiURL)

	<-exitSignal.Done()
	return nil
}

func printStartupMessage(cfg *Config, rt *runtime.Runtime, dir, apiURL string) {
	fmt.Printf(`Starting %v
    Program      [ %v ]
    Database     [ %v %v ]
    API portal   [ %v ]
`,
		"stakepool "+fullVersion(),
		rt.Program(),
		cfg.DBEngine, dir,
		apiURL)
}
