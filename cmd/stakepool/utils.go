// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/vechain/stakepool/kv"
	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/lvldb"
	"github.com/vechain/stakepool/pebbledb"
)

func fatal(args ...any) {
	var w io.Writer
	if runtime.GOOS == "windows" {
		// The SameFile check below doesn't work on Windows.
		// stdout is unlikely to get redirected though, so just print there.
		w = os.Stdout
	} else {
		outf, _ := os.Stdout.Stat()
		errf, _ := os.Stderr.Stat()
		if outf != nil && errf != nil && os.SameFile(outf, errf) {
			w = os.Stderr
		} else {
			w = io.MultiWriter(os.Stdout, os.Stderr)
		}
	}
	fmt.Fprint(w, "Fatal: ")
	fmt.Fprintln(w, args...)
	os.Exit(1)
}

// initLogger installs the root logger and returns its level, adjustable at runtime.
func initLogger(cfg *Config) *slog.LevelVar {
	lvl := &slog.LevelVar{}
	lvl.Set(log.FromLegacyLevel(cfg.Log.Verbosity))

	var handler slog.Handler
	if cfg.Log.JSON {
		handler = log.JSONHandlerWithLevel(os.Stdout, lvl)
	} else {
		useColor := (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) && os.Getenv("TERM") != "dumb"
		handler = log.NewTerminalHandlerWithLevel(os.Stderr, lvl, useColor)
	}
	log.SetDefault(log.NewLogger(handler))
	return lvl
}

func defaultDataDir() string {
	if home := homeDir(); home != "" {
		switch runtime.GOOS {
		case "darwin":
			return filepath.Join(home, "Library", "Application Support", "org.vechain.stakepool")
		case "windows":
			return filepath.Join(home, "AppData", "Roaming", "org.vechain.stakepool")
		default:
			return filepath.Join(home, ".org.vechain.stakepool")
		}
	}
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

// openStore opens the ledger database with the configured engine.
func openStore(cfg *Config) (kv.StoreCloser, string, error) {
	if cfg.DBEngine == "memory" {
		db, err := lvldb.NewMem()
		return db, "memory", err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, "", errors.Wrapf(err, "create data dir [%v]", cfg.DataDir)
	}

	switch cfg.DBEngine {
	case "pebble":
		dir := filepath.Join(cfg.DataDir, "ledger.pebble")
		db, err := pebbledb.New(dir, pebbledb.Options{CacheSize: cfg.Cache, MaxOpenFiles: 512})
		if err != nil {
			return nil, "", errors.Wrapf(err, "open ledger database [%v]", dir)
		}
		return db, dir, nil
	default:
		dir := filepath.Join(cfg.DataDir, "ledger.db")
		db, err := lvldb.New(dir, lvldb.Options{CacheSize: cfg.Cache, OpenFilesCacheCapacity: 512})
		if err != nil {
			return nil, "", errors.Wrapf(err, "open ledger database [%v]", dir)
		}
		return db, dir, nil
	}
}

// handleExitSignal returns a context canceled on the first interrupt. A second one kills the process.
func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-exitSignalCh
		log.Info("exit signal received", "signal", sig)
		cancel()

		<-exitSignalCh
		fatal("forced exit")
	}()
	return ctx
}
