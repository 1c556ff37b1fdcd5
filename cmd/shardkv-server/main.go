/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
Package main is the entry point for the shardkv server.

Startup Flow:
=============

 1. Parse command-line flags for configuration, layered on top of any
    config file and environment variables already resolved by
    internal/config.
 2. Construct the storage Engine, which replays its WAL before this
    returns, so recovery completes before any traffic is accepted.
 3. Start the Prometheus /metrics HTTP endpoint.
 4. Start the RPC server and block on its accept loop.
 5. On SIGINT/SIGTERM, stop the RPC server and close the Engine.

Command-Line Flags:
===================

  -wal-path        : path to the write-ahead log file
  -stripe-count     : number of stripe locks
  -max-key-bytes    : maximum accepted key length
  -max-value-bytes  : maximum accepted value length
  -fsync-on-append  : fsync the WAL after every append (default: true)
  -rpc-addr         : address for the RPC listener
  -metrics-addr     : address for the Prometheus /metrics endpoint
  -log-level        : debug, info, warn, error
  -log-json         : emit logs as JSON
  -config           : path to a configuration file
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"shardkv/internal/banner"
	"shardkv/internal/config"
	"shardkv/internal/health"
	"shardkv/internal/logging"
	"shardkv/internal/metrics"
	"shardkv/internal/rpcserver"
	"shardkv/internal/storage"
)

func main() {
	cfgMgr := config.Global()
	if err := cfgMgr.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	cfg := cfgMgr.Get()

	walPath := flag.String("wal-path", cfg.WALPath, "path to the write-ahead log file")
	stripeCount := flag.Int("stripe-count", cfg.StripeCount, "number of stripe locks")
	maxKeyBytes := flag.Int("max-key-bytes", cfg.MaxKeyBytes, "maximum accepted key length in bytes")
	maxValueBytes := flag.Int("max-value-bytes", cfg.MaxValueBytes, "maximum accepted value length in bytes")
	fsyncOnAppend := flag.Bool("fsync-on-append", cfg.FsyncOnAppend, "fsync the WAL after every append")
	rpcAddr := flag.String("rpc-addr", cfg.RPCAddr, "address for the RPC listener")
	metricsAddr := flag.String("metrics-addr", cfg.MetricsAddr, "address for the Prometheus metrics endpoint")
	logLevel := flag.String("log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	logJSON := flag.Bool("log-json", cfg.LogJSON, "emit logs as JSON")
	configFile := flag.String("config", "", "path to a configuration file")
	showVersion := flag.Bool("version", false, "show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("shardkv version %s\n", banner.Version)
		return
	}

	if *configFile != "" {
		if err := cfgMgr.LoadFromFile(*configFile); err != nil {
			fmt.Fprintf(os.Stderr, "error loading config file: %v\n", err)
			os.Exit(1)
		}
		cfg = cfgMgr.Get()
	}

	banner.Print()

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "wal-path":
			cfg.WALPath = *walPath
		case "stripe-count":
			cfg.StripeCount = *stripeCount
		case "max-key-bytes":
			cfg.MaxKeyBytes = *maxKeyBytes
		case "max-value-bytes":
			cfg.MaxValueBytes = *maxValueBytes
		case "fsync-on-append":
			cfg.FsyncOnAppend = *fsyncOnAppend
		case "rpc-addr":
			cfg.RPCAddr = *rpcAddr
		case "metrics-addr":
			cfg.MetricsAddr = *metricsAddr
		case "log-level":
			cfg.LogLevel = *logLevel
		case "log-json":
			cfg.LogJSON = *logJSON
		}
	})

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	cfgMgr.Set(cfg)

	logging.SetGlobalLevel(logging.ParseLevel(cfg.LogLevel))
	logging.SetJSONMode(cfg.LogJSON)
	log := logging.NewLogger("main")

	if cfg.ConfigFile != "" {
		log.Info("configuration loaded", "file", cfg.ConfigFile)
	}

	banner.PrintServerWithConfig(cfg)

	registry := prometheus.NewRegistry()
	engineMetrics := metrics.NewEngineMetrics(registry)

	log.Info("opening write-ahead log", "path", cfg.WALPath)
	engine, err := storage.NewEngine(storage.Options{
		WALPath:       cfg.WALPath,
		StripeCount:   cfg.StripeCount,
		MaxKeyBytes:   cfg.MaxKeyBytes,
		MaxValueBytes: cfg.MaxValueBytes,
		FsyncOnAppend: cfg.FsyncOnAppend,
		Logger:        logging.NewLogger("engine"),
		Metrics:       engineMetrics,
	})
	if err != nil {
		log.Error("failed to initialize storage engine", "error", err)
		os.Exit(1)
	}

	checker := health.NewChecker(banner.Version)
	checker.RegisterCheck("wal", health.StorageCheck(func() error {
		_, err := os.Stat(cfg.WALPath)
		return err
	}))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	checker.RegisterHandlers(mux)
	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
	go func() {
		log.Info("metrics endpoint listening", "address", cfg.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server error", "error", err)
		}
	}()

	rpcSrv := rpcserver.New(cfg.RPCAddr, engine, logging.NewLogger("rpcserver"))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info("received shutdown signal", "signal", sig.String())

		if err := rpcSrv.Stop(); err != nil {
			log.Error("error stopping RPC server", "error", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsSrv.Shutdown(ctx); err != nil {
			log.Error("error stopping metrics server", "error", err)
		}

		if err := engine.Close(); err != nil {
			log.Error("error closing storage engine", "error", err)
		}

		log.Info("shardkv server stopped gracefully")
		os.Exit(0)
	}()

	fmt.Println()
	fmt.Println(banner.AnsiGreen + banner.AnsiBold + "shardkv server is ready" + banner.AnsiReset)
	fmt.Printf("  RPC:     %s\n", cfg.RPCAddr)
	fmt.Printf("  Metrics: http://localhost%s/metrics\n", cfg.MetricsAddr)
	fmt.Println()

	log.Info("starting RPC server", "address", cfg.RPCAddr)
	if err := rpcSrv.Start(); err != nil {
		log.Error("RPC server error", "error", err)
		os.Exit(1)
	}
}
