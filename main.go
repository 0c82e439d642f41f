package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	debugpkg "runtime/debug"
	"syscall"
	"time"
)

// buildTime is stamped by the release build via -ldflags.
var buildTime = "dev"

const softwareName = "shareSim"

func main() {
	// Top-level panic handler: capture unexpected panics to panic.log with a
	// stack trace so operators can inspect them.
	defer func() {
		if r := recover(); r != nil {
			path := "panic.log"
			if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
				defer f.Close()
				ts := time.Now().UTC().Format(time.RFC3339)
				fmt.Fprintf(f, "[%s] panic: %v\nbuild_time=%s\n%s\n\n",
					ts, r, buildTime, debugpkg.Stack())
			}
			panic(r)
		}
	}()

	code := run(os.Args[1:], os.Stderr)
	logger.Stop()
	os.Exit(code)
}

// run executes one invocation and returns the process exit status. It never
// exits itself and leaves the logger running.
func run(args []string, errOut io.Writer) int {
	cl, err := parseCommandLine(args, errOut)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(errOut, err)
		return exitUsage
	}

	if cl.writeExampleConfig != "" {
		if err := writeExampleConfig(cl.writeExampleConfig); err != nil {
			logger.Error("write example config", "error", err)
			return exitFailure
		}
		logger.Info("wrote example config", "path", cl.writeExampleConfig)
		return 0
	}

	cfg, fromFile, err := loadConfig(cl.configPath)
	if err != nil {
		logger.Error("config", "path", cl.configPath, "error", err)
		return exitUsage
	}
	applyRuntimeOverrides(&cfg, cl.overrides)
	configureLogging(cfg, cl.stdout)

	if cl.verifyDir != "" {
		return runVerify(cl.verifyDir, cl.verifyWorkers)
	}

	if err := validateConfig(&cfg); err != nil {
		logger.Error("invalid configuration", "error", err)
		return exitUsage
	}
	if err := resolveRPCTipCredentials(&cfg); err != nil {
		logger.Error("rpc auth", "error", err)
		return exitUsage
	}
	if fromFile {
		logger.Info("loaded config", "path", cl.configPath)
	}

	SetChainParams(cfg.Network)
	setSha256Implementation(cfg.UseSha256Simd)

	rng := newRandomSource(cfg.Seed)
	agents := defaultAgentCatalog()
	pool, reused, err := loadOrBuildIdentityPool(cfg.RosterDB, rng, cfg.Population, agents)
	if err != nil {
		logger.Error("build miner population", "error", err)
		return exitFailure
	}
	ips, addresses := pool.distinctCounts()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if cfg.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Duration)
		defer cancel()
	}

	stats := newSimStats()
	sim := newSimulation(cfg, pool, newTipSource(cfg), rng, agents, stats)

	tipFrom := cfg.TipURL
	if cfg.TipSource == tipSourceRPC {
		tipFrom = cfg.RPCURL
	}
	logger.Info("start",
		"software", softwareName,
		"build_time", buildTime,
		"base_dir", cfg.BaseDir,
		"shares_per_sec", cfg.SharesPerSecond,
		"sharelog_every", humanDuration(cfg.RotateInterval),
		"conns", pool.Len(),
		"ips", ips,
		"addresses", addresses,
		"roster_reused", reused,
		"tip_source", cfg.TipSource,
		"tip_from", tipFrom,
	)

	started := time.Now()
	runErr := sim.run(ctx)
	stats.logSummary(time.Since(started))
	if runErr != nil {
		logger.Error("simulation", "error", runErr)
		return exitFailure
	}
	return 0
}

func runVerify(dir string, workers int) int {
	report, err := verifySharelogTree(dir, workers)
	logVerifyReport(dir, report)
	switch {
	case err != nil:
		logger.Error("verify", "error", err)
		return exitFailure
	case report.Violations > 0:
		return exitFailure
	}
	return 0
}
