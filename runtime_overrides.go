package main

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// runtimeOverrides carries command-line values that were explicitly set.
// nil means "keep what the config file or defaults say".
type runtimeOverrides struct {
	baseDir         *string
	pollSeconds     *int
	httpTimeout     *int
	tipSource       *string
	tipURL          *string
	rpcURL          *string
	rpcCookiePath   *string
	sharesPerSecond *float64
	rotateSeconds   *int
	ipCount         *int
	minBTCPerIP     *int
	maxBTCPerIP     *int
	minWorkers      *int
	maxWorkers      *int
	minAgents       *int
	maxAgents       *int
	clientIDStart   *int64
	network         *string
	rosterDB        *string
	fixedNTime      *string
	workInfoIDBits  *int
	seed            *uint64
	sha256Simd      *bool
	duration        *time.Duration
	logFile         *string
	debug           *bool
}

type commandLine struct {
	configPath         string
	writeExampleConfig string
	verifyDir          string
	verifyWorkers      int
	stdout             bool
	overrides          runtimeOverrides
}

func stringFlag(fs *flag.FlagSet, dst **string, name, usage string) {
	fs.Func(name, usage, func(v string) error {
		*dst = &v
		return nil
	})
}

func intFlag(fs *flag.FlagSet, dst **int, name, usage string) {
	fs.Func(name, usage, func(v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		*dst = &n
		return nil
	})
}

func floatFlag(fs *flag.FlagSet, dst **float64, name, usage string) {
	fs.Func(name, usage, func(v string) error {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return err
		}
		*dst = &f
		return nil
	})
}

func boolFlag(fs *flag.FlagSet, dst **bool, name, usage string) {
	fs.BoolFunc(name, usage, func(v string) error {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		*dst = &b
		return nil
	})
}

// parseCommandLine parses args (without the program name). Output from the
// flag package goes to errOut.
func parseCommandLine(args []string, errOut io.Writer) (commandLine, error) {
	var cl commandLine
	o := &cl.overrides
	fs := flag.NewFlagSet("sharesim", flag.ContinueOnError)
	fs.SetOutput(errOut)

	fs.StringVar(&cl.configPath, "config", defaultConfigPath, "path to TOML config (optional)")
	fs.StringVar(&cl.writeExampleConfig, "write-example-config", "", "write an example TOML config to this path and exit")
	fs.StringVar(&cl.verifyDir, "verify", "", "verify the sharelog tree under this directory and exit")
	fs.IntVar(&cl.verifyWorkers, "verify-workers", 0, "files verified concurrently (0 = NumCPU)")
	fs.BoolVar(&cl.stdout, "stdout", true, "write log lines to stdout")

	stringFlag(fs, &o.baseDir, "base-dir", "root output directory for round folders")
	intFlag(fs, &o.pollSeconds, "poll-seconds", "seconds between tip height polls")
	intFlag(fs, &o.httpTimeout, "http-timeout", "tip request timeout in seconds")
	stringFlag(fs, &o.tipSource, "tip-source", "tip height source: http or rpc")
	stringFlag(fs, &o.tipURL, "tip-url", "plain-text tip height endpoint")
	stringFlag(fs, &o.rpcURL, "rpc-url", "bitcoind RPC URL for -tip-source=rpc")
	stringFlag(fs, &o.rpcCookiePath, "rpc-cookie", "bitcoind cookie path for -tip-source=rpc")
	floatFlag(fs, &o.sharesPerSecond, "shares-per-sec", "target shares per second")
	intFlag(fs, &o.rotateSeconds, "sharelog-interval-seconds", "seconds before a sharelog file is rotated")
	intFlag(fs, &o.ipCount, "users-ip", "number of distinct miner IPs")
	intFlag(fs, &o.minBTCPerIP, "min-btc-per-ip", "minimum payout addresses per IP")
	intFlag(fs, &o.maxBTCPerIP, "max-btc-per-ip", "maximum payout addresses per IP")
	intFlag(fs, &o.minWorkers, "min-workers-per-btc", "minimum workers per payout address")
	intFlag(fs, &o.maxWorkers, "max-workers-per-btc", "maximum workers per payout address")
	intFlag(fs, &o.minAgents, "min-agents-per-pair", "minimum agents per (ip, address, worker)")
	intFlag(fs, &o.maxAgents, "max-agents-per-pair", "maximum agents per (ip, address, worker)")
	fs.Func("clientid-start", "first client id", func(v string) error {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return err
		}
		o.clientIDStart = &n
		return nil
	})
	stringFlag(fs, &o.network, "network", "address encoding network: mainnet, testnet, signet, regtest")
	stringFlag(fs, &o.rosterDB, "roster-db", "sqlite file that pins the miner fleet across runs")
	stringFlag(fs, &o.fixedNTime, "fixed-ntime", "fixed 8-hex-digit ntime for every share")
	intFlag(fs, &o.workInfoIDBits, "workinfoid-bits", "bit width of random workinfoid values")
	fs.Func("seed", "random seed (0 = from clock)", func(v string) error {
		n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return err
		}
		o.seed = &n
		return nil
	})
	boolFlag(fs, &o.sha256Simd, "sha256-simd", "use SIMD SHA-256 for share hashes")
	fs.Func("duration", "stop after this long (e.g. 5m); 0 runs until interrupted", func(v string) error {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		o.duration = &d
		return nil
	})
	stringFlag(fs, &o.logFile, "log-file", "append log lines to this file")
	boolFlag(fs, &o.debug, "debug", "enable debug logging")

	if err := fs.Parse(args); err != nil {
		return cl, err
	}
	if fs.NArg() > 0 {
		return cl, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	return cl, nil
}

func applyRuntimeOverrides(cfg *Config, o runtimeOverrides) {
	setString(&cfg.BaseDir, o.baseDir)
	setSeconds(&cfg.PollInterval, o.pollSeconds)
	setSeconds(&cfg.HTTPTimeout, o.httpTimeout)
	setString(&cfg.TipSource, o.tipSource)
	setString(&cfg.TipURL, o.tipURL)
	setString(&cfg.RPCURL, o.rpcURL)
	setString(&cfg.RPCCookiePath, o.rpcCookiePath)
	if o.sharesPerSecond != nil {
		cfg.SharesPerSecond = *o.sharesPerSecond
	}
	setSeconds(&cfg.RotateInterval, o.rotateSeconds)
	setInt(&cfg.Population.IPCount, o.ipCount)
	setInt(&cfg.Population.MinBTCPerIP, o.minBTCPerIP)
	setInt(&cfg.Population.MaxBTCPerIP, o.maxBTCPerIP)
	setInt(&cfg.Population.MinWorkersPerBTC, o.minWorkers)
	setInt(&cfg.Population.MaxWorkersPerBTC, o.maxWorkers)
	setInt(&cfg.Population.MinAgentsPerPair, o.minAgents)
	setInt(&cfg.Population.MaxAgentsPerPair, o.maxAgents)
	if o.clientIDStart != nil {
		cfg.Population.ClientIDStart = *o.clientIDStart
	}
	setString(&cfg.Network, o.network)
	setString(&cfg.RosterDB, o.rosterDB)
	// Not trimmed here; validateConfig normalizes it.
	if o.fixedNTime != nil {
		cfg.FixedNTime = *o.fixedNTime
	}
	setInt(&cfg.WorkInfoIDBits, o.workInfoIDBits)
	if o.seed != nil {
		cfg.Seed = *o.seed
	}
	setBool(&cfg.UseSha256Simd, o.sha256Simd)
	if o.duration != nil {
		cfg.Duration = *o.duration
	}
	setString(&cfg.LogFile, o.logFile)
	setBool(&cfg.LogDebug, o.debug)
}
