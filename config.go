package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml"
)

const (
	defaultConfigPath      = "sharesim.toml"
	defaultBaseDir         = "./ckpool/logs"
	defaultPollInterval    = 5 * time.Second
	defaultHTTPTimeout     = 10 * time.Second
	defaultSharesPerSecond = 3.5
	defaultRotateInterval  = 60 * time.Second
	defaultClientIDStart   = int64(564466077000000)
	defaultWorkInfoIDBits  = 63
	defaultRPCURL          = "http://127.0.0.1:8332"

	tipSourceHTTP = "http"
	tipSourceRPC  = "rpc"
)

var errInvalidFixedNTime = errors.New("fixed_ntime must be exactly 8 hex characters (e.g. 6968c772)")

type Config struct {
	BaseDir             string
	RotateInterval      time.Duration
	ShareLogBufferBytes int
	FsyncShareLog       bool

	TipSource     string
	TipURL        string
	PollInterval  time.Duration
	HTTPTimeout   time.Duration
	RPCURL        string
	RPCUser       string
	RPCPass       string
	RPCCookiePath string

	SharesPerSecond float64
	FixedNTime      string
	WorkInfoIDBits  int
	Seed            uint64
	UseSha256Simd   bool
	// Duration stops the run after a fixed wall time; zero runs until
	// interrupted.
	Duration time.Duration

	Population PopulationConfig
	Network    string
	RosterDB   string

	LogFile  string
	LogDebug bool
}

func defaultConfig() Config {
	return Config{
		BaseDir:         defaultBaseDir,
		RotateInterval:  defaultRotateInterval,
		TipSource:       tipSourceHTTP,
		TipURL:          defaultTipURL,
		PollInterval:    defaultPollInterval,
		HTTPTimeout:     defaultHTTPTimeout,
		RPCURL:          defaultRPCURL,
		SharesPerSecond: defaultSharesPerSecond,
		WorkInfoIDBits:  defaultWorkInfoIDBits,
		Population: PopulationConfig{
			IPCount:          60,
			MinBTCPerIP:      1,
			MaxBTCPerIP:      3,
			MinWorkersPerBTC: 1,
			MaxWorkersPerBTC: 3,
			MinAgentsPerPair: 1,
			MaxAgentsPerPair: 2,
			ClientIDStart:    defaultClientIDStart,
		},
		Network: "mainnet",
	}
}

type outputFileConfig struct {
	BaseDir       *string `toml:"base_dir" comment:"root of the <round hex>/<file>.sharelog tree"`
	RotateSeconds *int    `toml:"rotate_seconds" comment:"seconds a sharelog stays open before rotating"`
	BufferBytes   *int    `toml:"buffer_bytes" comment:"write buffer size; 0 uses the default"`
	Fsync         *bool   `toml:"fsync" comment:"fsync each sharelog when it is closed"`
}

type oracleFileConfig struct {
	Source             *string `toml:"source" comment:"http (plain-text tip endpoint) or rpc (bitcoind getblockcount)"`
	TipURL             *string `toml:"tip_url"`
	PollSeconds        *int    `toml:"poll_seconds"`
	HTTPTimeoutSeconds *int    `toml:"http_timeout_seconds"`
	RPCURL             *string `toml:"rpc_url"`
	RPCUser            *string `toml:"rpc_user"`
	RPCPass            *string `toml:"rpc_pass"`
	RPCCookiePath      *string `toml:"rpc_cookie_path"`
}

type emissionFileConfig struct {
	SharesPerSecond *float64 `toml:"shares_per_second"`
	FixedNTime      *string  `toml:"fixed_ntime" comment:"8 hex digits; empty randomizes ntime per share"`
	WorkInfoIDBits  *int     `toml:"workinfoid_bits"`
	Seed            *int64   `toml:"seed" comment:"0 seeds from the clock"`
	UseSha256Simd   *bool    `toml:"use_sha256_simd"`
}

type populationFileConfig struct {
	IPCount          *int    `toml:"ip_count"`
	MinBTCPerIP      *int    `toml:"min_btc_per_ip"`
	MaxBTCPerIP      *int    `toml:"max_btc_per_ip"`
	MinWorkersPerBTC *int    `toml:"min_workers_per_btc"`
	MaxWorkersPerBTC *int    `toml:"max_workers_per_btc"`
	MinAgentsPerPair *int    `toml:"min_agents_per_pair"`
	MaxAgentsPerPair *int    `toml:"max_agents_per_pair"`
	ClientIDStart    *int64  `toml:"clientid_start"`
	Network          *string `toml:"network" comment:"mainnet, testnet, signet or regtest address encoding"`
	RosterDB         *string `toml:"roster_db" comment:"optional sqlite file that pins the fleet across runs"`
}

type loggingFileConfig struct {
	File  *string `toml:"file"`
	Debug *bool   `toml:"debug"`
}

type fileConfig struct {
	Output     outputFileConfig     `toml:"output"`
	Oracle     oracleFileConfig     `toml:"oracle"`
	Emission   emissionFileConfig   `toml:"emission"`
	Population populationFileConfig `toml:"population"`
	Logging    loggingFileConfig    `toml:"logging"`
}

// loadConfig layers the TOML file at path over the defaults. A missing file
// is not an error; the bool reports whether one was read.
func loadConfig(path string) (Config, bool, error) {
	cfg := defaultConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, false, nil
	}
	fc, ok, err := loadConfigFile(path)
	if err != nil {
		return cfg, false, err
	}
	if ok {
		applyFileConfig(&cfg, *fc)
	}
	return cfg, ok, nil
}

func loadConfigFile(path string) (*fileConfig, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read %s: %w", path, err)
	}
	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return nil, true, fmt.Errorf("parse %s: %w", path, err)
	}
	return &fc, true, nil
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setSeconds(dst *time.Duration, v *int) {
	if v != nil {
		*dst = seconds(*v)
	}
}

func applyFileConfig(cfg *Config, fc fileConfig) {
	setString(&cfg.BaseDir, fc.Output.BaseDir)
	setSeconds(&cfg.RotateInterval, fc.Output.RotateSeconds)
	setInt(&cfg.ShareLogBufferBytes, fc.Output.BufferBytes)
	setBool(&cfg.FsyncShareLog, fc.Output.Fsync)

	setString(&cfg.TipSource, fc.Oracle.Source)
	setString(&cfg.TipURL, fc.Oracle.TipURL)
	setSeconds(&cfg.PollInterval, fc.Oracle.PollSeconds)
	setSeconds(&cfg.HTTPTimeout, fc.Oracle.HTTPTimeoutSeconds)
	setString(&cfg.RPCURL, fc.Oracle.RPCURL)
	setString(&cfg.RPCUser, fc.Oracle.RPCUser)
	setString(&cfg.RPCPass, fc.Oracle.RPCPass)
	setString(&cfg.RPCCookiePath, fc.Oracle.RPCCookiePath)

	if fc.Emission.SharesPerSecond != nil {
		cfg.SharesPerSecond = *fc.Emission.SharesPerSecond
	}
	setString(&cfg.FixedNTime, fc.Emission.FixedNTime)
	setInt(&cfg.WorkInfoIDBits, fc.Emission.WorkInfoIDBits)
	if fc.Emission.Seed != nil {
		cfg.Seed = uint64(*fc.Emission.Seed)
	}
	setBool(&cfg.UseSha256Simd, fc.Emission.UseSha256Simd)

	pop := fc.Population
	setInt(&cfg.Population.IPCount, pop.IPCount)
	setInt(&cfg.Population.MinBTCPerIP, pop.MinBTCPerIP)
	setInt(&cfg.Population.MaxBTCPerIP, pop.MaxBTCPerIP)
	setInt(&cfg.Population.MinWorkersPerBTC, pop.MinWorkersPerBTC)
	setInt(&cfg.Population.MaxWorkersPerBTC, pop.MaxWorkersPerBTC)
	setInt(&cfg.Population.MinAgentsPerPair, pop.MinAgentsPerPair)
	setInt(&cfg.Population.MaxAgentsPerPair, pop.MaxAgentsPerPair)
	if pop.ClientIDStart != nil {
		cfg.Population.ClientIDStart = *pop.ClientIDStart
	}
	setString(&cfg.Network, pop.Network)
	setString(&cfg.RosterDB, pop.RosterDB)

	setString(&cfg.LogFile, fc.Logging.File)
	setBool(&cfg.LogDebug, fc.Logging.Debug)
}

// buildFileConfig is the inverse of applyFileConfig, used to write the
// example file. Secrets are left blank.
func buildFileConfig(cfg Config) fileConfig {
	stringPtr := func(v string) *string { return &v }
	intPtr := func(v int) *int { return &v }
	boolPtr := func(v bool) *bool { return &v }
	secondsPtr := func(d time.Duration) *int { return intPtr(int(d / time.Second)) }
	clientIDStart := cfg.Population.ClientIDStart
	seed := int64(cfg.Seed)
	rate := cfg.SharesPerSecond

	return fileConfig{
		Output: outputFileConfig{
			BaseDir:       stringPtr(cfg.BaseDir),
			RotateSeconds: secondsPtr(cfg.RotateInterval),
			BufferBytes:   intPtr(cfg.ShareLogBufferBytes),
			Fsync:         boolPtr(cfg.FsyncShareLog),
		},
		Oracle: oracleFileConfig{
			Source:             stringPtr(cfg.TipSource),
			TipURL:             stringPtr(cfg.TipURL),
			PollSeconds:        secondsPtr(cfg.PollInterval),
			HTTPTimeoutSeconds: secondsPtr(cfg.HTTPTimeout),
			RPCURL:             stringPtr(cfg.RPCURL),
			RPCUser:            stringPtr(""),
			RPCPass:            stringPtr(""),
			RPCCookiePath:      stringPtr(cfg.RPCCookiePath),
		},
		Emission: emissionFileConfig{
			SharesPerSecond: &rate,
			FixedNTime:      stringPtr(cfg.FixedNTime),
			WorkInfoIDBits:  intPtr(cfg.WorkInfoIDBits),
			Seed:            &seed,
			UseSha256Simd:   boolPtr(cfg.UseSha256Simd),
		},
		Population: populationFileConfig{
			IPCount:          intPtr(cfg.Population.IPCount),
			MinBTCPerIP:      intPtr(cfg.Population.MinBTCPerIP),
			MaxBTCPerIP:      intPtr(cfg.Population.MaxBTCPerIP),
			MinWorkersPerBTC: intPtr(cfg.Population.MinWorkersPerBTC),
			MaxWorkersPerBTC: intPtr(cfg.Population.MaxWorkersPerBTC),
			MinAgentsPerPair: intPtr(cfg.Population.MinAgentsPerPair),
			MaxAgentsPerPair: intPtr(cfg.Population.MaxAgentsPerPair),
			ClientIDStart:    &clientIDStart,
			Network:          stringPtr(cfg.Network),
			RosterDB:         stringPtr(cfg.RosterDB),
		},
		Logging: loggingFileConfig{
			File:  stringPtr(cfg.LogFile),
			Debug: boolPtr(cfg.LogDebug),
		},
	}
}

func exampleConfigBytes() ([]byte, error) {
	data, err := toml.Marshal(buildFileConfig(defaultConfig()))
	if err != nil {
		return nil, fmt.Errorf("encode config example: %w", err)
	}
	header := []byte("# Generated shareSim example config (copy to sharesim.toml and edit as needed)\n\n")
	return append(header, data...), nil
}

func writeExampleConfig(path string) error {
	data, err := exampleConfigBytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// normalizeFixedNTime lower-cases and trims v. An empty result means ntime
// is randomized per share.
func normalizeFixedNTime(v string) (string, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return "", nil
	}
	if len(v) != 8 {
		return "", errInvalidFixedNTime
	}
	for i := 0; i < len(v); i++ {
		if !strings.ContainsRune(hexDigits, rune(v[i])) {
			return "", errInvalidFixedNTime
		}
	}
	return v, nil
}

// validateConfig rejects settings the simulation cannot run with. It runs
// before any directory, file or roster is created.
func validateConfig(cfg *Config) error {
	ntime, err := normalizeFixedNTime(cfg.FixedNTime)
	if err != nil {
		return err
	}
	cfg.FixedNTime = ntime

	if strings.TrimSpace(cfg.BaseDir) == "" {
		return fmt.Errorf("base_dir is required")
	}
	if cfg.RotateInterval <= 0 {
		return fmt.Errorf("rotate_seconds must be > 0, got %s", cfg.RotateInterval)
	}
	if cfg.ShareLogBufferBytes < 0 {
		return fmt.Errorf("buffer_bytes cannot be negative")
	}
	if cfg.PollInterval <= 0 {
		return fmt.Errorf("poll_seconds must be > 0, got %s", cfg.PollInterval)
	}
	if cfg.HTTPTimeout <= 0 {
		return fmt.Errorf("http_timeout_seconds must be > 0, got %s", cfg.HTTPTimeout)
	}
	cfg.TipSource = strings.ToLower(strings.TrimSpace(cfg.TipSource))
	switch cfg.TipSource {
	case tipSourceHTTP:
		if strings.TrimSpace(cfg.TipURL) == "" {
			return fmt.Errorf("tip_url is required for oracle.source=http")
		}
	case tipSourceRPC:
		if strings.TrimSpace(cfg.RPCURL) == "" {
			return fmt.Errorf("rpc_url is required for oracle.source=rpc")
		}
	default:
		return fmt.Errorf("oracle.source must be %q or %q, got %q", tipSourceHTTP, tipSourceRPC, cfg.TipSource)
	}
	if math.IsNaN(cfg.SharesPerSecond) || math.IsInf(cfg.SharesPerSecond, 0) || cfg.SharesPerSecond <= 0 {
		return fmt.Errorf("shares_per_second must be > 0, got %v", cfg.SharesPerSecond)
	}
	if cfg.WorkInfoIDBits < 1 || cfg.WorkInfoIDBits > 63 {
		return fmt.Errorf("workinfoid_bits must be between 1 and 63, got %d", cfg.WorkInfoIDBits)
	}
	if cfg.Duration < 0 {
		return fmt.Errorf("duration cannot be negative")
	}
	if _, ok := networkParams(cfg.Network); !ok {
		return fmt.Errorf("unknown network %q", cfg.Network)
	}
	return validatePopulation(cfg.Population)
}
