package main

import (
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestValidateConfigFixedNTime(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "", false},
		{"6968c772", "6968c772", false},
		{"  6968C772 ", "6968c772", false},
		{"6968c77", "", true},
		{"6968c7722", "", true},
		{"6968c77g", "", true},
	}
	for _, tt := range tests {
		cfg := defaultConfig()
		cfg.FixedNTime = tt.in
		err := validateConfig(&cfg)
		if tt.wantErr {
			if !errors.Is(err, errInvalidFixedNTime) {
				t.Fatalf("%q: expected errInvalidFixedNTime, got %v", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: unexpected error %v", tt.in, err)
		}
		if cfg.FixedNTime != tt.want {
			t.Fatalf("%q: expected %q, got %q", tt.in, tt.want, cfg.FixedNTime)
		}
	}
}

func TestValidateConfigRejectsBadSettings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero rate", func(c *Config) { c.SharesPerSecond = 0 }},
		{"NaN rate", func(c *Config) { c.SharesPerSecond = math.NaN() }},
		{"infinite rate", func(c *Config) { c.SharesPerSecond = math.Inf(1) }},
		{"negative infinite rate", func(c *Config) { c.SharesPerSecond = math.Inf(-1) }},
		{"zero rotation", func(c *Config) { c.RotateInterval = 0 }},
		{"zero poll", func(c *Config) { c.PollInterval = 0 }},
		{"unknown source", func(c *Config) { c.TipSource = "zmq" }},
		{"workinfoid bits", func(c *Config) { c.WorkInfoIDBits = 64 }},
		{"unknown network", func(c *Config) { c.Network = "litecoin" }},
		{"empty base dir", func(c *Config) { c.BaseDir = " " }},
		{"bad population", func(c *Config) { c.Population.IPCount = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(&cfg)
			if err := validateConfig(&cfg); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, ok, err := loadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if ok {
		t.Fatalf("expected no file to be reported")
	}
	if cfg.SharesPerSecond != defaultSharesPerSecond || cfg.BaseDir != defaultBaseDir {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadConfigAppliesTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sharesim.toml")
	data := `
[output]
base_dir = "/tmp/ck"
rotate_seconds = 30

[oracle]
source = "rpc"
rpc_url = "http://10.0.0.2:8332"
poll_seconds = 2

[emission]
shares_per_second = 12.5
fixed_ntime = "6968c772"

[population]
ip_count = 4
max_agents_per_pair = 3
network = "signet"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, ok, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if !ok {
		t.Fatalf("expected file to be reported")
	}
	if cfg.BaseDir != "/tmp/ck" || cfg.RotateInterval != 30*time.Second {
		t.Fatalf("output section not applied: %+v", cfg)
	}
	if cfg.TipSource != tipSourceRPC || cfg.RPCURL != "http://10.0.0.2:8332" || cfg.PollInterval != 2*time.Second {
		t.Fatalf("oracle section not applied: %+v", cfg)
	}
	if cfg.SharesPerSecond != 12.5 || cfg.FixedNTime != "6968c772" {
		t.Fatalf("emission section not applied: %+v", cfg)
	}
	if cfg.Population.IPCount != 4 || cfg.Population.MaxAgentsPerPair != 3 || cfg.Network != "signet" {
		t.Fatalf("population section not applied: %+v", cfg.Population)
	}
	// Keys the file leaves out keep their defaults.
	if cfg.Population.MinBTCPerIP != 1 || cfg.HTTPTimeout != defaultHTTPTimeout {
		t.Fatalf("defaults lost: %+v", cfg)
	}
	if err := validateConfig(&cfg); err != nil {
		t.Fatalf("validateConfig: %v", err)
	}
}

func TestLoadConfigRejectsMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[output\nbase_dir = "), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := loadConfig(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestExampleConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "example.toml")
	if err := writeExampleConfig(path); err != nil {
		t.Fatalf("writeExampleConfig: %v", err)
	}
	cfg, ok, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if !ok {
		t.Fatalf("expected example file to load")
	}
	want := defaultConfig()
	if cfg.BaseDir != want.BaseDir || cfg.SharesPerSecond != want.SharesPerSecond ||
		cfg.RotateInterval != want.RotateInterval || cfg.Population != want.Population {
		t.Fatalf("example config does not reproduce defaults:\n got %+v\nwant %+v", cfg, want)
	}
}

func TestParseCommandLineOverrides(t *testing.T) {
	cl, err := parseCommandLine([]string{
		"-base-dir", "/data/logs",
		"-shares-per-sec", "7.5",
		"-users-ip", "9",
		"-fixed-ntime", "6968C772",
		"-sharelog-interval-seconds", "15",
		"-seed", "1234",
		"-duration", "90s",
		"-debug",
	}, io.Discard)
	if err != nil {
		t.Fatalf("parseCommandLine: %v", err)
	}
	cfg := defaultConfig()
	applyRuntimeOverrides(&cfg, cl.overrides)
	if err := validateConfig(&cfg); err != nil {
		t.Fatalf("validateConfig: %v", err)
	}

	if cfg.BaseDir != "/data/logs" || cfg.SharesPerSecond != 7.5 || cfg.Population.IPCount != 9 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.FixedNTime != "6968c772" {
		t.Fatalf("expected normalized ntime, got %q", cfg.FixedNTime)
	}
	if cfg.RotateInterval != 15*time.Second || cfg.Seed != 1234 || cfg.Duration != 90*time.Second || !cfg.LogDebug {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	// Unset flags leave the defaults alone.
	if cfg.PollInterval != defaultPollInterval || cfg.Population.MaxBTCPerIP != 3 {
		t.Fatalf("unset flags changed config: %+v", cfg)
	}
}

func TestParseCommandLineRejectsBadValues(t *testing.T) {
	for _, args := range [][]string{
		{"-users-ip", "many"},
		{"-shares-per-sec", "fast"},
		{"-seed", "-1"},
		{"stray"},
	} {
		if _, err := parseCommandLine(args, io.Discard); err == nil {
			t.Fatalf("expected error for %v", args)
		}
	}
}

func TestParseCommandLineNaNRateFailsValidation(t *testing.T) {
	for _, v := range []string{"NaN", "Inf", "+Inf"} {
		cl, err := parseCommandLine([]string{"-shares-per-sec", v}, io.Discard)
		if err != nil {
			t.Fatalf("%s: parseCommandLine: %v", v, err)
		}
		cfg := defaultConfig()
		applyRuntimeOverrides(&cfg, cl.overrides)
		if err := validateConfig(&cfg); err == nil {
			t.Fatalf("%s: expected shares_per_second to be rejected", v)
		}
	}
}
