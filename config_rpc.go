package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// resolveRPCTipCredentials prepares the rpc tip source: explicit
// credentials win, then a configured cookie, then an autodetected one.
func resolveRPCTipCredentials(cfg *Config) error {
	if cfg.TipSource != tipSourceRPC {
		return nil
	}
	if strings.TrimSpace(cfg.RPCUser) != "" && strings.TrimSpace(cfg.RPCPass) != "" {
		return nil
	}
	if strings.TrimSpace(cfg.RPCCookiePath) == "" {
		auto, found, tried := autodetectRPCCookiePath(cfg.Network)
		if !found {
			pathsDesc := "none"
			if len(tried) > 0 {
				pathsDesc = strings.Join(tried, ", ")
			}
			return fmt.Errorf("oracle.source=rpc needs rpc_user/rpc_pass or a bitcoind cookie (autodetect checked: %s)", pathsDesc)
		}
		cfg.RPCCookiePath = auto
		logger.Info("autodetected bitcoind rpc cookie", "path", auto)
	}
	actual, _, _, err := readRPCCookieWithFallback(cfg.RPCCookiePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// The node may still be starting; the tip source re-reads the
			// cookie on every poll.
			logger.Warn("rpc cookie missing; will keep trying", "path", cfg.RPCCookiePath)
			return nil
		}
		return err
	}
	cfg.RPCCookiePath = actual
	return nil
}

func rpcCookiePathCandidates(basePath string) []string {
	trimmed := strings.TrimSpace(basePath)
	if trimmed == "" {
		return nil
	}
	if info, err := os.Stat(trimmed); err == nil && info.IsDir() {
		return []string{filepath.Join(trimmed, ".cookie")}
	}
	candidates := []string{trimmed}
	if !strings.HasSuffix(trimmed, ".cookie") {
		candidates = append(candidates, filepath.Join(trimmed, ".cookie"))
	}
	return candidates
}

func readRPCCookieWithFallback(basePath string) (string, string, string, error) {
	candidates := rpcCookiePathCandidates(basePath)
	if len(candidates) == 0 {
		return "", "", "", fmt.Errorf("invalid cookie path")
	}
	var lastErr error
	for _, candidate := range candidates {
		data, err := os.ReadFile(candidate)
		if err != nil {
			lastErr = fmt.Errorf("read %s: %w", candidate, err)
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return candidate, "", "", lastErr
		}
		user, pass, ok := strings.Cut(strings.TrimSpace(string(data)), ":")
		if !ok {
			return candidate, "", "", fmt.Errorf("unexpected cookie format in %s", candidate)
		}
		return candidate, strings.TrimSpace(user), strings.TrimSpace(pass), nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("read %s: %w", candidates[len(candidates)-1], os.ErrNotExist)
	}
	return candidates[len(candidates)-1], "", "", lastErr
}

// cookieNetworkDir is the datadir subdirectory bitcoind uses per network.
func cookieNetworkDir(network string) string {
	switch strings.ToLower(strings.TrimSpace(network)) {
	case "testnet", "testnet3":
		return "testnet3"
	case "signet":
		return "signet"
	case "regtest", "regressiontest":
		return "regtest"
	default:
		return ""
	}
}

func rpcCookieCandidates(network string) []string {
	sub := cookieNetworkDir(network)
	var dirs []string
	if envDir := strings.TrimSpace(os.Getenv("BITCOIN_DATADIR")); envDir != "" {
		dirs = append(dirs, envDir)
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		dirs = append(dirs, filepath.Join(home, ".bitcoin"))
	}
	dirs = append(dirs, "/var/lib/bitcoin", "/home/bitcoin/.bitcoin", "/etc/bitcoin")

	candidates := make([]string, 0, len(dirs))
	for _, d := range dirs {
		candidates = append(candidates, filepath.Join(d, sub, ".cookie"))
	}
	return candidates
}

func autodetectRPCCookiePath(network string) (string, bool, []string) {
	candidates := rpcCookieCandidates(network)
	tried := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		tried = append(tried, candidate)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true, tried
		}
	}
	return "", false, tried
}
