package main

import (
	"strings"
	"sync"

	"github.com/btcsuite/btcd/chaincfg"
)

var (
	chainParamsMu sync.RWMutex
	chainParams   *chaincfg.Params = &chaincfg.MainNetParams
)

// networkParams maps a config network name to btcd parameters. The second
// return is false for names we don't recognize.
func networkParams(network string) (*chaincfg.Params, bool) {
	switch strings.ToLower(strings.TrimSpace(network)) {
	case "mainnet", "", "bitcoin":
		return &chaincfg.MainNetParams, true
	case "testnet", "testnet3":
		return &chaincfg.TestNet3Params, true
	case "signet":
		return &chaincfg.SigNetParams, true
	case "regtest", "regressiontest":
		return &chaincfg.RegressionNetParams, true
	default:
		return &chaincfg.MainNetParams, false
	}
}

// SetChainParams selects the network used to encode synthetic payout
// addresses. Unknown names fall back to mainnet; validateConfig rejects them
// before we get here.
func SetChainParams(network string) {
	params, _ := networkParams(network)
	chainParamsMu.Lock()
	chainParams = params
	chainParamsMu.Unlock()
}

// ChainParams returns the currently selected network parameters.
func ChainParams() *chaincfg.Params {
	chainParamsMu.RLock()
	defer chainParamsMu.RUnlock()
	return chainParams
}
