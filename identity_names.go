package main

import (
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
)

var workerBaseNames = []string{
	"timixx", "Alan", "Snafus", "Montagnole", "eufo", "BRM1", "binuts",
	"Durdur33", "heimrichdab", "Brucewayne", "Meier_Link", "nanoJ", "bitaxe",
	"worker", "NerdQaxe", "MoghRoith13",
}

// workerSuffixChance is how often a rig name gets a 2..9 digit appended.
const workerSuffixChance = 0.25

func randomIPv4(r randomSource) string {
	var b strings.Builder
	for i := range 4 {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.Itoa(randIntRange(r, 1, 254)))
	}
	return b.String()
}

// randomBTCAddress encodes a random 20-byte witness program as a P2WPKH
// address for the active network, so the string passes bech32 checks in
// downstream tools even though nobody holds the key.
func randomBTCAddress(r randomSource) (string, error) {
	program := randBytes(r, 20)
	addr, err := btcutil.NewAddressWitnessPubKeyHash(program, ChainParams())
	if err != nil {
		return "", err
	}
	return addr.EncodeAddress(), nil
}

func randomWorker(r randomSource) string {
	base := workerBaseNames[r.IntN(len(workerBaseNames))]
	if r.Float64() < workerSuffixChance {
		return base + strconv.Itoa(randIntRange(r, 2, 9))
	}
	return base
}
