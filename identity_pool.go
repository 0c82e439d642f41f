package main

import (
	"errors"
	"fmt"
)

// maxWorkerRedraws bounds how hard we try to avoid a duplicate rig name
// under one payout address. Past that the duplicate is kept on purpose.
const maxWorkerRedraws = 10

// Connection is one synthetic miner session. Build it with newConnection so
// WorkerName always matches the "<address>.<worker>" rule.
type Connection struct {
	ClientID   int64
	IPAddress  string
	BTCAddress string
	Worker     string
	WorkerName string
	Agent      string
}

func newConnection(clientID int64, ip, btcAddress, worker, agent string) Connection {
	return Connection{
		ClientID:   clientID,
		IPAddress:  ip,
		BTCAddress: btcAddress,
		Worker:     worker,
		WorkerName: btcAddress + "." + worker,
		Agent:      agent,
	}
}

// PopulationConfig sizes the four-level identity hierarchy. All ranges are
// inclusive.
type PopulationConfig struct {
	IPCount          int
	MinBTCPerIP      int
	MaxBTCPerIP      int
	MinWorkersPerBTC int
	MaxWorkersPerBTC int
	MinAgentsPerPair int
	MaxAgentsPerPair int
	ClientIDStart    int64
}

func validatePopulation(pc PopulationConfig) error {
	if pc.IPCount < 1 {
		return fmt.Errorf("ip_count must be >= 1, got %d", pc.IPCount)
	}
	ranges := []struct {
		name     string
		min, max int
	}{
		{"btc_per_ip", pc.MinBTCPerIP, pc.MaxBTCPerIP},
		{"workers_per_btc", pc.MinWorkersPerBTC, pc.MaxWorkersPerBTC},
		{"agents_per_pair", pc.MinAgentsPerPair, pc.MaxAgentsPerPair},
	}
	for _, rg := range ranges {
		if rg.min < 0 {
			return fmt.Errorf("min_%s cannot be negative", rg.name)
		}
		if rg.max < rg.min {
			return fmt.Errorf("max_%s (%d) must be >= min_%s (%d)", rg.name, rg.max, rg.name, rg.min)
		}
	}
	if pc.ClientIDStart < 0 {
		return fmt.Errorf("clientid_start cannot be negative")
	}
	return nil
}

var errEmptyPopulation = errors.New("population is empty; raise the min_* ranges")

// identityPool is the fixed, read-only fleet the loop draws from.
type identityPool struct {
	conns []Connection
}

// buildIdentityPool walks IP -> payout address -> worker -> agent and emits
// one Connection per leaf with a fresh client id.
func buildIdentityPool(r randomSource, pc PopulationConfig, agents agentCatalog) (*identityPool, error) {
	if err := validatePopulation(pc); err != nil {
		return nil, err
	}
	agentNames := agents.Names()
	clientID := pc.ClientIDStart
	var conns []Connection

	for range pc.IPCount {
		ip := randomIPv4(r)

		btcCount := randIntRange(r, pc.MinBTCPerIP, pc.MaxBTCPerIP)
		addresses := make([]string, 0, btcCount)
		for range btcCount {
			addr, err := randomBTCAddress(r)
			if err != nil {
				return nil, fmt.Errorf("payout address: %w", err)
			}
			addresses = append(addresses, addr)
		}

		for _, addr := range addresses {
			for _, worker := range drawWorkers(r, randIntRange(r, pc.MinWorkersPerBTC, pc.MaxWorkersPerBTC)) {
				agentCount := randIntRange(r, pc.MinAgentsPerPair, pc.MaxAgentsPerPair)
				for _, agent := range sampleStrings(r, agentNames, agentCount) {
					conns = append(conns, newConnection(clientID, ip, addr, worker, agent))
					clientID++
				}
			}
		}
	}

	if len(conns) == 0 {
		return nil, errEmptyPopulation
	}
	return &identityPool{conns: conns}, nil
}

// drawWorkers picks n rig names, re-drawing collisions up to
// maxWorkerRedraws times each. A name that still collides is kept.
func drawWorkers(r randomSource, n int) []string {
	workers := make([]string, 0, n)
	used := make(map[string]struct{}, n)
	for range n {
		w := randomWorker(r)
		for tries := 0; tries < maxWorkerRedraws; tries++ {
			if _, dup := used[w]; !dup {
				break
			}
			w = randomWorker(r)
		}
		used[w] = struct{}{}
		workers = append(workers, w)
	}
	return workers
}

func newIdentityPoolFromConnections(conns []Connection) (*identityPool, error) {
	if len(conns) == 0 {
		return nil, errEmptyPopulation
	}
	return &identityPool{conns: append([]Connection(nil), conns...)}, nil
}

func (p *identityPool) pick(r randomSource) Connection {
	return p.conns[r.IntN(len(p.conns))]
}

func (p *identityPool) Len() int {
	return len(p.conns)
}

// Connections returns a copy of the fleet in generation order.
func (p *identityPool) Connections() []Connection {
	return append([]Connection(nil), p.conns...)
}

// distinctCounts reports how many unique IPs and payout addresses the fleet
// covers, for the startup log line.
func (p *identityPool) distinctCounts() (ips, addresses int) {
	ipSet := make(map[string]struct{})
	addrSet := make(map[string]struct{})
	for _, c := range p.conns {
		ipSet[c.IPAddress] = struct{}{}
		addrSet[c.BTCAddress] = struct{}{}
	}
	return len(ipSet), len(addrSet)
}
