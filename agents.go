package main

import "sort"

// AgentProfile is the vardiff/acceptance model for one miner firmware.
type AgentProfile struct {
	Difficulty        float64
	AcceptProbability float64
}

// fallbackAgentProfile is used for agents missing from the catalog.
var fallbackAgentProfile = AgentProfile{Difficulty: 1000, AcceptProbability: 0.7}

// agentCatalog is a read-only agent -> profile table. Build it once with
// defaultAgentCatalog and share it; there are no mutating methods.
type agentCatalog struct {
	profiles map[string]AgentProfile
	names    []string
}

func newAgentCatalog(profiles map[string]AgentProfile) agentCatalog {
	c := agentCatalog{
		profiles: make(map[string]AgentProfile, len(profiles)),
		names:    make([]string, 0, len(profiles)),
	}
	for name, p := range profiles {
		c.profiles[name] = p
		c.names = append(c.names, name)
	}
	// Map iteration order is random; keep sampling reproducible under a seed.
	sort.Strings(c.names)
	return c
}

func defaultAgentCatalog() agentCatalog {
	return newAgentCatalog(map[string]AgentProfile{
		"bitaxe/BM1370/v2.12.2":     {Difficulty: 1000, AcceptProbability: 0.70},
		"bitaxe/BM1370/v2.12.0":     {Difficulty: 1000, AcceptProbability: 0.70},
		"bitaxe/BM1368/v1.0.7":      {Difficulty: 512, AcceptProbability: 0.65},
		"bitaxe/BM1397/v2.12.0":     {Difficulty: 1000, AcceptProbability: 0.70},
		"cgminer/4.11.1":            {Difficulty: 6345, AcceptProbability: 0.75},
		"whatsminer/v1.0":           {Difficulty: 43027, AcceptProbability: 0.80},
		"NMAxe/v2.5.10":             {Difficulty: 200, AcceptProbability: 0.55},
		"NerdQAxe++/BM1370/v1.0.35": {Difficulty: 5072, AcceptProbability: 0.60},
	})
}

// Lookup returns the profile for agent, falling back to
// fallbackAgentProfile when the agent is unknown.
func (c agentCatalog) Lookup(agent string) (AgentProfile, bool) {
	if p, ok := c.profiles[agent]; ok {
		return p, true
	}
	return fallbackAgentProfile, false
}

// Names returns a copy of the agent names in sorted order.
func (c agentCatalog) Names() []string {
	return append([]string(nil), c.names...)
}

func (c agentCatalog) Len() int {
	return len(c.names)
}
