package main

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestRosterStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.db")
	store, err := openRosterStore(path)
	if err != nil {
		t.Fatalf("openRosterStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	empty, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty roster, got %d", len(empty))
	}

	pool, err := buildIdentityPool(newRandomSource(13), testPopulation(), defaultAgentCatalog())
	if err != nil {
		t.Fatalf("buildIdentityPool: %v", err)
	}
	if err := store.Save(pool.Connections()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, pool.Connections()) {
		t.Fatalf("roster did not round trip")
	}
}

func TestLoadOrBuildIdentityPoolReusesSavedFleet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "roster.db")
	agents := defaultAgentCatalog()

	first, reused, err := loadOrBuildIdentityPool(path, newRandomSource(1), testPopulation(), agents)
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	if reused {
		t.Fatalf("expected a fresh fleet on first run")
	}

	// A different seed must not matter once a roster exists.
	second, reused, err := loadOrBuildIdentityPool(path, newRandomSource(2), testPopulation(), agents)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if !reused {
		t.Fatalf("expected the saved fleet to be reused")
	}
	if !reflect.DeepEqual(first.Connections(), second.Connections()) {
		t.Fatalf("reused fleet differs from the saved one")
	}
}

func TestLoadOrBuildIdentityPoolWithoutPath(t *testing.T) {
	pool, reused, err := loadOrBuildIdentityPool("", newRandomSource(1), testPopulation(), defaultAgentCatalog())
	if err != nil {
		t.Fatalf("loadOrBuildIdentityPool: %v", err)
	}
	if reused || pool.Len() == 0 {
		t.Fatalf("expected a fresh non-empty fleet, reused=%v len=%d", reused, pool.Len())
	}
}
