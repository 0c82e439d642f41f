package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// rosterStore keeps a snapshot of the synthetic fleet so repeated runs
// against the same downstream system keep the same client ids, addresses
// and rigs. It never holds share data.
type rosterStore struct {
	db *sql.DB
}

func openRosterStore(path string) (*rosterStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, os.ErrInvalid
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS roster_connections (
			clientid INTEGER PRIMARY KEY,
			ip_address TEXT NOT NULL,
			btc_address TEXT NOT NULL,
			worker TEXT NOT NULL,
			agent TEXT NOT NULL
		)
	`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &rosterStore{db: db}, nil
}

// Load returns the stored fleet ordered by client id. An empty result means
// no roster has been saved yet.
func (s *rosterStore) Load() ([]Connection, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	rows, err := s.db.Query(`SELECT clientid, ip_address, btc_address, worker, agent FROM roster_connections ORDER BY clientid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conns []Connection
	for rows.Next() {
		var clientID int64
		var ip, addr, worker, agent string
		if err := rows.Scan(&clientID, &ip, &addr, &worker, &agent); err != nil {
			return nil, err
		}
		conns = append(conns, newConnection(clientID, ip, addr, worker, agent))
	}
	return conns, rows.Err()
}

// Save replaces the stored fleet in one transaction.
func (s *rosterStore) Save(conns []Connection) error {
	if s == nil || s.db == nil {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM roster_connections`); err != nil {
		return fmt.Errorf("clear roster: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO roster_connections (clientid, ip_address, btc_address, worker, agent) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, c := range conns {
		if _, err := stmt.Exec(c.ClientID, c.IPAddress, c.BTCAddress, c.Worker, c.Agent); err != nil {
			return fmt.Errorf("insert clientid %d: %w", c.ClientID, err)
		}
	}
	return tx.Commit()
}

func (s *rosterStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// loadOrBuildIdentityPool reuses a saved roster when one exists, otherwise
// builds a fresh fleet and saves it. With an empty path it just builds.
func loadOrBuildIdentityPool(path string, r randomSource, pc PopulationConfig, agents agentCatalog) (*identityPool, bool, error) {
	if strings.TrimSpace(path) == "" {
		pool, err := buildIdentityPool(r, pc, agents)
		return pool, false, err
	}
	store, err := openRosterStore(path)
	if err != nil {
		return nil, false, fmt.Errorf("open roster %s: %w", path, err)
	}
	defer store.Close()

	saved, err := store.Load()
	if err != nil {
		return nil, false, fmt.Errorf("load roster %s: %w", path, err)
	}
	if len(saved) > 0 {
		pool, err := newIdentityPoolFromConnections(saved)
		return pool, true, err
	}

	pool, err := buildIdentityPool(r, pc, agents)
	if err != nil {
		return nil, false, err
	}
	if err := store.Save(pool.Connections()); err != nil {
		return nil, false, fmt.Errorf("save roster %s: %w", path, err)
	}
	return pool, false, nil
}
