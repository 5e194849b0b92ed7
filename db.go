// db.go
//
// Database setup for the quiz server.
// Responsibilities:
//   - Open the SQLite file at DB_PATH (WAL, busy timeout, foreign keys).
//   - Apply the embedded migrations (assets/migrations/*.sql).
//
// The users table always lives here; ledgers and progress do too unless STORE=memory.

package main

import (
	"database/sql"
	"fmt"

	"github.com/robalobadob/namequiz/assets"
	"github.com/robalobadob/namequiz/internal/store"
)

// openDB opens the database and brings its schema up to date.
func openDB(path string) (*sql.DB, error) {
	db, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := store.Migrate(db, assets.Migrations()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// openStore picks the player-state backend.
func openStore(kind string, db *sql.DB) store.Store {
	if kind == "memory" {
		return store.NewMemoryStore()
	}
	return store.NewSQLStore(db)
}
