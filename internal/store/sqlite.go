// internal/store/sqlite.go
//
// SQLite implementation of the Store interface.
// Tables (see assets/migrations):
//   - ledgers(player_id, balance, updated_at)
//   - progress(player_id, game_id, state_json, updated_at)
//
// Notes:
//   - Upserts use INSERT ... ON CONFLICT DO UPDATE (last write wins).
//   - ResetAll and Transfer each run in one transaction.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/robalobadob/namequiz/internal/quiz"
)

type sqliteStore struct{ db *sql.DB }

// NewSQLStore returns a Store over an already migrated database.
func NewSQLStore(db *sql.DB) Store { return &sqliteStore{db: db} }

func now() string { return time.Now().UTC().Format(time.RFC3339) }

func (s *sqliteStore) LoadProgress(ctx context.Context, playerID, gameID string) (*quiz.Progress, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT state_json FROM progress WHERE player_id=? AND game_id=?`,
		playerID, gameID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load progress %s: %w", gameID, err)
	}
	return decodeProgress([]byte(raw))
}

func (s *sqliteStore) SaveProgress(ctx context.Context, playerID, gameID string, p *quiz.Progress) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode progress %s: %w", gameID, err)
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO progress (player_id, game_id, state_json, updated_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(player_id, game_id) DO UPDATE SET
            state_json = excluded.state_json,
            updated_at = excluded.updated_at`,
		playerID, gameID, string(raw), now(),
	)
	if err != nil {
		return fmt.Errorf("save progress %s: %w", gameID, err)
	}
	return nil
}

func (s *sqliteStore) ClearProgress(ctx context.Context, playerID, gameID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM progress WHERE player_id=? AND game_id=?`, playerID, gameID)
	return err
}

func (s *sqliteStore) LoadBalance(ctx context.Context, playerID string) (int, bool, error) {
	var b int
	err := s.db.QueryRowContext(ctx, `SELECT balance FROM ledgers WHERE player_id=?`, playerID).Scan(&b)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("load balance: %w", err)
	}
	return b, true, nil
}

func (s *sqliteStore) SaveBalance(ctx context.Context, playerID string, balance int) error {
	if balance < 0 {
		return ErrNegativeBalance
	}
	return upsertBalance(ctx, s.db, playerID, balance)
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertBalance(ctx context.Context, db execer, playerID string, balance int) error {
	_, err := db.ExecContext(ctx, `
        INSERT INTO ledgers (player_id, balance, updated_at)
        VALUES (?, ?, ?)
        ON CONFLICT(player_id) DO UPDATE SET
            balance = excluded.balance,
            updated_at = excluded.updated_at`,
		playerID, balance, now(),
	)
	if err != nil {
		return fmt.Errorf("save balance: %w", err)
	}
	return nil
}

func (s *sqliteStore) ResetAll(ctx context.Context, playerID string, balance int) error {
	if balance < 0 {
		return ErrNegativeBalance
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM progress WHERE player_id=?`, playerID); err != nil {
		return fmt.Errorf("reset progress: %w", err)
	}
	if err := upsertBalance(ctx, tx, playerID, balance); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *sqliteStore) Transfer(ctx context.Context, fromID, toID string) error {
	if fromID == "" || toID == "" || fromID == toID {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmts := []string{
		`INSERT OR IGNORE INTO ledgers (player_id, balance, updated_at)
         SELECT ?, balance, updated_at FROM ledgers WHERE player_id=?`,
		`INSERT OR IGNORE INTO progress (player_id, game_id, state_json, updated_at)
         SELECT ?, game_id, state_json, updated_at FROM progress WHERE player_id=?`,
	}
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q, toID, fromID); err != nil {
			return fmt.Errorf("transfer: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM ledgers WHERE player_id=?`, fromID); err != nil {
		return fmt.Errorf("transfer: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM progress WHERE player_id=?`, fromID); err != nil {
		return fmt.Errorf("transfer: %w", err)
	}
	return tx.Commit()
}

func (s *sqliteStore) Close() error { return s.db.Close() }
