// internal/store/store.go
//
// Persistence for player state: one ledger balance per player and one
// GameProgress JSON blob per (player, game).
//
// Implementations:
//   - memory.go: map-backed, for development and tests.
//   - sqlite.go: database/sql over mattn/go-sqlite3, tables from assets/migrations.
//
// Notes:
//   - Writes are last-write-wins.
//   - ResetAll is atomic: a reader never sees a seeded ledger next to stale progress.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/robalobadob/namequiz/internal/quiz"
)

var ErrNegativeBalance = errors.New("negative balance")

// Store defines the persistence interface for player state.
type Store interface {
	// LoadProgress returns (nil, nil) when the game was never saved.
	LoadProgress(ctx context.Context, playerID, gameID string) (*quiz.Progress, error)
	SaveProgress(ctx context.Context, playerID, gameID string, p *quiz.Progress) error
	ClearProgress(ctx context.Context, playerID, gameID string) error

	// LoadBalance reports ok=false when the player has no ledger yet.
	LoadBalance(ctx context.Context, playerID string) (balance int, ok bool, err error)
	SaveBalance(ctx context.Context, playerID string, balance int) error

	// ResetAll clears every game of the player and sets the ledger to balance.
	ResetAll(ctx context.Context, playerID string, balance int) error

	// Transfer moves a guest's state to an account. Records the destination
	// already holds are kept and the guest's copies are dropped.
	Transfer(ctx context.Context, fromID, toID string) error

	Close() error
}

func decodeProgress(raw []byte) (*quiz.Progress, error) {
	var p quiz.Progress
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode progress: %w", err)
	}
	if p.FoundIDs == nil {
		p.FoundIDs = []string{}
	}
	if p.UserAnswers == nil {
		p.UserAnswers = map[string]string{}
	}
	if p.HintsRevealed == nil {
		p.HintsRevealed = map[string]*quiz.HintRecord{}
	}
	return &p, nil
}
