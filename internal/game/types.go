// internal/game/types.go
//
// Core type definitions for the quiz session engine.
// Defines:
//   - State:       lifecycle of one game session.
//   - Definition:  static description of a game (name, hint variant, search mode).
//   - PoolSource / ProgressStore / Ledger: collaborators a session depends on.
//   - Outcome / View / Snapshot: results returned to the transport layer.

package game

import (
	"context"
	"errors"

	"github.com/robalobadob/namequiz/internal/hint"
	"github.com/robalobadob/namequiz/internal/quiz"
)

// State is the lifecycle position of a session.
//   - "uninitialized": nothing loaded yet.
//   - "loading":       the item pool is still being populated.
//   - "ready":         progress loaded, not being played.
//   - "active":        accepting answers and hints.
//   - "paused":        progress saved, waiting for Start.
//   - "completed":     every item found.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateLoading       State = "loading"
	StateReady         State = "ready"
	StateActive        State = "active"
	StatePaused        State = "paused"
	StateCompleted     State = "completed"
)

const (
	// PointsPerItem is awarded for every item id found, including group peers.
	PointsPerItem = 10
	// SearchPenalty is charged for a search that matches nothing.
	SearchPenalty = 5
)

var (
	ErrItemUnavailable = errors.New("item unavailable")
	ErrNotActive       = errors.New("game not active")
	ErrLoading         = errors.New("game still loading")
)

// Definition describes one game of the catalog.
type Definition struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Hints       hint.Mode `json:"hintMode"`
	// SearchMode games take free guesses against the whole pool instead of per-item answers.
	SearchMode bool `json:"searchMode"`
	// Grouped games count progress per group key rather than per item.
	Grouped bool `json:"grouped"`
}

// PoolSource supplies the final item pool. Pool returns nil until Loaded is closed.
type PoolSource interface {
	Pool() *quiz.Pool
	Loaded() <-chan struct{}
	// Percent reports population progress, 0..100.
	Percent() int
}

// ProgressStore persists one player's per-game progress.
// LoadProgress returns (nil, nil) when nothing was saved.
type ProgressStore interface {
	LoadProgress(ctx context.Context, gameID string) (*quiz.Progress, error)
	SaveProgress(ctx context.Context, gameID string, p *quiz.Progress) error
	ClearProgress(ctx context.Context, gameID string) error
}

// Ledger is the shared score ledger.
type Ledger interface {
	hint.Ledger
}

// Snapshot is a progress summary.
type Snapshot struct {
	Found      int `json:"found"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// HintOutcome describes a hint call.
type HintOutcome struct {
	ItemID   string   `json:"itemId"`
	Fragment string   `json:"fragment,omitempty"`
	Mask     string   `json:"mask"`
	Applied  []string `json:"applied,omitempty"`
	Charged  int      `json:"charged"`
	Reason   string   `json:"reason,omitempty"`
}

// Outcome is the result of a play operation.
type Outcome struct {
	Correct      bool         `json:"correct"`
	ItemIDs      []string     `json:"itemIds,omitempty"`
	Points       int          `json:"points"`
	AlreadyFound bool         `json:"alreadyFound,omitempty"`
	Penalty      int          `json:"penalty,omitempty"`
	Hint         *HintOutcome `json:"hint,omitempty"`
	Balance      int          `json:"balance"`
	State        State        `json:"state"`
	Progress     Snapshot     `json:"progress"`
	Events       []Event      `json:"events"`
}

// ItemView is one item as the player sees it. Name is only set once found.
type ItemView struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Found    bool   `json:"found"`
	Answer   string `json:"answer,omitempty"`
	Mask     string `json:"mask,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
	Category string `json:"category,omitempty"`
}

// View is the full state of a session for rendering.
type View struct {
	Game     Definition `json:"game"`
	State    State      `json:"state"`
	Loading  int        `json:"loading"`
	Progress Snapshot   `json:"progress"`
	Items    []ItemView `json:"items"`
}
