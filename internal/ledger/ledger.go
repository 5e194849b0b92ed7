// internal/ledger/ledger.go
//
// The single point balance shared by every game of one player.
// Responsibilities:
//   - AddPoints / SpendPoints with the non-negative balance invariant.
//   - Game-over gate: once the balance is 0, every spend fails until Reset.
//   - Best-effort persistence of the balance after each successful mutation.
//
// Notes:
//   - All operations are serialized by one mutex.
//   - The game-over listener runs after the lock is released, so it may read the ledger.

package ledger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// DefaultBalance is the seed balance of a new player.
const DefaultBalance = 50

var (
	ErrGameOver          = errors.New("game over")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("invalid amount")
)

// BalanceSaver persists the balance. Errors are logged, never returned to callers.
type BalanceSaver interface {
	SaveBalance(balance int) error
}

type Option func(*Ledger)

func WithSaver(s BalanceSaver) Option {
	return func(l *Ledger) { l.saver = s }
}

// WithGameOver registers the listener called when a spend lands on exactly zero.
func WithGameOver(fn func()) Option {
	return func(l *Ledger) { l.onGameOver = fn }
}

type Ledger struct {
	mu         sync.Mutex
	balance    int
	saver      BalanceSaver
	onGameOver func()
}

// New returns a ledger holding balance (negative values are clamped to 0).
func New(balance int, opts ...Option) *Ledger {
	l := &Ledger{balance: max(balance, 0)}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) AddPoints(n int) error {
	if n <= 0 {
		return fmt.Errorf("add %d: %w", n, ErrInvalidAmount)
	}
	l.mu.Lock()
	l.balance += n
	b := l.balance
	l.mu.Unlock()

	l.save(b)
	return nil
}

// SpendPoints deducts n and returns the new balance. On failure the balance is unchanged.
func (l *Ledger) SpendPoints(n int) (int, error) {
	l.mu.Lock()
	switch {
	case l.balance <= 0:
		l.mu.Unlock()
		return 0, ErrGameOver
	case n <= 0:
		b := l.balance
		l.mu.Unlock()
		return b, fmt.Errorf("spend %d: %w", n, ErrInvalidAmount)
	case l.balance < n:
		b := l.balance
		l.mu.Unlock()
		return b, fmt.Errorf("spend %d of %d: %w", n, b, ErrInsufficientFunds)
	}
	l.balance -= n
	b := l.balance
	l.mu.Unlock()

	l.save(b)
	if b == 0 && l.onGameOver != nil {
		l.onGameOver()
	}
	return b, nil
}

func (l *Ledger) Balance() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

func (l *Ledger) GameOver() bool {
	return l.Balance() <= 0
}

// Reset restores the in-memory balance. Persisting it is the caller's job,
// since reset-everything writes the ledger and all progress in one transaction.
func (l *Ledger) Reset(balance int) {
	l.mu.Lock()
	l.balance = max(balance, 0)
	l.mu.Unlock()
}

func (l *Ledger) save(b int) {
	if l.saver == nil {
		return
	}
	if err := l.saver.SaveBalance(b); err != nil {
		log.Warn().Err(err).Int("balance", b).Msg("ledger save failed")
	}
}
