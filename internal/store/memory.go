// internal/store/memory.go
//
// In-memory implementation of the Store interface.
// A lightweight persistence layer for development and tests, or when
// durability is not required (STORE=memory).
//
// Characteristics:
//   - Progress is kept as JSON bytes, so callers never share pointers with the store.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - ResetAll and Transfer run under one write lock, which makes them atomic.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/robalobadob/namequiz/internal/quiz"
)

type memory struct {
	mu       sync.RWMutex
	balances map[string]int
	progress map[string]map[string][]byte // player -> game -> JSON
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{
		balances: make(map[string]int),
		progress: make(map[string]map[string][]byte),
	}
}

func (m *memory) LoadProgress(ctx context.Context, playerID, gameID string) (*quiz.Progress, error) {
	m.mu.RLock()
	raw, ok := m.progress[playerID][gameID]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return decodeProgress(raw)
}

func (m *memory) SaveProgress(ctx context.Context, playerID, gameID string, p *quiz.Progress) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode progress %s: %w", gameID, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	games := m.progress[playerID]
	if games == nil {
		games = make(map[string][]byte)
		m.progress[playerID] = games
	}
	games[gameID] = raw
	return nil
}

func (m *memory) ClearProgress(ctx context.Context, playerID, gameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.progress[playerID], gameID)
	return nil
}

func (m *memory) LoadBalance(ctx context.Context, playerID string) (int, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.balances[playerID]
	return b, ok, nil
}

func (m *memory) SaveBalance(ctx context.Context, playerID string, balance int) error {
	if balance < 0 {
		return ErrNegativeBalance
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[playerID] = balance
	return nil
}

func (m *memory) ResetAll(ctx context.Context, playerID string, balance int) error {
	if balance < 0 {
		return ErrNegativeBalance
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.progress, playerID)
	m.balances[playerID] = balance
	return nil
}

func (m *memory) Transfer(ctx context.Context, fromID, toID string) error {
	if fromID == "" || toID == "" || fromID == toID {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.balances[fromID]; ok {
		if _, taken := m.balances[toID]; !taken {
			m.balances[toID] = b
		}
		delete(m.balances, fromID)
	}
	if games, ok := m.progress[fromID]; ok {
		dst := m.progress[toID]
		if dst == nil {
			dst = make(map[string][]byte)
			m.progress[toID] = dst
		}
		for id, raw := range games {
			if _, taken := dst[id]; !taken {
				dst[id] = raw
			}
		}
		delete(m.progress, fromID)
	}
	return nil
}

func (m *memory) Close() error { return nil }
