// internal/player/player.go
//
// The application context of one player: one score ledger shared by every
// game, plus one lazily created session per catalog game.
// Responsibilities:
//   - Load the player's ledger from the store on first use; a new player's
//     ledger is only written once it first changes.
//   - Build sessions bound to the player's progress records and ledger.
//   - Gate game entry on the ledger's game-over state.
//   - Reset everything atomically, and move a guest's state to an account.
//   - Drop contexts that have been idle longer than a TTL.
//
// Notes:
//   - A Registry replaces process-wide singletons; every player gets its own Context.
//   - Lock order: Registry.mu → Context.mu → session → ledger.
//   - ResetAll holds every session of the player while the store and ledger are
//     reset, so no in-flight save can write old progress back.
//   - The idle TTL must exceed the longest request; an evicted context is
//     rebuilt from the store on the next Get.

package player

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/namequiz/internal/catalog"
	"github.com/robalobadob/namequiz/internal/game"
	"github.com/robalobadob/namequiz/internal/ledger"
	"github.com/robalobadob/namequiz/internal/quiz"
	"github.com/robalobadob/namequiz/internal/store"
)

var ErrUnknownGame = errors.New("unknown game")

// Games lists the playable games. *catalog.Catalog satisfies it.
type Games interface {
	Games() []catalog.Game
	Lookup(id string) (catalog.Game, bool)
}

// Registry holds the contexts of the players seen by this process.
type Registry struct {
	mu      sync.Mutex
	store   store.Store
	games   Games
	seed    int
	opts    []game.Option
	players map[string]*Context
	now     func() time.Time
}

// NewRegistry returns a registry whose new ledgers start at seed.
// opts are applied to every session it builds.
func NewRegistry(st store.Store, games Games, seed int, opts ...game.Option) *Registry {
	return &Registry{
		store:   st,
		games:   games,
		seed:    max(seed, 0),
		opts:    opts,
		players: make(map[string]*Context),
		now:     time.Now,
	}
}

// Seed is the balance of a new or reset ledger.
func (r *Registry) Seed() int { return r.seed }

// Get returns the player's context, loading the ledger on first use.
// A ledger that cannot be read is treated as missing.
func (r *Registry) Get(ctx context.Context, playerID string) *Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.players[playerID]; ok {
		c.lastUsed = r.now()
		return c
	}

	balance, ok, err := r.store.LoadBalance(ctx, playerID)
	if err != nil {
		log.Warn().Err(err).Str("playerId", playerID).Msg("load balance failed; using seed")
	}
	c := &Context{
		id:       playerID,
		reg:      r,
		sessions: make(map[string]*game.Session),
		lastUsed: r.now(),
	}
	if !ok || err != nil {
		balance = r.seed
	}
	c.ledger = ledger.New(balance,
		ledger.WithSaver(balanceSaver{st: r.store, playerID: playerID}),
		ledger.WithGameOver(func() {
			log.Info().Str("playerId", playerID).Msg("balance exhausted; game over")
		}),
	)
	r.players[playerID] = c
	return c
}

// Evict drops the contexts not used for longer than idle and returns how
// many were dropped. Their state is already in the store.
func (r *Registry) Evict(idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-idle)
	n := 0
	for id, c := range r.players {
		if c.lastUsed.Before(cutoff) {
			delete(r.players, id)
			n++
		}
	}
	return n
}

// Sweep calls Evict every half idle period until ctx is done.
func (r *Registry) Sweep(ctx context.Context, idle time.Duration) {
	t := time.NewTicker(idle / 2)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := r.Evict(idle); n > 0 {
				log.Debug().Int("evicted", n).Msg("idle players dropped")
			}
		}
	}
}

// Claim moves the guest's stored state to the account and drops both cached
// contexts, so the next Get reloads from the store.
func (r *Registry) Claim(ctx context.Context, guestID, accountID string) error {
	if guestID == "" || accountID == "" || guestID == accountID {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.store.Transfer(ctx, guestID, accountID); err != nil {
		return fmt.Errorf("claim %s: %w", guestID, err)
	}
	delete(r.players, guestID)
	delete(r.players, accountID)
	return nil
}

// Context is one player's ledger and sessions.
type Context struct {
	id       string
	reg      *Registry
	ledger   *ledger.Ledger
	mu       sync.Mutex
	sessions map[string]*game.Session
	// lastUsed is guarded by Registry.mu.
	lastUsed time.Time
}

func (c *Context) ID() string { return c.id }

func (c *Context) Ledger() *ledger.Ledger { return c.ledger }

// Score is the ledger summary shown to clients.
type Score struct {
	Balance  int  `json:"balance"`
	GameOver bool `json:"gameOver"`
}

func (c *Context) Score() Score {
	return Score{Balance: c.ledger.Balance(), GameOver: c.ledger.GameOver()}
}

// Session returns the initialized session of gameID, creating it on first use.
func (c *Context) Session(ctx context.Context, gameID string) (*game.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionLocked(ctx, gameID)
}

func (c *Context) sessionLocked(ctx context.Context, gameID string) (*game.Session, error) {
	s, ok := c.sessions[gameID]
	if !ok {
		g, found := c.reg.games.Lookup(gameID)
		if !found {
			return nil, fmt.Errorf("%q: %w", gameID, ErrUnknownGame)
		}
		opts := append([]game.Option{game.WithSink(game.LogSink{PlayerID: c.id})}, c.reg.opts...)
		var err error
		s, err = game.NewSession(g.Def, g.Source, progressStore{st: c.reg.store, playerID: c.id}, c.ledger, opts...)
		if err != nil {
			return nil, err
		}
		c.sessions[gameID] = s
	}
	if err := s.Init(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Sessions returns the initialized sessions of every catalog game, in menu order.
func (c *Context) Sessions(ctx context.Context) ([]*game.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	games := c.reg.games.Games()
	out := make([]*game.Session, 0, len(games))
	for _, g := range games {
		s, err := c.sessionLocked(ctx, g.Def.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Enter makes a game playable. Entry is refused once the ledger is exhausted;
// a game whose pool is still populating returns game.ErrLoading.
func (c *Context) Enter(ctx context.Context, gameID string) (*game.Session, error) {
	if c.ledger.GameOver() {
		return nil, ledger.ErrGameOver
	}
	s, err := c.Session(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if err := s.Start(ctx); err != nil {
		return s, err
	}
	return s, nil
}

// ResetAll clears every game and reseeds the ledger. Every session is held
// for the duration; the store is reset in one step first and in-memory state
// follows only if that succeeds.
func (c *Context) ResetAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]string, 0, len(c.sessions))
	for id := range c.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		release := c.sessions[id].Hold()
		defer release()
	}

	if err := c.reg.store.ResetAll(ctx, c.id, c.reg.seed); err != nil {
		return fmt.Errorf("reset %s: %w", c.id, err)
	}
	c.ledger.Reset(c.reg.seed)
	for _, id := range ids {
		c.sessions[id].ClearHeld()
	}
	log.Info().Str("playerId", c.id).Int("balance", c.reg.seed).Msg("player reset")
	return nil
}

// balanceSaver binds the ledger to the player's ledger record.
type balanceSaver struct {
	st       store.Store
	playerID string
}

func (b balanceSaver) SaveBalance(balance int) error {
	return b.st.SaveBalance(context.Background(), b.playerID, balance)
}

// progressStore binds a session to the player's progress records.
type progressStore struct {
	st       store.Store
	playerID string
}

func (p progressStore) LoadProgress(ctx context.Context, gameID string) (*quiz.Progress, error) {
	return p.st.LoadProgress(ctx, p.playerID, gameID)
}

func (p progressStore) SaveProgress(ctx context.Context, gameID string, pr *quiz.Progress) error {
	return p.st.SaveProgress(ctx, p.playerID, gameID, pr)
}

func (p progressStore) ClearProgress(ctx context.Context, gameID string) error {
	return p.st.ClearProgress(ctx, p.playerID, gameID)
}
