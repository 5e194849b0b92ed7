// internal/game/engine.go
//
// Core session engine for one quiz game of one player.
// Responsibilities:
//   - Lifecycle: uninitialized → loading → ready → active ⇄ paused → completed.
//   - Load, reconcile, and persist GameProgress through a ProgressStore.
//   - Apply answers (per item) and searches (whole pool), awarding points via the Ledger.
//   - Delegate paid hints to the game's hint variant, for a chosen or a random item.
//
// Notes:
//   - All methods are serialized by the session mutex; the ledger has its own lock
//     and is always taken after the session lock.
//   - Persistence failures are logged and never fail an operation.
//   - A session never touches the pool while it is loading; Loaded() is the only await point.
package game

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/namequiz/internal/hint"
	"github.com/robalobadob/namequiz/internal/quiz"
	"github.com/robalobadob/namequiz/internal/textmatch"
)

type Option func(*Session)

// WithRand makes order permutation and character hints deterministic.
func WithRand(r *rand.Rand) Option {
	return func(s *Session) { s.rng = r }
}

func WithSink(sink EventSink) Option {
	return func(s *Session) { s.sink = sink }
}

// Session is the state machine of one game.
type Session struct {
	mu       sync.Mutex
	def      Definition
	source   PoolSource
	store    ProgressStore
	ledger   Ledger
	hints    hint.Engine
	rng      *rand.Rand
	sink     EventSink
	state    State
	pool     *quiz.Pool
	progress *quiz.Progress
}

// NewSession constructs an uninitialized session.
func NewSession(def Definition, src PoolSource, store ProgressStore, l Ledger, opts ...Option) (*Session, error) {
	s := &Session{
		def:    def,
		source: src,
		store:  store,
		ledger: l,
		state:  StateUninitialized,
	}
	for _, opt := range opts {
		opt(s)
	}
	h, err := hint.New(def.Hints, s.rng)
	if err != nil {
		return nil, fmt.Errorf("game %s: %w", def.ID, err)
	}
	s.hints = h
	return s, nil
}

func (s *Session) Definition() Definition { return s.def }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Loaded is closed once the item pool is final.
func (s *Session) Loaded() <-chan struct{} { return s.source.Loaded() }

// Init loads persisted progress once the pool is final. While the pool is
// still populating the session moves to loading and Init returns nil.
func (s *Session) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initLocked(ctx)
}

func (s *Session) initLocked(ctx context.Context) error {
	if s.state != StateUninitialized && s.state != StateLoading {
		return nil
	}
	select {
	case <-s.source.Loaded():
	default:
		s.state = StateLoading
		return nil
	}
	pool := s.source.Pool()
	if pool == nil {
		return fmt.Errorf("game %s: pool source closed without a pool", s.def.ID)
	}
	s.pool = pool

	pr, err := s.store.LoadProgress(ctx, s.def.ID)
	if err != nil {
		log.Warn().Err(err).Str("gameId", s.def.ID).Msg("load progress failed; starting fresh")
		pr = nil
	}
	switch {
	case pr == nil:
		s.progress = quiz.NewProgress(pool, s.rng)
		s.save(ctx)
	case pr.Reconcile(pool, s.rng):
		s.progress = pr
		s.save(ctx)
	default:
		s.progress = pr
	}

	s.state = StateReady
	if s.completeLocked() {
		s.state = StateCompleted
	}
	return nil
}

// Start makes the session playable. It returns ErrLoading while the pool is
// still populating; callers wait on Loaded() and call Start again.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.initLocked(ctx); err != nil {
		return err
	}
	switch s.state {
	case StateLoading:
		return ErrLoading
	case StateReady, StatePaused:
		s.state = StateActive
	}
	return nil
}

// Pause saves progress and leaves the active state.
func (s *Session) Pause(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return ErrNotActive
	}
	s.state = StatePaused
	s.save(ctx)
	return nil
}

// Reset discards all progress of this game and starts over with a fresh order.
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.initLocked(ctx); err != nil {
		return err
	}
	if s.state == StateLoading {
		return ErrLoading
	}
	if err := s.store.ClearProgress(ctx, s.def.ID); err != nil {
		log.Warn().Err(err).Str("gameId", s.def.ID).Msg("clear progress failed")
	}
	s.progress = quiz.NewProgress(s.pool, s.rng)
	s.save(ctx)
	s.state = StateReady
	return nil
}

// Clear drops in-memory progress without touching the store; the next Init
// reloads from the store. Used after the store has been reset externally.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ClearHeld()
}

// Hold waits for the operation in progress, including its save, and keeps
// every other operation out until release is called.
func (s *Session) Hold() (release func()) {
	s.mu.Lock()
	return s.mu.Unlock
}

// ClearHeld is Clear for a caller that already holds the session.
func (s *Session) ClearHeld() {
	s.progress = nil
	s.pool = nil
	s.state = StateUninitialized
}

// SubmitAnswer checks text against one item (and its group). Resubmitting a
// found item is a no-op.
func (s *Session) SubmitAnswer(ctx context.Context, itemID, text string) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return Outcome{}, ErrNotActive
	}
	if !s.pool.Has(itemID) {
		return Outcome{}, fmt.Errorf("%s: %w", itemID, ErrItemUnavailable)
	}
	out := Outcome{}
	if s.progress.IsFound(itemID) {
		out.AlreadyFound = true
		return s.finish(out), nil
	}

	s.progress.UserAnswers[itemID] = text
	res := quiz.ResolveTarget(text, s.pool, itemID, s.progress.IsFound)
	if !res.OK() {
		s.emit(&out, Event{Kind: EventGuessIncorrect, ItemIDs: []string{itemID}})
		s.save(ctx)
		return s.finish(out), nil
	}
	s.award(ctx, &out, res.IDs, text)
	return s.finish(out), nil
}

// Search resolves text against the whole pool. A guess that matches nothing
// costs SearchPenalty when affordable; one that only matches found items is free.
func (s *Session) Search(ctx context.Context, text string) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return Outcome{}, ErrNotActive
	}
	out := Outcome{}
	res := quiz.Resolve(text, s.pool, s.progress.IsFound)
	switch {
	case res.OK():
		s.award(ctx, &out, res.IDs, text)
	case res.AlreadyFound:
		out.AlreadyFound = true
		s.emit(&out, Event{Kind: EventAlreadyFound})
	default:
		if textmatch.Normalize(text) == "" {
			s.emit(&out, Event{Kind: EventGuessIncorrect, Reason: "empty"})
			break
		}
		bal, err := s.ledger.SpendPoints(SearchPenalty)
		if err == nil {
			out.Penalty = SearchPenalty
		}
		s.emit(&out, Event{Kind: EventGuessIncorrect})
		if err == nil && bal == 0 {
			s.emit(&out, Event{Kind: EventGameOver})
		}
	}
	return s.finish(out), nil
}

// UseHint buys a hint for itemID. A character hint on a fully revealed name is
// reported in the outcome (partially refunded), not as an error; errors mean
// nothing changed.
func (s *Session) UseHint(ctx context.Context, itemID string) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return Outcome{}, ErrNotActive
	}
	return s.hintLocked(ctx, itemID)
}

// RandomHint buys a hint for a random unfound item. Each group counts once,
// so a station served by several lines is no more likely than any other.
func (s *Session) RandomHint(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return Outcome{}, ErrNotActive
	}
	var candidates []string
	for _, g := range s.pool.Groups() {
		for _, id := range s.pool.GroupMembers(g) {
			if !s.progress.IsFound(id) {
				candidates = append(candidates, id)
				break
			}
		}
	}
	if len(candidates) == 0 {
		return Outcome{}, fmt.Errorf("random hint: %w", ErrItemUnavailable)
	}
	return s.hintLocked(ctx, candidates[s.intN(len(candidates))])
}

func (s *Session) intN(n int) int {
	if s.rng == nil {
		return rand.IntN(n)
	}
	return s.rng.IntN(n)
}

func (s *Session) hintLocked(ctx context.Context, itemID string) (Outcome, error) {
	item, ok := s.pool.Item(itemID)
	if !ok || s.progress.IsFound(itemID) {
		return Outcome{}, fmt.Errorf("%s: %w", itemID, ErrItemUnavailable)
	}

	var peers []quiz.Item
	for _, id := range s.pool.GroupMembers(item.Group) {
		if id == itemID || s.progress.IsFound(id) {
			continue
		}
		peer, _ := s.pool.Item(id)
		peers = append(peers, peer)
	}

	out := Outcome{}
	res, err := s.hints.Reveal(item, peers, s.progress, s.ledger)
	switch {
	case errors.Is(err, hint.ErrFullyRevealed):
		out.Hint = &HintOutcome{ItemID: itemID, Mask: res.Mask, Charged: res.Charged, Reason: "fully_revealed"}
		s.emit(&out, Event{Kind: EventHintUsed, ItemIDs: []string{itemID}, Reason: "fully_revealed"})
	case err != nil:
		return Outcome{Balance: s.ledger.Balance(), State: s.state}, err
	default:
		out.Hint = &HintOutcome{
			ItemID:   itemID,
			Fragment: res.Fragment,
			Mask:     res.Mask,
			Applied:  res.Applied,
			Charged:  res.Charged,
		}
		s.emit(&out, Event{Kind: EventHintUsed, ItemIDs: res.Applied, Fragment: res.Fragment})
		s.save(ctx)
	}
	if s.ledger.Balance() == 0 {
		s.emit(&out, Event{Kind: EventGameOver})
	}
	return s.finish(out), nil
}

// View renders the session in frozen order. Before the pool is final it only
// reports state and loading percentage.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{Game: s.def, State: s.state, Loading: s.source.Percent()}
	if s.progress == nil {
		return v
	}
	v.Progress = s.snapshotLocked()
	v.Items = make([]ItemView, 0, len(s.progress.Order))
	for _, id := range s.progress.Order {
		it, ok := s.pool.Item(id)
		if !ok {
			continue
		}
		iv := ItemView{
			ID:       id,
			Found:    s.progress.IsFound(id),
			Answer:   s.progress.UserAnswers[id],
			ImageURL: it.ImageURL,
			Category: it.Category,
		}
		if iv.Found {
			iv.Name = it.Name
		} else if rec, ok := s.progress.HintsRevealed[id]; ok && rec != nil {
			iv.Mask = s.hints.Mask(it, rec)
		}
		v.Items = append(v.Items, iv)
	}
	return v
}

// Progress reports found/total; grouped games count groups.
func (s *Session) Progress() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	if s.progress == nil || s.pool.Len() == 0 {
		return Snapshot{}
	}
	var found, total int
	if s.def.Grouped {
		total = s.pool.GroupCount()
		for _, g := range s.pool.Groups() {
			for _, id := range s.pool.GroupMembers(g) {
				if s.progress.IsFound(id) {
					found++
					break
				}
			}
		}
	} else {
		total = s.pool.Len()
		for _, id := range s.progress.FoundIDs {
			if s.pool.Has(id) {
				found++
			}
		}
	}
	return Snapshot{
		Found:      found,
		Total:      total,
		Percentage: int(math.Round(100 * float64(found) / float64(total))),
	}
}

// award marks ids found, records text as each id's answer, pays PointsPerItem
// per id, and persists.
func (s *Session) award(ctx context.Context, out *Outcome, ids []string, text string) {
	for _, id := range ids {
		if !s.progress.MarkFound(id) {
			continue
		}
		s.progress.UserAnswers[id] = text
		out.ItemIDs = append(out.ItemIDs, id)
		if err := s.ledger.AddPoints(PointsPerItem); err != nil {
			log.Warn().Err(err).Str("gameId", s.def.ID).Str("itemId", id).Msg("award failed")
			continue
		}
		out.Points += PointsPerItem
	}
	out.Correct = len(out.ItemIDs) > 0
	s.emit(out, Event{Kind: EventGuessCorrect, ItemIDs: out.ItemIDs, Points: out.Points})
	if s.completeLocked() {
		s.state = StateCompleted
		s.emit(out, Event{Kind: EventGameCompleted})
	}
	s.save(ctx)
}

func (s *Session) completeLocked() bool {
	return s.pool.Len() > 0 && len(s.progress.FoundIDs) >= s.pool.Len()
}

func (s *Session) emit(out *Outcome, e Event) {
	e.GameID = s.def.ID
	out.Events = append(out.Events, e)
	if s.sink != nil {
		s.sink.Emit(e)
	}
}

func (s *Session) finish(out Outcome) Outcome {
	out.Balance = s.ledger.Balance()
	out.State = s.state
	out.Progress = s.snapshotLocked()
	if out.Events == nil {
		out.Events = []Event{}
	}
	return out
}

func (s *Session) save(ctx context.Context) {
	if s.progress == nil {
		return
	}
	if err := s.store.SaveProgress(ctx, s.def.ID, s.progress); err != nil {
		log.Warn().Err(err).Str("gameId", s.def.ID).Msg("save progress failed")
	}
}
