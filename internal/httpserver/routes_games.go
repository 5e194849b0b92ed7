// internal/httpserver/routes_games.go
//
// HTTP routes for the player's ledger and games.
//   - GET  /score                  → {balance, gameOver}
//   - POST /reset                  → reset every game and the ledger
//   - GET  /games                  → game list with state, loading %, progress
//   - GET  /games/{id}             → session view (items in frozen order)
//   - POST /games/{id}/start       → enter the game (?wait=true awaits a loading pool)
//   - POST /games/{id}/answer      → {itemId, text}
//   - POST /games/{id}/search      → {text} (search-mode games)
//   - POST /games/{id}/hint        → {itemId}; search-mode games accept no itemId (random unfound item)
//   - POST /games/{id}/pause
//   - POST /games/{id}/reset
//
// Play responses carry the Outcome, including the events the request emitted.

package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/namequiz/internal/game"
	"github.com/robalobadob/namequiz/internal/ledger"
	"github.com/robalobadob/namequiz/internal/player"
)

func (s *Server) mountGames(r chi.Router) {
	r.Get("/score", s.handleScore)
	r.Post("/reset", s.handleResetAll)
	r.Get("/games", s.handleGames)
	r.Route("/games/{id}", func(r chi.Router) {
		r.Get("/", s.handleView)
		r.Post("/start", s.handleStart)
		r.Post("/answer", s.handleAnswer)
		r.Post("/search", s.handleSearch)
		r.Post("/hint", s.handleHint)
		r.Post("/pause", s.handlePause)
		r.Post("/reset", s.handleReset)
	})
}

// player returns the caller's context.
func (s *Server) player(w http.ResponseWriter, r *http.Request) *player.Context {
	return s.players.Get(r.Context(), s.playerID(w, r))
}

// session returns the caller's session for the {id} URL param, writing the
// error response when there is none.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*game.Session, bool) {
	sess, err := s.player(w, r).Session(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeGameError(w, r, err)
		return nil, false
	}
	return sess, true
}

// writeGameError maps domain errors to JSON error codes.
func writeGameError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, player.ErrUnknownGame):
		writeError(w, http.StatusNotFound, "unknown_game")
	case errors.Is(err, game.ErrItemUnavailable):
		writeError(w, http.StatusNotFound, "item_unavailable")
	case errors.Is(err, ledger.ErrGameOver):
		writeError(w, http.StatusConflict, "game_over")
	case errors.Is(err, game.ErrNotActive):
		writeError(w, http.StatusConflict, "not_active")
	case errors.Is(err, game.ErrLoading):
		writeError(w, http.StatusAccepted, "loading")
	case errors.Is(err, ledger.ErrInsufficientFunds):
		writeError(w, http.StatusPaymentRequired, "insufficient_funds")
	default:
		requestLogger(r).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "server_error")
	}
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.player(w, r).Score())
}

func (s *Server) handleResetAll(w http.ResponseWriter, r *http.Request) {
	pc := s.player(w, r)
	if err := pc.ResetAll(r.Context()); err != nil {
		writeGameError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pc.Score())
}

// gameSummary is one row of GET /games.
type gameSummary struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Mode        string        `json:"mode"` // "items" | "search"
	HintMode    string        `json:"hintMode"`
	State       game.State    `json:"state"`
	Loading     int           `json:"loading"`
	Progress    game.Snapshot `json:"progress"`
}

func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	pc := s.player(w, r)
	sessions, err := pc.Sessions(r.Context())
	if err != nil {
		writeGameError(w, r, err)
		return
	}
	out := make([]gameSummary, 0, len(sessions))
	for _, sess := range sessions {
		v := sess.View()
		mode := "items"
		if v.Game.SearchMode {
			mode = "search"
		}
		out = append(out, gameSummary{
			ID:          v.Game.ID,
			Name:        v.Game.Name,
			Description: v.Game.Description,
			Mode:        mode,
			HintMode:    string(v.Game.Hints),
			State:       v.State,
			Loading:     v.Loading,
			Progress:    v.Progress,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"score": pc.Score(), "games": out})
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

// handleStart enters the game. Entry is refused at zero balance. A loading
// pool answers 202 with the loading view, unless ?wait=true, in which case the
// handler waits for the pool until the request times out.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	pc := s.player(w, r)
	id := chi.URLParam(r, "id")
	sess, err := pc.Enter(r.Context(), id)
	if errors.Is(err, game.ErrLoading) && r.URL.Query().Get("wait") == "true" {
		select {
		case <-sess.Loaded():
			sess, err = pc.Enter(r.Context(), id)
		case <-r.Context().Done():
		}
	}
	switch {
	case errors.Is(err, game.ErrLoading):
		writeJSON(w, http.StatusAccepted, sess.View())
	case err != nil:
		writeGameError(w, r, err)
	default:
		writeJSON(w, http.StatusOK, sess.View())
	}
}

type answerReq struct {
	ItemID string `json:"itemId"`
	Text   string `json:"text"`
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ItemID == "" {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	out, err := sess.SubmitAnswer(r.Context(), req.ItemID, req.Text)
	if err != nil {
		writeGameError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type searchReq struct {
	Text string `json:"text"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if !sess.Definition().SearchMode {
		writeError(w, http.StatusBadRequest, "search_not_supported")
		return
	}
	out, err := sess.Search(r.Context(), req.Text)
	if err != nil {
		writeGameError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type hintReq struct {
	ItemID string `json:"itemId"`
}

// handleHint buys a hint for itemId. Search-mode games have no per-item
// buttons, so there an empty body or itemId hints a random unfound item.
func (s *Server) handleHint(w http.ResponseWriter, r *http.Request) {
	var req hintReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var (
		out game.Outcome
		err error
	)
	switch {
	case req.ItemID != "":
		out, err = sess.UseHint(r.Context(), req.ItemID)
	case sess.Definition().SearchMode:
		out, err = sess.RandomHint(r.Context())
	default:
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	if err != nil {
		writeGameError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.Pause(r.Context()); err != nil {
		writeGameError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.Reset(r.Context()); err != nil {
		writeGameError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}
