package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/robalobadob/namequiz/assets"
	"github.com/robalobadob/namequiz/internal/catalog"
	"github.com/robalobadob/namequiz/internal/game"
	"github.com/robalobadob/namequiz/internal/hint"
	"github.com/robalobadob/namequiz/internal/player"
	"github.com/robalobadob/namequiz/internal/quiz"
	"github.com/robalobadob/namequiz/internal/store"
)

type testGames []catalog.Game

func (g testGames) Games() []catalog.Game { return g }

func (g testGames) Lookup(id string) (catalog.Game, bool) {
	for _, x := range g {
		if x.Def.ID == id {
			return x, true
		}
	}
	return catalog.Game{}, false
}

func mustPool(t *testing.T, items ...quiz.Item) *quiz.Pool {
	t.Helper()
	p, err := quiz.FromEntries(items)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

type harness struct {
	t      *testing.T
	srv    *httptest.Server
	client *http.Client
}

// newHarness serves flags, metro and any extra games over a fresh users
// database and an in-memory player store.
func newHarness(t *testing.T, extra ...catalog.Game) *harness {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Migrate(db, assets.Migrations()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	games := testGames{
		{
			Def: game.Definition{ID: "flags", Name: "Flags", Hints: hint.ModeCharacters},
			Source: catalog.Static(mustPool(t,
				quiz.Item{ID: "de", Name: "Allemagne", AltNames: []string{"Germany"}},
				quiz.Item{ID: "td", Name: "Tchad"},
			)),
		},
		{
			Def: game.Definition{ID: "metro", Name: "Metro", Hints: hint.ModeEdges, SearchMode: true, Grouped: true},
			Source: catalog.Static(mustPool(t,
				quiz.Item{ID: "nation-1", Name: "Nation"},
				quiz.Item{ID: "nation-2", Name: "Nation"},
				quiz.Item{ID: "opera-3", Name: "Opéra"},
			)),
		},
	}
	games = append(games, extra...)

	reg := player.NewRegistry(store.NewMemoryStore(), games, 50)
	s := New(reg, db, Options{JWTSecret: "test-secret", RequestTimeout: 2 * time.Second})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	return &harness{t: t, srv: srv, client: newClient(t)}
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &http.Client{Jar: jar}
}

// do sends body as JSON and decodes the response into out (when non-nil).
func (h *harness) do(c *http.Client, method, path string, body any, out any) int {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			h.t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, h.srv.URL+path, &buf)
	if err != nil {
		h.t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.Do(req)
	if err != nil {
		h.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			h.t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return res.StatusCode
}

func (h *harness) call(method, path string, body any, out any) int {
	h.t.Helper()
	return h.do(h.client, method, path, body, out)
}

type errBody struct {
	Error string `json:"error"`
}

func eventKinds(out game.Outcome) []game.EventKind {
	kinds := make([]game.EventKind, 0, len(out.Events))
	for _, e := range out.Events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

func hasEvent(out game.Outcome, kind game.EventKind) bool {
	for _, k := range eventKinds(out) {
		if k == kind {
			return true
		}
	}
	return false
}

func TestDiagnostics(t *testing.T) {
	h := newHarness(t)
	var health map[string]bool
	if code := h.call(http.MethodGet, "/health", nil, &health); code != http.StatusOK || !health["ok"] {
		t.Errorf("GET /health = %d %v", code, health)
	}
	var nf map[string]string
	if code := h.call(http.MethodGet, "/nope", nil, &nf); code != http.StatusNotFound || nf["error"] != "not_found" {
		t.Errorf("GET /nope = %d %v", code, nf)
	}

	res, err := http.Get(h.srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	if ct := res.Header.Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if got := res.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestGuestPlaysFlags(t *testing.T) {
	h := newHarness(t)

	var score player.Score
	if code := h.call(http.MethodGet, "/score", nil, &score); code != http.StatusOK || score.Balance != 50 {
		t.Fatalf("GET /score = %d %+v", code, score)
	}

	var e errBody
	if code := h.call(http.MethodPost, "/games/flags/answer", answerReq{ItemID: "de", Text: "Allemagne"}, &e); code != http.StatusConflict || e.Error != "not_active" {
		t.Errorf("answer before start = %d %+v", code, e)
	}

	var view game.View
	if code := h.call(http.MethodPost, "/games/flags/start", nil, &view); code != http.StatusOK || view.State != game.StateActive {
		t.Fatalf("start = %d state %s", code, view.State)
	}
	if len(view.Items) != 2 || view.Items[0].Name != "" {
		t.Errorf("view items = %+v", view.Items)
	}

	var out game.Outcome
	if code := h.call(http.MethodPost, "/games/flags/answer", answerReq{ItemID: "de", Text: "germani"}, &out); code != http.StatusOK {
		t.Fatalf("answer = %d", code)
	}
	if !out.Correct || out.Balance != 60 || !hasEvent(out, game.EventGuessCorrect) {
		t.Errorf("answer outcome = %+v", out)
	}

	out = game.Outcome{}
	h.call(http.MethodPost, "/games/flags/answer", answerReq{ItemID: "td", Text: "Mali"}, &out)
	if out.Correct || !hasEvent(out, game.EventGuessIncorrect) || out.Balance != 60 {
		t.Errorf("wrong answer outcome = %+v", out)
	}

	out = game.Outcome{}
	if code := h.call(http.MethodPost, "/games/flags/hint", hintReq{ItemID: "td"}, &out); code != http.StatusOK {
		t.Fatalf("hint = %d", code)
	}
	if out.Hint == nil || out.Balance != 35 || !hasEvent(out, game.EventHintUsed) {
		t.Errorf("hint outcome = %+v", out)
	}

	if code := h.call(http.MethodPost, "/games/flags/hint", hintReq{ItemID: "de"}, &e); code != http.StatusNotFound || e.Error != "item_unavailable" {
		t.Errorf("hint on found item = %d %+v", code, e)
	}
	if code := h.call(http.MethodPost, "/games/flags/search", searchReq{Text: "Tchad"}, &e); code != http.StatusBadRequest {
		t.Errorf("search on flags = %d", code)
	}

	var list struct {
		Score player.Score  `json:"score"`
		Games []gameSummary `json:"games"`
	}
	h.call(http.MethodGet, "/games", nil, &list)
	if len(list.Games) != 2 || list.Score.Balance != 35 {
		t.Fatalf("GET /games = %+v", list)
	}
	flags := list.Games[0]
	if flags.ID != "flags" || flags.Mode != "items" || flags.State != game.StateActive || flags.Progress.Found != 1 {
		t.Errorf("flags summary = %+v", flags)
	}
	if list.Games[1].Mode != "search" || list.Games[1].HintMode != "edges" {
		t.Errorf("metro summary = %+v", list.Games[1])
	}

	if code := h.call(http.MethodPost, "/games/flags/pause", nil, &view); code != http.StatusOK || view.State != game.StatePaused {
		t.Errorf("pause = %d %s", code, view.State)
	}
	if code := h.call(http.MethodPost, "/games/flags/reset", nil, &view); code != http.StatusOK || view.Progress.Found != 0 {
		t.Errorf("reset = %d %+v", code, view.Progress)
	}
}

func TestUnknownGame(t *testing.T) {
	h := newHarness(t)
	var e errBody
	if code := h.call(http.MethodGet, "/games/map", nil, &e); code != http.StatusNotFound || e.Error != "unknown_game" {
		t.Errorf("GET /games/map = %d %+v", code, e)
	}
	if code := h.call(http.MethodPost, "/games/map/start", nil, &e); code != http.StatusNotFound {
		t.Errorf("start map = %d", code)
	}
}

func TestGameOverGatesEntry(t *testing.T) {
	h := newHarness(t)
	if code := h.call(http.MethodPost, "/games/metro/start", nil, nil); code != http.StatusOK {
		t.Fatalf("start = %d", code)
	}

	var out game.Outcome
	h.call(http.MethodPost, "/games/metro/search", searchReq{Text: "nation"}, &out)
	if out.Points != 20 || len(out.ItemIDs) != 2 {
		t.Fatalf("search nation = %+v", out)
	}
	// 70 points, 14 misses at 5 each.
	for i := 0; i < 14; i++ {
		out = game.Outcome{}
		h.call(http.MethodPost, "/games/metro/search", searchReq{Text: "zzzz"}, &out)
	}
	if out.Balance != 0 || !hasEvent(out, game.EventGameOver) {
		t.Fatalf("last miss = %+v", out)
	}

	var e errBody
	if code := h.call(http.MethodPost, "/games/flags/start", nil, &e); code != http.StatusConflict || e.Error != "game_over" {
		t.Errorf("start at zero = %d %+v", code, e)
	}

	var score player.Score
	if code := h.call(http.MethodPost, "/reset", nil, &score); code != http.StatusOK || score.Balance != 50 || score.GameOver {
		t.Fatalf("reset = %d %+v", code, score)
	}
	var view game.View
	if code := h.call(http.MethodPost, "/games/metro/start", nil, &view); code != http.StatusOK || view.Progress.Found != 0 {
		t.Errorf("start after reset = %d %+v", code, view.Progress)
	}
}

func TestHintWithoutItemInSearchMode(t *testing.T) {
	h := newHarness(t)
	if code := h.call(http.MethodPost, "/games/metro/start", nil, nil); code != http.StatusOK {
		t.Fatalf("start = %d", code)
	}
	var out game.Outcome
	h.call(http.MethodPost, "/games/metro/search", searchReq{Text: "nation"}, &out)

	out = game.Outcome{}
	if code := h.call(http.MethodPost, "/games/metro/hint", nil, &out); code != http.StatusOK {
		t.Fatalf("hint = %d", code)
	}
	if out.Hint == nil || out.Hint.ItemID != "opera-3" || out.Hint.Mask != "O___A" || out.Balance != 45 {
		t.Errorf("random hint outcome = %+v", out)
	}

	var e errBody
	if code := h.call(http.MethodPost, "/games/flags/hint", hintReq{}, &e); code != http.StatusBadRequest || e.Error != "bad_json" {
		t.Errorf("hint without item on flags = %d %+v", code, e)
	}
}

func TestStartWhileLoading(t *testing.T) {
	release := make(chan struct{})
	pool := mustPool(t, quiz.Item{ID: "c1", Name: "Bulbizarre", ImageURL: "http://img/1.png"})
	src := catalog.Populate("creatures", pool, catalog.ProberFunc(func(ctx context.Context, it quiz.Item) (string, error) {
		<-release
		return it.ImageURL, nil
	}), catalog.PopulateOptions{})
	h := newHarness(t, catalog.Game{
		Def:    game.Definition{ID: "creatures", Name: "Creatures", Hints: hint.ModeCharacters},
		Source: src,
	})

	var view game.View
	if code := h.call(http.MethodPost, "/games/creatures/start", nil, &view); code != http.StatusAccepted || view.State != game.StateLoading {
		t.Fatalf("start while loading = %d %s", code, view.State)
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		close(release)
	}()
	view = game.View{}
	if code := h.call(http.MethodPost, "/games/creatures/start?wait=true", nil, &view); code != http.StatusOK || view.State != game.StateActive {
		t.Fatalf("start?wait=true = %d %s", code, view.State)
	}
	if view.Loading != 100 || len(view.Items) != 1 {
		t.Errorf("view = %+v", view)
	}
}

func TestAuthClaimsGuestState(t *testing.T) {
	h := newHarness(t)
	h.call(http.MethodPost, "/games/flags/start", nil, nil)
	h.call(http.MethodPost, "/games/flags/answer", answerReq{ItemID: "td", Text: "Tchad"}, nil)

	creds := credentials{Username: "alice_1", Password: "password123"}
	var me authUser
	if code := h.call(http.MethodPost, "/auth/signup", creds, &me); code != http.StatusCreated || me.ID == "" {
		t.Fatalf("signup = %d %+v", code, me)
	}
	var score player.Score
	h.call(http.MethodGet, "/score", nil, &score)
	if score.Balance != 60 {
		t.Errorf("account balance = %d, want the guest's 60", score.Balance)
	}
	var got authUser
	if code := h.call(http.MethodGet, "/auth/me", nil, &got); code != http.StatusOK || got.Username != "alice_1" {
		t.Errorf("me = %d %+v", code, got)
	}

	var e errBody
	if code := h.call(http.MethodPost, "/auth/signup", credentials{Username: "ALICE_1", Password: "password123"}, &e); code != http.StatusConflict {
		t.Errorf("duplicate signup = %d %+v", code, e)
	}
	if code := h.call(http.MethodPost, "/auth/signup", credentials{Username: "x", Password: "password123"}, &e); code != http.StatusBadRequest {
		t.Errorf("short username = %d", code)
	}

	if code := h.call(http.MethodPost, "/auth/logout", nil, nil); code != http.StatusOK {
		t.Fatalf("logout = %d", code)
	}
	if code := h.call(http.MethodGet, "/auth/me", nil, &e); code != http.StatusUnauthorized {
		t.Errorf("me after logout = %d", code)
	}

	// A fresh client logs in and sees the account's state.
	other := newClient(t)
	if code := h.do(other, http.MethodPost, "/auth/login", credentials{Username: "alice_1", Password: "wrong-pass"}, &e); code != http.StatusUnauthorized {
		t.Errorf("bad login = %d", code)
	}
	if code := h.do(other, http.MethodPost, "/auth/login", creds, &got); code != http.StatusOK {
		t.Fatalf("login = %d", code)
	}
	score = player.Score{}
	h.do(other, http.MethodGet, "/score", nil, &score)
	if score.Balance != 60 {
		t.Errorf("balance after login = %d, want 60", score.Balance)
	}
}

func TestBearerToken(t *testing.T) {
	h := newHarness(t)
	var me authUser
	h.call(http.MethodPost, "/auth/signup", credentials{Username: "bob_2", Password: "password123"}, &me)

	s := &Server{opts: Options{JWTSecret: "test-secret", JWTExpiresDays: 1}}
	tok, _, err := s.signJWT(me.ID, "bob_2")
	if err != nil {
		t.Fatal(err)
	}
	req, _ := http.NewRequest(http.MethodGet, h.srv.URL+"/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Errorf("bearer me = %d", res.StatusCode)
	}

	bad := &Server{opts: Options{JWTSecret: "other", JWTExpiresDays: 1}}
	forged, _, _ := bad.signJWT(me.ID, "bob_2")
	req.Header.Set("Authorization", "Bearer "+forged)
	res, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusUnauthorized {
		t.Errorf("forged token = %d, want 401", res.StatusCode)
	}
}
