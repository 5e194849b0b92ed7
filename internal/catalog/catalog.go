// internal/catalog/catalog.go
//
// The fixed set of games and where their item pools come from.
// Responsibilities:
//   - Decode each game's pool from embedded JSON (or from POOLS_DIR when set).
//   - Validate pools at startup; a malformed pool is a fatal configuration error.
//   - Start background population for remote-image games when enabled.
//
// Pool files:
//   - flags.json, logos.json, people.json, creatures.json, metro.json
//
// Environment (read by internal/config, passed in through Options):
//   POOLS_DIR=/path/to/pools      override embedded pool files, file by file
//   REMOTE_POOLS=true             probe people/creatures images before play

package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/namequiz/assets"
	"github.com/robalobadob/namequiz/internal/game"
	"github.com/robalobadob/namequiz/internal/hint"
	"github.com/robalobadob/namequiz/internal/quiz"
)

// Options configures pool loading.
type Options struct {
	// PoolsDir, when set, is searched for <name>.json before the embedded copy.
	PoolsDir string
	// Remote enables image probing for the remote-image games.
	Remote      bool
	Timeout     time.Duration // 0 uses DefaultProbeTimeout
	Concurrency int
	HTTPClient  *http.Client
	// Probers overrides the prober per game id (tests).
	Probers map[string]Prober
}

// Game is one playable catalog entry.
type Game struct {
	Def    game.Definition
	Source *Source
}

type Catalog struct {
	games []Game
	byID  map[string]int
}

type entry struct {
	def    game.Definition
	decode func(name string, raw []byte) (*quiz.Pool, error)
	remote bool
	prober func(c *http.Client) Prober
}

func entries() []entry {
	return []entry{
		{
			def: game.Definition{
				ID: "flags", Name: "Challenge Drapeaux",
				Description: "Devinez tous les drapeaux des pays de l'ONU !",
				Hints:       hint.ModeCharacters,
			},
			decode: decodePool[flagRecord],
		},
		{
			def: game.Definition{
				ID: "logos", Name: "Challenge Logos",
				Description: "Devinez tous les logos de marques et entreprises !",
				Hints:       hint.ModeCharacters,
			},
			decode: decodePool[logoRecord],
		},
		{
			def: game.Definition{
				ID: "people", Name: "Challenge People",
				Description: "Devinez toutes les personnalités célèbres !",
				Hints:       hint.ModeCharacters,
			},
			decode: decodePool[personRecord],
			remote: true,
			prober: func(c *http.Client) Prober { return WikiImages{Client: c} },
		},
		{
			def: game.Definition{
				ID: "creatures", Name: "Challenge Pokémon",
				Description: "Devinez tous les 150 premiers Pokémon !",
				Hints:       hint.ModeCharacters,
			},
			decode: decodePool[creatureRecord],
			remote: true,
			prober: func(c *http.Client) Prober { return HTTPProber{Client: c} },
		},
		{
			def: game.Definition{
				ID: "metro", Name: "Challenge Métro",
				Description: "Trouvez toutes les stations du métro parisien !",
				Hints:       hint.ModeEdges,
				SearchMode:  true,
				Grouped:     true,
			},
			decode: decodePool[stationRecord],
		},
	}
}

// New loads and validates every pool. Remote population, when enabled, starts
// in the background and New returns without waiting for it.
func New(opts Options) (*Catalog, error) {
	c := &Catalog{byID: map[string]int{}}
	for _, sp := range entries() {
		raw, err := readPool(opts.PoolsDir, sp.def.ID)
		if err != nil {
			return nil, err
		}
		pool, err := sp.decode(sp.def.ID, raw)
		if err != nil {
			return nil, err
		}

		var src *Source
		switch {
		case sp.remote && opts.Remote:
			prober := opts.Probers[sp.def.ID]
			if prober == nil {
				prober = sp.prober(opts.HTTPClient)
			}
			src = Populate(sp.def.ID, pool, prober, PopulateOptions{
				Timeout:     opts.Timeout,
				Concurrency: opts.Concurrency,
			})
		default:
			src = Static(pool)
		}
		c.byID[sp.def.ID] = len(c.games)
		c.games = append(c.games, Game{Def: sp.def, Source: src})
		log.Info().Str("game", sp.def.ID).Int("items", pool.Len()).Bool("remote", sp.remote && opts.Remote).Msg("pool loaded")
	}
	return c, nil
}

// Games returns the games in menu order.
func (c *Catalog) Games() []Game {
	out := make([]Game, len(c.games))
	copy(out, c.games)
	return out
}

func (c *Catalog) Lookup(id string) (Game, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Game{}, false
	}
	return c.games[i], true
}

// readPool prefers dir/<name>.json and falls back to the embedded pool.
func readPool(dir, name string) ([]byte, error) {
	if dir != "" {
		b, err := os.ReadFile(filepath.Join(dir, name+".json"))
		switch {
		case err == nil:
			return b, nil
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("read pool %s: %w", name, err)
		}
	}
	b, err := assets.Pool(name)
	if err != nil {
		return nil, fmt.Errorf("embedded pool %s: %w", name, err)
	}
	return b, nil
}
