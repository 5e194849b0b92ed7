// internal/hint/hint.go
//
// Paid letter reveals.
// Responsibilities:
//   - Characters: reveal one random hidden character of the canonical name per paid call.
//   - Edges:      reveal the first and last character of the name (and of its group peers).
//   - Mask:       render an item name with unrevealed characters replaced by '_'.
//
// Notes:
//   - The ledger is charged before any reveal state changes; a failed spend changes nothing.
//   - A character hint on a fully revealed name refunds only part of the cost.
//   - Edge hints charge on every call, even when both edges are already shown.
//   - Positions are rune indices into the canonical name, not byte offsets.

package hint

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"unicode"

	"github.com/robalobadob/namequiz/internal/quiz"
)

const (
	Cost        = 25
	Refund      = 15
	Placeholder = '_'
)

type Mode string

const (
	ModeCharacters Mode = "characters"
	ModeEdges      Mode = "edges"
)

// ErrFullyRevealed is returned by a character hint when nothing was left to reveal.
// The ledger has already been refunded when it is returned.
var ErrFullyRevealed = errors.New("hint: name already fully revealed")

// Ledger is the part of the score ledger hints need.
type Ledger interface {
	AddPoints(n int) error
	SpendPoints(n int) (int, error)
	Balance() int
}

// Result describes one paid hint.
type Result struct {
	ItemID string
	// Fragment is what this call revealed, e.g. "a" or "N…N".
	Fragment string
	// Applied lists every item whose record changed.
	Applied []string
	Mask    string
	Balance int
	// Charged is the net amount taken from the ledger.
	Charged int
}

// Engine is one hint variant.
type Engine interface {
	Mode() Mode
	// Reveal charges the ledger and updates pr. peers are the unfound items
	// sharing item's group; variants that do not propagate ignore them.
	Reveal(item quiz.Item, peers []quiz.Item, pr *quiz.Progress, l Ledger) (Result, error)
	Mask(item quiz.Item, rec *quiz.HintRecord) string
}

// New returns the engine for mode. A nil rng uses the global source.
func New(mode Mode, rng *rand.Rand) (Engine, error) {
	switch mode {
	case ModeCharacters, "":
		return &Characters{rng: rng}, nil
	case ModeEdges:
		return Edges{}, nil
	default:
		return nil, fmt.Errorf("hint: unknown mode %q", mode)
	}
}

// Characters reveals one random hidden character per call.
type Characters struct {
	rng *rand.Rand
}

func NewCharacters(rng *rand.Rand) *Characters { return &Characters{rng: rng} }

func (*Characters) Mode() Mode { return ModeCharacters }

func (c *Characters) Reveal(item quiz.Item, _ []quiz.Item, pr *quiz.Progress, l Ledger) (Result, error) {
	balance, err := l.SpendPoints(Cost)
	if err != nil {
		return Result{}, err
	}

	runes := []rune(item.Name)
	rec := pr.HintsRevealed[item.ID]
	var hidden []int
	for i, r := range runes {
		if !unicode.IsSpace(r) && !rec.Revealed(i) {
			hidden = append(hidden, i)
		}
	}

	if len(hidden) == 0 {
		if err := l.AddPoints(Refund); err != nil {
			return Result{}, fmt.Errorf("hint refund: %w", err)
		}
		return Result{
			ItemID:  item.ID,
			Mask:    c.Mask(item, rec),
			Balance: l.Balance(),
			Charged: Cost - Refund,
		}, ErrFullyRevealed
	}

	pick := hidden[c.intN(len(hidden))]
	rec = pr.Hint(item.ID)
	rec.Indices = append(rec.Indices, pick)
	slices.Sort(rec.Indices)

	return Result{
		ItemID:   item.ID,
		Fragment: string(runes[pick]),
		Applied:  []string{item.ID},
		Mask:     c.Mask(item, rec),
		Balance:  balance,
		Charged:  Cost,
	}, nil
}

func (c *Characters) intN(n int) int {
	if c.rng == nil {
		return rand.IntN(n)
	}
	return c.rng.IntN(n)
}

func (*Characters) Mask(item quiz.Item, rec *quiz.HintRecord) string {
	runes := []rune(item.Name)
	var b strings.Builder
	for i, r := range runes {
		switch {
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		case rec.Revealed(i):
			b.WriteRune(r)
		default:
			b.WriteRune(Placeholder)
		}
	}
	return b.String()
}

// Edges reveals the first and last character of the name, for the whole group.
type Edges struct{}

func (Edges) Mode() Mode { return ModeEdges }

func (e Edges) Reveal(item quiz.Item, peers []quiz.Item, pr *quiz.Progress, l Ledger) (Result, error) {
	balance, err := l.SpendPoints(Cost)
	if err != nil {
		return Result{}, err
	}

	res := Result{ItemID: item.ID, Balance: balance, Charged: Cost}
	for _, it := range append([]quiz.Item{item}, peers...) {
		rec := pr.Hint(it.ID)
		rec.FirstLetter = true
		rec.LastLetter = true
		res.Applied = append(res.Applied, it.ID)
	}
	rec := pr.HintsRevealed[item.ID]
	res.Mask = e.Mask(item, rec)

	name := []rune(strings.TrimSpace(item.Name))
	if len(name) > 0 {
		first := unicode.ToUpper(name[0])
		last := unicode.ToUpper(name[len(name)-1])
		res.Fragment = string(first) + "…" + string(last)
	}
	return res, nil
}

func (Edges) Mask(item quiz.Item, rec *quiz.HintRecord) string {
	name := []rune(strings.TrimSpace(item.Name))
	first, last := false, false
	if rec != nil {
		first, last = rec.FirstLetter, rec.LastLetter
	}
	var b strings.Builder
	for i, r := range name {
		switch {
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		case i == 0 && first, i == len(name)-1 && last:
			b.WriteRune(unicode.ToUpper(r))
		default:
			b.WriteRune(Placeholder)
		}
	}
	return b.String()
}
