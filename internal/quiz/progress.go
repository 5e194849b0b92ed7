package quiz

import (
	"math/rand/v2"
	"slices"
)

// HintRecord is the reveal state of one item. Character hints use Indices
// (rune positions in the canonical name); edge hints use the two flags.
type HintRecord struct {
	Indices     []int `json:"indices,omitempty"`
	FirstLetter bool  `json:"firstLetter,omitempty"`
	LastLetter  bool  `json:"lastLetter,omitempty"`
}

// Revealed reports whether rune index i is revealed.
func (h *HintRecord) Revealed(i int) bool {
	return h != nil && slices.Contains(h.Indices, i)
}

// Progress is the persisted state of one game.
type Progress struct {
	FoundIDs      []string               `json:"foundIds"`
	UserAnswers   map[string]string      `json:"userAnswers"`
	HintsRevealed map[string]*HintRecord `json:"hintsRevealed"`
	Order         []string               `json:"order"`
}

// NewProgress returns empty progress with a fresh random order over the pool.
func NewProgress(p *Pool, rng *rand.Rand) *Progress {
	return &Progress{
		FoundIDs:      []string{},
		UserAnswers:   map[string]string{},
		HintsRevealed: map[string]*HintRecord{},
		Order:         Permutation(p.IDs(), rng),
	}
}

// Permutation returns a shuffled copy of ids. A nil rng uses the global source.
func Permutation(ids []string, rng *rand.Rand) []string {
	out := slices.Clone(ids)
	swap := func(i, j int) { out[i], out[j] = out[j], out[i] }
	if rng == nil {
		rand.Shuffle(len(out), swap)
	} else {
		rng.Shuffle(len(out), swap)
	}
	return out
}

func (pr *Progress) IsFound(id string) bool {
	return slices.Contains(pr.FoundIDs, id)
}

// FoundSet returns the found ids as a set.
func (pr *Progress) FoundSet() map[string]bool {
	set := make(map[string]bool, len(pr.FoundIDs))
	for _, id := range pr.FoundIDs {
		set[id] = true
	}
	return set
}

// MarkFound appends id to FoundIDs; it reports false if id was already there.
func (pr *Progress) MarkFound(id string) bool {
	if pr.IsFound(id) {
		return false
	}
	pr.FoundIDs = append(pr.FoundIDs, id)
	return true
}

// Hint returns the record for id, creating it when missing.
func (pr *Progress) Hint(id string) *HintRecord {
	if pr.HintsRevealed == nil {
		pr.HintsRevealed = map[string]*HintRecord{}
	}
	h, ok := pr.HintsRevealed[id]
	if !ok || h == nil {
		h = &HintRecord{}
		pr.HintsRevealed[id] = h
	}
	return h
}

// Reconcile fits loaded progress to the final pool: ids no longer in the pool
// are dropped everywhere, and pool ids missing from Order are appended in random
// order. It reports whether anything changed.
func (pr *Progress) Reconcile(p *Pool, rng *rand.Rand) bool {
	changed := false
	if pr.UserAnswers == nil {
		pr.UserAnswers = map[string]string{}
	}
	if pr.HintsRevealed == nil {
		pr.HintsRevealed = map[string]*HintRecord{}
	}

	keep := func(ids []string) []string {
		seen := make(map[string]bool, len(ids))
		out := make([]string, 0, len(ids))
		for _, id := range ids {
			if !p.Has(id) || seen[id] {
				changed = true
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
		return out
	}
	pr.Order = keep(pr.Order)
	pr.FoundIDs = keep(pr.FoundIDs)

	for id := range pr.UserAnswers {
		if !p.Has(id) {
			delete(pr.UserAnswers, id)
			changed = true
		}
	}
	for id := range pr.HintsRevealed {
		if !p.Has(id) {
			delete(pr.HintsRevealed, id)
			changed = true
		}
	}

	inOrder := make(map[string]bool, len(pr.Order))
	for _, id := range pr.Order {
		inOrder[id] = true
	}
	var missing []string
	for _, id := range p.IDs() {
		if !inOrder[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		pr.Order = append(pr.Order, Permutation(missing, rng)...)
		changed = true
	}
	return changed
}

// Clone returns a deep copy.
func (pr *Progress) Clone() *Progress {
	out := &Progress{
		FoundIDs:      slices.Clone(pr.FoundIDs),
		UserAnswers:   make(map[string]string, len(pr.UserAnswers)),
		HintsRevealed: make(map[string]*HintRecord, len(pr.HintsRevealed)),
		Order:         slices.Clone(pr.Order),
	}
	if out.FoundIDs == nil {
		out.FoundIDs = []string{}
	}
	for k, v := range pr.UserAnswers {
		out.UserAnswers[k] = v
	}
	for k, v := range pr.HintsRevealed {
		if v == nil {
			continue
		}
		out.HintsRevealed[k] = &HintRecord{
			Indices:     slices.Clone(v.Indices),
			FirstLetter: v.FirstLetter,
			LastLetter:  v.LastLetter,
		}
	}
	return out
}
