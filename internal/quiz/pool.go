// internal/quiz/pool.go
//
// Quiz items and the immutable, ordered pool a session plays against.
// Responsibilities:
//   - Entry: the contract every per-game record type satisfies (flags, logos, stations, ...).
//   - Item:  the flattened, immutable form the engine works with.
//   - Pool:  validated, ordered items with precomputed normalized names and group index.
//
// Notes:
//   - Pool order is the canonical order used to break ambiguous matches.
//   - Malformed input (empty id, duplicate id, empty name) is a construction error.

package quiz

import (
	"errors"
	"fmt"
	"strings"

	"github.com/robalobadob/namequiz/internal/textmatch"
)

// Entry is anything that can be played as a quiz item.
type Entry interface {
	EntryID() string
	EntryName() string
	EntryAltNames() []string
	// EntryGroup returns the group key, or "" to default to the normalized name.
	EntryGroup() string
}

// Illustrated is optionally implemented by entries that carry an image and a category.
type Illustrated interface {
	EntryImageURL() string
	EntryCategory() string
}

// Item is one playable entry.
type Item struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	AltNames []string `json:"altNames,omitempty"`
	Group    string   `json:"group"`
	Category string   `json:"category,omitempty"`
	ImageURL string   `json:"imageUrl,omitempty"`
}

func (it Item) EntryID() string         { return it.ID }
func (it Item) EntryName() string       { return it.Name }
func (it Item) EntryAltNames() []string { return it.AltNames }
func (it Item) EntryGroup() string      { return it.Group }
func (it Item) EntryImageURL() string   { return it.ImageURL }
func (it Item) EntryCategory() string   { return it.Category }

var (
	ErrEmptyID     = errors.New("quiz: item with empty id")
	ErrDuplicateID = errors.New("quiz: duplicate item id")
	ErrEmptyName   = errors.New("quiz: item with empty name")
)

type normalized struct {
	name string
	alts []string
}

// Pool is an ordered, validated, read-only set of items.
type Pool struct {
	items  []Item
	norm   []normalized
	index  map[string]int
	groups map[string][]int
	gorder []string
}

// NewPool validates entries and builds a pool in the given order.
func NewPool(entries []Entry) (*Pool, error) {
	p := &Pool{
		items:  make([]Item, 0, len(entries)),
		norm:   make([]normalized, 0, len(entries)),
		index:  make(map[string]int, len(entries)),
		groups: make(map[string][]int),
	}
	for i, e := range entries {
		id := strings.TrimSpace(e.EntryID())
		if id == "" {
			return nil, fmt.Errorf("entry %d: %w", i, ErrEmptyID)
		}
		if _, dup := p.index[id]; dup {
			return nil, fmt.Errorf("entry %d (%s): %w", i, id, ErrDuplicateID)
		}
		name := e.EntryName()
		normName := textmatch.Normalize(name)
		if strings.TrimSpace(name) == "" || normName == "" {
			return nil, fmt.Errorf("entry %d (%s): %w", i, id, ErrEmptyName)
		}

		it := Item{ID: id, Name: name, Group: e.EntryGroup()}
		if it.Group == "" {
			it.Group = normName
		}
		n := normalized{name: normName}
		for _, alt := range e.EntryAltNames() {
			na := textmatch.Normalize(alt)
			if na == "" {
				continue
			}
			it.AltNames = append(it.AltNames, alt)
			n.alts = append(n.alts, na)
		}
		if ill, ok := e.(Illustrated); ok {
			it.ImageURL = ill.EntryImageURL()
			it.Category = ill.EntryCategory()
		}

		idx := len(p.items)
		p.items = append(p.items, it)
		p.norm = append(p.norm, n)
		p.index[id] = idx
		if _, seen := p.groups[it.Group]; !seen {
			p.gorder = append(p.gorder, it.Group)
		}
		p.groups[it.Group] = append(p.groups[it.Group], idx)
	}
	return p, nil
}

// FromEntries is NewPool for a slice of any concrete Entry type.
func FromEntries[E Entry](entries []E) (*Pool, error) {
	es := make([]Entry, len(entries))
	for i, e := range entries {
		es[i] = e
	}
	return NewPool(es)
}

func (p *Pool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.items)
}

// Items returns a copy of the items in pool order.
func (p *Pool) Items() []Item {
	if p == nil {
		return nil
	}
	out := make([]Item, len(p.items))
	copy(out, p.items)
	return out
}

func (p *Pool) Item(id string) (Item, bool) {
	if p == nil {
		return Item{}, false
	}
	i, ok := p.index[id]
	if !ok {
		return Item{}, false
	}
	return p.items[i], true
}

func (p *Pool) Has(id string) bool {
	_, ok := p.Item(id)
	return ok
}

// IDs returns item ids in pool order.
func (p *Pool) IDs() []string {
	if p == nil {
		return nil
	}
	out := make([]string, len(p.items))
	for i, it := range p.items {
		out[i] = it.ID
	}
	return out
}

// GroupOf returns the group key of id.
func (p *Pool) GroupOf(id string) (string, bool) {
	it, ok := p.Item(id)
	return it.Group, ok
}

// GroupMembers returns the ids sharing group key g, in pool order.
func (p *Pool) GroupMembers(g string) []string {
	if p == nil {
		return nil
	}
	idxs := p.groups[g]
	out := make([]string, len(idxs))
	for i, idx := range idxs {
		out[i] = p.items[idx].ID
	}
	return out
}

// Groups returns the distinct group keys in order of first appearance.
func (p *Pool) Groups() []string {
	if p == nil {
		return nil
	}
	out := make([]string, len(p.gorder))
	copy(out, p.gorder)
	return out
}

func (p *Pool) GroupCount() int {
	if p == nil {
		return 0
	}
	return len(p.gorder)
}
