package quiz

import "github.com/robalobadob/namequiz/internal/textmatch"

// Rule identifies which comparison accepted a guess.
type Rule int

const (
	RuleNone Rule = iota
	RuleExactName
	RuleExactAlt
	RuleFuzzyName
	RuleFuzzyAlt
)

func (r Rule) String() string {
	switch r {
	case RuleExactName:
		return "exact_name"
	case RuleExactAlt:
		return "exact_alt"
	case RuleFuzzyName:
		return "fuzzy_name"
	case RuleFuzzyAlt:
		return "fuzzy_alt"
	default:
		return "none"
	}
}

// Resolution is the outcome of resolving one guess.
type Resolution struct {
	// IDs holds the matched item first, then its unfound group peers in pool order.
	IDs []string
	// Matched is the item that satisfied a rule; "" when nothing matched.
	Matched string
	Rule    Rule
	// AlreadyFound is set when the guess only matches items that are already found.
	AlreadyFound bool
}

func (r Resolution) OK() bool { return len(r.IDs) > 0 }

// Resolve matches guess against every unfound item in pool order.
// isFound may be nil when nothing has been found yet.
func Resolve(guess string, p *Pool, isFound func(id string) bool) Resolution {
	g := textmatch.Normalize(guess)
	if g == "" || p.Len() == 0 {
		return Resolution{}
	}
	found := foundFunc(isFound)

	for i := range p.items {
		if found(p.items[i].ID) {
			continue
		}
		if rule := p.match(g, i); rule != RuleNone {
			return p.expand(i, rule, found)
		}
	}

	for i := range p.items {
		if found(p.items[i].ID) && p.match(g, i) != RuleNone {
			return Resolution{AlreadyFound: true}
		}
	}
	return Resolution{}
}

// ResolveTarget checks guess against targetID and its unfound group peers only.
// A found or unknown target never resolves.
func ResolveTarget(guess string, p *Pool, targetID string, isFound func(id string) bool) Resolution {
	g := textmatch.Normalize(guess)
	if g == "" || p == nil {
		return Resolution{}
	}
	found := foundFunc(isFound)
	ti, ok := p.index[targetID]
	if !ok || found(targetID) {
		return Resolution{}
	}

	if rule := p.match(g, ti); rule != RuleNone {
		return p.expand(ti, rule, found)
	}
	for _, i := range p.groups[p.items[ti].Group] {
		if i == ti || found(p.items[i].ID) {
			continue
		}
		if rule := p.match(g, i); rule != RuleNone {
			return p.expand(i, rule, found)
		}
	}
	return Resolution{}
}

// match applies the per-item rules in order: exact name, exact alternate,
// tolerant name, tolerant alternate.
func (p *Pool) match(g string, i int) Rule {
	n := p.norm[i]
	if g == n.name {
		return RuleExactName
	}
	for _, a := range n.alts {
		if g == a {
			return RuleExactAlt
		}
	}
	if textmatch.Tolerates(g, n.name) {
		return RuleFuzzyName
	}
	for _, a := range n.alts {
		if textmatch.Tolerates(g, a) {
			return RuleFuzzyAlt
		}
	}
	return RuleNone
}

func (p *Pool) expand(i int, rule Rule, found func(string) bool) Resolution {
	matched := p.items[i].ID
	res := Resolution{Matched: matched, Rule: rule, IDs: []string{matched}}
	for _, j := range p.groups[p.items[i].Group] {
		id := p.items[j].ID
		if j == i || found(id) {
			continue
		}
		res.IDs = append(res.IDs, id)
	}
	return res
}

func foundFunc(isFound func(string) bool) func(string) bool {
	if isFound == nil {
		return func(string) bool { return false }
	}
	return isFound
}
