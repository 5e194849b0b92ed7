package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/robalobadob/namequiz/internal/quiz"
	"github.com/robalobadob/namequiz/internal/textmatch"
)

// flagRecord is one entry of flags.json.
type flagRecord struct {
	Code     string   `json:"code"`
	Name     string   `json:"name"`
	Flag     string   `json:"flag"`
	AltNames []string `json:"altNames"`
}

func (r flagRecord) EntryID() string         { return strings.ToLower(r.Code) }
func (r flagRecord) EntryName() string       { return r.Name }
func (r flagRecord) EntryAltNames() []string { return r.AltNames }
func (r flagRecord) EntryGroup() string      { return "" }
func (r flagRecord) EntryImageURL() string   { return r.Flag }
func (r flagRecord) EntryCategory() string   { return "" }

// logoRecord is one entry of logos.json.
type logoRecord struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Category string   `json:"category"`
	LogoURL  string   `json:"logoUrl"`
	AltNames []string `json:"altNames"`
}

func (r logoRecord) EntryID() string         { return "logo-" + strconv.Itoa(r.ID) }
func (r logoRecord) EntryName() string       { return r.Name }
func (r logoRecord) EntryAltNames() []string { return r.AltNames }
func (r logoRecord) EntryGroup() string      { return "" }
func (r logoRecord) EntryImageURL() string   { return r.LogoURL }
func (r logoRecord) EntryCategory() string   { return r.Category }

// personRecord is one entry of people.json. Images are resolved at load time.
type personRecord struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Image    string   `json:"image,omitempty"`
	AltNames []string `json:"altNames"`
}

func (r personRecord) EntryID() string         { return "person-" + strconv.Itoa(r.ID) }
func (r personRecord) EntryName() string       { return r.Name }
func (r personRecord) EntryAltNames() []string { return r.AltNames }
func (r personRecord) EntryGroup() string      { return "" }
func (r personRecord) EntryImageURL() string   { return r.Image }
func (r personRecord) EntryCategory() string   { return r.Category }

// creatureRecord is one entry of creatures.json.
type creatureRecord struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	EnglishName string   `json:"englishName"`
	Sprite      string   `json:"sprite"`
	AltNames    []string `json:"altNames"`
}

func (r creatureRecord) EntryID() string         { return "creature-" + strconv.Itoa(r.ID) }
func (r creatureRecord) EntryName() string       { return r.Name }
func (r creatureRecord) EntryAltNames() []string { return r.AltNames }
func (r creatureRecord) EntryGroup() string      { return "" }
func (r creatureRecord) EntryImageURL() string   { return r.Sprite }
func (r creatureRecord) EntryCategory() string   { return "" }

// stationRecord is one station on one line; the same station on several
// lines appears once per line. IDs are "<line>-<position>" and never carry
// the name, since clients see the ids of unfound stations.
type stationRecord struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	LongName  string `json:"long_name,omitempty"`
	ShortName string `json:"short_name,omitempty"`
	Line      string `json:"line"`
}

func (r stationRecord) EntryID() string   { return r.ID }
func (r stationRecord) EntryName() string { return r.Name }

func (r stationRecord) EntryAltNames() []string {
	var alts []string
	for _, n := range []string{r.LongName, r.ShortName} {
		if n != "" && n != r.Name {
			alts = append(alts, n)
		}
	}
	return alts
}

// EntryGroup identifies the station across lines: long name, then short name, then name.
func (r stationRecord) EntryGroup() string {
	for _, n := range []string{r.LongName, r.ShortName, r.Name} {
		if g := textmatch.Normalize(n); g != "" {
			return g
		}
	}
	return ""
}

func (r stationRecord) EntryImageURL() string { return "" }
func (r stationRecord) EntryCategory() string { return "Ligne " + r.Line }

// decodePool parses raw JSON into records of type E and builds a validated pool.
func decodePool[E quiz.Entry](name string, raw []byte) (*quiz.Pool, error) {
	var recs []E
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	p, err := quiz.FromEntries(recs)
	if err != nil {
		return nil, fmt.Errorf("pool %s: %w", name, err)
	}
	return p, nil
}
