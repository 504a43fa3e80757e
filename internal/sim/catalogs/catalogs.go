package catalogs

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed cards.schema.json
var cardsSchemaJSON string

const cardsSchemaURL = "https://polydros.ai/schemas/cards.schema.json"

// Defaults applied to optional catalog fields at load time.
const (
	DefaultPerPackAppearance = 1.0
	DefaultBasePrice         = 10.0
	DefaultQualityScore      = 0.5
)

type Rarity string

const (
	Common       Rarity = "Common"
	Uncommon     Rarity = "Uncommon"
	Rare         Rarity = "Rare"
	Mythic       Rarity = "Mythic"
	Player       Rarity = "Player"
	AlternateArt Rarity = "Alternate Art"
)

// Rarities lists every rarity in catalog order.
var Rarities = []Rarity{Common, Uncommon, Rare, Mythic, Player, AlternateArt}

// ParseRarity maps a catalog rarity code to a Rarity. Letter codes (C/U/R/M/P/A),
// upper-case names (COMMON, ALTERNATE_ART) and display names are accepted.
func ParseRarity(code string) (Rarity, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	c = strings.NewReplacer(" ", "_", "-", "_").Replace(c)
	switch c {
	case "C", "COMMON":
		return Common, nil
	case "U", "UNCOMMON":
		return Uncommon, nil
	case "R", "RARE":
		return Rare, nil
	case "M", "MYTHIC":
		return Mythic, nil
	case "P", "PLAYER":
		return Player, nil
	case "A", "AA", "ALT", "ALTERNATE_ART", "ALTERNATEART":
		return AlternateArt, nil
	}
	return "", fmt.Errorf("unknown rarity %q", code)
}

// CardDefinition is an immutable card loaded from the catalog. Owned cards share
// the same pointer; nothing mutates a definition after Load.
type CardDefinition struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Color             string  `json:"color"`
	Type              string  `json:"type"`
	Rarity            Rarity  `json:"rarity"`
	GemColored        int     `json:"gem_colored"`
	GemColorless      int     `json:"gem_colorless"`
	Power             int     `json:"power"`
	Health            int     `json:"health"`
	PerPackAppearance float64 `json:"per_pack_appearance"`
	HoloChance        float64 `json:"holo_chance"`
	PackWeight        float64 `json:"pack_weight"`
	QualityScore      float64 `json:"quality_score"`
	BasePrice         float64 `json:"base_price"`
	FlavorText        string  `json:"flavor_text"`
}

// TotalGems is the combined colored and colorless gem cost.
func (d *CardDefinition) TotalGems() int { return d.GemColored + d.GemColorless }

type Catalog struct {
	Cards    []*CardDefinition
	ByID     map[string]*CardDefinition
	byRarity map[Rarity][]*CardDefinition
	Digest   string
}

// cardEntry is the on-disk shape. Optional numbers are pointers so that an absent
// field can be told apart from an explicit zero when defaults are applied.
type cardEntry struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Color             string   `json:"color"`
	Type              string   `json:"type"`
	Rarity            string   `json:"rarity"`
	GemColored        int      `json:"gem_colored"`
	GemColorless      int      `json:"gem_colorless"`
	Power             int      `json:"power"`
	Health            int      `json:"health"`
	PerPackAppearance *float64 `json:"per_pack_appearance"`
	HoloChance        float64  `json:"holo_chance"`
	PackWeight        *float64 `json:"pack_weight"`
	QualityScore      *float64 `json:"quality_score"`
	BasePrice         *float64 `json:"base_price"`
	FlavorText        string   `json:"flavor_text"`
}

var cardsSchema = jsonschema.MustCompileString(cardsSchemaURL, cardsSchemaJSON)

// Load reads and validates a card catalog file. Any malformed entry fails the
// whole load.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse validates raw catalog JSON against the embedded schema and decodes it.
func Parse(raw []byte) (*Catalog, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("cards.json: %w", err)
	}
	if err := cardsSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("cards.json: schema: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var entries []cardEntry
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("cards.json: %w", err)
	}

	defs := make([]CardDefinition, 0, len(entries))
	for i, e := range entries {
		d, err := e.definition()
		if err != nil {
			return nil, fmt.Errorf("cards.json: entry %d: %w", i, err)
		}
		defs = append(defs, d)
	}
	c, err := New(defs)
	if err != nil {
		return nil, err
	}
	c.Digest = sha256Hex(raw)
	return c, nil
}

func (e cardEntry) definition() (CardDefinition, error) {
	r, err := ParseRarity(e.Rarity)
	if err != nil {
		return CardDefinition{}, fmt.Errorf("card %s: %w", e.ID, err)
	}
	d := CardDefinition{
		ID:                e.ID,
		Name:              e.Name,
		Color:             e.Color,
		Type:              e.Type,
		Rarity:            r,
		GemColored:        e.GemColored,
		GemColorless:      e.GemColorless,
		Power:             e.Power,
		Health:            e.Health,
		PerPackAppearance: DefaultPerPackAppearance,
		HoloChance:        e.HoloChance,
		BasePrice:         DefaultBasePrice,
		FlavorText:        e.FlavorText,
	}
	if e.PerPackAppearance != nil {
		d.PerPackAppearance = *e.PerPackAppearance
	}
	// Pack weight mirrors the per-pack appearance unless set explicitly.
	d.PackWeight = d.PerPackAppearance
	if e.PackWeight != nil {
		d.PackWeight = *e.PackWeight
	}
	d.QualityScore = DefaultQualityScore
	if e.Power+e.Health > 0 {
		d.QualityScore = float64(e.Power+e.Health) / 2.0
	}
	if e.QualityScore != nil {
		d.QualityScore = *e.QualityScore
	}
	if e.BasePrice != nil {
		d.BasePrice = *e.BasePrice
	}
	return d, nil
}

// New builds a catalog from already-defaulted definitions, preserving their order.
func New(defs []CardDefinition) (*Catalog, error) {
	c := &Catalog{
		Cards:    make([]*CardDefinition, 0, len(defs)),
		ByID:     make(map[string]*CardDefinition, len(defs)),
		byRarity: map[Rarity][]*CardDefinition{},
	}
	for i := range defs {
		d := defs[i]
		if d.ID == "" {
			return nil, fmt.Errorf("cards.json: empty id at entry %d", i)
		}
		if _, dup := c.ByID[d.ID]; dup {
			return nil, fmt.Errorf("cards.json: duplicate id %s", d.ID)
		}
		if d.PackWeight < 0 || d.BasePrice < 0 || d.QualityScore < 0 {
			return nil, fmt.Errorf("cards.json: card %s: negative weight, price or quality", d.ID)
		}
		if _, err := ParseRarity(string(d.Rarity)); err != nil {
			return nil, fmt.Errorf("cards.json: card %s: %w", d.ID, err)
		}
		p := &d
		c.Cards = append(c.Cards, p)
		c.ByID[d.ID] = p
		c.byRarity[d.Rarity] = append(c.byRarity[d.Rarity], p)
	}
	if c.Digest == "" {
		b, _ := json.Marshal(c.Cards)
		c.Digest = sha256Hex(b)
	}
	return c, nil
}

func (c *Catalog) Lookup(id string) (*CardDefinition, bool) {
	d, ok := c.ByID[id]
	return d, ok
}

// ByRarity returns the definitions of one rarity in catalog order. The slice is
// shared; callers must not modify it.
func (c *Catalog) ByRarity(r Rarity) []*CardDefinition {
	return c.byRarity[r]
}

func (c *Catalog) Len() int { return len(c.Cards) }

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
