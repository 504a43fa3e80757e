package catalogs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_ConfigCatalog(t *testing.T) {
	c, err := Load("../../../configs/cards.json")
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	if c.Len() == 0 {
		t.Fatalf("expected cards")
	}
	if c.Digest == "" {
		t.Fatalf("expected digest")
	}
	for _, r := range []Rarity{Common, Uncommon, Rare, Mythic, Player} {
		if len(c.ByRarity(r)) == 0 {
			t.Fatalf("no %s cards in config catalog", r)
		}
	}
	d, ok := c.Lookup("C001")
	if !ok {
		t.Fatalf("C001 missing")
	}
	if d.Rarity != Common {
		t.Fatalf("C001 rarity=%s", d.Rarity)
	}
	if d.PackWeight != d.PerPackAppearance {
		t.Fatalf("pack weight should default to per-pack appearance: %v vs %v", d.PackWeight, d.PerPackAppearance)
	}
}

func TestParse_Defaults(t *testing.T) {
	c, err := Parse([]byte(`[
	  {"id":"X1","name":"Bare","rarity":"C"},
	  {"id":"X2","name":"Stats","rarity":"RARE","power":4,"health":2,"pack_weight":0.5,"base_price":3}
	]`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	bare := c.ByID["X1"]
	if bare.PackWeight != DefaultPerPackAppearance || bare.BasePrice != DefaultBasePrice || bare.QualityScore != DefaultQualityScore {
		t.Fatalf("defaults not applied: %+v", *bare)
	}
	stats := c.ByID["X2"]
	if stats.Rarity != Rare || stats.QualityScore != 3 || stats.PackWeight != 0.5 || stats.BasePrice != 3 {
		t.Fatalf("unexpected definition: %+v", *stats)
	}
	if stats.TotalGems() != 0 {
		t.Fatalf("gems=%d", stats.TotalGems())
	}
}

func TestParse_RejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":        `{`,
		"not an array":    `{"id":"X"}`,
		"missing rarity":  `[{"id":"X","name":"x"}]`,
		"unknown rarity":  `[{"id":"X","name":"x","rarity":"Z"}]`,
		"negative power":  `[{"id":"X","name":"x","rarity":"C","power":-1}]`,
		"duplicate id":    `[{"id":"X","name":"x","rarity":"C"},{"id":"X","name":"y","rarity":"U"}]`,
		"unknown field":   `[{"id":"X","name":"x","rarity":"C","mana":3}]`,
		"holo above one":  `[{"id":"X","name":"x","rarity":"C","holo_chance":2}]`,
		"empty id":        `[{"id":"","name":"x","rarity":"C"}]`,
		"string quantity": `[{"id":"X","name":"x","rarity":"C","power":"3"}]`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(raw)); err == nil {
				t.Fatalf("expected error for %s", name)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestLoad_WrapsPath(t *testing.T) {
	p := filepath.Join(t.TempDir(), "cards.json")
	if err := os.WriteFile(p, []byte(`[{"id":"X","rarity":"C"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(p)
	if err == nil || !strings.Contains(err.Error(), p) {
		t.Fatalf("expected error mentioning path, got %v", err)
	}
}

func TestParseRarity(t *testing.T) {
	for code, want := range map[string]Rarity{
		"C": Common, "uncommon": Uncommon, "Rare": Rare, "M": Mythic,
		"PLAYER": Player, "Alternate Art": AlternateArt, "ALTERNATE_ART": AlternateArt, "A": AlternateArt,
	} {
		got, err := ParseRarity(code)
		if err != nil || got != want {
			t.Fatalf("ParseRarity(%q)=%q,%v want %q", code, got, err, want)
		}
	}
}
