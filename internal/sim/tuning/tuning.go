package tuning

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning holds the simulation constants. Values not present in tuning.yaml keep
// their Defaults().
type Tuning struct {
	StartingPrism      float64 `yaml:"starting_prism" json:"starting_prism"`
	BoosterPrice       float64 `yaml:"booster_price" json:"booster_price"`
	DistributorStock   int     `yaml:"distributor_stock" json:"distributor_stock"`
	BuyWish            int     `yaml:"buy_wish" json:"buy_wish"`
	CollectorThreshold int     `yaml:"collector_threshold" json:"collector_threshold"`
	OpenPerTick        int     `yaml:"open_per_tick" json:"open_per_tick"`

	Pack Pack `yaml:"pack" json:"pack"`

	DeckSize   int        `yaml:"deck_size" json:"deck_size"`
	DeckQuotas DeckQuotas `yaml:"deck_quotas" json:"deck_quotas"`

	PlayChance      float64 `yaml:"play_chance" json:"play_chance"`
	CombatStatDelta float64 `yaml:"combat_stat_delta" json:"combat_stat_delta"`
	PlayDegradation float64 `yaml:"play_degradation" json:"play_degradation"`
	StatFloor       float64 `yaml:"stat_floor" json:"stat_floor"`

	PackAgeIntervalTicks int `yaml:"pack_age_interval_ticks" json:"pack_age_interval_ticks"`

	InitialQuality      float64 `yaml:"initial_quality" json:"initial_quality"`
	InitialDesirability float64 `yaml:"initial_desirability" json:"initial_desirability"`
}

// Pack is the booster slot template plus the hologram and upgrade odds.
type Pack struct {
	Commons       int     `yaml:"commons" json:"commons"`
	Uncommons     int     `yaml:"uncommons" json:"uncommons"`
	Rares         int     `yaml:"rares" json:"rares"`
	Players       int     `yaml:"players" json:"players"`
	HoloChance    float64 `yaml:"holo_chance" json:"holo_chance"`
	UpgradeChance float64 `yaml:"upgrade_chance" json:"upgrade_chance"`
	MythicHolo    float64 `yaml:"mythic_holo_chance" json:"mythic_holo_chance"`
}

type DeckQuotas struct {
	Player       int `yaml:"player" json:"player"`
	Common       int `yaml:"common" json:"common"`
	Uncommon     int `yaml:"uncommon" json:"uncommon"`
	AlternateArt int `yaml:"alternate_art" json:"alternate_art"`
	Rare         int `yaml:"rare" json:"rare"`
	Mythic       int `yaml:"mythic" json:"mythic"`
}

func Defaults() Tuning {
	return Tuning{
		StartingPrism:      200.00,
		BoosterPrice:       12.0,
		DistributorStock:   10000,
		BuyWish:            5,
		CollectorThreshold: 60,
		OpenPerTick:        5,
		Pack: Pack{
			Commons:       7,
			Uncommons:     3,
			Rares:         1,
			Players:       1,
			HoloChance:    0.02,
			UpgradeChance: 0.05,
			MythicHolo:    0.05,
		},
		DeckSize: 40,
		DeckQuotas: DeckQuotas{
			Player:       1,
			Common:       20,
			Uncommon:     10,
			AlternateArt: 1,
			Rare:         5,
			Mythic:       2,
		},
		PlayChance:           0.5,
		CombatStatDelta:      0.01,
		PlayDegradation:      0.01,
		StatFloor:            0.01,
		PackAgeIntervalTicks: 180,
		InitialQuality:       10.0,
		InitialDesirability:  5.0,
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

// Validate rejects values the engine cannot run with. Degenerate run sizes are
// not checked here; those belong to the run config.
func (t Tuning) Validate() error {
	var errs []error
	if t.BoosterPrice <= 0 {
		errs = append(errs, fmt.Errorf("booster_price must be > 0"))
	}
	if t.StartingPrism < 0 {
		errs = append(errs, fmt.Errorf("starting_prism must be >= 0"))
	}
	if t.DeckSize <= 0 {
		errs = append(errs, fmt.Errorf("deck_size must be > 0"))
	}
	if t.DistributorStock < 0 || t.BuyWish < 0 || t.OpenPerTick < 0 || t.CollectorThreshold < 0 {
		errs = append(errs, fmt.Errorf("stock, wish, open and threshold counts must be >= 0"))
	}
	if t.Pack.Commons < 0 || t.Pack.Uncommons < 0 || t.Pack.Rares < 0 || t.Pack.Players < 0 {
		errs = append(errs, fmt.Errorf("pack slot counts must be >= 0"))
	}
	for name, p := range map[string]float64{
		"play_chance":       t.PlayChance,
		"combat_stat_delta": t.CombatStatDelta,
		"play_degradation":  t.PlayDegradation,
		"pack.holo_chance":  t.Pack.HoloChance,
		"pack.upgrade":      t.Pack.UpgradeChance,
		"pack.mythic_holo":  t.Pack.MythicHolo,
	} {
		if p < 0 || p > 1 {
			errs = append(errs, fmt.Errorf("%s must be in [0,1]", name))
		}
	}
	if t.InitialQuality <= 0 {
		errs = append(errs, fmt.Errorf("initial_quality must be > 0"))
	}
	if t.StatFloor <= 0 {
		errs = append(errs, fmt.Errorf("stat_floor must be > 0"))
	}
	return errors.Join(errs...)
}
