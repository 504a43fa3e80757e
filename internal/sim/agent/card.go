package agent

import (
	"polydros.ai/internal/sim/catalogs"
	"polydros.ai/internal/sim/logic/mathx"
)

// OwnedCard is one copy of a card held by an agent. Def is shared with every other
// copy of the same card and must not be modified.
type OwnedCard struct {
	Def        *catalogs.CardDefinition
	Holo       bool
	Quality    *float64
	InstanceID string
}

// EffectiveQuality is the per-copy override when set, else the definition quality.
func (c OwnedCard) EffectiveQuality() float64 {
	if c.Quality != nil {
		return *c.Quality
	}
	if c.Def == nil {
		return 0
	}
	return c.Def.QualityScore
}

// Degrade multiplies the effective quality by (1 - pct) and stores it as the override.
func (c *OwnedCard) Degrade(pct float64) {
	q := c.EffectiveQuality() * (1 - pct)
	c.Quality = &q
}

type Condition string

const (
	Mint    Condition = "mint"
	Played  Condition = "played"
	Damaged Condition = "damaged"
	Worn    Condition = "worn"
)

// ConditionFor maps instance quality (0..10) and loss count to a condition tier.
// Mint requires an unbeaten card.
func ConditionFor(quality float64, losses int) Condition {
	switch {
	case quality >= 9.5 && losses == 0:
		return Mint
	case quality >= 7:
		return Played
	case quality >= 4:
		return Damaged
	}
	return Worn
}

// Desirability blends the combat record with quality, clamped to [0,10].
func Desirability(wins, losses int, quality float64) float64 {
	d := 5.0 + 0.5*float64(wins) - 0.3*float64(losses) + 2.0*(quality/10.0)
	return mathx.Clamp(d, 0, 10)
}

type PriceDataPoint struct {
	Tick         int     `json:"tick"`
	Price        float64 `json:"price"`
	Quality      float64 `json:"quality"`
	Desirability float64 `json:"desirability"`
}

// TrackedCardInstance is the per-copy ledger created when a card is opened. The
// display fields are copied from the definition at creation time.
type TrackedCardInstance struct {
	InstanceID    string           `json:"card_instance_id"`
	CardID        string           `json:"card_id"`
	Name          string           `json:"card_name"`
	Color         string           `json:"card_color"`
	Rarity        catalogs.Rarity  `json:"card_rarity"`
	FlavorText    string           `json:"flavor_text"`
	GemColored    int              `json:"gem_colored"`
	GemColorless  int              `json:"gem_colorless"`
	Holo          bool             `json:"is_hologram"`
	OwnerID       int              `json:"owner_id"`
	AcquiredTick  int              `json:"acquired_tick"`
	AcquiredPrice float64          `json:"acquired_price"`
	CurrentPrice  float64          `json:"current_price"`
	Quality       float64          `json:"quality_score"`
	Desirability  float64          `json:"desirability"`
	Wins          int              `json:"wins"`
	Losses        int              `json:"losses"`
	Condition     Condition        `json:"condition"`
	PriceHistory  []PriceDataPoint `json:"price_history"`
}

// NewTrackedInstance wraps a freshly opened card. The price history starts empty;
// the first point is recorded by the market phase of the acquisition tick.
func NewTrackedInstance(c OwnedCard, id string, owner, tick int, price, quality, desirability float64) *TrackedCardInstance {
	return &TrackedCardInstance{
		InstanceID:    id,
		CardID:        c.Def.ID,
		Name:          c.Def.Name,
		Color:         c.Def.Color,
		Rarity:        c.Def.Rarity,
		FlavorText:    c.Def.FlavorText,
		GemColored:    c.Def.GemColored,
		GemColorless:  c.Def.GemColorless,
		Holo:          c.Holo,
		OwnerID:       owner,
		AcquiredTick:  tick,
		AcquiredPrice: price,
		CurrentPrice:  price,
		Quality:       quality,
		Desirability:  desirability,
		Condition:     ConditionFor(quality, 0),
		PriceHistory:  []PriceDataPoint{},
	}
}

func (t *TrackedCardInstance) RecordWin()  { t.Wins++ }
func (t *TrackedCardInstance) RecordLoss() { t.Losses++ }

// Degrade applies irreversible wear: quality ×= (1 - pct).
func (t *TrackedCardInstance) Degrade(pct float64) {
	t.Quality *= 1 - pct
}

// Reprice sets the current price and refreshes the derived desirability and
// condition from the current quality and record.
func (t *TrackedCardInstance) Reprice(price float64) {
	t.CurrentPrice = price
	t.Desirability = Desirability(t.Wins, t.Losses, t.Quality)
	t.Condition = ConditionFor(t.Quality, t.Losses)
}

// RecordPricePoint appends the current price, quality and desirability for tick.
func (t *TrackedCardInstance) RecordPricePoint(tick int) {
	t.PriceHistory = append(t.PriceHistory, PriceDataPoint{
		Tick:         tick,
		Price:        t.CurrentPrice,
		Quality:      t.Quality,
		Desirability: t.Desirability,
	})
}
