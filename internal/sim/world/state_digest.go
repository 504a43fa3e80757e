package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

type hashWriter interface {
	Write(p []byte) (n int, err error)
}

// StateDigest hashes everything that can influence later ticks: counters, balances,
// boosters, collections, tracked instances and the card market. Two runs that agree
// on every digest agree on every export.
func (w *World) StateDigest() string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteI64(h, &tmp, int64(w.Tick))
	digestWriteI64(h, &tmp, w.Seed)
	digestWriteI64(h, &tmp, int64(w.DistributorBoosters))
	digestWriteU64(h, &tmp, w.minted)
	digestWriteU64(h, &tmp, uint64(len(w.events)))

	w.digestAgents(h, &tmp)
	w.digestMarket(h, &tmp)

	return hex.EncodeToString(h.Sum(nil))
}

func (w *World) digestAgents(h hashWriter, tmp *[8]byte) {
	for _, a := range w.Agents() {
		digestWriteI64(h, tmp, int64(a.ID))
		digestWriteI64(h, tmp, a.Seed)
		h.Write([]byte(a.Balance().StringFixed(2)))
		digestWriteI64(h, tmp, int64(a.Boosters()))
		digestWriteU64(h, tmp, uint64(len(a.Collection)))
		for _, c := range a.Collection {
			h.Write([]byte(c.Def.ID))
			h.Write([]byte{boolByte(c.Holo)})
			digestWriteF64(h, tmp, c.EffectiveQuality())
		}
		for _, inst := range a.Instances() {
			h.Write([]byte(inst.InstanceID))
			digestWriteF64(h, tmp, inst.Quality)
			digestWriteF64(h, tmp, inst.CurrentPrice)
			digestWriteI64(h, tmp, int64(inst.Wins))
			digestWriteI64(h, tmp, int64(inst.Losses))
			digestWriteU64(h, tmp, uint64(len(inst.PriceHistory)))
		}
	}
}

func (w *World) digestMarket(h hashWriter, tmp *[8]byte) {
	for _, id := range w.MarketIDs() {
		m := w.market[id]
		h.Write([]byte(id))
		digestWriteF64(h, tmp, m.Attractiveness)
		digestWriteF64(h, tmp, m.Price)
	}
}

func digestWriteU64(h hashWriter, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteI64(h hashWriter, tmp *[8]byte, v int64) {
	digestWriteU64(h, tmp, uint64(v))
}

func digestWriteF64(h hashWriter, tmp *[8]byte, v float64) {
	digestWriteU64(h, tmp, math.Float64bits(v))
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
