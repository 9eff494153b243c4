package hmmpool

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Serializable mirrors of the pool's internal state, used only for
// snapshot persistence (store/snapshot.go). The pool's live types
// (tickStore, positionStore) are unexported and keep a maintained sorted
// index alongside their maps; these mirrors hold just the data needed to
// rebuild both on load.

type tickStateJSON struct {
	Tick           int64        `json:"tick"`
	LiquidityNet   decimal.Decimal `json:"liquidityNet"`
	LiquidityGross decimal.Decimal `json:"liquidityGross"`
	Outside        [numChannels]growthPair `json:"outside"`
}

type positionJSON struct {
	Owner     common.Address          `json:"owner"`
	Lower     int64                   `json:"lower"`
	Upper     int64                   `json:"upper"`
	Liquidity decimal.Decimal         `json:"liquidity"`
	Inside    [numChannels]growthPair `json:"inside"`
}

// StateJSON is the full exported snapshot of a pool (spec §6 persistence
// surface): everything Deposit/Withdraw/Swap mutate, enough to resume a
// pool exactly where it left off.
type StateJSON struct {
	Config      PoolConfig              `json:"config"`
	L           decimal.Decimal         `json:"l"`
	RP          decimal.Decimal         `json:"rp"`
	TickCurrent int64                   `json:"tickCurrent"`
	Growth      [numChannels]growthPair `json:"growth"`
	X           decimal.Decimal         `json:"x"`
	Y           decimal.Decimal         `json:"y"`
	Pots        [numChannels]growthPair `json:"pots"`
	Ticks       []tickStateJSON         `json:"ticks"`
	Positions   []positionJSON          `json:"positions"`
}

// ExportState captures the pool's full state (spec §6).
func (p *Pool) ExportState() StateJSON {
	out := StateJSON{
		Config:      p.Config,
		L:           p.L,
		RP:          p.RP,
		TickCurrent: p.tickCurrent,
		Growth:      p.growth,
		X:           p.X,
		Y:           p.Y,
		Pots:        p.pots,
	}
	for _, tick := range p.ticks.ordered {
		ts := p.ticks.ticks[tick]
		out.Ticks = append(out.Ticks, tickStateJSON{
			Tick:           tick,
			LiquidityNet:   ts.LiquidityNet,
			LiquidityGross: ts.LiquidityGross,
			Outside:        ts.Outside,
		})
	}
	for key, pos := range p.positions.positions {
		out.Positions = append(out.Positions, positionJSON{
			Owner:     key.Owner,
			Lower:     key.Lower,
			Upper:     key.Upper,
			Liquidity: pos.Liquidity,
			Inside:    pos.Inside,
		})
	}
	return out
}

// ImportState rebuilds a pool from a previously exported snapshot.
func ImportState(s StateJSON) *Pool {
	p := &Pool{
		Config:      s.Config,
		L:           s.L,
		RP:          s.RP,
		tickCurrent: s.TickCurrent,
		growth:      s.Growth,
		X:           s.X,
		Y:           s.Y,
		pots:        s.Pots,
		ticks:       newTickStore(),
		positions:   newPositionStore(),
	}
	for _, t := range s.Ticks {
		p.ticks.ticks[t.Tick] = &TickState{
			LiquidityNet:   t.LiquidityNet,
			LiquidityGross: t.LiquidityGross,
			Outside:        t.Outside,
		}
		p.ticks.insertOrdered(t.Tick)
	}
	for _, ps := range s.Positions {
		key := PositionKey{Owner: ps.Owner, Lower: ps.Lower, Upper: ps.Upper}
		p.positions.positions[key] = &Position{Liquidity: ps.Liquidity, Inside: ps.Inside}
	}
	return p
}

// MarshalState is ExportState followed by JSON encoding, the shape
// store/snapshot.go persists as a single blob column.
func (p *Pool) MarshalState() ([]byte, error) {
	return json.Marshal(p.ExportState())
}

// UnmarshalState is the inverse of MarshalState.
func UnmarshalState(data []byte) (*Pool, error) {
	var s StateJSON
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return ImportState(s), nil
}
