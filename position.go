package hmmpool

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// PositionKey uniquely identifies a position by owner and range (spec §3
// "Position state"), mirroring the teacher's (owner, lower, upper) key.
type PositionKey struct {
	Owner common.Address
	Lower int64
	Upper int64
}

// Position is the per-(owner, range) bookkeeping of spec §3: liquidity
// owned plus the last-observed fee/HMM growth-inside snapshots, one pair
// per channel.
type Position struct {
	Liquidity decimal.Decimal
	Inside    [numChannels]growthPair
}

func (p *Position) clone() *Position {
	c := *p
	return &c
}

// positionStore is the keyed map of positions (spec §3 "Lifecycle":
// created on first deposit, destroyed when liquidity hits zero).
type positionStore struct {
	positions map[PositionKey]*Position
}

func newPositionStore() *positionStore {
	return &positionStore{positions: make(map[PositionKey]*Position)}
}

func (s *positionStore) clone() *positionStore {
	c := &positionStore{positions: make(map[PositionKey]*Position, len(s.positions))}
	for k, v := range s.positions {
		c.positions[k] = v.clone()
	}
	return c
}

func (s *positionStore) get(key PositionKey) (*Position, bool) {
	p, ok := s.positions[key]
	return p, ok
}

// settleAmounts are the uncollected per-range accruals returned by
// setPosition (spec 4.5 step 6): base liquidity times the per-unit growth
// delta, one pair per channel.
type settleAmounts struct {
	FeesX, FeesY decimal.Decimal
	AdjX, AdjY   decimal.Decimal
}

// setPosition implements spec 4.5: create, grow, shrink, or remove a
// position and return the token-amount accruals it is entitled to since it
// was last touched. Growth-inside for both channels is computed by the
// caller (pool.go, which owns the tick store and global counters) and
// passed in as newInside.
func (s *positionStore) setPosition(key PositionKey, deltaLiquidity decimal.Decimal, newInside [numChannels]growthPair) (settleAmounts, error) {
	existing, ok := s.positions[key]

	var oldInside [numChannels]growthPair
	base := zero

	switch {
	case !ok && deltaLiquidity.IsNegative():
		return settleAmounts{}, newErr(KindInvalidInput, "cannot withdraw from a position that does not exist")
	case !ok:
		s.positions[key] = &Position{Liquidity: deltaLiquidity, Inside: newInside}
	default:
		oldInside = existing.Inside
		base = existing.Liquidity
		nextLiquidity := existing.Liquidity.Add(deltaLiquidity)
		if nextLiquidity.IsNegative() {
			return settleAmounts{}, newErr(KindInsufficientLiquidity, "withdrawal exceeds position liquidity")
		}
		if nextLiquidity.IsZero() {
			delete(s.positions, key)
		} else {
			s.positions[key] = &Position{Liquidity: nextLiquidity, Inside: newInside}
		}
	}

	feeAccrual := newInside[channelFee].sub(oldInside[channelFee])
	hmmAccrual := newInside[channelHMM].sub(oldInside[channelHMM])
	if feeAccrual.X.IsNegative() || feeAccrual.Y.IsNegative() {
		return settleAmounts{}, newErr(KindInvariantViolation, "fee growth inside must not decrease")
	}
	if hmmAccrual.X.IsNegative() || hmmAccrual.Y.IsNegative() {
		return settleAmounts{}, newErr(KindInvariantViolation, "hmm growth inside must not decrease")
	}

	return settleAmounts{
		FeesX: base.Mul(feeAccrual.X),
		FeesY: base.Mul(feeAccrual.Y),
		AdjX:  base.Mul(hmmAccrual.X),
		AdjY:  base.Mul(hmmAccrual.Y),
	}, nil
}
