package hmmpool

import (
	"sort"

	"github.com/shopspring/decimal"
)

// TickState is the per-tick bookkeeping of spec §3 "Tick state": the
// signed liquidity delta applied on a left-to-right crossing, the
// unsigned reference count that governs (de)initialization, and the
// outside-growth snapshots for both channels (fee, HMM).
type TickState struct {
	LiquidityNet   decimal.Decimal
	LiquidityGross decimal.Decimal
	Outside        [numChannels]growthPair
}

func newTickState() *TickState {
	return &TickState{
		LiquidityNet:   zero,
		LiquidityGross: zero,
		Outside:        [numChannels]growthPair{zeroGrowthPair(), zeroGrowthPair()},
	}
}

func (t *TickState) clone() *TickState {
	c := *t
	return &c
}

// tickStore is the keyed map of active ticks (spec 4.3), kept alongside a
// sorted slice of active tick indices so that "next active tick in a
// direction" (used by leftLimit/rightLimit, including in the swap engine's
// liquidity-gap recovery) is a binary search rather than a full scan — the ordered
// structure spec §9's Design Note calls for, implemented here as the
// simplest version of it: a sorted slice, not a full balanced tree.
type tickStore struct {
	ticks   map[int64]*TickState
	ordered []int64 // ascending, kept in sync with ticks
}

func newTickStore() *tickStore {
	return &tickStore{ticks: make(map[int64]*TickState)}
}

func (s *tickStore) clone() *tickStore {
	c := &tickStore{
		ticks:   make(map[int64]*TickState, len(s.ticks)),
		ordered: append([]int64(nil), s.ordered...),
	}
	for k, v := range s.ticks {
		c.ticks[k] = v.clone()
	}
	return c
}

func (s *tickStore) get(tick int64) (*TickState, bool) {
	ts, ok := s.ticks[tick]
	return ts, ok
}

func (s *tickStore) insertOrdered(tick int64) {
	i := sort.Search(len(s.ordered), func(i int) bool { return s.ordered[i] >= tick })
	if i < len(s.ordered) && s.ordered[i] == tick {
		return
	}
	s.ordered = append(s.ordered, 0)
	copy(s.ordered[i+1:], s.ordered[i:])
	s.ordered[i] = tick
}

func (s *tickStore) removeOrdered(tick int64) {
	i := sort.Search(len(s.ordered), func(i int) bool { return s.ordered[i] >= tick })
	if i < len(s.ordered) && s.ordered[i] == tick {
		s.ordered = append(s.ordered[:i], s.ordered[i+1:]...)
	}
}

// initialize creates a tick, setting its outside snapshots to the global
// growth counters iff the tick is already at-or-below the current tick
// (spec 4.3 "initialize").
func (s *tickStore) initialize(tick, currentTick int64, global [numChannels]growthPair) *TickState {
	ts := newTickState()
	if currentTick >= tick {
		ts.Outside = global
	}
	s.ticks[tick] = ts
	s.insertOrdered(tick)
	return ts
}

func (s *tickStore) getOrInit(tick, currentTick int64, global [numChannels]growthPair) *TickState {
	if ts, ok := s.ticks[tick]; ok {
		return ts
	}
	return s.initialize(tick, currentTick, global)
}

// update applies a liquidity delta to the lower (upper=false) or upper
// (upper=true) boundary tick of a position, deinitializing the tick when
// its gross liquidity returns to zero (spec 4.3 "update").
func (s *tickStore) update(tick int64, deltaLiquidity decimal.Decimal, upper bool, currentTick int64, global [numChannels]growthPair) error {
	ts := s.getOrInit(tick, currentTick, global)

	net := deltaLiquidity
	if upper {
		net = net.Neg()
	}
	ts.LiquidityNet = ts.LiquidityNet.Add(net)

	gross, err := addDelta(ts.LiquidityGross, deltaLiquidity, KindInsufficientLiquidity, "tick liquidity gross underflow")
	if err != nil {
		return err
	}
	ts.LiquidityGross = gross

	if ts.LiquidityGross.IsZero() {
		delete(s.ticks, tick)
		s.removeOrdered(tick)
	}
	return nil
}

// flipOutside implements the crossing-time flip of spec 4.3 "cross": each
// outside snapshot becomes (global - snapshot), for both channels.
func (s *tickStore) flipOutside(tick int64, global [numChannels]growthPair) (*TickState, error) {
	ts, ok := s.ticks[tick]
	if !ok {
		return nil, newErr(KindNoActiveTick, "cannot find tick %d for crossing", tick)
	}
	for c := range ts.Outside {
		ts.Outside[c] = global[c].sub(ts.Outside[c])
	}
	return ts, nil
}

// greatestAtMost returns the greatest active tick <= tick, if any.
func (s *tickStore) greatestAtMost(tick int64) (int64, bool) {
	i := sort.Search(len(s.ordered), func(i int) bool { return s.ordered[i] > tick })
	if i == 0 {
		return 0, false
	}
	return s.ordered[i-1], true
}

// leastAbove returns the least active tick strictly greater than tick, if any.
func (s *tickStore) leastAbove(tick int64) (int64, bool) {
	i := sort.Search(len(s.ordered), func(i int) bool { return s.ordered[i] > tick })
	if i == len(s.ordered) {
		return 0, false
	}
	return s.ordered[i], true
}

// leastAtLeast returns the least active tick >= tick, if any.
func (s *tickStore) leastAtLeast(tick int64) (int64, bool) {
	i := sort.Search(len(s.ordered), func(i int) bool { return s.ordered[i] >= tick })
	if i == len(s.ordered) {
		return 0, false
	}
	return s.ordered[i], true
}

// leftLimit implements spec 4.2: the greatest active tick <= min(start,
// current), quantized down to a multiple of spacing.
func (s *tickStore) leftLimit(start, currentTick, spacing int64) (int64, bool) {
	bound := start
	if currentTick < bound {
		bound = currentTick
	}
	bound = quantizeTick(bound, spacing, false)
	return s.greatestAtMost(bound)
}

// rightLimit implements spec 4.2: the least active tick > start if start ==
// current, else the least active tick >= start if start > current. Starting
// strictly below current is a convention violation.
func (s *tickStore) rightLimit(start, currentTick, spacing int64) (int64, bool, error) {
	startTick := quantizeTick(start, spacing, false)
	switch {
	case startTick == currentTick:
		t, ok := s.leastAbove(startTick)
		return t, ok, nil
	case startTick > currentTick:
		t, ok := s.leastAtLeast(startTick)
		return t, ok, nil
	default:
		return 0, false, newErr(KindInvariantViolation, "root price must never sit strictly below the current tick")
	}
}
