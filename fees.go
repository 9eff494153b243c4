package hmmpool

// Fee/HMM growth accounting (spec 4.4), implemented once as a generic
// operation over a growthChannel rather than duplicated per (token,
// channel) — spec §9 Design Note "polymorphic growth accounting". Fee
// growth and HMM-adjustment growth obey exactly the same outside/inside
// algebra; the only difference is which global counter and which tick-side
// snapshot they read.

// growthBelowAndAbove implements spec 4.4's f_below/f_above pair for one
// channel at one tick. If the tick is not active, the convention is
// (global, 0) — spec 4.4 "If the tick is not active, return (fg, 0)".
func (p *Pool) growthBelowAndAbove(channel growthChannel, tick int64) (below, above growthPair) {
	global := p.growth[channel]
	ts, ok := p.ticks.get(tick)
	if !ok {
		return global, zeroGrowthPair()
	}
	outside := ts.Outside[channel]
	if p.tickCurrent >= tick {
		return outside, global.sub(outside)
	}
	return global.sub(outside), outside
}

// growthInRange implements spec 4.4 "for a range": fg - f_below(l) -
// f_above(u), with the below+above==fg identity asserted at both
// boundaries.
func (p *Pool) growthInRange(channel growthChannel, lower, upper int64) (growthPair, error) {
	belowL, aboveL := p.growthBelowAndAbove(channel, lower)
	belowU, aboveU := p.growthBelowAndAbove(channel, upper)

	global := p.growth[channel]
	sumL := belowL.add(aboveL)
	sumU := belowU.add(aboveU)
	if !sumL.equal(global) || !sumU.equal(global) {
		return growthPair{}, newErr(KindInvariantViolation, "f_below(i)+f_above(i) must equal the global counter at every active tick")
	}

	return global.sub(belowL).sub(aboveU), nil
}

// growthInsideBoth computes growth-inside for both channels at once, the
// shape setPosition needs.
func (p *Pool) growthInsideBoth(lower, upper int64) ([numChannels]growthPair, error) {
	var inside [numChannels]growthPair
	for c := growthChannel(0); c < numChannels; c++ {
		g, err := p.growthInRange(c, lower, upper)
		if err != nil {
			return inside, err
		}
		inside[c] = g
	}
	return inside, nil
}
