package hmmpool

import (
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Protocol tick bounds (spec 4.2), matching the Uniswap v3 convention the
// teacher and the wider example corpus use for tick-indexed pools.
const (
	minTick int64 = -887272
	maxTick int64 = 887272
)

// maxSwapSteps bounds the per-tick crossing loop, mirroring the teacher's
// HandleSwap loop-count safety cap against a runaway multi-tick walk.
const maxSwapSteps = 1000

// swapDirection is the "sum type for swap direction" design note (spec §9):
// rather than two near-duplicate outer loops and step functions for
// sell-X-for-Y and sell-Y-for-X, both share this one engine parameterized
// on a single bool. ZeroForOne true means "sell X for Y" (rP decreases,
// walk ticks downward); false means "sell Y for X" (rP increases, walk
// ticks upward).
type swapDirection struct {
	zeroForOne bool
}

// boundaryTick finds the next candidate tick to stop at or cross, in this
// direction, from the pool's current tick (spec 4.2 left/right limit).
func (d swapDirection) boundaryTick(p *Pool) (int64, bool, error) {
	if d.zeroForOne {
		t, ok := p.ticks.leftLimit(p.tickCurrent, p.tickCurrent, p.Config.TickSpacing)
		return t, ok, nil
	}
	return p.ticks.rightLimit(p.tickCurrent, p.tickCurrent, p.Config.TickSpacing)
}

// rpNewFromIn computes the root price reached by routing netIn (already net
// of fee) of the input token through the AMM curve at constant L.
func (d swapDirection) rpNewFromIn(l, rpOld, netIn decimal.Decimal) decimal.Decimal {
	if d.zeroForOne {
		return rpNewFromDeltaX(l, rpOld, netIn)
	}
	return rpNewFromDeltaY(l, rpOld, netIn)
}

// inForRPNew computes how much of the input token is required to move the
// price from rpOld to rpNew at constant L — the inverse of rpNewFromIn,
// used when the step is bounded by a tick rather than by the input amount.
func (d swapDirection) inForRPNew(l, rpOld, rpNew decimal.Decimal) decimal.Decimal {
	if d.zeroForOne {
		return ammDeltaX(l, rpOld, rpNew).Neg()
	}
	return ammDeltaY(l, rpOld, rpNew)
}

// outForRPNew computes how much of the output token is produced by moving
// the price from rpOld to rpNew at constant L.
func (d swapDirection) outForRPNew(l, rpOld, rpNew decimal.Decimal) decimal.Decimal {
	if d.zeroForOne {
		return ammDeltaY(l, rpOld, rpNew).Neg()
	}
	return ammDeltaX(l, rpOld, rpNew).Neg()
}

// hmmOutForRPNew is outForRPNew's HMM-adjusted counterpart (spec 4.1's
// oracle-aware integral) for a leg that runs entirely under the HMM curve.
// It is never a substitute for outForRPNew across a whole segment on its
// own — see hmmSegmentOut, which decides where each leg of a segment
// applies.
func (d swapDirection) hmmOutForRPNew(l, rpOld, rpNew, c, rpOracle decimal.Decimal) decimal.Decimal {
	if d.zeroForOne {
		return hmmDeltaY(l, rpOld, rpNew, c, rpOracle).Neg()
	}
	return hmmDeltaX(l, rpOld, rpNew, c, rpOracle).Neg()
}

// hmmSegmentOut computes a segment's output and the HMM adjustment retained
// by the pool, per spec 4.7 step 7's three-way oracle branch. Let start and
// end be the segment's rP before and after this step (start is always the
// side the price is moving away from):
//
//   - divergent (oracle at or beyond start): the whole segment moves further
//     from the oracle, so it trades at the pure AMM curve and adj is zero.
//   - convergent (oracle at or beyond end): the whole segment moves toward
//     the oracle, so the HMM integral spans it entirely.
//   - otherwise the oracle sits strictly inside the segment: split it into
//     an HMM leg from start up to the oracle price, plus a plain AMM leg
//     from the oracle price to end.
func (d swapDirection) hmmSegmentOut(l, rpOld, rpNew, c, rpOracle decimal.Decimal) (out, adj decimal.Decimal) {
	ammOut := d.outForRPNew(l, rpOld, rpNew)

	var divergent, convergent bool
	if d.zeroForOne {
		divergent = rpOracle.GreaterThanOrEqual(rpOld)
		convergent = rpOracle.LessThanOrEqual(rpNew)
	} else {
		divergent = rpOracle.LessThanOrEqual(rpOld)
		convergent = rpOracle.GreaterThanOrEqual(rpNew)
	}

	switch {
	case divergent:
		out = ammOut
	case convergent:
		out = d.hmmOutForRPNew(l, rpOld, rpNew, c, rpOracle)
	default:
		out = d.hmmOutForRPNew(l, rpOld, rpOracle, c, rpOracle).Add(d.outForRPNew(l, rpOracle, rpNew))
	}
	adj = ammOut.Sub(out)
	return out, adj
}

// inputIsX reports whether the input token is X. The swap fee is taken in
// the input token and lands in that token's fee channel; the HMM adjustment
// is an output-token amount and lands in the output token's HMM channel.
func (d swapDirection) inputIsX() bool { return d.zeroForOne }

// SwapParams is the input to Swap (spec 4.7).
type SwapParams struct {
	ZeroForOne bool // true: sell X for Y. false: sell Y for X.
	AmountIn   decimal.Decimal
	// OracleRP is the current oracle root price used for the HMM
	// adjustment. Pass a zero value to disable the adjustment entirely
	// (equivalent to HmmC == 0, spec 4.1 "oracle-off equivalence").
	OracleRP decimal.Decimal
	// RPLimit optionally bounds how far the price may move; zero means
	// unbounded (protocol tick bounds apply instead). A swap that reaches
	// the bound stops there and leaves the rest of AmountIn unused.
	RPLimit decimal.Decimal
}

// SwapResult reports what a swap actually moved (spec 4.7, spec §6).
type SwapResult struct {
	AmountIn      decimal.Decimal
	AmountOut     decimal.Decimal
	FeeAmount     decimal.Decimal
	HmmAdjustment decimal.Decimal
	NewRP         decimal.Decimal
	NewTick       int64
}

// Swap implements spec 4.7's multi-tick swap execution loop: walk the
// active-tick grid one segment at a time, taking the swap fee and the
// HMM adjustment on each segment, crossing ticks (flipping their outside
// growth snapshots and applying their net liquidity) as the price reaches
// them, and recovering across liquidity gaps (segments with L == 0) by
// jumping straight to the next active tick. Runs against a clone and
// commits only on success (spec §5).
func (p *Pool) Swap(params SwapParams) (SwapResult, error) {
	if params.AmountIn.IsNegative() || params.AmountIn.IsZero() {
		return SwapResult{}, newErr(KindInvalidInput, "swap amount must be positive")
	}

	scratch := p.clone()
	result, err := scratch.swapUnchecked(params)
	if err != nil {
		return SwapResult{}, err
	}
	p.adopt(scratch)
	return result, nil
}

func (p *Pool) swapUnchecked(params SwapParams) (SwapResult, error) {
	d := swapDirection{zeroForOne: params.ZeroForOne}

	hmmActive := !params.OracleRP.IsZero() && !p.Config.HmmC.IsZero()

	var hardBoundRP decimal.Decimal
	if d.zeroForOne {
		hardBoundRP = tickToRP(minTick)
	} else {
		hardBoundRP = tickToRP(maxTick)
	}
	if !params.RPLimit.IsZero() {
		hardBoundRP = params.RPLimit
	}

	remaining := params.AmountIn
	totalIn := zero
	totalOut := zero
	totalFee := zero
	totalAdj := zero

	for step := 0; ; step++ {
		if remaining.LessThanOrEqual(zero) {
			break
		}
		if step >= maxSwapSteps {
			return SwapResult{}, newErr(KindUnreachable, "swap did not converge within the tick-crossing step limit")
		}

		if p.L.IsZero() {
			boundary, found, err := d.boundaryTick(p)
			if err != nil {
				return SwapResult{}, err
			}
			if !found {
				break
			}
			if err := p.crossTick(d, boundary); err != nil {
				return SwapResult{}, err
			}
			continue
		}

		boundary, found, err := d.boundaryTick(p)
		if err != nil {
			return SwapResult{}, err
		}
		boundRP := hardBoundRP
		haveBoundary := false
		if found {
			tickRP := tickToRP(boundary)
			if d.zeroForOne {
				if tickRP.GreaterThan(boundRP) {
					boundRP = tickRP
					haveBoundary = true
				}
			} else {
				if tickRP.LessThan(boundRP) {
					boundRP = tickRP
					haveBoundary = true
				}
			}
		}

		feeRate := p.Config.feeRate()
		netIn := remaining.Mul(one.Sub(feeRate))
		rpAtFullFill := d.rpNewFromIn(p.L, p.RP, netIn)

		var rpNew decimal.Decimal
		var usedIn, fee decimal.Decimal
		var fullFill bool
		if d.zeroForOne {
			fullFill = rpAtFullFill.GreaterThanOrEqual(boundRP)
		} else {
			fullFill = rpAtFullFill.LessThanOrEqual(boundRP)
		}

		if fullFill {
			rpNew = rpAtFullFill
			usedIn = remaining
			fee = remaining.Sub(netIn)
		} else {
			rpNew = boundRP
			neededIn := d.inForRPNew(p.L, p.RP, rpNew)
			fee = neededIn.Mul(feeRate).Div(one.Sub(feeRate))
			usedIn = neededIn.Add(fee)
			if usedIn.GreaterThan(remaining) {
				usedIn = remaining
				fee = remaining.Mul(feeRate)
				netIn = remaining.Sub(fee)
				rpNew = d.rpNewFromIn(p.L, p.RP, netIn)
			}
		}

		out := d.outForRPNew(p.L, p.RP, rpNew)
		adj := zero
		if hmmActive {
			out, adj = d.hmmSegmentOut(p.L, p.RP, rpNew, p.Config.HmmC, params.OracleRP)
			if !haveBoundary {
				shrink := out.Mul(adjWholeFill)
				out = out.Sub(shrink)
				adj = adj.Add(shrink)
			}
		}
		if adj.IsNegative() {
			return SwapResult{}, newErr(KindInvariantViolation, "hmm adjustment must not be negative")
		}

		feeGrowthDelta := fee.Div(p.L)
		adjGrowthDelta := adj.Div(p.L)
		if d.inputIsX() {
			p.growth[channelFee].X = p.growth[channelFee].X.Add(feeGrowthDelta)
			p.growth[channelHMM].Y = p.growth[channelHMM].Y.Add(adjGrowthDelta)
			p.pots[channelFee].X = p.pots[channelFee].X.Add(fee)
			p.pots[channelHMM].Y = p.pots[channelHMM].Y.Add(adj)
			p.X = p.X.Add(usedIn)
			p.Y = p.Y.Sub(out)
		} else {
			p.growth[channelFee].Y = p.growth[channelFee].Y.Add(feeGrowthDelta)
			p.growth[channelHMM].X = p.growth[channelHMM].X.Add(adjGrowthDelta)
			p.pots[channelFee].Y = p.pots[channelFee].Y.Add(fee)
			p.pots[channelHMM].X = p.pots[channelHMM].X.Add(adj)
			p.Y = p.Y.Add(usedIn)
			p.X = p.X.Sub(out)
		}

		p.RP = rpNew
		remaining = remaining.Sub(usedIn)
		totalIn = totalIn.Add(usedIn)
		totalOut = totalOut.Add(out)
		totalFee = totalFee.Add(fee)
		totalAdj = totalAdj.Add(adj)

		if p.X.IsNegative() || p.Y.IsNegative() {
			return SwapResult{}, newErr(KindInvariantViolation, "swap would drive a reserve negative")
		}

		if haveBoundary && found {
			if err := p.crossTick(d, boundary); err != nil {
				return SwapResult{}, err
			}
		} else {
			p.tickCurrent = rpToPossibleTick(p.RP, p.Config.TickSpacing, false)
			if !fullFill {
				// Stopped at hardBoundRP (RPLimit or protocol bound).
				break
			}
		}
	}

	logrus.Debugf("hmmpool: swap zeroForOne=%v amountIn=%s amountOut=%s fee=%s adj=%s newTick=%d",
		params.ZeroForOne, totalIn, totalOut, totalFee, totalAdj, p.tickCurrent)

	return SwapResult{
		AmountIn:      totalIn,
		AmountOut:     totalOut,
		FeeAmount:     totalFee,
		HmmAdjustment: totalAdj,
		NewRP:         p.RP,
		NewTick:       p.tickCurrent,
	}, nil
}

// crossTick moves the pool's current tick onto boundary, flips that tick's
// outside-growth snapshots (spec 4.3 "cross"), and applies its signed
// liquidity delta with the sign convention this direction implies: crossing
// upward (buying X... selling Y) adds liquidityNet, crossing downward
// subtracts it.
func (p *Pool) crossTick(d swapDirection, boundary int64) error {
	ts, err := p.ticks.flipOutside(boundary, p.growth)
	if err != nil {
		return err
	}

	delta := ts.LiquidityNet
	if d.zeroForOne {
		delta = delta.Neg()
	}
	l, err := addDelta(p.L, delta, KindInvariantViolation, "liquidity went negative while crossing a tick")
	if err != nil {
		return err
	}
	p.L = l
	p.RP = tickToRP(boundary)
	if d.zeroForOne {
		p.tickCurrent = boundary - p.Config.TickSpacing
	} else {
		p.tickCurrent = boundary
	}
	return nil
}
