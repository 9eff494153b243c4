package hmmpool

import (
	"math"

	"github.com/shopspring/decimal"
)

// Numeric kernel: closed-form liquidity/reserve/price formulas (spec 4.1).
//
// Every pool quantity (L, rP, reserves, fee/HMM growth counters, position
// liquidity) is a decimal.Decimal, the teacher's own numeric type. The one
// exception is the tick<->root-price boundary and the HMM integral
// formulas, which need real logarithms and fractional exponents
// (rP(i) = 1.0001^(i/2), rP^C for arbitrary real C, ln(rP)). decimal.Decimal
// has no verified arbitrary-precision transcendental functions, and no
// library in the example corpus offers one either (the Uniswap SDK's
// Q64.96 sqrt-ratio tables only ever raise 1.0001 to the fixed exponent
// 1/2, and HMM's C is caller-supplied and arbitrary). Those few functions
// therefore round-trip through float64 via math.Log/math.Pow; everything
// else — every Add/Sub/Mul/Div/comparison/RoundDown in the pool bookkeeping
// — stays on decimal.Decimal. See DESIGN.md.
var (
	zero = decimal.NewFromInt(0)
	one  = decimal.NewFromInt(1)
)

const tickBaseFloat = 1.0001

// sqrtTickBaseLn is ln(sqrt(TICK_BASE)), the log-base used to invert
// rP = TICK_BASE^(tick/2) back to a tick index.
var sqrtTickBaseLn = math.Log(tickBaseFloat) / 2

// tickToRP returns the root price rP(i) = TICK_BASE^(i/2).
func tickToRP(tick int64) decimal.Decimal {
	f := math.Pow(tickBaseFloat, float64(tick)/2.0)
	return decimal.NewFromFloat(f)
}

// rpToTick returns i(rP) = floor(log_sqrt(TICK_BASE)(rP)), or the ceiling
// when ceilSide is true. A log within float64 error of an integer is snapped
// to it first, so that rpToTick(tickToRP(i)) == i.
func rpToTick(rp decimal.Decimal, ceilSide bool) int64 {
	f, _ := rp.Float64()
	t := math.Log(f) / sqrtTickBaseLn
	if r := math.Round(t); math.Abs(t-r) <= 1e-9*math.Max(1, math.Abs(r)) {
		t = r
	}
	if ceilSide {
		return int64(math.Ceil(t))
	}
	return int64(math.Floor(t))
}

func floorDivInt64(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func ceilDivInt64(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) == (b < 0) {
		q++
	}
	return q
}

// quantizeTick rounds tick down (or up) to the nearest multiple of spacing.
func quantizeTick(tick, spacing int64, ceilSide bool) int64 {
	if ceilSide {
		return ceilDivInt64(tick, spacing) * spacing
	}
	return floorDivInt64(tick, spacing) * spacing
}

// rpToPossibleTick composes rpToTick and quantizeTick (spec 4.2).
func rpToPossibleTick(rp decimal.Decimal, spacing int64, ceilSide bool) int64 {
	theoretical := rpToTick(rp, ceilSide)
	return quantizeTick(theoretical, spacing, ceilSide)
}

// liqXOnly: Lx when liquidity is fully composed of token x (price below
// range, y=0).
func liqXOnly(x, rpa, rpb decimal.Decimal) decimal.Decimal {
	return x.Mul(rpa).Mul(rpb).Div(rpb.Sub(rpa))
}

// liqYOnly: Ly when liquidity is fully composed of token y (price above
// range, x=0).
func liqYOnly(y, rpa, rpb decimal.Decimal) decimal.Decimal {
	return y.Div(rpb.Sub(rpa))
}

// liquidityFromReserves implements spec 4.1 "Liquidity from reserves".
func liquidityFromReserves(x, y, rp, rpa, rpb decimal.Decimal) decimal.Decimal {
	switch {
	case rp.LessThanOrEqual(rpa):
		return liqXOnly(x, rpa, rpb)
	case rp.LessThan(rpb):
		lx := liqXOnly(x, rp, rpb)
		ly := liqYOnly(y, rpa, rp)
		if lx.LessThan(ly) {
			return lx
		}
		return ly
	default:
		return liqYOnly(y, rpa, rpb)
	}
}

// clampRP clamps rp into [rpa, rpb].
func clampRP(rp, rpa, rpb decimal.Decimal) decimal.Decimal {
	if rp.LessThan(rpa) {
		return rpa
	}
	if rp.GreaterThan(rpb) {
		return rpb
	}
	return rp
}

// xFromLiquidity implements spec 4.1 "Reserves from L" (x side).
func xFromLiquidity(l, rp, rpa, rpb decimal.Decimal) decimal.Decimal {
	rp = clampRP(rp, rpa, rpb)
	return l.Mul(rpb.Sub(rp)).Div(rp.Mul(rpb))
}

// yFromLiquidity implements spec 4.1 "Reserves from L" (y side).
func yFromLiquidity(l, rp, rpa, rpb decimal.Decimal) decimal.Decimal {
	rp = clampRP(rp, rpa, rpb)
	return l.Mul(rp.Sub(rpa))
}

// ammDeltaX: ΔX = L*(1/rP_new - 1/rP_old).
func ammDeltaX(l, rpOld, rpNew decimal.Decimal) decimal.Decimal {
	return l.Mul(one.Div(rpNew).Sub(one.Div(rpOld)))
}

// ammDeltaY: ΔY = L*(rP_new - rP_old).
func ammDeltaY(l, rpOld, rpNew decimal.Decimal) decimal.Decimal {
	return l.Mul(rpNew.Sub(rpOld))
}

// rpNewFromDeltaX: rP_new = 1/(ΔX/L + 1/rP_old).
func rpNewFromDeltaX(l, rpOld, dx decimal.Decimal) decimal.Decimal {
	invDelta := dx.Div(l)
	return one.Div(invDelta.Add(one.Div(rpOld)))
}

// rpNewFromDeltaY: rP_new = rP_old + ΔY/L.
func rpNewFromDeltaY(l, rpOld, dy decimal.Decimal) decimal.Decimal {
	return rpOld.Add(dy.Div(l))
}

// hmmDeltaX implements the HMM-adjusted ΔX integral (spec 4.1).
func hmmDeltaX(l, rpOld, rpNew, c, rpOracle decimal.Decimal) decimal.Decimal {
	lF, _ := l.Float64()
	rpOldF, _ := rpOld.Float64()
	rpNewF, _ := rpNew.Float64()
	cF, _ := c.Float64()
	rpOracleF, _ := rpOracle.Float64()

	var result float64
	if cF == 1.0 {
		result = lF / rpOracleF * math.Log(rpOldF/rpNewF)
	} else {
		omc := 1.0 - cF
		cmo := -omc
		result = lF / math.Pow(rpOracleF, cF) * (math.Pow(rpNewF, cmo) - math.Pow(rpOldF, cmo)) / omc
	}
	return decimal.NewFromFloat(result)
}

// hmmDeltaY implements the HMM-adjusted ΔY integral (spec 4.1).
func hmmDeltaY(l, rpOld, rpNew, c, rpOracle decimal.Decimal) decimal.Decimal {
	lF, _ := l.Float64()
	rpOldF, _ := rpOld.Float64()
	rpNewF, _ := rpNew.Float64()
	cF, _ := c.Float64()
	rpOracleF, _ := rpOracle.Float64()

	var result float64
	if cF == 1.0 {
		result = lF * rpOracleF * math.Log(rpOldF/rpNewF)
	} else {
		omc := 1.0 - cF
		result = lF * math.Pow(rpOracleF, cF) * (math.Pow(rpNewF, omc) - math.Pow(rpOldF, omc)) / omc
	}
	return decimal.NewFromFloat(result)
}

// addDelta applies a signed delta to a non-negative quantity, failing with
// the given error kind if the result would go negative.
func addDelta(base, delta decimal.Decimal, kind ErrorKind, msg string) (decimal.Decimal, error) {
	next := base.Add(delta)
	if next.IsNegative() {
		return zero, newErr(kind, "%s", msg)
	}
	return next, nil
}
