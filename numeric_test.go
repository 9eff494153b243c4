package hmmpool

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decStr(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestTickToRPRoundTrip(t *testing.T) {
	for _, tick := range []int64{0, 1, -1, 100, -100, 60000, -60000} {
		rp := tickToRP(tick)
		back := rpToTick(rp, false)
		assert.Equalf(t, tick, back, "tick %d round-tripped to %d via rP=%s", tick, back, rp)
	}
}

func TestTickToRPMonotone(t *testing.T) {
	prev := tickToRP(-1000)
	for tick := int64(-999); tick <= 1000; tick++ {
		cur := tickToRP(tick)
		assert.True(t, cur.GreaterThan(prev), "rP must strictly increase with tick")
		prev = cur
	}
}

func TestQuantizeTickNegativeSafe(t *testing.T) {
	assert.Equal(t, int64(-60), quantizeTick(-30, 60, false))
	assert.Equal(t, int64(0), quantizeTick(-30, 60, true))
	assert.Equal(t, int64(60), quantizeTick(61, 60, false))
	assert.Equal(t, int64(120), quantizeTick(61, 60, true))
	assert.Equal(t, int64(0), quantizeTick(0, 60, false))
	assert.Equal(t, int64(0), quantizeTick(0, 60, true))
}

func TestLiquidityFromReservesBranches(t *testing.T) {
	rpa := tickToRP(-600)
	rpb := tickToRP(600)

	belowRange := rpa.Sub(decimal.NewFromFloat(0.01))
	lx := liquidityFromReserves(decStr(t, "1000"), zero, belowRange, rpa, rpb)
	assert.True(t, lx.GreaterThan(zero))

	aboveRange := rpb.Add(decimal.NewFromFloat(0.01))
	ly := liquidityFromReserves(zero, decStr(t, "1000"), aboveRange, rpa, rpb)
	assert.True(t, ly.GreaterThan(zero))

	mid := tickToRP(0)
	lBoth := liquidityFromReserves(decStr(t, "1000"), decStr(t, "1000"), mid, rpa, rpb)
	assert.True(t, lBoth.GreaterThan(zero))
}

func TestReservesFromLiquidityInverts(t *testing.T) {
	rpa := tickToRP(-600)
	rpb := tickToRP(600)
	rp := tickToRP(0)

	l := decStr(t, "5000")
	x := xFromLiquidity(l, rp, rpa, rpb)
	y := yFromLiquidity(l, rp, rpa, rpb)

	back := liquidityFromReserves(x, y, rp, rpa, rpb)
	diff := back.Sub(l).Abs()
	assert.True(t, diff.LessThan(decStr(t, "0.001")), "round-tripped liquidity drifted: got %s want %s", back, l)
}

func TestAmmDeltaXYConsistency(t *testing.T) {
	l := decStr(t, "1000")
	rpOld := tickToRP(0)
	rpNew := tickToRP(100)

	dy := ammDeltaY(l, rpOld, rpNew)
	assert.True(t, dy.GreaterThan(zero), "rP increasing must add Y to the pool")

	backRP := rpNewFromDeltaY(l, rpOld, dy)
	assert.True(t, backRP.Sub(rpNew).Abs().LessThan(decStr(t, "0.0000001")))

	dx := ammDeltaX(l, rpOld, rpNew)
	assert.True(t, dx.LessThan(zero), "rP increasing must remove X from the pool")
}

func TestHmmDeltaMatchesAmmWhenCZero(t *testing.T) {
	l := decStr(t, "1000")
	rpOld := tickToRP(0)
	rpNew := tickToRP(50)
	rpOracle := tickToRP(10)

	ammY := ammDeltaY(l, rpOld, rpNew)
	hmmY := hmmDeltaY(l, rpOld, rpNew, zero, rpOracle)
	diff := ammY.Sub(hmmY).Abs()
	assert.True(t, diff.LessThan(decStr(t, "0.0001")), "C=0 HMM integral must reduce to the naive AMM curve: amm=%s hmm=%s", ammY, hmmY)
}

func TestAddDeltaRejectsNegative(t *testing.T) {
	_, err := addDelta(decStr(t, "10"), decStr(t, "-20"), KindInsufficientLiquidity, "boom")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)
}
