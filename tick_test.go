package hmmpool

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGlobal(x, y string) [numChannels]growthPair {
	return [numChannels]growthPair{
		{X: decimal.RequireFromString(x), Y: decimal.RequireFromString(y)},
		zeroGrowthPair(),
	}
}

func TestTickStoreUpdateInitializesAndDeinitializes(t *testing.T) {
	s := newTickStore()
	global := sampleGlobal("1", "2")

	err := s.update(60, decStr(t, "100"), false, 0, global)
	require.NoError(t, err)
	ts, ok := s.get(60)
	require.True(t, ok)
	assert.True(t, ts.LiquidityNet.Equal(decStr(t, "100")))
	assert.True(t, ts.LiquidityGross.Equal(decStr(t, "100")))

	err = s.update(60, decStr(t, "-100"), false, 0, global)
	require.NoError(t, err)
	_, ok = s.get(60)
	assert.False(t, ok, "tick must deinitialize once gross liquidity returns to zero")
}

func TestTickStoreUpperFlipsNetSign(t *testing.T) {
	s := newTickStore()
	global := sampleGlobal("0", "0")

	require.NoError(t, s.update(120, decStr(t, "50"), true, 0, global))
	ts, ok := s.get(120)
	require.True(t, ok)
	assert.True(t, ts.LiquidityNet.Equal(decStr(t, "-50")), "upper boundary ticks subtract from net liquidity")
}

func TestTickStoreInitializeOutsideConvention(t *testing.T) {
	s := newTickStore()
	global := sampleGlobal("5", "7")

	belowCurrent := s.getOrInit(-60, 0, global)
	assert.True(t, belowCurrent.Outside[channelFee].X.Equal(decStr(t, "5")), "a tick at or below current gets the global counters as its outside snapshot")

	aboveCurrent := s.getOrInit(60, 0, global)
	assert.True(t, aboveCurrent.Outside[channelFee].X.IsZero(), "a tick above current starts with a zero outside snapshot")
}

func TestTickStoreFlipOutside(t *testing.T) {
	s := newTickStore()
	global := sampleGlobal("10", "20")
	s.initialize(0, 0, global)

	laterGlobal := sampleGlobal("30", "40")
	ts, err := s.flipOutside(0, laterGlobal)
	require.NoError(t, err)
	assert.True(t, ts.Outside[channelFee].X.Equal(decStr(t, "20")), "flip must compute global-outside, not overwrite with global")
}

func TestTickStoreFlipOutsideMissingTick(t *testing.T) {
	s := newTickStore()
	_, err := s.flipOutside(42, sampleGlobal("0", "0"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoActiveTick)
}

func TestTickStoreLeftRightLimit(t *testing.T) {
	s := newTickStore()
	global := sampleGlobal("0", "0")
	s.initialize(-120, 0, global)
	s.initialize(-60, 0, global)
	s.initialize(60, 0, global)
	s.initialize(120, 0, global)

	left, ok := s.leftLimit(0, 0, 60)
	require.True(t, ok)
	assert.Equal(t, int64(-60), left)

	right, ok, err := s.rightLimit(0, 0, 60)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(60), right)
}

func TestTickStoreRightLimitRejectsBelowCurrent(t *testing.T) {
	s := newTickStore()
	_, _, err := s.rightLimit(-60, 0, 60)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvariantViolation)
}

func TestTickStoreCloneIsIndependent(t *testing.T) {
	s := newTickStore()
	global := sampleGlobal("0", "0")
	s.initialize(60, 0, global)

	c := s.clone()
	require.NoError(t, c.update(60, decStr(t, "10"), false, 0, global))

	original, ok := s.get(60)
	require.True(t, ok)
	assert.True(t, original.LiquidityGross.IsZero(), "cloning must not alias the original tick map")
}
