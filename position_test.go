package hmmpool

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var alice = common.HexToAddress("0x000000000000000000000000000000000000a1")

func TestSetPositionCreateGrowShrinkRemove(t *testing.T) {
	s := newPositionStore()
	key := PositionKey{Owner: alice, Lower: -60, Upper: 60}

	insideZero := [numChannels]growthPair{zeroGrowthPair(), zeroGrowthPair()}
	_, err := s.setPosition(key, decStr(t, "100"), insideZero)
	require.NoError(t, err)
	pos, ok := s.get(key)
	require.True(t, ok)
	assert.True(t, pos.Liquidity.Equal(decStr(t, "100")))

	insideGrown := [numChannels]growthPair{
		{X: decStr(t, "1"), Y: decStr(t, "2")},
		zeroGrowthPair(),
	}
	settled, err := s.setPosition(key, decStr(t, "50"), insideGrown)
	require.NoError(t, err)
	assert.True(t, settled.FeesX.Equal(decStr(t, "100")), "accrual is base liquidity (pre-update) times growth delta")
	assert.True(t, settled.FeesY.Equal(decStr(t, "200")))
	pos, _ = s.get(key)
	assert.True(t, pos.Liquidity.Equal(decStr(t, "150")))

	_, err = s.setPosition(key, decStr(t, "-150"), insideGrown)
	require.NoError(t, err)
	_, ok = s.get(key)
	assert.False(t, ok, "liquidity hitting zero must remove the position")
}

func TestSetPositionRejectsWithdrawFromAbsent(t *testing.T) {
	s := newPositionStore()
	key := PositionKey{Owner: alice, Lower: -60, Upper: 60}
	_, err := s.setPosition(key, decStr(t, "-1"), [numChannels]growthPair{zeroGrowthPair(), zeroGrowthPair()})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSetPositionRejectsOverWithdraw(t *testing.T) {
	s := newPositionStore()
	key := PositionKey{Owner: alice, Lower: -60, Upper: 60}
	zeroInside := [numChannels]growthPair{zeroGrowthPair(), zeroGrowthPair()}
	_, err := s.setPosition(key, decStr(t, "10"), zeroInside)
	require.NoError(t, err)

	_, err = s.setPosition(key, decStr(t, "-20"), zeroInside)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)
}

func TestSetPositionRejectsShrinkingGrowthInside(t *testing.T) {
	s := newPositionStore()
	key := PositionKey{Owner: alice, Lower: -60, Upper: 60}
	growing := [numChannels]growthPair{{X: decStr(t, "5")}, zeroGrowthPair()}
	_, err := s.setPosition(key, decStr(t, "10"), growing)
	require.NoError(t, err)

	shrinking := [numChannels]growthPair{{X: decStr(t, "1")}, zeroGrowthPair()}
	_, err = s.setPosition(key, decStr(t, "5"), shrinking)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvariantViolation)
}
