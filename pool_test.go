package hmmpool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBootstrapsOnTickBoundary(t *testing.T) {
	p, err := New(PoolConfig{TickSpacing: 60, Fee: 3000}, tickToRP(37))
	require.NoError(t, err)
	assert.Equal(t, int64(0), p.TickCurrent(), "bootstrap tick must be quantized down to a spacing multiple")
	assert.True(t, p.RP.Equal(tickToRP(0)), "bootstrap rP must come from the quantized tick, not the raw input")
}

func TestNewRejectsBadInputs(t *testing.T) {
	_, err := New(PoolConfig{TickSpacing: 0, Fee: 3000}, tickToRP(0))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = New(PoolConfig{TickSpacing: 60, Fee: 3000}, zero)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDepositCreatesPositionAndLiquidity(t *testing.T) {
	p := newTestPool(t, 60, 0)

	result, err := p.Deposit(alice, decStr(t, "1000"), decStr(t, "1000"), tickToRP(-600), tickToRP(600))
	require.NoError(t, err)
	assert.True(t, result.Liquidity.GreaterThan(zero))
	assert.True(t, p.L.Equal(result.Liquidity), "an in-range deposit must become active liquidity immediately")

	positions := p.Positions()
	require.Len(t, positions, 1)
	assert.True(t, positions[0].Liquidity.Equal(result.Liquidity))
}

func TestDepositOutOfRangeDoesNotActivateLiquidity(t *testing.T) {
	p := newTestPool(t, 60, 0)

	result, err := p.Deposit(alice, decStr(t, "1000"), zero, tickToRP(600), tickToRP(1200))
	require.NoError(t, err)
	assert.True(t, result.Liquidity.GreaterThan(zero))
	assert.True(t, p.L.IsZero(), "a deposit entirely above the current tick contributes no active liquidity")
}

func TestDepositRejectsInvertedRange(t *testing.T) {
	p := newTestPool(t, 60, 0)
	_, err := p.Deposit(alice, decStr(t, "100"), decStr(t, "100"), tickToRP(600), tickToRP(-600))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestWithdrawRoundTrip(t *testing.T) {
	p := newTestPool(t, 60, 0)

	deposited, err := p.Deposit(alice, decStr(t, "1000"), decStr(t, "1000"), tickToRP(-600), tickToRP(600))
	require.NoError(t, err)

	lBefore := p.L
	result, err := p.Withdraw(alice, deposited.Liquidity, tickToRP(-600), tickToRP(600))
	require.NoError(t, err)
	assert.True(t, result.XSent.GreaterThan(zero))
	assert.True(t, result.YSent.GreaterThan(zero))
	assert.True(t, p.L.Equal(lBefore.Sub(deposited.Liquidity)))
	assert.Empty(t, p.Positions(), "fully withdrawing must remove the position")
}

func TestWithdrawRejectsMoreThanOwned(t *testing.T) {
	p := newTestPool(t, 60, 0)
	deposited, err := p.Deposit(alice, decStr(t, "1000"), decStr(t, "1000"), tickToRP(-600), tickToRP(600))
	require.NoError(t, err)

	_, err = p.Withdraw(alice, deposited.Liquidity.Add(decStr(t, "1")), tickToRP(-600), tickToRP(600))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)

	// A failed withdrawal must not have mutated the pool (spec 5 atomicity).
	positions := p.Positions()
	require.Len(t, positions, 1)
	assert.True(t, positions[0].Liquidity.Equal(deposited.Liquidity))
}

func TestExportImportStateRoundTrip(t *testing.T) {
	p := newTestPool(t, 60, 0)
	_, err := p.Deposit(alice, decStr(t, "1000"), decStr(t, "1000"), tickToRP(-600), tickToRP(600))
	require.NoError(t, err)

	snap := p.ExportState()
	restored := ImportState(snap)

	assert.True(t, restored.L.Equal(p.L))
	assert.True(t, restored.RP.Equal(p.RP))
	assert.Equal(t, p.tickCurrent, restored.tickCurrent)
	assert.Len(t, restored.Positions(), len(p.Positions()))
}
