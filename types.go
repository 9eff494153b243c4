package hmmpool

import (
	"github.com/daoleno/uniswapv3-sdk/constants"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Token is the informational descriptor for one side of the pool (spec
// §3 "Token descriptor"). The core does integer-equivalent arithmetic on
// raw amounts; Decimals is purely descriptive, mirroring how the teacher
// keeps Token0/Token1 as addresses and leaves decimal-scaling to callers.
type Token struct {
	Name    string
	Address common.Address
	Decimals int
}

// PoolConfig mirrors the teacher's PoolConfig: tick spacing, the two token
// descriptors, and a fee tier drawn from the Uniswap SDK's fee-tier type.
type PoolConfig struct {
	TickSpacing int64
	TokenX      Token
	TokenY      Token
	Fee         constants.FeeAmount
	HmmC        decimal.Decimal
}

// feeRate converts the Uniswap-style fee tier (hundredths of a bip, e.g.
// 3000 == 0.3%) into spec.md's φ ∈ [0,1).
func (c PoolConfig) feeRate() decimal.Decimal {
	return decimal.NewFromInt(int64(c.Fee)).Div(decimal.NewFromInt(1_000_000))
}

// growthChannel selects which of the two parallel "outside convention"
// counters (spec 4.4) an operation targets. Fee growth and HMM-adjustment
// growth are algebraically identical — same outside/inside math, same
// crossing flip — so the pool carries both as indices into the same
// [2]growthPair arrays instead of duplicating the bookkeeping per token
// per channel (spec §9 Design Note: "polymorphic growth accounting").
type growthChannel int

const (
	channelFee growthChannel = iota
	channelHMM
	numChannels
)

// growthPair is a monotone (or, outside a tick, flip-adjusted) counter pair
// for one channel, one per token.
type growthPair struct {
	X decimal.Decimal
	Y decimal.Decimal
}

func zeroGrowthPair() growthPair {
	return growthPair{X: zero, Y: zero}
}

func (g growthPair) add(other growthPair) growthPair {
	return growthPair{X: g.X.Add(other.X), Y: g.Y.Add(other.Y)}
}

func (g growthPair) sub(other growthPair) growthPair {
	return growthPair{X: g.X.Sub(other.X), Y: g.Y.Sub(other.Y)}
}

func (g growthPair) equal(other growthPair) bool {
	return g.X.Equal(other.X) && g.Y.Equal(other.Y)
}
