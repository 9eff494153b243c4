package hmmpool

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Rounding epsilons (spec §3 "Pool constants"): small conservative scales
// applied at fill and withdrawal boundaries. Values match the Python
// reference (bh717/hydro-solana-dex) exactly.
var (
	adjWholeFill  = decimal.New(1, -12) // 1e-12, scales down swap outputs
	adjWithdrawal = decimal.New(1, -8)  // 1e-8, scales down withdrawal outputs
)

// Pool is the core concentrated-liquidity, HMM-adjusted AMM state machine
// (spec §3 "Global pool state"). It is a single-threaded, serialized state
// machine (spec §5): callers must not invoke its methods concurrently.
// Every public operation is atomic — see clone.go for how.
type Pool struct {
	Config PoolConfig

	// liquidity / price / tick
	L           decimal.Decimal
	RP          decimal.Decimal
	tickCurrent int64

	// growth[channelFee] == (fg_x, fg_y); growth[channelHMM] == (hg_x, hg_y)
	growth [numChannels]growthPair

	// reserves
	X, Y decimal.Decimal

	// pots[channelFee] == (X_fee, Y_fee); pots[channelHMM] == (X_adj, Y_adj)
	pots [numChannels]growthPair

	ticks     *tickStore
	positions *positionStore
}

// New bootstraps a pool (spec §6 "new"). The bootstrap price is quantized
// down to a tick and rP is set from that tick, not from the raw bootstrap
// price (spec §6: "NOT the raw bootstrap rP").
func New(config PoolConfig, bootstrapRP decimal.Decimal) (*Pool, error) {
	if config.TickSpacing < 1 {
		return nil, newErr(KindInvalidInput, "tick spacing must be >= 1")
	}
	if bootstrapRP.IsNegative() || bootstrapRP.IsZero() {
		return nil, newErr(KindInvalidInput, "bootstrap root price must be positive")
	}
	if config.HmmC.IsZero() {
		config.HmmC = zero
	}

	tick := rpToPossibleTick(bootstrapRP, config.TickSpacing, false)

	p := &Pool{
		Config:      config,
		L:           zero,
		RP:          tickToRP(tick),
		tickCurrent: tick,
		X:           zero,
		Y:           zero,
		ticks:       newTickStore(),
		positions:   newPositionStore(),
	}
	for c := range p.growth {
		p.growth[c] = zeroGrowthPair()
		p.pots[c] = zeroGrowthPair()
	}

	logrus.Debugf("hmmpool: bootstrapped pool tick=%d rP=%s spacing=%d feeTier=%d hmmC=%s",
		tick, p.RP, config.TickSpacing, config.Fee, config.HmmC)

	return p, nil
}

// TickCurrent exposes the global current tick (read-only view, spec §6).
func (p *Pool) TickCurrent() int64 { return p.tickCurrent }

// checkRange validates a (lower, upper) tick range the way the teacher's
// checkTicks does.
func checkRange(lower, upper int64) error {
	if !(lower < upper) {
		return newErr(KindInvalidInput, "lower tick must be below upper tick")
	}
	return nil
}

// setPosition implements spec 4.5 end-to-end: compute growth-inside from
// the pre-update tick store (so a never-initialized tick reads the (fg, 0)
// convention), settle the position, then update the tick store and the
// active liquidity L.
func (p *Pool) setPosition(owner common.Address, lower, upper int64, deltaLiquidity decimal.Decimal) (settleAmounts, error) {
	inside, err := p.growthInsideBoth(lower, upper)
	if err != nil {
		return settleAmounts{}, err
	}

	key := PositionKey{Owner: owner, Lower: lower, Upper: upper}
	settled, err := p.positions.setPosition(key, deltaLiquidity, inside)
	if err != nil {
		return settleAmounts{}, err
	}

	if !deltaLiquidity.IsZero() {
		if err := p.ticks.update(lower, deltaLiquidity, false, p.tickCurrent, p.growth); err != nil {
			return settleAmounts{}, err
		}
		if err := p.ticks.update(upper, deltaLiquidity, true, p.tickCurrent, p.growth); err != nil {
			return settleAmounts{}, err
		}
	}

	if p.tickCurrent >= lower && p.tickCurrent < upper {
		l, err := addDelta(p.L, deltaLiquidity, KindInvariantViolation, "pool liquidity would go negative")
		if err != nil {
			return settleAmounts{}, err
		}
		p.L = l
	}

	return settled, nil
}

// DepositResult reports what a Deposit actually moved (spec §6).
type DepositResult struct {
	XDebited, YDebited   decimal.Decimal
	XReturned, YReturned decimal.Decimal
	Liquidity            decimal.Decimal
}

// Deposit implements spec 4.6 "Deposit". It runs against a clone of the
// pool and only commits on success (see clone.go), so a failing deposit
// never leaves partial state behind.
func (p *Pool) Deposit(owner common.Address, x, y, rpa, rpb decimal.Decimal) (DepositResult, error) {
	if x.IsNegative() || y.IsNegative() {
		return DepositResult{}, newErr(KindInvalidInput, "deposit amounts must be non-negative")
	}
	if rpa.IsNegative() || rpa.IsZero() || rpb.IsNegative() || rpb.IsZero() || !rpa.LessThan(rpb) {
		return DepositResult{}, newErr(KindInvalidInput, "invalid price range")
	}

	scratch := p.clone()
	result, err := scratch.depositUnchecked(owner, x, y, rpa, rpb)
	if err != nil {
		return DepositResult{}, err
	}
	p.adopt(scratch)
	return result, nil
}

func (p *Pool) depositUnchecked(owner common.Address, x, y, rpa, rpb decimal.Decimal) (DepositResult, error) {
	lower := rpToPossibleTick(rpa, p.Config.TickSpacing, false)
	upper := rpToPossibleTick(rpb, p.Config.TickSpacing, false)
	if err := checkRange(lower, upper); err != nil {
		return DepositResult{}, err
	}

	liquidity := liquidityFromReserves(x, y, p.RP, tickToRP(lower), tickToRP(upper)).RoundDown(0)
	if liquidity.IsNegative() {
		return DepositResult{}, newErr(KindInvariantViolation, "computed liquidity must not be negative")
	}

	xIn := xFromLiquidity(liquidity, p.RP, tickToRP(lower), tickToRP(upper))
	yIn := yFromLiquidity(liquidity, p.RP, tickToRP(lower), tickToRP(upper))
	if xIn.GreaterThan(x) || yIn.GreaterThan(y) {
		return DepositResult{}, newErr(KindInvariantViolation, "amount required exceeds amount offered")
	}

	settled, err := p.setPosition(owner, lower, upper, liquidity)
	if err != nil {
		return DepositResult{}, err
	}

	xDebited := xIn.Sub(settled.FeesX).Sub(settled.AdjX)
	yDebited := yIn.Sub(settled.FeesY).Sub(settled.AdjY)

	p.X = p.X.Add(xIn)
	p.Y = p.Y.Add(yIn)
	p.pots[channelFee].X = p.pots[channelFee].X.Sub(settled.FeesX)
	p.pots[channelFee].Y = p.pots[channelFee].Y.Sub(settled.FeesY)
	p.pots[channelHMM].X = p.pots[channelHMM].X.Sub(settled.AdjX)
	p.pots[channelHMM].Y = p.pots[channelHMM].Y.Sub(settled.AdjY)

	logrus.Debugf("hmmpool: deposit owner=%s ticks=[%d,%d] liquidity=%s xIn=%s yIn=%s",
		owner, lower, upper, liquidity, xIn, yIn)

	return DepositResult{
		XDebited:  xDebited,
		YDebited:  yDebited,
		XReturned: x.Sub(xDebited),
		YReturned: y.Sub(yDebited),
		Liquidity: liquidity,
	}, nil
}

// WithdrawResult reports what a Withdraw actually moved (spec §6).
type WithdrawResult struct {
	XSent, YSent decimal.Decimal
}

// Withdraw implements spec 4.6 "Withdraw", atomically (see Deposit).
func (p *Pool) Withdraw(owner common.Address, liquidity, rpa, rpb decimal.Decimal) (WithdrawResult, error) {
	if liquidity.IsNegative() || liquidity.IsZero() {
		return WithdrawResult{}, newErr(KindInvalidInput, "withdrawal liquidity must be positive")
	}
	if rpa.IsNegative() || rpa.IsZero() || rpb.IsNegative() || rpb.IsZero() || !rpa.LessThan(rpb) {
		return WithdrawResult{}, newErr(KindInvalidInput, "invalid price range")
	}

	scratch := p.clone()
	result, err := scratch.withdrawUnchecked(owner, liquidity, rpa, rpb)
	if err != nil {
		return WithdrawResult{}, err
	}
	p.adopt(scratch)
	return result, nil
}

func (p *Pool) withdrawUnchecked(owner common.Address, liquidity, rpa, rpb decimal.Decimal) (WithdrawResult, error) {
	lower := rpToPossibleTick(rpa, p.Config.TickSpacing, false)
	upper := rpToPossibleTick(rpb, p.Config.TickSpacing, false)
	if err := checkRange(lower, upper); err != nil {
		return WithdrawResult{}, err
	}

	settled, err := p.setPosition(owner, lower, upper, liquidity.Neg())
	if err != nil {
		return WithdrawResult{}, err
	}

	xOut := xFromLiquidity(liquidity, p.RP, tickToRP(lower), tickToRP(upper))
	yOut := yFromLiquidity(liquidity, p.RP, tickToRP(lower), tickToRP(upper))

	shrink := one.Sub(adjWithdrawal)
	xOut = xOut.Mul(shrink)
	yOut = yOut.Mul(shrink)

	if p.X.LessThan(xOut) || p.Y.LessThan(yOut) {
		return WithdrawResult{}, newErr(KindInsufficientLiquidity, "withdrawal would draw reserves below zero")
	}

	xSent := xOut.Add(settled.FeesX).Add(settled.AdjX)
	ySent := yOut.Add(settled.FeesY).Add(settled.AdjY)

	p.X = p.X.Sub(xOut)
	p.Y = p.Y.Sub(yOut)
	p.pots[channelFee].X = p.pots[channelFee].X.Sub(settled.FeesX)
	p.pots[channelFee].Y = p.pots[channelFee].Y.Sub(settled.FeesY)
	p.pots[channelHMM].X = p.pots[channelHMM].X.Sub(settled.AdjX)
	p.pots[channelHMM].Y = p.pots[channelHMM].Y.Sub(settled.AdjY)

	logrus.Debugf("hmmpool: withdraw owner=%s ticks=[%d,%d] liquidity=%s xSent=%s ySent=%s",
		owner, lower, upper, liquidity, xSent, ySent)

	return WithdrawResult{XSent: xSent, YSent: ySent}, nil
}

// GlobalStateView is a read-only snapshot of pool-wide state (spec §6).
type GlobalStateView struct {
	L                decimal.Decimal
	RP               decimal.Decimal
	Tick             int64
	FeeGrowthX       decimal.Decimal
	FeeGrowthY       decimal.Decimal
	HmmGrowthX       decimal.Decimal
	HmmGrowthY       decimal.Decimal
	X, Y             decimal.Decimal
	XFeePot, YFeePot decimal.Decimal
	XAdjPot, YAdjPot decimal.Decimal
}

// GlobalState returns a read-only view of the pool's global state.
func (p *Pool) GlobalState() GlobalStateView {
	return GlobalStateView{
		L:          p.L,
		RP:         p.RP,
		Tick:       p.tickCurrent,
		FeeGrowthX: p.growth[channelFee].X,
		FeeGrowthY: p.growth[channelFee].Y,
		HmmGrowthX: p.growth[channelHMM].X,
		HmmGrowthY: p.growth[channelHMM].Y,
		X:          p.X,
		Y:          p.Y,
		XFeePot:    p.pots[channelFee].X,
		YFeePot:    p.pots[channelFee].Y,
		XAdjPot:    p.pots[channelHMM].X,
		YAdjPot:    p.pots[channelHMM].Y,
	}
}

// TickView is a read-only snapshot of one active tick (spec §6).
type TickView struct {
	Tick           int64
	LiquidityNet   decimal.Decimal
	LiquidityGross decimal.Decimal
}

// ActiveTicks returns a read-only, ascending-order view of every active tick.
func (p *Pool) ActiveTicks() []TickView {
	views := make([]TickView, 0, len(p.ticks.ordered))
	for _, tick := range p.ticks.ordered {
		ts := p.ticks.ticks[tick]
		views = append(views, TickView{Tick: tick, LiquidityNet: ts.LiquidityNet, LiquidityGross: ts.LiquidityGross})
	}
	return views
}

// PositionView is a read-only snapshot of one position (spec §6).
type PositionView struct {
	Key       PositionKey
	Liquidity decimal.Decimal
}

// Positions returns a read-only view of every open position.
func (p *Pool) Positions() []PositionView {
	views := make([]PositionView, 0, len(p.positions.positions))
	for k, v := range p.positions.positions {
		views = append(views, PositionView{Key: k, Liquidity: v.Liquidity})
	}
	return views
}
