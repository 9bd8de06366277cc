// Package pricing derives historical USD prices from on-chain pair reserves.
// Every failed read degrades to a zero price; a zero price means the token is
// untracked at that block and must never be used as a divisor.
package pricing

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/puzpuzpuz/xsync/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"moneyScope/internal/config"
	"moneyScope/internal/contracts"
)

// divPrecision is the number of decimal places kept by rate divisions. Token
// rates reach well below 1e-16 ETH.
const divPrecision = 36

// Chain is the subset of contract reads the oracle needs.
type Chain interface {
	GetReserves(ctx context.Context, pair common.Address, block uint64) (contracts.Reserves, error)
	Token0(ctx context.Context, pair common.Address, block uint64) (common.Address, error)
	Token1(ctx context.Context, pair common.Address, block uint64) (common.Address, error)
	TotalSupply(ctx context.Context, token common.Address, block uint64) (*big.Int, error)
	GetPair(ctx context.Context, factory, tokenA, tokenB common.Address, block uint64) (common.Address, error)
	Decimals(ctx context.Context, token common.Address, block uint64) (uint8, error)
}

// Oracle answers USD prices for one network.
type Oracle struct {
	net      config.Network
	chain    Chain
	logger   *zap.Logger
	decimals *xsync.Map[common.Address, uint8]
}

func NewOracle(net config.Network, chain Chain, logger *zap.Logger) *Oracle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Oracle{
		net:      net,
		chain:    chain,
		logger:   logger,
		decimals: xsync.NewMap[common.Address, uint8](),
	}
}

// USDRate returns the USD value of one whole token at block.
func (o *Oracle) USDRate(ctx context.Context, token common.Address, block uint64) decimal.Decimal {
	if token == o.net.USDT {
		return decimal.NewFromInt(1)
	}
	eth := o.EthRate(ctx, token, block)
	if eth.IsZero() {
		return decimal.Zero
	}
	return eth.Mul(o.EthPriceUSD(ctx, block))
}

// EthRate returns how much WETH one whole token is worth at block.
func (o *Oracle) EthRate(ctx context.Context, token common.Address, block uint64) decimal.Decimal {
	if token == o.net.WETH {
		return decimal.NewFromInt(1)
	}

	factory := o.net.Factory
	if block <= o.net.PriceCutoverBlock {
		factory = o.net.LegacyFactory
	}

	pair, err := o.chain.GetPair(ctx, factory, token, o.net.WETH, block)
	if err != nil {
		o.logger.Debug("getPair failed", zap.String("token", token.Hex()), zap.Uint64("block", block), zap.Error(err))
		return decimal.Zero
	}
	if pair == (common.Address{}) {
		o.logger.Info("no weth pair for token", zap.String("token", token.Hex()), zap.String("factory", factory.Hex()))
		return decimal.Zero
	}

	reserves, err := o.chain.GetReserves(ctx, pair, block)
	if err != nil {
		o.logger.Debug("getReserves failed", zap.String("pair", pair.Hex()), zap.Error(err))
		return decimal.Zero
	}
	token0, err := o.chain.Token0(ctx, pair, block)
	if err != nil {
		o.logger.Debug("token0 failed", zap.String("pair", pair.Hex()), zap.Error(err))
		return decimal.Zero
	}

	wethReserve, tokenReserve := reserves.Reserve1, reserves.Reserve0
	if token0 == o.net.WETH {
		wethReserve, tokenReserve = reserves.Reserve0, reserves.Reserve1
	}
	if tokenReserve.Sign() == 0 {
		return decimal.Zero
	}

	dec, ok := o.tokenDecimals(ctx, token, block)
	if !ok {
		return decimal.Zero
	}

	weth := decimal.NewFromBigInt(wethReserve, -18)
	amount := decimal.NewFromBigInt(tokenReserve, -int32(dec))
	return weth.DivRound(amount, divPrecision)
}

// EthPriceUSD returns the USD price of WETH from the WETH/USDT pair in use at block.
func (o *Oracle) EthPriceUSD(ctx context.Context, block uint64) decimal.Decimal {
	pair := o.net.WETHUSDTPair
	if block <= o.net.PriceCutoverBlock {
		pair = o.net.LegacyWETHUSDT
	}
	if pair == (common.Address{}) {
		return decimal.Zero
	}

	reserves, err := o.chain.GetReserves(ctx, pair, block)
	if err != nil {
		o.logger.Debug("weth/usdt reserves failed", zap.String("pair", pair.Hex()), zap.Error(err))
		return decimal.Zero
	}
	token0, err := o.chain.Token0(ctx, pair, block)
	if err != nil {
		o.logger.Debug("weth/usdt token0 failed", zap.String("pair", pair.Hex()), zap.Error(err))
		return decimal.Zero
	}

	wethReserve, usdReserve := reserves.Reserve0, reserves.Reserve1
	if token0 != o.net.WETH {
		wethReserve, usdReserve = reserves.Reserve1, reserves.Reserve0
	}
	if wethReserve.Sign() == 0 {
		return decimal.Zero
	}

	return decimal.NewFromBigInt(usdReserve, 12).
		DivRound(decimal.NewFromBigInt(wethReserve, 0), divPrecision)
}

// MoneyPrice returns the USD price of the money token at block.
func (o *Oracle) MoneyPrice(ctx context.Context, block uint64) decimal.Decimal {
	switch {
	case block < o.net.MoneyFirstLiquidityBlock:
		return decimal.Zero
	case block < o.net.PriceCutoverBlock:
		return o.USDRate(ctx, o.net.MoneyToken, block)
	}

	pair := o.net.MoneyUSDTPair
	if block <= o.net.MoneyPairCutoverBlock {
		pair = o.net.LegacyMoneyUSDT
	}
	if pair == (common.Address{}) {
		return decimal.Zero
	}

	reserves, err := o.chain.GetReserves(ctx, pair, block)
	if err != nil {
		o.logger.Debug("money/usdt reserves failed", zap.String("pair", pair.Hex()), zap.Error(err))
		return decimal.Zero
	}
	if reserves.Reserve0.Sign() == 0 {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(reserves.Reserve1, 12).
		DivRound(decimal.NewFromBigInt(reserves.Reserve0, 0), divPrecision)
}

// PairShareUSD values liquidity LP tokens of pair by their pro-rata share of
// both reserves. ok is false when any read reverts or the pair has no supply,
// in which case the caller skips the valuation.
func (o *Oracle) PairShareUSD(ctx context.Context, pair common.Address, liquidity *big.Int, block uint64) (decimal.Decimal, bool) {
	reserves, err := o.chain.GetReserves(ctx, pair, block)
	if err != nil {
		o.logger.Info("couldn't get reserves for pair", zap.String("pair", pair.Hex()), zap.Error(err))
		return decimal.Zero, false
	}
	supply, err := o.chain.TotalSupply(ctx, pair, block)
	if err != nil || supply.Sign() == 0 {
		o.logger.Info("couldn't get supply for pair", zap.String("pair", pair.Hex()), zap.Error(err))
		return decimal.Zero, false
	}
	token0, err := o.chain.Token0(ctx, pair, block)
	if err != nil {
		return decimal.Zero, false
	}
	token1, err := o.chain.Token1(ctx, pair, block)
	if err != nil {
		return decimal.Zero, false
	}

	share := decimal.NewFromBigInt(liquidity, 0).DivRound(decimal.NewFromBigInt(supply, 0), divPrecision)
	value0, ok := o.reserveUSD(ctx, token0, reserves.Reserve0, share, block)
	if !ok {
		return decimal.Zero, false
	}
	value1, ok := o.reserveUSD(ctx, token1, reserves.Reserve1, share, block)
	if !ok {
		return decimal.Zero, false
	}
	return value0.Add(value1), true
}

func (o *Oracle) reserveUSD(ctx context.Context, token common.Address, reserve *big.Int, share decimal.Decimal, block uint64) (decimal.Decimal, bool) {
	dec, ok := o.tokenDecimals(ctx, token, block)
	if !ok {
		return decimal.Zero, false
	}
	amount := decimal.NewFromBigInt(reserve, -int32(dec)).Mul(share)
	return amount.Mul(o.USDRate(ctx, token, block)), true
}

func (o *Oracle) tokenDecimals(ctx context.Context, token common.Address, block uint64) (uint8, bool) {
	if dec, ok := o.decimals.Load(token); ok {
		return dec, true
	}
	dec, err := o.chain.Decimals(ctx, token, block)
	if err != nil {
		o.logger.Debug("decimals failed", zap.String("token", token.Hex()), zap.Error(err))
		return 0, false
	}
	o.decimals.Store(token, dec)
	return dec, true
}
