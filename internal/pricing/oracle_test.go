package pricing

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"moneyScope/internal/config"
	"moneyScope/internal/contracts"
)

var (
	weth          = common.HexToAddress("0x00000000000000000000000000000000000000e1")
	usdt          = common.HexToAddress("0x00000000000000000000000000000000000000d1")
	money         = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	factory       = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	legacyFactory = common.HexToAddress("0x00000000000000000000000000000000000000f0")
	wethUSDT      = common.HexToAddress("0x0000000000000000000000000000000000000b01")
	legacyWETH    = common.HexToAddress("0x0000000000000000000000000000000000000b00")
	moneyUSDT     = common.HexToAddress("0x0000000000000000000000000000000000000c01")
	legacyMoney   = common.HexToAddress("0x0000000000000000000000000000000000000c00")
)

type pairState struct {
	token0, token1 common.Address
	r0, r1         *big.Int
	supply         *big.Int
}

type fakeChain struct {
	pairs        map[common.Address]pairState
	factoryPairs map[common.Address]map[common.Address]common.Address
	decimals     map[common.Address]uint8
	decimalCalls int
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		pairs:        make(map[common.Address]pairState),
		factoryPairs: make(map[common.Address]map[common.Address]common.Address),
		decimals:     map[common.Address]uint8{weth: 18, usdt: 6, money: 18},
	}
}

func (f *fakeChain) addPair(factoryAddr, pair common.Address, p pairState) {
	f.pairs[pair] = p
	if factoryAddr == (common.Address{}) {
		return
	}
	if f.factoryPairs[factoryAddr] == nil {
		f.factoryPairs[factoryAddr] = make(map[common.Address]common.Address)
	}
	f.factoryPairs[factoryAddr][p.token0] = pair
	f.factoryPairs[factoryAddr][p.token1] = pair
}

func (f *fakeChain) GetReserves(_ context.Context, pair common.Address, _ uint64) (contracts.Reserves, error) {
	p, ok := f.pairs[pair]
	if !ok {
		return contracts.Reserves{}, errors.New("execution reverted")
	}
	return contracts.Reserves{Reserve0: p.r0, Reserve1: p.r1}, nil
}

func (f *fakeChain) Token0(_ context.Context, pair common.Address, _ uint64) (common.Address, error) {
	p, ok := f.pairs[pair]
	if !ok {
		return common.Address{}, errors.New("execution reverted")
	}
	return p.token0, nil
}

func (f *fakeChain) Token1(_ context.Context, pair common.Address, _ uint64) (common.Address, error) {
	p, ok := f.pairs[pair]
	if !ok {
		return common.Address{}, errors.New("execution reverted")
	}
	return p.token1, nil
}

func (f *fakeChain) TotalSupply(_ context.Context, pair common.Address, _ uint64) (*big.Int, error) {
	p, ok := f.pairs[pair]
	if !ok || p.supply == nil {
		return nil, errors.New("execution reverted")
	}
	return p.supply, nil
}

func (f *fakeChain) GetPair(_ context.Context, factoryAddr, tokenA, tokenB common.Address, _ uint64) (common.Address, error) {
	pairs := f.factoryPairs[factoryAddr]
	if pairs == nil {
		return common.Address{}, nil
	}
	pair := pairs[tokenA]
	if pair == (common.Address{}) {
		return common.Address{}, nil
	}
	p := f.pairs[pair]
	if (p.token0 == tokenA && p.token1 == tokenB) || (p.token0 == tokenB && p.token1 == tokenA) {
		return pair, nil
	}
	return common.Address{}, nil
}

func (f *fakeChain) Decimals(_ context.Context, token common.Address, _ uint64) (uint8, error) {
	f.decimalCalls++
	dec, ok := f.decimals[token]
	if !ok {
		return 0, errors.New("execution reverted")
	}
	return dec, nil
}

func testNetwork() config.Network {
	return config.Network{
		Name:                     "test",
		MoneyToken:               money,
		Factory:                  factory,
		LegacyFactory:            legacyFactory,
		WETH:                     weth,
		USDT:                     usdt,
		WETHUSDTPair:             wethUSDT,
		LegacyWETHUSDT:           legacyWETH,
		MoneyUSDTPair:            moneyUSDT,
		LegacyMoneyUSDT:          legacyMoney,
		MoneyFirstLiquidityBlock: 100,
		PriceCutoverBlock:        config.PriceCutoverBlock,
		MoneyPairCutoverBlock:    config.MoneyPairCutoverBlock,
	}
}

func e18(v int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(v), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func e6(v int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(v), big.NewInt(1_000_000))
}

func requireDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	want, err := decimal.NewFromString(expected)
	require.NoError(t, err)
	assert.True(t, want.Equal(actual), "expected %s, got %s", expected, actual.String())
}

func TestUSDRateOfReferenceStableIsOne(t *testing.T) {
	oracle := NewOracle(testNetwork(), newFakeChain(), zap.NewNop())
	for _, block := range []uint64{0, config.PriceCutoverBlock, 20_000_000} {
		requireDecimal(t, "1", oracle.USDRate(context.Background(), usdt, block))
	}
}

func TestUSDRateWithoutPairIsZero(t *testing.T) {
	chain := newFakeChain()
	chain.addPair(common.Address{}, wethUSDT, pairState{token0: weth, token1: usdt, r0: e18(10), r1: e6(20000)})
	oracle := NewOracle(testNetwork(), chain, zap.NewNop())

	untracked := common.HexToAddress("0x0000000000000000000000000000000000000999")
	assert.True(t, oracle.USDRate(context.Background(), untracked, config.PriceCutoverBlock+1).IsZero())
}

func TestEthPriceCutover(t *testing.T) {
	chain := newFakeChain()
	chain.addPair(common.Address{}, legacyWETH, pairState{token0: weth, token1: usdt, r0: e18(10), r1: e6(4000)})
	chain.addPair(common.Address{}, wethUSDT, pairState{token0: usdt, token1: weth, r0: e6(6000), r1: e18(2)})
	oracle := NewOracle(testNetwork(), chain, zap.NewNop())

	requireDecimal(t, "400", oracle.EthPriceUSD(context.Background(), config.PriceCutoverBlock))
	requireDecimal(t, "3000", oracle.EthPriceUSD(context.Background(), config.PriceCutoverBlock+1))
}

func TestEthRateUsesFactoryByBlock(t *testing.T) {
	token := common.HexToAddress("0x0000000000000000000000000000000000000777")
	legacyPair := common.HexToAddress("0x0000000000000000000000000000000000000701")
	currentPair := common.HexToAddress("0x0000000000000000000000000000000000000702")

	chain := newFakeChain()
	chain.decimals[token] = 6
	// 1 WETH : 2000 tokens with 6 decimals.
	chain.addPair(legacyFactory, legacyPair, pairState{token0: weth, token1: token, r0: e18(1), r1: e6(2000)})
	// 1 WETH : 500 tokens.
	chain.addPair(factory, currentPair, pairState{token0: token, token1: weth, r0: e6(500), r1: e18(1)})
	oracle := NewOracle(testNetwork(), chain, zap.NewNop())

	requireDecimal(t, "0.0005", oracle.EthRate(context.Background(), token, config.PriceCutoverBlock))
	requireDecimal(t, "0.002", oracle.EthRate(context.Background(), token, config.PriceCutoverBlock+1))
	assert.Equal(t, 1, chain.decimalCalls)
	requireDecimal(t, "1", oracle.EthRate(context.Background(), weth, 1))
}

func TestEthRateKeepsSubWeiPrices(t *testing.T) {
	wethReserve, ok := new(big.Int).SetString("1234567890000000000", 10)
	require.True(t, ok)

	cases := []struct {
		name     string
		reserve  string
		expected string
	}{
		{name: "1e12 tokens per weth", reserve: "1000000000000000000000000000000", expected: "0.00000000000123456789"},
		{name: "1e18 tokens per weth", reserve: "1000000000000000000000000000000000000", expected: "0.00000000000000000123456789"},
	}
	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			token := common.BigToAddress(big.NewInt(int64(0x900 + i)))
			pair := common.BigToAddress(big.NewInt(int64(0x950 + i)))
			tokenReserve, ok := new(big.Int).SetString(tc.reserve, 10)
			require.True(t, ok)

			chain := newFakeChain()
			chain.decimals[token] = 18
			chain.addPair(factory, pair, pairState{token0: weth, token1: token, r0: wethReserve, r1: tokenReserve})
			oracle := NewOracle(testNetwork(), chain, zap.NewNop())

			rate := oracle.EthRate(context.Background(), token, config.PriceCutoverBlock+1)
			require.False(t, rate.IsZero())
			requireDecimal(t, tc.expected, rate)
		})
	}
}

func TestMoneyPriceBranches(t *testing.T) {
	chain := newFakeChain()
	chain.addPair(legacyFactory, common.HexToAddress("0x0000000000000000000000000000000000000a0e"),
		pairState{token0: money, token1: weth, r0: e18(1000), r1: e18(1)})
	chain.addPair(common.Address{}, legacyWETH, pairState{token0: weth, token1: usdt, r0: e18(1), r1: e6(500)})
	chain.addPair(common.Address{}, legacyMoney, pairState{token0: money, token1: usdt, r0: e18(100), r1: e6(150)})
	chain.addPair(common.Address{}, moneyUSDT, pairState{token0: money, token1: usdt, r0: e18(100), r1: e6(250)})
	oracle := NewOracle(testNetwork(), chain, zap.NewNop())
	ctx := context.Background()

	assert.True(t, oracle.MoneyPrice(ctx, 99).IsZero())
	// 0.001 WETH per money at 500 USD per WETH.
	requireDecimal(t, "0.5", oracle.MoneyPrice(ctx, 100))
	requireDecimal(t, "1.5", oracle.MoneyPrice(ctx, config.PriceCutoverBlock))
	requireDecimal(t, "1.5", oracle.MoneyPrice(ctx, config.MoneyPairCutoverBlock))
	requireDecimal(t, "2.5", oracle.MoneyPrice(ctx, config.MoneyPairCutoverBlock+1))
}

func TestPairShareUSD(t *testing.T) {
	lp := common.HexToAddress("0x0000000000000000000000000000000000000abc")
	chain := newFakeChain()
	chain.addPair(common.Address{}, wethUSDT, pairState{token0: weth, token1: usdt, r0: e18(10), r1: e6(20000)})
	chain.addPair(common.Address{}, lp, pairState{token0: weth, token1: usdt, r0: e18(10), r1: e6(20000), supply: e18(100)})
	oracle := NewOracle(testNetwork(), chain, zap.NewNop())
	ctx := context.Background()

	// 10% of 10 WETH at 2000 plus 10% of 20000 USDT.
	value, ok := oracle.PairShareUSD(ctx, lp, e18(10), config.PriceCutoverBlock+1)
	require.True(t, ok)
	requireDecimal(t, "4000", value)

	_, ok = oracle.PairShareUSD(ctx, common.HexToAddress("0x0000000000000000000000000000000000000def"), e18(1), 1)
	assert.False(t, ok)
}
