package bar

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
	"moneyScope/internal/events"
	"moneyScope/internal/model"
	"moneyScope/internal/storage"
)

const day = 86400

var (
	barAddr = common.HexToAddress("0x00000000000000000000000000000000000000b4")
	money   = common.HexToAddress("0x000000000000000000000000000000000000001f")
	alice   = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob     = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

type fakeChain struct {
	supply    *big.Int
	staked    *big.Int
	supplyErr error
	metaCalls int
}

func (f *fakeChain) TotalSupply(context.Context, common.Address, uint64) (*big.Int, error) {
	if f.supplyErr != nil {
		return nil, f.supplyErr
	}
	return f.supply, nil
}

func (f *fakeChain) BalanceOf(context.Context, common.Address, common.Address, uint64) (*big.Int, error) {
	return f.staked, nil
}

func (f *fakeChain) TokenMeta(context.Context, common.Address, uint64) (contracts.TokenMeta, error) {
	f.metaCalls++
	return contracts.TokenMeta{Decimals: 18, Name: "MoneyBar", Symbol: "xMONEY"}, nil
}

func (f *fakeChain) Money(context.Context, common.Address, uint64) (common.Address, error) {
	return common.Address{}, errors.New("execution reverted")
}

type fixedPrice decimal.Decimal

func (p fixedPrice) MoneyPrice(context.Context, uint64) decimal.Decimal { return decimal.Decimal(p) }

func wei(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func dec(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func transfer(from, to common.Address, value *big.Int, ts uint64) events.Transfer {
	return events.Transfer{
		Meta: events.Meta{
			Block:   model.Block{Number: 20_000_000 + ts/day, Timestamp: ts},
			TxHash:  "0xtx",
			Address: barAddr,
			Name:    "Transfer",
		},
		From:  from,
		To:    to,
		Value: value,
	}
}

type harness struct {
	store   *storage.MemoryStore
	chain   *fakeChain
	handler *Handler
}

func newHarness() *harness {
	chain := &fakeChain{supply: wei(100), staked: wei(200)}
	net := config.Network{Name: "test", Bar: barAddr, MoneyToken: money}
	return &harness{
		store:   storage.NewMemoryStore(),
		chain:   chain,
		handler: NewHandler(net, chain, fixedPrice(decimal.RequireFromString("0.5")), zap.NewNop()),
	}
}

func (h *harness) apply(t *testing.T, ev events.Transfer) error {
	t.Helper()
	ctx := context.Background()
	s := storage.NewSession(h.store)
	if err := h.handler.Transfer(ctx, s, ev); err != nil {
		s.Discard()
		return err
	}
	require.NoError(t, s.Flush(ctx))
	return nil
}

func load[T model.Entity](t *testing.T, store storage.Store, id string, empty func() T) T {
	t.Helper()
	entity, found, err := storage.Load(context.Background(), storage.NewSession(store), id, empty)
	require.NoError(t, err)
	require.True(t, found, "entity %s missing", id)
	return entity
}

func TestMintTransferBurn(t *testing.T) {
	h := newHarness()
	t0 := uint64(10 * day)
	barID := model.AddressID(barAddr)

	require.NoError(t, h.apply(t, transfer(common.Address{}, alice, wei(100), t0)))

	bar := load(t, h.store, barID, func() *model.Bar { return model.NewBar(barID, 0) })
	assert.Equal(t, "xMONEY", bar.Symbol)
	assert.Equal(t, model.AddressID(money), bar.Money)
	assert.True(t, bar.Ratio.Equal(dec(2)))
	assert.True(t, bar.MoneyStaked.Equal(dec(200)))
	assert.True(t, bar.MoneyStakedUSD.Equal(dec(100)))
	assert.True(t, bar.XMoney.Balance.Equal(dec(100)))

	user := load(t, h.store, model.AddressID(alice), func() *model.BarUser { return model.NewBarUser("", 0) })
	require.NotNil(t, user.Bar)
	assert.Equal(t, barID, *user.Bar)
	assert.True(t, user.MoneyStaked.Equal(dec(200)))
	assert.True(t, user.MoneyStakedUSD.Equal(dec(100)))

	historyID := model.DayBucketID(barID, t0)
	history := load(t, h.store, historyID, func() *model.BarHistory { return model.NewBarHistory(barID, 0) })
	assert.True(t, history.XMoneyMinted.Equal(dec(100)))
	assert.True(t, history.MoneyStaked.Equal(dec(200)))

	// one day later alice moves 40 to bob
	require.NoError(t, h.apply(t, transfer(alice, bob, wei(40), t0+day)))

	user = load(t, h.store, model.AddressID(alice), func() *model.BarUser { return model.NewBarUser("", 0) })
	assert.True(t, user.XMoney.Balance.Equal(dec(60)))
	assert.True(t, user.XMoney.Age.Equal(dec(60)))
	assert.True(t, user.XMoneyOut.Equal(dec(40)))

	receiver := load(t, h.store, model.AddressID(bob), func() *model.BarUser { return model.NewBarUser("", 0) })
	require.NotNil(t, receiver.Bar)
	assert.True(t, receiver.XMoney.Balance.Equal(dec(40)))
	assert.True(t, receiver.XMoney.Age.Equal(dec(40)))
	assert.True(t, receiver.MoneyStaked.Equal(dec(80)))
	assert.True(t, receiver.MoneyStakedUSD.Equal(dec(40)))
	assert.True(t, receiver.XMoneyOffset.Equal(dec(40)))
	assert.True(t, receiver.MoneyOffset.Equal(dec(80)))

	// alice burns everything the day after
	require.NoError(t, h.apply(t, transfer(alice, common.Address{}, wei(60), t0+2*day)))

	user = load(t, h.store, model.AddressID(alice), func() *model.BarUser { return model.NewBarUser("", 0) })
	assert.Nil(t, user.Bar)
	assert.True(t, user.XMoney.Balance.IsZero())
	assert.True(t, user.XMoney.AgeRemoved.Equal(dec(120)))
	assert.True(t, user.MoneyHarvested.Equal(dec(120)))

	bar = load(t, h.store, barID, func() *model.Bar { return model.NewBar(barID, 0) })
	assert.True(t, bar.XMoney.Balance.Equal(dec(40)))
	assert.True(t, bar.XMoney.AgeRemoved.Equal(dec(120)))
	// remaining global age equals bob's accrued age
	assert.True(t, bar.XMoney.Age.Equal(dec(80)), "bar age %s", bar.XMoney.Age)
	assert.True(t, bar.MoneyHarvestedUSD.Equal(dec(60)))

	burnDay := load(t, h.store, model.DayBucketID(barID, t0+2*day), func() *model.BarHistory { return model.NewBarHistory(barID, 0) })
	assert.True(t, burnDay.XMoneyBurned.Equal(dec(60)))
	assert.True(t, burnDay.XMoneyAgeDestroyed.Equal(dec(120)))
	assert.Equal(t, 1, h.chain.metaCalls)
}

func TestZeroValueTransferIsIgnored(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.apply(t, transfer(alice, bob, big.NewInt(0), day)))
	assert.Equal(t, 0, h.store.Len())
}

func TestZeroSupplyLeavesRatioZero(t *testing.T) {
	h := newHarness()
	h.chain.supply = big.NewInt(0)
	require.NoError(t, h.apply(t, transfer(common.Address{}, alice, wei(5), day)))

	barID := model.AddressID(barAddr)
	bar := load(t, h.store, barID, func() *model.Bar { return model.NewBar(barID, 0) })
	assert.True(t, bar.Ratio.IsZero())
	assert.True(t, bar.XMoney.Balance.Equal(dec(5)))
}

func TestSupplyReadFailureIsFatal(t *testing.T) {
	h := newHarness()
	h.chain.supplyErr = errors.New("execution reverted")
	err := h.apply(t, transfer(common.Address{}, alice, wei(5), day))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "totalSupply")
	assert.Equal(t, 0, h.store.Len())
}

func TestBurnWithoutBalanceStillCountsHarvest(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.apply(t, transfer(alice, common.Address{}, wei(10), day)))

	user := load(t, h.store, model.AddressID(alice), func() *model.BarUser { return model.NewBarUser("", 0) })
	assert.True(t, user.XMoney.Balance.IsZero())
	assert.True(t, user.MoneyHarvested.Equal(dec(20)))
}

func TestBurnWithoutBalanceLeavesBarPositionAlone(t *testing.T) {
	h := newHarness()
	barID := model.AddressID(barAddr)
	require.NoError(t, h.apply(t, transfer(common.Address{}, alice, wei(100), day)))
	require.NoError(t, h.apply(t, transfer(bob, common.Address{}, wei(10), 2*day)))

	bar := load(t, h.store, barID, func() *model.Bar { return model.NewBar(barID, 0) })
	assert.True(t, bar.XMoney.Balance.Equal(dec(100)), "balance %s", bar.XMoney.Balance)
	assert.True(t, bar.XMoney.AgeRemoved.IsZero())
	assert.True(t, bar.MoneyHarvested.Equal(dec(20)))

	history := load(t, h.store, model.DayBucketID(barID, 2*day), func() *model.BarHistory { return model.NewBarHistory(barID, 0) })
	assert.True(t, history.XMoneyAgeDestroyed.IsZero())
}

func TestTransferWithoutBalanceDoesNotCreditReceiver(t *testing.T) {
	h := newHarness()
	barID := model.AddressID(barAddr)
	require.NoError(t, h.apply(t, transfer(common.Address{}, alice, wei(100), day)))
	require.NoError(t, h.apply(t, transfer(bob, alice, wei(40), 2*day)))

	user := load(t, h.store, model.AddressID(alice), func() *model.BarUser { return model.NewBarUser("", 0) })
	assert.True(t, user.XMoney.Balance.Equal(dec(100)))
	assert.True(t, user.XMoneyIn.IsZero())
	assert.True(t, user.MoneyStaked.Equal(dec(200)))

	_, found, err := storage.Load(context.Background(), storage.NewSession(h.store), model.AddressID(bob), func() *model.BarUser { return model.NewBarUser("", 0) })
	require.NoError(t, err)
	assert.False(t, found)

	bar := load(t, h.store, barID, func() *model.Bar { return model.NewBar(barID, 0) })
	assert.True(t, bar.XMoney.Balance.Equal(dec(100)))
}

func TestReplayIsDeterministic(t *testing.T) {
	run := func() []storage.Record {
		h := newHarness()
		for i, ev := range []events.Transfer{
			transfer(common.Address{}, alice, wei(100), day),
			transfer(alice, bob, wei(25), 2*day),
			transfer(common.Address{}, bob, wei(5), 3*day),
			transfer(bob, common.Address{}, wei(10), 4*day),
		} {
			require.NoError(t, h.apply(t, ev), "event %d", i)
		}
		return h.store.Snapshot()
	}
	assert.Equal(t, run(), run())
}
