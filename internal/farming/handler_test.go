package farming

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
	factoryAddr = common.HexToAddress("0x0000000000000000000000000000000000fac700")
	farmAddr    = common.HexToAddress("0x00000000000000000000000000000000000fa4a0")
	lpToken     = common.HexToAddress("0x00000000000000000000000000000000000001b0")
	alice       = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
)

type fakeChain struct {
	roundID int64
	shares  map[int64]int64
	users   map[common.Address]contracts.FarmUserInfo
	balance *big.Int
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		shares:  make(map[int64]int64),
		users:   make(map[common.Address]contracts.FarmUserInfo),
		balance: new(big.Int),
	}
}

func (f *fakeChain) FactoryState(context.Context, common.Address, uint64) (contracts.FactoryState, error) {
	return contracts.FactoryState{
		Owner:                            common.HexToAddress("0x0000000000000000000000000000000000000042"),
		TotalAllocPoint:                  big.NewInt(100),
		ReserveDistributionSchedule:      big.NewInt(7),
		LastReserveDistributionTimestamp: new(big.Int),
		DepositPeriod:                    big.NewInt(86400),
		GlobalRoundID:                    big.NewInt(1),
	}, nil
}

func (f *fakeChain) FarmInfo(context.Context, common.Address, uint64) (contracts.FarmInfo, error) {
	return contracts.FarmInfo{
		LPToken:       lpToken,
		PoolStartTime: big.NewInt(1000),
		GlobalRoundID: big.NewInt(1),
		AllocPoint:    big.NewInt(100),
	}, nil
}

func (f *fakeChain) FarmID(context.Context, common.Address, uint64) (*big.Int, error) {
	return big.NewInt(3), nil
}

func (f *fakeChain) AvailableRewards(context.Context, common.Address, uint64) (*big.Int, error) {
	return big.NewInt(555), nil
}

func (f *fakeChain) CurrentRoundID(context.Context, common.Address, uint64) (*big.Int, error) {
	return big.NewInt(f.roundID), nil
}

func (f *fakeChain) MoneyPerShare(_ context.Context, _ common.Address, round *big.Int, _ uint64) (*big.Int, error) {
	return big.NewInt(f.shares[round.Int64()]), nil
}

func (f *fakeChain) PoolDeposits(context.Context, common.Address, *big.Int, uint64) (*big.Int, error) {
	return nil, errors.New("execution reverted")
}

func (f *fakeChain) FarmUserInfo(_ context.Context, _ common.Address, user common.Address, _ uint64) (contracts.FarmUserInfo, error) {
	info, ok := f.users[user]
	if !ok {
		return contracts.FarmUserInfo{Amount: new(big.Int), EntryRound: new(big.Int)}, nil
	}
	return info, nil
}

func (f *fakeChain) BalanceOf(context.Context, common.Address, common.Address, uint64) (*big.Int, error) {
	return f.balance, nil
}

type fakePricer struct{}

func (fakePricer) MoneyPrice(context.Context, uint64) decimal.Decimal { return decimal.NewFromInt(3) }

func (fakePricer) PairShareUSD(context.Context, common.Address, *big.Int, uint64) (decimal.Decimal, bool) {
	return decimal.NewFromInt(40), true
}

func wei(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func meta(addr common.Address, number, ts uint64) events.Meta {
	return events.Meta{Block: model.Block{Number: number, Timestamp: ts}, TxHash: "0xtx", Address: addr}
}

type harness struct {
	store   *storage.MemoryStore
	chain   *fakeChain
	handler *Handler
}

func newHarness() *harness {
	chain := newFakeChain()
	net := config.Network{Name: "test", FarmFactory: factoryAddr, FarmingStartBlock: 100}
	return &harness{
		store:   storage.NewMemoryStore(),
		chain:   chain,
		handler: NewHandler(net, chain, fakePricer{}, zap.NewNop()),
	}
}

func (h *harness) run(t *testing.T, fn func(context.Context, *storage.Session) error) error {
	t.Helper()
	ctx := context.Background()
	s := storage.NewSession(h.store)
	if err := fn(ctx, s); err != nil {
		s.Discard()
		return err
	}
	require.NoError(t, s.Flush(ctx))
	return nil
}

func get[T model.Entity](t *testing.T, store storage.Store, id string, empty func() T) T {
	t.Helper()
	entity, found, err := storage.Load(context.Background(), storage.NewSession(store), id, empty)
	require.NoError(t, err)
	require.True(t, found, "entity %s missing", id)
	return entity
}

func (h *harness) register(t *testing.T) {
	t.Helper()
	require.NoError(t, h.run(t, func(ctx context.Context, s *storage.Session) error {
		return h.handler.NewPool(ctx, s, events.NewPool{
			Meta:       meta(factoryAddr, 150, day),
			Farm:       farmAddr,
			LPToken:    lpToken,
			AllocPoint: big.NewInt(100),
		})
	}))
}

func (h *harness) pool(t *testing.T) *model.FarmPool {
	id := model.AddressID(farmAddr)
	return get(t, h.store, id, func() *model.FarmPool { return model.NewFarmPool(id, "", model.Block{}) })
}

func (h *harness) farming(t *testing.T) *model.Farming {
	id := model.AddressID(factoryAddr)
	return get(t, h.store, id, func() *model.Farming { return model.NewFarming(id, 0) })
}

func TestNewPoolRegistersFarm(t *testing.T) {
	h := newHarness()
	h.register(t)

	pool := h.pool(t)
	assert.Equal(t, model.AddressID(lpToken), pool.Pair)
	assert.Equal(t, int64(1000), pool.PoolStartTime.Int64())
	assert.Equal(t, int64(100), pool.AllocPoint.Int64())

	farming := h.farming(t)
	assert.Equal(t, uint64(1), farming.PoolCount)
	assert.Equal(t, int64(7), farming.ReserveDistributionSchedule.Int64())
	assert.Equal(t, int64(day), farming.LastReserveDistributionTimestamp.Int64())

	require.NoError(t, h.run(t, func(ctx context.Context, s *storage.Session) error {
		return h.handler.UpdatePool(ctx, s, events.UpdatePool{Meta: meta(factoryAddr, 151, day), Farm: farmAddr, AllocPoint: big.NewInt(60), DepositFeeBP: 50})
	}))
	assert.Equal(t, int64(60), h.pool(t).AllocPoint.Int64())
	assert.Equal(t, uint16(50), h.pool(t).DepositFeeBP)
	assert.Equal(t, int64(60), h.farming(t).TotalAllocPoint.Int64())
}

func TestUnregisteredFarmIsRejected(t *testing.T) {
	h := newHarness()
	err := h.run(t, func(ctx context.Context, s *storage.Session) error {
		return h.handler.Deposit(ctx, s, events.FarmDeposit{
			Meta: meta(farmAddr, 200, day), User: alice, Amount: wei(1), RoundID: big.NewInt(1), Rewards: new(big.Int),
		})
	})
	require.ErrorIs(t, err, ErrUnknownFarm)
	assert.Equal(t, 0, h.store.Len())
}

func TestDepositHarvestWithdraw(t *testing.T) {
	h := newHarness()
	h.register(t)

	h.chain.balance = wei(8)
	h.chain.users[alice] = contracts.FarmUserInfo{Amount: wei(8), EntryRound: big.NewInt(2)}
	require.NoError(t, h.run(t, func(ctx context.Context, s *storage.Session) error {
		return h.handler.Deposit(ctx, s, events.FarmDeposit{
			Meta: meta(farmAddr, 200, 2*day), User: alice, Amount: wei(8), RoundID: big.NewInt(2), Rewards: wei(9),
		})
	}))

	userID := model.JoinID("3", model.AddressID(alice))
	user := get(t, h.store, userID, func() *model.FarmUser { return model.NewFarmUser(userID, "", model.Block{}) })
	require.NotNil(t, user.Pool)
	assert.Equal(t, model.AddressID(farmAddr), *user.Pool)
	assert.Equal(t, int64(2), user.EntryRound.Int64())
	// no prior amount, so the rewards are not a harvest
	assert.True(t, user.MoneyHarvested.IsZero())
	assert.True(t, user.EntryUSD.Equal(decimal.NewFromInt(40)))

	pool := h.pool(t)
	assert.Equal(t, uint64(1), pool.UserCount)
	assert.Equal(t, int64(2), pool.CurrentRound.Int64())
	assert.True(t, pool.HVLP.Balance.Equal(decimal.NewFromInt(8)))

	roundID := model.JoinID(model.AddressID(farmAddr), "2")
	round := get(t, h.store, roundID, func() *model.FarmPoolRound { return model.NewFarmPoolRound("", big.NewInt(2), model.Block{}) })
	assert.Equal(t, uint64(1), round.UserCount)
	assert.Equal(t, 0, round.Deposits.Sign())
	assert.Equal(t, int64(555), h.farming(t).AvailableRewards.Int64())

	h.chain.users[alice] = contracts.FarmUserInfo{Amount: new(big.Int), EntryRound: big.NewInt(2)}
	require.NoError(t, h.run(t, func(ctx context.Context, s *storage.Session) error {
		return h.handler.Withdraw(ctx, s, events.FarmWithdraw{
			Meta: meta(farmAddr, 300, 3*day), User: alice, Amount: wei(8), RoundID: big.NewInt(2), Rewards: wei(4),
		})
	}))

	user = get(t, h.store, userID, func() *model.FarmUser { return model.NewFarmUser(userID, "", model.Block{}) })
	assert.Nil(t, user.Pool)
	assert.True(t, user.MoneyHarvested.Equal(decimal.NewFromInt(4)))
	assert.True(t, user.MoneyHarvestedUSD.Equal(decimal.NewFromInt(12)))
	assert.True(t, user.ExitUSD.Equal(decimal.NewFromInt(40)))

	pool = h.pool(t)
	assert.Equal(t, uint64(0), pool.UserCount)
	assert.True(t, pool.HVLP.AgeRemoved.Equal(decimal.NewFromInt(8)))

	farming := h.farming(t)
	assert.True(t, farming.HVLP.Balance.IsZero())
	assert.True(t, farming.HVLP.Withdrawn.Equal(decimal.NewFromInt(8)))
}

func TestPoolUpdatedCatchesUpSettledRounds(t *testing.T) {
	h := newHarness()
	h.register(t)

	update := func(number uint64) {
		require.NoError(t, h.run(t, func(ctx context.Context, s *storage.Session) error {
			return h.handler.PoolUpdated(ctx, s, events.PoolUpdated{Meta: meta(farmAddr, number, 2*day), RoundID: big.NewInt(h.chain.roundID)})
		}))
	}

	h.chain.roundID = 4
	h.chain.shares[1] = 10
	h.chain.shares[2] = 20
	update(200)

	assert.Equal(t, int64(2), h.pool(t).CurrentRound.Int64())
	for round, want := range map[string]int64{"1": 10, "2": 20, "3": 0} {
		id := model.JoinID(model.AddressID(farmAddr), round)
		r := get(t, h.store, id, func() *model.FarmPoolRound { return model.NewFarmPoolRound("", new(big.Int), model.Block{}) })
		assert.Equal(t, want, r.AccMoneyPerShare.Int64(), "round %s", round)
	}

	h.chain.shares[3] = 30
	update(201)
	assert.Equal(t, int64(3), h.pool(t).CurrentRound.Int64())

	// an unchanged round counter is a no-op
	h.chain.roundID = 3
	update(202)
	assert.Equal(t, int64(3), h.pool(t).CurrentRound.Int64())
}

func TestFactoryCalls(t *testing.T) {
	h := newHarness()
	reserve := common.HexToAddress("0x00000000000000000000000000000000000000e5")
	fee := common.HexToAddress("0x00000000000000000000000000000000000000fe")
	m := meta(factoryAddr, 500, 5*day)

	require.NoError(t, h.run(t, func(ctx context.Context, s *storage.Session) error {
		if err := h.handler.PullRewards(ctx, s, events.PullRewards{Meta: m, RewardAccumulated: big.NewInt(11)}); err != nil {
			return err
		}
		if err := h.handler.PullRewards(ctx, s, events.PullRewards{Meta: m, RewardAccumulated: big.NewInt(12)}); err != nil {
			return err
		}
		if err := h.handler.SetReserveAddress(ctx, s, events.SetReserveAddress{Meta: m, Reserve: reserve}); err != nil {
			return err
		}
		if err := h.handler.SetFeeAddress(ctx, s, events.SetFeeAddress{Meta: m, FeeAddress: fee}); err != nil {
			return err
		}
		if err := h.handler.UpdateReserveDistributionSchedule(ctx, s, events.UpdateReserveDistributionSchedule{Meta: m, Schedule: big.NewInt(99)}); err != nil {
			return err
		}
		return h.handler.TransferOwnership(ctx, s, events.TransferOwnership{Meta: m, NewOwner: alice})
	}))

	farming := h.farming(t)
	assert.Equal(t, int64(3), farming.GlobalRoundID.Int64())
	require.Len(t, farming.Rewards, 2)
	assert.Equal(t, int64(12), farming.Rewards[1].Int64())
	assert.Equal(t, int64(5*day), farming.LastReserveDistributionTimestamp.Int64())
	assert.Equal(t, model.AddressID(reserve), farming.Reserve)
	assert.Equal(t, model.AddressID(fee), farming.FeeAddress)
	assert.Equal(t, int64(99), farming.ReserveDistributionSchedule.Int64())
	assert.Equal(t, model.AddressID(alice), farming.Owner)
}
